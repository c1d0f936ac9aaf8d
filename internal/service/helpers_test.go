package service

import (
	"context"
	"errors"
	"testing"

	"ripple/internal/models"
	"ripple/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	updateFn        func(context.Context, *models.User) error
	searchFn        func(context.Context, string, uint, int, int) ([]models.User, error)
}

func (s *userRepoStub) WithTx(_ *gorm.DB) repository.UserRepository { return s }
func (s *userRepoStub) Create(ctx context.Context, u *models.User) error {
	return s.createFn(ctx, u)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Update(ctx context.Context, u *models.User) error {
	return s.updateFn(ctx, u)
}
func (s *userRepoStub) Search(ctx context.Context, query string, excludeUserID uint, limit, offset int) ([]models.User, error) {
	return s.searchFn(ctx, query, excludeUserID, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn: func(_ context.Context, _ *models.User) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "user"}, nil
		},
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			return nil, models.NewNotFoundError("User", username)
		},
		getByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			return nil, models.NewNotFoundError("User", email)
		},
		updateFn: func(_ context.Context, _ *models.User) error { return nil },
		searchFn: func(_ context.Context, _ string, _ uint, _, _ int) ([]models.User, error) {
			return nil, nil
		},
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	insertFn          func(context.Context, uint, uint) (bool, error)
	removeFn          func(context.Context, uint, uint) (bool, error)
	existsFn          func(context.Context, uint, uint) (bool, error)
	getFollowersFn    func(context.Context, uint) ([]models.User, error)
	getFollowingFn    func(context.Context, uint) ([]models.User, error)
	getFollowingIDsFn func(context.Context, uint) ([]uint, error)
	countFollowersFn  func(context.Context, uint) (int64, error)
	countFollowingFn  func(context.Context, uint) (int64, error)
}

func (s *followRepoStub) WithTx(_ *gorm.DB) repository.FollowRepository { return s }
func (s *followRepoStub) Insert(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.insertFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Remove(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.removeFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.existsFn(ctx, followerID, followingID)
}
func (s *followRepoStub) GetFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.getFollowersFn(ctx, userID)
}
func (s *followRepoStub) GetFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	return s.getFollowingFn(ctx, userID)
}
func (s *followRepoStub) GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.getFollowingIDsFn(ctx, userID)
}
func (s *followRepoStub) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowersFn(ctx, userID)
}
func (s *followRepoStub) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowingFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		insertFn:          func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		removeFn:          func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		existsFn:          func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		getFollowersFn:    func(_ context.Context, _ uint) ([]models.User, error) { return nil, nil },
		getFollowingFn:    func(_ context.Context, _ uint) ([]models.User, error) { return nil, nil },
		getFollowingIDsFn: func(_ context.Context, _ uint) ([]uint, error) { return nil, nil },
		countFollowersFn:  func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		countFollowingFn:  func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post) error
	getByIDFn       func(context.Context, uint, uint) (*models.Post, error)
	getByUserIDFn   func(context.Context, uint, int, int, uint) ([]*models.Post, error)
	listFn          func(context.Context, repository.PostFilters, int, int, uint) ([]*models.Post, error)
	listByAuthorsFn func(context.Context, []uint, int, int, uint) ([]*models.Post, error)
	updateFn        func(context.Context, *models.Post) error
	deleteFn        func(context.Context, uint) error
	isLikedFn       func(context.Context, uint, uint) (bool, error)
	likeFn          func(context.Context, uint, uint) (bool, error)
	unlikeFn        func(context.Context, uint, uint) (bool, error)
}

func (s *postRepoStub) WithTx(_ *gorm.DB) repository.PostRepository { return s }
func (s *postRepoStub) Create(ctx context.Context, p *models.Post) error {
	return s.createFn(ctx, p)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.getByUserIDFn(ctx, userID, limit, offset, currentUserID)
}
func (s *postRepoStub) List(ctx context.Context, filters repository.PostFilters, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.listFn(ctx, filters, limit, offset, currentUserID)
}
func (s *postRepoStub) ListByAuthors(ctx context.Context, authorIDs []uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.listByAuthorsFn(ctx, authorIDs, limit, offset, currentUserID)
}
func (s *postRepoStub) Update(ctx context.Context, p *models.Post) error {
	return s.updateFn(ctx, p)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID uint) (bool, error) {
	return s.likeFn(ctx, userID, postID)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID uint) (bool, error) {
	return s.unlikeFn(ctx, userID, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 1}, nil
		},
		getByUserIDFn: func(_ context.Context, _ uint, _, _ int, _ uint) ([]*models.Post, error) {
			return nil, nil
		},
		listFn: func(_ context.Context, _ repository.PostFilters, _, _ int, _ uint) ([]*models.Post, error) {
			return nil, nil
		},
		listByAuthorsFn: func(_ context.Context, _ []uint, _, _ int, _ uint) ([]*models.Post, error) {
			return nil, nil
		},
		updateFn:  func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:  func(_ context.Context, _ uint) error { return nil },
		isLikedFn: func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		likeFn:    func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		unlikeFn:  func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn      func(context.Context, *models.Comment) error
	getByIDFn     func(context.Context, uint) (*models.Comment, error)
	getByPostIDFn func(context.Context, uint, int, int) ([]*models.Comment, error)
	updateFn      func(context.Context, *models.Comment) error
	deleteFn      func(context.Context, *models.Comment) error
}

func (s *commentRepoStub) WithTx(_ *gorm.DB) repository.CommentRepository { return s }
func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) GetByPostID(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	return s.getByPostIDFn(ctx, postID, limit, offset)
}
func (s *commentRepoStub) Update(ctx context.Context, c *models.Comment) error {
	return s.updateFn(ctx, c)
}
func (s *commentRepoStub) Delete(ctx context.Context, c *models.Comment) error {
	return s.deleteFn(ctx, c)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:  func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		getByPostIDFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Comment, error) {
			return nil, nil
		},
		updateFn: func(_ context.Context, _ *models.Comment) error { return nil },
		deleteFn: func(_ context.Context, _ *models.Comment) error { return nil },
	}
}

// notificationRepoStub is a stub for repository.NotificationRepository.
type notificationRepoStub struct {
	createFn              func(context.Context, *models.Notification) error
	getByRecipientFn      func(context.Context, uint, int, int) ([]*models.Notification, error)
	getByIDForRecipientFn func(context.Context, uint, uint) (*models.Notification, error)
	markReadFn            func(context.Context, uint, uint) (bool, error)
	markAllReadFn         func(context.Context, uint) (int64, error)
	countUnreadFn         func(context.Context, uint) (int64, error)
}

func (s *notificationRepoStub) WithTx(_ *gorm.DB) repository.NotificationRepository { return s }
func (s *notificationRepoStub) Create(ctx context.Context, n *models.Notification) error {
	return s.createFn(ctx, n)
}
func (s *notificationRepoStub) GetByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]*models.Notification, error) {
	return s.getByRecipientFn(ctx, recipientID, limit, offset)
}
func (s *notificationRepoStub) GetByIDForRecipient(ctx context.Context, id, recipientID uint) (*models.Notification, error) {
	return s.getByIDForRecipientFn(ctx, id, recipientID)
}
func (s *notificationRepoStub) MarkRead(ctx context.Context, id, recipientID uint) (bool, error) {
	return s.markReadFn(ctx, id, recipientID)
}
func (s *notificationRepoStub) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	return s.markAllReadFn(ctx, recipientID)
}
func (s *notificationRepoStub) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	return s.countUnreadFn(ctx, recipientID)
}

func noopNotificationRepo() *notificationRepoStub {
	return &notificationRepoStub{
		createFn: func(_ context.Context, n *models.Notification) error {
			n.ID = 1
			return nil
		},
		getByRecipientFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Notification, error) {
			return nil, nil
		},
		getByIDForRecipientFn: func(_ context.Context, id, _ uint) (*models.Notification, error) {
			return &models.Notification{ID: id}, nil
		},
		markReadFn:    func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		markAllReadFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		countUnreadFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// sinkRecorder records every notification emitted through it.
type sinkRecorder struct {
	emitted []EmitNotificationInput
	flushes int
	emitErr error
}

func (s *sinkRecorder) WithTx(_ *gorm.DB) NotificationSink { return s }
func (s *sinkRecorder) Flush(_ context.Context) { s.flushes++ }
func (s *sinkRecorder) Emit(_ context.Context, in EmitNotificationInput) (*models.Notification, error) {
	if s.emitErr != nil {
		return nil, s.emitErr
	}
	s.emitted = append(s.emitted, in)
	return &models.Notification{
		RecipientID: in.RecipientID,
		ActorID:     in.ActorID,
		Type:        in.Type,
		PostID:      in.PostID,
		CommentID:   in.CommentID,
	}, nil
}

// eventsRecorder records real-time publishes.
type eventsRecorder struct {
	userIDs []uint
	types   []string
}

func (e *eventsRecorder) NotifyUser(_ context.Context, userID uint, eventType string, _ any) {
	e.userIDs = append(e.userIDs, userID)
	e.types = append(e.types, eventType)
}

// chatRepoStub is a stub for repository.ChatRepository.
type chatRepoStub struct {
	getByPairKeyFn        func(context.Context, string) (*models.Conversation, error)
	createConversationFn  func(context.Context, uint, uint) (*models.Conversation, error)
	getByIDFn             func(context.Context, uint) (*models.Conversation, error)
	getForUserFn          func(context.Context, uint) ([]*models.Conversation, error)
	isParticipantFn       func(context.Context, uint, uint) (bool, error)
	createMessageFn       func(context.Context, *models.Message) error
	getMessagesFn         func(context.Context, uint, int, int) ([]*models.Message, error)
	getLastMessageFn      func(context.Context, uint) (*models.Message, error)
	markMessagesReadFn    func(context.Context, uint, uint) (int64, error)
	countUnreadFn         func(context.Context, uint, uint) (int64, error)
	touchConversationFn   func(context.Context, uint) error
}

func (s *chatRepoStub) WithTx(_ *gorm.DB) repository.ChatRepository { return s }
func (s *chatRepoStub) GetConversationByPairKey(ctx context.Context, pairKey string) (*models.Conversation, error) {
	return s.getByPairKeyFn(ctx, pairKey)
}
func (s *chatRepoStub) CreateConversation(ctx context.Context, userA, userB uint) (*models.Conversation, error) {
	return s.createConversationFn(ctx, userA, userB)
}
func (s *chatRepoStub) GetConversationByID(ctx context.Context, id uint) (*models.Conversation, error) {
	return s.getByIDFn(ctx, id)
}
func (s *chatRepoStub) GetConversationsForUser(ctx context.Context, userID uint) ([]*models.Conversation, error) {
	return s.getForUserFn(ctx, userID)
}
func (s *chatRepoStub) IsParticipant(ctx context.Context, conversationID, userID uint) (bool, error) {
	return s.isParticipantFn(ctx, conversationID, userID)
}
func (s *chatRepoStub) CreateMessage(ctx context.Context, m *models.Message) error {
	return s.createMessageFn(ctx, m)
}
func (s *chatRepoStub) GetMessages(ctx context.Context, conversationID uint, limit, offset int) ([]*models.Message, error) {
	return s.getMessagesFn(ctx, conversationID, limit, offset)
}
func (s *chatRepoStub) GetLastMessage(ctx context.Context, conversationID uint) (*models.Message, error) {
	return s.getLastMessageFn(ctx, conversationID)
}
func (s *chatRepoStub) MarkMessagesRead(ctx context.Context, conversationID, readerID uint) (int64, error) {
	return s.markMessagesReadFn(ctx, conversationID, readerID)
}
func (s *chatRepoStub) CountUnread(ctx context.Context, conversationID, userID uint) (int64, error) {
	return s.countUnreadFn(ctx, conversationID, userID)
}
func (s *chatRepoStub) TouchConversation(ctx context.Context, conversationID uint) error {
	return s.touchConversationFn(ctx, conversationID)
}

func noopChatRepo() *chatRepoStub {
	return &chatRepoStub{
		getByPairKeyFn: func(_ context.Context, pairKey string) (*models.Conversation, error) {
			return nil, models.NewNotFoundError("Conversation", pairKey)
		},
		createConversationFn: func(_ context.Context, a, b uint) (*models.Conversation, error) {
			return &models.Conversation{ID: 1, PairKey: models.PairKeyFor(a, b)}, nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Conversation, error) {
			return &models.Conversation{ID: id}, nil
		},
		getForUserFn:    func(_ context.Context, _ uint) ([]*models.Conversation, error) { return nil, nil },
		isParticipantFn: func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		createMessageFn: func(_ context.Context, m *models.Message) error {
			m.ID = 1
			return nil
		},
		getMessagesFn:       func(_ context.Context, _ uint, _, _ int) ([]*models.Message, error) { return nil, nil },
		getLastMessageFn:    func(_ context.Context, _ uint) (*models.Message, error) { return nil, nil },
		markMessagesReadFn:  func(_ context.Context, _, _ uint) (int64, error) { return 0, nil },
		countUnreadFn:       func(_ context.Context, _, _ uint) (int64, error) { return 0, nil },
		touchConversationFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

// assertPermissionDeniedError asserts that err is an AppError with code PERMISSION_DENIED.
func assertPermissionDeniedError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodePermissionDenied, appErr.Code)
}

// assertInvalidOperationError asserts that err is an AppError with code INVALID_OPERATION.
func assertInvalidOperationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeInvalidOperation, appErr.Code)
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

// assertConflictError asserts that err is an AppError with code CONFLICT.
func assertConflictError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeConflict, appErr.Code)
}
