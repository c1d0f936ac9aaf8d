package service

import (
	"context"

	"ripple/internal/models"
	"ripple/internal/repository"
	"ripple/internal/validation"

	"gorm.io/gorm"
)

// CommentService manages comments and their notifications.
type CommentService struct {
	db            *gorm.DB
	comments      repository.CommentRepository
	posts         repository.PostRepository
	notifications NotificationSink
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(
	db *gorm.DB,
	comments repository.CommentRepository,
	posts repository.PostRepository,
	notifications NotificationSink,
) *CommentService {
	return &CommentService{
		db:            db,
		comments:      comments,
		posts:         posts,
		notifications: notifications,
	}
}

// CreateComment appends a comment to the post and emits a comment
// notification to the post author in the same transaction, unless the
// commenter is the author.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	post, err := s.posts.GetByID(ctx, in.PostID, 0)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateContent("comment", in.Content, models.MaxCommentContentLength); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	comment := &models.Comment{
		Content: in.Content,
		UserID:  in.UserID,
		PostID:  in.PostID,
	}

	create := func(comments repository.CommentRepository, notifications NotificationSink) error {
		if err := comments.Create(ctx, comment); err != nil {
			return err
		}
		_, err := notifications.Emit(ctx, EmitNotificationInput{
			RecipientID: post.UserID,
			ActorID:     in.UserID,
			Type:        models.NotificationComment,
			PostID:      &post.ID,
			CommentID:   &comment.ID,
		})
		return err
	}

	sink := s.notifications
	if s.db != nil {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			sink = s.notifications.WithTx(tx)
			return create(s.comments.WithTx(tx), sink)
		})
	} else {
		err = create(s.comments, sink)
	}
	if err != nil {
		return nil, err
	}
	sink.Flush(ctx)

	return s.comments.GetByID(ctx, comment.ID)
}

func (s *CommentService) ListComments(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.comments.GetByPostID(ctx, postID, limit, offset)
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(comment.UserID, in.UserID, "update"); err != nil {
		return nil, err
	}
	if err := validation.ValidateContent("comment", in.Content, models.MaxCommentContentLength); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	comment.Content = in.Content
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}

	return s.comments.GetByID(ctx, comment.ID)
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(comment.UserID, in.UserID, "delete"); err != nil {
		return nil, err
	}

	if err := s.comments.Delete(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}
