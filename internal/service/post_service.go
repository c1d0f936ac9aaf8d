package service

import (
	"context"

	"ripple/internal/cache"
	"ripple/internal/models"
	"ripple/internal/repository"
	"ripple/internal/validation"

	"gorm.io/gorm"
)

// feedPageSize is the default feed page; only this page is served from cache.
const feedPageSize = 20

// PostService manages posts, likes and the follow feed.
type PostService struct {
	db            *gorm.DB
	posts         repository.PostRepository
	follows       repository.FollowRepository
	notifications NotificationSink
}

type CreatePostInput struct {
	UserID   uint
	Content  string
	Image    string
	Video    string
	Location string
}

type UpdatePostInput struct {
	UserID   uint
	PostID   uint
	Content  string
	Location string
}

func NewPostService(
	db *gorm.DB,
	posts repository.PostRepository,
	follows repository.FollowRepository,
	notifications NotificationSink,
) *PostService {
	return &PostService{
		db:            db,
		posts:         posts,
		follows:       follows,
		notifications: notifications,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validation.ValidateContent("post", in.Content, models.MaxPostContentLength); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post := &models.Post{
		UserID:   in.UserID,
		Content:  in.Content,
		Image:    in.Image,
		Video:    in.Video,
		Location: in.Location,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.posts.GetByID(ctx, post.ID, in.UserID)
}

func (s *PostService) GetPost(ctx context.Context, postID, currentUserID uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, postID, currentUserID)
}

func (s *PostService) ListPosts(ctx context.Context, filters repository.PostFilters, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.posts.List(ctx, filters, limit, offset, currentUserID)
}

func (s *PostService) ListPostsByUser(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.posts.GetByUserID(ctx, userID, limit, offset, currentUserID)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, in.PostID, 0)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(post.UserID, in.UserID, "update"); err != nil {
		return nil, err
	}
	if err := validation.ValidateContent("post", in.Content, models.MaxPostContentLength); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post.Content = in.Content
	if in.Location != "" {
		post.Location = in.Location
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	return s.posts.GetByID(ctx, post.ID, in.UserID)
}

func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID, 0)
	if err != nil {
		return err
	}
	if err := requireOwner(post.UserID, userID, "delete"); err != nil {
		return err
	}
	return s.posts.Delete(ctx, postID)
}

// ToggleLike flips userID's like on the post. Creating the like emits a
// like notification to the author in the same transaction, unless the liker
// is the author. A concurrent duplicate insert resolves to the liked state
// without a second notification.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (models.LikeState, error) {
	post, err := s.posts.GetByID(ctx, postID, 0)
	if err != nil {
		return "", err
	}

	var state models.LikeState
	toggle := func(posts repository.PostRepository, notifications NotificationSink) error {
		removed, err := posts.Unlike(ctx, userID, postID)
		if err != nil {
			return err
		}
		if removed {
			state = models.StateUnliked
			return nil
		}

		created, err := posts.Like(ctx, userID, postID)
		if err != nil {
			return err
		}
		state = models.StateLiked
		if !created {
			return nil
		}

		_, err = notifications.Emit(ctx, EmitNotificationInput{
			RecipientID: post.UserID,
			ActorID:     userID,
			Type:        models.NotificationLike,
			PostID:      &post.ID,
		})
		return err
	}

	sink := s.notifications
	if s.db != nil {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			sink = s.notifications.WithTx(tx)
			return toggle(s.posts.WithTx(tx), sink)
		})
	} else {
		err = toggle(s.posts, sink)
	}
	if err != nil {
		return "", err
	}
	sink.Flush(ctx)
	return state, nil
}

// GetFeed returns posts authored by users the viewer follows, newest first.
// Following nobody yields an empty feed, not global content. The default
// first page is served cache-aside per viewer; follow changes invalidate the
// entry, new posts from followed authors surface when it expires.
func (s *PostService) GetFeed(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = feedPageSize
	}

	fetch := func(dest *[]*models.Post) error {
		authorIDs, err := s.follows.GetFollowingIDs(ctx, userID)
		if err != nil {
			return err
		}
		posts, err := s.posts.ListByAuthors(ctx, authorIDs, limit, offset, userID)
		if err != nil {
			return err
		}
		*dest = posts
		return nil
	}

	var posts []*models.Post
	if offset == 0 && limit == feedPageSize {
		err := cache.Aside(ctx, cache.FeedKey(userID), &posts, cache.FeedTTL, func() error {
			return fetch(&posts)
		})
		if err != nil {
			return nil, err
		}
		return posts, nil
	}

	if err := fetch(&posts); err != nil {
		return nil, err
	}
	return posts, nil
}
