package service

import (
	"context"

	"ripple/internal/models"
	"ripple/internal/repository"

	"gorm.io/gorm"
)

// FollowService manages the social graph.
type FollowService struct {
	db            *gorm.DB
	follows       repository.FollowRepository
	users         repository.UserRepository
	notifications NotificationSink
}

func NewFollowService(
	db *gorm.DB,
	follows repository.FollowRepository,
	users repository.UserRepository,
	notifications NotificationSink,
) *FollowService {
	return &FollowService{
		db:            db,
		follows:       follows,
		users:         users,
		notifications: notifications,
	}
}

// ToggleFollow flips the follower->target edge. Creating the edge emits a
// follow notification to the target in the same transaction; removing it
// does not. A concurrent duplicate insert resolves to the followed state
// without a second notification.
func (s *FollowService) ToggleFollow(ctx context.Context, followerID, targetID uint) (models.FollowState, error) {
	if followerID == targetID {
		return "", models.NewInvalidOperationError("You cannot follow yourself")
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return "", err
	}

	var state models.FollowState
	toggle := func(follows repository.FollowRepository, notifications NotificationSink) error {
		removed, err := follows.Remove(ctx, followerID, targetID)
		if err != nil {
			return err
		}
		if removed {
			state = models.StateUnfollowed
			return nil
		}

		created, err := follows.Insert(ctx, followerID, targetID)
		if err != nil {
			return err
		}
		state = models.StateFollowed
		if !created {
			// Lost a race against an identical follow; already in the
			// desired state and the winner emitted the notification.
			return nil
		}

		_, err = notifications.Emit(ctx, EmitNotificationInput{
			RecipientID: targetID,
			ActorID:     followerID,
			Type:        models.NotificationFollow,
		})
		return err
	}

	var err error
	sink := s.notifications
	if s.db != nil {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			sink = s.notifications.WithTx(tx)
			return toggle(s.follows.WithTx(tx), sink)
		})
	} else {
		err = toggle(s.follows, sink)
	}
	if err != nil {
		return "", err
	}
	sink.Flush(ctx)
	return state, nil
}

// ListFollowers returns everyone following userID, oldest edge first.
func (s *FollowService) ListFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.GetFollowers(ctx, userID)
}

// ListFollowing returns everyone userID follows, oldest edge first.
func (s *FollowService) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.GetFollowing(ctx, userID)
}

// IsFollowing reports whether followerID currently follows targetID.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, targetID uint) (bool, error) {
	return s.follows.Exists(ctx, followerID, targetID)
}
