package service

import (
	"context"
	"testing"

	"ripple/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowService_ToggleFollow_SelfFollow(t *testing.T) {
	t.Parallel()

	svc := NewFollowService(nil, noopFollowRepo(), noopUserRepo(), &sinkRecorder{})
	_, err := svc.ToggleFollow(context.Background(), 1, 1)
	assertInvalidOperationError(t, err)
}

func TestFollowService_ToggleFollow_TargetMissing(t *testing.T) {
	t.Parallel()

	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return nil, models.NewNotFoundError("User", id)
	}
	svc := NewFollowService(nil, noopFollowRepo(), users, &sinkRecorder{})
	_, err := svc.ToggleFollow(context.Background(), 1, 99)
	assertNotFoundError(t, err)
}

func TestFollowService_ToggleFollow_CreatesEdgeAndNotifies(t *testing.T) {
	t.Parallel()

	sink := &sinkRecorder{}
	svc := NewFollowService(nil, noopFollowRepo(), noopUserRepo(), sink)

	state, err := svc.ToggleFollow(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StateFollowed, state)

	require.Len(t, sink.emitted, 1)
	assert.Equal(t, uint(2), sink.emitted[0].RecipientID)
	assert.Equal(t, uint(1), sink.emitted[0].ActorID)
	assert.Equal(t, models.NotificationFollow, sink.emitted[0].Type)
	assert.Equal(t, 1, sink.flushes, "buffered publishes are flushed after the write")
}

func TestFollowService_ToggleFollow_RemovesEdgeWithoutNotifying(t *testing.T) {
	t.Parallel()

	follows := noopFollowRepo()
	follows.removeFn = func(_ context.Context, _, _ uint) (bool, error) { return true, nil }

	sink := &sinkRecorder{}
	svc := NewFollowService(nil, follows, noopUserRepo(), sink)

	state, err := svc.ToggleFollow(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StateUnfollowed, state)
	assert.Empty(t, sink.emitted)
}

func TestFollowService_ToggleFollow_LostInsertRace(t *testing.T) {
	t.Parallel()

	// The edge did not exist at delete time but a concurrent request
	// created it before our insert. The state is still "followed" and no
	// duplicate notification is emitted.
	follows := noopFollowRepo()
	follows.insertFn = func(_ context.Context, _, _ uint) (bool, error) { return false, nil }

	sink := &sinkRecorder{}
	svc := NewFollowService(nil, follows, noopUserRepo(), sink)

	state, err := svc.ToggleFollow(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StateFollowed, state)
	assert.Empty(t, sink.emitted)
}

func TestFollowService_ToggleFollow_Roundtrip(t *testing.T) {
	t.Parallel()

	// Drive the stub through follow -> unfollow -> follow and check the
	// states come back in order.
	edges := map[[2]uint]bool{}
	follows := noopFollowRepo()
	follows.insertFn = func(_ context.Context, a, b uint) (bool, error) {
		key := [2]uint{a, b}
		if edges[key] {
			return false, nil
		}
		edges[key] = true
		return true, nil
	}
	follows.removeFn = func(_ context.Context, a, b uint) (bool, error) {
		key := [2]uint{a, b}
		if !edges[key] {
			return false, nil
		}
		delete(edges, key)
		return true, nil
	}

	sink := &sinkRecorder{}
	svc := NewFollowService(nil, follows, noopUserRepo(), sink)
	ctx := context.Background()

	state, err := svc.ToggleFollow(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StateFollowed, state)

	state, err = svc.ToggleFollow(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StateUnfollowed, state)

	state, err = svc.ToggleFollow(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StateFollowed, state)

	// Two completed follows, two notifications.
	assert.Len(t, sink.emitted, 2)
}

func TestFollowService_ListFollowers_UserMissing(t *testing.T) {
	t.Parallel()

	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return nil, models.NewNotFoundError("User", id)
	}
	svc := NewFollowService(nil, noopFollowRepo(), users, &sinkRecorder{})

	_, err := svc.ListFollowers(context.Background(), 404)
	assertNotFoundError(t, err)

	_, err = svc.ListFollowing(context.Background(), 404)
	assertNotFoundError(t, err)
}

func TestFollowService_ListFollowers(t *testing.T) {
	t.Parallel()

	follows := noopFollowRepo()
	follows.getFollowersFn = func(_ context.Context, _ uint) ([]models.User, error) {
		return []models.User{{ID: 2}, {ID: 3}}, nil
	}
	svc := NewFollowService(nil, follows, noopUserRepo(), &sinkRecorder{})

	followers, err := svc.ListFollowers(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	assert.Equal(t, uint(2), followers[0].ID)
}
