package cache

import (
	"context"
	"fmt"
	"time"
)

// Key inventory. Every cached read goes through one of these keys so
// invalidation stays auditable.
const (
	UserKeyPrefix        = "user:%d"
	PostKeyPrefix        = "post:%d"
	FeedKeyPrefix        = "feed:%d"
	UnreadCountKeyPrefix = "notifications:unread:%d"
)

const (
	UserTTL        = 5 * time.Minute
	PostTTL        = 30 * time.Minute
	FeedTTL        = 1 * time.Minute
	UnreadCountTTL = 30 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func FeedKey(userID uint) string {
	return fmt.Sprintf(FeedKeyPrefix, userID)
}

func UnreadCountKey(userID uint) string {
	return fmt.Sprintf(UnreadCountKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

func InvalidateFeed(ctx context.Context, userID uint) {
	Invalidate(ctx, FeedKey(userID))
}

func InvalidateUnreadCount(ctx context.Context, userID uint) {
	Invalidate(ctx, UnreadCountKey(userID))
}
