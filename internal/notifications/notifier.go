// Package notifications provides real-time notification delivery.
package notifications

import (
	"context"
	"log"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	userChannelPrefix = "notifications:user:"
	broadcastChannel  = "notifications:broadcast"
)

// Notifier publishes events into Redis channels. A nil Redis client turns
// every publish into a no-op so real-time delivery degrades without
// affecting stored data.
type Notifier struct {
	rdb *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends an event payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishBroadcast sends an event payload to every connected user.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, broadcastChannel, payload).Err()
}

// StartPatternSubscriber subscribes to the per-user pattern and the broadcast
// channel, invoking onMessage for each delivery until ctx is cancelled. A
// panicking handler is logged and the subscription keeps running.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel, payload string),
) error {
	if n.rdb == nil {
		return nil
	}

	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*", broadcastChannel)
	deliveries := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-deliveries:
				if !ok {
					return
				}
				dispatch(onMessage, msg.Channel, msg.Payload)
			}
		}
	}()

	return nil
}

func dispatch(onMessage func(channel, payload string), channel, payload string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in PatternSubscriber: %v\n%s", r, debug.Stack())
		}
	}()
	onMessage(channel, payload)
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ParseUserChannel extracts the user ID from a user channel name.
func ParseUserChannel(channel string) (uint, error) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return 0, errInvalidChannel(channel)
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errInvalidChannel(channel)
	}
	return uint(id), nil
}

type errInvalidChannel string

func (e errInvalidChannel) Error() string {
	return "invalid notification channel " + strconv.Quote(string(e))
}
