// Package notifications publishes channel activity events over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"vidtube/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// EventType names a kind of activity.
type EventType string

const (
	EventSubscribed     EventType = "subscription.created"
	EventCommented      EventType = "comment.created"
	EventLiked          EventType = "like.created"
	EventVideoPublished EventType = "video.published"
)

// Event is the JSON payload delivered to subscribers.
type Event struct {
	Type       EventType `json:"type"`
	ActorID    uint      `json:"actorId"`
	ChannelID  uint      `json:"channelId,omitempty"`
	Resource   string    `json:"resource,omitempty"`
	ResourceID uint      `json:"resourceId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserChannel is the topic carrying events addressed to one user.
func UserChannel(userID uint) string {
	return fmt.Sprintf("notifications:user:%d", userID)
}

// FollowersChannel is the topic carrying a channel's events to its subscribers.
func FollowersChannel(channelID uint) string {
	return fmt.Sprintf("notifications:channel:%d", channelID)
}

// Notifier provides helpers to publish notifications into Redis channels.
// A nil Redis client turns every call into a no-op.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier publishes through rdb. With a nil rdb publishes are dropped
// and Subscribe returns an already closed channel.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends e to topic.
func (n *Notifier) Publish(ctx context.Context, topic string, e Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, topic, payload).Err()
}

// NotifyUser delivers e to userID. Failures are logged only.
func (n *Notifier) NotifyUser(ctx context.Context, userID uint, e Event) {
	n.publishLogged(ctx, UserChannel(userID), e)
}

// NotifyFollowers delivers e to everyone following channelID. Failures are logged only.
func (n *Notifier) NotifyFollowers(ctx context.Context, channelID uint, e Event) {
	n.publishLogged(ctx, FollowersChannel(channelID), e)
}

func (n *Notifier) publishLogged(ctx context.Context, topic string, e Event) {
	if err := n.Publish(ctx, topic, e); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish notification",
			slog.String("topic", topic),
			slog.String("type", string(e.Type)),
			slog.String("error", err.Error()))
	}
}

// Subscribe streams events for userID and the channels it follows until ctx
// is cancelled. The returned channel is closed when the subscription ends.
func (n *Notifier) Subscribe(ctx context.Context, userID uint, followed []uint) (<-chan Event, error) {
	out := make(chan Event, 16)
	if n == nil || n.rdb == nil {
		close(out)
		return out, nil
	}

	topics := make([]string, 0, len(followed)+1)
	topics = append(topics, UserChannel(userID))
	for _, id := range followed {
		topics = append(topics, FollowersChannel(id))
	}

	sub := n.rdb.Subscribe(ctx, topics...)
	// Wait for the confirmation so no event published after return is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					middleware.Logger.Warn("dropping malformed notification",
						slog.String("channel", msg.Channel), slog.String("error", err.Error()))
					continue
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
