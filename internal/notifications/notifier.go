// Package notifications publishes engagement events to Redis channels.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"videotube/internal/models"
	"videotube/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Event types carried in Event.Type.
const (
	EventReactionToggled     = "reaction_toggled"
	EventSubscriptionToggled = "subscription_toggled"
	EventContentDeleted      = "content_deleted"
)

// Event is the JSON payload published after a committed edge change.
type Event struct {
	Type       string                    `json:"type"`
	ActorID    string                    `json:"actor_id"`
	Target     *models.ContentRef        `json:"target,omitempty"`
	ChannelID  string                    `json:"channel_id,omitempty"`
	Reaction   models.ReactionKind       `json:"reaction,omitempty"`
	Reactions  *models.ReactionState     `json:"reactions,omitempty"`
	Subscribed *models.SubscriptionState `json:"subscription,omitempty"`
	At         time.Time                 `json:"at"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
	now func() time.Time
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb, now: time.Now}
}

// ContentChannel derives the Redis channel for events about one content item.
func ContentChannel(kind models.ContentKind, id string) string {
	return fmt.Sprintf("engagement:content:%s:%s", kind, id)
}

// ChannelEvents derives the Redis channel for events about one channel.
func ChannelEvents(channelID string) string {
	return "engagement:channel:" + channelID
}

func (n *Notifier) publish(ctx context.Context, channel string, ev Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	ev.At = n.now().UTC()
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// PublishReaction announces a toggled like/dislike on the item's channel and
// on the owner's channel.
func (n *Notifier) PublishReaction(ctx context.Context, actorID string, target models.ContentRef, reaction models.ReactionKind, state models.ReactionState) error {
	ev := Event{Type: EventReactionToggled, ActorID: actorID, Target: &target, Reaction: reaction, Reactions: &state}
	if err := n.publish(ctx, ContentChannel(target.Kind, target.ID), ev); err != nil {
		return err
	}
	return n.publish(ctx, ChannelEvents(target.OwnerID), ev)
}

// PublishSubscription announces a toggled subscription on the channel's stream.
func (n *Notifier) PublishSubscription(ctx context.Context, subscriberID, channelID string, state models.SubscriptionState) error {
	ev := Event{Type: EventSubscriptionToggled, ActorID: subscriberID, ChannelID: channelID, Subscribed: &state}
	return n.publish(ctx, ChannelEvents(channelID), ev)
}

// PublishDeletion announces that a content item and its edges are gone.
func (n *Notifier) PublishDeletion(ctx context.Context, actorID string, target models.ContentRef) error {
	ev := Event{Type: EventContentDeleted, ActorID: actorID, Target: &target}
	return n.publish(ctx, ContentChannel(target.Kind, target.ID), ev)
}

// StartSubscriber subscribes to every engagement channel and calls onEvent
// for each decoded message until ctx is cancelled.
func (n *Notifier) StartSubscriber(ctx context.Context, onEvent func(channel string, ev Event)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "engagement:*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					observability.Logger.Warn("dropping malformed engagement event",
						slog.String("channel", msg.Channel), slog.String("error", err.Error()))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.Logger.Error("panic in engagement subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onEvent(msg.Channel, ev)
				}()
			}
		}
	}()

	return nil
}
