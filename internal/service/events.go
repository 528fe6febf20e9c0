// Package service holds the engagement graph's business operations.
package service

import (
	"context"
	"log/slog"

	"videotube/internal/models"
	"videotube/internal/observability"
)

// EventPublisher receives committed edge changes. Delivery is best effort.
type EventPublisher interface {
	PublishReaction(ctx context.Context, actorID string, target models.ContentRef, reaction models.ReactionKind, state models.ReactionState) error
	PublishSubscription(ctx context.Context, subscriberID, channelID string, state models.SubscriptionState) error
	PublishDeletion(ctx context.Context, actorID string, target models.ContentRef) error
}

func logPublishFailure(ctx context.Context, event string, err error) {
	if err == nil {
		return
	}
	observability.EventPublishFailures.Inc()
	observability.Logger.WarnContext(ctx, "failed to publish engagement event",
		slog.String("event", event), slog.String("error", err.Error()))
}
