package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"videotube/internal/locks"
	"videotube/internal/models"
	"videotube/internal/observability"
	"videotube/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// EngagementConfig bounds the toggle retry loop.
type EngagementConfig struct {
	// MaxRetries is the number of extra attempts after contention.
	MaxRetries int
	// Backoff is multiplied by the attempt number before each retry.
	Backoff time.Duration
}

// EngagementService toggles reaction and subscription edges. Each toggle holds
// a lock on its (actor, target) tuple for the duration of one short
// transaction, so toggles on the same tuple apply one at a time.
type EngagementService struct {
	content   repository.ContentRepository
	users     repository.UserRepository
	reactions repository.ReactionRepository
	subs      repository.SubscriptionRepository
	locker    locks.Locker
	events    EventPublisher
	cfg       EngagementConfig
}

func NewEngagementService(
	content repository.ContentRepository,
	users repository.UserRepository,
	reactions repository.ReactionRepository,
	subs repository.SubscriptionRepository,
	locker locks.Locker,
	events EventPublisher,
	cfg EngagementConfig,
) *EngagementService {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &EngagementService{
		content:   content,
		users:     users,
		reactions: reactions,
		subs:      subs,
		locker:    locker,
		events:    events,
		cfg:       cfg,
	}
}

// ToggleReaction flips a like or dislike of viewerID on a content item.
// Liking removes an existing dislike and vice versa.
func (s *EngagementService) ToggleReaction(ctx context.Context, viewerID, targetID string, kind models.ContentKind, reaction models.ReactionKind) (state *models.ReactionState, err error) {
	span, ctx := observability.StartSpan(ctx, "EngagementService.ToggleReaction",
		attribute.String("target.kind", string(kind)),
		attribute.String("reaction", string(reaction)))
	defer func() { span.End(err) }()

	if viewerID == "" {
		return nil, models.NewUnauthorizedError("Sign in to react")
	}
	if err := models.ValidateID("viewer id", viewerID); err != nil {
		return nil, err
	}
	if err := models.ValidateID("target id", targetID); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, models.NewInvalidOperationError("unknown content kind " + string(kind))
	}
	if !reaction.Valid() {
		return nil, models.NewInvalidOperationError("unknown reaction " + string(reaction))
	}

	ref, err := s.content.GetRef(ctx, kind, targetID)
	if err != nil {
		return nil, err
	}
	if err := checkVisible(ctx, s.content, ref, viewerID); err != nil {
		return nil, err
	}

	key := locks.Key("reaction", viewerID, string(kind), targetID)
	state, err = withRetry(ctx, s, "reaction", key, func(ctx context.Context) (*models.ReactionState, error) {
		return s.reactions.Toggle(ctx, viewerID, targetID, kind, reaction)
	})
	if err != nil {
		return nil, err
	}

	observability.ToggleTotal.WithLabelValues(string(reaction), toggleResult(state.IsLiked || state.IsDisliked)).Inc()
	if s.events != nil {
		logPublishFailure(ctx, "reaction", s.events.PublishReaction(ctx, viewerID, *ref, reaction, *state))
	}
	return state, nil
}

// ToggleSubscription subscribes viewerID to channelID, or unsubscribes when
// already subscribed.
func (s *EngagementService) ToggleSubscription(ctx context.Context, viewerID, channelID string) (state *models.SubscriptionState, err error) {
	span, ctx := observability.StartSpan(ctx, "EngagementService.ToggleSubscription")
	defer func() { span.End(err) }()

	if viewerID == "" {
		return nil, models.NewUnauthorizedError("Sign in to subscribe")
	}
	if err := models.ValidateID("viewer id", viewerID); err != nil {
		return nil, err
	}
	if err := models.ValidateID("channel id", channelID); err != nil {
		return nil, err
	}
	if viewerID == channelID {
		return nil, models.NewInvalidOperationError("Cannot subscribe to your own channel")
	}
	if _, err := s.users.GetByID(ctx, channelID); err != nil {
		return nil, err
	}

	key := locks.Key("subscription", viewerID, channelID)
	state, err = withRetry(ctx, s, "subscription", key, func(ctx context.Context) (*models.SubscriptionState, error) {
		return s.subs.Toggle(ctx, viewerID, channelID)
	})
	if err != nil {
		return nil, err
	}

	observability.ToggleTotal.WithLabelValues("subscription", toggleResult(state.IsSubscribed)).Inc()
	if s.events != nil {
		logPublishFailure(ctx, "subscription", s.events.PublishSubscription(ctx, viewerID, channelID, *state))
	}
	return state, nil
}

func toggleResult(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func isContention(err error) bool {
	return errors.Is(err, locks.ErrNotAcquired) || repository.IsRetryable(err)
}

// withRetry runs op under the tuple lock, retrying contention with linear
// backoff. Exhausted retries surface as CONFLICT.
func withRetry[T any](ctx context.Context, s *EngagementService, edge, key string, op func(context.Context) (*T, error)) (*T, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			observability.ToggleRetries.WithLabelValues(edge).Inc()
			timer := time.NewTimer(time.Duration(attempt) * s.cfg.Backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		result, err := lockAndRun(ctx, s.locker, key, op)
		if err == nil {
			return result, nil
		}
		if !isContention(err) {
			return nil, err
		}
		lastErr = err
		observability.Logger.DebugContext(ctx, "toggle contention",
			slog.String("edge", edge), slog.Int("attempt", attempt), slog.String("error", err.Error()))
	}

	observability.ToggleTotal.WithLabelValues(edge, "conflict").Inc()
	observability.Logger.WarnContext(ctx, "toggle gave up after retries",
		slog.String("edge", edge), slog.Int("retries", s.cfg.MaxRetries))
	return nil, models.NewConflictError("Concurrent update in progress, try again", lastErr)
}

func lockAndRun[T any](ctx context.Context, locker locks.Locker, key string, op func(context.Context) (*T, error)) (*T, error) {
	unlock, err := locker.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return op(ctx)
}
