package service

import (
	"context"

	"videotube/internal/models"
	"videotube/internal/observability"
	"videotube/internal/repository"

	"golang.org/x/sync/errgroup"
)

// ChannelService serves the channel dashboard.
type ChannelService struct {
	users       repository.UserRepository
	stats       repository.StatsRepository
	subs        repository.SubscriptionRepository
	projections repository.ProjectionRepository
}

func NewChannelService(users repository.UserRepository, stats repository.StatsRepository, subs repository.SubscriptionRepository, projections repository.ProjectionRepository) *ChannelService {
	return &ChannelService{users: users, stats: stats, subs: subs, projections: projections}
}

// GetChannelStats aggregates the dashboard totals for ownerID. A channel
// without content gets zeros.
func (s *ChannelService) GetChannelStats(ctx context.Context, ownerID string) (stats *models.ChannelStats, err error) {
	span, ctx := observability.StartSpan(ctx, "ChannelService.GetChannelStats")
	defer func() { span.End(err) }()

	if err := models.ValidateID("channel id", ownerID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}

	var out models.ChannelStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TotalViews, err = s.stats.TotalViews(gctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		out.TotalLikes, err = s.stats.TotalLikes(gctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		out.TotalSubscribers, err = s.stats.TotalSubscribers(gctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		out.TotalVideos, err = s.stats.TotalVideos(gctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListChannelVideos lists a channel's videos, newest first. The owner also
// sees unpublished videos.
func (s *ChannelService) ListChannelVideos(ctx context.Context, ownerID, viewerID string, limit, offset int) ([]models.VideoView, error) {
	if err := models.ValidateID("channel id", ownerID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}
	limit, offset = repository.Page(limit, offset)
	return s.projections.Videos(ctx, repository.VideoFilter{
		OwnerID:       ownerID,
		PublishedOnly: ownerID != viewerID,
		Sort:          repository.SortNew,
		Limit:         limit,
		Offset:        offset,
	}, viewerID)
}

func (s *ChannelService) ListSubscribers(ctx context.Context, channelID string, limit, offset int) ([]models.ChannelSummary, error) {
	if err := models.ValidateID("channel id", channelID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, channelID); err != nil {
		return nil, err
	}
	limit, offset = repository.Page(limit, offset)
	return s.subs.ListSubscribers(ctx, channelID, limit, offset)
}

func (s *ChannelService) ListSubscribedChannels(ctx context.Context, subscriberID string, limit, offset int) ([]models.ChannelSummary, error) {
	if err := models.ValidateID("subscriber id", subscriberID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, subscriberID); err != nil {
		return nil, err
	}
	limit, offset = repository.Page(limit, offset)
	return s.subs.ListSubscribedChannels(ctx, subscriberID, limit, offset)
}
