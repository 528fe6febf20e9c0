package repository

import (
	"context"

	"videotube/internal/models"
	"videotube/internal/observability"

	"gorm.io/gorm"
)

// StatsRepository computes channel dashboard aggregates. Each method is one
// query so callers may run them concurrently.
type StatsRepository interface {
	TotalViews(ctx context.Context, ownerID string) (int64, error)
	TotalLikes(ctx context.Context, ownerID string) (int64, error)
	TotalSubscribers(ctx context.Context, ownerID string) (int64, error)
	TotalVideos(ctx context.Context, ownerID string) (int64, error)
}

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

// TotalViews sums views over every video of the owner, published or not.
func (r *statsRepository) TotalViews(ctx context.Context, ownerID string) (int64, error) {
	defer observability.TrackQuery("stats_views", "videos")()

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Select("COALESCE(SUM(views), 0)").
		Where("owner_id = ?", ownerID).
		Scan(&total).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}

// TotalLikes counts like edges on any video, comment or tweet the owner owns.
func (r *statsRepository) TotalLikes(ctx context.Context, ownerID string) (int64, error) {
	defer observability.TrackQuery("stats_likes", "reactions")()

	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Where("kind = ?", models.ReactionLike).
		Where(r.db.
			Where("target_kind = ? AND target_id IN (?)", models.KindVideo,
				r.db.Model(&models.Video{}).Select("id").Where("owner_id = ?", ownerID)).
			Or("target_kind = ? AND target_id IN (?)", models.KindComment,
				r.db.Model(&models.Comment{}).Select("id").Where("owner_id = ?", ownerID)).
			Or("target_kind = ? AND target_id IN (?)", models.KindTweet,
				r.db.Model(&models.Tweet{}).Select("id").Where("owner_id = ?", ownerID))).
		Count(&total).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}

func (r *statsRepository) TotalSubscribers(ctx context.Context, ownerID string) (int64, error) {
	defer observability.TrackQuery("stats_subscribers", "subscriptions")()

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("channel_id = ?", ownerID).
		Count(&total).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}

func (r *statsRepository) TotalVideos(ctx context.Context, ownerID string) (int64, error) {
	defer observability.TrackQuery("stats_videos", "videos")()

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}
