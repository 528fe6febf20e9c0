package repository

import (
	"context"
	"time"

	"videotube/internal/models"
	"videotube/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HistoryRepository stores watch events, at most one per (actor, video).
type HistoryRepository interface {
	Upsert(ctx context.Context, actorID, videoID string, at time.Time) error
	List(ctx context.Context, actorID string, limit, offset int) ([]models.HistoryEntry, error)
	Remove(ctx context.Context, actorID, videoID string) (bool, error)
	Clear(ctx context.Context, actorID string) (int64, error)
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

// Upsert records a watch, refreshing last_watched_at when the pair exists.
// A video deleted concurrently yields NOT_FOUND.
func (r *historyRepository) Upsert(ctx context.Context, actorID, videoID string, at time.Time) error {
	defer observability.TrackQuery("upsert", "watch_events")()

	event := models.WatchEvent{ActorID: actorID, VideoID: videoID, LastWatchedAt: at.UTC()}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTarget(tx, models.KindVideo, videoID); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "video_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_watched_at"}),
		}).Create(&event).Error
	})
	if err != nil {
		return wrap(err, "Video", videoID)
	}
	return nil
}

// List returns watched videos, most recently watched first.
func (r *historyRepository) List(ctx context.Context, actorID string, limit, offset int) ([]models.HistoryEntry, error) {
	limit, offset = Page(limit, offset)
	entries := []models.HistoryEntry{}
	err := r.db.WithContext(ctx).
		Table("videos").
		Select("videos.*, "+ownerColumns+", w.last_watched_at").
		Joins("JOIN watch_events w ON w.video_id = videos.id").
		Joins(videoOwnerJoin).
		Where("w.actor_id = ?", actorID).
		Order("w.last_watched_at DESC, videos.id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&entries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}

func (r *historyRepository) Remove(ctx context.Context, actorID, videoID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("actor_id = ? AND video_id = ?", actorID, videoID).
		Delete(&models.WatchEvent{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *historyRepository) Clear(ctx context.Context, actorID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("actor_id = ?", actorID).Delete(&models.WatchEvent{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
