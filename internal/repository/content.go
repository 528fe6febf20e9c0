package repository

import (
	"context"
	"time"

	"videotube/internal/cache"
	"videotube/internal/models"
	"videotube/internal/observability"

	"gorm.io/gorm"
)

// ContentRepository owns content rows: identity lookups, creation, the view
// counter and cascade deletion.
type ContentRepository interface {
	CreateVideo(ctx context.Context, video *models.Video) error
	CreateComment(ctx context.Context, comment *models.Comment) error
	CreateTweet(ctx context.Context, tweet *models.Tweet) error
	GetRef(ctx context.Context, kind models.ContentKind, id string) (*models.ContentRef, error)
	IncrementViews(ctx context.Context, videoID string) (bool, error)
	Delete(ctx context.Context, ref models.ContentRef) error
}

type contentRepository struct {
	db    *gorm.DB
	cache *cache.Cache
	ttl   time.Duration
}

// NewContentRepository creates a new content repository. c may be nil.
func NewContentRepository(db *gorm.DB, c *cache.Cache, ttl time.Duration) ContentRepository {
	if ttl <= 0 {
		ttl = cache.ContentRefTTL
	}
	return &contentRepository{db: db, cache: c, ttl: ttl}
}

func (r *contentRepository) CreateVideo(ctx context.Context, video *models.Video) error {
	if video.ID == "" {
		video.ID = models.NewID()
	}
	if err := r.db.WithContext(ctx).Create(video).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// CreateComment inserts a comment while its parent is share-locked, so a
// comment never outlives a parent deleted at the same moment.
func (r *contentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = models.NewID()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTarget(tx, comment.ParentKind, comment.ParentID); err != nil {
			return err
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		return wrap(err, resourceName(comment.ParentKind), comment.ParentID)
	}
	return nil
}

func (r *contentRepository) CreateTweet(ctx context.Context, tweet *models.Tweet) error {
	if tweet.ID == "" {
		tweet.ID = models.NewID()
	}
	if err := r.db.WithContext(ctx).Create(tweet).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetRef returns the identity of a content item, served from Redis when possible.
func (r *contentRepository) GetRef(ctx context.Context, kind models.ContentKind, id string) (*models.ContentRef, error) {
	var ref models.ContentRef
	err := r.cache.Aside(ctx, cache.ContentRefKey(kind, id), &ref, r.ttl, func() error {
		return r.loadRef(ctx, kind, id, &ref)
	})
	if err != nil {
		return nil, wrap(err, resourceName(kind), id)
	}
	return &ref, nil
}

func (r *contentRepository) loadRef(ctx context.Context, kind models.ContentKind, id string, ref *models.ContentRef) error {
	defer observability.TrackQuery("get_ref", string(kind))()

	db := r.db.WithContext(ctx)
	switch kind {
	case models.KindVideo:
		var v models.Video
		if err := db.Select("id", "owner_id", "is_published").Where("id = ?", id).Take(&v).Error; err != nil {
			return err
		}
		*ref = models.ContentRef{ID: v.ID, Kind: kind, OwnerID: v.OwnerID, IsPublished: v.IsPublished}
	case models.KindComment:
		var c models.Comment
		if err := db.Select("id", "owner_id", "parent_id", "parent_kind").Where("id = ?", id).Take(&c).Error; err != nil {
			return err
		}
		*ref = models.ContentRef{ID: c.ID, Kind: kind, OwnerID: c.OwnerID, ParentID: c.ParentID, ParentKind: c.ParentKind}
	case models.KindTweet:
		var t models.Tweet
		if err := db.Select("id", "owner_id").Where("id = ?", id).Take(&t).Error; err != nil {
			return err
		}
		*ref = models.ContentRef{ID: t.ID, Kind: kind, OwnerID: t.OwnerID}
	default:
		return models.NewInvalidOperationError("unknown content kind " + string(kind))
	}
	return nil
}

// IncrementViews adds one impression. It reports false when the video no
// longer exists.
func (r *contentRepository) IncrementViews(ctx context.Context, videoID string) (bool, error) {
	defer observability.TrackQuery("increment_views", "videos")()

	res := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("id = ?", videoID).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete removes a content item and every edge pointing at it in one
// transaction: its reactions, its watch events, and its comments with their
// reactions. The item row goes first so its row lock orders the cascade after
// any toggle already holding the target. Cached identities are dropped before
// and after commit.
func (r *contentRepository) Delete(ctx context.Context, ref models.ContentRef) error {
	defer observability.TrackQuery("delete_cascade", string(ref.Kind))()

	model, err := contentModel(ref.Kind)
	if err != nil {
		return err
	}
	r.cache.Invalidate(ctx, cache.ContentRefKey(ref.Kind, ref.ID))

	var childIDs []string
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", ref.ID).Delete(model)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if ref.Kind == models.KindVideo || ref.Kind == models.KindTweet {
			if err := tx.Model(&models.Comment{}).
				Where("parent_kind = ? AND parent_id = ?", ref.Kind, ref.ID).
				Pluck("id", &childIDs).Error; err != nil {
				return err
			}
			if len(childIDs) > 0 {
				if err := tx.Where("id IN ?", childIDs).Delete(&models.Comment{}).Error; err != nil {
					return err
				}
				if err := tx.Where("target_kind = ? AND target_id IN ?", models.KindComment, childIDs).
					Delete(&models.Reaction{}).Error; err != nil {
					return err
				}
			}
		}

		if ref.Kind == models.KindVideo {
			if err := tx.Where("video_id = ?", ref.ID).Delete(&models.WatchEvent{}).Error; err != nil {
				return err
			}
		}

		return tx.Where("target_kind = ? AND target_id = ?", ref.Kind, ref.ID).
			Delete(&models.Reaction{}).Error
	})
	if err != nil {
		return wrap(err, resourceName(ref.Kind), ref.ID)
	}

	keys := make([]string, 0, len(childIDs)+1)
	keys = append(keys, cache.ContentRefKey(ref.Kind, ref.ID))
	for _, id := range childIDs {
		keys = append(keys, cache.ContentRefKey(models.KindComment, id))
	}
	r.cache.Invalidate(ctx, keys...)
	return nil
}
