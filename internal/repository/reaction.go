package repository

import (
	"context"
	"time"

	"videotube/internal/models"
	"videotube/internal/observability"

	"gorm.io/gorm"
)

// ReactionRepository stores like and dislike edges.
type ReactionRepository interface {
	Toggle(ctx context.Context, actorID, targetID string, kind models.ContentKind, reaction models.ReactionKind) (*models.ReactionState, error)
}

type reactionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewReactionRepository creates a new reaction repository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db, now: time.Now}
}

// Toggle flips the requested reaction for (actor, target) in one transaction.
// A present same-kind edge is removed; otherwise any opposite edge is removed
// and the requested one inserted. The target row is share-locked first, so a
// target deleted concurrently yields NOT_FOUND instead of an orphaned edge. A
// concurrent insert for the same tuple fails on the primary key and is
// reported as a retryable error.
func (r *reactionRepository) Toggle(ctx context.Context, actorID, targetID string, kind models.ContentKind, reaction models.ReactionKind) (*models.ReactionState, error) {
	defer observability.TrackQuery("toggle", "reactions")()

	var state models.ReactionState
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTarget(tx, kind, targetID); err != nil {
			return err
		}
		res := tx.Where("actor_id = ? AND target_id = ? AND target_kind = ? AND kind = ?", actorID, targetID, kind, reaction).
			Delete(&models.Reaction{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			state = models.ReactionState{}
			return nil
		}

		if err := tx.Where("actor_id = ? AND target_id = ? AND target_kind = ? AND kind = ?", actorID, targetID, kind, reaction.Opposite()).
			Delete(&models.Reaction{}).Error; err != nil {
			return err
		}

		edge := models.Reaction{
			ActorID:    actorID,
			TargetID:   targetID,
			TargetKind: kind,
			Kind:       reaction,
			CreatedAt:  r.now().UTC(),
		}
		if err := tx.Create(&edge).Error; err != nil {
			return err
		}
		state = models.ReactionState{
			IsLiked:    reaction == models.ReactionLike,
			IsDisliked: reaction == models.ReactionDislike,
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err, resourceName(kind), targetID)
	}
	return &state, nil
}
