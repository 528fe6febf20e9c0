package repository

import (
	"context"
	"time"

	"videotube/internal/models"
	"videotube/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository stores subscriber→channel edges.
type SubscriptionRepository interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (*models.SubscriptionState, error)
	ListSubscribers(ctx context.Context, channelID string, limit, offset int) ([]models.ChannelSummary, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string, limit, offset int) ([]models.ChannelSummary, error)
}

type subscriptionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db, now: time.Now}
}

// Toggle removes the edge if present, otherwise inserts it.
func (r *subscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (*models.SubscriptionState, error) {
	defer observability.TrackQuery("toggle", "subscriptions")()

	var state models.SubscriptionState
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
			Delete(&models.Subscription{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			state.IsSubscribed = false
			return nil
		}

		edge := models.Subscription{SubscriberID: subscriberID, ChannelID: channelID, CreatedAt: r.now().UTC()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
			return err
		}
		state.IsSubscribed = true
		return nil
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &state, nil
}

// ListSubscribers returns the users subscribed to channelID, newest first.
func (r *subscriptionRepository) ListSubscribers(ctx context.Context, channelID string, limit, offset int) ([]models.ChannelSummary, error) {
	limit, offset = Page(limit, offset)
	out := []models.ChannelSummary{}
	err := r.db.WithContext(ctx).
		Table("subscriptions AS s").
		Select("u.id, u.username, u.full_name, u.avatar_url, s.created_at AS subscribed_at").
		Joins("JOIN users u ON u.id = s.subscriber_id").
		Where("s.channel_id = ?", channelID).
		Order("s.created_at DESC, u.id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// ListSubscribedChannels returns the channels subscriberID follows, newest first.
func (r *subscriptionRepository) ListSubscribedChannels(ctx context.Context, subscriberID string, limit, offset int) ([]models.ChannelSummary, error) {
	limit, offset = Page(limit, offset)
	out := []models.ChannelSummary{}
	err := r.db.WithContext(ctx).
		Table("subscriptions AS s").
		Select("u.id, u.username, u.full_name, u.avatar_url, s.created_at AS subscribed_at").
		Joins("JOIN users u ON u.id = s.channel_id").
		Where("s.subscriber_id = ?", subscriberID).
		Order("s.created_at DESC, u.id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
