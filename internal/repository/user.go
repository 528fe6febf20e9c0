package repository

import (
	"context"
	"time"

	"videotube/internal/cache"
	"videotube/internal/models"
	"videotube/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user (channel) lookups.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type userRepository struct {
	db    *gorm.DB
	cache *cache.Cache
	ttl   time.Duration
}

// NewUserRepository creates a new user repository. c may be nil.
func NewUserRepository(db *gorm.DB, c *cache.Cache, ttl time.Duration) UserRepository {
	if ttl <= 0 {
		ttl = cache.ContentRefTTL
	}
	return &userRepository{db: db, cache: c, ttl: ttl}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = models.NewID()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	defer observability.TrackQuery("get_by_id", "users")()

	var user models.User
	err := r.cache.Aside(ctx, cache.UserKey(id), &user, r.ttl, func() error {
		return r.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	})
	if err != nil {
		return nil, wrap(err, "Channel", id)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error; err != nil {
		return nil, wrap(err, "Channel", username)
	}
	return &user, nil
}
