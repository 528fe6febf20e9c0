package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"videotube/internal/database"
	"videotube/internal/locks"
	"videotube/internal/models"
	"videotube/internal/observability"
	"videotube/internal/repository"
	"videotube/internal/service"

	"gorm.io/gorm"
)

// Options sizes the generated graph.
type Options struct {
	Users                int
	VideosPerUser        int
	TweetsPerUser        int
	CommentsPerVideo     int
	ReactionsPerUser     int
	SubscriptionsPerUser int
	WatchesPerUser       int
	Clean                bool
	Seed                 int64
}

// DefaultOptions is a small, browsable graph.
func DefaultOptions() Options {
	return Options{
		Users:                20,
		VideosPerUser:        3,
		TweetsPerUser:        2,
		CommentsPerVideo:     2,
		ReactionsPerUser:     10,
		SubscriptionsPerUser: 4,
		WatchesPerUser:       8,
		Clean:                true,
		Seed:                 42,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users         int
	Videos        int
	Tweets        int
	Comments      int
	Reactions     int
	Subscriptions int
	Watches       int
}

// Seeder writes demo data through the same services the API uses, so every
// edge obeys the toggle rules.
type Seeder struct {
	db         *gorm.DB
	users      repository.UserRepository
	content    *service.ContentService
	engagement *service.EngagementService
	history    *service.HistoryService
}

// NewSeeder creates a Seeder over db without caching or events.
func NewSeeder(db *gorm.DB) *Seeder {
	users := repository.NewUserRepository(db, nil, 0)
	content := repository.NewContentRepository(db, nil, 0)
	return &Seeder{
		db:      db,
		users:   users,
		content: service.NewContentService(content, users, nil),
		engagement: service.NewEngagementService(content, users,
			repository.NewReactionRepository(db),
			repository.NewSubscriptionRepository(db),
			locks.NewLocalLocker(16, time.Second), nil,
			service.EngagementConfig{MaxRetries: 3, Backoff: 10 * time.Millisecond}),
		history: service.NewHistoryService(repository.NewHistoryRepository(db), content, nil),
	}
}

// ClearAll deletes every row of the engagement graph, edges first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	persistent := database.PersistentModels()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := len(persistent) - 1; i >= 0; i-- {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(persistent[i]).Error; err != nil {
				return fmt.Errorf("clear %T: %w", persistent[i], err)
			}
		}
		return nil
	})
}

// Run generates a graph sized by opts.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Clean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, err
		}
	}

	f := NewFactory(s.users, s.content, opts.Seed)
	sum := &Summary{}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	if len(users) == 0 {
		return sum, nil
	}

	var videos []*models.Video
	var tweets []*models.Tweet
	for _, u := range users {
		for i := 0; i < opts.VideosPerUser; i++ {
			v, err := f.CreateVideo(ctx, u)
			if err != nil {
				return nil, fmt.Errorf("create video: %w", err)
			}
			videos = append(videos, v)
		}
		for i := 0; i < opts.TweetsPerUser; i++ {
			tw, err := f.CreateTweet(ctx, u)
			if err != nil {
				return nil, fmt.Errorf("create tweet: %w", err)
			}
			tweets = append(tweets, tw)
		}
	}
	sum.Videos, sum.Tweets = len(videos), len(tweets)

	var published []*models.Video
	for _, v := range videos {
		if v.IsPublished {
			published = append(published, v)
		}
	}

	var comments []*models.Comment
	for _, v := range published {
		for i := 0; i < opts.CommentsPerVideo; i++ {
			c, err := f.CreateComment(ctx, users[f.Pick(len(users))], v.ID, models.KindVideo)
			if err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
			comments = append(comments, c)
		}
	}
	sum.Comments = len(comments)

	for _, u := range users {
		for i := 0; i < opts.ReactionsPerUser; i++ {
			kind, id := s.pickTarget(f, published, tweets, comments)
			if id == "" {
				break
			}
			reaction := models.ReactionLike
			if f.Pick(4) == 0 {
				reaction = models.ReactionDislike
			}
			if _, err := s.engagement.ToggleReaction(ctx, u.ID, id, kind, reaction); err != nil {
				return nil, fmt.Errorf("toggle reaction: %w", err)
			}
		}

		for i := 0; i < opts.SubscriptionsPerUser && len(users) > 1; i++ {
			channel := users[f.Pick(len(users))]
			if channel.ID == u.ID {
				continue
			}
			if _, err := s.engagement.ToggleSubscription(ctx, u.ID, channel.ID); err != nil {
				return nil, fmt.Errorf("toggle subscription: %w", err)
			}
		}

		for i := 0; i < opts.WatchesPerUser && len(published) > 0; i++ {
			v := published[f.Pick(len(published))]
			if err := s.history.RecordWatch(ctx, u.ID, v.ID); err != nil {
				return nil, fmt.Errorf("record watch: %w", err)
			}
		}
	}

	// toggles can cancel each other, so edges are counted from the store
	edges := []struct {
		model interface{}
		dest  *int
	}{
		{&models.Reaction{}, &sum.Reactions},
		{&models.Subscription{}, &sum.Subscriptions},
		{&models.WatchEvent{}, &sum.Watches},
	}
	for _, e := range edges {
		var n int64
		if err := s.db.WithContext(ctx).Model(e.model).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %T: %w", e.model, err)
		}
		*e.dest = int(n)
	}

	observability.Logger.InfoContext(ctx, "seed complete",
		slog.Int("users", sum.Users),
		slog.Int("videos", sum.Videos),
		slog.Int("tweets", sum.Tweets),
		slog.Int("comments", sum.Comments),
		slog.Int("reactions", sum.Reactions),
		slog.Int("subscriptions", sum.Subscriptions),
		slog.Int("watches", sum.Watches))
	return sum, nil
}

func (s *Seeder) pickTarget(f *Factory, videos []*models.Video, tweets []*models.Tweet, comments []*models.Comment) (models.ContentKind, string) {
	total := len(videos) + len(tweets) + len(comments)
	if total == 0 {
		return "", ""
	}
	i := f.Pick(total)
	switch {
	case i < len(videos):
		return models.KindVideo, videos[i].ID
	case i < len(videos)+len(tweets):
		return models.KindTweet, tweets[i-len(videos)].ID
	default:
		return models.KindComment, comments[i-len(videos)-len(tweets)].ID
	}
}
