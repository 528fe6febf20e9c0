// Package seed creates demo data for development databases and tests.
package seed

import (
	"context"
	"fmt"

	"videotube/internal/models"
	"videotube/internal/repository"
	"videotube/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// Factory builds domain entities and persists them through the services.
type Factory struct {
	faker   *gofakeit.Faker
	users   repository.UserRepository
	content *service.ContentService
	seq     int
}

// NewFactory creates a Factory. The same seed yields the same data.
func NewFactory(users repository.UserRepository, content *service.ContentService, seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed), users: users, content: content}
}

// CreateUser persists a channel with a unique username.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	f.seq++
	user := &models.User{
		ID:            models.NewID(),
		Username:      fmt.Sprintf("%s%d", f.faker.Username(), f.seq),
		FullName:      f.faker.Name(),
		AvatarURL:     fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		CoverImageURL: fmt.Sprintf("https://picsum.photos/seed/%s/1280/320", f.faker.UUID()),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateVideo persists a video; roughly one in ten is left unpublished.
func (f *Factory) CreateVideo(ctx context.Context, owner *models.User) (*models.Video, error) {
	id := f.faker.UUID()
	return f.content.CreateVideo(ctx, owner.ID, service.NewVideoInput{
		Title:           f.faker.Sentence(5),
		Description:     f.faker.Paragraph(1, 3, 8, "\n"),
		VideoURL:        fmt.Sprintf("https://cdn.example.com/videos/%s.mp4", id),
		ThumbnailURL:    fmt.Sprintf("https://picsum.photos/seed/%s/640/360", id),
		DurationSeconds: f.faker.Float64Range(15, 3600),
		Published:       f.faker.Number(1, 10) > 1,
	})
}

func (f *Factory) CreateTweet(ctx context.Context, owner *models.User) (*models.Tweet, error) {
	return f.content.CreateTweet(ctx, owner.ID, service.NewTweetInput{Content: f.faker.HackerPhrase()})
}

func (f *Factory) CreateComment(ctx context.Context, owner *models.User, parentID string, parentKind models.ContentKind) (*models.Comment, error) {
	return f.content.CreateComment(ctx, owner.ID, service.NewCommentInput{
		ParentID:   parentID,
		ParentKind: parentKind,
		Content:    f.faker.Sentence(12),
	})
}

// Pick returns a pseudo-random index in [0, n).
func (f *Factory) Pick(n int) int {
	return f.faker.Number(0, n-1)
}
