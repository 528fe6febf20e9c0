package service

import (
	"context"
	"log/slog"

	"videotube/internal/models"
	"videotube/internal/observability"
	"videotube/internal/repository"
)

// NewVideoInput describes a video row. Upload handling happens elsewhere.
type NewVideoInput struct {
	Title           string  `validate:"required,max=200"`
	Description     string  `validate:"max=5000"`
	VideoURL        string  `validate:"required,url"`
	ThumbnailURL    string  `validate:"omitempty,url"`
	DurationSeconds float64 `validate:"gte=0"`
	Published       bool
}

type NewCommentInput struct {
	ParentID   string             `validate:"required,max=64"`
	ParentKind models.ContentKind `validate:"required,oneof=video tweet"`
	Content    string             `validate:"required,max=2000"`
}

type NewTweetInput struct {
	Content string `validate:"required,max=280"`
}

// ContentService creates and deletes content items.
type ContentService struct {
	content repository.ContentRepository
	users   repository.UserRepository
	events  EventPublisher
}

func NewContentService(content repository.ContentRepository, users repository.UserRepository, events EventPublisher) *ContentService {
	return &ContentService{content: content, users: users, events: events}
}

func (s *ContentService) requireOwner(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return models.NewUnauthorizedError("Sign in to publish content")
	}
	if err := models.ValidateID("owner id", ownerID); err != nil {
		return err
	}
	_, err := s.users.GetByID(ctx, ownerID)
	return err
}

func (s *ContentService) CreateVideo(ctx context.Context, ownerID string, in NewVideoInput) (*models.Video, error) {
	if err := s.requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := models.ValidateStruct(in); err != nil {
		return nil, err
	}
	video := &models.Video{
		OwnerID:         ownerID,
		Title:           in.Title,
		Description:     in.Description,
		VideoURL:        in.VideoURL,
		ThumbnailURL:    in.ThumbnailURL,
		DurationSeconds: in.DurationSeconds,
		IsPublished:     in.Published,
	}
	if err := s.content.CreateVideo(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

// CreateComment attaches a comment to a visible video or to a tweet.
func (s *ContentService) CreateComment(ctx context.Context, ownerID string, in NewCommentInput) (*models.Comment, error) {
	if err := s.requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := models.ValidateStruct(in); err != nil {
		return nil, err
	}
	parent, err := s.content.GetRef(ctx, in.ParentKind, in.ParentID)
	if err != nil {
		return nil, err
	}
	if err := checkVisible(ctx, s.content, parent, ownerID); err != nil {
		return nil, err
	}
	comment := &models.Comment{
		OwnerID:    ownerID,
		ParentID:   in.ParentID,
		ParentKind: in.ParentKind,
		Content:    in.Content,
	}
	if err := s.content.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *ContentService) CreateTweet(ctx context.Context, ownerID string, in NewTweetInput) (*models.Tweet, error) {
	if err := s.requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := models.ValidateStruct(in); err != nil {
		return nil, err
	}
	tweet := &models.Tweet{OwnerID: ownerID, Content: in.Content}
	if err := s.content.CreateTweet(ctx, tweet); err != nil {
		return nil, err
	}
	return tweet, nil
}

// DeleteContent removes an item owned by actorID together with every edge
// that points at it.
func (s *ContentService) DeleteContent(ctx context.Context, actorID string, kind models.ContentKind, id string) (err error) {
	span, ctx := observability.StartSpan(ctx, "ContentService.DeleteContent")
	defer func() { span.End(err) }()

	if actorID == "" {
		return models.NewUnauthorizedError("Sign in to delete content")
	}
	if !kind.Valid() {
		return models.NewInvalidOperationError("unknown content kind " + string(kind))
	}
	if err := models.ValidateID("content id", id); err != nil {
		return err
	}
	ref, err := s.content.GetRef(ctx, kind, id)
	if err != nil {
		return err
	}
	if ref.OwnerID != actorID {
		return models.NewUnauthorizedError("Only the owner can delete this content")
	}
	if err := s.content.Delete(ctx, *ref); err != nil {
		return err
	}

	observability.Logger.InfoContext(ctx, "content deleted",
		slog.String("kind", string(kind)), slog.String("id", id))
	if s.events != nil {
		logPublishFailure(ctx, "deletion", s.events.PublishDeletion(ctx, actorID, *ref))
	}
	return nil
}
