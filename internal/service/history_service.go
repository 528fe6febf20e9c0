package service

import (
	"context"
	"time"

	"videotube/internal/models"
	"videotube/internal/observability"
	"videotube/internal/repository"
)

// HistoryService maintains each viewer's watch history. A viewer has at most
// one entry per video; re-watching moves the entry to the front.
type HistoryService struct {
	history repository.HistoryRepository
	content repository.ContentRepository
	now     func() time.Time
}

// NewHistoryService creates a history service. A nil clock uses time.Now.
func NewHistoryService(history repository.HistoryRepository, content repository.ContentRepository, now func() time.Time) *HistoryService {
	if now == nil {
		now = time.Now
	}
	return &HistoryService{history: history, content: content, now: now}
}

// RecordWatch stamps (viewerID, videoID) with the current time.
func (s *HistoryService) RecordWatch(ctx context.Context, viewerID, videoID string) (err error) {
	span, ctx := observability.StartSpan(ctx, "HistoryService.RecordWatch")
	defer func() { span.End(err) }()

	if viewerID == "" {
		return models.NewUnauthorizedError("Sign in to keep a watch history")
	}
	if err := models.ValidateID("video id", videoID); err != nil {
		return err
	}
	ref, err := s.content.GetRef(ctx, models.KindVideo, videoID)
	if err != nil {
		return err
	}
	if !visibleTo(ref, viewerID) {
		return models.NewNotFoundError("Video", videoID)
	}
	return s.record(ctx, viewerID, videoID)
}

// record skips the visibility checks; callers have already loaded the video.
func (s *HistoryService) record(ctx context.Context, viewerID, videoID string) error {
	return s.history.Upsert(ctx, viewerID, videoID, s.now().UTC())
}

// ListHistory returns the viewer's history, most recently watched first.
func (s *HistoryService) ListHistory(ctx context.Context, viewerID string, limit, offset int) ([]models.HistoryEntry, error) {
	if viewerID == "" {
		return nil, models.NewUnauthorizedError("Sign in to view your watch history")
	}
	limit, offset = repository.Page(limit, offset)
	return s.history.List(ctx, viewerID, limit, offset)
}

// RemoveFromHistory drops one entry. Removing an absent entry is not an error.
func (s *HistoryService) RemoveFromHistory(ctx context.Context, viewerID, videoID string) error {
	if viewerID == "" {
		return models.NewUnauthorizedError("Sign in to edit your watch history")
	}
	if err := models.ValidateID("video id", videoID); err != nil {
		return err
	}
	_, err := s.history.Remove(ctx, viewerID, videoID)
	return err
}

// ClearHistory empties the viewer's history and reports how many entries went.
func (s *HistoryService) ClearHistory(ctx context.Context, viewerID string) (int64, error) {
	if viewerID == "" {
		return 0, models.NewUnauthorizedError("Sign in to edit your watch history")
	}
	return s.history.Clear(ctx, viewerID)
}
