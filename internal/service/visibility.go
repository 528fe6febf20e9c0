package service

import (
	"context"

	"videotube/internal/models"
	"videotube/internal/repository"
)

// visibleTo hides unpublished videos from everyone but their owner. Tweets
// have no publish state; comments are judged by checkVisible.
func visibleTo(ref *models.ContentRef, viewerID string) bool {
	if ref.Kind != models.KindVideo || ref.IsPublished {
		return true
	}
	return viewerID != "" && ref.OwnerID == viewerID
}

// checkVisible returns NOT_FOUND when viewerID may not see ref. A comment on
// a video is visible exactly when the video is.
func checkVisible(ctx context.Context, content repository.ContentRepository, ref *models.ContentRef, viewerID string) error {
	if ref.Kind == models.KindComment && ref.ParentKind == models.KindVideo {
		parent, err := content.GetRef(ctx, models.KindVideo, ref.ParentID)
		if err != nil {
			if models.IsNotFound(err) {
				return models.NewNotFoundError("Comment", ref.ID)
			}
			return err
		}
		if !visibleTo(parent, viewerID) {
			return models.NewNotFoundError("Comment", ref.ID)
		}
		return nil
	}
	if !visibleTo(ref, viewerID) {
		return models.NewNotFoundError("Video", ref.ID)
	}
	return nil
}
