package service

import (
	"context"
	"log/slog"

	"videotube/internal/models"
	"videotube/internal/observability"
	"videotube/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedQuery selects a page of videos.
type FeedQuery struct {
	OwnerID            string `validate:"omitempty,max=64,printascii"`
	IncludeUnpublished bool
	Sort               string `validate:"omitempty,oneof=new views likes"`
	Limit              int    `validate:"gte=0,lte=100"`
	Offset             int    `validate:"gte=0"`
}

// ProjectionService serves viewer-relative read models. Reads never fail
// because the viewer is missing; an anonymous viewer just sees false flags.
type ProjectionService struct {
	projections repository.ProjectionRepository
	content     repository.ContentRepository
	history     *HistoryService
}

func NewProjectionService(projections repository.ProjectionRepository, content repository.ContentRepository, history *HistoryService) *ProjectionService {
	return &ProjectionService{projections: projections, content: content, history: history}
}

// GetVideo counts one view impression, projects the video for viewerID and,
// for signed-in viewers, records a watch.
func (s *ProjectionService) GetVideo(ctx context.Context, videoID, viewerID string) (view *models.VideoView, err error) {
	span, ctx := observability.StartSpan(ctx, "ProjectionService.GetVideo",
		attribute.Bool("viewer.anonymous", viewerID == ""))
	defer func() { span.End(err) }()

	if err := models.ValidateID("video id", videoID); err != nil {
		return nil, err
	}
	ref, err := s.content.GetRef(ctx, models.KindVideo, videoID)
	if err != nil {
		return nil, err
	}
	if !visibleTo(ref, viewerID) {
		return nil, models.NewNotFoundError("Video", videoID)
	}

	s.countView(ctx, videoID)

	view, err = s.projections.Video(ctx, videoID, viewerID)
	if err != nil {
		return nil, err
	}
	// The cached ref may predate an unpublish.
	if !view.IsPublished && view.OwnerID != viewerID {
		return nil, models.NewNotFoundError("Video", videoID)
	}

	if viewerID != "" && s.history != nil {
		if err := s.history.record(ctx, viewerID, videoID); err != nil {
			observability.Logger.WarnContext(ctx, "failed to record watch",
				slog.String("video_id", videoID), slog.String("error", err.Error()))
		}
	}
	return view, nil
}

// countView never fails the read that triggered it.
func (s *ProjectionService) countView(ctx context.Context, videoID string) {
	updated, err := s.content.IncrementViews(ctx, videoID)
	switch {
	case err != nil:
		observability.ViewIncrementFailures.WithLabelValues("error").Inc()
		observability.Logger.WarnContext(ctx, "failed to increment views",
			slog.String("video_id", videoID), slog.String("error", err.Error()))
	case !updated:
		observability.ViewIncrementFailures.WithLabelValues("missing").Inc()
		observability.Logger.DebugContext(ctx, "view increment hit no rows", slog.String("video_id", videoID))
	}
}

func (s *ProjectionService) GetComment(ctx context.Context, commentID, viewerID string) (*models.CommentView, error) {
	if err := models.ValidateID("comment id", commentID); err != nil {
		return nil, err
	}
	ref, err := s.content.GetRef(ctx, models.KindComment, commentID)
	if err != nil {
		return nil, err
	}
	if err := checkVisible(ctx, s.content, ref, viewerID); err != nil {
		return nil, err
	}
	return s.projections.Comment(ctx, commentID, viewerID)
}

func (s *ProjectionService) GetTweet(ctx context.Context, tweetID, viewerID string) (*models.TweetView, error) {
	if err := models.ValidateID("tweet id", tweetID); err != nil {
		return nil, err
	}
	return s.projections.Tweet(ctx, tweetID, viewerID)
}

// ListFeed pages through videos. Unpublished videos appear only when the
// viewer asks for their own channel with IncludeUnpublished.
func (s *ProjectionService) ListFeed(ctx context.Context, q FeedQuery, viewerID string) (views []models.VideoView, err error) {
	span, ctx := observability.StartSpan(ctx, "ProjectionService.ListFeed",
		attribute.String("sort", q.Sort))
	defer func() { span.End(err) }()

	if err := models.ValidateStruct(q); err != nil {
		return nil, err
	}
	limit, offset := repository.Page(q.Limit, q.Offset)
	filter := repository.VideoFilter{
		OwnerID:       q.OwnerID,
		PublishedOnly: !(q.IncludeUnpublished && q.OwnerID != "" && q.OwnerID == viewerID),
		Sort:          q.Sort,
		Limit:         limit,
		Offset:        offset,
	}
	return s.projections.Videos(ctx, filter, viewerID)
}

// ListComments pages through the comments on a video or tweet.
func (s *ProjectionService) ListComments(ctx context.Context, parentKind models.ContentKind, parentID, viewerID string, limit, offset int) ([]models.CommentView, error) {
	if parentKind != models.KindVideo && parentKind != models.KindTweet {
		return nil, models.NewInvalidOperationError("comments belong to videos or tweets")
	}
	if err := models.ValidateID("parent id", parentID); err != nil {
		return nil, err
	}
	ref, err := s.content.GetRef(ctx, parentKind, parentID)
	if err != nil {
		return nil, err
	}
	if !visibleTo(ref, viewerID) {
		return nil, models.NewNotFoundError("Video", parentID)
	}
	limit, offset = repository.Page(limit, offset)
	return s.projections.Comments(ctx, parentKind, parentID, viewerID, limit, offset)
}

func (s *ProjectionService) ListTweets(ctx context.Context, ownerID, viewerID string, limit, offset int) ([]models.TweetView, error) {
	if err := models.ValidateID("owner id", ownerID); err != nil {
		return nil, err
	}
	limit, offset = repository.Page(limit, offset)
	return s.projections.Tweets(ctx, ownerID, viewerID, limit, offset)
}

func (s *ProjectionService) GetChannelProfile(ctx context.Context, channelID, viewerID string) (*models.ChannelView, error) {
	if err := models.ValidateID("channel id", channelID); err != nil {
		return nil, err
	}
	return s.projections.Channel(ctx, channelID, viewerID)
}

func (s *ProjectionService) GetChannelProfileByUsername(ctx context.Context, username, viewerID string) (*models.ChannelView, error) {
	if err := models.ValidateID("username", username); err != nil {
		return nil, err
	}
	return s.projections.ChannelByUsername(ctx, username, viewerID)
}

// ListReactedVideos returns the viewer's liked or disliked videos, newest
// reaction first.
func (s *ProjectionService) ListReactedVideos(ctx context.Context, viewerID string, reaction models.ReactionKind, limit, offset int) ([]models.VideoView, error) {
	if viewerID == "" {
		return nil, models.NewUnauthorizedError("Sign in to see your reactions")
	}
	if !reaction.Valid() {
		return nil, models.NewInvalidOperationError("unknown reaction " + string(reaction))
	}
	limit, offset = repository.Page(limit, offset)
	return s.projections.ReactedVideos(ctx, viewerID, reaction, limit, offset)
}
