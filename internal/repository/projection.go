package repository

import (
	"context"
	"fmt"
	"strings"

	"videotube/internal/models"
	"videotube/internal/observability"

	"gorm.io/gorm"
)

// Feed sort orders.
const (
	SortNew   = "new"
	SortViews = "views"
	SortLikes = "likes"
)

const (
	videoOwnerJoin = "LEFT JOIN users owner ON owner.id = videos.owner_id"
	ownerColumns   = "COALESCE(owner.username, '') AS owner_username, " +
		"COALESCE(owner.full_name, '') AS owner_full_name, " +
		"COALESCE(owner.avatar_url, '') AS owner_avatar_url"
)

// VideoFilter narrows a video listing.
type VideoFilter struct {
	OwnerID string
	// PublishedOnly hides unpublished videos.
	PublishedOnly bool
	Sort          string
	Limit         int
	Offset        int
}

// ProjectionRepository computes viewer-relative projections. Every count and
// flag is a correlated sub-query of the same statement, so one projection
// reflects a single snapshot of the edge tables. An empty viewerID yields
// false flags.
type ProjectionRepository interface {
	Video(ctx context.Context, videoID, viewerID string) (*models.VideoView, error)
	Videos(ctx context.Context, filter VideoFilter, viewerID string) ([]models.VideoView, error)
	ReactedVideos(ctx context.Context, viewerID string, reaction models.ReactionKind, limit, offset int) ([]models.VideoView, error)
	Comment(ctx context.Context, commentID, viewerID string) (*models.CommentView, error)
	Comments(ctx context.Context, parentKind models.ContentKind, parentID, viewerID string, limit, offset int) ([]models.CommentView, error)
	Tweet(ctx context.Context, tweetID, viewerID string) (*models.TweetView, error)
	Tweets(ctx context.Context, ownerID, viewerID string, limit, offset int) ([]models.TweetView, error)
	Channel(ctx context.Context, channelID, viewerID string) (*models.ChannelView, error)
	ChannelByUsername(ctx context.Context, username, viewerID string) (*models.ChannelView, error)
}

type projectionRepository struct {
	db *gorm.DB
}

// NewProjectionRepository creates a new projection repository
func NewProjectionRepository(db *gorm.DB) ProjectionRepository {
	return &projectionRepository{db: db}
}

// columns accumulates a SELECT list together with its bind variables.
type columns struct {
	exprs []string
	vars  []interface{}
}

func (c *columns) add(expr string, vars ...interface{}) *columns {
	c.exprs = append(c.exprs, expr)
	c.vars = append(c.vars, vars...)
	return c
}

// flag adds an EXISTS column for a signed-in viewer, or a constant false.
func (c *columns) flag(existsSQL, alias, viewerID string) *columns {
	if viewerID == "" {
		return c.add("false AS " + alias)
	}
	return c.add("EXISTS("+existsSQL+") AS "+alias, viewerID)
}

func (c *columns) apply(db *gorm.DB) *gorm.DB {
	return db.Select(strings.Join(c.exprs, ", "), c.vars...)
}

func reactionCount(table string, kind models.ContentKind, reaction models.ReactionKind) string {
	return fmt.Sprintf("(SELECT COUNT(*) FROM reactions r WHERE r.target_id = %s.id AND r.target_kind = '%s' AND r.kind = '%s')",
		table, kind, reaction)
}

func reactionExists(table string, kind models.ContentKind, reaction models.ReactionKind) string {
	return fmt.Sprintf("SELECT 1 FROM reactions r WHERE r.target_id = %s.id AND r.target_kind = '%s' AND r.kind = '%s' AND r.actor_id = ?",
		table, kind, reaction)
}

func commentCount(table string, kind models.ContentKind) string {
	return fmt.Sprintf("(SELECT COUNT(*) FROM comments c WHERE c.parent_kind = '%s' AND c.parent_id = %s.id)", kind, table)
}

// reactable selects table.*, its owner summary and the reaction counts/flags.
func reactable(table string, kind models.ContentKind, viewerID string) *columns {
	c := &columns{}
	c.add(table+".*").
		add(ownerColumns).
		add(reactionCount(table, kind, models.ReactionLike)+" AS likes_count").
		add(reactionCount(table, kind, models.ReactionDislike)+" AS dislikes_count").
		flag(reactionExists(table, kind, models.ReactionLike), "is_liked", viewerID).
		flag(reactionExists(table, kind, models.ReactionDislike), "is_disliked", viewerID)
	return c
}

func (r *projectionRepository) videos(ctx context.Context, viewerID string) *gorm.DB {
	c := reactable("videos", models.KindVideo, viewerID).
		add(commentCount("videos", models.KindVideo)+" AS comments_count").
		add("(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = videos.owner_id) AS subscribers_count").
		flag("SELECT 1 FROM subscriptions s WHERE s.channel_id = videos.owner_id AND s.subscriber_id = ?", "is_subscribed", viewerID)
	return c.apply(r.db.WithContext(ctx).Table("videos").Joins(videoOwnerJoin))
}

func (r *projectionRepository) Video(ctx context.Context, videoID, viewerID string) (*models.VideoView, error) {
	defer observability.TrackQuery("project", "videos")()

	var views []models.VideoView
	if err := r.videos(ctx, viewerID).Where("videos.id = ?", videoID).Limit(1).Scan(&views).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(views) == 0 {
		return nil, models.NewNotFoundError("Video", videoID)
	}
	return &views[0], nil
}

// applyVideoSort orders by the requested key; ties break on id ASC.
// likes_count is a SELECT alias from videos().
func applyVideoSort(db *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case SortViews:
		return db.Order("videos.views DESC, videos.id ASC")
	case SortLikes:
		return db.Order("likes_count DESC, videos.id ASC")
	default: // "new" and anything unrecognized
		return db.Order("videos.created_at DESC, videos.id ASC")
	}
}

func (r *projectionRepository) Videos(ctx context.Context, filter VideoFilter, viewerID string) ([]models.VideoView, error) {
	defer observability.TrackQuery("project_list", "videos")()

	limit, offset := Page(filter.Limit, filter.Offset)
	q := r.videos(ctx, viewerID)
	if filter.OwnerID != "" {
		q = q.Where("videos.owner_id = ?", filter.OwnerID)
	}
	if filter.PublishedOnly {
		q = q.Where("videos.is_published = ?", true)
	}

	views := []models.VideoView{}
	if err := applyVideoSort(q, filter.Sort).Limit(limit).Offset(offset).Scan(&views).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return views, nil
}

// ReactedVideos lists videos the viewer liked or disliked, newest reaction
// first. Unpublished videos appear only to their owner.
func (r *projectionRepository) ReactedVideos(ctx context.Context, viewerID string, reaction models.ReactionKind, limit, offset int) ([]models.VideoView, error) {
	limit, offset = Page(limit, offset)
	views := []models.VideoView{}
	err := r.videos(ctx, viewerID).
		Joins("JOIN reactions mine ON mine.target_id = videos.id AND mine.target_kind = ? AND mine.actor_id = ? AND mine.kind = ?",
			models.KindVideo, viewerID, reaction).
		Where("videos.is_published = ? OR videos.owner_id = ?", true, viewerID).
		Order("mine.created_at DESC, videos.id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&views).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return views, nil
}

func (r *projectionRepository) comments(ctx context.Context, viewerID string) *gorm.DB {
	return reactable("comments", models.KindComment, viewerID).
		apply(r.db.WithContext(ctx).Table("comments").Joins("LEFT JOIN users owner ON owner.id = comments.owner_id"))
}

func (r *projectionRepository) Comment(ctx context.Context, commentID, viewerID string) (*models.CommentView, error) {
	var views []models.CommentView
	if err := r.comments(ctx, viewerID).Where("comments.id = ?", commentID).Limit(1).Scan(&views).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(views) == 0 {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	return &views[0], nil
}

func (r *projectionRepository) Comments(ctx context.Context, parentKind models.ContentKind, parentID, viewerID string, limit, offset int) ([]models.CommentView, error) {
	limit, offset = Page(limit, offset)
	views := []models.CommentView{}
	err := r.comments(ctx, viewerID).
		Where("comments.parent_kind = ? AND comments.parent_id = ?", parentKind, parentID).
		Order("comments.created_at DESC, comments.id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&views).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return views, nil
}

func (r *projectionRepository) tweets(ctx context.Context, viewerID string) *gorm.DB {
	return reactable("tweets", models.KindTweet, viewerID).
		add(commentCount("tweets", models.KindTweet) + " AS comments_count").
		apply(r.db.WithContext(ctx).Table("tweets").Joins("LEFT JOIN users owner ON owner.id = tweets.owner_id"))
}

func (r *projectionRepository) Tweet(ctx context.Context, tweetID, viewerID string) (*models.TweetView, error) {
	var views []models.TweetView
	if err := r.tweets(ctx, viewerID).Where("tweets.id = ?", tweetID).Limit(1).Scan(&views).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(views) == 0 {
		return nil, models.NewNotFoundError("Tweet", tweetID)
	}
	return &views[0], nil
}

func (r *projectionRepository) Tweets(ctx context.Context, ownerID, viewerID string, limit, offset int) ([]models.TweetView, error) {
	limit, offset = Page(limit, offset)
	views := []models.TweetView{}
	err := r.tweets(ctx, viewerID).
		Where("tweets.owner_id = ?", ownerID).
		Order("tweets.created_at DESC, tweets.id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&views).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return views, nil
}

// channels counts unpublished videos only when the viewer owns the channel.
func (r *projectionRepository) channels(ctx context.Context, viewerID string) *gorm.DB {
	c := &columns{}
	c.add("users.*").
		add("(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = users.id) AS subscribers_count").
		add("(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = users.id) AS channels_subscribed_to_count").
		add("(SELECT COUNT(*) FROM videos v WHERE v.owner_id = users.id AND (v.is_published = ? OR v.owner_id = ?)) AS videos_count", true, viewerID).
		flag("SELECT 1 FROM subscriptions s WHERE s.channel_id = users.id AND s.subscriber_id = ?", "is_subscribed", viewerID)
	return c.apply(r.db.WithContext(ctx).Table("users"))
}

func (r *projectionRepository) Channel(ctx context.Context, channelID, viewerID string) (*models.ChannelView, error) {
	var views []models.ChannelView
	if err := r.channels(ctx, viewerID).Where("users.id = ?", channelID).Limit(1).Scan(&views).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(views) == 0 {
		return nil, models.NewNotFoundError("Channel", channelID)
	}
	return &views[0], nil
}

func (r *projectionRepository) ChannelByUsername(ctx context.Context, username, viewerID string) (*models.ChannelView, error) {
	var views []models.ChannelView
	if err := r.channels(ctx, viewerID).Where("users.username = ?", username).Limit(1).Scan(&views).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(views) == 0 {
		return nil, models.NewNotFoundError("Channel", username)
	}
	return &views[0], nil
}
