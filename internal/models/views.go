package models

import "time"

// OwnerSummary is the public face of a content owner inside a projection.
type OwnerSummary struct {
	OwnerUsername  string `json:"owner_username"`
	OwnerFullName  string `json:"owner_full_name"`
	OwnerAvatarURL string `json:"owner_avatar_url"`
}

// ReactionState is a viewer's reaction flags on one item.
type ReactionState struct {
	IsLiked    bool `json:"is_liked"`
	IsDisliked bool `json:"is_disliked"`
}

// SubscriptionState is a viewer's subscription flag on one channel.
type SubscriptionState struct {
	IsSubscribed bool `json:"is_subscribed"`
}

// VideoView is a video projected for a specific viewer.
type VideoView struct {
	Video
	OwnerSummary
	LikesCount       int64 `json:"likes_count"`
	DislikesCount    int64 `json:"dislikes_count"`
	CommentsCount    int64 `json:"comments_count"`
	SubscribersCount int64 `json:"subscribers_count"`
	IsLiked          bool  `json:"is_liked"`
	IsDisliked       bool  `json:"is_disliked"`
	IsSubscribed     bool  `json:"is_subscribed"`
}

// CommentView is a comment projected for a specific viewer.
type CommentView struct {
	Comment
	OwnerSummary
	LikesCount    int64 `json:"likes_count"`
	DislikesCount int64 `json:"dislikes_count"`
	IsLiked       bool  `json:"is_liked"`
	IsDisliked    bool  `json:"is_disliked"`
}

// TweetView is a tweet projected for a specific viewer.
type TweetView struct {
	Tweet
	OwnerSummary
	LikesCount    int64 `json:"likes_count"`
	DislikesCount int64 `json:"dislikes_count"`
	CommentsCount int64 `json:"comments_count"`
	IsLiked       bool  `json:"is_liked"`
	IsDisliked    bool  `json:"is_disliked"`
}

// ChannelView is a user profile projected for a specific viewer.
type ChannelView struct {
	User
	SubscribersCount          int64 `json:"subscribers_count"`
	ChannelsSubscribedToCount int64 `json:"channels_subscribed_to_count"`
	VideosCount               int64 `json:"videos_count"`
	IsSubscribed              bool  `json:"is_subscribed"`
}

// HistoryEntry is one watched video in a viewer's history.
type HistoryEntry struct {
	Video
	OwnerSummary
	LastWatchedAt time.Time `json:"last_watched_at"`
}

// ChannelStats are the dashboard aggregates of one channel.
type ChannelStats struct {
	TotalViews       int64 `json:"total_views"`
	TotalLikes       int64 `json:"total_likes"`
	TotalSubscribers int64 `json:"total_subscribers"`
	TotalVideos      int64 `json:"total_videos"`
}

// ChannelSummary is a compact channel entry for subscriber lists.
type ChannelSummary struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	AvatarURL    string    `json:"avatar_url"`
	SubscribedAt time.Time `json:"subscribed_at"`
}
