// Package models contains data structures for the engagement graph.
package models

import "time"

// ContentKind names the kinds of content that can carry reactions.
type ContentKind string

const (
	// KindVideo is an uploaded video.
	KindVideo ContentKind = "video"
	// KindComment is a comment on a video or tweet.
	KindComment ContentKind = "comment"
	// KindTweet is a short channel post.
	KindTweet ContentKind = "tweet"
)

// Valid reports whether k is a known content kind.
func (k ContentKind) Valid() bool {
	switch k {
	case KindVideo, KindComment, KindTweet:
		return true
	}
	return false
}

// ParseContentKind accepts singular or plural route names.
func ParseContentKind(s string) (ContentKind, bool) {
	switch s {
	case "video", "videos":
		return KindVideo, true
	case "comment", "comments":
		return KindComment, true
	case "tweet", "tweets":
		return KindTweet, true
	}
	return "", false
}

// User is a registered account. Every user is also a channel.
type User struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Username      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	FullName      string    `gorm:"type:varchar(128);not null;default:''" json:"full_name"`
	AvatarURL     string    `gorm:"type:text;not null;default:''" json:"avatar_url"`
	CoverImageURL string    `gorm:"type:text;not null;default:''" json:"cover_image_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

// Video is an uploaded video. Media URLs are opaque.
type Video struct {
	ID              string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	OwnerID         string    `gorm:"type:varchar(64);not null;index:idx_videos_owner_created,priority:1" json:"owner_id"`
	Title           string    `gorm:"type:varchar(256);not null" json:"title"`
	Description     string    `gorm:"type:text;not null;default:''" json:"description"`
	VideoURL        string    `gorm:"type:text;not null" json:"video_url"`
	ThumbnailURL    string    `gorm:"type:text;not null;default:''" json:"thumbnail_url"`
	DurationSeconds float64   `gorm:"not null;default:0" json:"duration_seconds"`
	Views           int64     `gorm:"not null;default:0" json:"views"`
	IsPublished     bool      `gorm:"not null;default:true" json:"is_published"`
	CreatedAt       time.Time `gorm:"index:idx_videos_owner_created,priority:2" json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Video) TableName() string {
	return "videos"
}

// Comment is a comment attached to a video or a tweet.
type Comment struct {
	ID         string      `gorm:"primaryKey;type:varchar(64)" json:"id"`
	OwnerID    string      `gorm:"type:varchar(64);not null;index" json:"owner_id"`
	ParentID   string      `gorm:"type:varchar(64);not null;index:idx_comments_parent,priority:2" json:"parent_id"`
	ParentKind ContentKind `gorm:"type:varchar(16);not null;index:idx_comments_parent,priority:1" json:"parent_kind"`
	Content    string      `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Comment) TableName() string {
	return "comments"
}

// Tweet is a short text post on a channel.
type Tweet struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	OwnerID   string    `gorm:"type:varchar(64);not null;index" json:"owner_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Tweet) TableName() string {
	return "tweets"
}

// ContentRef is the immutable identity of a content item.
type ContentRef struct {
	ID      string      `json:"id"`
	Kind    ContentKind `json:"kind"`
	OwnerID string      `json:"owner_id"`
	// ParentID and ParentKind are set for comments only.
	ParentID   string      `json:"parent_id,omitempty"`
	ParentKind ContentKind `json:"parent_kind,omitempty"`
	// IsPublished is meaningful for videos only.
	IsPublished bool `json:"is_published"`
}
