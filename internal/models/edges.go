package models

import "time"

// ReactionKind is the polarity of a reaction edge.
type ReactionKind string

const (
	// ReactionLike marks a like edge.
	ReactionLike ReactionKind = "like"
	// ReactionDislike marks a dislike edge.
	ReactionDislike ReactionKind = "dislike"
)

// Valid reports whether r is like or dislike.
func (r ReactionKind) Valid() bool {
	return r == ReactionLike || r == ReactionDislike
}

// Opposite returns the mutually exclusive reaction.
func (r ReactionKind) Opposite() ReactionKind {
	if r == ReactionLike {
		return ReactionDislike
	}
	return ReactionLike
}

// Reaction is a like or dislike from an actor on a content item.
// The primary key covers (actor, target, kind of target) so an actor holds at
// most one reaction per item; like and dislike cannot coexist.
type Reaction struct {
	ActorID    string       `gorm:"primaryKey;type:varchar(64)" json:"actor_id"`
	TargetID   string       `gorm:"primaryKey;type:varchar(64);index:idx_reactions_target,priority:1" json:"target_id"`
	TargetKind ContentKind  `gorm:"primaryKey;type:varchar(16);index:idx_reactions_target,priority:2" json:"target_kind"`
	Kind       ReactionKind `gorm:"type:varchar(16);not null;index:idx_reactions_target,priority:3" json:"kind"`
	CreatedAt  time.Time    `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Reaction) TableName() string {
	return "reactions"
}

// Subscription is a directed edge from a subscriber to a channel.
type Subscription struct {
	SubscriberID string    `gorm:"primaryKey;type:varchar(64);check:chk_subscriptions_not_self,subscriber_id <> channel_id" json:"subscriber_id"`
	ChannelID    string    `gorm:"primaryKey;type:varchar(64);index" json:"channel_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Subscription) TableName() string {
	return "subscriptions"
}

// WatchEvent records that an actor watched a video, at most once per pair.
type WatchEvent struct {
	ActorID       string    `gorm:"primaryKey;type:varchar(64);index:idx_watch_events_actor_time,priority:1" json:"actor_id"`
	VideoID       string    `gorm:"primaryKey;type:varchar(64);index" json:"video_id"`
	LastWatchedAt time.Time `gorm:"not null;index:idx_watch_events_actor_time,priority:2" json:"last_watched_at"`

	Video *Video `gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM.
func (WatchEvent) TableName() string {
	return "watch_events"
}
