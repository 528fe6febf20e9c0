// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"videotube/internal/database"
	"videotube/internal/models"
	"videotube/internal/observability"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLiteDB opens a private in-memory SQLite database with the full schema.
// A single connection serializes writers the same way production toggles are
// serialized per tuple.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := database.Open(sqlite.Open(dsn), observability.Logger)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// Fixture inserts graph rows directly, bypassing services.
type Fixture struct {
	t    testing.TB
	db   *gorm.DB
	now  time.Time
	tick int
}

// NewFixture returns a Fixture writing to db.
func NewFixture(t testing.TB, db *gorm.DB) *Fixture {
	return &Fixture{t: t, db: db, now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

// next returns strictly increasing timestamps so ordering is deterministic.
func (f *Fixture) next() time.Time {
	f.tick++
	return f.now.Add(time.Duration(f.tick) * time.Minute)
}

// User creates a user with the given id and username.
func (f *Fixture) User(id, username string) models.User {
	f.t.Helper()
	u := models.User{ID: id, Username: username, FullName: username + " full", CreatedAt: f.next()}
	require.NoError(f.t, f.db.Create(&u).Error)
	return u
}

// Video creates a published video owned by ownerID with the given view count.
func (f *Fixture) Video(id, ownerID string, views int64) models.Video {
	f.t.Helper()
	ts := f.next()
	v := models.Video{
		ID:          id,
		OwnerID:     ownerID,
		Title:       "video " + id,
		VideoURL:    "https://cdn.example.com/" + id + ".mp4",
		Views:       views,
		IsPublished: true,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	require.NoError(f.t, f.db.Create(&v).Error)
	return v
}

// Unpublish hides a video from public feeds.
func (f *Fixture) Unpublish(videoID string) {
	f.t.Helper()
	require.NoError(f.t, f.db.Model(&models.Video{}).Where("id = ?", videoID).Update("is_published", false).Error)
}

// Tweet creates a tweet owned by ownerID.
func (f *Fixture) Tweet(id, ownerID string) models.Tweet {
	f.t.Helper()
	ts := f.next()
	tw := models.Tweet{ID: id, OwnerID: ownerID, Content: "tweet " + id, CreatedAt: ts, UpdatedAt: ts}
	require.NoError(f.t, f.db.Create(&tw).Error)
	return tw
}

// Comment creates a comment on the given parent.
func (f *Fixture) Comment(id, ownerID, parentID string, parentKind models.ContentKind) models.Comment {
	f.t.Helper()
	ts := f.next()
	c := models.Comment{ID: id, OwnerID: ownerID, ParentID: parentID, ParentKind: parentKind, Content: "comment " + id, CreatedAt: ts, UpdatedAt: ts}
	require.NoError(f.t, f.db.Create(&c).Error)
	return c
}

// React stores a reaction edge.
func (f *Fixture) React(actorID, targetID string, kind models.ContentKind, reaction models.ReactionKind) {
	f.t.Helper()
	r := models.Reaction{ActorID: actorID, TargetID: targetID, TargetKind: kind, Kind: reaction, CreatedAt: f.next()}
	require.NoError(f.t, f.db.Create(&r).Error)
}

// Subscribe stores a subscription edge.
func (f *Fixture) Subscribe(subscriberID, channelID string) {
	f.t.Helper()
	s := models.Subscription{SubscriberID: subscriberID, ChannelID: channelID, CreatedAt: f.next()}
	require.NoError(f.t, f.db.Create(&s).Error)
}

// Watch stores a watch event at the next fixture timestamp.
func (f *Fixture) Watch(actorID, videoID string) time.Time {
	f.t.Helper()
	ts := f.next()
	w := models.WatchEvent{ActorID: actorID, VideoID: videoID, LastWatchedAt: ts}
	require.NoError(f.t, f.db.Create(&w).Error)
	return ts
}

// Count returns the number of rows in model matching the condition.
func (f *Fixture) Count(model interface{}, query string, args ...interface{}) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}
