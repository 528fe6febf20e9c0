package service

import (
	"context"
	"testing"
	"time"

	"videotube/internal/locks"
	"videotube/internal/models"
	"videotube/internal/repository"
	"videotube/internal/testutil"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// harness wires every service over one in-memory database.
type harness struct {
	db          *gorm.DB
	f           *testutil.Fixture
	events      *eventsMock
	clock       *fakeClock
	engagement  *EngagementService
	projections *ProjectionService
	history     *HistoryService
	channels    *ChannelService
	content     *ContentService
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

// newHarness seeds:
//
//	alice: videos v1 (views 10), v2 (views 20, unpublished); tweet t1
//	bob:   video v3 (views 30); comment c1 on v1
//	carol: nothing
func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	f := testutil.NewFixture(t, db)
	f.User("alice", "alice")
	f.User("bob", "bob")
	f.User("carol", "carol")
	f.Video("v1", "alice", 10)
	f.Video("v2", "alice", 20)
	f.Unpublish("v2")
	f.Video("v3", "bob", 30)
	f.Tweet("t1", "alice")
	f.Comment("c1", "bob", "v1", models.KindVideo)

	events := &eventsMock{}
	events.On("PublishReaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	events.On("PublishSubscription", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	events.On("PublishDeletion", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}

	users := repository.NewUserRepository(db, nil, 0)
	content := repository.NewContentRepository(db, nil, 0)
	subs := repository.NewSubscriptionRepository(db)
	projections := repository.NewProjectionRepository(db)

	h := &harness{db: db, f: f, events: events, clock: clock}
	h.history = NewHistoryService(repository.NewHistoryRepository(db), content, clock.Now)
	h.engagement = NewEngagementService(content, users, repository.NewReactionRepository(db), subs,
		locks.NewLocalLocker(64, 2*time.Second), events, EngagementConfig{MaxRetries: 3, Backoff: time.Millisecond})
	h.projections = NewProjectionService(projections, content, h.history)
	h.channels = NewChannelService(users, repository.NewStatsRepository(db), subs, projections)
	h.content = NewContentService(content, users, events)
	return h
}

type eventsMock struct {
	mock.Mock
}

func (m *eventsMock) PublishReaction(ctx context.Context, actorID string, target models.ContentRef, reaction models.ReactionKind, state models.ReactionState) error {
	return m.Called(ctx, actorID, target, reaction, state).Error(0)
}

func (m *eventsMock) PublishSubscription(ctx context.Context, subscriberID, channelID string, state models.SubscriptionState) error {
	return m.Called(ctx, subscriberID, channelID, state).Error(0)
}

func (m *eventsMock) PublishDeletion(ctx context.Context, actorID string, target models.ContentRef) error {
	return m.Called(ctx, actorID, target).Error(0)
}

// Stubs for exercising the retry loop without a database.

type contentRepoStub struct {
	repository.ContentRepository
	getRef func(ctx context.Context, kind models.ContentKind, id string) (*models.ContentRef, error)
}

func (s contentRepoStub) GetRef(ctx context.Context, kind models.ContentKind, id string) (*models.ContentRef, error) {
	return s.getRef(ctx, kind, id)
}

type reactionRepoStub struct {
	repository.ReactionRepository
	toggle func(ctx context.Context, actorID, targetID string, kind models.ContentKind, reaction models.ReactionKind) (*models.ReactionState, error)
}

func (s reactionRepoStub) Toggle(ctx context.Context, actorID, targetID string, kind models.ContentKind, reaction models.ReactionKind) (*models.ReactionState, error) {
	return s.toggle(ctx, actorID, targetID, kind, reaction)
}

type lockerFunc func(ctx context.Context, key string) (locks.Unlock, error)

func (f lockerFunc) Lock(ctx context.Context, key string) (locks.Unlock, error) {
	return f(ctx, key)
}

func publishedVideo(ctx context.Context, kind models.ContentKind, id string) (*models.ContentRef, error) {
	return &models.ContentRef{ID: id, Kind: kind, OwnerID: "alice", IsPublished: true}, nil
}

// deleteAfterLookup returns a content repository whose GetRef loads the item
// and then deletes it, as if the owner removed it right after the check.
func deleteAfterLookup(t *testing.T, db *gorm.DB) contentRepoStub {
	store := repository.NewContentRepository(db, nil, 0)
	return contentRepoStub{
		ContentRepository: store,
		getRef: func(ctx context.Context, kind models.ContentKind, id string) (*models.ContentRef, error) {
			ref, err := store.GetRef(ctx, kind, id)
			if err != nil {
				return nil, err
			}
			if err := store.Delete(ctx, *ref); err != nil {
				t.Errorf("delete %s %s: %v", kind, id, err)
			}
			return ref, nil
		},
	}
}
