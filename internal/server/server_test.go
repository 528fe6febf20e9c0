package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"videotube/internal/cache"
	"videotube/internal/config"
	"videotube/internal/models"
	"videotube/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func testConfig() *config.Config {
	return &config.Config{
		Port:                      "0",
		Env:                       "test",
		JWTSecret:                 testSecret,
		ToggleMaxRetries:          3,
		ToggleLockTTLMS:           2000,
		ToggleBackoffMS:           1,
		ContentCacheTTLSeconds:    60,
		RateLimitTogglesPerMinute: 60,
	}
}

// newTestServer seeds alice (v1, unpublished v2, t1), bob (v3, comment c1 on
// v1) and carol, and serves them over SQLite with a miniredis cache.
func newTestServer(t *testing.T) (*Server, *testutil.Fixture, *miniredis.Miniredis) {
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

	mr := miniredis.RunT(t)
	c := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })

	s, err := NewServerWithDeps(testConfig(), db, c, nil)
	require.NoError(t, err)
	return s, f, mr
}

func bearer(t *testing.T, viewerID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": viewerID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, s *Server, method, path, viewerID string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if viewerID != "" {
		req.Header.Set("Authorization", bearer(t, viewerID))
	}
	resp, err := s.App().Test(req, 5000)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func TestToggleReactionEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)

	status, body := do(t, s, http.MethodPost, "/api/videos/v1/like", "bob")
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, models.ReactionState{IsLiked: true}, decode[models.ReactionState](t, body))

	status, body = do(t, s, http.MethodPost, "/api/videos/v1/dislike", "bob")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.ReactionState{IsDisliked: true}, decode[models.ReactionState](t, body))

	status, body = do(t, s, http.MethodPost, "/api/comments/c1/like", "alice")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[models.ReactionState](t, body).IsLiked)

	status, body = do(t, s, http.MethodGet, "/api/videos/v1", "bob")
	require.Equal(t, http.StatusOK, status)
	view := decode[models.VideoView](t, body)
	assert.True(t, view.IsDisliked)
	assert.False(t, view.IsLiked)
	assert.Equal(t, int64(1), view.DislikesCount)
}

func TestToggleReactionEndpoint_Errors(t *testing.T) {
	s, _, _ := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		viewer string
		status int
		code   string
	}{
		{"anonymous", "/api/videos/v1/like", "", http.StatusUnauthorized, models.CodeUnauthorized},
		{"missing video", "/api/videos/nope/like", "bob", http.StatusNotFound, models.CodeNotFound},
		{"missing tweet", "/api/tweets/v1/dislike", "bob", http.StatusNotFound, models.CodeNotFound},
		{"draft of someone else", "/api/videos/v2/like", "bob", http.StatusNotFound, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, s, http.MethodPost, tt.path, tt.viewer)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, decode[models.ErrorResponse](t, body).Code)
		})
	}
}

func TestSubscribeEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)

	status, body := do(t, s, http.MethodPost, "/api/channels/alice/subscribe", "bob")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[models.SubscriptionState](t, body).IsSubscribed)

	status, body = do(t, s, http.MethodPost, "/api/channels/alice/subscribe", "alice")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeInvalidOperation, decode[models.ErrorResponse](t, body).Code)

	status, body = do(t, s, http.MethodGet, "/api/channels/alice", "bob")
	require.Equal(t, http.StatusOK, status)
	channel := decode[models.ChannelView](t, body)
	assert.True(t, channel.IsSubscribed)
	assert.Equal(t, int64(1), channel.SubscribersCount)

	status, body = do(t, s, http.MethodGet, "/api/channels/alice/subscribers", "")
	require.Equal(t, http.StatusOK, status)
	subscribers := decode[[]models.ChannelSummary](t, body)
	require.Len(t, subscribers, 1)
	assert.Equal(t, "bob", subscribers[0].ID)

	status, body = do(t, s, http.MethodGet, "/api/users/bob/subscriptions", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.ChannelSummary](t, body), 1)

	status, body = do(t, s, http.MethodGet, "/api/channels/by-username/alice", "")
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decode[models.ChannelView](t, body).IsSubscribed)
}

func TestGetVideoEndpoint_AnonymousAndInvalidToken(t *testing.T) {
	s, f, _ := newTestServer(t)
	f.React("bob", "v1", models.KindVideo, models.ReactionLike)

	status, body := do(t, s, http.MethodGet, "/api/videos/v1", "")
	require.Equal(t, http.StatusOK, status)
	view := decode[models.VideoView](t, body)
	assert.False(t, view.IsLiked)
	assert.Equal(t, int64(1), view.LikesCount)
	assert.Equal(t, int64(11), view.Views)

	req := httptest.NewRequest(http.MethodGet, "/api/videos/v1", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err := s.App().Test(req, 5000)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, _ = do(t, s, http.MethodGet, "/api/videos/v2", "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = do(t, s, http.MethodGet, "/api/videos/v2", "alice")
	assert.Equal(t, http.StatusOK, status)
}

func TestFeedAndListsEndpoints(t *testing.T) {
	s, _, _ := newTestServer(t)

	status, body := do(t, s, http.MethodGet, "/api/videos?sort=views", "")
	require.Equal(t, http.StatusOK, status)
	feed := decode[[]models.VideoView](t, body)
	require.Len(t, feed, 2)
	assert.Equal(t, "v3", feed[0].ID)

	status, _ = do(t, s, http.MethodGet, "/api/videos?sort=random", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, s, http.MethodGet, "/api/channels/alice/videos", "alice")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.VideoView](t, body), 2)

	status, body = do(t, s, http.MethodGet, "/api/videos/v1/comments", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.CommentView](t, body), 1)

	status, body = do(t, s, http.MethodGet, "/api/channels/alice/tweets", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.TweetView](t, body), 1)

	status, _ = do(t, s, http.MethodGet, "/api/tweets/t1", "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = do(t, s, http.MethodGet, "/api/comments/c1", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestHistoryEndpoints(t *testing.T) {
	s, _, _ := newTestServer(t)

	status, _ := do(t, s, http.MethodGet, "/api/history", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, s, http.MethodPost, "/api/history/v1", "carol")
	require.Equal(t, http.StatusNoContent, status)
	status, _ = do(t, s, http.MethodGet, "/api/videos/v3", "carol")
	require.Equal(t, http.StatusOK, status)
	status, _ = do(t, s, http.MethodPost, "/api/history/v1", "carol")
	require.Equal(t, http.StatusNoContent, status)

	status, body := do(t, s, http.MethodGet, "/api/history", "carol")
	require.Equal(t, http.StatusOK, status)
	entries := decode[[]models.HistoryEntry](t, body)
	require.Len(t, entries, 2)
	assert.Equal(t, "v1", entries[0].ID)
	assert.Equal(t, "v3", entries[1].ID)

	status, _ = do(t, s, http.MethodDelete, "/api/history/v1", "carol")
	assert.Equal(t, http.StatusNoContent, status)

	status, body = do(t, s, http.MethodDelete, "/api/history", "carol")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), decode[map[string]any](t, body)["removed"])
}

func TestStatsAndReactedEndpoints(t *testing.T) {
	s, f, _ := newTestServer(t)
	f.React("bob", "v1", models.KindVideo, models.ReactionLike)
	f.React("carol", "t1", models.KindTweet, models.ReactionLike)

	status, body := do(t, s, http.MethodGet, "/api/channels/alice/stats", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.ChannelStats{TotalViews: 30, TotalLikes: 2, TotalSubscribers: 0, TotalVideos: 2},
		decode[models.ChannelStats](t, body))

	status, _ = do(t, s, http.MethodGet, "/api/channels/ghost/stats", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = do(t, s, http.MethodGet, "/api/me/liked", "bob")
	require.Equal(t, http.StatusOK, status)
	liked := decode[[]models.VideoView](t, body)
	require.Len(t, liked, 1)
	assert.Equal(t, "v1", liked[0].ID)

	status, _ = do(t, s, http.MethodGet, "/api/me/disliked", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestDeleteEndpoint_InvalidatesCachedRef(t *testing.T) {
	s, f, mr := newTestServer(t)

	status, _ := do(t, s, http.MethodPost, "/api/videos/v1/like", "bob")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, mr.Exists(cache.ContentRefKey(models.KindVideo, "v1")))

	status, _ = do(t, s, http.MethodDelete, "/api/videos/v1", "bob")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, s, http.MethodDelete, "/api/videos/v1", "alice")
	require.Equal(t, http.StatusNoContent, status)
	assert.False(t, mr.Exists(cache.ContentRefKey(models.KindVideo, "v1")))
	assert.Zero(t, f.Count(&models.Reaction{}, "target_id = ?", "v1"))

	status, _ = do(t, s, http.MethodGet, "/api/videos/v1", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealthAndMetrics(t *testing.T) {
	s, _, mr := newTestServer(t)

	status, body := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, status)
	health := decode[map[string]any](t, body)
	assert.Equal(t, "healthy", health["status"])

	status, _ = do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, status)

	mr.Close()
	status, body = do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unhealthy", decode[map[string]any](t, body)["checks"].(map[string]any)["redis"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.NewNotFoundError("Video", "v1"), fiber.StatusNotFound},
		{models.NewUnauthorizedError("no"), fiber.StatusUnauthorized},
		{models.NewInvalidOperationError("no"), fiber.StatusBadRequest},
		{models.NewValidationError("no"), fiber.StatusBadRequest},
		{models.NewConflictError("busy", nil), fiber.StatusConflict},
		{models.NewInternalError(io.EOF), fiber.StatusInternalServerError},
		{io.EOF, fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	var got Pagination
	app.Get("/", func(c *fiber.Ctx) error {
		got = parsePagination(c)
		return nil
	})

	tests := []struct {
		query string
		want  Pagination
	}{
		{"", Pagination{Limit: 20}},
		{"?limit=5&offset=10", Pagination{Limit: 5, Offset: 10}},
		{"?limit=1000", Pagination{Limit: 100}},
		{"?limit=-1&offset=-3", Pagination{Limit: 20}},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, tt.want, got, tt.query)
	}
}
