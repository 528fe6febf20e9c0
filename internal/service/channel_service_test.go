package service

import (
	"context"
	"testing"

	"videotube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetChannelStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// alice owns three videos worth 10+20+30 views and collects five likes
	h.f.Video("v4", "alice", 30)
	h.f.React("bob", "v1", models.KindVideo, models.ReactionLike)
	h.f.React("carol", "v1", models.KindVideo, models.ReactionLike)
	h.f.React("bob", "v2", models.KindVideo, models.ReactionLike)
	h.f.React("bob", "t1", models.KindTweet, models.ReactionLike)
	h.f.Comment("c2", "alice", "v3", models.KindVideo)
	h.f.React("bob", "c2", models.KindComment, models.ReactionLike)
	h.f.React("carol", "v4", models.KindVideo, models.ReactionDislike)
	h.f.React("alice", "v3", models.KindVideo, models.ReactionLike)
	h.f.Subscribe("bob", "alice")
	h.f.Subscribe("carol", "alice")
	h.f.Subscribe("alice", "bob")

	stats, err := h.channels.GetChannelStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.ChannelStats{TotalViews: 60, TotalLikes: 5, TotalSubscribers: 2, TotalVideos: 3}, *stats)
}

func TestGetChannelStats_EmptyAndMissing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	stats, err := h.channels.GetChannelStats(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, models.ChannelStats{}, *stats)

	_, err = h.channels.GetChannelStats(ctx, "ghost")
	assert.True(t, models.IsNotFound(err))
}

func TestListChannelVideos(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	videos, err := h.channels.ListChannelVideos(ctx, "alice", "alice", 0, 0)
	require.NoError(t, err)
	assert.Len(t, videos, 2)

	videos, err = h.channels.ListChannelVideos(ctx, "alice", "bob", 0, 0)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "v1", videos[0].ID)

	_, err = h.channels.ListChannelVideos(ctx, "ghost", "", 0, 0)
	assert.True(t, models.IsNotFound(err))
}

func TestListSubscribersAndSubscriptions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.f.Subscribe("bob", "alice")
	h.f.Subscribe("carol", "alice")
	h.f.Subscribe("carol", "bob")

	subscribers, err := h.channels.ListSubscribers(ctx, "alice", 0, 0)
	require.NoError(t, err)
	require.Len(t, subscribers, 2)
	assert.Equal(t, "carol", subscribers[0].ID)
	assert.Equal(t, "bob", subscribers[1].ID)

	channels, err := h.channels.ListSubscribedChannels(ctx, "carol", 0, 0)
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, "bob", channels[0].ID)

	none, err := h.channels.ListSubscribers(ctx, "carol", 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = h.channels.ListSubscribedChannels(ctx, "ghost", 0, 0)
	assert.True(t, models.IsNotFound(err))
}
