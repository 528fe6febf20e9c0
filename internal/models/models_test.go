package models

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"uuid", NewID(), false},
		{"short token", "u1", false},
		{"empty", "", true},
		{"leading space", " u1", true},
		{"too long", strings.Repeat("a", 65), true},
		{"max length", strings.Repeat("a", 64), false},
		{"non printable", "u\x001", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID("video id", tt.id)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsInvalidOperation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseContentKind(t *testing.T) {
	k, ok := ParseContentKind("videos")
	assert.True(t, ok)
	assert.Equal(t, KindVideo, k)

	k, ok = ParseContentKind("comment")
	assert.True(t, ok)
	assert.Equal(t, KindComment, k)

	_, ok = ParseContentKind("playlist")
	assert.False(t, ok)
	assert.False(t, ContentKind("playlist").Valid())
}

func TestReactionKindOpposite(t *testing.T) {
	assert.Equal(t, ReactionDislike, ReactionLike.Opposite())
	assert.Equal(t, ReactionLike, ReactionDislike.Opposite())
	assert.False(t, ReactionKind("love").Valid())
}

func TestErrorCodeFollowsWrapping(t *testing.T) {
	err := fmt.Errorf("toggle: %w", NewConflictError("busy", errors.New("locked")))
	assert.True(t, IsConflict(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
	assert.Contains(t, err.Error(), "locked")
}

func TestRespondWithErrorHidesInternalDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/internal", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, NewInternalError(errors.New("pq: password leaked")))
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusNotFound, NewNotFoundError("Video", "v1"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/internal", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.Contains(t, string(body), CodeInternal)

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
