package server

import (
	"videotube/internal/middleware"
	"videotube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// toggleReaction handles POST /api/{kind}s/:id/{like,dislike}.
func (s *Server) toggleReaction(kind models.ContentKind, reaction models.ReactionKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		state, err := s.engagement.ToggleReaction(c.UserContext(), middleware.ViewerID(c), c.Params("id"), kind, reaction)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(state)
	}
}

// ToggleSubscription handles POST /api/channels/:id/subscribe.
func (s *Server) ToggleSubscription(c *fiber.Ctx) error {
	state, err := s.engagement.ToggleSubscription(c.UserContext(), middleware.ViewerID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}
