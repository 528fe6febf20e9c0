package server

import (
	"videotube/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// RecordWatch handles POST /api/history/:videoId.
func (s *Server) RecordWatch(c *fiber.Ctx) error {
	if err := s.history.RecordWatch(c.UserContext(), middleware.ViewerID(c), c.Params("videoId")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) ListHistory(c *fiber.Ctx) error {
	page := parsePagination(c)
	entries, err := s.history.ListHistory(c.UserContext(), middleware.ViewerID(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

func (s *Server) RemoveFromHistory(c *fiber.Ctx) error {
	if err := s.history.RemoveFromHistory(c.UserContext(), middleware.ViewerID(c), c.Params("videoId")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ClearHistory handles DELETE /api/history.
func (s *Server) ClearHistory(c *fiber.Ctx) error {
	removed, err := s.history.ClearHistory(c.UserContext(), middleware.ViewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"removed": removed})
}
