package server

import (
	"videotube/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) GetChannel(c *fiber.Ctx) error {
	view, err := s.projections.GetChannelProfile(c.UserContext(), c.Params("id"), middleware.ViewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

func (s *Server) GetChannelByUsername(c *fiber.Ctx) error {
	view, err := s.projections.GetChannelProfileByUsername(c.UserContext(), c.Params("username"), middleware.ViewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// GetChannelStats handles GET /api/channels/:id/stats.
func (s *Server) GetChannelStats(c *fiber.Ctx) error {
	stats, err := s.channels.GetChannelStats(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// ListChannelVideos includes drafts when the viewer owns the channel.
func (s *Server) ListChannelVideos(c *fiber.Ctx) error {
	page := parsePagination(c)
	views, err := s.channels.ListChannelVideos(c.UserContext(), c.Params("id"), middleware.ViewerID(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(views)
}

func (s *Server) ListChannelTweets(c *fiber.Ctx) error {
	page := parsePagination(c)
	views, err := s.projections.ListTweets(c.UserContext(), c.Params("id"), middleware.ViewerID(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(views)
}

func (s *Server) ListSubscribers(c *fiber.Ctx) error {
	page := parsePagination(c)
	subscribers, err := s.channels.ListSubscribers(c.UserContext(), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(subscribers)
}

// ListSubscribedChannels handles GET /api/users/:id/subscriptions.
func (s *Server) ListSubscribedChannels(c *fiber.Ctx) error {
	page := parsePagination(c)
	channels, err := s.channels.ListSubscribedChannels(c.UserContext(), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(channels)
}
