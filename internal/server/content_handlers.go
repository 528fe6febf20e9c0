package server

import (
	"videotube/internal/middleware"
	"videotube/internal/models"
	"videotube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetVideo handles GET /api/videos/:id. Each call counts as one view.
func (s *Server) GetVideo(c *fiber.Ctx) error {
	view, err := s.projections.GetVideo(c.UserContext(), c.Params("id"), middleware.ViewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

func (s *Server) GetComment(c *fiber.Ctx) error {
	view, err := s.projections.GetComment(c.UserContext(), c.Params("id"), middleware.ViewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

func (s *Server) GetTweet(c *fiber.Ctx) error {
	view, err := s.projections.GetTweet(c.UserContext(), c.Params("id"), middleware.ViewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// ListFeed handles GET /api/videos?sort=&owner=&include_unpublished=&limit=&offset=.
func (s *Server) ListFeed(c *fiber.Ctx) error {
	page := parsePagination(c)
	views, err := s.projections.ListFeed(c.UserContext(), service.FeedQuery{
		OwnerID:            c.Query("owner"),
		IncludeUnpublished: c.QueryBool("include_unpublished", false),
		Sort:               c.Query("sort"),
		Limit:              page.Limit,
		Offset:             page.Offset,
	}, middleware.ViewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(views)
}

// listComments handles GET /api/{videos,tweets}/:id/comments.
func (s *Server) listComments(parentKind models.ContentKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := parsePagination(c)
		views, err := s.projections.ListComments(c.UserContext(), parentKind, c.Params("id"), middleware.ViewerID(c), page.Limit, page.Offset)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(views)
	}
}

// deleteContent handles DELETE /api/{kind}s/:id.
func (s *Server) deleteContent(kind models.ContentKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.content.DeleteContent(c.UserContext(), middleware.ViewerID(c), kind, c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// listReactedVideos handles GET /api/me/{liked,disliked}.
func (s *Server) listReactedVideos(reaction models.ReactionKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := parsePagination(c)
		views, err := s.projections.ListReactedVideos(c.UserContext(), middleware.ViewerID(c), reaction, page.Limit, page.Offset)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(views)
	}
}
