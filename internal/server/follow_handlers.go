package server

import (
	"github.com/gofiber/fiber/v2"
)

// ToggleFollow handles POST /api/users/:id/follow. Following an already
// followed user unfollows them; the response reports the resulting state.
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	state, err := s.followService.ToggleFollow(c.Context(), currentUserID(c), targetID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"state": state})
}

// GetFollowers handles GET /api/users/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	followers, err := s.followService.ListFollowers(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	results := make([]interface{}, 0, len(followers))
	for i := range followers {
		results = append(results, followers[i].Public())
	}
	return c.JSON(fiber.Map{"followers": results})
}

// GetFollowing handles GET /api/users/:id/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	following, err := s.followService.ListFollowing(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	results := make([]interface{}, 0, len(following))
	for i := range following {
		results = append(results, following[i].Public())
	}
	return c.JSON(fiber.Map{"following": results})
}
