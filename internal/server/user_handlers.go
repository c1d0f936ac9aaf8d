package server

import (
	"ripple/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetProfile(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Bio    *string `json:"bio"`
		Avatar *string `json:"avatar"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondServiceError(c, errInvalidBody())
	}

	user, err := s.userService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID: currentUserID(c),
		Bio:    req.Bio,
		Avatar: req.Avatar,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:id. Other users get the public
// projection without email.
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetProfile(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	if userID == currentUserID(c) {
		return c.JSON(user)
	}
	return c.JSON(user.Public())
}

// SearchUsers handles GET /api/users/search?q=...
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	users, err := s.userService.SearchUsers(c.Context(), c.Query("q"), currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	results := make([]interface{}, 0, len(users))
	for i := range users {
		results = append(results, users[i].Public())
	}
	return c.JSON(fiber.Map{"users": results})
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	p := parsePagination(c, 20)
	posts, err := s.postService.ListPostsByUser(c.Context(), userID, p.Limit, p.Offset, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}
