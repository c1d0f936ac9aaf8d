package server

import (
	"ripple/internal/repository"
	"ripple/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Content  string `json:"content"`
		Image    string `json:"image"`
		Video    string `json:"video"`
		Location string `json:"location"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondServiceError(c, errInvalidBody())
	}

	post, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		UserID:   currentUserID(c),
		Content:  req.Content,
		Image:    req.Image,
		Video:    req.Video,
		Location: req.Location,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts handles GET /api/posts with optional author/content/location filters.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	filters := repository.PostFilters{
		Author:   c.Query("author"),
		Content:  c.Query("content"),
		Location: c.Query("location"),
	}

	posts, err := s.postService.ListPosts(c.Context(), filters, p.Limit, p.Offset, s.optionalUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.Context(), postID, s.optionalUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content  string `json:"content"`
		Location string `json:"location"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondServiceError(c, errInvalidBody())
	}

	post, err := s.postService.UpdatePost(c.Context(), service.UpdatePostInput{
		UserID:   currentUserID(c),
		PostID:   postID,
		Content:  req.Content,
		Location: req.Location,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.Context(), currentUserID(c), postID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// ToggleLike handles POST /api/posts/:id/like. Liking an already liked post
// unlikes it; the response reports the resulting state.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	state, err := s.postService.ToggleLike(c.Context(), currentUserID(c), postID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"state": state})
}

// GetFeed handles GET /api/posts/feed. The feed contains posts from followed
// users only, newest first.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	posts, err := s.postService.GetFeed(c.Context(), currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}
