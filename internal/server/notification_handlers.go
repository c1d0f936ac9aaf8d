package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications, newest first.
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	notifications, err := s.notificationService.ListForUser(c.Context(), currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"notifications": notifications})
}

// MarkNotificationRead handles POST /api/notifications/:id/read. A
// notification belonging to another user reads as not found.
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	notificationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.notificationService.MarkRead(c.Context(), currentUserID(c), notificationID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	updated, err := s.notificationService.MarkAllRead(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}

// GetUnreadNotificationCount handles GET /api/notifications/unread-count
func (s *Server) GetUnreadNotificationCount(c *fiber.Ctx) error {
	count, err := s.notificationService.UnreadCount(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}
