package server

import (
	"ripple/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateConversation handles POST /api/conversations. The conversation with
// the other user is created on first contact and returned as-is afterwards.
func (s *Server) CreateConversation(c *fiber.Ctx) error {
	var req struct {
		UserID uint `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondServiceError(c, errInvalidBody())
	}

	conversation, err := s.chatService.GetOrCreateConversation(c.Context(), currentUserID(c), req.UserID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(conversation)
}

// GetConversations handles GET /api/conversations, most recently active first.
func (s *Server) GetConversations(c *fiber.Ctx) error {
	conversations, err := s.chatService.ListConversations(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"conversations": conversations})
}

// GetMessages handles GET /api/conversations/:id/messages, oldest first.
func (s *Server) GetMessages(c *fiber.Ctx) error {
	conversationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	p := parsePagination(c, 50)
	messages, err := s.chatService.GetMessages(c.Context(), conversationID, currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// SendMessage handles POST /api/conversations/:id/messages
func (s *Server) SendMessage(c *fiber.Ctx) error {
	conversationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondServiceError(c, errInvalidBody())
	}

	message, err := s.chatService.SendMessage(c.Context(), service.SendMessageInput{
		ConversationID: conversationID,
		SenderID:       currentUserID(c),
		Content:        req.Content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// MarkConversationRead handles POST /api/conversations/:id/read
func (s *Server) MarkConversationRead(c *fiber.Ctx) error {
	conversationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	updated, err := s.chatService.MarkConversationRead(c.Context(), conversationID, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}

// GetConversationUnreadCount handles GET /api/conversations/:id/unread-count
func (s *Server) GetConversationUnreadCount(c *fiber.Ctx) error {
	conversationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	count, err := s.chatService.UnreadCount(c.Context(), conversationID, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}
