package service

import (
	"context"
	"encoding/json"

	"ripple/internal/models"
	"ripple/internal/repository"
	"ripple/internal/validation"

	"gorm.io/gorm"
)

// ChatService manages two-party conversations and messages.
type ChatService struct {
	db     *gorm.DB
	chats  repository.ChatRepository
	users  repository.UserRepository
	events Publisher
}

type SendMessageInput struct {
	ConversationID uint
	SenderID       uint
	Content        string
}

func NewChatService(
	db *gorm.DB,
	chats repository.ChatRepository,
	users repository.UserRepository,
	events Publisher,
) *ChatService {
	return &ChatService{
		db:     db,
		chats:  chats,
		users:  users,
		events: events,
	}
}

// GetOrCreateConversation returns the single conversation between the two
// users, creating it on first contact. The pair_key unique index serializes
// concurrent creates; both callers converge on the same conversation.
func (s *ChatService) GetOrCreateConversation(ctx context.Context, requesterID, otherID uint) (*models.Conversation, error) {
	if requesterID == otherID {
		return nil, models.NewInvalidOperationError("You cannot start a conversation with yourself")
	}
	if _, err := s.users.GetByID(ctx, otherID); err != nil {
		return nil, err
	}

	pairKey := models.PairKeyFor(requesterID, otherID)
	conversation, err := s.chats.GetConversationByPairKey(ctx, pairKey)
	if err == nil {
		return conversation, nil
	}
	if !models.IsNotFound(err) {
		return nil, err
	}

	return s.chats.CreateConversation(ctx, requesterID, otherID)
}

// SendMessage appends a message from a participant and bumps the
// conversation's updated_at in the same transaction. The other participant
// gets a best-effort real-time event after the write.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	conversation, err := s.chats.GetConversationByID(ctx, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if err := s.requireParticipant(ctx, in.ConversationID, in.SenderID); err != nil {
		return nil, err
	}
	if err := validation.ValidateContent("message", in.Content, models.MaxMessageContentLength); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	message := &models.Message{
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		Content:        in.Content,
	}

	send := func(chats repository.ChatRepository) error {
		if err := chats.CreateMessage(ctx, message); err != nil {
			return err
		}
		return chats.TouchConversation(ctx, in.ConversationID)
	}

	if s.db != nil {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return send(s.chats.WithTx(tx))
		})
	} else {
		err = send(s.chats)
	}
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		if payload, marshalErr := json.Marshal(message); marshalErr == nil {
			for _, participant := range conversation.Participants {
				if participant.ID == in.SenderID {
					continue
				}
				s.events.NotifyUser(ctx, participant.ID, "chat:message", json.RawMessage(payload))
			}
		}
	}

	return message, nil
}

// MarkConversationRead marks every message the reader did not send as read.
// Returns how many messages changed.
func (s *ChatService) MarkConversationRead(ctx context.Context, conversationID, readerID uint) (int64, error) {
	if _, err := s.chats.GetConversationByID(ctx, conversationID); err != nil {
		return 0, err
	}
	if err := s.requireParticipant(ctx, conversationID, readerID); err != nil {
		return 0, err
	}
	return s.chats.MarkMessagesRead(ctx, conversationID, readerID)
}

// UnreadCount counts unread messages in the conversation not sent by userID.
func (s *ChatService) UnreadCount(ctx context.Context, conversationID, userID uint) (int64, error) {
	if _, err := s.chats.GetConversationByID(ctx, conversationID); err != nil {
		return 0, err
	}
	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return 0, err
	}
	return s.chats.CountUnread(ctx, conversationID, userID)
}

// ListConversations returns the user's conversations, most recently active
// first, each annotated with its last message and unread count.
func (s *ChatService) ListConversations(ctx context.Context, userID uint) ([]*models.Conversation, error) {
	conversations, err := s.chats.GetConversationsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, conversation := range conversations {
		last, err := s.chats.GetLastMessage(ctx, conversation.ID)
		if err != nil {
			return nil, err
		}
		conversation.LastMessage = last

		unread, err := s.chats.CountUnread(ctx, conversation.ID, userID)
		if err != nil {
			return nil, err
		}
		conversation.UnreadCount = int(unread)
	}

	return conversations, nil
}

// GetMessages returns the conversation history in chronological order.
func (s *ChatService) GetMessages(ctx context.Context, conversationID, userID uint, limit, offset int) ([]*models.Message, error) {
	if _, err := s.chats.GetConversationByID(ctx, conversationID); err != nil {
		return nil, err
	}
	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.chats.GetMessages(ctx, conversationID, limit, offset)
}

func (s *ChatService) requireParticipant(ctx context.Context, conversationID, userID uint) error {
	ok, err := s.chats.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewPermissionDeniedError("You are not a participant in this conversation")
	}
	return nil
}
