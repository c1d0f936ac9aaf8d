package repository

import (
	"context"
	"errors"
	"time"

	"ripple/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository defines the interface for conversation and message data operations
type ChatRepository interface {
	WithTx(tx *gorm.DB) ChatRepository
	GetConversationByPairKey(ctx context.Context, pairKey string) (*models.Conversation, error)
	CreateConversation(ctx context.Context, userA, userB uint) (*models.Conversation, error)
	GetConversationByID(ctx context.Context, id uint) (*models.Conversation, error)
	GetConversationsForUser(ctx context.Context, userID uint) ([]*models.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID uint) (bool, error)
	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessages(ctx context.Context, conversationID uint, limit, offset int) ([]*models.Message, error)
	GetLastMessage(ctx context.Context, conversationID uint) (*models.Message, error)
	MarkMessagesRead(ctx context.Context, conversationID, readerID uint) (int64, error)
	CountUnread(ctx context.Context, conversationID, userID uint) (int64, error)
	TouchConversation(ctx context.Context, conversationID uint) error
}

// chatRepository implements ChatRepository
type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) WithTx(tx *gorm.DB) ChatRepository {
	return &chatRepository{db: tx}
}

func (r *chatRepository) GetConversationByPairKey(ctx context.Context, pairKey string) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("pair_key = ?", pairKey).
		First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Conversation", pairKey)
		}
		return nil, models.NewInternalError(err)
	}
	return &conversation, nil
}

// CreateConversation creates the conversation and both participant rows in
// one transaction. A concurrent create for the same pair hits the pair_key
// unique index; the loser re-reads the winner so both callers converge on
// one conversation.
func (r *chatRepository) CreateConversation(ctx context.Context, userA, userB uint) (*models.Conversation, error) {
	pairKey := models.PairKeyFor(userA, userB)

	conversation := models.Conversation{PairKey: pairKey}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&conversation)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Lost the race; the caller re-reads by pair key below.
			return gorm.ErrDuplicatedKey
		}
		var users []models.User
		if err := tx.Find(&users, []uint{userA, userB}).Error; err != nil {
			return err
		}
		return tx.Model(&conversation).Association("Participants").Append(&users)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.GetConversationByPairKey(ctx, pairKey)
		}
		return nil, models.NewInternalError(err)
	}

	return r.GetConversationByPairKey(ctx, pairKey)
}

func (r *chatRepository) GetConversationByID(ctx context.Context, id uint) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.WithContext(ctx).
		Preload("Participants").
		First(&conversation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Conversation", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &conversation, nil
}

func (r *chatRepository) GetConversationsForUser(ctx context.Context, userID uint) ([]*models.Conversation, error) {
	var conversations []*models.Conversation
	if err := r.db.WithContext(ctx).
		Preload("Participants").
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Order("conversations.updated_at DESC").
		Find(&conversations).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return conversations, nil
}

func (r *chatRepository) IsParticipant(ctx context.Context, conversationID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Table("conversation_participants").
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *chatRepository) GetMessages(ctx context.Context, conversationID uint, limit, offset int) ([]*models.Message, error) {
	var messages []*models.Message
	if err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

func (r *chatRepository) GetLastMessage(ctx context.Context, conversationID uint) (*models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		First(&message).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &message, nil
}

// MarkMessagesRead flips is_read on unread messages the reader did not send.
// Reports how many rows changed.
func (r *chatRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *chatRepository) CountUnread(ctx context.Context, conversationID, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND is_read = ?", conversationID, userID, false).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *chatRepository) TouchConversation(ctx context.Context, conversationID uint) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("updated_at", time.Now()).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
