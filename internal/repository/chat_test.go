package repository

import (
	"context"
	"testing"
	"time"

	"ripple/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestMessage(t *testing.T, db *gorm.DB, conversationID, senderID uint, content string) *models.Message {
	t.Helper()

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	}
	require.NoError(t, NewChatRepository(db).CreateMessage(context.Background(), message))
	return message
}

func TestChatRepository_CreateConversation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	repo := NewChatRepository(db)
	ctx := context.Background()

	conversation, err := repo.CreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PairKeyFor(alice.ID, bob.ID), conversation.PairKey)
	require.Len(t, conversation.Participants, 2)

	for _, userID := range []uint{alice.ID, bob.ID} {
		ok, err := repo.IsParticipant(ctx, conversation.ID, userID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestChatRepository_CreateConversation_PairDedup(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	repo := NewChatRepository(db)
	ctx := context.Background()

	first, err := repo.CreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	// Same pair in either order converges on the same conversation.
	second, err := repo.CreateConversation(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.Conversation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestChatRepository_GetConversationByPairKey_NotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewChatRepository(db)

	_, err := repo.GetConversationByPairKey(context.Background(), "1:2")
	assertNotFound(t, err)
}

func TestChatRepository_GetConversationsForUser_OrderedByActivity(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	repo := NewChatRepository(db)
	ctx := context.Background()

	withBob, err := repo.CreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	withCarol, err := repo.CreateConversation(ctx, alice.ID, carol.ID)
	require.NoError(t, err)

	// Backdate both, then touch the bob conversation so it sorts first.
	stale := time.Now().Add(-time.Hour)
	for _, id := range []uint{withBob.ID, withCarol.ID} {
		err := db.Model(&models.Conversation{}).Where("id = ?", id).Update("updated_at", stale).Error
		require.NoError(t, err)
	}
	require.NoError(t, repo.TouchConversation(ctx, withBob.ID))

	conversations, err := repo.GetConversationsForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	assert.Equal(t, withBob.ID, conversations[0].ID)
	assert.Equal(t, withCarol.ID, conversations[1].ID)

	// bob only sees his own conversation.
	conversations, err = repo.GetConversationsForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, withBob.ID, conversations[0].ID)
}

func TestChatRepository_MessagesChronological(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	repo := NewChatRepository(db)
	ctx := context.Background()

	conversation, err := repo.CreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	first := createTestMessage(t, db, conversation.ID, alice.ID, "hi")
	err = db.Model(first).Update("created_at", time.Now().Add(-time.Hour)).Error
	require.NoError(t, err)
	second := createTestMessage(t, db, conversation.ID, bob.ID, "hey")

	messages, err := repo.GetMessages(ctx, conversation.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, first.ID, messages[0].ID)
	assert.Equal(t, second.ID, messages[1].ID)
	assert.Equal(t, "alice", messages[0].Sender.Username)

	last, err := repo.GetLastMessage(ctx, conversation.ID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, second.ID, last.ID)
}

func TestChatRepository_GetLastMessage_Empty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	repo := NewChatRepository(db)
	ctx := context.Background()

	conversation, err := repo.CreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	last, err := repo.GetLastMessage(ctx, conversation.ID)
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestChatRepository_MarkMessagesRead_ExcludesSender(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	repo := NewChatRepository(db)
	ctx := context.Background()

	conversation, err := repo.CreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	createTestMessage(t, db, conversation.ID, alice.ID, "one")
	createTestMessage(t, db, conversation.ID, alice.ID, "two")
	createTestMessage(t, db, conversation.ID, bob.ID, "reply")

	// bob has two unread from alice; alice has one unread from bob.
	unread, err := repo.CountUnread(ctx, conversation.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	unread, err = repo.CountUnread(ctx, conversation.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	changed, err := repo.MarkMessagesRead(ctx, conversation.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	unread, err = repo.CountUnread(ctx, conversation.ID, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	// bob's own message is still unread for alice.
	unread, err = repo.CountUnread(ctx, conversation.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	changed, err = repo.MarkMessagesRead(ctx, conversation.ID, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, changed)
}
