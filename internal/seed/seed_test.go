package seed

import (
	"testing"

	"ripple/internal/database"
	"ripple/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSeedSocialMesh_CreatesUsersAndFollows(t *testing.T) {
	t.Parallel()

	db := newSeedTestDB(t)
	seeder := NewSeeder(db, Options{SkipBcrypt: true})

	users, err := seeder.SeedSocialMesh(8)
	if err != nil {
		t.Fatalf("seed social mesh: %v", err)
	}
	if len(users) != 8 {
		t.Fatalf("expected 8 users, got %d", len(users))
	}

	// The well-known accounts are always present.
	var alice models.User
	if err := db.Where("username = ?", "alice").First(&alice).Error; err != nil {
		t.Fatalf("expected seeded alice account: %v", err)
	}

	var followCount int64
	if err := db.Model(&models.Follow{}).Count(&followCount).Error; err != nil {
		t.Fatalf("count follows: %v", err)
	}
	if followCount == 0 {
		t.Fatal("expected follow edges between seeded users")
	}

	// No self-follows in the mesh.
	var selfFollows int64
	if err := db.Model(&models.Follow{}).
		Where("follower_id = following_id").
		Count(&selfFollows).Error; err != nil {
		t.Fatalf("count self follows: %v", err)
	}
	if selfFollows != 0 {
		t.Fatalf("expected no self-follows, got %d", selfFollows)
	}
}

func TestSeedEngagement_CreatesPostsAndNotifications(t *testing.T) {
	t.Parallel()

	db := newSeedTestDB(t)
	seeder := NewSeeder(db, Options{SkipBcrypt: true, MaxDays: 30, BatchSize: 10})

	users, err := seeder.SeedSocialMesh(6)
	if err != nil {
		t.Fatalf("seed social mesh: %v", err)
	}

	posts, err := seeder.SeedEngagement(users, 20)
	if err != nil {
		t.Fatalf("seed engagement: %v", err)
	}
	if len(posts) != 20 {
		t.Fatalf("expected 20 posts, got %d", len(posts))
	}

	var likeCount, notificationCount int64
	if err := db.Model(&models.Like{}).Count(&likeCount).Error; err != nil {
		t.Fatalf("count likes: %v", err)
	}
	if err := db.Model(&models.Notification{}).Count(&notificationCount).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}

	// Every like and comment produced a notification for the post author.
	var commentCount int64
	if err := db.Model(&models.Comment{}).Count(&commentCount).Error; err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if notificationCount != likeCount+commentCount {
		t.Fatalf("expected %d notifications, got %d", likeCount+commentCount, notificationCount)
	}

	// Nobody gets notified about their own posts.
	var selfNotifications int64
	if err := db.Model(&models.Notification{}).
		Where("recipient_id = actor_id").
		Count(&selfNotifications).Error; err != nil {
		t.Fatalf("count self notifications: %v", err)
	}
	if selfNotifications != 0 {
		t.Fatalf("expected no self-notifications, got %d", selfNotifications)
	}
}

func TestSeedConversations_PairsAreUnique(t *testing.T) {
	t.Parallel()

	db := newSeedTestDB(t)
	seeder := NewSeeder(db, Options{SkipBcrypt: true})

	users, err := seeder.SeedSocialMesh(5)
	if err != nil {
		t.Fatalf("seed social mesh: %v", err)
	}

	if err := seeder.SeedConversations(users, 4); err != nil {
		t.Fatalf("seed conversations: %v", err)
	}

	var conversations []models.Conversation
	if err := db.Find(&conversations).Error; err != nil {
		t.Fatalf("load conversations: %v", err)
	}
	seen := make(map[string]bool)
	for _, c := range conversations {
		if seen[c.PairKey] {
			t.Fatalf("duplicate conversation for pair %s", c.PairKey)
		}
		seen[c.PairKey] = true

		var participants int64
		if err := db.Table("conversation_participants").
			Where("conversation_id = ?", c.ID).
			Count(&participants).Error; err != nil {
			t.Fatalf("count participants: %v", err)
		}
		if participants != 2 {
			t.Fatalf("expected 2 participants for conversation %d, got %d", c.ID, participants)
		}

		var messages int64
		if err := db.Model(&models.Message{}).
			Where("conversation_id = ?", c.ID).
			Count(&messages).Error; err != nil {
			t.Fatalf("count messages: %v", err)
		}
		if messages < 2 {
			t.Fatalf("expected message history for conversation %d, got %d", c.ID, messages)
		}
	}
}
