package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"ripple/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	SkipBcrypt  bool
	DryRun      bool
	MaxDays     int
	BatchSize   int
}

// Seeder populates the database with a connected mesh of users, posts and
// conversations so the app looks lived-in during development.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// ClearAll removes all seeded data. Postgres only.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	sql := `TRUNCATE TABLE notifications, comments, likes, follows, posts,
		conversation_participants, messages, conversations, users
		RESTART IDENTITY CASCADE;`
	return s.db.Exec(sql).Error
}

// SeedSocialMesh creates numUsers users and a follow graph between them.
// Each user follows a random subset of the others so feeds have content.
func (s *Seeder) SeedSocialMesh(numUsers int) ([]*models.User, error) {
	log.Printf("🌱 Seeding %d users...", numUsers)

	users := make([]*models.User, 0, numUsers)

	// Always include a few well-known accounts for manual testing.
	for _, name := range []string{"alice", "bob", "test"} {
		user, err := s.factory.CreateUser(func(u *models.User) {
			u.Username = name
			u.Email = fmt.Sprintf("%s@example.com", name)
			u.Bio = "One of the OGs."
			u.Avatar = fmt.Sprintf("https://i.pravatar.cc/150?u=%s", name)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", name, err)
		}
		users = append(users, user)
	}

	for i := len(users); i < numUsers; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, user)

		if i%100 == 0 && i > 0 {
			log.Printf("Created %d users...", i)
		}
	}

	// #nosec G404: acceptable for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	followEdges := 0
	for _, follower := range users {
		// Each user follows roughly a third of the mesh.
		for _, following := range users {
			if follower.ID == following.ID || r.Float32() > 0.3 {
				continue
			}
			if err := s.factory.CreateFollow(follower, following); err != nil {
				return nil, fmt.Errorf("failed to create follow edge: %w", err)
			}
			followEdges++
		}
	}

	log.Printf("✓ %d users and %d follow edges created", len(users), followEdges)
	return users, nil
}

// SeedEngagement creates numPosts posts across the given users, then layers
// likes, comments and the matching notifications on top of them.
func (s *Seeder) SeedEngagement(users []*models.User, numPosts int) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("no users to seed posts for")
	}
	log.Printf("🌱 Seeding %d posts...", numPosts)

	// #nosec G404: acceptable for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	batchSize := s.opts.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	posts := make([]*models.Post, 0, numPosts)
	for len(posts) < numPosts {
		n := numPosts - len(posts)
		if n > batchSize {
			n = batchSize
		}
		batch := make([]*models.Post, 0, n)
		for i := 0; i < n; i++ {
			author := users[r.Intn(len(users))]
			batch = append(batch, s.factory.BuildPost(author))
		}
		if err := s.factory.CreatePostsBatch(batch); err != nil {
			return nil, fmt.Errorf("failed to create posts: %w", err)
		}
		posts = append(posts, batch...)
	}
	log.Printf("✓ %d posts created", len(posts))

	if s.opts.DryRun {
		return posts, nil
	}

	likes, comments := 0, 0
	for _, post := range posts {
		for _, user := range users {
			if user.ID == post.UserID {
				continue
			}
			if r.Float32() < 0.2 {
				if err := s.factory.CreateLike(user, post); err != nil {
					return nil, fmt.Errorf("failed to create like: %w", err)
				}
				postID := post.ID
				if _, err := s.factory.CreateNotification(&models.User{ID: post.UserID}, user,
					models.NotificationLike, func(n *models.Notification) {
						n.PostID = &postID
						n.IsRead = r.Float32() < 0.5
					}); err != nil {
					return nil, fmt.Errorf("failed to create like notification: %w", err)
				}
				likes++
			}
			if r.Float32() < 0.08 {
				comment, err := s.factory.CreateComment(user, post)
				if err != nil {
					return nil, fmt.Errorf("failed to create comment: %w", err)
				}
				postID, commentID := post.ID, comment.ID
				if _, err := s.factory.CreateNotification(&models.User{ID: post.UserID}, user,
					models.NotificationComment, func(n *models.Notification) {
						n.PostID = &postID
						n.CommentID = &commentID
						n.IsRead = r.Float32() < 0.5
					}); err != nil {
					return nil, fmt.Errorf("failed to create comment notification: %w", err)
				}
				comments++
			}
		}
	}
	log.Printf("✓ %d likes and %d comments created", likes, comments)

	return posts, nil
}

// SeedConversations creates conversations between random user pairs with a
// short message history each. The most recent messages from the other party
// are left unread.
func (s *Seeder) SeedConversations(users []*models.User, numConversations int) error {
	if len(users) < 2 {
		return fmt.Errorf("need at least 2 users to seed conversations")
	}
	log.Printf("🌱 Seeding %d conversations...", numConversations)

	// #nosec G404: acceptable for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	created := 0
	for created < numConversations {
		a := users[r.Intn(len(users))]
		b := users[r.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}

		conversation, err := s.factory.CreateConversation(a, b)
		if err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}

		numMessages := r.Intn(10) + 2
		for i := 0; i < numMessages; i++ {
			sender := a
			if r.Float32() < 0.5 {
				sender = b
			}
			// Older messages are read; the tail stays unread.
			read := i < numMessages-2
			if _, err := s.factory.CreateMessage(conversation, sender, func(m *models.Message) {
				m.IsRead = read
			}); err != nil {
				return fmt.Errorf("failed to create message: %w", err)
			}
		}
		created++
	}

	log.Printf("✓ %d conversations created", created)
	return nil
}
