// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"time"

	"newsdesk/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Seeded reader identities start here so they never collide with real
// identities handed out by the provider in development.
const baseUserID = 1000

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumArticles int
	MaxBlocks   int
	MaxComments int
	// MaxDays spreads published_at over the past N days
	MaxDays     int
	ShouldClean bool
	// RandSeed makes output reproducible; 0 picks a time-based seed
	RandSeed int64
}

// Summary counts what a run inserted.
type Summary struct {
	Users     int
	Articles  int
	Blocks    int
	Comments  int
	Reactions int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d articles, %d blocks, %d comments, %d reactions",
		s.Users, s.Articles, s.Blocks, s.Comments, s.Reactions)
}

// Seeder populates the database with demo content.
type Seeder struct {
	db   *gorm.DB
	opts Options
	now  func() time.Time
}

// NewSeeder creates a seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 30
	}
	if opts.MaxBlocks <= 0 {
		opts.MaxBlocks = 4
	}
	if opts.RandSeed == 0 {
		opts.RandSeed = time.Now().UnixNano()
	}
	return &Seeder{db: db, opts: opts, now: time.Now}
}

// ClearAll removes all content and mirrored users.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	if s.db.Dialector.Name() == "postgres" {
		return s.db.Exec(`TRUNCATE TABLE reactions, comments, blocks, articles, users RESTART IDENTITY CASCADE`).Error
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"reactions", "comments", "blocks", "articles", "users"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Run generates users, articles with blocks, threaded comments and reactions.
func (s *Seeder) Run() (Summary, error) {
	var sum Summary
	log.Printf("🌱 Seeding %d users and %d articles...", s.opts.NumUsers, s.opts.NumArticles)

	if s.opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return sum, fmt.Errorf("clear data: %w", err)
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		f := NewFactory(tx, s.opts)

		users := make([]*models.User, 0, s.opts.NumUsers)
		for i := 1; i <= s.opts.NumUsers; i++ {
			u, err := f.EnsureUser(uint(baseUserID+i), "", false)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			users = append(users, u)
		}
		sum.Users = len(users)

		for i := 0; i < s.opts.NumArticles; i++ {
			article := f.BuildArticle(s.now())
			if err := f.CreateArticle(article); err != nil {
				return fmt.Errorf("create article: %w", err)
			}
			sum.Articles++

			blocks, err := f.CreateBlocks(article.ID, 1+f.fake.Number(0, s.opts.MaxBlocks-1))
			if err != nil {
				return fmt.Errorf("create blocks: %w", err)
			}
			sum.Blocks += len(blocks)

			if len(users) == 0 {
				continue
			}
			comments, err := f.CreateThread(article, users, f.fake.Number(0, s.opts.MaxComments))
			if err != nil {
				return fmt.Errorf("create comments: %w", err)
			}
			sum.Comments += len(comments)

			n, err := f.ReactRandomly(users, models.ArticleTarget(article.ID))
			if err != nil {
				return fmt.Errorf("react to article: %w", err)
			}
			sum.Reactions += n
			for _, c := range comments {
				n, err := f.ReactRandomly(users, models.CommentTarget(c.ID))
				if err != nil {
					return fmt.Errorf("react to comment: %w", err)
				}
				sum.Reactions += n
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	log.Printf("🎉 Seeding completed: %s", sum)
	return sum, nil
}

func newFaker(seed int64) *gofakeit.Faker {
	return gofakeit.New(seed)
}
