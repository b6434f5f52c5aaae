package seed

import (
	"fmt"
	"strings"
	"time"

	"newsdesk/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	fake *gofakeit.Faker
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	return &Factory{db: db, opts: opts, fake: newFaker(opts.RandSeed)}
}

func (f *Factory) faker() *gofakeit.Faker {
	if f.fake == nil {
		f.fake = newFaker(time.Now().UnixNano())
	}
	return f.fake
}

// EnsureUser mirrors an identity. An empty username gets a generated one.
func (f *Factory) EnsureUser(id uint, username string, isAdmin bool) (*models.User, error) {
	if username == "" {
		username = fmt.Sprintf("%s%d", f.faker().Username(), id)
	}
	user := &models.User{ID: id, Username: username, IsAdmin: isAdmin}
	if err := f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildArticle constructs an article published within the last MaxDays.
// Roughly one in ten is left as a draft.
func (f *Factory) BuildArticle(now time.Time, overrides ...func(*models.Article)) *models.Article {
	fake := f.faker()
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	back := time.Duration(fake.Number(0, maxDays*24*60)) * time.Minute

	title := strings.TrimSuffix(fake.Sentence(fake.Number(4, 9)), ".")
	if len(title) > 400 {
		title = title[:400]
	}
	article := &models.Article{
		Title:       title,
		ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", fake.UUID()),
		PublishedAt: now.Add(-back),
		IsPublished: fake.Number(1, 10) > 1,
	}
	for _, override := range overrides {
		override(article)
	}
	return article
}

func (f *Factory) CreateArticle(article *models.Article) error {
	return f.db.Omit("Blocks", "Comments", "Reactions").Create(article).Error
}

// CreateBlocks adds n blocks in order 0..n-1.
func (f *Factory) CreateBlocks(articleID uint, n int) ([]*models.Block, error) {
	fake := f.faker()
	blocks := make([]*models.Block, 0, n)
	for i := 0; i < n; i++ {
		block := &models.Block{
			ArticleID:       articleID,
			Content:         fake.Paragraph(1, fake.Number(2, 5), 12, " "),
			Order:           i,
			BackgroundColor: models.DefaultBlockBackground,
		}
		if i > 0 && fake.Bool() {
			block.Title = strings.TrimSuffix(fake.Sentence(3), ".")
		}
		if fake.Number(1, 4) == 1 {
			block.BackgroundColor = strings.ToLower(fake.HexColor())
		}
		blocks = append(blocks, block)
	}
	if len(blocks) == 0 {
		return blocks, nil
	}
	if err := f.db.Create(&blocks).Error; err != nil {
		return nil, err
	}
	return blocks, nil
}

// CreateThread posts n comments by random users. About a third reply to an
// earlier comment in the same thread.
func (f *Factory) CreateThread(article *models.Article, users []*models.User, n int) ([]*models.Comment, error) {
	fake := f.faker()
	comments := make([]*models.Comment, 0, n)
	at := article.PublishedAt
	for i := 0; i < n; i++ {
		at = at.Add(time.Duration(fake.Number(1, 180)) * time.Minute)
		author := users[fake.Number(0, len(users)-1)]

		var parentID *uint
		if len(comments) > 0 && fake.Number(1, 3) == 1 {
			id := comments[fake.Number(0, len(comments)-1)].ID
			parentID = &id
		}
		comment, err := f.CreateComment(article.ID, author.ID, parentID, fake.Sentence(fake.Number(5, 20)), at)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

func (f *Factory) CreateComment(articleID, userID uint, parentID *uint, content string, at time.Time) (*models.Comment, error) {
	comment := &models.Comment{
		Content:     content,
		UserID:      userID,
		ArticleID:   articleID,
		ParentID:    parentID,
		PublishedAt: at,
		IsPublished: true,
	}
	if err := f.db.Omit("User", "Replies", "Reactions").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

func (f *Factory) createFixtureComments(articleID uint, parentID *uint, comments []FixtureComment, at time.Time) error {
	for _, fc := range comments {
		if _, err := f.EnsureUser(fc.Author, "", false); err != nil {
			return err
		}
		comment, err := f.CreateComment(articleID, fc.Author, parentID, strings.TrimSpace(fc.Content), at)
		if err != nil {
			return err
		}
		id := comment.ID
		if err := f.createFixtureComments(articleID, &id, fc.Replies, at); err != nil {
			return err
		}
	}
	return nil
}

// ReactRandomly has a random subset of users like or dislike target, at
// most once each. Likes outnumber dislikes about three to one.
func (f *Factory) ReactRandomly(users []*models.User, target models.Target) (int, error) {
	fake := f.faker()
	if len(users) == 0 {
		return 0, nil
	}
	n := fake.Number(0, len(users))
	created := 0
	for _, idx := range fake.Rand.Perm(len(users))[:n] {
		kind := models.ReactionLike
		if fake.Number(1, 4) == 1 {
			kind = models.ReactionDislike
		}
		reaction, err := models.NewReaction(users[idx].ID, target, kind)
		if err != nil {
			return created, err
		}
		if err := f.db.Omit("User").Create(reaction).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
