package seed

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"newsdesk/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixtures/demo.yml
var fixtureFS embed.FS

// Fixture is a curated set of articles described in YAML.
type Fixture struct {
	Articles []FixtureArticle `yaml:"articles"`
}

type FixtureArticle struct {
	Title     string           `yaml:"title"`
	ImageURL  string           `yaml:"image_url"`
	Published *bool            `yaml:"published"`
	Blocks    []FixtureBlock   `yaml:"blocks"`
	Comments  []FixtureComment `yaml:"comments"`
}

type FixtureBlock struct {
	Title           string `yaml:"title"`
	Content         string `yaml:"content"`
	BackgroundColor string `yaml:"background_color"`
}

type FixtureComment struct {
	Author  uint             `yaml:"author"`
	Content string           `yaml:"content"`
	Replies []FixtureComment `yaml:"replies"`
}

// LoadFixture reads and validates a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// DemoFixture returns the fixture bundled with the binary.
func DemoFixture() (*Fixture, error) {
	data, err := fixtureFS.ReadFile("fixtures/demo.yml")
	if err != nil {
		return nil, err
	}
	return ParseFixture(data)
}

// ParseFixture decodes YAML and rejects entries the schema would refuse.
func ParseFixture(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	for i, a := range fx.Articles {
		if strings.TrimSpace(a.Title) == "" {
			return nil, fmt.Errorf("article %d: title is required", i)
		}
		for j, b := range a.Blocks {
			if strings.TrimSpace(b.Content) == "" {
				return nil, fmt.Errorf("article %q block %d: content is required", a.Title, j)
			}
			if b.BackgroundColor != "" && !models.ValidBackgroundColor(b.BackgroundColor) {
				return nil, fmt.Errorf("article %q block %d: invalid background_color %q", a.Title, j, b.BackgroundColor)
			}
		}
		if err := validateFixtureComments(a.Title, a.Comments); err != nil {
			return nil, err
		}
	}
	return &fx, nil
}

func validateFixtureComments(title string, comments []FixtureComment) error {
	for _, c := range comments {
		if c.Author == 0 {
			return fmt.Errorf("article %q: comment author is required", title)
		}
		if strings.TrimSpace(c.Content) == "" {
			return fmt.Errorf("article %q: comment content is required", title)
		}
		if err := validateFixtureComments(title, c.Replies); err != nil {
			return err
		}
	}
	return nil
}

// ApplyFixture inserts the fixture's articles. Comment authors are mirrored
// as users when missing. Articles whose title already exists are skipped so
// the fixture can be applied repeatedly.
func (s *Seeder) ApplyFixture(fx *Fixture) ([]*models.Article, error) {
	var created []*models.Article
	err := s.db.Transaction(func(tx *gorm.DB) error {
		f := &Factory{db: tx, opts: s.opts}
		for _, fa := range fx.Articles {
			var existing int64
			if err := tx.Model(&models.Article{}).Where("title = ?", fa.Title).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}

			article := &models.Article{
				Title:       strings.TrimSpace(fa.Title),
				ImageURL:    fa.ImageURL,
				PublishedAt: s.now(),
				IsPublished: fa.Published == nil || *fa.Published,
			}
			if err := tx.Omit("Blocks", "Comments", "Reactions").Create(article).Error; err != nil {
				return err
			}

			for i, fb := range fa.Blocks {
				color := fb.BackgroundColor
				if color == "" {
					color = models.DefaultBlockBackground
				}
				block := &models.Block{
					ArticleID:       article.ID,
					Title:           fb.Title,
					Content:         fb.Content,
					Order:           i,
					BackgroundColor: color,
				}
				if err := tx.Create(block).Error; err != nil {
					return err
				}
			}

			if err := f.createFixtureComments(article.ID, nil, fa.Comments, s.now()); err != nil {
				return err
			}
			created = append(created, article)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
