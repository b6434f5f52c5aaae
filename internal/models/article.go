package models

import (
	"time"

	"gorm.io/gorm"
)

// Article is a news item composed of ordered blocks.
type Article struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:400;not null" json:"title"`
	ImageURL    string    `gorm:"size:500" json:"image_url,omitempty"`
	PublishedAt time.Time `gorm:"not null;index" json:"published_at"`
	IsPublished bool      `gorm:"not null;index" json:"is_published"`

	Blocks    []Block    `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"blocks,omitempty"`
	Comments  []Comment  `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"-"`
	Reactions []Reaction `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"-"`

	// Not persisted; computed at query time
	LikesCount    int64 `gorm:"->;-:migration" json:"likes_count"`
	DislikesCount int64 `gorm:"->;-:migration" json:"dislikes_count"`
	CommentsCount int64 `gorm:"->;-:migration" json:"comments_count"`
	// MyReaction is the requester's reaction kind on this article, 0 when none (computed)
	MyReaction ReactionKind `gorm:"->;-:migration" json:"my_reaction"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VisibleTo reports whether the article can be seen at the given instant.
// Admins see unpublished and scheduled articles.
func (a *Article) VisibleTo(caps Capabilities, now time.Time) bool {
	if caps.IsAdmin {
		return true
	}
	return a.IsPublished && !a.PublishedAt.After(now)
}

// BeforeSave stores PublishedAt in UTC so visibility comparisons are uniform across drivers.
func (a *Article) BeforeSave(_ *gorm.DB) error {
	a.PublishedAt = a.PublishedAt.UTC()
	return nil
}
