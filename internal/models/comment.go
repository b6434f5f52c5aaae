package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a reader comment on an article, optionally replying to another comment.
type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	ArticleID   uint      `gorm:"not null;index" json:"article_id"`
	ParentID    *uint     `gorm:"index" json:"parent_id,omitempty"`
	PublishedAt time.Time `gorm:"not null" json:"published_at"`
	IsPublished bool      `gorm:"not null" json:"is_published"`

	Replies   []Comment  `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
	Reactions []Reaction `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"-"`

	// Not persisted; computed at query time
	LikesCount    int64        `gorm:"->;-:migration" json:"likes_count"`
	DislikesCount int64        `gorm:"->;-:migration" json:"dislikes_count"`
	MyReaction    ReactionKind `gorm:"->;-:migration" json:"my_reaction"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VisibleTo reports whether the comment can be seen at the given instant.
func (c *Comment) VisibleTo(caps Capabilities, now time.Time) bool {
	if caps.IsAdmin {
		return true
	}
	return c.IsPublished && !c.PublishedAt.After(now)
}

// BeforeSave stores PublishedAt in UTC so visibility comparisons are uniform across drivers.
func (c *Comment) BeforeSave(_ *gorm.DB) error {
	c.PublishedAt = c.PublishedAt.UTC()
	return nil
}
