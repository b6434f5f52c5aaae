package models

import (
	"regexp"
	"time"
)

// DefaultBlockBackground is used when a block is created without a color.
const DefaultBlockBackground = "#ffffff"

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Block is one content section of an article. Blocks are listed by
// Order and then by creation time; Order is not unique.
type Block struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ArticleID       uint      `gorm:"not null;index:idx_blocks_article_order,priority:1" json:"article_id"`
	Title           string    `gorm:"size:400" json:"title"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	ImageURL        string    `gorm:"size:500" json:"image_url,omitempty"`
	Order           int       `gorm:"column:sort_order;not null;index:idx_blocks_article_order,priority:2" json:"order"`
	BackgroundColor string    `gorm:"size:7;not null" json:"background_color"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ValidBackgroundColor reports whether c is a #rrggbb color.
func ValidBackgroundColor(c string) bool {
	return hexColor.MatchString(c)
}
