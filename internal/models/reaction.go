package models

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// ReactionKind is the direction of a reaction. The zero value means "no reaction".
type ReactionKind int

const (
	ReactionNone    ReactionKind = 0
	ReactionLike    ReactionKind = 1
	ReactionDislike ReactionKind = -1
)

// Valid reports whether k can be stored.
func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionDislike
}

func (k ReactionKind) String() string {
	switch k {
	case ReactionLike:
		return "like"
	case ReactionDislike:
		return "dislike"
	case ReactionNone:
		return "none"
	default:
		return "invalid(" + strconv.Itoa(int(k)) + ")"
	}
}

// TargetKind says which kind of content a reaction points at.
type TargetKind int

const (
	TargetArticle TargetKind = iota + 1
	TargetComment
)

func (k TargetKind) String() string {
	switch k {
	case TargetArticle:
		return "article"
	case TargetComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Target is the thing a reaction is attached to: exactly one article or one comment.
type Target struct {
	Kind TargetKind
	ID   uint
}

// ArticleTarget builds a target for an article.
func ArticleTarget(id uint) Target { return Target{Kind: TargetArticle, ID: id} }

// CommentTarget builds a target for a comment.
func CommentTarget(id uint) Target { return Target{Kind: TargetComment, ID: id} }

// Valid reports whether the target names a known kind and a non-zero id.
func (t Target) Valid() bool {
	return (t.Kind == TargetArticle || t.Kind == TargetComment) && t.ID != 0
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}

// ErrInvalidReactionTarget is returned when a reaction does not reference exactly one target.
var ErrInvalidReactionTarget = errors.New("reaction must reference exactly one of article or comment")

// ErrInvalidReactionKind is returned when a reaction kind is neither like nor dislike.
var ErrInvalidReactionKind = errors.New("reaction_type must be 1 or -1")

// Reaction is a single user's like or dislike on one article or one comment.
// A user holds at most one reaction per target.
type Reaction struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_reactions_user_article,where:article_id IS NOT NULL;uniqueIndex:idx_reactions_user_comment,where:comment_id IS NOT NULL" json:"user_id"`
	User      User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Kind      ReactionKind `gorm:"column:reaction_type;type:smallint;not null;check:chk_reactions_kind,reaction_type IN (1, -1)" json:"reaction_type"`
	ArticleID *uint        `gorm:"uniqueIndex:idx_reactions_user_article,where:article_id IS NOT NULL;index:idx_reactions_article;check:chk_reactions_single_target,(article_id IS NULL) <> (comment_id IS NULL)" json:"article_id,omitempty"`
	CommentID *uint        `gorm:"uniqueIndex:idx_reactions_user_comment,where:comment_id IS NOT NULL;index:idx_reactions_comment" json:"comment_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewReaction builds a reaction for the given target, setting exactly one
// of ArticleID and CommentID.
func NewReaction(userID uint, target Target, kind ReactionKind) (*Reaction, error) {
	if !kind.Valid() {
		return nil, ErrInvalidReactionKind
	}
	if !target.Valid() {
		return nil, ErrInvalidReactionTarget
	}
	r := &Reaction{UserID: userID, Kind: kind}
	id := target.ID
	if target.Kind == TargetArticle {
		r.ArticleID = &id
	} else {
		r.CommentID = &id
	}
	return r, nil
}

// Target returns what the reaction is attached to.
func (r *Reaction) Target() (Target, error) {
	switch {
	case r.ArticleID != nil && r.CommentID == nil:
		return ArticleTarget(*r.ArticleID), nil
	case r.CommentID != nil && r.ArticleID == nil:
		return CommentTarget(*r.CommentID), nil
	default:
		return Target{}, ErrInvalidReactionTarget
	}
}

// BeforeSave rejects rows that would break the single-target rule.
func (r *Reaction) BeforeSave(_ *gorm.DB) error {
	if !r.Kind.Valid() {
		return ErrInvalidReactionKind
	}
	if _, err := r.Target(); err != nil {
		return err
	}
	return nil
}

// ReactionOutcome describes what a toggle did.
type ReactionOutcome string

const (
	OutcomeCreated ReactionOutcome = "created"
	OutcomeFlipped ReactionOutcome = "flipped"
	OutcomeRemoved ReactionOutcome = "removed"
)

// ReactionResult is returned by a toggle. State is the requester's reaction
// after the change, ReactionNone when it was removed.
type ReactionResult struct {
	Target        Target          `json:"-"`
	ArticleID     uint            `json:"-"` // article owning the target
	Outcome       ReactionOutcome `json:"outcome"`
	State         ReactionKind    `json:"-"`
	StateName     string          `json:"state"`
	LikesCount    int64           `json:"likes_count"`
	DislikesCount int64           `json:"dislikes_count"`
}

// ReactionCounts holds aggregate like/dislike counts for a target.
type ReactionCounts struct {
	Likes    int64
	Dislikes int64
}
