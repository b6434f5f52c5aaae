package repository

import (
	"context"
	"errors"
	"fmt"

	"newsdesk/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository stores reactions. Lookups are typed by target kind so a
// caller can never match an article id against comment rows or vice versa.
type ReactionRepository interface {
	// FindByArticle returns the user's reaction on the article, or nil when there is none.
	FindByArticle(ctx context.Context, userID, articleID uint) (*models.Reaction, error)
	// FindByComment returns the user's reaction on the comment, or nil when there is none.
	FindByComment(ctx context.Context, userID, commentID uint) (*models.Reaction, error)
	Create(ctx context.Context, reaction *models.Reaction) error
	// UpdateKind changes the kind of a loaded reaction in place.
	UpdateKind(ctx context.Context, reaction *models.Reaction, kind models.ReactionKind) error
	Delete(ctx context.Context, id uint) error
	Counts(ctx context.Context, target models.Target) (models.ReactionCounts, error)
	// Transaction runs fn against a repository bound to one database
	// transaction. Lookups inside it lock the row they read where the database supports it.
	Transaction(ctx context.Context, fn func(tx ReactionRepository) error) error
}

type reactionRepository struct {
	db      *gorm.DB
	locking bool
}

// NewReactionRepository creates a new ReactionRepository.
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) find(ctx context.Context, column string, userID, targetID uint) (*models.Reaction, error) {
	q := r.db.WithContext(ctx)
	if r.locking && q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var reaction models.Reaction
	err := q.Where("user_id = ? AND "+column+" = ?", userID, targetID).First(&reaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

func (r *reactionRepository) FindByArticle(ctx context.Context, userID, articleID uint) (*models.Reaction, error) {
	return r.find(ctx, "article_id", userID, articleID)
}

func (r *reactionRepository) FindByComment(ctx context.Context, userID, commentID uint) (*models.Reaction, error) {
	return r.find(ctx, "comment_id", userID, commentID)
}

// Create inserts the reaction. Unique violations are returned unwrapped so
// callers can detect a lost race.
func (r *reactionRepository) Create(ctx context.Context, reaction *models.Reaction) error {
	return r.db.WithContext(ctx).Omit("User").Create(reaction).Error
}

func (r *reactionRepository) UpdateKind(ctx context.Context, reaction *models.Reaction, kind models.ReactionKind) error {
	if !kind.Valid() {
		return models.ErrInvalidReactionKind
	}
	res := r.db.WithContext(ctx).Model(reaction).Update("reaction_type", kind)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Reaction", reaction.ID)
	}
	reaction.Kind = kind
	return nil
}

func (r *reactionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Reaction{}, id).Error
}

func (r *reactionRepository) Counts(ctx context.Context, target models.Target) (models.ReactionCounts, error) {
	var column string
	switch target.Kind {
	case models.TargetArticle:
		column = "article_id"
	case models.TargetComment:
		column = "comment_id"
	default:
		return models.ReactionCounts{}, fmt.Errorf("counts: %w", models.ErrInvalidReactionTarget)
	}

	var counts models.ReactionCounts
	err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Select("COALESCE(SUM(CASE WHEN reaction_type = 1 THEN 1 ELSE 0 END), 0) AS likes, "+
			"COALESCE(SUM(CASE WHEN reaction_type = -1 THEN 1 ELSE 0 END), 0) AS dislikes").
		Where(column+" = ?", target.ID).
		Scan(&counts).Error
	return counts, err
}

func (r *reactionRepository) Transaction(ctx context.Context, fn func(tx ReactionRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&reactionRepository{db: tx, locking: true})
	})
}
