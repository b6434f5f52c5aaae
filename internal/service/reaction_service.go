package service

import (
	"context"
	"log/slog"
	"time"

	"newsdesk/internal/cache"
	"newsdesk/internal/database"
	"newsdesk/internal/middleware"
	"newsdesk/internal/models"
	"newsdesk/internal/notifications"
	"newsdesk/internal/observability"
	"newsdesk/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// DecideReaction is the toggle rule. Given the user's current reaction on a
// target (ReactionNone when absent) and the requested kind, it returns what
// happens and the resulting state.
func DecideReaction(existing, requested models.ReactionKind) (models.ReactionOutcome, models.ReactionKind) {
	switch existing {
	case models.ReactionNone:
		return models.OutcomeCreated, requested
	case requested:
		return models.OutcomeRemoved, models.ReactionNone
	default:
		return models.OutcomeFlipped, requested
	}
}

type ReactionService struct {
	reactions repository.ReactionRepository
	articles  repository.ArticleRepository
	comments  repository.CommentRepository
	notifier  *notifications.Notifier
	now       func() time.Time
}

func NewReactionService(
	reactions repository.ReactionRepository,
	articles repository.ArticleRepository,
	comments repository.CommentRepository,
	notifier *notifications.Notifier,
) *ReactionService {
	return &ReactionService{
		reactions: reactions,
		articles:  articles,
		comments:  comments,
		notifier:  notifier,
		now:       time.Now,
	}
}

// ApplyReaction toggles userID's reaction on target. The kind is validated
// before anything is read. Targets the caller may not see are reported as not found.
func (s *ReactionService) ApplyReaction(ctx context.Context, target models.Target, userID uint, kind models.ReactionKind, caps models.Capabilities) (result *models.ReactionResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "ReactionService", "ApplyReaction",
		attribute.String("reaction.target", target.String()),
		attribute.Int("reaction.kind", int(kind)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if !kind.Valid() {
		return nil, models.NewValidationError("reaction_type must be 1 (like) or -1 (dislike)")
	}
	if !target.Valid() {
		return nil, models.NewValidationError("Invalid reaction target")
	}
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	articleID, err := s.resolveTarget(ctx, target, caps)
	if err != nil {
		return nil, err
	}

	result, err = s.toggle(ctx, target, userID, kind)
	if err != nil && database.IsUniqueViolation(err) {
		// A concurrent request inserted first; the retry sees its row.
		observability.ReactionConflictRetries.WithLabelValues(target.Kind.String()).Inc()
		result, err = s.toggle(ctx, target, userID, kind)
	}
	if database.IsForeignKeyViolation(err) {
		// The target was deleted after resolveTarget saw it.
		return nil, models.NewNotFoundError(targetResource(target), target.ID)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	result.ArticleID = articleID
	observability.ReactionToggles.WithLabelValues(target.Kind.String(), string(result.Outcome)).Inc()
	span.SetAttributes(attribute.String("reaction.outcome", string(result.Outcome)))

	if target.Kind == models.TargetArticle {
		cache.InvalidateArticle(ctx, target.ID)
	}
	s.publish(ctx, articleID, result)

	return result, nil
}

func targetResource(target models.Target) string {
	if target.Kind == models.TargetComment {
		return "Comment"
	}
	return "Article"
}

// resolveTarget checks the target exists and is visible, returning the
// article the reaction belongs to.
func (s *ReactionService) resolveTarget(ctx context.Context, target models.Target, caps models.Capabilities) (uint, error) {
	now := s.now()
	switch target.Kind {
	case models.TargetArticle:
		article, err := visibleArticle(ctx, s.articles, target.ID, caps, now)
		if err != nil {
			return 0, err
		}
		return article.ID, nil
	case models.TargetComment:
		comment, err := visibleComment(ctx, s.comments, s.articles, target.ID, caps, now)
		if err != nil {
			return 0, err
		}
		return comment.ArticleID, nil
	default:
		return 0, models.NewValidationError("Invalid reaction target")
	}
}

func (s *ReactionService) toggle(ctx context.Context, target models.Target, userID uint, kind models.ReactionKind) (*models.ReactionResult, error) {
	result := &models.ReactionResult{Target: target}

	err := s.reactions.Transaction(ctx, func(tx repository.ReactionRepository) error {
		existing, err := findReaction(ctx, tx, target, userID)
		if err != nil {
			return err
		}

		current := models.ReactionNone
		if existing != nil {
			current = existing.Kind
		}
		outcome, state := DecideReaction(current, kind)

		switch outcome {
		case models.OutcomeCreated:
			reaction, err := models.NewReaction(userID, target, kind)
			if err != nil {
				return err
			}
			if err := tx.Create(ctx, reaction); err != nil {
				return err
			}
		case models.OutcomeRemoved:
			if err := tx.Delete(ctx, existing.ID); err != nil {
				return err
			}
		case models.OutcomeFlipped:
			if err := tx.UpdateKind(ctx, existing, kind); err != nil {
				return err
			}
		}

		counts, err := tx.Counts(ctx, target)
		if err != nil {
			return err
		}
		result.Outcome = outcome
		result.State = state
		result.StateName = state.String()
		result.LikesCount = counts.Likes
		result.DislikesCount = counts.Dislikes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func findReaction(ctx context.Context, repo repository.ReactionRepository, target models.Target, userID uint) (*models.Reaction, error) {
	if target.Kind == models.TargetComment {
		return repo.FindByComment(ctx, userID, target.ID)
	}
	return repo.FindByArticle(ctx, userID, target.ID)
}

func (s *ReactionService) publish(ctx context.Context, articleID uint, result *models.ReactionResult) {
	payload := map[string]interface{}{
		"target":         result.Target.Kind.String(),
		"target_id":      result.Target.ID,
		"likes_count":    result.LikesCount,
		"dislikes_count": result.DislikesCount,
	}
	if err := s.notifier.PublishArticleEvent(ctx, articleID, notifications.EventReactionUpdated, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish reaction event",
			slog.Uint64("article_id", uint64(articleID)),
			slog.String("error", err.Error()),
		)
	}
}
