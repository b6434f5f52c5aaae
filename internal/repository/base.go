// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"newsdesk/internal/models"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is a limit/offset window.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalized() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// notFoundOr maps gorm.ErrRecordNotFound to a NOT_FOUND AppError and wraps anything else as internal.
func notFoundOr(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// likePattern builds a case-insensitive LIKE pattern with wildcards escaped.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(q))) + "%"
}

// reactionCountsSelect yields likes_count and dislikes_count for the given reactions column.
func reactionCountsSelect(table, column string) string {
	return "(SELECT COUNT(*) FROM reactions WHERE reactions." + column + " = " + table + ".id AND reactions.reaction_type = 1) AS likes_count, " +
		"(SELECT COUNT(*) FROM reactions WHERE reactions." + column + " = " + table + ".id AND reactions.reaction_type = -1) AS dislikes_count"
}

// myReactionSelect yields my_reaction for the viewer bound to the single placeholder.
func myReactionSelect(table, column string) string {
	return "COALESCE((SELECT reactions.reaction_type FROM reactions WHERE reactions." + column + " = " + table + ".id AND reactions.user_id = ?), 0) AS my_reaction"
}
