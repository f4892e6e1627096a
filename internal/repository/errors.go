package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "catalog/internal/errors"
)

// notFound converts gorm.ErrRecordNotFound into the domain error.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return err
}

// IsDuplicate reports whether err is a unique index violation.
// TranslateError covers the drivers that support it; the message match
// covers the rest.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}

// likeEscape is the LIKE escape character. A backslash would need different
// quoting on MySQL.
const likeEscape = "!"

// likePattern builds a lower-cased substring pattern for LIKE ... ESCAPE '!'.
func likePattern(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// ilike returns a case-insensitive LIKE condition on column.
func ilike(column string) string {
	return "LOWER(" + column + ") LIKE ? ESCAPE '" + likeEscape + "'"
}
