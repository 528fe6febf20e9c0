// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"videotube/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// DefaultPageSize applies when a caller passes a non-positive limit.
	DefaultPageSize = 20
	// MaxPageSize caps every list query.
	MaxPageSize = 100
)

// Page clamps limit and offset to sane values.
func Page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// PostgreSQL SQLSTATEs that mean "try the transaction again".
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// IsRetryable reports whether err is transient contention on the store:
// a unique-key race, a serialization failure, a deadlock or a busy SQLite file.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return true
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

// wrap maps a driver error to an AppError, keeping the cause for IsRetryable.
func wrap(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}

// resourceName is the human name of a content kind in error messages.
func resourceName(kind models.ContentKind) string {
	switch kind {
	case models.KindVideo:
		return "Video"
	case models.KindComment:
		return "Comment"
	case models.KindTweet:
		return "Tweet"
	}
	return "Content"
}

func contentModel(kind models.ContentKind) (interface{}, error) {
	switch kind {
	case models.KindVideo:
		return &models.Video{}, nil
	case models.KindComment:
		return &models.Comment{}, nil
	case models.KindTweet:
		return &models.Tweet{}, nil
	}
	return nil, models.NewInvalidOperationError("unknown content kind " + string(kind))
}

// lockTarget confirms inside tx that a content row still exists and holds a
// share lock on it until tx ends. A delete that commits first is seen as
// gorm.ErrRecordNotFound; one that starts later waits for tx.
func lockTarget(tx *gorm.DB, kind models.ContentKind, id string) error {
	model, err := contentModel(kind)
	if err != nil {
		return err
	}
	var found []string
	if err := tx.Model(model).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ?", id).
		Limit(1).
		Pluck("id", &found).Error; err != nil {
		return err
	}
	if len(found) == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
