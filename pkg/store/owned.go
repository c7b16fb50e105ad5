package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mankeu/pkg/apperr"
)

const (
	sqlstateUniqueViolation     = "23505"
	sqlstateForeignKeyViolation = "23503"
)

// FindOwned loads the row with the given id belonging to userID. A row that
// exists but belongs to someone else is reported as not found.
func FindOwned[T any](ctx context.Context, db *gorm.DB, userID, id uint, what string) (*T, error) {
	var row T
	err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("%s not found", what)
		}
		return nil, Classify(err)
	}
	return &row, nil
}

// LockOwned is FindOwned under a row lock. It must run inside a database
// transaction; the lock is held until that transaction ends.
func LockOwned[T any](ctx context.Context, tx *gorm.DB, userID, id uint, what string) (*T, error) {
	return FindOwned[T](ctx, tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID, id, what)
}

// ListOwned returns the rows of userID in the given order and page window.
func ListOwned[T any](ctx context.Context, db *gorm.DB, userID uint, page Page, order string) ([]T, error) {
	rows := make([]T, 0)
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	if order != "" {
		q = q.Order(order)
	}
	if err := page.Apply(q).Find(&rows).Error; err != nil {
		return nil, Classify(err)
	}
	return rows, nil
}

// Classify turns database errors into application errors: unique violations
// become conflicts, foreign key violations become validation errors and a
// missing record becomes not found. Anything else is internal.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.KindNotFound, err, "record not found")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateUniqueViolation:
			return apperr.Wrap(apperr.KindConflict, err, "resource already exists")
		case sqlstateForeignKeyViolation:
			return apperr.Wrap(apperr.KindValidation, err, "referenced resource does not exist or is still in use")
		}
	}
	return apperr.Internal(err)
}

// IsUniqueViolation reports whether err is a Postgres unique constraint error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlstateUniqueViolation
}
