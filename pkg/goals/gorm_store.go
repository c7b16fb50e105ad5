package goals

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mankeu/models"
)

// GormStore implements Store on a gorm handle, normally the *gorm.DB of an
// open transaction.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// CategoryType reads the category under a share lock, so a concurrent type
// change waits until this transaction commits.
func (s *GormStore) CategoryType(ctx context.Context, categoryID uint) (models.CategoryType, bool, error) {
	var c models.Category
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Select("id", "type").
		First(&c, categoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return c.Type, true, nil
}

// AdjustSaving evaluates amount = amount + delta in the database so the
// update is applied under the row lock against the committed value.
func (s *GormStore) AdjustSaving(ctx context.Context, userID, savingID uint, delta decimal.Decimal) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Saving{}).
		Where("id = ? AND user_id = ?", savingID, userID).
		UpdateColumn("amount", gorm.Expr("amount + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// LinkedTransactions counts the transactions of a category that carry a
// goal id, across all users.
func (s *GormStore) LinkedTransactions(ctx context.Context, categoryID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("category_id = ? AND goal_id IS NOT NULL", categoryID).
		Count(&n).Error
	return n, err
}
