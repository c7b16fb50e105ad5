// Package ledger owns the unit of work for transaction mutations. Every
// create, update and delete runs in one database transaction together with
// the goal balance adjustments it causes.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mankeu/models"
	"mankeu/pkg/apperr"
	"mankeu/pkg/goals"
	"mankeu/pkg/store"
)

// Service is safe for concurrent use; it holds no per-request state.
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func New(db *gorm.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger}
}

func (s *Service) reconciler(tx *gorm.DB) *goals.Reconciler {
	return goals.New(goals.NewGormStore(tx), s.logger)
}

// Create records a transaction for userID and adds it to its goal when it
// contributes to one.
func (s *Service) Create(ctx context.Context, userID uint, in CreateInput) (*models.Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	t := &models.Transaction{
		UserID:          userID,
		CategoryID:      *in.CategoryID,
		Name:            strings.TrimSpace(in.Name),
		TransactionDate: *in.TransactionDate,
		Amount:          *in.Amount,
		Notes:           in.Notes,
		GoalID:          in.GoalID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireCategory(ctx, tx, t.CategoryID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(t).Error; err != nil {
			return store.Classify(err)
		}
		return s.reconciler(tx).Created(ctx, userID, goals.Of(t))
	})
	if err != nil {
		return nil, store.Classify(err)
	}
	return t, nil
}

// List returns the transactions of userID, newest first.
func (s *Service) List(ctx context.Context, userID uint, page store.Page) ([]models.Transaction, error) {
	return store.ListOwned[models.Transaction](ctx, s.db, userID, page, "transaction_date DESC, id DESC")
}

func (s *Service) Get(ctx context.Context, userID, id uint) (*models.Transaction, error) {
	return store.FindOwned[models.Transaction](ctx, s.db, userID, id, "transaction")
}

// Update applies a partial update. The row is locked before its previous
// state is captured so concurrent edits of one transaction serialize.
func (s *Service) Update(ctx context.Context, userID, id uint, in UpdateInput) (*models.Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var t models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwned(tx, userID, id, &t); err != nil {
			return err
		}
		before := goals.Of(&t)
		cols := in.apply(&t)
		if len(cols) == 0 {
			return nil
		}
		if in.CategoryID != nil && before.CategoryID != t.CategoryID {
			if err := requireCategory(ctx, tx, t.CategoryID); err != nil {
				return err
			}
		}
		if err := s.reconciler(tx).Updated(ctx, userID, before, goals.Of(&t)); err != nil {
			return err
		}
		res := tx.Model(&t).Where("user_id = ?", userID).Select(cols).Updates(&t)
		if res.Error != nil {
			return store.Classify(res.Error)
		}
		return nil
	})
	if err != nil {
		return nil, store.Classify(err)
	}
	return &t, nil
}

// Delete removes a transaction and takes its amount back out of its goal.
// The deleted row is returned.
func (s *Service) Delete(ctx context.Context, userID, id uint) (*models.Transaction, error) {
	var t models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwned(tx, userID, id, &t); err != nil {
			return err
		}
		if err := s.reconciler(tx).Deleted(ctx, userID, goals.Of(&t)); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Transaction{}, t.ID).Error; err != nil {
			return store.Classify(err)
		}
		return nil
	})
	if err != nil {
		return nil, store.Classify(err)
	}
	return &t, nil
}

// BulkDelete deletes the transactions among ids that belong to userID.
// Unknown ids and ids of other users are ignored. When none of the ids
// resolve, nothing is deleted and a not-found error is returned.
func (s *Service) BulkDelete(ctx context.Context, userID uint, ids []uint) (int, error) {
	var rows []models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(ids) > 0 {
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ? AND id IN ?", userID, ids).
				Order("id").
				Find(&rows).Error
			if err != nil {
				return store.Classify(err)
			}
		}
		if len(rows) == 0 {
			return apperr.NotFound("no transactions found to delete")
		}
		rec := s.reconciler(tx)
		found := make([]uint, 0, len(rows))
		for i := range rows {
			if err := rec.Deleted(ctx, userID, goals.Of(&rows[i])); err != nil {
				return err
			}
			found = append(found, rows[i].ID)
		}
		if err := tx.Where("user_id = ? AND id IN ?", userID, found).Delete(&models.Transaction{}).Error; err != nil {
			return store.Classify(err)
		}
		return nil
	})
	if err != nil {
		return 0, store.Classify(err)
	}
	s.logger.DebugContext(ctx, "transactions deleted", "user_id", userID, "requested", len(ids), "deleted", len(rows))
	return len(rows), nil
}

func lockOwned(tx *gorm.DB, userID, id uint, t *models.Transaction) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID).
		First(t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("transaction not found")
	}
	return store.Classify(err)
}

func requireCategory(ctx context.Context, tx *gorm.DB, categoryID uint) error {
	_, ok, err := goals.NewGormStore(tx).CategoryType(ctx, categoryID)
	if err != nil {
		return store.Classify(err)
	}
	if !ok {
		return apperr.Validation("category %d does not exist", categoryID)
	}
	return nil
}
