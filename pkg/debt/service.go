package debt

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mankeu/models"
	"mankeu/pkg/apperr"
	"mankeu/pkg/money"
	"mankeu/pkg/store"
)

// PaymentInput is the body of a debt payment. PaymentDate defaults to today.
type PaymentInput struct {
	Amount      *decimal.Decimal `json:"amount"`
	PaymentDate *models.Date     `json:"payment_date"`
	Notes       *string          `json:"notes"`
}

func (in PaymentInput) validate() error {
	if in.Amount == nil {
		return apperr.Validation("amount is required")
	}
	if err := money.Check("amount", *in.Amount); err != nil {
		return err
	}
	if !in.Amount.IsPositive() {
		return apperr.Validation("amount must be greater than zero")
	}
	if in.PaymentDate != nil && in.PaymentDate.IsZero() {
		return apperr.Validation("payment_date must be a date")
	}
	return nil
}

// Service records payments. Every mutation locks the debt row first so
// payments on one debt apply one after another.
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

// AddPayment stores a payment and lowers the remaining amount of the debt.
func (s *Service) AddPayment(ctx context.Context, userID, debtID uint, in PaymentInput) (*models.DebtPayment, *models.Debt, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}
	p := &models.DebtPayment{
		DebtID:      debtID,
		Amount:      *in.Amount,
		PaymentDate: models.NewDate(time.Now()),
	}
	if in.PaymentDate != nil {
		p.PaymentDate = *in.PaymentDate
	}
	if in.Notes != nil && strings.TrimSpace(*in.Notes) != "" {
		p.Notes = in.Notes
	}
	var d models.Debt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockDebt(tx, userID, debtID, &d); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
			return err
		}
		Pay(&d, p.Amount)
		return saveBalance(tx, &d)
	})
	if err != nil {
		return nil, nil, store.Classify(err)
	}
	s.logger.DebugContext(ctx, "debt payment added", "debt_id", debtID, "amount", p.Amount, "remaining", d.RemainingAmount)
	return p, &d, nil
}

// Payments lists the payments of a debt, latest payment date first.
func (s *Service) Payments(ctx context.Context, userID, debtID uint) ([]models.DebtPayment, error) {
	if _, err := store.FindOwned[models.Debt](ctx, s.db, userID, debtID, "debt"); err != nil {
		return nil, err
	}
	rows := make([]models.DebtPayment, 0)
	err := s.db.WithContext(ctx).
		Where("debt_id = ?", debtID).
		Order("payment_date DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, store.Classify(err)
	}
	return rows, nil
}

// DeletePayment removes a payment and puts its amount back on the debt.
func (s *Service) DeletePayment(ctx context.Context, userID, debtID, paymentID uint) (*models.Debt, error) {
	var d models.Debt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockDebt(tx, userID, debtID, &d); err != nil {
			return err
		}
		var p models.DebtPayment
		err := tx.Where("id = ? AND debt_id = ?", paymentID, debtID).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("payment not found")
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.DebtPayment{}, p.ID).Error; err != nil {
			return err
		}
		Unpay(&d, p.Amount)
		return saveBalance(tx, &d)
	})
	if err != nil {
		return nil, store.Classify(err)
	}
	return &d, nil
}

// TogglePaid flips a debt between paid and unpaid.
func (s *Service) TogglePaid(ctx context.Context, userID, debtID uint) (*models.Debt, error) {
	var d models.Debt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockDebt(tx, userID, debtID, &d); err != nil {
			return err
		}
		Toggle(&d)
		return saveBalance(tx, &d)
	})
	if err != nil {
		return nil, store.Classify(err)
	}
	return &d, nil
}

func lockDebt(tx *gorm.DB, userID, id uint, d *models.Debt) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID).
		First(d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("debt not found")
	}
	return err
}

func saveBalance(tx *gorm.DB, d *models.Debt) error {
	return tx.Model(d).Select("remaining_amount", "status").Updates(d).Error
}
