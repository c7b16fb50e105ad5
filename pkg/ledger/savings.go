package ledger

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mankeu/models"
	"mankeu/pkg/apperr"
	"mankeu/pkg/goals"
	"mankeu/pkg/money"
	"mankeu/pkg/store"
)

// MovementInput is the body of a goal deposit or withdrawal. CategoryID
// must name a saving category; when omitted the first saving category is
// used. Date defaults to today.
type MovementInput struct {
	Amount     *decimal.Decimal `json:"amount"`
	CategoryID *uint            `json:"category_id"`
	Date       *models.Date     `json:"date"`
	Notes      *string          `json:"notes"`
}

func (in MovementInput) validate() error {
	if in.Amount == nil {
		return apperr.Validation("amount is required")
	}
	if err := money.Check("amount", *in.Amount); err != nil {
		return err
	}
	if !in.Amount.IsPositive() {
		return apperr.Validation("amount must be greater than zero")
	}
	if in.Date != nil && in.Date.IsZero() {
		return apperr.Validation("date must be a date")
	}
	return nil
}

// Deposit records a goal-linked transaction of +amount and moves the goal
// balance with it. The updated saving and the new transaction are returned.
func (s *Service) Deposit(ctx context.Context, userID, savingID uint, in MovementInput) (*models.Saving, *models.Transaction, error) {
	return s.move(ctx, userID, savingID, in, false)
}

// Withdraw is Deposit with -amount. It fails when the goal holds less than
// amount.
func (s *Service) Withdraw(ctx context.Context, userID, savingID uint, in MovementInput) (*models.Saving, *models.Transaction, error) {
	return s.move(ctx, userID, savingID, in, true)
}

func (s *Service) move(ctx context.Context, userID, savingID uint, in MovementInput, withdraw bool) (*models.Saving, *models.Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}
	var saving models.Saving
	var t models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", savingID, userID).
			First(&saving).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("saving not found")
		}
		if err != nil {
			return err
		}
		categoryID, err := savingCategory(ctx, tx, in.CategoryID)
		if err != nil {
			return err
		}

		amount := *in.Amount
		name, notes := "Deposit to "+saving.Name, "Saving deposit"
		if withdraw {
			if saving.Amount.LessThan(amount) {
				return apperr.Validation("insufficient balance")
			}
			amount = amount.Neg()
			name, notes = "Withdraw from "+saving.Name, "Saving withdrawal"
		}
		if in.Notes != nil && strings.TrimSpace(*in.Notes) != "" {
			notes = *in.Notes
		}
		date := models.NewDate(time.Now())
		if in.Date != nil {
			date = *in.Date
		}
		goalID := saving.ID
		t = models.Transaction{
			UserID:          userID,
			CategoryID:      categoryID,
			Name:            truncateName(name),
			TransactionDate: date,
			Amount:          amount,
			Notes:           &notes,
			GoalID:          &goalID,
		}
		if err := tx.Omit(clause.Associations).Create(&t).Error; err != nil {
			return err
		}
		if err := s.reconciler(tx).Created(ctx, userID, goals.Of(&t)); err != nil {
			return err
		}
		return tx.First(&saving, saving.ID).Error
	})
	if err != nil {
		return nil, nil, store.Classify(err)
	}
	return &saving, &t, nil
}

// GoalHistory lists the transactions linked to one of the user's savings,
// newest first.
func (s *Service) GoalHistory(ctx context.Context, userID, savingID uint, page store.Page) ([]models.Transaction, error) {
	if _, err := store.FindOwned[models.Saving](ctx, s.db, userID, savingID, "saving"); err != nil {
		return nil, err
	}
	rows := make([]models.Transaction, 0)
	q := s.db.WithContext(ctx).
		Where("user_id = ? AND goal_id = ?", userID, savingID).
		Order("transaction_date DESC, id DESC")
	if err := page.Apply(q).Find(&rows).Error; err != nil {
		return nil, store.Classify(err)
	}
	return rows, nil
}

// savingCategory resolves the category of a goal movement. Anything but a
// saving category would leave the goal balance untouched.
func savingCategory(ctx context.Context, tx *gorm.DB, requested *uint) (uint, error) {
	if requested == nil {
		var c models.Category
		err := tx.WithContext(ctx).Where("type = ?", models.CategorySaving).Order("id").First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.Validation("no saving category available")
		}
		if err != nil {
			return 0, err
		}
		return c.ID, nil
	}
	t, ok, err := goals.NewGormStore(tx).CategoryType(ctx, *requested)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, apperr.Validation("category %d does not exist", *requested)
	}
	if t != models.CategorySaving {
		return 0, apperr.Validation("category %d is not a saving category", *requested)
	}
	return *requested, nil
}

func truncateName(name string) string {
	if utf8.RuneCountInString(name) <= maxNameLen {
		return name
	}
	return string([]rune(name)[:maxNameLen])
}
