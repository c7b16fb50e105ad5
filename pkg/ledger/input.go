package ledger

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"mankeu/models"
	"mankeu/pkg/apperr"
	"mankeu/pkg/money"
)

const maxNameLen = 100

// CreateInput is the body of a transaction create request.
type CreateInput struct {
	CategoryID      *uint            `json:"category_id"`
	Name            string           `json:"name"`
	TransactionDate *models.Date     `json:"transaction_date"`
	Amount          *decimal.Decimal `json:"amount"`
	Notes           *string          `json:"notes"`
	GoalID          *uint            `json:"goal_id"`
}

// UpdateInput is a partial update. Nil pointers leave a column untouched;
// Notes and GoalID also distinguish an explicit null, which clears them.
type UpdateInput struct {
	CategoryID      *uint                   `json:"category_id"`
	Name            *string                 `json:"name"`
	TransactionDate *models.Date            `json:"transaction_date"`
	Amount          *decimal.Decimal        `json:"amount"`
	Notes           models.Nullable[string] `json:"notes"`
	GoalID          models.Nullable[uint]   `json:"goal_id"`
}

func (in CreateInput) validate() error {
	if in.CategoryID == nil {
		return apperr.Validation("category_id is required")
	}
	if err := checkName(in.Name); err != nil {
		return err
	}
	if in.TransactionDate == nil || in.TransactionDate.IsZero() {
		return apperr.Validation("transaction_date is required")
	}
	if in.Amount == nil {
		return apperr.Validation("amount is required")
	}
	return money.Check("amount", *in.Amount)
}

func (in UpdateInput) validate() error {
	if in.Name != nil {
		if err := checkName(*in.Name); err != nil {
			return err
		}
	}
	if in.TransactionDate != nil && in.TransactionDate.IsZero() {
		return apperr.Validation("transaction_date must be a date")
	}
	if in.Amount != nil {
		return money.Check("amount", *in.Amount)
	}
	return nil
}

func checkName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return apperr.Validation("name must be at most %d characters", maxNameLen)
	}
	return nil
}

// apply copies the present fields of in onto t and returns the names of the
// columns that changed.
func (in UpdateInput) apply(t *models.Transaction) []string {
	var cols []string
	if in.CategoryID != nil && *in.CategoryID != t.CategoryID {
		t.CategoryID = *in.CategoryID
		cols = append(cols, "category_id")
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name != t.Name {
			t.Name = name
			cols = append(cols, "name")
		}
	}
	if in.TransactionDate != nil && !in.TransactionDate.Equal(t.TransactionDate.Time) {
		t.TransactionDate = *in.TransactionDate
		cols = append(cols, "transaction_date")
	}
	if in.Amount != nil && !in.Amount.Equal(t.Amount) {
		t.Amount = *in.Amount
		cols = append(cols, "amount")
	}
	if in.Notes.Set && !equalPtr(in.Notes.Value, t.Notes) {
		t.Notes = in.Notes.Value
		cols = append(cols, "notes")
	}
	if in.GoalID.Set && !equalPtr(in.GoalID.Value, t.GoalID) {
		t.GoalID = in.GoalID.Value
		cols = append(cols, "goal_id")
	}
	return cols
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
