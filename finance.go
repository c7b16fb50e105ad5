package main

import (
	"slices"
	"strings"
	"unicode/utf8"

	"mankeu/models"
	"mankeu/pkg/apperr"
	"mankeu/pkg/debt"
	"mankeu/pkg/money"

	"github.com/shopspring/decimal"
)

const maxNameLen = 100

type savingInput struct {
	Name       string           `json:"name"`
	Amount     *decimal.Decimal `json:"amount"`
	SavingDate *models.Date     `json:"saving_date"`
}

type savingPatch struct {
	Name       *string          `json:"name"`
	Amount     *decimal.Decimal `json:"amount"`
	SavingDate *models.Date     `json:"saving_date"`
}

// savings are goals. Amount is the starting balance; afterwards goal-linked
// transactions move it.
var savings = resource[models.Saving, savingInput, savingPatch]{
	name:  "saving",
	order: "id",
	create: func(userID uint, in *savingInput) (*models.Saving, error) {
		name, err := checkName("name", in.Name)
		if err != nil {
			return nil, err
		}
		amount := decimal.Zero
		if in.Amount != nil {
			if err := money.Check("amount", *in.Amount); err != nil {
				return nil, err
			}
			amount = *in.Amount
		}
		if err := requireDate("saving_date", in.SavingDate); err != nil {
			return nil, err
		}
		return &models.Saving{UserID: userID, Name: name, Amount: amount, SavingDate: *in.SavingDate}, nil
	},
	update: func(row *models.Saving, in *savingPatch) ([]string, error) {
		var p patch
		p.name("name", in.Name, &row.Name)
		p.amount("amount", in.Amount, &row.Amount, false)
		p.date("saving_date", in.SavingDate, &row.SavingDate)
		return p.result()
	},
}

type budgetInput struct {
	CategoryID   *uint            `json:"category_id"`
	Month        *int             `json:"month"`
	Year         *int             `json:"year"`
	BudgetAmount *decimal.Decimal `json:"budget_amount"`
}

var budgets = resource[models.MonthlyBudget, budgetInput, budgetInput]{
	name:  "budget",
	order: "year DESC, month DESC, id",
	create: func(userID uint, in *budgetInput) (*models.MonthlyBudget, error) {
		if in.CategoryID == nil || in.Month == nil || in.Year == nil || in.BudgetAmount == nil {
			return nil, apperr.Validation("category_id, month, year and budget_amount are required")
		}
		row := &models.MonthlyBudget{UserID: userID}
		var p patch
		p.id("category_id", in.CategoryID, &row.CategoryID)
		p.intRange("month", in.Month, &row.Month, 1, 12)
		p.intRange("year", in.Year, &row.Year, 1900, 9999)
		p.amount("budget_amount", in.BudgetAmount, &row.BudgetAmount, true)
		if _, err := p.result(); err != nil {
			return nil, err
		}
		return row, nil
	},
	update: func(row *models.MonthlyBudget, in *budgetInput) ([]string, error) {
		var p patch
		p.id("category_id", in.CategoryID, &row.CategoryID)
		p.intRange("month", in.Month, &row.Month, 1, 12)
		p.intRange("year", in.Year, &row.Year, 1900, 9999)
		p.amount("budget_amount", in.BudgetAmount, &row.BudgetAmount, true)
		return p.result()
	},
}

type fixedExpenseInput struct {
	Name   *string          `json:"name"`
	Amount *decimal.Decimal `json:"amount"`
	DueDay *int             `json:"due_day"`
}

var fixedExpenses = resource[models.FixedExpense, fixedExpenseInput, fixedExpenseInput]{
	name:  "fixed expense",
	order: "due_day, id",
	create: func(userID uint, in *fixedExpenseInput) (*models.FixedExpense, error) {
		if in.Name == nil || in.Amount == nil || in.DueDay == nil {
			return nil, apperr.Validation("name, amount and due_day are required")
		}
		row := &models.FixedExpense{UserID: userID}
		var p patch
		p.name("name", in.Name, &row.Name)
		p.amount("amount", in.Amount, &row.Amount, true)
		p.intRange("due_day", in.DueDay, &row.DueDay, 1, 31)
		if _, err := p.result(); err != nil {
			return nil, err
		}
		return row, nil
	},
	update: func(row *models.FixedExpense, in *fixedExpenseInput) ([]string, error) {
		var p patch
		p.name("name", in.Name, &row.Name)
		p.amount("amount", in.Amount, &row.Amount, true)
		p.intRange("due_day", in.DueDay, &row.DueDay, 1, 31)
		return p.result()
	},
}

type debtInput struct {
	Name    *string            `json:"name"`
	Amount  *decimal.Decimal   `json:"amount"`
	Status  *models.DebtStatus `json:"status"`
	DueDate *models.Date       `json:"due_date"`
}

var debts = resource[models.Debt, debtInput, debtInput]{
	name:  "debt",
	order: "due_date, id",
	create: func(userID uint, in *debtInput) (*models.Debt, error) {
		if in.Name == nil || in.Amount == nil {
			return nil, apperr.Validation("name and amount are required")
		}
		if err := requireDate("due_date", in.DueDate); err != nil {
			return nil, err
		}
		row := &models.Debt{UserID: userID, Status: models.DebtUnpaid}
		var p patch
		p.name("name", in.Name, &row.Name)
		p.amount("amount", in.Amount, &row.Amount, true)
		p.status(in.Status, &row.Status)
		p.date("due_date", in.DueDate, &row.DueDate)
		if _, err := p.result(); err != nil {
			return nil, err
		}
		debt.Opening(row)
		return row, nil
	},
	update: func(row *models.Debt, in *debtInput) ([]string, error) {
		before := *row
		var p patch
		p.name("name", in.Name, &row.Name)
		p.amount("amount", in.Amount, &row.Amount, true)
		p.status(in.Status, &row.Status)
		p.date("due_date", in.DueDate, &row.DueDate)
		cols, err := p.result()
		if err != nil {
			return nil, err
		}
		for _, col := range debt.Settle(before, row) {
			if !slices.Contains(cols, col) {
				cols = append(cols, col)
			}
		}
		return cols, nil
	},
}

type incomeInput struct {
	Source     *string          `json:"source"`
	Amount     *decimal.Decimal `json:"amount"`
	IncomeDate *models.Date     `json:"income_date"`
}

var incomes = resource[models.Income, incomeInput, incomeInput]{
	name:  "income",
	order: "income_date DESC, id DESC",
	create: func(userID uint, in *incomeInput) (*models.Income, error) {
		if in.Source == nil || in.Amount == nil {
			return nil, apperr.Validation("source and amount are required")
		}
		if err := requireDate("income_date", in.IncomeDate); err != nil {
			return nil, err
		}
		row := &models.Income{UserID: userID}
		var p patch
		p.name("source", in.Source, &row.Source)
		p.amount("amount", in.Amount, &row.Amount, true)
		p.date("income_date", in.IncomeDate, &row.IncomeDate)
		if _, err := p.result(); err != nil {
			return nil, err
		}
		return row, nil
	},
	update: func(row *models.Income, in *incomeInput) ([]string, error) {
		var p patch
		p.name("source", in.Source, &row.Source)
		p.amount("amount", in.Amount, &row.Amount, true)
		p.date("income_date", in.IncomeDate, &row.IncomeDate)
		return p.result()
	},
}

// patch collects the changed columns of a partial update and stops at the
// first invalid field.
type patch struct {
	cols []string
	err  error
}

func (p *patch) set(col string) { p.cols = append(p.cols, col) }

func (p *patch) name(col string, v *string, dst *string) {
	if p.err != nil || v == nil {
		return
	}
	name, err := checkName(col, *v)
	if err != nil {
		p.err = err
		return
	}
	if name != *dst {
		*dst = name
		p.set(col)
	}
}

func (p *patch) amount(col string, v *decimal.Decimal, dst *decimal.Decimal, nonNegative bool) {
	if p.err != nil || v == nil {
		return
	}
	check := money.Check
	if nonNegative {
		check = money.CheckNonNegative
	}
	if err := check(col, *v); err != nil {
		p.err = err
		return
	}
	if !v.Equal(*dst) {
		*dst = *v
		p.set(col)
	}
}

func (p *patch) intRange(col string, v *int, dst *int, lo, hi int) {
	if p.err != nil || v == nil {
		return
	}
	if *v < lo || *v > hi {
		p.err = apperr.Validation("%s must be between %d and %d", col, lo, hi)
		return
	}
	if *v != *dst {
		*dst = *v
		p.set(col)
	}
}

func (p *patch) id(col string, v *uint, dst *uint) {
	if p.err != nil || v == nil {
		return
	}
	if *v == 0 {
		p.err = apperr.Validation("%s is required", col)
		return
	}
	if *v != *dst {
		*dst = *v
		p.set(col)
	}
}

func (p *patch) date(col string, v *models.Date, dst *models.Date) {
	if p.err != nil || v == nil {
		return
	}
	if v.IsZero() {
		p.err = apperr.Validation("%s must be a date", col)
		return
	}
	if !v.Equal(dst.Time) {
		*dst = *v
		p.set(col)
	}
}

func (p *patch) status(v *models.DebtStatus, dst *models.DebtStatus) {
	if p.err != nil || v == nil {
		return
	}
	if !v.Valid() {
		p.err = apperr.Validation("status must be one of unpaid, paid")
		return
	}
	if *v != *dst {
		*dst = *v
		p.set("status")
	}
}

func (p *patch) result() ([]string, error) {
	return p.cols, p.err
}

func checkName(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", apperr.Validation("%s is required", field)
	}
	if utf8.RuneCountInString(v) > maxNameLen {
		return "", apperr.Validation("%s must be at most %d characters", field, maxNameLen)
	}
	return v, nil
}

func requireDate(field string, d *models.Date) error {
	if d == nil || d.IsZero() {
		return apperr.Validation("%s is required", field)
	}
	return nil
}
