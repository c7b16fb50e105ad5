// Package report summarizes one user's month: totals per category type and
// spending against each monthly budget.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"mankeu/models"
)

type CategoryLine struct {
	CategoryID uint
	Name       string
	Type       models.CategoryType
	Total      decimal.Decimal
	Count      int64
	Budget     *decimal.Decimal
}

// Remaining is the unspent part of the budget; negative when overspent.
func (l CategoryLine) Remaining() (decimal.Decimal, bool) {
	if l.Budget == nil {
		return decimal.Zero, false
	}
	return l.Budget.Sub(l.Total.Abs()), true
}

type Monthly struct {
	UserID uint
	Start  time.Time
	Lines  []CategoryLine
	Totals map[models.CategoryType]decimal.Decimal
	Rows   []models.Transaction
}

// ParseMonth reads YYYY-MM and returns the first day of that month in UTC.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
}

const categoryTotalsSQL = `
SELECT c.id AS category_id, c.name, c.type,
       COALESCE(SUM(t.amount), 0) AS total, COUNT(t.id) AS count
FROM categories c
JOIN transactions t ON t.category_id = c.id
WHERE t.user_id = ? AND t.transaction_date >= ? AND t.transaction_date < ?
GROUP BY c.id, c.name, c.type
ORDER BY c.type, c.name`

// Build collects the report for the month starting at start. With list set
// the month's transactions are loaded too.
func Build(ctx context.Context, db *gorm.DB, userID uint, start time.Time, list bool) (*Monthly, error) {
	db = db.WithContext(ctx)
	end := start.AddDate(0, 1, 0)
	r := &Monthly{UserID: userID, Start: start, Totals: map[models.CategoryType]decimal.Decimal{}}

	if err := db.Raw(categoryTotalsSQL, userID, start, end).Scan(&r.Lines).Error; err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	var budgets []models.MonthlyBudget
	err := db.Where("user_id = ? AND year = ? AND month = ?", userID, start.Year(), int(start.Month())).
		Find(&budgets).Error
	if err != nil {
		return nil, fmt.Errorf("budgets: %w", err)
	}
	attachBudgets(r, budgets)

	for _, l := range r.Lines {
		r.Totals[l.Type] = r.Totals[l.Type].Add(l.Total)
	}
	if list {
		err := db.Where("user_id = ? AND transaction_date >= ? AND transaction_date < ?", userID, start, end).
			Order("transaction_date, id").Find(&r.Rows).Error
		if err != nil {
			return nil, fmt.Errorf("fetch rows failed: %w", err)
		}
	}
	return r, nil
}

// attachBudgets sets each line's budget. Several budgets for the same
// category and month add up; budgets without spending get an empty line.
func attachBudgets(r *Monthly, budgets []models.MonthlyBudget) {
	byCat := map[uint]decimal.Decimal{}
	var order []uint
	for _, b := range budgets {
		if _, ok := byCat[b.CategoryID]; !ok {
			order = append(order, b.CategoryID)
		}
		byCat[b.CategoryID] = byCat[b.CategoryID].Add(b.BudgetAmount)
	}
	seen := map[uint]bool{}
	for i := range r.Lines {
		if b, ok := byCat[r.Lines[i].CategoryID]; ok {
			b := b
			r.Lines[i].Budget = &b
			seen[r.Lines[i].CategoryID] = true
		}
	}
	for _, id := range order {
		if seen[id] {
			continue
		}
		b := byCat[id]
		r.Lines = append(r.Lines, CategoryLine{CategoryID: id, Name: fmt.Sprintf("category %d", id), Type: models.CategoryExpense, Budget: &b})
	}
}

func Print(w io.Writer, r *Monthly) {
	fmt.Fprintf(w, "Report for user=%d month=%s (UTC):\n", r.UserID, r.Start.Format("2006-01"))
	for _, t := range []models.CategoryType{models.CategoryIncome, models.CategoryExpense, models.CategorySaving} {
		fmt.Fprintf(w, "  %-8s %s\n", t, r.Totals[t].StringFixed(2))
	}
	fmt.Fprintln(w, "category|type|transactions|total|budget|remaining")
	for _, l := range r.Lines {
		budget, remaining := "-", "-"
		if rem, ok := l.Remaining(); ok {
			budget, remaining = l.Budget.StringFixed(2), rem.StringFixed(2)
		}
		fmt.Fprintf(w, "%s|%s|%d|%s|%s|%s\n", l.Name, l.Type, l.Count, l.Total.StringFixed(2), budget, remaining)
	}
	for _, t := range r.Rows {
		fmt.Fprintf(w, "%d|%s|%d|%s|%s\n", t.ID, t.TransactionDate.Format("2006-01-02"), t.CategoryID, t.Amount.StringFixed(2), t.Name)
	}
}
