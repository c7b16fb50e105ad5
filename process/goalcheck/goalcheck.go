// Package goalcheck compares each saving's stored balance with the sum of
// the transactions that contribute to it. The server never recomputes
// balances; this is the offline check for drift.
package goalcheck

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mankeu/models"
)

// Row is one saving with its stored and recomputed figures.
type Row struct {
	SavingID    uint
	UserID      uint
	Name        string
	Stored      decimal.Decimal
	Contributed decimal.Decimal
	Count       int64
}

// Baseline is the part of Stored not explained by contributions: the
// starting amount the user entered, plus any drift.
func (r Row) Baseline() decimal.Decimal {
	return r.Stored.Sub(r.Contributed)
}

// Drifted reports whether the stored balance differs from a zero baseline.
func (r Row) Drifted() bool {
	return !r.Baseline().IsZero()
}

const contributionsSQL = `
SELECT s.id AS saving_id, s.user_id, s.name, s.amount AS stored,
       COALESCE(SUM(t.amount), 0) AS contributed, COUNT(t.id) AS count
FROM savings s
LEFT JOIN transactions t ON t.goal_id = s.id AND t.user_id = s.user_id
  AND t.category_id IN (SELECT id FROM categories WHERE type = ?)
WHERE (? = 0 OR s.user_id = ?)
GROUP BY s.id, s.user_id, s.name, s.amount
ORDER BY s.user_id, s.id`

// Check lists every saving of userID, or of all users when userID is 0.
func Check(ctx context.Context, db *gorm.DB, userID uint) ([]Row, error) {
	var rows []Row
	err := db.WithContext(ctx).Raw(contributionsSQL, models.CategorySaving, userID, userID).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("goal check: %w", err)
	}
	return rows, nil
}

// ResetToContributions rewrites each drifted saving's amount to the sum of
// its contributions, treating every starting balance as zero. The savings
// rows are locked first so concurrent goal-linked writes wait for the fix.
func ResetToContributions(ctx context.Context, db *gorm.DB, userID uint) ([]Row, error) {
	var fixed []Row
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Saving{}).Clauses(clause.Locking{Strength: "UPDATE"})
		if userID != 0 {
			q = q.Where("user_id = ?", userID)
		}
		var ids []uint
		if err := q.Pluck("id", &ids).Error; err != nil {
			return err
		}
		rows, err := Check(ctx, tx, userID)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if !r.Drifted() {
				continue
			}
			err := tx.Model(&models.Saving{}).
				Where("id = ? AND user_id = ?", r.SavingID, r.UserID).
				UpdateColumn("amount", r.Contributed).Error
			if err != nil {
				return fmt.Errorf("reset saving %d: %w", r.SavingID, err)
			}
			fixed = append(fixed, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fixed, nil
}

// Print writes rows as a pipe separated table. With all unset only drifted
// savings are listed.
func Print(w io.Writer, rows []Row, all bool) int {
	drifted := 0
	fmt.Fprintln(w, "saving_id|user_id|name|stored|contributed|baseline|transactions")
	for _, r := range rows {
		if r.Drifted() {
			drifted++
		} else if !all {
			continue
		}
		fmt.Fprintf(w, "%d|%d|%s|%s|%s|%s|%d\n",
			r.SavingID, r.UserID, r.Name,
			r.Stored.StringFixed(2), r.Contributed.StringFixed(2), r.Baseline().StringFixed(2), r.Count)
	}
	return drifted
}
