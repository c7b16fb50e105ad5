// Package debt keeps a debt's remaining amount and status consistent with
// its payments.
package debt

import (
	"github.com/shopspring/decimal"

	"mankeu/models"
)

// Opening returns the remaining amount of a newly created debt.
func Opening(d *models.Debt) {
	if d.Status == models.DebtPaid {
		d.RemainingAmount = decimal.Zero
		return
	}
	d.RemainingAmount = d.Amount
}

// Settle reconciles d after a partial update of its amount or status. before
// is the row as it was read. What was already paid (amount minus remaining)
// is kept when the amount changes. An explicit status change wins: paid
// clears the remainder and unpaid restores it when nothing was left.
// Otherwise a changed amount lets the status follow the remainder. The extra changed columns are
// returned.
func Settle(before models.Debt, d *models.Debt) []string {
	var cols []string
	remaining := d.RemainingAmount
	if !d.Amount.Equal(before.Amount) {
		paid := before.Amount.Sub(before.RemainingAmount)
		if paid.IsNegative() {
			paid = decimal.Zero
		}
		remaining = decimal.Max(decimal.Zero, d.Amount.Sub(paid))
	}
	status := d.Status
	switch {
	case d.Status != before.Status && d.Status == models.DebtPaid:
		remaining = decimal.Zero
	case d.Status != before.Status && d.Status == models.DebtUnpaid:
		if !remaining.IsPositive() {
			remaining = d.Amount
		}
	case !d.Amount.Equal(before.Amount):
		status = statusOf(remaining)
	}
	if !remaining.Equal(d.RemainingAmount) {
		d.RemainingAmount = remaining
		cols = append(cols, "remaining_amount")
	}
	if status != d.Status {
		d.Status = status
		cols = append(cols, "status")
	}
	return cols
}

// Pay takes amount off the remainder. Overpaying leaves nothing remaining.
func Pay(d *models.Debt, amount decimal.Decimal) {
	d.RemainingAmount = decimal.Max(decimal.Zero, d.RemainingAmount.Sub(amount))
	d.Status = statusOf(d.RemainingAmount)
}

// Unpay puts a deleted payment back, never above the debt amount.
func Unpay(d *models.Debt, amount decimal.Decimal) {
	d.RemainingAmount = decimal.Min(d.Amount, d.RemainingAmount.Add(amount))
	if d.RemainingAmount.IsPositive() {
		d.Status = models.DebtUnpaid
	}
}

// Toggle flips the paid flag. Marking paid clears the remainder, marking
// unpaid restores the full amount.
func Toggle(d *models.Debt) {
	if d.Status == models.DebtPaid {
		d.Status = models.DebtUnpaid
		d.RemainingAmount = d.Amount
		return
	}
	d.Status = models.DebtPaid
	d.RemainingAmount = decimal.Zero
}

func statusOf(remaining decimal.Decimal) models.DebtStatus {
	if remaining.IsPositive() {
		return models.DebtUnpaid
	}
	return models.DebtPaid
}
