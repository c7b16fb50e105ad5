// Package goals keeps savings goal balances in step with the transactions
// linked to them.
//
// A transaction contributes to a goal when it has a goal id and its category
// is a saving category. Every create, update and delete of a transaction is
// translated into signed deltas on the goals it contributed to before and
// after the change; deltas are applied as relative updates so concurrent
// requests cannot lose each other's adjustments.
package goals

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"mankeu/models"
)

// Store is the persistence the reconciler needs. Implementations must run
// inside the same database transaction as the transaction row mutation.
type Store interface {
	// CategoryType returns the type of a category; ok is false when the
	// category does not exist.
	CategoryType(ctx context.Context, categoryID uint) (t models.CategoryType, ok bool, err error)
	// AdjustSaving adds delta to the saving owned by userID; found is false
	// when no such saving exists.
	AdjustSaving(ctx context.Context, userID, savingID uint, delta decimal.Decimal) (found bool, err error)
}

// Contribution is the part of a transaction that matters for goal balances.
type Contribution struct {
	GoalID     *uint
	CategoryID uint
	Amount     decimal.Decimal
}

// Of extracts the contribution of a transaction row.
func Of(t *models.Transaction) Contribution {
	c := Contribution{CategoryID: t.CategoryID, Amount: t.Amount}
	if t.GoalID != nil {
		id := *t.GoalID
		c.GoalID = &id
	}
	return c
}

// Reconciler applies goal deltas for one user within one unit of work.
type Reconciler struct {
	store      Store
	logger     *slog.Logger
	categories map[uint]models.CategoryType
}

func New(store Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, logger: logger, categories: map[uint]models.CategoryType{}}
}

// Created adds the contribution of a newly created transaction.
func (r *Reconciler) Created(ctx context.Context, userID uint, c Contribution) error {
	return r.reconcile(ctx, userID, nil, &c)
}

// Updated moves a transaction's contribution from its state before the
// update to its state after it. When both sides hit the same goal only the
// net difference is written.
func (r *Reconciler) Updated(ctx context.Context, userID uint, before, after Contribution) error {
	return r.reconcile(ctx, userID, &before, &after)
}

// Deleted removes the contribution of a transaction about to be deleted.
func (r *Reconciler) Deleted(ctx context.Context, userID uint, c Contribution) error {
	return r.reconcile(ctx, userID, &c, nil)
}

func (r *Reconciler) reconcile(ctx context.Context, userID uint, before, after *Contribution) error {
	deltas := map[uint]decimal.Decimal{}
	var order []uint
	add := func(goalID uint, d decimal.Decimal) {
		cur, seen := deltas[goalID]
		if !seen {
			order = append(order, goalID)
		}
		deltas[goalID] = cur.Add(d)
	}

	if before != nil {
		ok, err := r.eligible(ctx, before)
		if err != nil {
			return err
		}
		if ok {
			add(*before.GoalID, before.Amount.Neg())
		}
	}
	if after != nil {
		ok, err := r.eligible(ctx, after)
		if err != nil {
			return err
		}
		if ok {
			add(*after.GoalID, after.Amount)
		}
	}

	for _, goalID := range order {
		delta := deltas[goalID]
		if delta.IsZero() {
			continue
		}
		found, err := r.store.AdjustSaving(ctx, userID, goalID, delta)
		if err != nil {
			return fmt.Errorf("adjust goal %d: %w", goalID, err)
		}
		if !found {
			r.logger.WarnContext(ctx, "goal missing, balance adjustment skipped",
				"goal_id", goalID, "user_id", userID, "delta", delta.String())
		}
	}
	return nil
}

func (r *Reconciler) eligible(ctx context.Context, c *Contribution) (bool, error) {
	if c.GoalID == nil {
		return false, nil
	}
	t, cached := r.categories[c.CategoryID]
	if !cached {
		var ok bool
		var err error
		t, ok, err = r.store.CategoryType(ctx, c.CategoryID)
		if err != nil {
			return false, fmt.Errorf("load category %d: %w", c.CategoryID, err)
		}
		if !ok {
			r.logger.DebugContext(ctx, "category missing, goal contribution ignored",
				"category_id", c.CategoryID, "goal_id", *c.GoalID)
			return false, nil
		}
		r.categories[c.CategoryID] = t
	}
	return t == models.CategorySaving, nil
}
