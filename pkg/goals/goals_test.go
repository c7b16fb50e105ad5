package goals

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"mankeu/models"
)

type memSaving struct {
	owner  uint
	amount decimal.Decimal
}

type memStore struct {
	categories map[uint]models.CategoryType
	savings    map[uint]*memSaving
	writes     int
	failAdjust error
}

func newMemStore() *memStore {
	return &memStore{
		categories: map[uint]models.CategoryType{
			1: models.CategorySaving,
			2: models.CategoryExpense,
			3: models.CategoryIncome,
		},
		savings: map[uint]*memSaving{},
	}
}

func (m *memStore) CategoryType(_ context.Context, id uint) (models.CategoryType, bool, error) {
	t, ok := m.categories[id]
	return t, ok, nil
}

func (m *memStore) AdjustSaving(_ context.Context, userID, savingID uint, delta decimal.Decimal) (bool, error) {
	if m.failAdjust != nil {
		return false, m.failAdjust
	}
	s, ok := m.savings[savingID]
	if !ok || s.owner != userID {
		return false, nil
	}
	m.writes++
	s.amount = s.amount.Add(delta)
	return true, nil
}

func (m *memStore) balance(id uint) decimal.Decimal {
	return m.savings[id].amount
}

const (
	saving  uint = 1
	expense uint = 2
	owner   uint = 10
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func goal(id uint) *uint { return &id }

func expectBalance(t *testing.T, m *memStore, id uint, want string) {
	t.Helper()
	if got := m.balance(id); !got.Equal(dec(want)) {
		t.Fatalf("goal %d: expected %s got %s", id, want, got)
	}
}

func TestNetDeltaOnSameGoalUpdate(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	m.savings[5] = &memSaving{owner: owner}
	r := New(m, nil)

	t1 := Contribution{GoalID: goal(5), CategoryID: saving, Amount: dec("100")}
	if err := r.Created(ctx, owner, t1); err != nil {
		t.Fatal(err)
	}
	expectBalance(t, m, 5, "100")

	m.writes = 0
	updated := t1
	updated.Amount = dec("150")
	if err := r.Updated(ctx, owner, t1, updated); err != nil {
		t.Fatal(err)
	}
	expectBalance(t, m, 5, "150")
	if m.writes != 1 {
		t.Fatalf("same-goal update should write once, wrote %d times", m.writes)
	}
}

func TestUnchangedAmountDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	m.savings[5] = &memSaving{owner: owner, amount: dec("80")}
	r := New(m, nil)
	c := Contribution{GoalID: goal(5), CategoryID: saving, Amount: dec("80")}
	if err := r.Updated(ctx, owner, c, c); err != nil {
		t.Fatal(err)
	}
	if m.writes != 0 {
		t.Fatalf("zero net delta must not write, wrote %d", m.writes)
	}
	expectBalance(t, m, 5, "80")
}

func TestGoalReassignment(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	m.savings[1] = &memSaving{owner: owner}
	m.savings[2] = &memSaving{owner: owner}
	r := New(m, nil)

	t1 := Contribution{GoalID: goal(1), CategoryID: saving, Amount: dec("50")}
	t2 := Contribution{GoalID: goal(2), CategoryID: saving, Amount: dec("0")}
	if err := r.Created(ctx, owner, t1); err != nil {
		t.Fatal(err)
	}
	if err := r.Created(ctx, owner, t2); err != nil {
		t.Fatal(err)
	}
	expectBalance(t, m, 1, "50")
	expectBalance(t, m, 2, "0")

	moved := t1
	moved.GoalID = goal(2)
	if err := r.Updated(ctx, owner, t1, moved); err != nil {
		t.Fatal(err)
	}
	expectBalance(t, m, 1, "0")
	expectBalance(t, m, 2, "50")
}

func TestUnlinkAndLink(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	m.savings[3] = &memSaving{owner: owner}
	r := New(m, nil)

	linked := Contribution{GoalID: goal(3), CategoryID: saving, Amount: dec("70.25")}
	unlinked := Contribution{CategoryID: saving, Amount: dec("70.25")}

	if err := r.Updated(ctx, owner, unlinked, linked); err != nil {
		t.Fatal(err)
	}
	expectBalance(t, m, 3, "70.25")
	if err := r.Updated(ctx, owner, linked, unlinked); err != nil {
		t.Fatal(err)
	}
	expectBalance(t, m, 3, "0")
}

func TestDeleteWithMissingGoalIsSkipped(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	r := New(m, logger)

	c := Contribution{GoalID: goal(99), CategoryID: saving, Amount: dec("10")}
	if err := r.Deleted(ctx, owner, c); err != nil {
		t.Fatalf("missing goal must not fail: %v", err)
	}
	if !strings.Contains(buf.String(), "goal missing") || !strings.Contains(buf.String(), "goal_id=99") {
		t.Fatalf("expected warning log, got %q", buf.String())
	}
}

func TestForeignGoalTreatedAsMissing(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	m.savings[4] = &memSaving{owner: 77, amount: dec("500")}
	r := New(m, nil)
	c := Contribution{GoalID: goal(4), CategoryID: saving, Amount: dec("25")}
	if err := r.Created(ctx, owner, c); err != nil {
		t.Fatal(err)
	}
	expectBalance(t, m, 4, "500")
}

func TestCategoryGating(t *testing.T) {
	ctx := context.Background()

	t.Run("create with expense category", func(t *testing.T) {
		m := newMemStore()
		m.savings[1] = &memSaving{owner: owner}
		r := New(m, nil)
		c := Contribution{GoalID: goal(1), CategoryID: expense, Amount: dec("40")}
		if err := r.Created(ctx, owner, c); err != nil {
			t.Fatal(err)
		}
		expectBalance(t, m, 1, "0")
	})

	t.Run("delete with expense category", func(t *testing.T) {
		m := newMemStore()
		m.savings[1] = &memSaving{owner: owner, amount: dec("15")}
		r := New(m, nil)
		c := Contribution{GoalID: goal(1), CategoryID: expense, Amount: dec("40")}
		if err := r.Deleted(ctx, owner, c); err != nil {
			t.Fatal(err)
		}
		expectBalance(t, m, 1, "15")
	})

	t.Run("update within expense category", func(t *testing.T) {
		m := newMemStore()
		m.savings[1] = &memSaving{owner: owner, amount: dec("15")}
		r := New(m, nil)
		before := Contribution{GoalID: goal(1), CategoryID: expense, Amount: dec("40")}
		after := before
		after.Amount = dec("90")
		if err := r.Updated(ctx, owner, before, after); err != nil {
			t.Fatal(err)
		}
		expectBalance(t, m, 1, "15")
	})

	t.Run("recategorize saving to expense", func(t *testing.T) {
		m := newMemStore()
		m.savings[1] = &memSaving{owner: owner}
		r := New(m, nil)
		before := Contribution{GoalID: goal(1), CategoryID: saving, Amount: dec("40")}
		if err := r.Created(ctx, owner, before); err != nil {
			t.Fatal(err)
		}
		after := before
		after.CategoryID = expense
		if err := r.Updated(ctx, owner, before, after); err != nil {
			t.Fatal(err)
		}
		expectBalance(t, m, 1, "0")
	})

	t.Run("missing category", func(t *testing.T) {
		m := newMemStore()
		m.savings[1] = &memSaving{owner: owner}
		r := New(m, nil)
		c := Contribution{GoalID: goal(1), CategoryID: 404, Amount: dec("40")}
		if err := r.Created(ctx, owner, c); err != nil {
			t.Fatal(err)
		}
		expectBalance(t, m, 1, "0")
	})
}

func TestStoreErrorPropagates(t *testing.T) {
	m := newMemStore()
	m.savings[1] = &memSaving{owner: owner}
	m.failAdjust = errors.New("deadlock detected")
	r := New(m, nil)
	err := r.Created(context.Background(), owner, Contribution{GoalID: goal(1), CategoryID: saving, Amount: dec("1")})
	if err == nil || !errors.Is(err, m.failAdjust) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestDecimalExactness(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	m.savings[1] = &memSaving{owner: owner}
	r := New(m, nil)
	for i := 0; i < 10; i++ {
		if err := r.Created(ctx, owner, Contribution{GoalID: goal(1), CategoryID: saving, Amount: dec("0.10")}); err != nil {
			t.Fatal(err)
		}
	}
	expectBalance(t, m, 1, "1.00")
}

// TestInvariantRandomSequences runs random create/update/delete sequences and
// checks after every step that each goal equals the sum of its contributing
// transactions.
func TestInvariantRandomSequences(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	goalIDs := []uint{1, 2, 3}
	categories := []uint{saving, expense}

	for run := 0; run < 50; run++ {
		m := newMemStore()
		for _, id := range goalIDs {
			m.savings[id] = &memSaving{owner: owner}
		}
		r := New(m, nil)
		live := map[int]Contribution{}
		next := 0

		randomContribution := func() Contribution {
			c := Contribution{
				CategoryID: categories[rng.Intn(len(categories))],
				Amount:     decimal.New(int64(rng.Intn(200001)-100000), -2),
			}
			if rng.Intn(4) > 0 {
				c.GoalID = goal(goalIDs[rng.Intn(len(goalIDs))])
			}
			return c
		}
		pick := func() (int, bool) {
			for k := range live {
				return k, true
			}
			return 0, false
		}

		for step := 0; step < 40; step++ {
			switch op := rng.Intn(3); {
			case op == 0 || len(live) == 0:
				c := randomContribution()
				if err := r.Created(ctx, owner, c); err != nil {
					t.Fatal(err)
				}
				live[next] = c
				next++
			case op == 1:
				k, _ := pick()
				after := randomContribution()
				if err := r.Updated(ctx, owner, live[k], after); err != nil {
					t.Fatal(err)
				}
				live[k] = after
			default:
				k, _ := pick()
				if err := r.Deleted(ctx, owner, live[k]); err != nil {
					t.Fatal(err)
				}
				delete(live, k)
			}

			for _, id := range goalIDs {
				want := decimal.Zero
				for _, c := range live {
					if c.GoalID != nil && *c.GoalID == id && c.CategoryID == saving {
						want = want.Add(c.Amount)
					}
				}
				if !m.balance(id).Equal(want) {
					t.Fatalf("run %d step %d goal %d: expected %s got %s", run, step, id, want, m.balance(id))
				}
			}
		}
	}
}

func TestOfCopiesGoalID(t *testing.T) {
	id := uint(8)
	tr := &models.Transaction{CategoryID: saving, Amount: dec("5"), GoalID: &id}
	c := Of(tr)
	id = 9
	if *c.GoalID != 8 {
		t.Fatalf("contribution must not alias the row's goal id")
	}
}
