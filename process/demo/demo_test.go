package demo

import (
	"reflect"
	"testing"
	"time"

	"mankeu/models"
	"mankeu/pkg/money"
)

var testCats = []models.Category{
	{ID: 1, Name: "Salary", Type: models.CategoryIncome},
	{ID: 2, Name: "Food", Type: models.CategoryExpense},
	{ID: 3, Name: "Savings", Type: models.CategorySaving},
}

func TestGeneratorIsReproducible(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	a := NewGenerator(7, now, 3)
	b := NewGenerator(7, now, 3)
	for i := 0; i < 20; i++ {
		x, y := a.Transaction(testCats, nil), b.Transaction(testCats, nil)
		if !reflect.DeepEqual(x, y) {
			t.Fatalf("run %d differs: %+v vs %+v", i, x, y)
		}
	}
}

func TestGeneratedTransactionsAreValid(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	g := NewGenerator(42, now, 2)
	goals := []models.Saving{{ID: 10, Name: "Laptop fund"}, {ID: 11, Name: "Trip fund"}}
	earliest := models.NewDate(now.AddDate(0, 0, -60))
	linked := 0
	for i := 0; i < 200; i++ {
		in := g.Transaction(testCats, goals)
		if in.Name == "" || in.CategoryID == nil || in.Amount == nil {
			t.Fatalf("incomplete input %+v", in)
		}
		if err := money.Check("amount", *in.Amount); err != nil {
			t.Fatalf("amount %s invalid: %v", in.Amount, err)
		}
		if in.TransactionDate.Before(earliest.Time) || in.TransactionDate.After(now) {
			t.Fatalf("date %s outside window", in.TransactionDate.Format("2006-01-02"))
		}
		if in.GoalID != nil {
			linked++
			if *in.CategoryID != 3 {
				t.Fatalf("goal linked on non-saving category %d", *in.CategoryID)
			}
			if *in.GoalID != 10 && *in.GoalID != 11 {
				t.Fatalf("unknown goal %d", *in.GoalID)
			}
		}
	}
	if linked == 0 {
		t.Fatal("expected some goal-linked transactions")
	}
}

func TestGoalStartsNonNegative(t *testing.T) {
	g := NewGenerator(1, time.Now(), 1)
	for i := 0; i < 20; i++ {
		s := g.Goal(5)
		if s.UserID != 5 || s.Amount.IsNegative() || s.Name == "" {
			t.Fatalf("unexpected goal %+v", s)
		}
	}
}
