package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"mankeu/models"
)

func TestParseMonth(t *testing.T) {
	got, err := ParseMonth("2024-02")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", got)
	}
	if _, err := ParseMonth("02-2024"); err == nil {
		t.Fatal("expected error")
	}
}

func TestAttachBudgets(t *testing.T) {
	r := &Monthly{Lines: []CategoryLine{
		{CategoryID: 2, Name: "Food", Type: models.CategoryExpense, Total: decimal.NewFromInt(-120)},
		{CategoryID: 1, Name: "Salary", Type: models.CategoryIncome, Total: decimal.NewFromInt(5000)},
	}}
	attachBudgets(r, []models.MonthlyBudget{
		{CategoryID: 2, BudgetAmount: decimal.NewFromInt(100)},
		{CategoryID: 2, BudgetAmount: decimal.NewFromInt(50)},
		{CategoryID: 4, BudgetAmount: decimal.NewFromInt(80)},
	})
	if rem, ok := r.Lines[0].Remaining(); !ok || !rem.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected 30 remaining, got %s %v", rem, ok)
	}
	if _, ok := r.Lines[1].Remaining(); ok {
		t.Fatal("salary has no budget")
	}
	if len(r.Lines) != 3 || r.Lines[2].CategoryID != 4 || !r.Lines[2].Budget.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("unspent budget line missing: %+v", r.Lines)
	}
}

func TestPrint(t *testing.T) {
	b := decimal.NewFromInt(100)
	r := &Monthly{
		UserID: 3,
		Start:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Lines:  []CategoryLine{{Name: "Food", Type: models.CategoryExpense, Total: decimal.NewFromInt(-150), Count: 4, Budget: &b}},
		Totals: map[models.CategoryType]decimal.Decimal{models.CategoryExpense: decimal.NewFromInt(-150)},
	}
	var buf bytes.Buffer
	Print(&buf, r)
	out := buf.String()
	for _, want := range []string{"month=2024-05", "Food|expense|4|-150.00|100.00|-50.00", "income   0.00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
