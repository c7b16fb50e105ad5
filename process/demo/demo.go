// Package demo fills a database with a believable account for trying the
// API: goals, budgets, bills and a few months of transactions.
package demo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mankeu/models"
	"mankeu/pkg/ledger"
)

type Options struct {
	Seed         int64
	Months       int
	Transactions int
	Goals        int
	Now          time.Time
}

// Summary counts what Seed created.
type Summary struct {
	Goals        int
	Transactions int
	Budgets      int
	Bills        int
	Debts        int
	Incomes      int
}

// Generator produces rows from a seeded faker so runs are reproducible.
type Generator struct {
	f   *gofakeit.Faker
	now time.Time
	// window is the number of days back transactions may fall on.
	window int
}

func NewGenerator(seed int64, now time.Time, months int) *Generator {
	if months <= 0 {
		months = 1
	}
	return &Generator{f: gofakeit.New(seed), now: now, window: months * 30}
}

func (g *Generator) money(min, max float64) decimal.Decimal {
	// Rupiah amounts, rounded to whole hundreds.
	return decimal.NewFromFloat(g.f.Price(min, max)).Div(decimal.NewFromInt(100)).Round(0).Mul(decimal.NewFromInt(100))
}

func (g *Generator) pastDate() models.Date {
	return models.NewDate(g.now.AddDate(0, 0, -g.f.Number(0, g.window-1)))
}

func (g *Generator) Goal(userID uint) models.Saving {
	return models.Saving{
		UserID:     userID,
		Name:       fmt.Sprintf("%s fund", g.f.RandomString([]string{"Holiday", "Laptop", "Emergency", "Wedding", "Motorbike", "Education"})),
		Amount:     g.money(0, 2_000_000),
		SavingDate: g.pastDate(),
	}
}

// Transaction builds a transaction in one of cats. Saving categories are
// linked to one of goals when there is one.
func (g *Generator) Transaction(cats []models.Category, goals []models.Saving) ledger.CreateInput {
	cat := cats[g.f.Number(0, len(cats)-1)]
	catID := cat.ID
	date := g.pastDate()
	in := ledger.CreateInput{CategoryID: &catID, TransactionDate: &date}

	var amount decimal.Decimal
	switch cat.Type {
	case models.CategoryIncome:
		in.Name = g.f.Company() + " payment"
		amount = g.money(500_000, 10_000_000)
	case models.CategorySaving:
		in.Name = "Deposit"
		amount = g.money(50_000, 1_000_000)
		if len(goals) > 0 {
			goal := goals[g.f.Number(0, len(goals)-1)]
			in.GoalID = &goal.ID
			in.Name = "Deposit " + goal.Name
		}
		// occasional withdrawal
		if g.f.Number(1, 10) == 1 {
			amount = amount.Neg()
			in.Name = "Withdrawal"
		}
	default:
		in.Name = g.f.Noun()
		amount = g.money(5_000, 750_000)
	}
	in.Amount = &amount
	if g.f.Bool() {
		note := g.f.Sentence(6)
		in.Notes = &note
	}
	return in
}

// Seed creates demo data for userID. Transactions go through svc so goal
// balances follow the same rules as API writes.
func Seed(ctx context.Context, db *gorm.DB, svc *ledger.Service, userID uint, opts Options, logger *slog.Logger) (Summary, error) {
	var sum Summary
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	g := NewGenerator(opts.Seed, now, opts.Months)
	db = db.WithContext(ctx)

	var cats []models.Category
	if err := db.Order("id").Find(&cats).Error; err != nil {
		return sum, err
	}
	if len(cats) == 0 {
		return sum, fmt.Errorf("no categories; run the server or the migrate command first")
	}

	goals := make([]models.Saving, 0, opts.Goals)
	for i := 0; i < opts.Goals; i++ {
		s := g.Goal(userID)
		if err := db.Omit(clause.Associations).Create(&s).Error; err != nil {
			return sum, fmt.Errorf("create goal: %w", err)
		}
		goals = append(goals, s)
	}
	sum.Goals = len(goals)

	for i := 0; i < opts.Transactions; i++ {
		if _, err := svc.Create(ctx, userID, g.Transaction(cats, goals)); err != nil {
			return sum, fmt.Errorf("create transaction %d: %w", i+1, err)
		}
		sum.Transactions++
	}

	var rows []any
	for _, c := range cats {
		if c.Type != models.CategoryExpense {
			continue
		}
		for m := 0; m < opts.Months; m++ {
			month := now.AddDate(0, -m, 0)
			rows = append(rows, &models.MonthlyBudget{
				UserID: userID, CategoryID: c.ID,
				Month: int(month.Month()), Year: month.Year(),
				BudgetAmount: g.money(500_000, 3_000_000),
			})
			sum.Budgets++
		}
	}
	for _, name := range []string{"Rent", "Electricity", "Internet", "Phone"} {
		rows = append(rows, &models.FixedExpense{UserID: userID, Name: name, Amount: g.money(100_000, 3_000_000), DueDay: g.f.Number(1, 28)})
		sum.Bills++
	}
	for i := 0; i < 2; i++ {
		amount := g.money(100_000, 5_000_000)
		status, remaining := models.DebtUnpaid, amount
		if i == 0 {
			status, remaining = models.DebtPaid, decimal.Zero
		}
		rows = append(rows, &models.Debt{
			UserID: userID, Name: "Loan from " + g.f.FirstName(),
			Amount: amount, RemainingAmount: remaining, Status: status,
			DueDate: models.NewDate(now.AddDate(0, 0, g.f.Number(7, 120))),
		})
		sum.Debts++
	}
	for m := 0; m < opts.Months; m++ {
		rows = append(rows, &models.Income{
			UserID: userID, Source: g.f.Company(),
			Amount:     g.money(3_000_000, 15_000_000),
			IncomeDate: models.NewDate(time.Date(now.Year(), now.Month()-time.Month(m), 25, 0, 0, 0, 0, time.UTC)),
		})
		sum.Incomes++
	}
	for _, r := range rows {
		if err := db.Omit(clause.Associations).Create(r).Error; err != nil {
			return sum, fmt.Errorf("create %T: %w", r, err)
		}
	}
	logger.InfoContext(ctx, "demo data seeded", "user_id", userID,
		"goals", sum.Goals, "transactions", sum.Transactions, "budgets", sum.Budgets)
	return sum, nil
}
