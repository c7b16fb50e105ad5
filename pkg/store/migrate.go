package store

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"mankeu/models"
)

// DefaultCategories are created on first start so a fresh install can record
// transactions right away.
var DefaultCategories = []models.Category{
	{Name: "Salary", Type: models.CategoryIncome},
	{Name: "Food & Drinks", Type: models.CategoryExpense},
	{Name: "Transport", Type: models.CategoryExpense},
	{Name: "Bills", Type: models.CategoryExpense},
	{Name: "Shopping", Type: models.CategoryExpense},
	{Name: "Savings", Type: models.CategorySaving},
}

// Migrate creates or updates every table. Models are migrated one by one and
// failures are logged, not returned, so a permission problem on one table
// does not keep the others from being created.
func Migrate(ctx context.Context, db *gorm.DB, logger *slog.Logger) {
	db = db.WithContext(ctx)
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			logger.WarnContext(ctx, "migration warning", "table", tableName(db, m), "error", err)
		}
	}
	// Debts created before remaining_amount existed still owe their full
	// amount.
	res := db.Exec(`UPDATE debts SET remaining_amount = amount
		WHERE status = ? AND remaining_amount = 0 AND amount > 0
		AND NOT EXISTS (SELECT 1 FROM debt_payments p WHERE p.debt_id = debts.id)`, models.DebtUnpaid)
	if res.Error != nil {
		logger.WarnContext(ctx, "migration warning", "table", "debts", "error", res.Error)
	} else if res.RowsAffected > 0 {
		logger.InfoContext(ctx, "backfilled debt remaining amounts", "rows", res.RowsAffected)
	}
}

// SeedCategories inserts the default categories that are missing by name.
func SeedCategories(ctx context.Context, db *gorm.DB, logger *slog.Logger) error {
	db = db.WithContext(ctx)
	for _, c := range DefaultCategories {
		var n int64
		if err := db.Model(&models.Category{}).Where("name = ?", c.Name).Count(&n).Error; err != nil {
			return fmt.Errorf("count category %q: %w", c.Name, err)
		}
		if n > 0 {
			continue
		}
		c := c
		if err := db.Create(&c).Error; err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
		logger.InfoContext(ctx, "seeded category", "name", c.Name, "type", c.Type)
	}
	return nil
}

func tableName(db *gorm.DB, m any) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(m); err != nil || stmt.Schema == nil {
		return fmt.Sprintf("%T", m)
	}
	return stmt.Schema.Table
}
