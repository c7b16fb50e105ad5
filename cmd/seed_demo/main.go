package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"gorm.io/gorm"

	"mankeu/models"
	"mankeu/pkg/auth"
	"mankeu/pkg/config"
	"mankeu/pkg/ledger"
	"mankeu/pkg/store"
	"mankeu/process/demo"
)

func main() {
	email := flag.String("email", "demo@mankeu.local", "demo account email")
	password := flag.String("password", "demo123", "demo account password")
	name := flag.String("name", "Demo User", "demo account name")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	months := flag.Int("months", 3, "months of history")
	transactions := flag.Int("transactions", 60, "number of transactions")
	goals := flag.Int("goals", 2, "number of savings goals")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := config.Load(ctx, nil)
	if err != nil {
		log.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	db, err := store.Open(cfg.DSN, logger)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close(db)

	store.Migrate(ctx, db, logger)
	if err := store.SeedCategories(ctx, db, logger); err != nil {
		log.Fatalf("seed categories: %v", err)
	}

	user, err := ensureUser(ctx, db, *email, *password, *name)
	if err != nil {
		log.Fatal(err)
	}
	sum, err := demo.Seed(ctx, db, ledger.New(db, logger), user.ID, demo.Options{
		Seed:         *seed,
		Months:       *months,
		Transactions: *transactions,
		Goals:        *goals,
	}, logger)
	if err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	fmt.Printf("seeded user %s id=%d: %d goals, %d transactions, %d budgets, %d bills, %d debts, %d incomes\n",
		user.Email, user.ID, sum.Goals, sum.Transactions, sum.Budgets, sum.Bills, sum.Debts, sum.Incomes)
}

func ensureUser(ctx context.Context, db *gorm.DB, email, password, name string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user = models.User{Email: email, Name: name, HashedPassword: hash}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create demo user: %w", err)
	}
	return &user, nil
}
