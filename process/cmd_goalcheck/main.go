package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"mankeu/pkg/config"
	"mankeu/pkg/store"
	"mankeu/process/goalcheck"
)

func main() {
	userID := flag.Uint("user", 0, "only check savings of this user id (0 = all users)")
	all := flag.Bool("all", false, "list balanced savings too")
	fix := flag.Bool("fix", false, "rewrite drifted balances (requires --baseline-zero)")
	baselineZero := flag.Bool("baseline-zero", false, "assume every saving started at 0")
	flag.Parse()

	if *fix && !*baselineZero {
		log.Fatal("--fix rewrites starting balances; pass --baseline-zero to confirm")
	}
	config.LoadDotEnv()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	db, err := store.Open(dsn, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	rows, err := goalcheck.Check(ctx, db, uint(*userID))
	if err != nil {
		log.Fatal(err)
	}
	drifted := goalcheck.Print(os.Stdout, rows, *all)
	fmt.Printf("%d savings checked, %d differ from their contributions\n", len(rows), drifted)
	if !*fix || drifted == 0 {
		return
	}
	fixed, err := goalcheck.ResetToContributions(ctx, db, uint(*userID))
	if err != nil {
		log.Fatalf("fix failed: %v", err)
	}
	fmt.Printf("reset %d savings to their contribution sums\n", len(fixed))
}
