// Package sanitize empties the application tables of a database, for
// resetting development and staging environments.
package sanitize

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"mankeu/pkg/config"
	"mankeu/pkg/store"
)

// DefaultTables lists the app tables, children before parents.
var DefaultTables = []string{
	"transactions", "monthly_budgets", "fixed_expenses", "debt_payments", "debts", "incomes",
	"savings", "refresh_tokens", "users", "categories",
}

var nameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Run executes the db_sanitize CLI behavior. Exported so a small cmd/main can call it.
func Run() {
	var (
		dryRun = flag.Bool("dry-run", true, "Don't perform destructive actions; show what would be done")
		yes    = flag.Bool("yes", false, "Confirm destructive action (required to actually truncate)")
		reseed = flag.Bool("reseed", false, "After truncation, reseed the default categories")
		tables = flag.String("tables", strings.Join(DefaultTables, ","), "Comma-separated list of tables to truncate")
	)
	flag.Parse()

	config.LoadDotEnv()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN must be set to run db_sanitize")
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	gdb, err := store.Open(dsn, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close(gdb)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	existing, err := existingTables(ctx, gdb, ValidTables(*tables))
	if err != nil {
		log.Fatal(err)
	}
	if len(existing) == 0 {
		log.Println("no requested tables present in the database; nothing to do")
		return
	}

	fmt.Println("Tables considered for truncation:")
	for _, t := range existing {
		fmt.Printf(" - %s\n", t)
	}

	if *dryRun {
		fmt.Println("dry-run enabled; no changes will be made. Use --dry-run=false --yes to execute.")
		return
	}
	if !*yes {
		fmt.Println("Destructive operation. Pass --yes to confirm execution. Aborting.")
		return
	}

	stmt := TruncateStatement(existing)
	log.Printf("Executing: %s", stmt)
	if err := gdb.WithContext(ctx).Exec(stmt).Error; err != nil {
		log.Fatalf("truncate failed: %v", err)
	}
	log.Println("Truncate completed.")

	if *reseed {
		if err := store.SeedCategories(ctx, gdb, logger); err != nil {
			log.Fatalf("reseed failed: %v", err)
		}
		log.Println("Default categories seeded.")
	}
}

// ValidTables splits a comma separated list and drops entries that are not
// plain identifiers.
func ValidTables(list string) []string {
	var out []string
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !nameRe.MatchString(p) {
			log.Printf("warning: skipping invalid table name '%s'", p)
			continue
		}
		out = append(out, p)
	}
	return out
}

func existingTables(ctx context.Context, gdb *gorm.DB, wanted []string) ([]string, error) {
	var existing []string
	for _, t := range wanted {
		var cnt int64
		err := gdb.WithContext(ctx).
			Raw("SELECT count(*) FROM pg_tables WHERE schemaname = 'public' AND tablename = ?", t).
			Scan(&cnt).Error
		if err != nil {
			return nil, fmt.Errorf("failed to query pg_tables for %s: %w", t, err)
		}
		if cnt > 0 {
			existing = append(existing, t)
		} else {
			log.Printf("info: table %s not found, skipping", t)
		}
	}
	return existing, nil
}

// TruncateStatement quotes already validated identifiers.
func TruncateStatement(tables []string) string {
	quoted := make([]string, 0, len(tables))
	for _, t := range tables {
		quoted = append(quoted, fmt.Sprintf("%q", t))
	}
	return fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(quoted, ", "))
}
