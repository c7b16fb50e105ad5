package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"mankeu/pkg/config"
	"mankeu/pkg/ledger"
	"mankeu/pkg/receipt"
	"mankeu/pkg/store"
	"mankeu/process/inbox"
)

// Main: imports receipt images from a directory as transactions of one user,
// optionally watching for new files.
func main() {
	dir := flag.String("dir", "uploads/inbox", "directory to scan for receipt images")
	userID := flag.Uint("user", 0, "user id the transactions belong to")
	categoryID := flag.Uint("category", 0, "category id of the created transactions")
	goalID := flag.Uint("goal", 0, "optional saving id to link (only counts for saving categories)")
	watch := flag.Bool("watch", false, "watch the directory for new files")
	workers := flag.Int("workers", 0, "worker pool size (default NumCPU)")
	minConf := flag.Float64("min-confidence", 0.5, "skip receipts scanned with lower confidence")
	dryRun := flag.Bool("dry-run", false, "scan only; record nothing and move nothing")
	flag.Parse()

	if *userID == 0 || *categoryID == 0 {
		log.Fatal("--user and --category are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	opts := inbox.Options{
		Dir:           *dir,
		UserID:        uint(*userID),
		CategoryID:    uint(*categoryID),
		Workers:       *workers,
		MinConfidence: *minConf,
		DryRun:        *dryRun,
	}
	if *goalID != 0 {
		g := uint(*goalID)
		opts.GoalID = &g
	}
	im := inbox.New(opts, receipt.NewScanner(logger), ledger.New(db, logger), logger)
	if err := im.ImportExisting(ctx); err != nil {
		log.Fatalf("import: %v", err)
	}
	imported := 0
	for _, r := range im.Results() {
		if r.Transaction != 0 {
			imported++
		}
	}
	log.Printf("imported %d of %d receipts", imported, len(im.Results()))

	if *watch {
		if err := im.Watch(ctx); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}
