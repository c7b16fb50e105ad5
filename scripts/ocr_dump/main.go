package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"mankeu/pkg/receipt"
)

// Prints what the receipt scanner reads from an image: the raw text, every
// amount candidate and the chosen suggestion.
func main() {
	path := flag.String("path", "", "image path")
	flag.Parse()
	if *path == "" {
		log.Fatal("--path is required")
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sug, text, err := receipt.NewScanner(logger).Scan(context.Background(), *path)
	fmt.Println(strings.Repeat("-", 50))
	fmt.Println(text)
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("candidates=%q\n", receipt.Candidates(text))
	if err != nil {
		log.Fatalf("scan: %v", err)
	}
	fmt.Printf("best amount=%s confidence=%.2f raw=%q\n", sug.Amount.StringFixed(2), sug.Confidence, sug.Raw)
}
