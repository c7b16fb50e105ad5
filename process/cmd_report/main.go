package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"mankeu/models"
	"mankeu/pkg/config"
	"mankeu/pkg/store"
	"mankeu/process/report"
)

func main() {
	email := flag.String("email", "", "email of the user to report for")
	month := flag.String("month", time.Now().UTC().Format("2006-01"), "month to report (YYYY-MM)")
	list := flag.Bool("list", false, "list matching rows")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "--email is required")
		os.Exit(2)
	}
	start, err := report.ParseMonth(*month)
	if err != nil {
		log.Fatal(err)
	}
	config.LoadDotEnv()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export DB_DSN and retry")
		os.Exit(2)
	}
	db, err := store.Open(dsn, nil)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var user models.User
	if err := db.WithContext(ctx).Where("email = ?", *email).First(&user).Error; err != nil {
		log.Fatalf("user not found: %v", err)
	}
	r, err := report.Build(ctx, db, user.ID, start, *list)
	if err != nil {
		log.Fatal(err)
	}
	report.Print(os.Stdout, r)
}
