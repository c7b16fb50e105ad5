package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"mankeu/models"
	"mankeu/pkg/auth"
	"mankeu/pkg/config"
	"mankeu/pkg/store"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("usage: go run ./cmd/create_user <email> <password> [name]")
		os.Exit(2)
	}
	email := strings.ToLower(strings.TrimSpace(os.Args[1]))
	password := os.Args[2]
	name := strings.SplitN(email, "@", 2)[0]
	if len(os.Args) > 3 {
		name = strings.Join(os.Args[3:], " ")
	}
	if len(password) < auth.MinPasswordLen {
		log.Fatalf("password too short (min %d)", auth.MinPasswordLen)
	}

	config.LoadDotEnv()
	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := store.Open(dsn, nil)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer store.Close(db)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db = db.WithContext(ctx)

	// check existing
	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", email, existing.ID)
		os.Exit(0)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	locale, currency := "id", "IDR"
	user := models.User{Email: email, Name: name, HashedPassword: hash, Locale: &locale, Currency: &currency}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d\n", email, user.ID)
}
