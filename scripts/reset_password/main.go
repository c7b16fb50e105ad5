package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"mankeu/models"
	"mankeu/pkg/auth"
	"mankeu/pkg/config"
	"mankeu/pkg/store"
)

func main() {
	email := flag.String("email", "", "email of the account to reset")
	password := flag.String("password", "", "new plaintext password (min 6 chars)")
	keepSessions := flag.Bool("keep-sessions", false, "do not revoke the account's refresh tokens")
	flag.Parse()
	if *email == "" || *password == "" {
		log.Fatal("--email and --password are required")
	}
	if len(*password) < auth.MinPasswordLen {
		log.Fatalf("password too short (min %d)", auth.MinPasswordLen)
	}
	config.LoadDotEnv()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	db, err := store.Open(dsn, nil)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close(db)

	var user models.User
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(*email))).First(&user).Error; err != nil {
		log.Fatalf("user not found: %v", err)
	}
	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("bcrypt: %v", err)
	}
	if err := db.Model(&user).Update("hashed_password", hash).Error; err != nil {
		log.Fatalf("update failed: %v", err)
	}
	if !*keepSessions {
		res := db.Model(&models.RefreshToken{}).Where("user_id = ? AND revoked = ?", user.ID, false).Update("revoked", true)
		if res.Error != nil {
			log.Fatalf("revoke sessions: %v", res.Error)
		}
		fmt.Printf("revoked %d refresh tokens\n", res.RowsAffected)
	}
	fmt.Printf("Password reset for user %s\n", user.Email)
}
