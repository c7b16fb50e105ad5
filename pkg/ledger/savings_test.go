package ledger

import (
	"strings"
	"testing"
	"unicode/utf8"

	"mankeu/models"
	"mankeu/pkg/apperr"
)

func TestMovementInputValidation(t *testing.T) {
	tests := []struct {
		name string
		in   MovementInput
		ok   bool
	}{
		{"missing amount", MovementInput{}, false},
		{"zero", MovementInput{Amount: amount("0")}, false},
		{"negative", MovementInput{Amount: amount("-10")}, false},
		{"too precise", MovementInput{Amount: amount("1.001")}, false},
		{"zero date", MovementInput{Amount: amount("10"), Date: &models.Date{}}, false},
		{"valid", MovementInput{Amount: amount("10.50")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if !tt.ok && !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestTruncateName(t *testing.T) {
	long := "Deposit to " + strings.Repeat("é", 120)
	got := truncateName(long)
	if n := utf8.RuneCountInString(got); n != maxNameLen {
		t.Fatalf("expected %d runes, got %d", maxNameLen, n)
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncation split a rune")
	}
	if truncateName("Deposit to Bike") != "Deposit to Bike" {
		t.Fatal("short names must be kept")
	}
}
