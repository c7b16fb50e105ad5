package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"mankeu/pkg/apperr"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		skip, limit string
		want        Page
		wantErr     bool
	}{
		{"", "", Page{Skip: 0, Limit: 100}, false},
		{"20", "5", Page{Skip: 20, Limit: 5}, false},
		{" 3 ", "", Page{Skip: 3, Limit: 100}, false},
		{"0", "100000", Page{Skip: 0, Limit: 100000}, false},
		{"-1", "", Page{}, true},
		{"", "-10", Page{}, true},
		{"abc", "", Page{}, true},
		{"", "1.5", Page{}, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("skip=%q,limit=%q", tt.skip, tt.limit), func(t *testing.T) {
			got, err := ParsePage(tt.skip, tt.limit)
			if tt.wantErr {
				if !apperr.Is(err, apperr.KindValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %+v got %+v", tt.want, got)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"unique", &pgconn.PgError{Code: "23505"}, apperr.KindConflict},
		{"foreign key", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), apperr.KindValidation},
		{"not found", gorm.ErrRecordNotFound, apperr.KindNotFound},
		{"other pg", &pgconn.PgError{Code: "40001"}, apperr.KindInternal},
		{"plain", errors.New("connection reset"), apperr.KindInternal},
		{"already classified", apperr.Validation("bad"), apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if k := apperr.KindOf(got); k != tt.want {
				t.Fatalf("expected %s got %s", tt.want, k)
			}
			if !errors.Is(got, tt.err) && tt.name != "already classified" {
				t.Fatalf("classified error must wrap the cause")
			}
		})
	}
	if Classify(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(fmt.Errorf("create: %w", &pgconn.PgError{Code: "23505"})) {
		t.Fatal("expected wrapped unique violation to be detected")
	}
	if IsUniqueViolation(errors.New("duplicate key")) {
		t.Fatal("plain errors are not unique violations")
	}
}
