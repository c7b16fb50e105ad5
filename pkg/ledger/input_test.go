package ledger

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"mankeu/models"
	"mankeu/pkg/apperr"
)

func mustDate(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestUpdateInputDistinguishesNullFromAbsent(t *testing.T) {
	goal := uint(4)
	note := "lunch"
	base := models.Transaction{
		ID: 1, CategoryID: 2, Name: "Coffee", Amount: decimal.RequireFromString("12.50"),
		TransactionDate: mustDate(t, "2024-05-01"), Notes: &note, GoalID: &goal,
	}

	tests := []struct {
		name     string
		body     string
		wantCols []string
		check    func(t *testing.T, tr models.Transaction)
	}{
		{
			name:     "absent fields untouched",
			body:     `{"name":"Coffee beans"}`,
			wantCols: []string{"name"},
			check: func(t *testing.T, tr models.Transaction) {
				if tr.GoalID == nil || *tr.GoalID != 4 || tr.Notes == nil {
					t.Fatalf("goal and notes must be kept")
				}
			},
		},
		{
			name:     "explicit null clears goal",
			body:     `{"goal_id":null}`,
			wantCols: []string{"goal_id"},
			check: func(t *testing.T, tr models.Transaction) {
				if tr.GoalID != nil {
					t.Fatalf("goal must be cleared")
				}
			},
		},
		{
			name:     "explicit null clears notes",
			body:     `{"notes":null,"amount":12.5}`,
			wantCols: []string{"notes"},
			check: func(t *testing.T, tr models.Transaction) {
				if tr.Notes != nil {
					t.Fatalf("notes must be cleared")
				}
			},
		},
		{
			name:     "reassign goal and amount",
			body:     `{"goal_id":7,"amount":"99.99","transaction_date":"2024-05-02"}`,
			wantCols: []string{"transaction_date", "amount", "goal_id"},
			check: func(t *testing.T, tr models.Transaction) {
				if *tr.GoalID != 7 || !tr.Amount.Equal(decimal.RequireFromString("99.99")) {
					t.Fatalf("unexpected row %+v", tr)
				}
			},
		},
		{
			name:     "same values write nothing",
			body:     `{"name":"Coffee","goal_id":4,"category_id":2}`,
			wantCols: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in UpdateInput
			if err := json.Unmarshal([]byte(tt.body), &in); err != nil {
				t.Fatal(err)
			}
			if err := in.validate(); err != nil {
				t.Fatal(err)
			}
			tr := base
			cols := in.apply(&tr)
			if len(cols) != len(tt.wantCols) {
				t.Fatalf("expected cols %v got %v", tt.wantCols, cols)
			}
			for i := range cols {
				if cols[i] != tt.wantCols[i] {
					t.Fatalf("expected cols %v got %v", tt.wantCols, cols)
				}
			}
			if tt.check != nil {
				tt.check(t, tr)
			}
		})
	}
}

func TestCreateInputValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"valid", `{"category_id":1,"name":"Rent","transaction_date":"2024-01-31","amount":-1500000}`, true},
		{"missing category", `{"name":"Rent","transaction_date":"2024-01-31","amount":1}`, false},
		{"blank name", `{"category_id":1,"name":"  ","transaction_date":"2024-01-31","amount":1}`, false},
		{"missing date", `{"category_id":1,"name":"Rent","amount":1}`, false},
		{"missing amount", `{"category_id":1,"name":"Rent","transaction_date":"2024-01-31"}`, false},
		{"three decimals", `{"category_id":1,"name":"Rent","transaction_date":"2024-01-31","amount":1.005}`, false},
		{"too large", `{"category_id":1,"name":"Rent","transaction_date":"2024-01-31","amount":10000000000000}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in CreateInput
			if err := json.Unmarshal([]byte(tt.body), &in); err != nil {
				t.Fatal(err)
			}
			err := in.validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateInputRejectsBadAmount(t *testing.T) {
	var in UpdateInput
	if err := json.Unmarshal([]byte(`{"amount":0.001}`), &in); err != nil {
		t.Fatal(err)
	}
	if !apperr.Is(in.validate(), apperr.KindValidation) {
		t.Fatal("expected validation error for sub-cent amount")
	}
}
