package models

// All lists every table model in migration order: parents before children.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Saving{},
		&Transaction{},
		&MonthlyBudget{},
		&FixedExpense{},
		&Debt{},
		&DebtPayment{},
		&Income{},
		&RefreshToken{},
	}
}
