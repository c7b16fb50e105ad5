package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtPayment is one installment paid towards a debt. Payments go away with
// their debt.
type DebtPayment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	DebtID      uint            `gorm:"index;not null" json:"debt_id"`
	Debt        Debt            `gorm:"foreignKey:DebtID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	PaymentDate Date            `gorm:"not null;index" json:"payment_date"`
	Notes       *string         `gorm:"type:text" json:"notes"`
}
