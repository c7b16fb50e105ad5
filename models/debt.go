package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DebtStatus string

const (
	DebtUnpaid DebtStatus = "unpaid"
	DebtPaid   DebtStatus = "paid"
)

func (s DebtStatus) Valid() bool {
	return s == DebtUnpaid || s == DebtPaid
}

// Debt tracks what is still owed. RemainingAmount goes down with each
// payment; a debt with nothing remaining is paid.
type Debt struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time       `json:"created_at"`
	UserID          uint            `gorm:"index;not null" json:"user_id"`
	User            User            `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Name            string          `gorm:"size:100;not null" json:"name"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"remaining_amount"`
	Status          DebtStatus      `gorm:"size:16;not null;default:unpaid" json:"status"`
	DueDate         Date            `gorm:"not null" json:"due_date"`
}
