package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Saving is a savings goal. Amount is a stored running total: it starts at
// the value the user supplies and is moved by goal-linked transactions.
type Saving struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	UserID     uint            `gorm:"index;not null" json:"user_id"`
	User       User            `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Name       string          `gorm:"size:100;not null" json:"name"`
	Amount     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	SavingDate Date            `gorm:"not null" json:"saving_date"`
}
