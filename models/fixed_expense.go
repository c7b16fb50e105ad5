package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FixedExpense is a recurring monthly bill, due on DueDay of each month.
type FixedExpense struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UserID    uint            `gorm:"index;not null" json:"user_id"`
	User      User            `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Amount    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	DueDay    int             `gorm:"not null" json:"due_day"`
}
