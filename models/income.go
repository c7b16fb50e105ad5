package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Income struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	UserID     uint            `gorm:"index;not null" json:"user_id"`
	User       User            `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Source     string          `gorm:"size:100;not null" json:"source"`
	Amount     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	IncomeDate Date            `gorm:"not null" json:"income_date"`
}
