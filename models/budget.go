package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MonthlyBudget struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	UserID       uint            `gorm:"index;not null" json:"user_id"`
	User         User            `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CategoryID   uint            `gorm:"index;not null" json:"category_id"`
	Category     Category        `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	Month        int             `gorm:"not null" json:"month"`
	Year         int             `gorm:"not null" json:"year"`
	BudgetAmount decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"budget_amount"`
}
