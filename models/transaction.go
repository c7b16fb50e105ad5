package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Clients read amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Transaction is a signed money movement of a user. GoalID optionally links
// it to one of the user's savings. It is not a foreign key: a saving can be
// deleted while transactions still point at it.
type Transaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time       `json:"created_at"`
	UserID          uint            `gorm:"index;not null" json:"user_id"`
	User            User            `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CategoryID      uint            `gorm:"index;not null" json:"category_id"`
	Category        Category        `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	Name            string          `gorm:"size:100;not null" json:"name"`
	TransactionDate Date            `gorm:"not null;index" json:"transaction_date"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Notes           *string         `gorm:"type:text" json:"notes"`
	GoalID          *uint           `gorm:"index" json:"goal_id"`
}
