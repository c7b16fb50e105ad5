package models

import "time"

// CategoryType decides how a transaction in the category is treated.
// Only saving categories feed savings goals.
type CategoryType string

const (
	CategoryExpense CategoryType = "expense"
	CategoryIncome  CategoryType = "income"
	CategorySaving  CategoryType = "saving"
)

func (t CategoryType) Valid() bool {
	switch t {
	case CategoryExpense, CategoryIncome, CategorySaving:
		return true
	}
	return false
}

// Category is global: it has no owner and is shared by every user.
type Category struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Name      string       `gorm:"size:50;not null" json:"name"`
	Type      CategoryType `gorm:"size:16;not null" json:"type"`
}
