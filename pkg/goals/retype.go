package goals

import (
	"mankeu/models"
	"mankeu/pkg/apperr"
)

// CheckRetype guards a category type change. Contributions are judged by the
// category type at the time of each mutation, so moving a category into or
// out of saving while goal-linked transactions use it would leave their
// earlier contributions irreversible. linked is the number of transactions
// in the category that carry a goal id.
func CheckRetype(from, to models.CategoryType, linked int64) error {
	if from == to || linked == 0 {
		return nil
	}
	if from != models.CategorySaving && to != models.CategorySaving {
		return nil
	}
	return apperr.Validation("category type cannot change from %s to %s while %d goal-linked transactions use it", from, to, linked)
}
