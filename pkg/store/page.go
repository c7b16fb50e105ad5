package store

import (
	"strconv"
	"strings"

	"gorm.io/gorm"

	"mankeu/pkg/apperr"
)

const DefaultLimit = 100

// Page is an offset window over a listing.
type Page struct {
	Skip  int
	Limit int
}

// ParsePage reads the skip and limit query values. Empty values take the
// defaults (0 and DefaultLimit); negative or non-numeric ones are rejected.
func ParsePage(skip, limit string) (Page, error) {
	p := Page{Limit: DefaultLimit}
	var err error
	if p.Skip, err = parseNonNegative("skip", skip, 0); err != nil {
		return Page{}, err
	}
	if p.Limit, err = parseNonNegative("limit", limit, DefaultLimit); err != nil {
		return Page{}, err
	}
	return p, nil
}

func parseNonNegative(name, raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", name)
	}
	if n < 0 {
		return 0, apperr.Validation("%s must not be negative", name)
	}
	return n, nil
}

// Apply adds OFFSET and LIMIT to q.
func (p Page) Apply(q *gorm.DB) *gorm.DB {
	return q.Offset(p.Skip).Limit(p.Limit)
}
