package analysis

import (
	"fmt"
	"time"
)

const monthLayout = "2006-01"

// ValidationError is a client-side input error. No request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidateMonth checks a YYYY-MM month.
func ValidateMonth(month string) error {
	if month == "" {
		return &ValidationError{Field: "month", Reason: "select a month"}
	}
	if _, err := time.Parse(monthLayout, month); err != nil {
		return &ValidationError{Field: "month", Reason: fmt.Sprintf("%q is not in YYYY-MM format", month)}
	}
	return nil
}

// CurrentMonth returns now formatted as YYYY-MM.
func CurrentMonth(now time.Time) string {
	return now.Format(monthLayout)
}

// ShiftMonth moves a YYYY-MM month by delta months. Invalid input is
// returned unchanged.
func ShiftMonth(month string, delta int) string {
	t, err := time.Parse(monthLayout, month)
	if err != nil {
		return month
	}
	return t.AddDate(0, delta, 0).Format(monthLayout)
}
