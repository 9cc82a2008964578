package components

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatAmount renders a money amount with thousands separators. Whole
// amounts have no fraction digits.
func FormatAmount(d decimal.Decimal) string {
	if d.IsInteger() {
		return humanize.Comma(d.IntPart())
	}
	return humanize.FormatFloat("#,###.##", d.InexactFloat64())
}

// FormatTime renders an absolute timestamp, or "-" when unset.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

// RelativeTime renders a timestamp as "3 minutes ago", or "never" when
// unset.
func RelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
