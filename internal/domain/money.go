package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencySymbol is the Peruvian sol prefix used in display strings
const CurrencySymbol = "S/"

// Date layouts
const (
	DateLayout        = "2006-01-02"
	DisplayDateLayout = "02/01/2006"
)

// RoundMoney rounds an amount to cents, half away from zero
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// exceedsPlaces reports whether d has significant digits beyond places decimals.
// Trailing zeros do not count, so "10.500" fits in 2 places.
func exceedsPlaces(d decimal.Decimal, places int32) bool {
	return !d.Equal(d.Truncate(places))
}

// FormatSoles renders an amount as "S/ 1,234.56"
func FormatSoles(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return sign + CurrencySymbol + " " + b.String() + "." + frac
}

// DateOf truncates t to midnight UTC of its calendar day
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "YYYY-MM-DD" string into a date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// FormatDate renders a date as "YYYY-MM-DD"
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatDisplayDate renders a date as "DD/MM/YYYY"
func FormatDisplayDate(t time.Time) string {
	return t.Format(DisplayDateLayout)
}
