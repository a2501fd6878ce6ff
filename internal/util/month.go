package util

import (
	"fmt"
	"time"
)

// CalculateActualDate returns the actual date for a target day in a given month,
// handling months with fewer days (e.g., day 31 in February returns Feb 28/29)
func CalculateActualDate(year int, month time.Month, targetDay int) time.Time {
	// Get last day of month by going to day 0 of next month
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	actualDay := targetDay
	if actualDay > lastDay {
		actualDay = lastDay
	}

	return time.Date(year, month, actualDay, 0, 0, 0, 0, time.UTC)
}

// AddMonthsClamped moves start forward by n calendar months keeping its day of
// month, clamped to the last day of the target month. Unlike time.AddDate it
// never rolls over into the following month.
func AddMonthsClamped(start time.Time, n int) time.Time {
	total := int(start.Month()) - 1 + n
	year := start.Year() + total/12
	month := total % 12
	if month < 0 {
		month += 12
		year--
	}
	return CalculateActualDate(year, time.Month(month+1), start.Day())
}

// FormatMonth formats year and month into "YYYY-MM"
func FormatMonth(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// MonthKey returns the "YYYY-MM" key of the month t falls in
func MonthKey(t time.Time) string {
	return FormatMonth(t.Year(), t.Month())
}
