package fund

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// BIRTH DATE - Literal calendar fields, no time zone involved
// =============================================================================

// BirthDate holds the digits of a "YYYY-MM-DD" string. Converting through
// time.Time in a local zone can shift the day, so callers compare these
// fields directly.
type BirthDate struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseBirthDate reads year, month and day from the leading "YYYY-MM-DD"
// of s. A trailing time part ("1990-10-15T00:00:00Z") is ignored.
func ParseBirthDate(s string) (BirthDate, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return BirthDate{}, &InvalidDateError{Value: s}
	}
	year, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	day, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return BirthDate{}, &InvalidDateError{Value: s}
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return BirthDate{}, &InvalidDateError{Value: s}
	}
	return BirthDate{Year: year, Month: time.Month(month), Day: day}, nil
}

// MatchesDay reports whether the birthday falls on today's month and day.
func (b BirthDate) MatchesDay(today time.Time) bool {
	return b.Month == today.Month() && b.Day == today.Day()
}

func (b BirthDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", b.Year, int(b.Month), b.Day)
}

// =============================================================================
// PERIOD - (month, year) scope for payments and expenses
// =============================================================================

type Period struct {
	Month time.Month `json:"month"`
	Year  int        `json:"year"`
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Month: t.Month(), Year: t.Year()}
}

// Valid reports whether the month is 1-12 and the year positive.
func (p Period) Valid() bool {
	return p.Month >= time.January && p.Month <= time.December && p.Year > 0
}

func (p Period) String() string {
	return fmt.Sprintf("%s %d", MonthName(p.Month), p.Year)
}

var monthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the Spanish month name used in messages and reports.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}
