// Package calendar validates YYYY-MM-DD challenge keys and maps them to
// proleptic Gregorian day numbers.
package calendar

import (
	"time"

	"leaderboard-sync/internal/domain"
)

const keyLayout = "2006-01-02"

type Date struct {
	Year  int
	Month int
	Day   int
}

// Parse validates a challenge key and splits it into its parts.
func Parse(key string) (Date, error) {
	if len(key) != 10 || key[4] != '-' || key[7] != '-' {
		return Date{}, invalidKey(key, "expected YYYY-MM-DD")
	}

	year, ok := digits(key[0:4])
	if !ok {
		return Date{}, invalidKey(key, "year must be numeric")
	}
	month, ok := digits(key[5:7])
	if !ok {
		return Date{}, invalidKey(key, "month must be numeric")
	}
	day, ok := digits(key[8:10])
	if !ok {
		return Date{}, invalidKey(key, "day must be numeric")
	}

	if month < 1 || month > 12 {
		return Date{}, invalidKey(key, "month out of range")
	}
	if day < 1 || day > daysInMonth(year, month) {
		return Date{}, invalidKey(key, "day out of range")
	}

	return Date{Year: year, Month: month, Day: day}, nil
}

// Validate returns an InvalidChallengeKey error for malformed keys.
func Validate(key string) error {
	_, err := Parse(key)
	return err
}

// DayNumber converts a valid key to days since 1970-01-01.
func DayNumber(key string) (int64, error) {
	d, err := Parse(key)
	if err != nil {
		return 0, err
	}
	return d.DayNumber(), nil
}

// DayNumber uses the era / year-of-era decomposition, so it is exact for
// every proleptic Gregorian date.
func (d Date) DayNumber() int64 {
	y := int64(d.Year)
	m := int64(d.Month)
	if m <= 2 {
		y--
	}
	era := y
	if era < 0 {
		era -= 399
	}
	era /= 400
	yoe := y - era*400
	mp := m - 3
	if m <= 2 {
		mp = m + 9
	}
	doy := (153*mp+2)/5 + int64(d.Day) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

// IsNextDay reports whether b is exactly one calendar day after a.
func IsNextDay(a, b string) (bool, error) {
	da, err := DayNumber(a)
	if err != nil {
		return false, err
	}
	db, err := DayNumber(b)
	if err != nil {
		return false, err
	}
	return db-da == 1, nil
}

// KeyFor formats t (in UTC) as a challenge key.
func KeyFor(t time.Time) string {
	return t.UTC().Format(keyLayout)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysInMonth(year, month int) int {
	switch month {
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

func digits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func invalidKey(key, reason string) error {
	return domain.NewValidationError(domain.CodeInvalidChallengeKey, "%q: %s", key, reason)
}
