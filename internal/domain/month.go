package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// dayLabelRe matches a daily column label, e.g. "20200131".
	dayLabelRe = regexp.MustCompile(`^\d{8}$`)

	// monthLabelRe finds a year-month anywhere in a label, e.g. "rain-2020-01".
	monthLabelRe = regexp.MustCompile(`(\d{4})-(\d{2})`)

	// stemRe matches a month file stem, e.g. "rain_2020_01".
	stemRe = regexp.MustCompile(`^rain_(\d{4})_(\d{2})$`)
)

// YearMonth identifies one calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// End returns the last day of the month at midnight UTC.
func (m YearMonth) End() time.Time {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC)
}

// Next returns the following month.
func (m YearMonth) Next() YearMonth {
	return MonthOf(time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC))
}

// Before reports whether m is earlier than o.
func (m YearMonth) Before(o YearMonth) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// Label is the month-end column label used in the monthly table.
func (m YearMonth) Label() string {
	return m.End().Format(time.DateOnly)
}

// Stem is the file name stem shared by the month's point file and grid.
func (m YearMonth) Stem() string {
	return fmt.Sprintf("rain_%04d_%02d", m.Year, int(m.Month))
}

func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// IsDayLabel reports whether a column label has the 8-digit daily shape.
func IsDayLabel(label string) bool {
	return dayLabelRe.MatchString(label)
}

// ParseDayLabel parses a YYYYMMDD column label. Labels with the right shape
// but no such calendar day ("20200231") are an *UnparseableDateError.
func ParseDayLabel(label string) (time.Time, error) {
	if !IsDayLabel(label) {
		return time.Time{}, &UnparseableDateError{Label: label}
	}
	t, err := time.Parse("20060102", label)
	if err != nil {
		return time.Time{}, &UnparseableDateError{Label: label}
	}
	return t, nil
}

// ParseMonthLabel extracts the month from a monthly column label. A strict
// YYYY-MM-DD label is tried first, then the first YYYY-MM substring.
func ParseMonthLabel(label string) (YearMonth, error) {
	label = strings.TrimSpace(label)
	if t, err := time.Parse(time.DateOnly, label); err == nil {
		return MonthOf(t), nil
	}
	matches := monthLabelRe.FindStringSubmatch(label)
	if len(matches) != 3 {
		return YearMonth{}, &UnparseableDateError{Label: label}
	}
	return yearMonthFromDigits(label, matches[1], matches[2])
}

// ParseStem extracts the month from a "rain_YYYY_MM" file stem.
func ParseStem(stem string) (YearMonth, error) {
	matches := stemRe.FindStringSubmatch(stem)
	if len(matches) != 3 {
		return YearMonth{}, &UnparseableDateError{Label: stem}
	}
	return yearMonthFromDigits(stem, matches[1], matches[2])
}

func yearMonthFromDigits(label, year, month string) (YearMonth, error) {
	y, errY := strconv.Atoi(year)
	mo, errM := strconv.Atoi(month)
	if errY != nil || errM != nil || mo < 1 || mo > 12 {
		return YearMonth{}, &UnparseableDateError{Label: label}
	}
	return YearMonth{Year: y, Month: time.Month(mo)}, nil
}
