package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMonthlyData means no input file contributed a single month column.
	ErrNoMonthlyData = errors.New("no monthly data produced")

	// ErrNoInputDir means the configured input directory does not exist.
	ErrNoInputDir = errors.New("input directory does not exist")

	// ErrNoDailyColumns means a daily table has no YYYYMMDD column.
	ErrNoDailyColumns = errors.New("no daily date columns")
)

// MissingColumnError reports a required column absent from a table.
type MissingColumnError struct {
	Source string
	Column string
}

func (e *MissingColumnError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("missing required column %q", e.Column)
	}
	return fmt.Sprintf("%s: missing required column %q", e.Source, e.Column)
}

// UnparseableDateError reports a column label that should name a date but does not.
type UnparseableDateError struct {
	Label string
}

func (e *UnparseableDateError) Error() string {
	return fmt.Sprintf("unparseable date label %q", e.Label)
}

// EmptyPointSetError reports a month without a single observed station value.
type EmptyPointSetError struct {
	Month YearMonth
}

func (e *EmptyPointSetError) Error() string {
	return fmt.Sprintf("month %s has no valid points", e.Month)
}

// IsInputError reports whether err describes bad input rather than a
// processing failure. Input errors skip the unit of work; everything else
// fails it.
func IsInputError(err error) bool {
	var (
		missing *MissingColumnError
		date    *UnparseableDateError
		empty   *EmptyPointSetError
	)
	return errors.As(err, &missing) ||
		errors.As(err, &date) ||
		errors.As(err, &empty) ||
		errors.Is(err, ErrNoDailyColumns)
}
