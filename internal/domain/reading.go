package domain

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MissingSentinel is the bureau's in-band "no observation" value.
const MissingSentinel = -99.9

// Reading is a rainfall amount with an explicit missing flag.
type Reading struct {
	Value float64
	Valid bool
}

// Observed returns a defined reading.
func Observed(v float64) Reading {
	return Reading{Value: v, Valid: true}
}

// Sentinel converts between CSV cells and readings for one missing marker.
type Sentinel struct {
	value decimal.Decimal
	text  string
}

// DefaultSentinel uses -99.9.
var DefaultSentinel = NewSentinel(MissingSentinel)

// NewSentinel builds a Sentinel for the given marker value.
func NewSentinel(v float64) Sentinel {
	d := decimal.NewFromFloat(v)
	return Sentinel{value: d, text: d.String()}
}

// Value returns the marker as a float.
func (s Sentinel) Value() float64 {
	v, _ := s.value.Float64()
	return v
}

// String returns the marker as written to CSV files.
func (s Sentinel) String() string {
	return s.text
}

// ParseDecimal parses a cell exactly. Empty, non-numeric and sentinel cells
// return Valid == false.
func (s Sentinel) ParseDecimal(cell string) decimal.NullDecimal {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(cell)
	if err != nil || d.Equal(s.value) {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Parse parses a cell into a Reading.
func (s Sentinel) Parse(cell string) Reading {
	d := s.ParseDecimal(cell)
	if !d.Valid {
		return Reading{}
	}
	v, _ := d.Decimal.Float64()
	return Observed(v)
}

// Format renders a reading for a CSV cell; missing readings use the sentinel.
func (s Sentinel) Format(r Reading) string {
	if !r.Valid {
		return s.text
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}
