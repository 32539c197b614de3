package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ClassMethod selects how class breaks are derived.
type ClassMethod string

const (
	// ClassEqual splits min..max of the defined cells into equal intervals.
	ClassEqual ClassMethod = "equal"

	// ClassManual uses the fixed legacy breaks: the sentinel, 0, then eight
	// equal steps up to the maximum.
	ClassManual ClassMethod = "manual"

	// DefaultBreakCount matches the nine classes of the original symbology.
	DefaultBreakCount = 9

	manualSteps = 8
)

// ParseClassMethod validates a method name.
func ParseClassMethod(s string) (ClassMethod, error) {
	switch m := ClassMethod(s); m {
	case ClassEqual, ClassManual:
		return m, nil
	default:
		return "", fmt.Errorf("unknown class method %q", s)
	}
}

// Class is one legend entry: values up to and including UpperBound.
type Class struct {
	UpperBound float64 `json:"upper_bound"`
	Color      string  `json:"color"`
	Label      string  `json:"label"`
}

// Legend is the style descriptor written next to a raster.
type Legend struct {
	Raster  string      `json:"raster"`
	Method  ClassMethod `json:"method"`
	Ramp    string      `json:"ramp"`
	NoData  float64     `json:"no_data"`
	Min     float64     `json:"min"`
	Max     float64     `json:"max"`
	Classes []Class     `json:"classes"`
}

// Classify returns ascending class upper bounds for the given values. Values
// equal to the sentinel or to the grid no-data value are ignored. ok is false
// when no value is left.
func Classify(method ClassMethod, values []float64, breakCount int, sentinel Sentinel) (breaks []float64, ok bool) {
	return classifyObserved(method, observedValues(values, sentinel), breakCount, sentinel)
}

// observedValues drops no-data, sentinel and NaN values.
func observedValues(values []float64, sentinel Sentinel) []float64 {
	vals := make([]float64, 0, len(values))
	for _, v := range values {
		if v == NoDataValue || v == sentinel.Value() || math.IsNaN(v) {
			continue
		}
		vals = append(vals, v)
	}
	return vals
}

func classifyObserved(method ClassMethod, vals []float64, breakCount int, sentinel Sentinel) (breaks []float64, ok bool) {
	if len(vals) == 0 {
		return nil, false
	}
	lo, hi := floats.Min(vals), floats.Max(vals)

	switch method {
	case ClassManual:
		breaks = []float64{sentinel.Value(), 0}
		for i := 1; i <= manualSteps; i++ {
			breaks = append(breaks, float64(i)*hi/manualSteps)
		}
	default:
		if breakCount < 1 {
			breakCount = DefaultBreakCount
		}
		breaks = make([]float64, breakCount)
		step := (hi - lo) / float64(breakCount)
		for i := range breaks {
			breaks[i] = lo + float64(i+1)*step
		}
		breaks[breakCount-1] = hi
	}
	return breaks, true
}

// BuildLegend classifies a grid and colours each class from the ramp. Min and
// Max cover the same values the breaks were derived from.
func BuildLegend(raster string, g Grid, method ClassMethod, breakCount int, ramp Ramp, sentinel Sentinel) (Legend, bool) {
	vals := observedValues(g.Values(), sentinel)
	breaks, ok := classifyObserved(method, vals, breakCount, sentinel)
	if !ok {
		return Legend{}, false
	}
	colors := ramp.Colors(len(breaks))
	lg := Legend{
		Raster: raster,
		Method: method,
		Ramp:   ramp.Name,
		NoData: g.NoData,
		Min:    floats.Min(vals),
		Max:    floats.Max(vals),
	}
	for i, b := range breaks {
		lg.Classes = append(lg.Classes, Class{
			UpperBound: b,
			Color:      colors[i],
			Label:      fmt.Sprintf("<= %.2f", b),
		})
	}
	return lg, true
}
