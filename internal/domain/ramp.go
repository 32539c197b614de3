package domain

import (
	"fmt"
	"math"
	"strconv"
)

// DefaultRampName is the colour ramp used by the original rainfall maps.
const DefaultRampName = "Yellow-Orange-Brown"

// Ramp is a named sequence of anchor colours, interpolated linearly in RGB.
type Ramp struct {
	Name    string
	Anchors []string
}

var ramps = map[string]Ramp{
	DefaultRampName: {Name: DefaultRampName, Anchors: []string{"#FFFFD4", "#FED98E", "#FE9929", "#D95F0E", "#993404"}},
	"Blues":         {Name: "Blues", Anchors: []string{"#EFF3FF", "#BDD7E7", "#6BAED6", "#3182BD", "#08519C"}},
	"Greens":        {Name: "Greens", Anchors: []string{"#EDF8E9", "#BAE4B3", "#74C476", "#31A354", "#006D2C"}},
}

// LookupRamp returns a ramp by name. ok is false for unknown names, in which
// case the default ramp is returned.
func LookupRamp(name string) (Ramp, bool) {
	r, ok := ramps[name]
	if !ok {
		return ramps[DefaultRampName], false
	}
	return r, true
}

// Colors samples n evenly spaced colours from the ramp.
func (r Ramp) Colors(n int) []string {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []string{r.Anchors[0]}
	}
	out := make([]string, n)
	segments := float64(len(r.Anchors) - 1)
	for i := range out {
		pos := float64(i) / float64(n-1) * segments
		lo := int(math.Floor(pos))
		if lo >= len(r.Anchors)-1 {
			out[i] = r.Anchors[len(r.Anchors)-1]
			continue
		}
		out[i] = mix(r.Anchors[lo], r.Anchors[lo+1], pos-float64(lo))
	}
	return out
}

func mix(a, b string, t float64) string {
	ar, ag, ab := rgb(a)
	br, bg, bb := rgb(b)
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return fmt.Sprintf("#%02X%02X%02X", lerp(ar, br), lerp(ag, bg), lerp(ab, bb))
}

func rgb(hex string) (r, g, b uint8) {
	v, _ := strconv.ParseUint(hex[1:], 16, 32)
	return uint8(v >> 16), uint8(v >> 8), uint8(v)
}
