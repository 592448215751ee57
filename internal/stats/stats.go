// Package stats derives the summary figures shown on the dashboard tiles
// from a sequence of readings.
package stats

import (
	"math"

	"github.com/luki/tempdash/internal/reading"
)

// Stats holds the current/max/min/average temperatures of a series.
// When Count is zero every value is absent; use the accessors rather than
// reading the fields directly so an absent value is never mistaken for 0.
type Stats struct {
	Current float64
	Max     float64
	Min     float64
	Average float64
	Count   int
}

// HasData reports whether the stats were computed from at least one reading.
func (s Stats) HasData() bool {
	return s.Count > 0
}

// CurrentValue returns the temperature of the last reading.
func (s Stats) CurrentValue() (float64, bool) { return s.Current, s.HasData() }

// MaxValue returns the highest temperature.
func (s Stats) MaxValue() (float64, bool) { return s.Max, s.HasData() }

// MinValue returns the lowest temperature.
func (s Stats) MinValue() (float64, bool) { return s.Min, s.HasData() }

// AverageValue returns the arithmetic mean temperature.
func (s Stats) AverageValue() (float64, bool) { return s.Average, s.HasData() }

// Calculate computes Stats over rs in a single pass.
//
// Current is the temperature of the last element, so callers must pass a
// time-ordered slice for it to mean "most recent". Max, Min and Average do
// not depend on order. Average is clamped to [Min, Max] so summation
// rounding never places it outside the observed range. Non-finite
// temperatures are not filtered: a NaN anywhere makes Max, Min and Average
// NaN.
func Calculate(rs []reading.Reading) Stats {
	if len(rs) == 0 {
		return Stats{}
	}

	first := rs[0].Temperature
	s := Stats{Max: first, Min: first, Count: len(rs)}
	sum := 0.0
	for _, r := range rs {
		s.Max = math.Max(s.Max, r.Temperature)
		s.Min = math.Min(s.Min, r.Temperature)
		sum += r.Temperature
	}
	s.Current = rs[len(rs)-1].Temperature
	s.Average = sum / float64(len(rs))
	if !math.IsNaN(s.Average) {
		s.Average = math.Max(s.Min, math.Min(s.Max, s.Average))
	}
	return s
}
