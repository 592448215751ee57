// Package reading defines the temperature sample shared by every part of
// the dashboard: the history fetch, the live feed and the series buffer.
package reading

import (
	"sort"
	"time"
)

// Reading is a single timestamped temperature sample.
// Readings are values and are never mutated once built.
type Reading struct {
	Timestamp   time.Time // source-provided, not necessarily unique or monotonic
	Temperature float64   // degrees Celsius
}

// New builds a Reading.
func New(ts time.Time, temp float64) Reading {
	return Reading{Timestamp: ts, Temperature: temp}
}

// Before reports whether r was taken strictly before o.
func (r Reading) Before(o Reading) bool {
	return r.Timestamp.Before(o.Timestamp)
}

// SortedCopy returns a copy of rs ordered ascending by timestamp.
// Readings with equal timestamps keep their relative order.
func SortedCopy(rs []Reading) []Reading {
	out := make([]Reading, len(rs))
	copy(out, rs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// IsSorted reports whether rs is ordered ascending by timestamp.
func IsSorted(rs []Reading) bool {
	return sort.SliceIsSorted(rs, func(i, j int) bool { return rs[i].Before(rs[j]) })
}

// Temperatures returns just the temperature values of rs, in order.
func Temperatures(rs []Reading) []float64 {
	if len(rs) == 0 {
		return nil
	}
	vals := make([]float64, len(rs))
	for i, r := range rs {
		vals[i] = r.Temperature
	}
	return vals
}
