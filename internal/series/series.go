// Package series provides the bounded, ordered temperature buffer that the
// dashboard renders, together with its derived statistics.
package series

import (
	"github.com/gammazero/deque"

	"github.com/luki/tempdash/internal/reading"
	"github.com/luki/tempdash/internal/stats"
)

// DefaultCapacity is the number of readings retained when no capacity is
// configured.
const DefaultCapacity = 1000

// Snapshot is an independent, read-only view of the buffer and its stats.
// Later mutations of the Aggregator never change a Snapshot already taken.
type Snapshot struct {
	Readings []reading.Reading
	Stats    stats.Stats
}

// Empty reports whether the snapshot holds no readings.
func (s Snapshot) Empty() bool {
	return len(s.Readings) == 0
}

// Observer is called with a fresh snapshot after every mutation.
type Observer func(Snapshot)

type subscriber struct {
	id int
	fn Observer
}

// Aggregator owns the reading buffer. It is not safe for concurrent use:
// all calls are expected from one goroutine (the UI event loop).
type Aggregator struct {
	buf      deque.Deque[reading.Reading]
	capacity int
	stats    stats.Stats

	subs   []subscriber
	nextID int
}

// New creates an empty Aggregator retaining at most capacity readings.
// A capacity <= 0 means DefaultCapacity.
func New(capacity int) *Aggregator {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Aggregator{capacity: capacity}
}

// Capacity returns the maximum number of retained readings.
func (a *Aggregator) Capacity() int {
	return a.capacity
}

// Len returns the number of buffered readings.
func (a *Aggregator) Len() int {
	return a.buf.Len()
}

// ReplaceAll installs readings as the whole buffer. The input is sorted
// ascending by timestamp first (it is not modified), then the oldest entries
// beyond capacity are dropped. Duplicate timestamps are kept.
func (a *Aggregator) ReplaceAll(readings []reading.Reading) {
	sorted := reading.SortedCopy(readings)
	if over := len(sorted) - a.capacity; over > 0 {
		sorted = sorted[over:]
	}

	a.buf.Clear()
	for _, r := range sorted {
		a.buf.PushBack(r)
	}
	a.changed()
}

// Append adds r at the end of the buffer without re-sorting and evicts from
// the front until the buffer fits its capacity. Identical readings are not
// deduplicated.
func (a *Aggregator) Append(r reading.Reading) {
	a.buf.PushBack(r)
	for a.buf.Len() > a.capacity {
		a.buf.PopFront()
	}
	a.changed()
}

// Snapshot returns a copy of the buffer and its current stats.
func (a *Aggregator) Snapshot() Snapshot {
	return Snapshot{Readings: a.readings(), Stats: a.stats}
}

// Subscribe registers fn to be called after every mutation. The returned
// function removes the subscription; calling it more than once is harmless.
func (a *Aggregator) Subscribe(fn Observer) (cancel func()) {
	id := a.nextID
	a.nextID++
	a.subs = append(a.subs, subscriber{id: id, fn: fn})

	return func() {
		for i, s := range a.subs {
			if s.id == id {
				a.subs = append(a.subs[:i:i], a.subs[i+1:]...)
				return
			}
		}
	}
}

func (a *Aggregator) readings() []reading.Reading {
	out := make([]reading.Reading, a.buf.Len())
	for i := range out {
		out[i] = a.buf.At(i)
	}
	return out
}

// changed recomputes stats from scratch and notifies observers.
func (a *Aggregator) changed() {
	rs := a.readings()
	a.stats = stats.Calculate(rs)
	if len(a.subs) == 0 {
		return
	}

	subs := make([]subscriber, len(a.subs))
	copy(subs, a.subs)
	for _, s := range subs {
		// each observer gets its own copy so one cannot disturb another
		snap := Snapshot{Readings: make([]reading.Reading, len(rs)), Stats: a.stats}
		copy(snap.Readings, rs)
		s.fn(snap)
	}
}
