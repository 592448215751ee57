// Package feed holds the boundary collaborators of the dashboard: the
// one-shot history client, the reconnecting live WebSocket source and the
// validation both apply before a reading is handed to the series buffer.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/luki/tempdash/internal/reading"
)

// ErrMalformedPayload is returned for readings that fail decoding or
// validation.
var ErrMalformedPayload = errors.New("malformed reading payload")

var validate = validator.New()

// payload is the wire form shared by the history endpoint and live frames:
//
//	{"timestamp": "2026-02-21T14:00:00Z", "temperature": 21.5}
type payload struct {
	Timestamp   *string  `json:"timestamp" validate:"required"`
	Temperature *float64 `json:"temperature" validate:"required"`
}

func (p payload) toReading() (reading.Reading, error) {
	if err := validate.Struct(p); err != nil {
		return reading.Reading{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	ts, err := parseTimestamp(*p.Timestamp)
	if err != nil {
		return reading.Reading{}, fmt.Errorf("%w: timestamp: %v", ErrMalformedPayload, err)
	}
	return reading.New(ts, *p.Temperature), nil
}

// isoLayouts are tried after RFC 3339. Timestamps without an offset are
// taken as UTC.
var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
}

func parseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return ts, nil
	}
	for _, layout := range isoLayouts {
		if t, lerr := time.Parse(layout, s); lerr == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// DecodeReading decodes and validates a single JSON reading.
func DecodeReading(data []byte) (reading.Reading, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return reading.Reading{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return p.toReading()
}

// DecodeReadings decodes a JSON array of readings. Any invalid element
// fails the whole batch so a partial history is never installed.
func DecodeReadings(data []byte) ([]reading.Reading, error) {
	var ps []payload
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	out := make([]reading.Reading, 0, len(ps))
	for i, p := range ps {
		r, err := p.toReading()
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}
