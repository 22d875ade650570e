package hydrotop

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedSample is returned for payloads without a usable ts or value
var ErrMalformedSample = errors.New("malformed sample")

// Sample is one reading of one metric
type Sample struct {
	Time  time.Time
	Value float64
}

// Valid reports whether the sample carries a timestamp and a finite value
func (s Sample) Valid() bool {
	return !s.Time.IsZero() && !math.IsNaN(s.Value) && !math.IsInf(s.Value, 0)
}

// wireSample is the {ts, value} shape used by both the push channel and the history endpoint
type wireSample struct {
	TS    json.RawMessage `json:"ts"`
	Value json.RawMessage `json:"value"`
}

// date layouts accepted for string timestamps without an epoch
var tsLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// DecodeSample validates one {ts, value} payload. Date strings without an
// offset are read in loc (UTC when nil).
func DecodeSample(raw []byte, loc *time.Location) (Sample, error) {
	var w wireSample
	if err := json.Unmarshal(raw, &w); err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrMalformedSample, err)
	}
	return w.sample(loc)
}

func (w wireSample) sample(loc *time.Location) (Sample, error) {
	ts, err := parseTimestamp(w.TS, loc)
	if err != nil {
		return Sample{}, err
	}
	value, err := parseValue(w.Value)
	if err != nil {
		return Sample{}, err
	}
	s := Sample{Time: ts, Value: value}
	if !s.Valid() {
		return Sample{}, fmt.Errorf("%w: invalid value", ErrMalformedSample)
	}
	return s, nil
}

// DecodeSamples decodes a JSON array of samples, skipping malformed entries.
// It returns the number of skipped entries alongside the samples.
func DecodeSamples(raw []byte, loc *time.Location) ([]Sample, int, error) {
	var entries []wireSample
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, 0, fmt.Errorf("decode samples: %w", err)
	}
	samples := make([]Sample, 0, len(entries))
	skipped := 0
	for _, e := range entries {
		s, err := e.sample(loc)
		if err != nil {
			skipped++
			continue
		}
		samples = append(samples, s)
	}
	return samples, skipped, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func parseTimestamp(raw json.RawMessage, loc *time.Location) (time.Time, error) {
	if isNull(raw) {
		return time.Time{}, fmt.Errorf("%w: missing ts", ErrMalformedSample)
	}
	if loc == nil {
		loc = time.UTC
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return fromEpochMillis(string(n))
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("%w: ts is neither number nor string", ErrMalformedSample)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty ts", ErrMalformedSample)
	}
	if t, err := fromEpochMillis(s); err == nil {
		return t, nil
	}
	for _, layout := range tsLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised ts %q", ErrMalformedSample, s)
}

func fromEpochMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}, fmt.Errorf("%w: bad epoch %q", ErrMalformedSample, s)
	}
	return time.UnixMilli(int64(ms)), nil
}

func parseValue(raw json.RawMessage) (float64, error) {
	if isNull(raw) {
		return 0, fmt.Errorf("%w: missing value", ErrMalformedSample)
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}
	// float_ok is sometimes published as a boolean
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: value is not numeric", ErrMalformedSample)
}

// EncodeSample produces the wire form, used by transports that synthesise messages
func EncodeSample(s Sample) []byte {
	b, _ := json.Marshal(struct {
		TS    int64   `json:"ts"`
		Value float64 `json:"value"`
	}{TS: s.Time.UnixMilli(), Value: s.Value})
	return b
}
