package hydrotop

import (
	"time"
)

// RollingSeries is a bounded FIFO of labelled values. The label and value
// slices are the backing arrays handed to the chart; they are always the
// same length and never longer than the capacity.
type RollingSeries struct {
	metric   Metric
	capacity int
	policy   LabelPolicy
	loc      *time.Location

	labels []string
	values []float64
	times  []time.Time
}

// NewRollingSeries creates an empty series holding at most capacity points
func NewRollingSeries(metric Metric, capacity int, policy LabelPolicy, loc *time.Location) *RollingSeries {
	if capacity < 1 {
		capacity = 1
	}
	if loc == nil {
		loc = time.Local
	}
	return &RollingSeries{
		metric:   metric,
		capacity: capacity,
		policy:   policy,
		loc:      loc,
		labels:   make([]string, 0, capacity),
		values:   make([]float64, 0, capacity),
		times:    make([]time.Time, 0, capacity),
	}
}

// Append adds one sample, evicting the oldest point when full.
// A sample without a timestamp is skipped and Append returns false.
func (s *RollingSeries) Append(sample Sample) bool {
	if !sample.Valid() {
		return false
	}
	if len(s.values) == s.capacity {
		// shift in place so the backing arrays keep their identity
		copy(s.labels, s.labels[1:])
		copy(s.values, s.values[1:])
		copy(s.times, s.times[1:])
		s.labels = s.labels[:len(s.labels)-1]
		s.values = s.values[:len(s.values)-1]
		s.times = s.times[:len(s.times)-1]
	}
	s.labels = append(s.labels, s.policy.Format(sample.Time, s.loc))
	s.values = append(s.values, sample.Value)
	s.times = append(s.times, sample.Time)
	return true
}

// ReplaceAll clears the series and loads samples in order. When more
// samples than the capacity are given, only the newest ones remain.
func (s *RollingSeries) ReplaceAll(samples []Sample) {
	s.Clear()
	for _, sample := range samples {
		s.Append(sample)
	}
}

// Clear empties the series without releasing its storage
func (s *RollingSeries) Clear() {
	s.labels = s.labels[:0]
	s.values = s.values[:0]
	s.times = s.times[:0]
}

func (s *RollingSeries) Len() int {
	return len(s.values)
}

func (s *RollingSeries) Cap() int {
	return s.capacity
}

func (s *RollingSeries) Empty() bool {
	return len(s.values) == 0
}

func (s *RollingSeries) Metric() Metric {
	return s.metric
}

// Labels returns the formatted x-axis labels, oldest first
func (s *RollingSeries) Labels() []string {
	return s.labels
}

// Values returns the readings, oldest first
func (s *RollingSeries) Values() []float64 {
	return s.values
}

// Times returns the original timestamps, oldest first
func (s *RollingSeries) Times() []time.Time {
	return s.times
}

// Last returns the newest point
func (s *RollingSeries) Last() (label string, value float64, ok bool) {
	if len(s.values) == 0 {
		return "", 0, false
	}
	i := len(s.values) - 1
	return s.labels[i], s.values[i], true
}

// Bounds returns the minimum and maximum value
func (s *RollingSeries) Bounds() (lo, hi float64) {
	for i, v := range s.values {
		if i == 0 || v < lo {
			lo = v
		}
		if i == 0 || v > hi {
			hi = v
		}
	}
	return lo, hi
}
