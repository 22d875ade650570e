package hydrotop

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
)

// ScrapeTransport polls a Prometheus text exposition endpoint (for example
// an exporter running next to the board) and turns each scrape into push
// channel events: one message per metric family named after a metric
// symbol, plus state_changed whenever the "state" family changes.
type ScrapeTransport struct {
	url      *url.URL
	interval time.Duration
	client   *http.Client
	now      func() time.Time
	logger   *zap.Logger

	lastState string
}

func NewScrapeTransport(target *url.URL, interval time.Duration, logger *zap.Logger) *ScrapeTransport {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScrapeTransport{
		url:      target,
		interval: interval,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		now:    time.Now,
		logger: logger,
	}
}

// Run implements Transport. A failed scrape counts as a disconnect, the
// next successful one as a reconnect.
func (s *ScrapeTransport) Run(ctx context.Context, out chan<- Event) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var connected *bool // unknown until the first scrape
	for {
		events, err := s.scrape(ctx)
		if ctx.Err() != nil {
			return nil
		}
		up := err == nil
		if err != nil {
			s.logger.Warn("scrape failed", zap.String("url", s.url.String()), zap.Error(err))
		}
		if connected == nil || *connected != up {
			kind := EventDisconnect
			if up {
				kind = EventConnect
			}
			if !emit(ctx, out, Event{Kind: kind}) {
				return nil
			}
			connected = &up
		}
		for _, ev := range events {
			if !emit(ctx, out, ev) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *ScrapeTransport) scrape(ctx context.Context) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error querying exporter: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exporter returned status %d", resp.StatusCode)
	}

	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metrics: %w", err)
	}

	scrapedAt := s.now()
	var events []Event
	for _, metric := range AllMetrics() {
		family, ok := families[metric.String()]
		if !ok || len(family.GetMetric()) == 0 {
			continue
		}
		m := family.GetMetric()[0]
		value, ok := metricValue(m)
		if !ok {
			continue
		}
		ts := scrapedAt
		if m.TimestampMs != nil {
			ts = time.UnixMilli(m.GetTimestampMs())
		}
		events = append(events, Event{
			Kind:    EventMessage,
			Topic:   metric.String(),
			Payload: EncodeSample(Sample{Time: ts, Value: value}),
		})
	}

	if state := activeState(families["state"]); state != "" && state != s.lastState {
		s.lastState = state
		payload, _ := json.Marshal(map[string]string{"state": state})
		events = append(events, Event{
			Kind:    EventMessage,
			Topic:   StateTopic,
			Payload: payload,
		})
	}
	return events, nil
}

func metricValue(m *dto.Metric) (float64, bool) {
	switch {
	case m.Gauge != nil:
		return m.GetGauge().GetValue(), true
	case m.Untyped != nil:
		return m.GetUntyped().GetValue(), true
	case m.Counter != nil:
		return m.GetCounter().GetValue(), true
	}
	return 0, false
}

// activeState returns the "state" label of the series whose value is 1
func activeState(family *dto.MetricFamily) string {
	if family == nil {
		return ""
	}
	for _, m := range family.GetMetric() {
		value, ok := metricValue(m)
		if !ok || value != 1 {
			continue
		}
		for _, label := range m.GetLabel() {
			if label.GetName() == "state" {
				return label.GetValue()
			}
		}
	}
	return ""
}
