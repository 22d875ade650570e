package hydrotop

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"go.uber.org/zap"
)

// DefaultPrometheusQuery averages each metric over the aggregation window
const DefaultPrometheusQuery = "avg_over_time($metric[$window])"

// PrometheusHistory serves historical ranges from a Prometheus server that
// scrapes the board, as an alternative to the board's own sample store.
type PrometheusHistory struct {
	api     v1.API
	url     *url.URL
	query   string
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
	metrics *Metrics
}

func NewPrometheusHistory(prometheusURL *url.URL, query string, timeout time.Duration, logger *zap.Logger, metrics *Metrics) (*PrometheusHistory, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}
	if query == "" {
		query = DefaultPrometheusQuery
	}
	if timeout <= 0 {
		timeout = FetchTimeout()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PrometheusHistory{
		api:     v1.NewAPI(client),
		url:     prometheusURL,
		query:   query,
		timeout: timeout,
		now:     time.Now,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Check verifies the Prometheus API answers at all
func (p *PrometheusHistory) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, warnings, err := p.api.Query(ctx, "up", p.now())
	if err != nil {
		return fmt.Errorf("prometheus API query failed: %w", err)
	}
	if len(warnings) > 0 {
		p.logger.Warn("prometheus warnings", zap.Strings("warnings", warnings))
	}
	return nil
}

// Fetch implements HistoryFetcher with a range query stepping by window
func (p *PrometheusHistory) Fetch(ctx context.Context, metric Metric, start, window string) ([]Sample, bool) {
	samples, err := p.fetch(ctx, metric, start, window)
	if p.metrics != nil {
		p.metrics.HistoryFetches.WithLabelValues(metric.String(), result(err == nil)).Inc()
	}
	if err != nil {
		p.logger.Warn("failed to query prometheus",
			zap.String("metric", metric.String()),
			zap.String("start", start),
			zap.String("window", window),
			zap.Error(err))
		return nil, false
	}
	return samples, true
}

func (p *PrometheusHistory) fetch(ctx context.Context, metric Metric, start, window string) ([]Sample, error) {
	offset, err := ParseOffset(start)
	if err != nil {
		return nil, err
	}
	step, err := model.ParseDuration(window)
	if err != nil {
		return nil, fmt.Errorf("parse window %q: %w", window, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	end := p.now()
	query := strings.NewReplacer("$metric", metric.String(), "$window", window).Replace(p.query)
	result, warnings, err := p.api.QueryRange(ctx, query, v1.Range{
		Start: end.Add(-offset),
		End:   end,
		Step:  time.Duration(step),
	})
	if err != nil {
		return nil, fmt.Errorf("query_range %q: %w", query, err)
	}
	if len(warnings) > 0 {
		p.logger.Warn("prometheus warnings", zap.Strings("warnings", warnings))
	}

	matrix, ok := result.(model.Matrix)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %s", result.Type())
	}
	if len(matrix) == 0 {
		return []Sample{}, nil
	}

	// one series is expected; extra series (several boards) are ignored
	values := matrix[0].Values
	samples := make([]Sample, 0, len(values))
	for _, v := range values {
		s := Sample{Time: v.Timestamp.Time(), Value: float64(v.Value)}
		if s.Valid() {
			samples = append(samples, s)
		}
	}
	return samples, nil
}

// ParseOffset reads a relative start such as "-7d" as a positive duration
func ParseOffset(start string) (time.Duration, error) {
	d, err := model.ParseDuration(strings.TrimPrefix(strings.TrimSpace(start), "-"))
	if err != nil {
		return 0, fmt.Errorf("parse start %q: %w", start, err)
	}
	return time.Duration(d), nil
}
