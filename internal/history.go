package hydrotop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// HistoryFetcher loads an aggregated window of samples for one metric.
// Failures are logged by the implementation and reported as ok == false.
type HistoryFetcher interface {
	Fetch(ctx context.Context, metric Metric, start, window string) ([]Sample, bool)
}

// SamplesClient reads history from the board's get_samples endpoint
type SamplesClient struct {
	base    *url.URL
	client  *http.Client
	loc     *time.Location
	logger  *zap.Logger
	metrics *Metrics
}

// NewSamplesClient creates a client for the board at base
func NewSamplesClient(base *url.URL, timeout time.Duration, loc *time.Location, logger *zap.Logger, metrics *Metrics) *SamplesClient {
	if timeout <= 0 {
		timeout = FetchTimeout()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SamplesClient{
		base:    base,
		client:  &http.Client{Timeout: timeout},
		loc:     loc,
		logger:  logger,
		metrics: metrics,
	}
}

// samplesURL builds /get_samples/{resource}/{start}/{window} below the base path
func (c *SamplesClient) samplesURL(metric Metric, start, window string) string {
	return c.base.JoinPath("get_samples", metric.String(), start, window).String()
}

// Fetch implements HistoryFetcher. It never retries.
func (c *SamplesClient) Fetch(ctx context.Context, metric Metric, start, window string) ([]Sample, bool) {
	samples, err := c.fetch(ctx, metric, start, window)
	if c.metrics != nil {
		c.metrics.HistoryFetches.WithLabelValues(metric.String(), result(err == nil)).Inc()
	}
	if err != nil {
		c.logger.Warn("failed to get samples",
			zap.String("metric", metric.String()),
			zap.String("start", start),
			zap.String("window", window),
			zap.Error(err))
		return nil, false
	}
	return samples, true
}

func (c *SamplesClient) fetch(ctx context.Context, metric Metric, start, window string) ([]Sample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.samplesURL(metric, start, window), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get samples: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error, status: %d", resp.StatusCode)
	}

	// the endpoint answers with an array on success and {"error": ...} on failure
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var payload struct {
			Error *string `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &payload); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		if payload.Error != nil {
			return nil, fmt.Errorf("board error: %s", *payload.Error)
		}
		return nil, fmt.Errorf("unexpected object response")
	}

	samples, skipped, err := DecodeSamples(trimmed, c.loc)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		c.logger.Debug("skipped malformed samples",
			zap.String("metric", metric.String()),
			zap.Int("skipped", skipped))
		if c.metrics != nil {
			c.metrics.MalformedSamples.WithLabelValues("history").Add(float64(skipped))
		}
	}
	return samples, nil
}
