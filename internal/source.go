package hydrotop

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// BoardPort is the port the board's web UI listens on by default
const BoardPort = "7000"

// ParseBoardAddress accepts either a full URL or a bare host[:port]. The
// second result reports whether the scheme was given explicitly.
func ParseBoardAddress(raw string) (*url.URL, bool, error) {
	raw = strings.TrimSpace(raw)
	explicit := strings.Contains(raw, "://")
	if !explicit {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false, err
	}
	return u, explicit, nil
}

// ResolveBoard finds a reachable variant of a board address given without
// a scheme. The first variant whose history endpoint answers wins; when
// none does, base is returned unchanged so the dashboard can keep
// retrying in the background.
func ResolveBoard(ctx context.Context, base *url.URL, logger *zap.Logger) *url.URL {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &http.Client{Timeout: 2 * time.Second}
	for _, variant := range generateURLVariants(base) {
		logger.Debug("trying board address", zap.String("url", variant.String()))
		if err := probeBoard(ctx, client, variant); err != nil {
			logger.Debug("board probe failed", zap.String("url", variant.String()), zap.Error(err))
			continue
		}
		logger.Info("found board", zap.String("url", variant.String()))
		return variant
	}
	logger.Warn("no board answered, using address as given", zap.String("url", base.String()))
	return base
}

// probeBoard asks for the shortest history window; any HTTP answer from
// the samples route means a board is listening
func probeBoard(ctx context.Context, client *http.Client, u *url.URL) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		u.JoinPath("get_samples", MetricTemperature.String(), "-1h", "5m").String(), nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return &url.Error{Op: "probe", URL: u.String(), Err: http.ErrNotSupported}
	}
	return nil
}

// generateURLVariants creates the scheme/port combinations to try
func generateURLVariants(base *url.URL) []*url.URL {
	var variants []*url.URL
	hostname := base.Hostname()
	port := base.Port()

	// the board serves plain HTTP unless put behind a proxy
	schemes := []string{"http", "https"}

	var ports []string
	if port != "" {
		ports = []string{port, BoardPort, "80", "443"}
	} else {
		ports = []string{BoardPort, "80", "443"}
	}

	seen := make(map[string]bool)
	uniquePorts := []string{}
	for _, p := range ports {
		if !seen[p] {
			seen[p] = true
			uniquePorts = append(uniquePorts, p)
		}
	}

	for _, scheme := range schemes {
		for _, p := range uniquePorts {
			variants = append(variants, &url.URL{
				Scheme: scheme,
				Host:   net.JoinHostPort(hostname, p),
				Path:   base.Path,
			})
		}
	}

	return variants
}
