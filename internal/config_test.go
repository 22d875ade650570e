package hydrotop

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

func newTestViper(values map[string]any) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(newTestViper(map[string]any{"board_url": "board.lan"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Feed != FeedSocketIO || cfg.History != HistoryBoard {
		t.Fatalf("unexpected sources %s/%s", cfg.Feed, cfg.History)
	}
	if cfg.LivePoints != LIVE_POINTS || cfg.LiveTimeout != 10*time.Second || cfg.FetchTimeout != 15*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ReconnectDelay != 2*time.Second || cfg.LogLevel != zapcore.InfoLevel {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigAlternativeSources(t *testing.T) {
	cfg, err := LoadConfig(newTestViper(map[string]any{
		"feed":           "scrape",
		"scrape_url":     "http://board.lan:9100/metrics",
		"history":        "prometheus",
		"prometheus_url": "http://prometheus.lan:9090",
		"timezone":       "Europe/Berlin",
	}))
	if err != nil {
		t.Fatalf("no board is needed with both alternatives: %v", err)
	}
	if cfg.Location.String() != "Europe/Berlin" {
		t.Fatalf("unexpected zone %s", cfg.Location)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
		want   string
	}{
		{"no board", map[string]any{}, "board_url"},
		{"unknown feed", map[string]any{"board_url": "b", "feed": "mqtt"}, "unknown feed"},
		{"unknown history", map[string]any{"board_url": "b", "history": "sqlite"}, "unknown history"},
		{"scrape without url", map[string]any{"board_url": "b", "feed": "scrape"}, "scrape_url"},
		{"prometheus without url", map[string]any{"board_url": "b", "history": "prometheus"}, "prometheus_url"},
		{"bad duration", map[string]any{"board_url": "b", "live_timeout": "soon"}, "live_timeout"},
		{"negative duration", map[string]any{"board_url": "b", "fetch_timeout": "-1s"}, "fetch_timeout"},
		{"no live points", map[string]any{"board_url": "b", "live_points": 0}, "live_points"},
		{"bad zone", map[string]any{"board_url": "b", "timezone": "Mars/Olympus"}, "timezone"},
		{"bad level", map[string]any{"board_url": "b", "log_level": "loud"}, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(newTestViper(tt.values))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}
