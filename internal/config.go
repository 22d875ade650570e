package hydrotop

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FeedSocketIO = "socketio"
	FeedScrape   = "scrape"

	HistoryBoard      = "board"
	HistoryPrometheus = "prometheus"
)

// Config is the validated runtime configuration
type Config struct {
	BoardURL        string
	Feed            string
	ScrapeURL       string
	ScrapeInterval  time.Duration
	History         string
	PrometheusURL   string
	PrometheusQuery string
	LivePoints      int
	LiveTimeout     time.Duration
	FetchTimeout    time.Duration
	ReconnectDelay  time.Duration
	Location        *time.Location
	LogFile         string
	LogLevel        zapcore.Level
	MetricsListen   string
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("feed", FeedSocketIO)
	v.SetDefault("scrape_interval", "5s")
	v.SetDefault("history", HistoryBoard)
	v.SetDefault("prometheus_query", DefaultPrometheusQuery)
	v.SetDefault("live_points", LIVE_POINTS)
	v.SetDefault("live_timeout", LiveTimeout().String())
	v.SetDefault("fetch_timeout", FetchTimeout().String())
	v.SetDefault("reconnect_delay", "2s")
	v.SetDefault("timezone", "Local")
	v.SetDefault("log_file", "hydrotop.log")
	v.SetDefault("log_level", "info")
}

// LoadConfig reads and validates every key from v
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		BoardURL:        v.GetString("board_url"),
		Feed:            v.GetString("feed"),
		ScrapeURL:       v.GetString("scrape_url"),
		History:         v.GetString("history"),
		PrometheusURL:   v.GetString("prometheus_url"),
		PrometheusQuery: v.GetString("prometheus_query"),
		LivePoints:      v.GetInt("live_points"),
		LogFile:         v.GetString("log_file"),
		MetricsListen:   v.GetString("metrics_listen"),
	}

	var err error
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"scrape_interval", &cfg.ScrapeInterval},
		{"live_timeout", &cfg.LiveTimeout},
		{"fetch_timeout", &cfg.FetchTimeout},
		{"reconnect_delay", &cfg.ReconnectDelay},
	}
	for _, d := range durations {
		if *d.dst, err = time.ParseDuration(v.GetString(d.key)); err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		if *d.dst <= 0 {
			return Config{}, fmt.Errorf("%s must be positive", d.key)
		}
	}

	if cfg.LivePoints <= 0 {
		return Config{}, fmt.Errorf("live_points must be positive, got %d", cfg.LivePoints)
	}

	if cfg.Location, err = time.LoadLocation(v.GetString("timezone")); err != nil {
		return Config{}, fmt.Errorf("invalid timezone: %w", err)
	}

	if cfg.LogLevel, err = zapcore.ParseLevel(v.GetString("log_level")); err != nil {
		return Config{}, fmt.Errorf("invalid log_level: %w", err)
	}

	switch cfg.Feed {
	case FeedSocketIO:
		if cfg.BoardURL == "" {
			return Config{}, errors.New("board_url must be set for the socketio feed")
		}
	case FeedScrape:
		if _, err := url.ParseRequestURI(cfg.ScrapeURL); err != nil {
			return Config{}, fmt.Errorf("scrape_url must be set for the scrape feed: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unknown feed %q (want %s or %s)", cfg.Feed, FeedSocketIO, FeedScrape)
	}

	switch cfg.History {
	case HistoryBoard:
		if cfg.BoardURL == "" {
			return Config{}, errors.New("board_url must be set for board history")
		}
	case HistoryPrometheus:
		if _, err := url.ParseRequestURI(cfg.PrometheusURL); err != nil {
			return Config{}, fmt.Errorf("prometheus_url must be set for prometheus history: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unknown history source %q (want %s or %s)", cfg.History, HistoryBoard, HistoryPrometheus)
	}

	return cfg, nil
}

// NewLogger writes JSON logs to the configured file; the terminal belongs
// to the dashboard
func NewLogger(cfg Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	zc.OutputPaths = []string{cfg.LogFile}
	zc.ErrorOutputPaths = []string{cfg.LogFile}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
