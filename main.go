package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	hydrotop "github.com/jondoveston/hydrotop/internal"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hydrotop [board-url]",
	Short: "Terminal dashboard for a hydroponics controller board",
	Long: `hydrotop charts temperature, conductivity, pH and tank level readings
of a hydroponics controller board, live and over past time ranges, and
sends it commands.

Examples:
  hydrotop 192.168.1.40
  hydrotop http://board.lan:7000
  hydrotop --feed scrape --scrape-url http://board.lan:9100/metrics \
    --history prometheus --prometheus-url http://prometheus.lan:9090
  HYDROTOP_BOARD_URL=http://board.lan:7000 hydrotop`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var flagKeys = map[string]string{
	"board-url":        "board_url",
	"feed":             "feed",
	"scrape-url":       "scrape_url",
	"scrape-interval":  "scrape_interval",
	"history":          "history",
	"prometheus-url":   "prometheus_url",
	"prometheus-query": "prometheus_query",
	"live-points":      "live_points",
	"live-timeout":     "live_timeout",
	"fetch-timeout":    "fetch_timeout",
	"reconnect-delay":  "reconnect_delay",
	"timezone":         "timezone",
	"log-file":         "log_file",
	"log-level":        "log_level",
	"metrics-listen":   "metrics_listen",
}

func init() {
	flags := rootCmd.Flags()
	flags.String("board-url", "", "board address (URL or host[:port])")
	flags.String("feed", hydrotop.FeedSocketIO, "live feed: socketio or scrape")
	flags.String("scrape-url", "", "metrics endpoint polled by the scrape feed")
	flags.String("scrape-interval", "5s", "poll interval of the scrape feed")
	flags.String("history", hydrotop.HistoryBoard, "history source: board or prometheus")
	flags.String("prometheus-url", "", "Prometheus server URL for prometheus history")
	flags.String("prometheus-query", hydrotop.DefaultPrometheusQuery, "range query template")
	flags.Int("live-points", hydrotop.LIVE_POINTS, "points kept by live charts")
	flags.String("live-timeout", hydrotop.LiveTimeout().String(), "idle time before the live marker goes out")
	flags.String("fetch-timeout", hydrotop.FetchTimeout().String(), "timeout of history and command requests")
	flags.String("reconnect-delay", "2s", "initial push channel reconnect delay")
	flags.String("timezone", "Local", "timezone of chart labels")
	flags.String("log-file", "hydrotop.log", "log file")
	flags.String("log-level", "info", "log level")
	flags.String("metrics-listen", "", "serve self metrics on this address, e.g. :9464")
	flags.BoolP("version", "v", false, "Print version information")

	// dashes in flags become underscores in viper
	for flag, key := range flagKeys {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind %s: %v", flag, err))
		}
	}

	viper.SetEnvPrefix("hydrotop")
	viper.AutomaticEnv()
	hydrotop.SetDefaults(viper.GetViper())
}

func run(cmd *cobra.Command, args []string) error {
	if versionFlag, _ := cmd.Flags().GetBool("version"); versionFlag {
		fmt.Printf("hydrotop version %s\n", version)
		return nil
	}

	// a .env file may carry HYDROTOP_* settings; real env vars win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	// positional argument only if the board was not set by env var or flag
	if len(args) == 1 && viper.GetString("board_url") == "" {
		viper.Set("board_url", args[0])
	}

	cfg, err := hydrotop.LoadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := hydrotop.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger.Info("starting hydrotop", zap.String("version", version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	metrics := hydrotop.NewMetrics(reg)
	if cfg.MetricsListen != "" {
		go func() {
			if err := hydrotop.ServeMetrics(ctx, cfg.MetricsListen, reg, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	var board *url.URL
	if cfg.BoardURL != "" {
		base, explicit, err := hydrotop.ParseBoardAddress(cfg.BoardURL)
		if err != nil {
			return fmt.Errorf("invalid board_url: %w", err)
		}
		if !explicit {
			base = hydrotop.ResolveBoard(ctx, base, logger)
		}
		board = base
		logger.Info("using board", zap.String("url", board.String()))
	}

	var history hydrotop.HistoryFetcher
	switch cfg.History {
	case hydrotop.HistoryPrometheus:
		promURL, _ := url.Parse(cfg.PrometheusURL)
		ph, err := hydrotop.NewPrometheusHistory(promURL, cfg.PrometheusQuery, cfg.FetchTimeout, logger, metrics)
		if err != nil {
			return err
		}
		if err := ph.Check(ctx); err != nil {
			// history requests will log their own failures
			logger.Warn("prometheus not reachable", zap.Error(err))
		}
		history = ph
	default:
		history = hydrotop.NewSamplesClient(board, cfg.FetchTimeout, cfg.Location, logger, metrics)
	}

	var transport hydrotop.Transport
	switch cfg.Feed {
	case hydrotop.FeedScrape:
		target, _ := url.Parse(cfg.ScrapeURL)
		transport = hydrotop.NewScrapeTransport(target, cfg.ScrapeInterval, logger)
	default:
		transport = hydrotop.NewSocketIOTransport(board, cfg.ReconnectDelay, logger)
	}
	feed := hydrotop.NewLiveFeed(transport, cfg.Location, logger, metrics)
	feed.Start(ctx)

	var commands *hydrotop.CommandClient
	if board != nil {
		commands = hydrotop.NewCommandClient(board, cfg.FetchTimeout, logger, metrics)
	}

	dashboard := hydrotop.NewDashboard(hydrotop.DashboardOptions{
		Ranges:       hydrotop.DefaultRanges(cfg.LivePoints),
		Location:     cfg.Location,
		LiveTimeout:  cfg.LiveTimeout,
		FetchTimeout: cfg.FetchTimeout,
		Feed:         feed,
		History:      history,
		Commands:     commands,
		Logger:       logger,
	})
	return hydrotop.Run(dashboard)
}
