// Antenna Status Prometheus Exporter
//
// This exporter polls LTE/WCDMA modems (Netgear AirCard JSON, Huawei HiLink
// XML) for signal, battery, temperature and traffic data and exposes it in
// Prometheus format.
//
// Usage:
//
//	antenna-exporter [flags]
//
// Flags:
//
//	-config string    Path to config file, .yaml or .toml (default: no config file)
//	-port int         Port to serve metrics on (default: 9110)
//	-host string      Modem address (default: vendor default)
//	-vendor string    Modem vendor: netgear, huawei, auto (default: auto)
//	-interval string  Poll interval: 1s, 2s, 5s, 10s, 15s, 30s or 60s (default: 2s)
//	-log-level string Log level (default: info)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/antenna-status/exporter/config"
	"github.com/antenna-status/exporter/logging"
	"github.com/antenna-status/exporter/metrics"
	"github.com/antenna-status/exporter/modem"
	"github.com/antenna-status/exporter/monitor"
	"github.com/antenna-status/exporter/poller"
	"github.com/antenna-status/exporter/traffic"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file (.yaml or .toml)")
	port := flag.Int("port", 0, "Port to serve metrics on (default: 9110)")
	host := flag.String("host", "", "Modem address (default: vendor default)")
	vendor := flag.String("vendor", "", "Modem vendor: netgear, huawei, auto (default: auto)")
	interval := flag.String("interval", "", "Poll interval (default: 2s)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (default: info)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("antenna-exporter %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Load environment variables
	config.LoadConfigFromEnv(cfg)

	// Override with command line flags
	if *port != 0 {
		cfg.Metrics.Port = *port
	}
	if *host != "" {
		cfg.Modem.Host = *host
	}
	if *vendor != "" {
		cfg.Modem.Vendor = *vendor
	}
	if *interval != "" {
		if d, err := time.ParseDuration(*interval); err == nil {
			cfg.Modem.PollInterval = config.Duration(d)
		}
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("exporter failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("starting antenna status exporter",
		zap.String("version", version),
		zap.String("vendor", cfg.Modem.Vendor),
		zap.String("host", cfg.Modem.Host),
		zap.Duration("poll_interval", time.Duration(cfg.Modem.PollInterval)),
		zap.Int("metrics_port", cfg.Metrics.Port),
	)

	// Create modem client
	client, err := modem.NewClient(cfg.ToModemConfig(), logger.Named("modem"))
	if err != nil {
		return fmt.Errorf("failed to create modem client: %w", err)
	}
	defer client.Close()

	modemHost := modem.ResolveHost(client, cfg.Modem.Host)
	logger.Info("using modem", zap.String("vendor", string(client.Vendor())), zap.String("host", modemHost))

	// Create metrics collector and register it with Prometheus
	collector := metrics.NewCollector()
	prometheus.MustRegister(collector)

	// The monitor owns the poller; everything else talks to it through commands
	p := poller.New(client, logger)
	mon := monitor.New(p, traffic.NewCounter(nil), monitor.Config{
		Host:      modemHost,
		Interval:  time.Duration(cfg.Modem.PollInterval),
		AutoStart: cfg.Modem.AutoStart,
	}, logger, collector)

	srv := &server{
		log:         logger.Named("http"),
		collector:   collector,
		polls:       mon,
		vendor:      client.Vendor(),
		host:        modemHost,
		metricsPath: cfg.Metrics.Path,
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:      srv.routes(promhttp.Handler()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go mon.Run(ctx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", zap.String("url", fmt.Sprintf("http://localhost:%d%s", cfg.Metrics.Port, cfg.Metrics.Path)))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serverErr:
		if err != nil {
			stop()
			<-mon.Done()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	// the monitor stops the poller, waiting out any in-flight fetch
	<-mon.Done()
	logger.Info("exporter stopped")
	return nil
}
