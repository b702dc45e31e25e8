package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mhradil/flatbot/internal/aggregator"
	"github.com/mhradil/flatbot/internal/config"
	"github.com/mhradil/flatbot/internal/logging"
	"github.com/mhradil/flatbot/internal/metrics"
	"github.com/mhradil/flatbot/internal/notifier"
	"github.com/mhradil/flatbot/internal/processor"
	"github.com/mhradil/flatbot/internal/scheduler"
	"github.com/mhradil/flatbot/internal/source"
	"github.com/mhradil/flatbot/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, logCloser := logging.New(logging.Options{
		Debug:            cfg.Debug,
		MirrorWebhookURL: cfg.Discord.DevWebhookURL,
	})
	defer logCloser.Close()

	log.Info().
		Strs("sources", cfg.Sources).
		Int("max_price", cfg.MaxPrice).
		Msg("starting flatbot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.StoragePath, log)
	if err != nil {
		return fmt.Errorf("opening offer store: %w", err)
	}
	defer store.Close()

	httpClient := &http.Client{Timeout: cfg.SourceTimeout.Std()}
	sources, err := source.CreateSources(cfg.Sources, httpClient)
	if err != nil {
		return err
	}

	// Source IDs are the lowercased display names.
	metas := make(map[string]notifier.SourceMeta, len(sources))
	for _, src := range sources {
		metas[strings.ToLower(src.Name())] = notifier.SourceMeta{
			Name:    src.Name(),
			Color:   src.Color(),
			LogoURL: src.LogoURL(),
		}
	}

	m := metrics.New()
	agg := aggregator.New(sources, cfg.SourceTimeout.Std(), log, m)
	discord := notifier.New(cfg.Discord.OffersWebhookURL, cfg.Discord.BotToken, cfg.Discord.OffersChannelID, log)
	proc := processor.New(agg, store, discord, metas, cfg.MaxPrice, log, m)

	metricsServer := serveMetrics(cfg.MetricsAddr, m, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown failed")
		}
	}()

	sched := scheduler.New(
		cfg.DaytimeStartHour, cfg.DaytimeEndHour,
		cfg.RefreshIntervalDaytime.Std(), cfg.RefreshIntervalNighttime.Std(),
		log,
	)
	if err := sched.Run(ctx, proc.ProcessOffers); !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info().Msg("shutting down")
	return nil
}

func serveMetrics(addr string, m *metrics.Metrics, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"status":"ok"}`)
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return server
}
