package main

import (
	"context"
	"errors"
	"okxbalance/internal/config"
	"okxbalance/internal/logsink"
	"okxbalance/internal/metrics"
	"okxbalance/internal/scheduler"
	"okxbalance/okx"
	"okxbalance/tg"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	boot := logsink.NewLogger(os.Stderr, "info")

	path := os.Getenv("OKXBALANCE_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}

	sink, err := logsink.Open(cfg.Log)
	if err != nil {
		boot.Fatal().Err(err).Msg("open log sink")
	}
	defer sink.Close()
	log := logsink.NewLogger(sink, cfg.Log.Level)

	sched, err := scheduler.NewSchedule(cfg.Schedule, cfg.IntervalSec)
	if err != nil {
		log.Fatal().Err(err).Msg("build schedule")
	}

	if cfg.MetricsAddr != "" {
		srv := metrics.Serve(cfg.MetricsAddr, log)
		defer srv.Close()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics up")
	}

	s := scheduler.New(
		okx.NewClient(cfg, log),
		tg.Formatter{Total: cfg.TotalMode},
		tg.NewNotifier(cfg, log),
		sched,
		log,
	)

	log.Info().
		Str("sink", cfg.Log.Sink).
		Int("interval_sec", cfg.IntervalSec).
		Str("schedule", cfg.Schedule).
		Str("total_mode", string(cfg.TotalMode)).
		Msg("balance monitor started")

	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("scheduler stopped")
	}
	log.Info().Msg("shutting down")
}
