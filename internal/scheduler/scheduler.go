// Package scheduler runs the fetch, format, deliver cycle on a fixed schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"okxbalance/internal/metrics"
	"okxbalance/tg"
	"okxbalance/types"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Fetcher interface {
	Fetch(ctx context.Context) *types.BalanceSnapshot
}

type Formatter interface {
	Format(s *types.BalanceSnapshot) (string, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, text string) bool
}

type Outcome string

const (
	OutcomeFetchFailed    Outcome = "fetch_failed"
	OutcomeNoData         Outcome = "no_data"
	OutcomeFormatFailed   Outcome = "format_failed"
	OutcomeDeliveryFailed Outcome = "delivery_failed"
	OutcomeDelivered      Outcome = "delivered"
)

type Scheduler struct {
	fetcher   Fetcher
	formatter Formatter
	deliverer Deliverer
	schedule  cron.Schedule
	log       zerolog.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func New(f Fetcher, fm Formatter, d Deliverer, schedule cron.Schedule, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		fetcher:   f,
		formatter: fm,
		deliverer: d,
		schedule:  schedule,
		log:       log,
		now:       time.Now,
		after:     time.After,
	}
}

// fixedDelay activates exactly delay after the given time. cron.Every aligns
// to whole seconds, which would shorten every wait by the sub-second part of now.
type fixedDelay struct {
	delay time.Duration
}

func (f fixedDelay) Next(t time.Time) time.Time { return t.Add(f.delay) }

// NewSchedule parses spec as a cron expression or descriptor such as
// "@every 5m". An empty spec means a constant delay of intervalSec.
func NewSchedule(spec string, intervalSec int) (cron.Schedule, error) {
	if spec == "" {
		return fixedDelay{delay: time.Duration(intervalSec) * time.Second}, nil
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Run repeats RunOnce until ctx is cancelled. The wait is computed after each
// cycle finishes, so a cycle's period is its work time plus the interval.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.RunOnce(ctx)

		now := s.now()
		wait := s.schedule.Next(now).Sub(now)
		s.log.Debug().Dur("wait", wait).Msg("sleeping until next cycle")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.after(wait):
		}
	}
}

func (s *Scheduler) RunOnce(ctx context.Context) Outcome {
	log := s.log.With().Str("cycle", uuid.NewString()).Logger()

	outcome := s.cycle(ctx, log)
	metrics.CyclesTotal.WithLabelValues(string(outcome)).Inc()
	if outcome == OutcomeDelivered {
		metrics.LastSuccess.SetToCurrentTime()
	}

	log.Debug().Str("outcome", string(outcome)).Msg("cycle finished")
	return outcome
}

func (s *Scheduler) cycle(ctx context.Context, log zerolog.Logger) Outcome {
	snapshot := s.fetcher.Fetch(ctx)
	if snapshot == nil {
		metrics.FetchesTotal.WithLabelValues("error").Inc()
		return OutcomeFetchFailed
	}
	metrics.FetchesTotal.WithLabelValues("ok").Inc()

	msg, err := s.formatter.Format(snapshot)
	if errors.Is(err, tg.ErrNoData) || (err == nil && msg == "") {
		log.Warn().Msg("no balance data found")
		return OutcomeNoData
	}
	if err != nil {
		log.Error().Err(err).Msg("format balance message")
		return OutcomeFormatFailed
	}

	if !s.deliverer.Deliver(ctx, msg) {
		metrics.DeliveriesTotal.WithLabelValues("error").Inc()
		log.Error().Msg("failed to send telegram notification")
		return OutcomeDeliveryFailed
	}
	metrics.DeliveriesTotal.WithLabelValues("ok").Inc()

	log.Info().Msg("balance notification sent")
	return OutcomeDelivered
}
