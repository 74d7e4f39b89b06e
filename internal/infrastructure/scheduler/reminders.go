// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package scheduler runs the periodic reminder sweep.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-agenda-service/pkg/constants"
)

// DefaultSpec sweeps once a minute.
const DefaultSpec = constants.DefaultReminderSchedule

// Dispatcher publishes the reminders that fire in (since, until].
type Dispatcher interface {
	Dispatch(ctx context.Context, since, until time.Time) (int, error)
}

// ReminderScheduler calls the dispatcher on a cron schedule with windows that
// tile time without gaps: each sweep starts where the last successful one ended.
type ReminderScheduler struct {
	dispatcher Dispatcher
	cron       *cron.Cron
	now        func() time.Time

	mu      sync.Mutex
	lastRun time.Time
}

// Option configures a ReminderScheduler.
type Option func(*ReminderScheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *ReminderScheduler) { s.now = now }
}

// NewReminderScheduler registers the sweep under spec, a five-field cron
// expression or a descriptor such as "@every 1m". The first window starts at
// construction time.
func NewReminderScheduler(dispatcher Dispatcher, spec string, opts ...Option) (*ReminderScheduler, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("reminder dispatcher is required")
	}
	if spec == "" {
		spec = DefaultSpec
	}

	s := &ReminderScheduler{dispatcher: dispatcher, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.lastRun = s.now().UTC()

	logger := cronLogger{}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := s.cron.AddFunc(spec, func() { s.Tick(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule in its own goroutine.
func (s *ReminderScheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep until ctx expires.
func (s *ReminderScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tick runs one sweep over (lastRun, now]. A failed sweep keeps lastRun so
// the next one covers the same reminders again.
func (s *ReminderScheduler) Tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until := s.now().UTC()
	since := s.lastRun
	if !until.After(since) {
		return
	}

	ctx = logging.AppendCtx(ctx, slog.Time("since", since))
	ctx = logging.AppendCtx(ctx, slog.Time("until", until))

	n, err := s.dispatcher.Dispatch(ctx, since, until)
	if err != nil {
		slog.ErrorContext(ctx, "reminder sweep failed", logging.ErrKey, err)
		return
	}
	s.lastRun = until
	if n > 0 {
		slog.InfoContext(ctx, "reminders dispatched", "count", n)
	}
}

// LastRun returns the end of the last successful sweep.
func (s *ReminderScheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// cronLogger routes cron's own logging to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{logging.ErrKey, err}, keysAndValues...)...)
}
