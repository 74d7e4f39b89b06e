// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package main is the agenda service: it answers the agenda API over NATS
// request/reply, publishes change events and sweeps reminders.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/handlers"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/infrastructure/calendar"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/infrastructure/scheduler"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/recurrence"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-agenda-service/pkg/utils"
)

func main() {
	env, err := parseEnv()
	if err != nil {
		slog.With(logging.ErrKey, err).Error("invalid configuration")
		os.Exit(1)
	}
	flags := parseFlags(env.Port)

	logging.InitStructureLogConfig()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	otelShutdown, err := utils.SetupOTelSDK(ctx)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up OpenTelemetry SDK")
		os.Exit(1)
	}

	natsConn, err := setupNATS(ctx, env, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		return
	}

	repo, repoCloser, err := setupRepository(ctx, env, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err, "store_backend", env.StoreBackend).Error("error setting up series store")
		return
	}

	// Initialize services
	messageBuilder := messaging.NewMessageBuilder(natsConn, env.EventWorkers)
	agendaService := service.NewAgendaService(
		repo,
		messageBuilder,
		recurrence.NewEvaluator(env.MaxOccurrenceScan),
		service.ServiceConfig{MaxWindowDays: env.MaxWindowDays},
	)

	// Initialize handlers
	agendaHandler := handlers.NewAgendaHandler(agendaService, calendar.NewExporter())

	httpServer := setupHTTPServer(flags, agendaHandler, &gracefulCloseWG)

	if err := createNatsSubscriptions(ctx, natsConn, env.NATSQueue, agendaHandler); err != nil {
		slog.With(logging.ErrKey, err).Error("error creating NATS subscriptions")
		return
	}

	var steps []shutdownStep
	if env.RemindersEnabled {
		reminders, err := scheduler.NewReminderScheduler(service.NewReminderService(agendaService), env.ReminderSchedule)
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting up reminder scheduler")
			return
		}
		reminders.Start()
		slog.With("schedule", env.ReminderSchedule).Info("reminder scheduler started")
		steps = append(steps, shutdownStep{name: "reminders", fn: reminders.Stop})
	}

	steps = append(steps, shutdownStep{name: "nats", fn: func(context.Context) error {
		if natsConn.IsClosed() {
			return nil
		}
		// Drain lets in-flight requests finish; the closed handler releases the wait group.
		return natsConn.Drain()
	}})
	if repoCloser != nil {
		steps = append(steps, shutdownStep{name: "store", fn: func(context.Context) error {
			return repoCloser.Close()
		}})
	}
	steps = append(steps, shutdownStep{name: "otel", fn: otelShutdown})

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	gracefulShutdown(httpServer, &gracefulCloseWG, cancel, steps...)
}
