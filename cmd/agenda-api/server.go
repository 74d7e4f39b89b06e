// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/middleware"
	"github.com/linuxfoundation/lfx-v2-agenda-service/pkg/constants"
)

// gracefulShutdownSeconds should be higher than NATS client
// request timeout, and lower than the pod or liveness probe's
// terminationGracePeriodSeconds.
const gracefulShutdownSeconds = 25

// readiness reports whether the service can take inbound requests.
type readiness interface {
	HandlerReady() bool
}

// newHealthHandler serves the Kubernetes probes.
func newHealthHandler(ready readiness) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+constants.LivenessPath, func(w http.ResponseWriter, _ *http.Request) {
		// This always returns as long as the service is still running. As this
		// endpoint is expected to be used as a Kubernetes liveness check, this
		// service must likewise self-detect non-recoverable errors and
		// self-terminate.
		_, _ = w.Write([]byte("OK\n"))
	})
	mux.HandleFunc("GET "+constants.ReadinessPath, func(w http.ResponseWriter, _ *http.Request) {
		if !ready.HandlerReady() {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("OK\n"))
	})

	var handler http.Handler = mux
	handler = middleware.RequestLoggerMiddleware()(handler)
	return otelhttp.NewHandler(handler, "agenda-api")
}

// setupHTTPServer configures and starts the health check server
func setupHTTPServer(flags flags, ready readiness, gracefulCloseWG *sync.WaitGroup) *http.Server {
	var addr string
	if flags.Bind == "*" {
		addr = ":" + flags.Port
	} else {
		addr = flags.Bind + ":" + flags.Port
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           newHealthHandler(ready),
		ReadHeaderTimeout: 3 * time.Second,
	}
	gracefulCloseWG.Add(1)
	go func() {
		slog.With("addr", addr).Debug("starting http server, listening on port " + flags.Port)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("http listener error")
			os.Exit(1)
		}
		// Because ErrServerClosed is *immediately* returned when Shutdown is
		// called, not when when Shutdown completes, this must not yet decrement
		// the wait group.
	}()

	return httpServer
}

// shutdownStep is one resource to release during shutdown.
type shutdownStep struct {
	name string
	fn   func(ctx context.Context) error
}

// gracefulShutdown stops the HTTP server, runs the remaining steps in order
// and waits for the NATS connection to drain.
func gracefulShutdown(httpServer *http.Server, gracefulCloseWG *sync.WaitGroup, cancel context.CancelFunc, steps ...shutdownStep) {
	slog.Info("graceful shutdown initiated")

	ctx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownSeconds*time.Second)
	defer shutdownCancel()

	// Cancelling the service context marks the NATS close as expected.
	cancel()

	go func() {
		if err := httpServer.Shutdown(ctx); err != nil {
			slog.With(logging.ErrKey, err).Error("http shutdown error")
		}
		gracefulCloseWG.Done()
	}()

	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			slog.With(logging.ErrKey, err, "step", step.name).Error("shutdown step failed")
		}
	}

	waitDone := make(chan struct{})
	go func() {
		gracefulCloseWG.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
		slog.Info("graceful shutdown complete")
	case <-ctx.Done():
		slog.Error("graceful shutdown timed out")
	}
}
