// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/infrastructure/sqlstore"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/logging"
)

// setupNATS connects to NATS. The connection's closed handler releases
// gracefulCloseWG; an unexpected close signals done so main shuts down.
func setupNATS(ctx context.Context, env environment, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	slog.With("nats_url", env.NATSURL).InfoContext(ctx, "attempting to connect to NATS")

	gracefulCloseWG.Add(1)
	natsConn, err := nats.Connect(
		env.NATSURL,
		nats.Name("lfx-v2-agenda-service"),
		nats.Timeout(env.NATSTimeout),
		nats.MaxReconnects(env.NATSMaxReconnect),
		nats.ReconnectWait(env.NATSReconnectWait),
		nats.DrainTimeout(env.NATSTimeout),
		nats.ConnectHandler(func(_ *nats.Conn) {
			slog.InfoContext(ctx, "NATS connection established")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.With(logging.ErrKey, err, "subject", s.Subject, "queue", s.Queue).Error("async NATS error")
			} else {
				slog.With(logging.ErrKey, err).Error("async NATS error outside subscription")
			}
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if ctx.Err() != nil {
				// Expected: the service is shutting down.
				gracefulCloseWG.Done()
				return
			}
			slog.Error("NATS connection closed unexpectedly")
			gracefulCloseWG.Done()
			done <- os.Interrupt
		}),
	)
	if err != nil {
		gracefulCloseWG.Done()
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return natsConn, nil
}

// getSeriesKeyValue opens the series bucket, creating it on first start.
func getSeriesKeyValue(ctx context.Context, natsConn *nats.Conn, bucket string) (jetstream.KeyValue, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	kv, err := js.KeyValue(ctx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		slog.With("bucket", bucket).InfoContext(ctx, "creating NATS KV bucket")
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      bucket,
			Description: "recurring agenda series aggregates",
			History:     5,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("opening NATS KV bucket %s: %w", bucket, err)
	}
	return kv, nil
}

// setupRepository builds the series repository selected by STORE_BACKEND.
// The returned closer is nil when the backend holds no resources.
func setupRepository(ctx context.Context, env environment, natsConn *nats.Conn) (domain.SeriesRepository, io.Closer, error) {
	switch env.StoreBackend {
	case storeBackendSQLite:
		repo, err := sqlstore.Open(ctx, env.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	case storeBackendMemory:
		slog.WarnContext(ctx, "using the in-memory series store, data is lost on restart")
		return store.NewNatsSeriesRepository(store.NewInMemoryKeyValue(env.KVBucket)), nil, nil
	default:
		kv, err := getSeriesKeyValue(ctx, natsConn, env.KVBucket)
		if err != nil {
			return nil, nil, err
		}
		return store.NewNatsSeriesRepository(kv), nil, nil
	}
}

// createNatsSubscriptions subscribes the handler to every agenda API subject.
func createNatsSubscriptions(ctx context.Context, natsConn *nats.Conn, queue string, handler interface {
	domain.MessageHandler
	Subjects() []string
}) error {
	subjects := handler.Subjects()
	if _, err := messaging.Subscribe(ctx, natsConn, queue, handler, subjects...); err != nil {
		return fmt.Errorf("subscribing to agenda subjects: %w", err)
	}
	slog.With("queue", queue, "subjects", subjects).InfoContext(ctx, "subscribed to NATS subjects")
	return nil
}
