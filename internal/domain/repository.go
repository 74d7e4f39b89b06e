// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
)

// SeriesRepository defines the storage boundary of the agenda engine.
// This interface can be implemented by different storage backends (NATS KV, SQLite, etc.)
type SeriesRepository interface {
	// Reads, outside of any transaction
	LoadSeries(ctx context.Context, seriesUID string) (*models.Series, error)
	LoadExceptions(ctx context.Context, seriesUID string) ([]*models.Exception, error)
	LoadAttendees(ctx context.Context, seriesUID string) ([]*models.Attendee, error)
	LoadOverrides(ctx context.Context, seriesUID string) ([]*models.AttendanceOverride, error)
	LoadAggregate(ctx context.Context, seriesUID string) (*models.SeriesAggregate, error)
	ListSeries(ctx context.Context) ([]*models.Series, error)

	// WithinTx runs fn as one atomic read-modify-write transaction. Writes staged
	// on tx become visible only if fn returns nil and the commit succeeds.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx SeriesTx) error) error

	IsReady(ctx context.Context) bool
}

// SeriesTx is the transactional view handed to WithinTx callbacks.
type SeriesTx interface {
	LoadAggregate(ctx context.Context, seriesUID string) (*models.SeriesAggregate, error)

	// CreateSeries stores a new series. It fails with a conflict if the UID exists.
	CreateSeries(ctx context.Context, series *models.Series) error

	// SaveSeries stores series if the stored row version equals expectedVersion,
	// else it fails with a ConcurrencyConflict. The caller sets series.Version to
	// the new version.
	SaveSeries(ctx context.Context, series *models.Series, expectedVersion uint64) error

	// The Save* set methods replace every row of the series.
	SaveExceptions(ctx context.Context, seriesUID string, exceptions []*models.Exception) error
	SaveAttendees(ctx context.Context, seriesUID string, attendees []*models.Attendee) error
	SaveOverrides(ctx context.Context, seriesUID string, overrides []*models.AttendanceOverride) error
}
