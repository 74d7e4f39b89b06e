// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/logging"
)

// NatsSeriesRepository stores each series aggregate (series, exceptions,
// attendees and overrides) as one value, so every write to a series is a
// single compare-and-swap on its key revision.
type NatsSeriesRepository struct {
	base *NatsBaseRepository[models.SeriesAggregate]
	keys *KeyBuilder
}

var _ domain.SeriesRepository = (*NatsSeriesRepository)(nil)

// NewNatsSeriesRepository creates a series repository over a KV bucket.
func NewNatsSeriesRepository(kvStore INatsKeyValue) *NatsSeriesRepository {
	return &NatsSeriesRepository{
		base: NewNatsBaseRepository[models.SeriesAggregate](kvStore, "series"),
		keys: NewKeyBuilder(""),
	}
}

// IsReady checks if the repository is ready for use
func (r *NatsSeriesRepository) IsReady(_ context.Context) bool {
	return r.base.IsReady()
}

func (r *NatsSeriesRepository) load(ctx context.Context, seriesUID string) (*models.SeriesAggregate, uint64, error) {
	agg, revision, err := r.base.GetWithRevision(ctx, r.keys.SeriesKey(seriesUID))
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil, 0, domain.NewNotFoundError(fmt.Sprintf("series %s not found", seriesUID), err)
		}
		return nil, 0, err
	}
	if agg.Series == nil {
		return nil, 0, domain.NewInternalError(fmt.Sprintf("series %s is stored without a definition", seriesUID))
	}
	agg.UTC()
	return agg, revision, nil
}

// LoadAggregate returns the series with all of its rows.
func (r *NatsSeriesRepository) LoadAggregate(ctx context.Context, seriesUID string) (*models.SeriesAggregate, error) {
	agg, _, err := r.load(ctx, seriesUID)
	return agg, err
}

// LoadSeries returns the series definition.
func (r *NatsSeriesRepository) LoadSeries(ctx context.Context, seriesUID string) (*models.Series, error) {
	agg, err := r.LoadAggregate(ctx, seriesUID)
	if err != nil {
		return nil, err
	}
	return agg.Series, nil
}

// LoadExceptions returns the exceptions of the series.
func (r *NatsSeriesRepository) LoadExceptions(ctx context.Context, seriesUID string) ([]*models.Exception, error) {
	agg, err := r.LoadAggregate(ctx, seriesUID)
	if err != nil {
		return nil, err
	}
	return agg.Exceptions, nil
}

// LoadAttendees returns the attendees of the series.
func (r *NatsSeriesRepository) LoadAttendees(ctx context.Context, seriesUID string) ([]*models.Attendee, error) {
	agg, err := r.LoadAggregate(ctx, seriesUID)
	if err != nil {
		return nil, err
	}
	return agg.Attendees, nil
}

// LoadOverrides returns the attendance overrides of the series.
func (r *NatsSeriesRepository) LoadOverrides(ctx context.Context, seriesUID string) ([]*models.AttendanceOverride, error) {
	agg, err := r.LoadAggregate(ctx, seriesUID)
	if err != nil {
		return nil, err
	}
	return agg.Overrides, nil
}

// ListSeries returns every stored series ordered by first start.
func (r *NatsSeriesRepository) ListSeries(ctx context.Context) ([]*models.Series, error) {
	keys, err := r.base.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	var out []*models.Series
	for _, key := range keys {
		uid, ok := r.keys.UIDFromKey(KeyPrefixSeries, key)
		if !ok {
			continue
		}
		agg, _, err := r.load(ctx, uid)
		if err != nil {
			if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
				// deleted between listing and reading
				continue
			}
			slog.WarnContext(ctx, "failed to get series, skipping", "key", key, logging.ErrKey, err)
			continue
		}
		out = append(out, agg.Series)
	}

	slices.SortFunc(out, func(a, b *models.Series) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.UID, b.UID)
	})
	return out, nil
}

// WithinTx stages every write of fn and commits them when fn succeeds.
//
// Each touched aggregate is written with a revision check against the
// revision it was read at. NATS KV has no multi-key transaction, so a failed
// commit undoes the writes already applied: created keys are deleted and
// updated keys are restored to the value they were read with.
func (r *NatsSeriesRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.SeriesTx) error) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "agenda.store.tx",
		trace.WithAttributes(attribute.String("db.system", "nats")),
	)
	defer span.End()

	tx := &natsTx{repo: r, entries: make(map[string]*stagedAggregate)}
	if err := fn(ctx, tx); err != nil {
		span.SetStatus(codes.Error, "rolled back")
		return err
	}
	if err := tx.commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("agenda.store.tx.aggregates", len(tx.order)))
	span.SetStatus(codes.Ok, "")
	return nil
}

type stagedAggregate struct {
	agg         *models.SeriesAggregate
	original    *models.SeriesAggregate
	revision    uint64
	baseVersion uint64
	created     bool
	dirty       bool
}

type natsTx struct {
	repo    *NatsSeriesRepository
	entries map[string]*stagedAggregate
	order   []string
	done    bool
}

var _ domain.SeriesTx = (*natsTx)(nil)

func (tx *natsTx) entry(ctx context.Context, seriesUID string) (*stagedAggregate, error) {
	if tx.done {
		return nil, domain.NewInternalError("transaction already finished")
	}
	if e, ok := tx.entries[seriesUID]; ok {
		return e, nil
	}
	agg, revision, err := tx.repo.load(ctx, seriesUID)
	if err != nil {
		return nil, err
	}
	e := &stagedAggregate{
		agg:         agg,
		original:    agg.Clone(),
		revision:    revision,
		baseVersion: agg.Series.Version,
	}
	tx.entries[seriesUID] = e
	tx.order = append(tx.order, seriesUID)
	return e, nil
}

func (tx *natsTx) LoadAggregate(ctx context.Context, seriesUID string) (*models.SeriesAggregate, error) {
	e, err := tx.entry(ctx, seriesUID)
	if err != nil {
		return nil, err
	}
	return e.agg.Clone(), nil
}

func (tx *natsTx) CreateSeries(_ context.Context, series *models.Series) error {
	if tx.done {
		return domain.NewInternalError("transaction already finished")
	}
	if _, ok := tx.entries[series.UID]; ok {
		return domain.NewConflictError(fmt.Sprintf("series %s already exists", series.UID))
	}
	tx.entries[series.UID] = &stagedAggregate{
		agg:     &models.SeriesAggregate{Series: series.Clone()},
		created: true,
		dirty:   true,
	}
	tx.order = append(tx.order, series.UID)
	return nil
}

func (tx *natsTx) SaveSeries(ctx context.Context, series *models.Series, expectedVersion uint64) error {
	e, err := tx.entry(ctx, series.UID)
	if err != nil {
		return err
	}
	if !e.created && e.baseVersion != expectedVersion {
		return domain.NewConflictError(fmt.Sprintf("series %s is at version %d, expected %d",
			series.UID, e.baseVersion, expectedVersion))
	}
	e.agg.Series = series.Clone()
	e.dirty = true
	return nil
}

func (tx *natsTx) SaveExceptions(ctx context.Context, seriesUID string, exceptions []*models.Exception) error {
	e, err := tx.entry(ctx, seriesUID)
	if err != nil {
		return err
	}
	e.agg.Exceptions = e.agg.Exceptions[:0:0]
	for _, ex := range exceptions {
		c := ex.Clone()
		c.SeriesUID = seriesUID
		e.agg.Exceptions = append(e.agg.Exceptions, c)
	}
	slices.SortFunc(e.agg.Exceptions, func(a, b *models.Exception) int {
		return cmp.Compare(a.OccurrenceIndex, b.OccurrenceIndex)
	})
	e.dirty = true
	return nil
}

func (tx *natsTx) SaveAttendees(ctx context.Context, seriesUID string, attendees []*models.Attendee) error {
	e, err := tx.entry(ctx, seriesUID)
	if err != nil {
		return err
	}
	e.agg.Attendees = e.agg.Attendees[:0:0]
	for _, at := range attendees {
		c := at.Clone()
		c.SeriesUID = seriesUID
		e.agg.Attendees = append(e.agg.Attendees, c)
	}
	e.dirty = true
	return nil
}

func (tx *natsTx) SaveOverrides(ctx context.Context, seriesUID string, overrides []*models.AttendanceOverride) error {
	e, err := tx.entry(ctx, seriesUID)
	if err != nil {
		return err
	}
	e.agg.Overrides = e.agg.Overrides[:0:0]
	for _, o := range overrides {
		c := o.Clone()
		c.SeriesUID = seriesUID
		e.agg.Overrides = append(e.agg.Overrides, c)
	}
	slices.SortFunc(e.agg.Overrides, func(a, b *models.AttendanceOverride) int {
		if c := cmp.Compare(a.UserID, b.UserID); c != 0 {
			return c
		}
		return cmp.Compare(a.OccurrenceIndex, b.OccurrenceIndex)
	})
	e.dirty = true
	return nil
}

type appliedWrite struct {
	key      string
	created  bool
	revision uint64
	original *models.SeriesAggregate
}

// commit writes created aggregates first, then updated ones.
func (tx *natsTx) commit(ctx context.Context) error {
	tx.done = true
	base := tx.repo.base

	var applied []appliedWrite
	for _, pass := range []bool{true, false} {
		for _, uid := range tx.order {
			e := tx.entries[uid]
			if !e.dirty || e.created != pass {
				continue
			}
			key := tx.repo.keys.SeriesKey(uid)

			var (
				revision uint64
				err      error
			)
			if e.created {
				revision, err = base.Create(ctx, key, e.agg)
			} else {
				revision, err = base.Update(ctx, key, e.agg, e.revision)
			}
			if err != nil {
				tx.compensate(ctx, applied)
				return err
			}
			applied = append(applied, appliedWrite{key: key, created: e.created, revision: revision, original: e.original})
		}
	}
	return nil
}

func (tx *natsTx) compensate(ctx context.Context, applied []appliedWrite) {
	base := tx.repo.base
	var errs []error
	for i := len(applied) - 1; i >= 0; i-- {
		w := applied[i]
		if w.created {
			errs = append(errs, base.DeleteWithoutRevision(ctx, w.key))
			continue
		}
		_, err := base.Update(ctx, w.key, w.original, w.revision)
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		slog.ErrorContext(ctx, "failed to undo a partially committed series transaction",
			logging.ErrKey, err,
			"writes", len(applied),
			logging.PriorityCritical(),
		)
	}
}
