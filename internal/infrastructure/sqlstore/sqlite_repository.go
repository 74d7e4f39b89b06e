// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package sqlstore is the relational series repository. It keeps series,
// exceptions, attendees and overrides in SQLite tables and uses the series
// version column for optimistic concurrency.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/logging"
)

const tracerName = "github.com/linuxfoundation/lfx-v2-agenda-service/internal/infrastructure/sqlstore"

// timeLayout has fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS series (
	uid                 TEXT PRIMARY KEY,
	organization_uid    TEXT NOT NULL DEFAULT '',
	created_by          TEXT NOT NULL DEFAULT '',
	title               TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	location            TEXT NOT NULL DEFAULT '',
	url                 TEXT NOT NULL DEFAULT '',
	start_time          TEXT NOT NULL,
	end_time            TEXT NOT NULL,
	all_day             INTEGER NOT NULL DEFAULT 0,
	recurrence          TEXT NOT NULL,
	reminder_offsets    TEXT NOT NULL DEFAULT '[]',
	is_cancelled        INTEGER NOT NULL DEFAULT 0,
	cancellation_reason TEXT NOT NULL DEFAULT '',
	split_from_uid      TEXT NOT NULL DEFAULT '',
	split_at            TEXT,
	version             INTEGER NOT NULL,
	created_at          TEXT,
	updated_at          TEXT
);
CREATE INDEX IF NOT EXISTS idx_series_start ON series(start_time, uid);

CREATE TABLE IF NOT EXISTS exceptions (
	series_uid          TEXT NOT NULL REFERENCES series(uid) ON DELETE CASCADE,
	occurrence_index    INTEGER NOT NULL,
	original_start_time TEXT NOT NULL,
	modified_start_time TEXT,
	modified_end_time   TEXT,
	title               TEXT,
	description         TEXT,
	location            TEXT,
	url                 TEXT,
	is_cancelled        INTEGER NOT NULL DEFAULT 0,
	cancellation_reason TEXT NOT NULL DEFAULT '',
	updated_at          TEXT,
	PRIMARY KEY (series_uid, occurrence_index)
);

CREATE TABLE IF NOT EXISTS attendees (
	series_uid  TEXT NOT NULL REFERENCES series(uid) ON DELETE CASCADE,
	user_id     TEXT NOT NULL,
	position    INTEGER NOT NULL,
	email       TEXT NOT NULL DEFAULT '',
	name        TEXT NOT NULL DEFAULT '',
	is_optional INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	future_status     TEXT NOT NULL DEFAULT '',
	future_from_index INTEGER,
	added_at    TEXT,
	PRIMARY KEY (series_uid, user_id)
);

CREATE TABLE IF NOT EXISTS overrides (
	series_uid       TEXT NOT NULL REFERENCES series(uid) ON DELETE CASCADE,
	user_id          TEXT NOT NULL,
	occurrence_index INTEGER NOT NULL,
	status           TEXT NOT NULL,
	updated_at       TEXT,
	PRIMARY KEY (series_uid, user_id, occurrence_index)
);
`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteRepository is a domain.SeriesRepository on SQLite.
//
// The pool holds a single connection, so transactions are serialized and a
// WithinTx callback must only read through its tx.
type SQLiteRepository struct {
	db *sql.DB
}

var _ domain.SeriesRepository = (*SQLiteRepository)(nil)

// Open opens (creating if needed) the database at path and migrates it.
// ":memory:" yields a private in-memory database.
func Open(ctx context.Context, path string) (*SQLiteRepository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepository{db: db}
	if err := repo.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) migrate(ctx context.Context) error {
	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := r.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	// Databases created by earlier releases lack these columns.
	for _, column := range []string{
		"ALTER TABLE series ADD COLUMN split_at TEXT",
		"ALTER TABLE attendees ADD COLUMN future_status TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE attendees ADD COLUMN future_from_index INTEGER",
	} {
		if _, err := r.db.ExecContext(ctx, column); err != nil && !strings.Contains(err.Error(), "duplicate column name") {
			return fmt.Errorf("failed to add column: %w", err)
		}
	}
	return nil
}

// Close releases the database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// IsReady pings the database.
func (r *SQLiteRepository) IsReady(ctx context.Context) bool {
	return r.db != nil && r.db.PingContext(ctx) == nil
}

// LoadSeries returns the series definition.
func (r *SQLiteRepository) LoadSeries(ctx context.Context, seriesUID string) (*models.Series, error) {
	return loadSeries(ctx, r.db, seriesUID)
}

// LoadExceptions returns the exceptions of the series ordered by index.
func (r *SQLiteRepository) LoadExceptions(ctx context.Context, seriesUID string) ([]*models.Exception, error) {
	return loadExceptions(ctx, r.db, seriesUID)
}

// LoadAttendees returns the attendees of the series in the order they were added.
func (r *SQLiteRepository) LoadAttendees(ctx context.Context, seriesUID string) ([]*models.Attendee, error) {
	return loadAttendees(ctx, r.db, seriesUID)
}

// LoadOverrides returns the attendance overrides of the series.
func (r *SQLiteRepository) LoadOverrides(ctx context.Context, seriesUID string) ([]*models.AttendanceOverride, error) {
	return loadOverrides(ctx, r.db, seriesUID)
}

// LoadAggregate reads the series and its rows in one read transaction.
func (r *SQLiteRepository) LoadAggregate(ctx context.Context, seriesUID string) (*models.SeriesAggregate, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, domain.NewInternalError("failed to begin read transaction", err)
	}
	defer func() { _ = tx.Rollback() }()
	return loadAggregate(ctx, tx, seriesUID)
}

// ListSeries returns every series ordered by first start.
func (r *SQLiteRepository) ListSeries(ctx context.Context) ([]*models.Series, error) {
	rows, err := r.db.QueryContext(ctx, selectSeries+` ORDER BY start_time, uid`)
	if err != nil {
		return nil, domain.NewInternalError("failed to list series", err)
	}
	defer rows.Close()

	var out []*models.Series
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewInternalError("failed to list series", err)
	}
	return out, nil
}

// WithinTx runs fn inside a database transaction and commits if it succeeds.
func (r *SQLiteRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.SeriesTx) error) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "agenda.store.tx",
		trace.WithAttributes(attribute.String("db.system", "sqlite")),
	)
	defer span.End()

	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		err = domain.NewInternalError("failed to begin transaction", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := fn(ctx, &sqliteTx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			slog.WarnContext(ctx, "rollback failed", logging.ErrKey, rbErr)
		}
		span.SetStatus(codes.Error, "rolled back")
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		err = domain.NewInternalError("failed to commit transaction", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

type sqliteTx struct {
	tx *sql.Tx
}

var _ domain.SeriesTx = (*sqliteTx)(nil)

func (t *sqliteTx) LoadAggregate(ctx context.Context, seriesUID string) (*models.SeriesAggregate, error) {
	return loadAggregate(ctx, t.tx, seriesUID)
}

func (t *sqliteTx) CreateSeries(ctx context.Context, series *models.Series) error {
	var exists int
	err := t.tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM series WHERE uid = ?`, series.UID).Scan(&exists)
	if err != nil {
		return domain.NewInternalError("failed to check series", err)
	}
	if exists > 0 {
		return domain.NewConflictError(fmt.Sprintf("series %s already exists", series.UID))
	}

	args, err := seriesArgs(series)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, `INSERT INTO series (
		organization_uid, created_by, title, description, location, url,
		start_time, end_time, all_day, recurrence, reminder_offsets,
		is_cancelled, cancellation_reason, split_from_uid, split_at, version, created_at, updated_at, uid
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return domain.NewInternalError("failed to insert series", err)
	}
	return nil
}

func (t *sqliteTx) SaveSeries(ctx context.Context, series *models.Series, expectedVersion uint64) error {
	args, err := seriesArgs(series)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, `UPDATE series SET
		organization_uid = ?, created_by = ?, title = ?, description = ?, location = ?, url = ?,
		start_time = ?, end_time = ?, all_day = ?, recurrence = ?, reminder_offsets = ?,
		is_cancelled = ?, cancellation_reason = ?, split_from_uid = ?, split_at = ?, version = ?, created_at = ?, updated_at = ?
		WHERE uid = ? AND version = ?`, append(args, int64(expectedVersion))...)
	if err != nil {
		return domain.NewInternalError("failed to update series", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewInternalError("failed to update series", err)
	}
	if n == 1 {
		return nil
	}

	var version int64
	err = t.tx.QueryRowContext(ctx, `SELECT version FROM series WHERE uid = ?`, series.UID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFoundError(fmt.Sprintf("series %s not found", series.UID))
	}
	if err != nil {
		return domain.NewInternalError("failed to read series version", err)
	}
	return domain.NewConflictError(fmt.Sprintf("series %s is at version %d, expected %d", series.UID, version, expectedVersion))
}

func (t *sqliteTx) SaveExceptions(ctx context.Context, seriesUID string, exceptions []*models.Exception) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM exceptions WHERE series_uid = ?`, seriesUID); err != nil {
		return domain.NewInternalError("failed to clear exceptions", err)
	}
	for _, e := range exceptions {
		_, err := t.tx.ExecContext(ctx, `INSERT INTO exceptions (
			series_uid, occurrence_index, original_start_time, modified_start_time, modified_end_time,
			title, description, location, url, is_cancelled, cancellation_reason, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			seriesUID, e.OccurrenceIndex, formatTime(e.OriginalStartTime),
			formatTimePtr(e.ModifiedStartTime), formatTimePtr(e.ModifiedEndTime),
			nullString(e.Title), nullString(e.Description), nullString(e.Location), nullString(e.URL),
			e.IsCancelled, e.CancellationReason, formatTimePtr(e.UpdatedAt),
		)
		if err != nil {
			return domain.NewInternalError(fmt.Sprintf("failed to store exception %d", e.OccurrenceIndex), err)
		}
	}
	return nil
}

func (t *sqliteTx) SaveAttendees(ctx context.Context, seriesUID string, attendees []*models.Attendee) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM attendees WHERE series_uid = ?`, seriesUID); err != nil {
		return domain.NewInternalError("failed to clear attendees", err)
	}
	for i, a := range attendees {
		_, err := t.tx.ExecContext(ctx, `INSERT INTO attendees (
			series_uid, user_id, position, email, name, is_optional, status,
			future_status, future_from_index, added_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			seriesUID, a.UserID, i, a.Email, a.Name, a.IsOptional, string(a.Status),
			string(a.FutureStatus), futureFrom(a), formatTimePtr(a.AddedAt),
		)
		if err != nil {
			return domain.NewInternalError(fmt.Sprintf("failed to store attendee %s", a.UserID), err)
		}
	}
	return nil
}

func (t *sqliteTx) SaveOverrides(ctx context.Context, seriesUID string, overrides []*models.AttendanceOverride) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM overrides WHERE series_uid = ?`, seriesUID); err != nil {
		return domain.NewInternalError("failed to clear overrides", err)
	}
	for _, o := range overrides {
		_, err := t.tx.ExecContext(ctx, `INSERT INTO overrides (
			series_uid, user_id, occurrence_index, status, updated_at
		) VALUES (?, ?, ?, ?, ?)`,
			seriesUID, o.UserID, o.OccurrenceIndex, string(o.Status), formatTimePtr(o.UpdatedAt),
		)
		if err != nil {
			return domain.NewInternalError(fmt.Sprintf("failed to store override %s/%d", o.UserID, o.OccurrenceIndex), err)
		}
	}
	return nil
}

const selectSeries = `SELECT uid, organization_uid, created_by, title, description, location, url,
	start_time, end_time, all_day, recurrence, reminder_offsets,
	is_cancelled, cancellation_reason, split_from_uid, split_at, version, created_at, updated_at
	FROM series`

type scanner interface {
	Scan(dest ...any) error
}

func scanSeries(row scanner) (*models.Series, error) {
	var (
		s                  models.Series
		start, end         string
		recurrence         string
		reminders          string
		version            int64
		splitAt            sql.NullString
		createdAt, updated sql.NullString
	)
	err := row.Scan(&s.UID, &s.OrganizationUID, &s.CreatedBy, &s.Title, &s.Description, &s.Location, &s.URL,
		&start, &end, &s.AllDay, &recurrence, &reminders,
		&s.IsCancelled, &s.CancellationReason, &s.SplitFromUID, &splitAt, &version, &createdAt, &updated)
	if err != nil {
		return nil, err
	}

	if s.StartTime, err = parseTime(start); err != nil {
		return nil, domain.NewInternalError("invalid stored start_time", err)
	}
	if s.EndTime, err = parseTime(end); err != nil {
		return nil, domain.NewInternalError("invalid stored end_time", err)
	}
	if err := json.Unmarshal([]byte(recurrence), &s.Recurrence); err != nil {
		return nil, domain.NewInternalError("invalid stored recurrence", err)
	}
	if s.Recurrence.End.Until != nil {
		u := s.Recurrence.End.Until.UTC()
		s.Recurrence.End.Until = &u
	}
	if err := json.Unmarshal([]byte(reminders), &s.ReminderOffsets); err != nil {
		return nil, domain.NewInternalError("invalid stored reminder_offsets", err)
	}
	if len(s.ReminderOffsets) == 0 {
		s.ReminderOffsets = nil
	}
	s.Version = uint64(version)
	if s.SplitAt, err = parseTimePtr(splitAt); err != nil {
		return nil, domain.NewInternalError("invalid stored split_at", err)
	}
	if s.CreatedAt, err = parseTimePtr(createdAt); err != nil {
		return nil, domain.NewInternalError("invalid stored created_at", err)
	}
	if s.UpdatedAt, err = parseTimePtr(updated); err != nil {
		return nil, domain.NewInternalError("invalid stored updated_at", err)
	}
	return &s, nil
}

func seriesArgs(s *models.Series) ([]any, error) {
	recurrence, err := json.Marshal(s.Recurrence)
	if err != nil {
		return nil, domain.NewInternalError("failed to encode recurrence", err)
	}
	offsets := s.ReminderOffsets
	if offsets == nil {
		offsets = []int{}
	}
	reminders, err := json.Marshal(offsets)
	if err != nil {
		return nil, domain.NewInternalError("failed to encode reminder offsets", err)
	}
	return []any{
		s.OrganizationUID, s.CreatedBy, s.Title, s.Description, s.Location, s.URL,
		formatTime(s.StartTime), formatTime(s.EndTime), s.AllDay, string(recurrence), string(reminders),
		s.IsCancelled, s.CancellationReason, s.SplitFromUID, formatTimePtr(s.SplitAt), int64(s.Version),
		formatTimePtr(s.CreatedAt), formatTimePtr(s.UpdatedAt), s.UID,
	}, nil
}

func loadSeries(ctx context.Context, q querier, seriesUID string) (*models.Series, error) {
	s, err := scanSeries(q.QueryRowContext(ctx, selectSeries+` WHERE uid = ?`, seriesUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError(fmt.Sprintf("series %s not found", seriesUID))
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		return nil, err
	}
	if err != nil {
		return nil, domain.NewInternalError("failed to load series", err)
	}
	return s, nil
}

func loadExceptions(ctx context.Context, q querier, seriesUID string) ([]*models.Exception, error) {
	rows, err := q.QueryContext(ctx, `SELECT occurrence_index, original_start_time, modified_start_time, modified_end_time,
		title, description, location, url, is_cancelled, cancellation_reason, updated_at
		FROM exceptions WHERE series_uid = ? ORDER BY occurrence_index`, seriesUID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load exceptions", err)
	}
	defer rows.Close()

	var out []*models.Exception
	for rows.Next() {
		var (
			e                              = &models.Exception{SeriesUID: seriesUID}
			original                       string
			modStart, modEnd, updated      sql.NullString
			title, description, loc, link sql.NullString
		)
		if err := rows.Scan(&e.OccurrenceIndex, &original, &modStart, &modEnd,
			&title, &description, &loc, &link, &e.IsCancelled, &e.CancellationReason, &updated); err != nil {
			return nil, domain.NewInternalError("failed to read exception", err)
		}
		if e.OriginalStartTime, err = parseTime(original); err != nil {
			return nil, domain.NewInternalError("invalid stored exception time", err)
		}
		if e.ModifiedStartTime, err = parseTimePtr(modStart); err != nil {
			return nil, domain.NewInternalError("invalid stored exception time", err)
		}
		if e.ModifiedEndTime, err = parseTimePtr(modEnd); err != nil {
			return nil, domain.NewInternalError("invalid stored exception time", err)
		}
		if e.UpdatedAt, err = parseTimePtr(updated); err != nil {
			return nil, domain.NewInternalError("invalid stored exception time", err)
		}
		e.Title = stringPtr(title)
		e.Description = stringPtr(description)
		e.Location = stringPtr(loc)
		e.URL = stringPtr(link)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewInternalError("failed to load exceptions", err)
	}
	return out, nil
}

func loadAttendees(ctx context.Context, q querier, seriesUID string) ([]*models.Attendee, error) {
	rows, err := q.QueryContext(ctx, `SELECT user_id, email, name, is_optional, status,
		future_status, future_from_index, added_at
		FROM attendees WHERE series_uid = ? ORDER BY position`, seriesUID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load attendees", err)
	}
	defer rows.Close()

	var out []*models.Attendee
	for rows.Next() {
		var (
			a            = &models.Attendee{SeriesUID: seriesUID}
			status       string
			futureStatus string
			futureFrom   sql.NullInt64
			addedAt      sql.NullString
		)
		if err := rows.Scan(&a.UserID, &a.Email, &a.Name, &a.IsOptional, &status, &futureStatus, &futureFrom, &addedAt); err != nil {
			return nil, domain.NewInternalError("failed to read attendee", err)
		}
		a.Status = models.AttendanceStatus(status)
		if futureFrom.Valid {
			from := int(futureFrom.Int64)
			a.FutureFromIndex = &from
			a.FutureStatus = models.AttendanceStatus(futureStatus)
		}
		if a.AddedAt, err = parseTimePtr(addedAt); err != nil {
			return nil, domain.NewInternalError("invalid stored attendee time", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewInternalError("failed to load attendees", err)
	}
	return out, nil
}

func loadOverrides(ctx context.Context, q querier, seriesUID string) ([]*models.AttendanceOverride, error) {
	rows, err := q.QueryContext(ctx, `SELECT user_id, occurrence_index, status, updated_at
		FROM overrides WHERE series_uid = ? ORDER BY user_id, occurrence_index`, seriesUID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load overrides", err)
	}
	defer rows.Close()

	var out []*models.AttendanceOverride
	for rows.Next() {
		var (
			o       = &models.AttendanceOverride{SeriesUID: seriesUID}
			status  string
			updated sql.NullString
		)
		if err := rows.Scan(&o.UserID, &o.OccurrenceIndex, &status, &updated); err != nil {
			return nil, domain.NewInternalError("failed to read override", err)
		}
		o.Status = models.AttendanceStatus(status)
		if o.UpdatedAt, err = parseTimePtr(updated); err != nil {
			return nil, domain.NewInternalError("invalid stored override time", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewInternalError("failed to load overrides", err)
	}
	return out, nil
}

func loadAggregate(ctx context.Context, q querier, seriesUID string) (*models.SeriesAggregate, error) {
	series, err := loadSeries(ctx, q, seriesUID)
	if err != nil {
		return nil, err
	}
	agg := &models.SeriesAggregate{Series: series}
	if agg.Exceptions, err = loadExceptions(ctx, q, seriesUID); err != nil {
		return nil, err
	}
	if agg.Attendees, err = loadAttendees(ctx, q, seriesUID); err != nil {
		return nil, err
	}
	if agg.Overrides, err = loadOverrides(ctx, q, seriesUID); err != nil {
		return nil, err
	}
	return agg, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func futureFrom(a *models.Attendee) sql.NullInt64 {
	if a.FutureFromIndex == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*a.FutureFromIndex), Valid: true}
}
