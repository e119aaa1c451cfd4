// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/migrations"
	"github.com/havenmind/syncd/models"
)

// postgresRecorder is the server-side Recorder backed by PostgreSQL. The
// sequence column is a database identity, so ordering holds across
// processes.
type postgresRecorder struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewConnectPostgres opens the compliance database, verifies the
// connection and runs pending migrations.
func NewConnectPostgres(ctx context.Context, dsn string, log *logger.Logger) (Recorder, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error occured during database connection")
		return nil, fmt.Errorf("error occured during database connection: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(4)

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error connecting database (ping)")
		return nil, err
	}
	log.Info().Str("func", "NewConnectPostgres").Msg("connected to audit database successfully")

	if err = migrations.Migrate(conn); err != nil {
		return nil, err
	}

	return NewPostgresRecorder(conn, log), nil
}

// NewPostgresRecorder wraps an already-open connection. Used by tests
// with sqlmock.
func NewPostgresRecorder(db *sql.DB, log *logger.Logger) Recorder {
	return &postgresRecorder{db: db, logger: log}
}

func (r *postgresRecorder) Record(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error) {
	if err := normalize(&entry); err != nil {
		return models.AuditEntry{}, err
	}

	query, args, err := buildInsertEntryQuery(entry)
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("error building sql query: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	if err = row.Scan(&entry.Sequence); err != nil {
		r.logger.Err(err).Str("func", "*postgresRecorder.Record").Str("operation_id", entry.OperationID).Msg("error appending audit entry")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.AuditEntry{}, fmt.Errorf("%w: id %s", ErrDuplicateEntry, entry.ID)
		default:
			return models.AuditEntry{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	return entry, nil
}

func (r *postgresRecorder) List(ctx context.Context, q Query) ([]models.AuditEntry, error) {
	query, args, err := buildListEntriesQuery(q)
	if err != nil {
		return nil, fmt.Errorf("error building sql query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).Str("func", "*postgresRecorder.List").Msg("error executing sql query")
		return nil, fmt.Errorf("error executing sql query: %w", err)
	}
	defer rows.Close()

	out := make([]models.AuditEntry, 0)
	for rows.Next() {
		var (
			e          models.AuditEntry
			durationMS int64
			tags       sql.NullString
		)
		if err = rows.Scan(
			&e.ID,
			&e.Sequence,
			&e.OperationID,
			&e.UserID,
			&e.DeviceID,
			&e.Outcome,
			&e.Detail,
			&durationMS,
			&e.Classification,
			&e.RetentionUntil,
			&tags,
			&e.EmergencyAccess,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.RegulatoryTags = tagsFromText(tags.String)
		out = append(out, e)
	}

	return out, rows.Err()
}

func (r *postgresRecorder) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := buildPurgeExpiredQuery(now)
	if err != nil {
		return 0, fmt.Errorf("error building sql query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).Str("func", "*postgresRecorder.PurgeExpired").Msg("error executing sql query")
		return 0, fmt.Errorf("error executing sql query: %w", err)
	}

	dropped, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if dropped > 0 {
		r.logger.Info().Int64("dropped", dropped).Msg("purged expired audit entries")
	}
	return dropped, nil
}

func postgresError(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Regulatory tags are stored as a comma-joined text column. They are
// short machine labels and never contain commas.
func tagsToText(tags []string) string {
	return strings.Join(tags, ",")
}

func tagsFromText(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
