package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/models"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS audit_entries (
		sequence         INTEGER PRIMARY KEY AUTOINCREMENT,
		id               TEXT NOT NULL UNIQUE,
		operation_id     TEXT NOT NULL,
		user_id          TEXT NOT NULL,
		device_id        TEXT NOT NULL,
		outcome          TEXT NOT NULL,
		detail           TEXT NOT NULL DEFAULT '',
		duration_ms      INTEGER NOT NULL DEFAULT 0,
		classification   TEXT NOT NULL,
		retention_until  TIMESTAMP NOT NULL,
		regulatory_tags  TEXT NOT NULL DEFAULT '',
		emergency_access BOOLEAN NOT NULL DEFAULT FALSE,
		created_at       TIMESTAMP NOT NULL
	);`

const (
	sqliteInsertEntry = `
	INSERT INTO audit_entries (
		id,
		operation_id,
		user_id,
		device_id,
		outcome,
		detail,
		duration_ms,
		classification,
		retention_until,
		regulatory_tags,
		emergency_access,
		created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	sqlitePurgeExpired = `DELETE FROM audit_entries WHERE retention_until < ?;`
)

// sqliteRecorder is the device-local compliance log. Entries written while
// offline are mirrored to the server-side log when connectivity returns.
type sqliteRecorder struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewConnectSQLite opens (creating if necessary) the local audit database
// at dsn and ensures the schema exists.
func NewConnectSQLite(ctx context.Context, dsn string, log *logger.Logger) (Recorder, error) {
	if err := createLocalDBFileIfNotExists(dsn); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error creating database file")
		return nil, fmt.Errorf("error creating database file")
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database")
		return nil, fmt.Errorf("error opening connection to DB")
	}

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database (ping)")
		return nil, err
	}

	if _, err = conn.ExecContext(ctx, sqliteSchema); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error creating audit schema")
		return nil, err
	}
	log.Debug().Str("func", "NewConnectSQLite").Msg("connected to local audit database successfully")

	return &sqliteRecorder{db: conn, logger: log}, nil
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if dbFile == ":memory:" {
		return nil
	}
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		f, err := os.Create(dbFile)
		if err != nil {
			return fmt.Errorf("error creating DB file: %w", err)
		}
		f.Close()
	}
	return nil
}

func (r *sqliteRecorder) Record(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error) {
	if err := normalize(&entry); err != nil {
		return models.AuditEntry{}, err
	}

	res, err := r.db.ExecContext(ctx, sqliteInsertEntry,
		entry.ID,
		entry.OperationID,
		entry.UserID,
		entry.DeviceID,
		string(entry.Outcome),
		entry.Detail,
		entry.Duration.Milliseconds(),
		string(entry.Classification),
		entry.RetentionUntil,
		tagsToText(entry.RegulatoryTags),
		entry.EmergencyAccess,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Err(err).Str("func", "*sqliteRecorder.Record").Str("operation_id", entry.OperationID).Msg("error appending audit entry")
		return models.AuditEntry{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	entry.Sequence, err = res.LastInsertId()
	if err != nil {
		return models.AuditEntry{}, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return models.AuditEntry{}, err
	}
	if affected == 0 {
		return models.AuditEntry{}, ErrEntryNotRecorded
	}

	return entry, nil
}

func (r *sqliteRecorder) List(ctx context.Context, q Query) ([]models.AuditEntry, error) {
	query, args := buildSQLiteListQuery(q)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).Str("func", "*sqliteRecorder.List").Msg("error executing sql query")
		return nil, fmt.Errorf("error executing sql query: %w", err)
	}
	defer rows.Close()

	out := make([]models.AuditEntry, 0)
	for rows.Next() {
		var (
			e          models.AuditEntry
			durationMS int64
			tags       string
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
		e.RegulatoryTags = tagsFromText(tags)
		out = append(out, e)
	}

	return out, rows.Err()
}

func (r *sqliteRecorder) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, sqlitePurgeExpired, now)
	if err != nil {
		r.logger.Err(err).Str("func", "*sqliteRecorder.PurgeExpired").Msg("error executing sql query")
		return 0, fmt.Errorf("error executing sql query: %w", err)
	}
	return res.RowsAffected()
}

// buildSQLiteListQuery assembles the filtered SELECT with ? placeholders.
func buildSQLiteListQuery(q Query) (string, []any) {
	query := `
	SELECT
		id,
		sequence,
		operation_id,
		user_id,
		device_id,
		outcome,
		detail,
		duration_ms,
		classification,
		retention_until,
		regulatory_tags,
		emergency_access,
		created_at
	FROM audit_entries
	WHERE 1=1`

	args := make([]any, 0, 6)
	if q.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, q.UserID)
	}
	if q.DeviceID != "" {
		query += " AND device_id = ?"
		args = append(args, q.DeviceID)
	}
	if q.OperationID != "" {
		query += " AND operation_id = ?"
		args = append(args, q.OperationID)
	}
	if q.Outcome != "" {
		query += " AND outcome = ?"
		args = append(args, string(q.Outcome))
	}
	if !q.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, q.Since)
	}
	if !q.Until.IsZero() {
		query += " AND created_at < ?"
		args = append(args, q.Until)
	}

	query += " ORDER BY sequence ASC"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	query += ";"

	return query, args
}
