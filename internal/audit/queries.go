// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package audit

import (
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/havenmind/syncd/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const auditTable = "audit_entries"

var auditColumns = []string{
	"id",
	"sequence",
	"operation_id",
	"user_id",
	"device_id",
	"outcome",
	"detail",
	"duration_ms",
	"classification",
	"retention_until",
	"regulatory_tags",
	"emergency_access",
	"created_at",
}

// buildInsertEntryQuery builds the append INSERT. Sequence comes from the
// table's identity column and is returned to the caller.
func buildInsertEntryQuery(entry models.AuditEntry) (string, []any, error) {
	return psql.Insert(auditTable).
		Columns(
			"id",
			"operation_id",
			"user_id",
			"device_id",
			"outcome",
			"detail",
			"duration_ms",
			"classification",
			"retention_until",
			"regulatory_tags",
			"emergency_access",
			"created_at",
		).
		Values(
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
		).
		Suffix("RETURNING sequence").
		ToSql()
}

// buildListEntriesQuery builds the filtered SELECT in ascending sequence
// order. Zero query fields add no predicates.
func buildListEntriesQuery(q Query) (string, []any, error) {
	b := psql.Select(auditColumns...).
		From(auditTable).
		OrderBy("sequence ASC")

	if q.UserID != "" {
		b = b.Where(sq.Eq{"user_id": q.UserID})
	}
	if q.DeviceID != "" {
		b = b.Where(sq.Eq{"device_id": q.DeviceID})
	}
	if q.OperationID != "" {
		b = b.Where(sq.Eq{"operation_id": q.OperationID})
	}
	if q.Outcome != "" {
		b = b.Where(sq.Eq{"outcome": string(q.Outcome)})
	}
	if !q.Since.IsZero() {
		b = b.Where(sq.GtOrEq{"created_at": q.Since})
	}
	if !q.Until.IsZero() {
		b = b.Where(sq.Lt{"created_at": q.Until})
	}
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}

	return b.ToSql()
}

// buildPurgeExpiredQuery builds the retention DELETE. This is the only
// statement that ever removes rows from the log.
func buildPurgeExpiredQuery(now time.Time) (string, []any, error) {
	return psql.Delete(auditTable).
		Where(sq.Lt{"retention_until": now}).
		ToSql()
}
