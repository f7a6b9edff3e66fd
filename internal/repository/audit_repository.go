package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
)

// AuditRepository keeps one bounded audit document per schedule type: the
// most recent progression events plus a running invocation counter. Entries
// are append-only; older ones fall off the retained window.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

type auditRow struct {
	ScheduleType string          `db:"schedule_type"`
	Entries      json.RawMessage `db:"entries"`
	TotalRuns    int             `db:"total_runs"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// Get fetches the audit trail for one schedule type. A missing row yields an
// empty trail rather than an error.
func (r *AuditRepository) Get(ctx context.Context, scheduleType models.StudyMode) (*models.AuditTrail, error) {
	const query = `SELECT schedule_type, entries, total_runs, updated_at FROM progression_audit_trails WHERE schedule_type = $1`
	var row auditRow
	if err := r.db.GetContext(ctx, &row, query, scheduleType); err != nil {
		if err == sql.ErrNoRows {
			return &models.AuditTrail{ScheduleType: scheduleType}, nil
		}
		return nil, fmt.Errorf("load audit trail: %w", err)
	}
	trail := &models.AuditTrail{
		ScheduleType: models.StudyMode(row.ScheduleType),
		TotalRuns:    row.TotalRuns,
		UpdatedAt:    row.UpdatedAt,
	}
	if len(row.Entries) > 0 {
		if err := json.Unmarshal(row.Entries, &trail.Entries); err != nil {
			return nil, fmt.Errorf("decode audit entries: %w", err)
		}
	}
	return trail, nil
}

// Append adds one event to the trail, trimming to the retained window and
// bumping the invocation counter.
func (r *AuditRepository) Append(ctx context.Context, scheduleType models.StudyMode, event models.ProgressionEvent, maxEntries int) error {
	if maxEntries <= 0 {
		maxEntries = 50
	}
	trail, err := r.Get(ctx, scheduleType)
	if err != nil {
		return err
	}
	entries := append([]models.ProgressionEvent{event}, trail.Entries...)
	if len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}
	encoded, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode audit entries: %w", err)
	}
	const query = `INSERT INTO progression_audit_trails (schedule_type, entries, total_runs, updated_at)
        VALUES ($1, $2, 1, $3)
        ON CONFLICT (schedule_type)
        DO UPDATE SET entries = EXCLUDED.entries, total_runs = progression_audit_trails.total_runs + 1, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, scheduleType, encoded, time.Now().UTC()); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}
