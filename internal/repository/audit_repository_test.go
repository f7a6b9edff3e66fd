package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
)

func TestAuditRepositoryGetMissingRowYieldsEmptyTrail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT schedule_type, entries, total_runs, updated_at FROM progression_audit_trails")).
		WithArgs(models.StudyModeRegular).
		WillReturnError(sql.ErrNoRows)

	trail, err := repo.Get(context.Background(), models.StudyModeRegular)
	require.NoError(t, err)
	require.Equal(t, models.StudyModeRegular, trail.ScheduleType)
	require.Empty(t, trail.Entries)
	require.Zero(t, trail.TotalRuns)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryGetDecodesEntries(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	entries, err := json.Marshal([]models.ProgressionEvent{
		{TransitionKind: models.TransitionSemester, Outcome: models.OutcomeCompleted, Succeeded: 12},
	})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"schedule_type", "entries", "total_runs", "updated_at"}).
		AddRow(string(models.StudyModeRegular), entries, 7, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT schedule_type, entries, total_runs, updated_at FROM progression_audit_trails")).
		WithArgs(models.StudyModeRegular).
		WillReturnRows(rows)

	trail, err := repo.Get(context.Background(), models.StudyModeRegular)
	require.NoError(t, err)
	require.Equal(t, 7, trail.TotalRuns)
	require.Len(t, trail.Entries, 1)
	require.Equal(t, 12, trail.Entries[0].Succeeded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryAppendPrependsAndTrims(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	existing, err := json.Marshal([]models.ProgressionEvent{
		{Outcome: models.OutcomeCompleted, Succeeded: 1},
		{Outcome: models.OutcomeSkipped},
	})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"schedule_type", "entries", "total_runs", "updated_at"}).
		AddRow(string(models.StudyModeRegular), existing, 2, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT schedule_type, entries, total_runs, updated_at FROM progression_audit_trails")).
		WithArgs(models.StudyModeRegular).
		WillReturnRows(rows)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO progression_audit_trails")).
		WithArgs(models.StudyModeRegular, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// maxEntries 2: the oldest of the three falls off.
	err = repo.Append(context.Background(), models.StudyModeRegular, models.ProgressionEvent{Outcome: models.OutcomeFailed}, 2)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
