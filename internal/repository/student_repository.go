package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
)

// StudentRepository reads canonical student records from the primary identity
// store and carries the progression marker writes.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const primaryStudentColumns = `id, registration_number, surname, other_names, email, program, current_level,
        entry_level, admission_year, study_mode, current_academic_year, current_period, active, created_at, updated_at`

// FindByID fetches a student by canonical id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentIdentity, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", primaryStudentColumns)
	var row models.PrimaryStudentRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	identity := row.Normalize()
	return &identity, nil
}

// FindByRegistrationNumber fetches a student by registration number.
func (r *StudentRepository) FindByRegistrationNumber(ctx context.Context, regNumber string) (*models.StudentIdentity, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE UPPER(registration_number) = $1", primaryStudentColumns)
	var row models.PrimaryStudentRow
	if err := r.db.GetContext(ctx, &row, query, strings.ToUpper(regNumber)); err != nil {
		return nil, err
	}
	identity := row.Normalize()
	return &identity, nil
}

// Search returns students whose name, registration number or email contains
// the term.
func (r *StudentRepository) Search(ctx context.Context, term string, limit int) ([]models.StudentIdentity, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM students
        WHERE LOWER(surname) LIKE $1 OR LOWER(other_names) LIKE $1 OR LOWER(registration_number) LIKE $1 OR LOWER(email) LIKE $1
        ORDER BY surname, other_names LIMIT %d`, primaryStudentColumns, limit)
	pattern := "%" + strings.ToLower(term) + "%"
	var rows []models.PrimaryStudentRow
	if err := r.db.SelectContext(ctx, &rows, query, pattern); err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	identities := make([]models.StudentIdentity, 0, len(rows))
	for _, row := range rows {
		identities = append(identities, row.Normalize())
	}
	return identities, nil
}

// ListActiveByMode returns every active student in the given cohort, ordered
// by id for deterministic progression runs.
func (r *StudentRepository) ListActiveByMode(ctx context.Context, mode models.StudyMode) ([]models.StudentIdentity, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE active = true AND study_mode = $1 ORDER BY id", primaryStudentColumns)
	var rows []models.PrimaryStudentRow
	if err := r.db.SelectContext(ctx, &rows, query, mode); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	identities := make([]models.StudentIdentity, 0, len(rows))
	for _, row := range rows {
		identities = append(identities, row.Normalize())
	}
	return identities, nil
}

// UpdatePeriodMarker moves a student's current period within the same
// academic year. The WHERE guard keeps a concurrent re-run from applying the
// same transition twice.
func (r *StudentRepository) UpdatePeriodMarker(ctx context.Context, studentID string, period int) (bool, error) {
	const query = `UPDATE students SET current_period = $2, updated_at = $3
        WHERE id = $1 AND current_period < $2`
	result, err := r.db.ExecContext(ctx, query, studentID, period, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update period marker: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update period marker: %w", err)
	}
	return affected > 0, nil
}

// AdvanceLevel moves a student to the next level at an academic year
// boundary, resetting the period marker. Guarded on the current level so a
// duplicate run is a no-op.
func (r *StudentRepository) AdvanceLevel(ctx context.Context, studentID, fromLevel, toLevel, academicYear string) (bool, error) {
	const query = `UPDATE students SET current_level = $3, current_academic_year = $4, current_period = 1, updated_at = $5
        WHERE id = $1 AND current_level = $2`
	result, err := r.db.ExecContext(ctx, query, studentID, fromLevel, toLevel, academicYear, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("advance level: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("advance level: %w", err)
	}
	return affected > 0, nil
}
