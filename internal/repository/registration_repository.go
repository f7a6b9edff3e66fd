package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
)

// RegistrationRepository persists course registrations. The table carries a
// unique index on (student_id, academic_year, semester); Create relies on it
// instead of a read-then-write uniqueness check.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

type registrationRow struct {
	ID           string          `db:"id"`
	StudentID    string          `db:"student_id"`
	AcademicYear string          `db:"academic_year"`
	Semester     string          `db:"semester"`
	Program      string          `db:"program"`
	Level        string          `db:"level"`
	Courses      json.RawMessage `db:"courses"`
	TotalCredits int             `db:"total_credits"`
	Status       string          `db:"status"`
	RegisteredBy string          `db:"registered_by"`
	CreatedAt    time.Time       `db:"created_at"`
}

func (row registrationRow) toModel() (*models.CourseRegistration, error) {
	registration := &models.CourseRegistration{
		ID:           row.ID,
		StudentID:    row.StudentID,
		AcademicYear: row.AcademicYear,
		Semester:     models.Semester(row.Semester),
		Program:      row.Program,
		Level:        row.Level,
		TotalCredits: row.TotalCredits,
		Status:       row.Status,
		RegisteredBy: row.RegisteredBy,
		CreatedAt:    row.CreatedAt,
	}
	if len(row.Courses) > 0 {
		if err := json.Unmarshal(row.Courses, &registration.Courses); err != nil {
			return nil, fmt.Errorf("decode registration courses: %w", err)
		}
	}
	return registration, nil
}

const registrationColumns = "id, student_id, academic_year, semester, program, level, courses, total_credits, status, registered_by, created_at"

// FindByStudentAndPeriod returns the registration on file for the exact
// (student, academic year, semester) triple, regardless of status.
func (r *RegistrationRepository) FindByStudentAndPeriod(ctx context.Context, studentID, academicYear string, semester models.Semester) (*models.CourseRegistration, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_registrations
        WHERE student_id = $1 AND academic_year = $2 AND semester = $3`, registrationColumns)
	var row registrationRow
	if err := r.db.GetContext(ctx, &row, query, studentID, academicYear, semester); err != nil {
		return nil, err
	}
	return row.toModel()
}

// ListByStudent returns the student's registrations, newest first.
func (r *RegistrationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.CourseRegistration, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_registrations WHERE student_id = $1 ORDER BY created_at DESC`, registrationColumns)
	var rows []registrationRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	registrations := make([]models.CourseRegistration, 0, len(rows))
	for _, row := range rows {
		registration, err := row.toModel()
		if err != nil {
			return nil, err
		}
		registrations = append(registrations, *registration)
	}
	return registrations, nil
}

// Create inserts the registration conditionally. It returns false, without
// error, when the unique (student, year, semester) index rejects the row
// because a concurrent submission won the race.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.CourseRegistration) (bool, error) {
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	if registration.CreatedAt.IsZero() {
		registration.CreatedAt = time.Now().UTC()
	}
	courses, err := json.Marshal(registration.Courses)
	if err != nil {
		return false, fmt.Errorf("encode registration courses: %w", err)
	}
	const query = `INSERT INTO course_registrations
        (id, student_id, academic_year, semester, program, level, courses, total_credits, status, registered_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (student_id, academic_year, semester) DO NOTHING`
	result, err := r.db.ExecContext(ctx, query,
		registration.ID, registration.StudentID, registration.AcademicYear, registration.Semester,
		registration.Program, registration.Level, courses, registration.TotalCredits,
		registration.Status, registration.RegisteredBy, registration.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("create registration: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create registration: %w", err)
	}
	return affected > 0, nil
}
