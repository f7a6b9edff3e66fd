package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
)

// GradeRepository reads published results from the current grade store.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const gradeColumns = `id, student_id, student_email, course_code, course_title, credits, assessment,
        mid_semester, exam_score, total_score, grade, academic_year, semester, status, published_at`

// ListPublished returns the student's published grade rows, matched on the
// canonical id or, for historically mis-keyed rows, the email. Ordered by row
// id so duplicate resolution is deterministic.
func (r *GradeRepository) ListPublished(ctx context.Context, studentID, email string) ([]models.GradeRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM grades
        WHERE status = $1 AND (student_id = $2 OR ($3 <> '' AND LOWER(student_email) = $3))
        ORDER BY id`, gradeColumns)
	var rows []models.GradeRow
	if err := r.db.SelectContext(ctx, &rows, query, models.GradeStatusPublished, studentID, strings.ToLower(email)); err != nil {
		return nil, fmt.Errorf("list published grades: %w", err)
	}
	return rows, nil
}

// CompletedPeriods reports which normalized semesters of the given academic
// year hold at least one published grade for the student. The progression
// scheduler treats a period with published results as completed.
func (r *GradeRepository) CompletedPeriods(ctx context.Context, studentID, email, academicYear string) (map[models.Semester]bool, error) {
	const query = `SELECT DISTINCT semester FROM grades
        WHERE status = $1 AND academic_year = $2 AND (student_id = $3 OR ($4 <> '' AND LOWER(student_email) = $4))`
	var labels []string
	if err := r.db.SelectContext(ctx, &labels, query, models.GradeStatusPublished, academicYear, studentID, strings.ToLower(email)); err != nil {
		return nil, fmt.Errorf("completed periods: %w", err)
	}
	completed := make(map[models.Semester]bool, len(labels))
	for _, label := range labels {
		completed[models.NormalizeSemester(label)] = true
	}
	return completed, nil
}
