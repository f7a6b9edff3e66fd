package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
)

// CourseRepository reads the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByCode fetches one catalog entry.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	const query = `SELECT code, title, credits, program, level, semester, instructor FROM courses WHERE UPPER(code) = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, strings.ToUpper(code)); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListForProgram returns the catalog entries a student at the given program,
// level and semester may register for.
func (r *CourseRepository) ListForProgram(ctx context.Context, program, level string, semester models.Semester) ([]models.Course, error) {
	const query = `SELECT code, title, credits, program, level, semester, instructor FROM courses
        WHERE program = $1 AND level = $2 AND semester = $3 ORDER BY code`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, program, level, semester); err != nil {
		return nil, fmt.Errorf("list program courses: %w", err)
	}
	return courses, nil
}
