package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRegistrationRepositoryFindByStudentAndPeriod(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "academic_year", "semester", "program", "level", "courses", "total_credits", "status", "registered_by", "created_at"}).
		AddRow("reg-1", "stu-1", "2024/2025", "First", "BSc Agriculture", "100",
			[]byte(`[{"course_code":"AG101","course_title":"Intro to Agriculture","credits":3}]`),
			3, models.RegistrationStatusApproved, "staff-1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, academic_year, semester, program, level, courses, total_credits, status, registered_by, created_at FROM course_registrations")).
		WithArgs("stu-1", "2024/2025", models.SemesterFirst).
		WillReturnRows(rows)

	registration, err := repo.FindByStudentAndPeriod(context.Background(), "stu-1", "2024/2025", models.SemesterFirst)
	require.NoError(t, err)
	require.Len(t, registration.Courses, 1)
	require.Equal(t, "AG101", registration.Courses[0].CourseCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreateInserts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_registrations")).
		WithArgs(sqlmock.AnyArg(), "stu-1", "2024/2025", models.SemesterFirst, "BSc Agriculture", "100",
			sqlmock.AnyArg(), 3, models.RegistrationStatusPending, "self", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.Create(context.Background(), &models.CourseRegistration{
		StudentID:    "stu-1",
		AcademicYear: "2024/2025",
		Semester:     models.SemesterFirst,
		Program:      "BSc Agriculture",
		Level:        "100",
		Courses:      []models.RegistrationCourse{{CourseCode: "AG101", Credits: 3}},
		TotalCredits: 3,
		Status:       models.RegistrationStatusPending,
		RegisteredBy: "self",
	})
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreateConflictReportsFalse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	// The unique (student, year, semester) index rejects the row: zero rows
	// affected, no error.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_registrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.Create(context.Background(), &models.CourseRegistration{
		StudentID:    "stu-1",
		AcademicYear: "2024/2025",
		Semester:     models.SemesterFirst,
	})
	require.NoError(t, err)
	require.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}
