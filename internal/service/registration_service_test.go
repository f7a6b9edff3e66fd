package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
	appErrors "github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/errors"
)

type fakeRegistrations struct {
	existing map[string]models.CourseRegistration
	created  *models.CourseRegistration
	insertOK bool
}

func registrationKey(studentID, academicYear string, semester models.Semester) string {
	return studentID + "|" + academicYear + "|" + string(semester)
}

func (f *fakeRegistrations) FindByStudentAndPeriod(ctx context.Context, studentID, academicYear string, semester models.Semester) (*models.CourseRegistration, error) {
	if registration, ok := f.existing[registrationKey(studentID, academicYear, semester)]; ok {
		return &registration, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRegistrations) ListByStudent(ctx context.Context, studentID string) ([]models.CourseRegistration, error) {
	var registrations []models.CourseRegistration
	for _, registration := range f.existing {
		if registration.StudentID == studentID {
			registrations = append(registrations, registration)
		}
	}
	return registrations, nil
}

func (f *fakeRegistrations) Create(ctx context.Context, registration *models.CourseRegistration) (bool, error) {
	if !f.insertOK {
		return false, nil
	}
	f.created = registration
	return true, nil
}

type fakeCalendars struct {
	calendar *models.AcademicCalendar
}

func (f *fakeCalendars) FindBySchedule(ctx context.Context, scheduleType models.StudyMode) (*models.AcademicCalendar, error) {
	return f.calendar, nil
}

type fakeProgramCatalog struct {
	courses []models.Course
}

func (f *fakeProgramCatalog) ListForProgram(ctx context.Context, program, level string, semester models.Semester) ([]models.Course, error) {
	return f.courses, nil
}

func registrationTestCalendar(now time.Time) *models.AcademicCalendar {
	return &models.AcademicCalendar{
		ScheduleType: models.StudyModeRegular,
		CurrentYear:  "2024/2025",
		YearStart:    now.AddDate(0, -3, 0),
		YearEnd:      now.AddDate(0, 6, 0),
		Periods: []models.PeriodWindow{
			{Name: models.SemesterFirst, Ordinal: 1, Start: now.AddDate(0, -3, 0), End: now.AddDate(0, 1, 0)},
			{Name: models.SemesterSecond, Ordinal: 2, Start: now.AddDate(0, 2, 0), End: now.AddDate(0, 6, 0)},
		},
	}
}

func registrationTestService(registrations *fakeRegistrations, now time.Time) *RegistrationService {
	resolver := &fakeResolver{identity: &models.StudentIdentity{
		ID:           "stu-1",
		Program:      "BSc Agriculture",
		CurrentLevel: "100",
		StudyMode:    models.StudyModeRegular,
	}}
	catalog := &fakeProgramCatalog{courses: []models.Course{
		{Code: "AG101", Title: "Intro to Agriculture", Credits: 3},
		{Code: "AG102", Title: "Soil Science", Credits: 2},
	}}
	svc := NewRegistrationService(resolver, registrations, &fakeCalendars{calendar: registrationTestCalendar(now)}, catalog, nil)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCheckEligibilityBlockedByExistingAnyStatus(t *testing.T) {
	now := time.Now()
	for _, status := range []string{models.RegistrationStatusPending, models.RegistrationStatusApproved, models.RegistrationStatusRejected} {
		registrations := &fakeRegistrations{existing: map[string]models.CourseRegistration{
			registrationKey("stu-1", "2024/2025", models.SemesterFirst): {ID: "reg-1", StudentID: "stu-1", Status: status},
		}}
		svc := registrationTestService(registrations, now)

		result, err := svc.CheckEligibility(context.Background(), "stu-1", "2024/2025", models.SemesterFirst)
		require.NoError(t, err)
		assert.False(t, result.CanRegister, status)
		require.NotNil(t, result.Existing, "denial carries the conflicting record")
		assert.Equal(t, "reg-1", result.Existing.ID)
	}
}

func TestCheckEligibilityOpenWindow(t *testing.T) {
	svc := registrationTestService(&fakeRegistrations{insertOK: true}, time.Now())

	result, err := svc.CheckEligibility(context.Background(), "stu-1", "", "")
	require.NoError(t, err)
	assert.True(t, result.CanRegister)
	assert.Nil(t, result.Existing)
}

func TestCheckEligibilityClosedForPastYear(t *testing.T) {
	svc := registrationTestService(&fakeRegistrations{}, time.Now())

	result, err := svc.CheckEligibility(context.Background(), "stu-1", "2022/2023", models.SemesterFirst)
	require.NoError(t, err)
	assert.False(t, result.CanRegister)
	assert.Contains(t, result.Reason, "closed")
}

func TestCreateRegistersValidatedCourses(t *testing.T) {
	registrations := &fakeRegistrations{insertOK: true}
	svc := registrationTestService(registrations, time.Now())

	created, existing, err := svc.Create(context.Background(), RegisterRequest{
		StudentReference: "stu-1",
		AcademicYear:     "2024/2025",
		Semester:         "First",
		CourseCodes:      []string{"AG101", "ag102", "AG101"},
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, existing)
	require.NotNil(t, created)
	assert.Len(t, created.Courses, 2, "duplicate codes collapse")
	assert.Equal(t, 5, created.TotalCredits)
	assert.Equal(t, models.RegistrationStatusPending, created.Status, "self registration awaits review")
	assert.Equal(t, "self", created.RegisteredBy)
}

func TestCreateAdministrativeActorIsApproved(t *testing.T) {
	registrations := &fakeRegistrations{insertOK: true}
	svc := registrationTestService(registrations, time.Now())

	created, _, err := svc.Create(context.Background(), RegisterRequest{
		StudentReference: "stu-1",
		CourseCodes:      []string{"AG101"},
	}, &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusApproved, created.Status)
	assert.Equal(t, "staff-1", created.RegisteredBy)
}

func TestCreateRejectsUnknownCourse(t *testing.T) {
	svc := registrationTestService(&fakeRegistrations{insertOK: true}, time.Now())

	_, _, err := svc.Create(context.Background(), RegisterRequest{
		StudentReference: "stu-1",
		CourseCodes:      []string{"ZZ999"},
	}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCreateConflictReturnsExistingRecord(t *testing.T) {
	registrations := &fakeRegistrations{existing: map[string]models.CourseRegistration{
		registrationKey("stu-1", "2024/2025", models.SemesterFirst): {ID: "reg-1", StudentID: "stu-1", Status: models.RegistrationStatusApproved},
	}}
	svc := registrationTestService(registrations, time.Now())

	_, existing, err := svc.Create(context.Background(), RegisterRequest{
		StudentReference: "stu-1",
		AcademicYear:     "2024/2025",
		Semester:         "First",
		CourseCodes:      []string{"AG101"},
	}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyRegistered.Code, appErr.Code)
	require.NotNil(t, existing)
	assert.Equal(t, "reg-1", existing.ID)
}

func TestCreateLosingTheInsertRaceIsConflict(t *testing.T) {
	// No record visible on the re-check, but the conditional insert reports
	// zero rows affected: a concurrent submission landed first.
	registrations := &fakeRegistrations{insertOK: false}
	svc := registrationTestService(registrations, time.Now())

	_, _, err := svc.Create(context.Background(), RegisterRequest{
		StudentReference: "stu-1",
		AcademicYear:     "2024/2025",
		Semester:         "First",
		CourseCodes:      []string{"AG101"},
	}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyRegistered.Code, appErr.Code)
}

func TestCreateClosedWindowIsRejected(t *testing.T) {
	svc := registrationTestService(&fakeRegistrations{insertOK: true}, time.Now())

	_, _, err := svc.Create(context.Background(), RegisterRequest{
		StudentReference: "stu-1",
		AcademicYear:     "2022/2023",
		Semester:         "First",
		CourseCodes:      []string{"AG101"},
	}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrRegistrationClosed.Code, appErr.Code)
}

func TestCreateValidatesPayload(t *testing.T) {
	svc := registrationTestService(&fakeRegistrations{insertOK: true}, time.Now())

	_, _, err := svc.Create(context.Background(), RegisterRequest{StudentReference: "stu-1"}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
