package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
	appErrors "github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/errors"
)

type registrationStore interface {
	FindByStudentAndPeriod(ctx context.Context, studentID, academicYear string, semester models.Semester) (*models.CourseRegistration, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.CourseRegistration, error)
	Create(ctx context.Context, registration *models.CourseRegistration) (bool, error)
}

type calendarReader interface {
	FindBySchedule(ctx context.Context, scheduleType models.StudyMode) (*models.AcademicCalendar, error)
}

type programCatalog interface {
	ListForProgram(ctx context.Context, program, level string, semester models.Semester) ([]models.Course, error)
}

// RegisterRequest is the payload for creating a course registration.
type RegisterRequest struct {
	StudentReference string   `json:"student_reference" validate:"required"`
	AcademicYear     string   `json:"academic_year"`
	Semester         string   `json:"semester"`
	CourseCodes      []string `json:"course_codes" validate:"required,min=1,dive,required"`
}

// RegistrationService guards the one-registration-per-period invariant and
// creates registrations against the course catalog.
type RegistrationService struct {
	identities    identityResolver
	registrations registrationStore
	calendars     calendarReader
	catalog       programCatalog
	validator     *validator.Validate
	logger        *zap.Logger
	now           func() time.Time
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(identities identityResolver, registrations registrationStore, calendars calendarReader, catalog programCatalog, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		identities:    identities,
		registrations: registrations,
		calendars:     calendars,
		catalog:       catalog,
		validator:     validator.New(),
		logger:        logger,
		now:           time.Now,
	}
}

// CheckEligibility reports whether the student may register for the period.
// An existing registration in any status blocks, and the denial carries the
// conflicting record so the caller can show what is already on file.
func (s *RegistrationService) CheckEligibility(ctx context.Context, reference, academicYear string, semester models.Semester) (*models.EligibilityResult, error) {
	identity, err := s.identities.Resolve(ctx, reference)
	if err != nil {
		return nil, err
	}

	calendar, err := s.calendars.FindBySchedule(ctx, identity.StudyMode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic calendar")
	}
	academicYear, semester = s.defaultPeriod(calendar, academicYear, semester)

	existing, err := s.registrations.FindByStudentAndPeriod(ctx, identity.ID, academicYear, semester)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing registration")
	}
	if existing != nil {
		return &models.EligibilityResult{
			CanRegister: false,
			Reason:      fmt.Sprintf("registration already exists for %s %s (status: %s)", academicYear, semester, existing.Status),
			Existing:    existing,
		}, nil
	}

	if academicYear != calendar.CurrentYear || !calendar.InYearWindow(s.now()) {
		return &models.EligibilityResult{
			CanRegister: false,
			Reason:      fmt.Sprintf("registration window is closed for %s", academicYear),
		}, nil
	}

	return &models.EligibilityResult{CanRegister: true}, nil
}

// Create registers the student for the period. On a uniqueness conflict the
// existing registration is returned alongside the error.
func (s *RegistrationService) Create(ctx context.Context, req RegisterRequest, claims *models.JWTClaims) (*models.CourseRegistration, *models.CourseRegistration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration request")
	}

	identity, err := s.identities.Resolve(ctx, req.StudentReference)
	if err != nil {
		return nil, nil, err
	}

	calendar, err := s.calendars.FindBySchedule(ctx, identity.StudyMode)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic calendar")
	}
	academicYear, semester := s.defaultPeriod(calendar, req.AcademicYear, models.NormalizeSemester(req.Semester))

	if academicYear != calendar.CurrentYear || !calendar.InYearWindow(s.now()) {
		return nil, nil, appErrors.Clone(appErrors.ErrRegistrationClosed, fmt.Sprintf("registration window is closed for %s", academicYear))
	}

	courses, totalCredits, err := s.selectCourses(ctx, identity, semester, req.CourseCodes)
	if err != nil {
		return nil, nil, err
	}

	// Re-check right before the write. The unique index is still the final
	// arbiter; this just catches the common case with a clearer record.
	if existing, err := s.registrations.FindByStudentAndPeriod(ctx, identity.ID, academicYear, semester); err == nil {
		return nil, existing, appErrors.Clone(appErrors.ErrAlreadyRegistered, "")
	} else if err != sql.ErrNoRows {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing registration")
	}

	registration := &models.CourseRegistration{
		StudentID:    identity.ID,
		AcademicYear: academicYear,
		Semester:     semester,
		Program:      identity.Program,
		Level:        identity.CurrentLevel,
		Courses:      courses,
		TotalCredits: totalCredits,
		Status:       initialStatus(claims),
		RegisteredBy: registeredBy(claims),
	}

	inserted, err := s.registrations.Create(ctx, registration)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}
	if !inserted {
		// A concurrent submission won the unique-index race.
		existing, err := s.registrations.FindByStudentAndPeriod(ctx, identity.ID, academicYear, semester)
		if err != nil {
			s.logger.Warn("conflicting registration lookup failed",
				zap.String("student_id", identity.ID),
				zap.Error(err))
		}
		return nil, existing, appErrors.Clone(appErrors.ErrAlreadyRegistered, "")
	}

	s.logger.Info("course registration created",
		zap.String("student_id", identity.ID),
		zap.String("academic_year", academicYear),
		zap.String("semester", string(semester)),
		zap.Int("courses", len(courses)),
		zap.String("status", registration.Status))
	return registration, nil, nil
}

// List returns the student's registrations, newest first.
func (s *RegistrationService) List(ctx context.Context, reference string) ([]models.CourseRegistration, error) {
	identity, err := s.identities.Resolve(ctx, reference)
	if err != nil {
		return nil, err
	}
	registrations, err := s.registrations.ListByStudent(ctx, identity.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return registrations, nil
}

// selectCourses validates the requested codes against the catalog slice for
// the student's program, level and semester.
func (s *RegistrationService) selectCourses(ctx context.Context, identity *models.StudentIdentity, semester models.Semester, codes []string) ([]models.RegistrationCourse, int, error) {
	available, err := s.catalog.ListForProgram(ctx, identity.Program, identity.CurrentLevel, semester)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course catalog")
	}
	byCode := make(map[string]models.Course, len(available))
	for _, course := range available {
		byCode[strings.ToUpper(course.Code)] = course
	}

	selected := make([]models.RegistrationCourse, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	totalCredits := 0
	for _, raw := range codes {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if seen[code] {
			continue
		}
		seen[code] = true
		course, ok := byCode[code]
		if !ok {
			return nil, 0, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("course %s is not available for %s level %s in %s", code, identity.Program, identity.CurrentLevel, semester))
		}
		credits := course.Credits
		if credits <= 0 {
			credits = models.DefaultCourseCredits
		}
		selected = append(selected, models.RegistrationCourse{
			CourseCode:  course.Code,
			CourseTitle: course.Title,
			Credits:     credits,
		})
		totalCredits += credits
	}
	return selected, totalCredits, nil
}

func (s *RegistrationService) defaultPeriod(calendar *models.AcademicCalendar, academicYear string, semester models.Semester) (string, models.Semester) {
	if academicYear == "" {
		academicYear = calendar.CurrentYear
	}
	if semester == "" || semester == models.SemesterUnknown {
		if period, ok := calendar.CurrentPeriod(s.now()); ok {
			semester = period.Name
		}
	}
	return academicYear, semester
}

// initialStatus defaults the workflow status from the actor: administrative
// submissions are approved immediately, student self-registrations wait for
// review.
func initialStatus(claims *models.JWTClaims) string {
	if claims != nil && claims.Role.IsAdministrative() {
		return models.RegistrationStatusApproved
	}
	return models.RegistrationStatusPending
}

func registeredBy(claims *models.JWTClaims) string {
	if claims != nil && claims.UserID != "" {
		return claims.UserID
	}
	return "self"
}
