package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
	appErrors "github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/errors"
)

// haltFlagKey is the shared flag every scheduler invocation consults before
// touching student records.
const haltFlagKey = "progression:halted"

type progressionStudentStore interface {
	ListActiveByMode(ctx context.Context, mode models.StudyMode) ([]models.StudentIdentity, error)
	UpdatePeriodMarker(ctx context.Context, studentID string, period int) (bool, error)
	AdvanceLevel(ctx context.Context, studentID, fromLevel, toLevel, academicYear string) (bool, error)
}

type completionReader interface {
	CompletedPeriods(ctx context.Context, studentID, email, academicYear string) (map[models.Semester]bool, error)
}

type auditStore interface {
	Get(ctx context.Context, scheduleType models.StudyMode) (*models.AuditTrail, error)
	Append(ctx context.Context, scheduleType models.StudyMode, event models.ProgressionEvent, maxEntries int) error
}

type haltFlagStore interface {
	SetFlag(ctx context.Context, key string) error
	FlagSet(ctx context.Context, key string) (bool, error)
	ClearFlag(ctx context.Context, key string) error
}

// ProgressionService runs semester and academic-year transitions for a
// cohort. Runs are idempotent: markers only ever move forward, and the
// conditional writes make a re-run of an applied transition a no-op.
type ProgressionService struct {
	students     progressionStudentStore
	completions  completionReader
	calendars    calendarReader
	audits       auditStore
	flags        haltFlagStore
	auditHistory int
	logger       *zap.Logger
	now          func() time.Time
}

// NewProgressionService constructs a ProgressionService.
func NewProgressionService(students progressionStudentStore, completions completionReader, calendars calendarReader, audits auditStore, flags haltFlagStore, auditHistory int, logger *zap.Logger) *ProgressionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if auditHistory <= 0 {
		auditHistory = 50
	}
	return &ProgressionService{
		students:     students,
		completions:  completions,
		calendars:    calendars,
		audits:       audits,
		flags:        flags,
		auditHistory: auditHistory,
		logger:       logger,
		now:          time.Now,
	}
}

// RunSchedule executes a scheduled invocation for one cohort: the semester
// transition, then the academic-year transition. Transitions whose boundary
// has not arrived report a skipped outcome; that is a normal result, not an
// error.
func (s *ProgressionService) RunSchedule(ctx context.Context, mode models.StudyMode, dryRun bool, triggeredBy string) (*models.SchedulerResult, error) {
	if triggeredBy == "" {
		triggeredBy = models.ActorScheduled
	}
	return s.run(ctx, mode, []models.TransitionKind{models.TransitionSemester, models.TransitionAcademicYear}, false, dryRun, triggeredBy)
}

// RunManual executes an operator-triggered invocation. An empty kind runs
// both transitions; force bypasses the boundary and completion checks.
func (s *ProgressionService) RunManual(ctx context.Context, mode models.StudyMode, kind models.TransitionKind, force, dryRun bool) (*models.SchedulerResult, error) {
	kinds := []models.TransitionKind{models.TransitionSemester, models.TransitionAcademicYear}
	switch kind {
	case "":
	case models.TransitionSemester, models.TransitionAcademicYear:
		kinds = []models.TransitionKind{kind}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown transition kind %q", kind))
	}
	return s.run(ctx, mode, kinds, force, dryRun, models.ActorManual)
}

func (s *ProgressionService) run(ctx context.Context, mode models.StudyMode, kinds []models.TransitionKind, force, dryRun bool, triggeredBy string) (*models.SchedulerResult, error) {
	ranAt := s.now()

	halted, err := s.flags.FlagSet(ctx, haltFlagKey)
	if err != nil {
		s.logger.Warn("halt flag check failed", zap.Error(err))
	}
	if halted {
		for _, kind := range kinds {
			s.appendAudit(ctx, mode, models.ProgressionEvent{
				Timestamp:      ranAt,
				ScheduleType:   mode,
				TransitionKind: kind,
				Outcome:        models.OutcomeFailed,
				DryRun:         dryRun,
				TriggeredBy:    triggeredBy,
				Error:          "scheduler is halted",
			})
		}
		return nil, appErrors.Clone(appErrors.ErrProgressionHalted, "")
	}

	calendar, err := s.calendars.FindBySchedule(ctx, mode)
	if err != nil {
		for _, kind := range kinds {
			s.appendAudit(ctx, mode, models.ProgressionEvent{
				Timestamp:      ranAt,
				ScheduleType:   mode,
				TransitionKind: kind,
				Outcome:        models.OutcomeFailed,
				DryRun:         dryRun,
				TriggeredBy:    triggeredBy,
				Error:          err.Error(),
			})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic calendar")
	}

	students, err := s.students.ListActiveByMode(ctx, mode)
	if err != nil {
		for _, kind := range kinds {
			s.appendAudit(ctx, mode, models.ProgressionEvent{
				Timestamp:      ranAt,
				ScheduleType:   mode,
				TransitionKind: kind,
				Outcome:        models.OutcomeFailed,
				DryRun:         dryRun,
				TriggeredBy:    triggeredBy,
				Error:          err.Error(),
			})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cohort students")
	}

	result := &models.SchedulerResult{ScheduleType: mode, RanAt: ranAt}
	for _, kind := range kinds {
		var outcome models.TransitionOutcome
		var event models.ProgressionEvent
		switch kind {
		case models.TransitionSemester:
			outcome, event = s.runSemesterTransition(ctx, calendar, students, force, dryRun)
		case models.TransitionAcademicYear:
			outcome, event = s.runAcademicYearTransition(ctx, calendar, students, force, dryRun)
		}
		event.Timestamp = ranAt
		event.ScheduleType = mode
		event.TransitionKind = kind
		event.DryRun = dryRun
		event.TriggeredBy = triggeredBy
		s.appendAudit(ctx, mode, event)

		outcome.Kind = kind
		outcome.DryRun = dryRun
		result.Outcomes = append(result.Outcomes, outcome)
	}

	s.logger.Info("progression run finished",
		zap.String("schedule_type", string(mode)),
		zap.Bool("dry_run", dryRun),
		zap.String("triggered_by", triggeredBy),
		zap.Int("transitions", len(result.Outcomes)))
	return result, nil
}

// runSemesterTransition advances period markers within the academic year. A
// student is eligible when the calendar has moved past their marker and every
// period from the marker up to the calendar's current one holds published
// results.
func (s *ProgressionService) runSemesterTransition(ctx context.Context, calendar *models.AcademicCalendar, students []models.StudentIdentity, force, dryRun bool) (models.TransitionOutcome, models.ProgressionEvent) {
	outcome := models.TransitionOutcome{Status: models.OutcomeCompleted}
	event := models.ProgressionEvent{Outcome: models.OutcomeCompleted}

	target := 0
	if !force {
		window, ok := calendar.CurrentPeriod(s.now())
		if !ok {
			outcome.Status = models.OutcomeSkipped
			outcome.Summary = "no active period window on the calendar"
			event.Outcome = models.OutcomeSkipped
			return outcome, event
		}
		if window.Ordinal <= 1 {
			outcome.Status = models.OutcomeSkipped
			outcome.Summary = fmt.Sprintf("not yet time: %s %s is still in progress", calendar.CurrentYear, window.Name)
			event.Outcome = models.OutcomeSkipped
			return outcome, event
		}
		target = window.Ordinal
		event.PreviousPeriod = string(periodName(calendar, target-1))
		event.NewPeriod = string(window.Name)
	}

	periodsPerLevel := calendar.PeriodsPerLevel()
	for _, student := range students {
		studentTarget := target
		if force {
			studentTarget = student.CurrentPeriod + 1
		}
		if studentTarget > periodsPerLevel || student.CurrentPeriod >= studentTarget {
			outcome.Ineligible++
			continue
		}
		if !force {
			year := student.CurrentAcademicYear
			if year == "" {
				year = calendar.CurrentYear
			}
			completed, err := s.completions.CompletedPeriods(ctx, student.ID, student.Email, year)
			if err != nil {
				outcome.Failed++
				s.logger.Warn("completion check failed",
					zap.String("student_id", student.ID),
					zap.Error(err))
				continue
			}
			// A lagging marker catches up only when every period between
			// it and the target holds published results.
			eligible := true
			for ordinal := student.CurrentPeriod; ordinal < studentTarget; ordinal++ {
				if !completed[periodName(calendar, ordinal)] {
					eligible = false
					break
				}
			}
			if !eligible {
				outcome.Ineligible++
				continue
			}
		}

		outcome.Processed++
		if dryRun {
			outcome.Succeeded++
			continue
		}
		changed, err := s.students.UpdatePeriodMarker(ctx, student.ID, studentTarget)
		if err != nil {
			outcome.Failed++
			s.logger.Warn("period marker update failed",
				zap.String("student_id", student.ID),
				zap.Error(err))
			continue
		}
		if changed {
			outcome.Succeeded++
		}
	}

	outcome.Eligible = outcome.Processed
	outcome.Summary = fmt.Sprintf("%d of %d students moved to the next period", outcome.Succeeded, len(students))
	event.Processed = outcome.Processed
	event.Succeeded = outcome.Succeeded
	event.Failed = outcome.Failed
	return outcome, event
}

// runAcademicYearTransition moves students up one level once the academic
// year has ended and every period of it holds published results. Final-level
// students stay where they are.
func (s *ProgressionService) runAcademicYearTransition(ctx context.Context, calendar *models.AcademicCalendar, students []models.StudentIdentity, force, dryRun bool) (models.TransitionOutcome, models.ProgressionEvent) {
	outcome := models.TransitionOutcome{Status: models.OutcomeCompleted}
	nextYear := models.NextYearLabel(calendar.CurrentYear)
	event := models.ProgressionEvent{
		Outcome:        models.OutcomeCompleted,
		PreviousPeriod: calendar.CurrentYear,
		NewPeriod:      nextYear,
	}

	if !force && !s.now().After(calendar.YearEnd) {
		outcome.Status = models.OutcomeSkipped
		outcome.Summary = fmt.Sprintf("not yet time: academic year %s runs until %s", calendar.CurrentYear, calendar.YearEnd.Format("2006-01-02"))
		event.Outcome = models.OutcomeSkipped
		return outcome, event
	}

	for _, student := range students {
		if student.CurrentAcademicYear != "" && student.CurrentAcademicYear != calendar.CurrentYear {
			outcome.Ineligible++
			continue
		}
		nextLevel, ok := student.NextLevel()
		if !ok {
			outcome.Ineligible++
			continue
		}
		if !force && !s.yearCompleted(ctx, calendar, student) {
			outcome.Ineligible++
			continue
		}

		outcome.Processed++
		if dryRun {
			outcome.Succeeded++
			continue
		}
		changed, err := s.students.AdvanceLevel(ctx, student.ID, student.CurrentLevel, nextLevel, nextYear)
		if err != nil {
			outcome.Failed++
			s.logger.Warn("level advance failed",
				zap.String("student_id", student.ID),
				zap.String("from_level", student.CurrentLevel),
				zap.Error(err))
			continue
		}
		if changed {
			outcome.Succeeded++
		}
	}

	outcome.Eligible = outcome.Processed
	outcome.Summary = fmt.Sprintf("%d of %d students advanced to the next level", outcome.Succeeded, len(students))
	event.Processed = outcome.Processed
	event.Succeeded = outcome.Succeeded
	event.Failed = outcome.Failed
	return outcome, event
}

// yearCompleted reports whether every period of the current academic year
// holds published results for the student. A completion-store failure counts
// as not completed; the student is picked up on the next run.
func (s *ProgressionService) yearCompleted(ctx context.Context, calendar *models.AcademicCalendar, student models.StudentIdentity) bool {
	completed, err := s.completions.CompletedPeriods(ctx, student.ID, student.Email, calendar.CurrentYear)
	if err != nil {
		s.logger.Warn("completion check failed",
			zap.String("student_id", student.ID),
			zap.Error(err))
		return false
	}
	for _, period := range calendar.Periods {
		if !completed[period.Name] {
			return false
		}
	}
	return len(calendar.Periods) > 0
}

// appendAudit records one event best-effort. Losing an audit entry never
// fails or re-runs the transition it describes.
func (s *ProgressionService) appendAudit(ctx context.Context, mode models.StudyMode, event models.ProgressionEvent) {
	if err := s.audits.Append(ctx, mode, event, s.auditHistory); err != nil {
		s.logger.Warn("audit append failed",
			zap.String("schedule_type", string(mode)),
			zap.String("transition_kind", string(event.TransitionKind)),
			zap.Error(err))
	}
}

// Audit returns the bounded audit trail for one cohort.
func (s *ProgressionService) Audit(ctx context.Context, mode models.StudyMode) (*models.AuditTrail, error) {
	trail, err := s.audits.Get(ctx, mode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit trail")
	}
	return trail, nil
}

// Halt raises the flag that blocks every subsequent scheduler invocation.
func (s *ProgressionService) Halt(ctx context.Context) error {
	if err := s.flags.SetFlag(ctx, haltFlagKey); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to halt scheduler")
	}
	s.logger.Warn("progression scheduler halted")
	return nil
}

// Resume lowers the halt flag.
func (s *ProgressionService) Resume(ctx context.Context) error {
	if err := s.flags.ClearFlag(ctx, haltFlagKey); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resume scheduler")
	}
	s.logger.Info("progression scheduler resumed")
	return nil
}

// Halted reports whether the scheduler is currently halted.
func (s *ProgressionService) Halted(ctx context.Context) (bool, error) {
	return s.flags.FlagSet(ctx, haltFlagKey)
}

func periodName(calendar *models.AcademicCalendar, ordinal int) models.Semester {
	for _, period := range calendar.Periods {
		if period.Ordinal == ordinal {
			return period.Name
		}
	}
	return models.SemesterUnknown
}
