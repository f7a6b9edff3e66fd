package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
	appErrors "github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/errors"
)

type currentGradeSource interface {
	ListPublished(ctx context.Context, studentID, email string) ([]models.GradeRow, error)
}

type legacyGradeSource interface {
	ListPublishedByKeys(ctx context.Context, keys []string) ([]models.LegacyGradeRow, error)
}

type catalogReader interface {
	FindByCode(ctx context.Context, code string) (*models.Course, error)
}

// GradebookService pulls a student's published grades out of every known
// source, deduplicates them and groups them by academic period.
type GradebookService struct {
	current       currentGradeSource
	legacy        legacyGradeSource
	catalog       catalogReader
	sourceTimeout time.Duration
	logger        *zap.Logger
}

// NewGradebookService constructs a GradebookService.
func NewGradebookService(current currentGradeSource, legacy legacyGradeSource, catalog catalogReader, sourceTimeout time.Duration, logger *zap.Logger) *GradebookService {
	if sourceTimeout <= 0 {
		sourceTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradebookService{
		current:       current,
		legacy:        legacy,
		catalog:       catalog,
		sourceTimeout: sourceTimeout,
		logger:        logger,
	}
}

// Aggregate collects the student's published grades from the current and
// legacy sources. Sources are queried concurrently, each bounded by the
// source timeout; a failing source is logged and skipped so one outage never
// fails the whole transcript.
func (s *GradebookService) Aggregate(ctx context.Context, identity *models.StudentIdentity) ([]models.GradeGroup, error) {
	if identity == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student identity required")
	}

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		currentRows []models.GradeRow
		legacyRows  []models.LegacyGradeRow
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		sourceCtx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
		defer cancel()
		rows, err := s.current.ListPublished(sourceCtx, identity.ID, identity.Email)
		if err != nil {
			s.logger.Warn("grade source unavailable", zap.String("source", "current"), zap.String("student_id", identity.ID), zap.Error(err))
			return
		}
		mu.Lock()
		currentRows = rows
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		sourceCtx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
		defer cancel()
		keys := []string{identity.ID, identity.RegistrationNumber, identity.Email}
		rows, err := s.legacy.ListPublishedByKeys(sourceCtx, keys)
		if err != nil {
			s.logger.Warn("grade source unavailable", zap.String("source", "legacy"), zap.String("student_id", identity.ID), zap.Error(err))
			return
		}
		mu.Lock()
		legacyRows = rows
		mu.Unlock()
	}()
	wg.Wait()

	// Current rows first so the migrated store wins duplicate resolution.
	records := make([]models.GradeRecord, 0, len(currentRows)+len(legacyRows))
	seenSource := make(map[string]bool, len(currentRows)+len(legacyRows))
	for _, row := range currentRows {
		sourceID := "current:" + row.ID
		if seenSource[sourceID] || row.Status != models.GradeStatusPublished {
			continue
		}
		seenSource[sourceID] = true
		records = append(records, s.fromCurrentRow(ctx, identity, row, sourceID))
	}
	for _, row := range legacyRows {
		sourceID := "legacy:" + row.ID
		if seenSource[sourceID] || !row.Published {
			continue
		}
		seenSource[sourceID] = true
		records = append(records, s.fromLegacyRow(ctx, identity, row, sourceID))
	}

	return groupRecords(records), nil
}

func (s *GradebookService) fromCurrentRow(ctx context.Context, identity *models.StudentIdentity, row models.GradeRow, sourceID string) models.GradeRecord {
	record := models.GradeRecord{
		SourceID:     sourceID,
		StudentID:    identity.ID,
		CourseCode:   row.CourseCode,
		Assessment:   row.Assessment,
		MidSemester:  row.MidSemester,
		ExamScore:    row.ExamScore,
		TotalScore:   row.TotalScore,
		Grade:        row.Grade,
		GradePoint:   GradePoint(row.Grade),
		AcademicYear: row.AcademicYear,
		Semester:     models.NormalizeSemester(row.Semester),
		Status:       row.Status,
	}
	title := ""
	if row.CourseTitle != nil {
		title = *row.CourseTitle
	}
	credits := 0
	if row.Credits != nil {
		credits = *row.Credits
	}
	record.CourseTitle, record.Credits = s.enrich(ctx, row.CourseCode, title, credits)
	return record
}

func (s *GradebookService) fromLegacyRow(ctx context.Context, identity *models.StudentIdentity, row models.LegacyGradeRow, sourceID string) models.GradeRecord {
	record := models.GradeRecord{
		SourceID:     sourceID,
		StudentID:    identity.ID,
		CourseCode:   row.CourseCode,
		Grade:        row.Letter,
		GradePoint:   GradePoint(row.Letter),
		AcademicYear: row.YearLabel,
		Semester:     models.NormalizeSemester(row.TermLabel),
		Status:       models.GradeStatusPublished,
	}
	title := ""
	if row.Title != nil {
		title = *row.Title
	}
	credits := 0
	if row.CreditHours != nil {
		credits = *row.CreditHours
	}
	record.CourseTitle, record.Credits = s.enrich(ctx, row.CourseCode, title, credits)
	return record
}

// enrich resolves course metadata: catalog first, then whatever the grade
// record embedded, then fixed defaults.
func (s *GradebookService) enrich(ctx context.Context, code, embeddedTitle string, embeddedCredits int) (string, int) {
	course, err := s.catalog.FindByCode(ctx, code)
	if err == nil {
		title := course.Title
		credits := course.Credits
		if title == "" {
			title = embeddedTitle
		}
		if credits <= 0 {
			credits = embeddedCredits
		}
		return fallbackCourseMeta(code, title, credits)
	}
	if err != sql.ErrNoRows {
		s.logger.Warn("catalog lookup failed", zap.String("course_code", code), zap.Error(err))
	}
	return fallbackCourseMeta(code, embeddedTitle, embeddedCredits)
}

func fallbackCourseMeta(code, title string, credits int) (string, int) {
	if title == "" {
		title = code
	}
	if credits <= 0 {
		credits = models.DefaultCourseCredits
	}
	return title, credits
}

// groupRecords buckets records by (academic year, normalized semester),
// keeping the first-seen record per course within a period. Groups come back
// ordered by year then semester ordinal, so repeated aggregation over an
// unchanged source set yields identical output.
func groupRecords(records []models.GradeRecord) []models.GradeGroup {
	index := make(map[models.PeriodKey]*models.GradeGroup)
	courseSeen := make(map[models.PeriodKey]map[string]bool)
	var order []models.PeriodKey

	for _, record := range records {
		key := models.PeriodKey{AcademicYear: record.AcademicYear, Semester: record.Semester}
		group, ok := index[key]
		if !ok {
			group = &models.GradeGroup{PeriodKey: key}
			index[key] = group
			courseSeen[key] = make(map[string]bool)
			order = append(order, key)
		}
		if courseSeen[key][record.CourseCode] {
			continue
		}
		courseSeen[key][record.CourseCode] = true
		group.Records = append(group.Records, record)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].AcademicYear != order[j].AcademicYear {
			return order[i].AcademicYear < order[j].AcademicYear
		}
		return order[i].Semester.Ordinal() < order[j].Semester.Ordinal()
	})

	groups := make([]models.GradeGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, *index[key])
	}
	return groups
}
