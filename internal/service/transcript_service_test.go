package service

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
	appErrors "github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/errors"
)

func TestGradePoint(t *testing.T) {
	cases := map[string]float64{
		"A+": 4.0, "A": 4.0, "B+": 3.5, "B": 3.0, "C+": 2.5,
		"C": 2.0, "D+": 1.5, "D": 1.0, "E": 0.5, "F": 0.0,
	}
	for letter, expected := range cases {
		assert.Equal(t, expected, GradePoint(letter), letter)
	}
	assert.Equal(t, 4.0, GradePoint(" a "), "trims and upper-cases")
	assert.Equal(t, 0.0, GradePoint("X"), "unknown letters score zero")
	assert.Equal(t, 0.0, GradePoint(""))
}

func TestClassStandingBands(t *testing.T) {
	assert.Equal(t, models.StandingFirstClass, ClassStanding(4.0))
	assert.Equal(t, models.StandingFirstClass, ClassStanding(3.6))
	assert.Equal(t, models.StandingSecondUpper, ClassStanding(3.59999))
	assert.Equal(t, models.StandingSecondUpper, ClassStanding(3.0))
	assert.Equal(t, models.StandingSecondLower, ClassStanding(2.5))
	assert.Equal(t, models.StandingThirdClass, ClassStanding(2.0))
	assert.Equal(t, models.StandingPass, ClassStanding(1.99))
	assert.Equal(t, models.StandingPass, ClassStanding(0))
}

func TestAcademicStatusBands(t *testing.T) {
	assert.Equal(t, models.StatusExcellent, AcademicStatus(3.5))
	assert.Equal(t, models.StatusGoodStanding, AcademicStatus(3.49))
	assert.Equal(t, models.StatusGoodStanding, AcademicStatus(3.0))
	assert.Equal(t, models.StatusSatisfactory, AcademicStatus(2.0))
	assert.Equal(t, models.StatusProbation, AcademicStatus(1.99))
}

func TestComposeComputesGPAAndSummary(t *testing.T) {
	identity := &models.StudentIdentity{ID: "stu-1", DisplayName: "Ama Mensah"}
	groups := []models.GradeGroup{
		{
			PeriodKey: models.PeriodKey{AcademicYear: "2024/2025", Semester: models.SemesterFirst},
			Records: []models.GradeRecord{
				{CourseCode: "CS102", CourseTitle: "Data Structures", Credits: 3, Grade: "C"},
				{CourseCode: "CS101", CourseTitle: "Intro to Computing", Credits: 3, Grade: "A"},
			},
		},
	}

	transcript := Compose(identity, groups)
	require.Len(t, transcript.Semesters, 1)

	semester := transcript.Semesters[0]
	require.Len(t, semester.Courses, 2)
	assert.Equal(t, "CS101", semester.Courses[0].CourseCode, "courses sorted by code")
	assert.Equal(t, "CS102", semester.Courses[1].CourseCode)
	assert.Equal(t, 3.0, semester.SemesterGPA, "(3*4.0 + 3*2.0) / 6")
	assert.Equal(t, 6, semester.CreditsAttempted)
	assert.Equal(t, 6, semester.CreditsEarned)
	assert.True(t, semester.HasGrades)

	assert.Equal(t, 3.0, transcript.Summary.CumulativeGPA)
	assert.Equal(t, models.StandingSecondUpper, transcript.Summary.ClassStanding)
	assert.Equal(t, models.StatusGoodStanding, transcript.Summary.AcademicStatus)
}

func TestComposeFailedCourseEarnsNoCredits(t *testing.T) {
	identity := &models.StudentIdentity{ID: "stu-1"}
	groups := []models.GradeGroup{
		{
			PeriodKey: models.PeriodKey{AcademicYear: "2024/2025", Semester: models.SemesterFirst},
			Records: []models.GradeRecord{
				{CourseCode: "AG101", Credits: 3, Grade: "F"},
				{CourseCode: "AG102", Credits: 3, Grade: "B"},
			},
		},
	}

	transcript := Compose(identity, groups)
	semester := transcript.Semesters[0]
	assert.Equal(t, 6, semester.CreditsAttempted)
	assert.Equal(t, 3, semester.CreditsEarned, "F earns no credits but still counts as attempted")
	assert.Equal(t, 1.5, semester.SemesterGPA)
}

func TestComposeBandsFromUnroundedGPA(t *testing.T) {
	identity := &models.StudentIdentity{ID: "stu-1"}
	// 19 credits of A plus 81 credits of B+ average 3.595: just short of
	// First Class, even though the displayed GPA rounds up to 3.6.
	groups := []models.GradeGroup{
		{
			PeriodKey: models.PeriodKey{AcademicYear: "2024/2025", Semester: models.SemesterFirst},
			Records: []models.GradeRecord{
				{CourseCode: "AG101", Credits: 19, Grade: "A"},
				{CourseCode: "AG102", Credits: 81, Grade: "B+"},
			},
		},
	}

	transcript := Compose(identity, groups)
	assert.InDelta(t, 3.595, transcript.Summary.CumulativeGPA, 0.005)
	assert.Equal(t, models.StandingSecondUpper, transcript.Summary.ClassStanding)
	assert.Equal(t, models.StatusExcellent, transcript.Summary.AcademicStatus)
}

func TestComposeOrdersSemestersChronologically(t *testing.T) {
	identity := &models.StudentIdentity{ID: "stu-1"}
	groups := []models.GradeGroup{
		{PeriodKey: models.PeriodKey{AcademicYear: "2024/2025", Semester: models.SemesterSecond}},
		{PeriodKey: models.PeriodKey{AcademicYear: "2023/2024", Semester: models.SemesterSecond}},
		{PeriodKey: models.PeriodKey{AcademicYear: "2024/2025", Semester: models.SemesterFirst}},
	}

	transcript := Compose(identity, groups)
	require.Len(t, transcript.Semesters, 3)
	assert.Equal(t, "2023/2024", transcript.Semesters[0].AcademicYear)
	assert.Equal(t, "2024/2025", transcript.Semesters[1].AcademicYear)
	assert.Equal(t, models.SemesterFirst, transcript.Semesters[1].Semester)
	assert.Equal(t, models.SemesterSecond, transcript.Semesters[2].Semester)
}

func TestComposeEmptyGroups(t *testing.T) {
	transcript := Compose(&models.StudentIdentity{ID: "stu-1"}, nil)
	assert.Empty(t, transcript.Semesters)
	assert.Equal(t, 0.0, transcript.Summary.CumulativeGPA)
	assert.Equal(t, models.StandingPass, transcript.Summary.ClassStanding)
}

type fakeResolver struct {
	identity *models.StudentIdentity
	err      error
}

func (f *fakeResolver) Resolve(ctx context.Context, reference string) (*models.StudentIdentity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type fakeAggregator struct {
	groups []models.GradeGroup
	calls  int
}

func (f *fakeAggregator) Aggregate(ctx context.Context, identity *models.StudentIdentity) ([]models.GradeGroup, error) {
	f.calls++
	return f.groups, nil
}

type fakeCache struct {
	values map[string]string
	sets   int
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	if value, ok := f.values[key]; ok {
		return value, nil
	}
	return "", redis.Nil
}

func (f *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	f.values[key] = value
	f.sets++
	return nil
}

func TestGetTranscriptCachesComposedResult(t *testing.T) {
	resolver := &fakeResolver{identity: &models.StudentIdentity{ID: "stu-1", DisplayName: "Ama Mensah"}}
	aggregator := &fakeAggregator{groups: []models.GradeGroup{
		{
			PeriodKey: models.PeriodKey{AcademicYear: "2024/2025", Semester: models.SemesterFirst},
			Records:   []models.GradeRecord{{CourseCode: "CS101", Credits: 3, Grade: "A"}},
		},
	}}
	cache := &fakeCache{}
	svc := NewTranscriptService(resolver, aggregator, cache, nil, time.Minute, nil)

	first, err := svc.GetTranscript(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 4.0, first.Summary.CumulativeGPA)
	assert.Equal(t, 1, aggregator.calls)
	assert.Equal(t, 1, cache.sets)

	second, err := svc.GetTranscript(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, 1, aggregator.calls, "second read served from cache")
}

func TestGetTranscriptPropagatesResolutionError(t *testing.T) {
	resolver := &fakeResolver{err: appErrors.Clone(appErrors.ErrNotFound, "student not found")}
	svc := NewTranscriptService(resolver, &fakeAggregator{}, nil, nil, time.Minute, nil)

	_, err := svc.GetTranscript(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
