package service

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/repository"
)

// gradePointTable is the institutional letter-to-point scale.
var gradePointTable = map[string]float64{
	"A+": 4.0,
	"A":  4.0,
	"B+": 3.5,
	"B":  3.0,
	"C+": 2.5,
	"C":  2.0,
	"D+": 1.5,
	"D":  1.0,
	"E":  0.5,
	"F":  0.0,
}

// GradePoint returns the point value for a letter grade. Unrecognized grades
// score zero.
func GradePoint(grade string) float64 {
	if points, ok := gradePointTable[strings.ToUpper(strings.TrimSpace(grade))]; ok {
		return points
	}
	return 0.0
}

// ClassStanding bands the cumulative GPA into the graduation classification.
func ClassStanding(gpa float64) string {
	switch {
	case gpa >= 3.6:
		return models.StandingFirstClass
	case gpa >= 3.0:
		return models.StandingSecondUpper
	case gpa >= 2.5:
		return models.StandingSecondLower
	case gpa >= 2.0:
		return models.StandingThirdClass
	default:
		return models.StandingPass
	}
}

// AcademicStatus bands the cumulative GPA into the current-standing label,
// independently of class standing.
func AcademicStatus(gpa float64) string {
	switch {
	case gpa >= 3.5:
		return models.StatusExcellent
	case gpa >= 3.0:
		return models.StatusGoodStanding
	case gpa >= 2.0:
		return models.StatusSatisfactory
	default:
		return models.StatusProbation
	}
}

type identityResolver interface {
	Resolve(ctx context.Context, reference string) (*models.StudentIdentity, error)
}

type gradeAggregator interface {
	Aggregate(ctx context.Context, identity *models.StudentIdentity) ([]models.GradeGroup, error)
}

type transcriptCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type cacheObserver interface {
	RecordCacheOperation(hit bool, duration time.Duration)
	ObserveCacheWrite(duration time.Duration)
}

// TranscriptService composes authoritative transcripts from aggregated grade
// groups. Transcripts are fully derived, so recomputation is idempotent and
// the cache is a pure optimisation.
type TranscriptService struct {
	identities identityResolver
	gradebook  gradeAggregator
	cache      transcriptCache
	metrics    cacheObserver
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewTranscriptService constructs a TranscriptService. Cache and metrics may
// be nil.
func NewTranscriptService(identities identityResolver, gradebook gradeAggregator, cache transcriptCache, metrics cacheObserver, cacheTTL time.Duration, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &TranscriptService{
		identities: identities,
		gradebook:  gradebook,
		cache:      cache,
		metrics:    metrics,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// GetTranscript resolves the reference, aggregates the grades and composes
// the transcript, consulting the cache first.
func (s *TranscriptService) GetTranscript(ctx context.Context, reference string) (*models.Transcript, error) {
	identity, err := s.identities.Resolve(ctx, reference)
	if err != nil {
		return nil, err
	}

	cacheKey := "transcript:" + identity.ID
	if cached := s.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	groups, err := s.gradebook.Aggregate(ctx, identity)
	if err != nil {
		return nil, err
	}
	transcript := Compose(identity, groups)
	s.toCache(ctx, cacheKey, transcript)
	return transcript, nil
}

func (s *TranscriptService) fromCache(ctx context.Context, key string) *models.Transcript {
	if s.cache == nil {
		return nil
	}
	start := time.Now()
	raw, err := s.cache.Get(ctx, key)
	hit := err == nil
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit, time.Since(start))
	}
	if err != nil {
		if !repository.IsMiss(err) {
			s.logger.Warn("transcript cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
	var transcript models.Transcript
	if err := json.Unmarshal([]byte(raw), &transcript); err != nil {
		s.logger.Warn("transcript cache decode failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &transcript
}

func (s *TranscriptService) toCache(ctx context.Context, key string, transcript *models.Transcript) {
	if s.cache == nil {
		return
	}
	encoded, err := json.Marshal(transcript)
	if err != nil {
		return
	}
	start := time.Now()
	if err := s.cache.Set(ctx, key, string(encoded), s.cacheTTL); err != nil {
		s.logger.Warn("transcript cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveCacheWrite(time.Since(start))
	}
}

// Compose builds the transcript from grouped grade records. Pure: no I/O, no
// clock, stable output for stable input.
func Compose(identity *models.StudentIdentity, groups []models.GradeGroup) *models.Transcript {
	semesters := make([]models.SemesterResult, 0, len(groups))
	totalWeighted := 0.0
	totalAttempted := 0
	totalEarned := 0

	for _, group := range groups {
		result := models.SemesterResult{
			AcademicYear: group.AcademicYear,
			Semester:     group.Semester,
		}
		weighted := 0.0
		for _, record := range group.Records {
			points := GradePoint(record.Grade)
			course := models.CourseResult{
				CourseCode:     record.CourseCode,
				CourseTitle:    record.CourseTitle,
				Credits:        record.Credits,
				Grade:          strings.ToUpper(strings.TrimSpace(record.Grade)),
				GradePoint:     points,
				WeightedPoints: float64(record.Credits) * points,
			}
			result.Courses = append(result.Courses, course)
			result.CreditsAttempted += course.Credits
			if course.Grade != "F" {
				result.CreditsEarned += course.Credits
			}
			weighted += course.WeightedPoints
		}
		sort.SliceStable(result.Courses, func(i, j int) bool {
			return result.Courses[i].CourseCode < result.Courses[j].CourseCode
		})
		if result.CreditsAttempted > 0 {
			result.SemesterGPA = roundGPA(weighted / float64(result.CreditsAttempted))
		}
		result.HasGrades = len(result.Courses) > 0

		totalWeighted += weighted
		totalAttempted += result.CreditsAttempted
		totalEarned += result.CreditsEarned
		semesters = append(semesters, result)
	}

	sort.SliceStable(semesters, func(i, j int) bool {
		if semesters[i].AcademicYear != semesters[j].AcademicYear {
			return semesters[i].AcademicYear < semesters[j].AcademicYear
		}
		return semesters[i].Semester.Ordinal() < semesters[j].Semester.Ordinal()
	})

	// Banding works on the exact quotient; rounding is display-only, so a
	// GPA just below a threshold cannot round its way into a higher band.
	cumulative := 0.0
	if totalAttempted > 0 {
		cumulative = totalWeighted / float64(totalAttempted)
	}

	return &models.Transcript{
		Student:   *identity,
		Semesters: semesters,
		Summary: models.TranscriptSummary{
			CumulativeGPA:    roundGPA(cumulative),
			CreditsAttempted: totalAttempted,
			CreditsEarned:    totalEarned,
			ClassStanding:    ClassStanding(cumulative),
			AcademicStatus:   AcademicStatus(cumulative),
		},
	}
}

func roundGPA(v float64) float64 {
	return math.Round(v*100) / 100
}
