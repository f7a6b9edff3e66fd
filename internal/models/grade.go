package models

import (
	"strings"
	"time"
)

// Semester is a normalized period label within an academic year.
type Semester string

const (
	SemesterFirst   Semester = "First"
	SemesterSecond  Semester = "Second"
	SemesterThird   Semester = "Third"
	SemesterUnknown Semester = "Unknown"
)

// Ordinal returns the sort position of the semester. Unrecognized labels sort
// after every known one.
func (s Semester) Ordinal() int {
	switch s {
	case SemesterFirst:
		return 1
	case SemesterSecond:
		return 2
	case SemesterThird:
		return 3
	default:
		return 99
	}
}

// NormalizeSemester maps a raw period label onto the fixed vocabulary using
// case-insensitive substring and ordinal matching.
func NormalizeSemester(raw string) Semester {
	label := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case label == "":
		return SemesterUnknown
	case strings.Contains(label, "first") || strings.Contains(label, "1"):
		return SemesterFirst
	case strings.Contains(label, "second") || strings.Contains(label, "2"):
		return SemesterSecond
	case strings.Contains(label, "third") || strings.Contains(label, "3"):
		return SemesterThird
	default:
		return SemesterUnknown
	}
}

// Grade publication statuses. Only published records reach a transcript.
const (
	GradeStatusDraft     = "draft"
	GradeStatusPublished = "published"
)

// GradeRecord is one published result for a student on a course in a period,
// after source deduplication.
type GradeRecord struct {
	SourceID     string   `db:"source_id" json:"source_id"`
	StudentID    string   `db:"student_id" json:"student_id"`
	CourseCode   string   `db:"course_code" json:"course_code"`
	CourseTitle  string   `db:"course_title" json:"course_title"`
	Credits      int      `db:"credits" json:"credits"`
	Assessment   float64  `db:"assessment" json:"assessment"`
	MidSemester  float64  `db:"mid_semester" json:"mid_semester"`
	ExamScore    float64  `db:"exam_score" json:"exam_score"`
	TotalScore   float64  `db:"total_score" json:"total_score"`
	Grade        string   `db:"grade" json:"grade"`
	GradePoint   float64  `db:"grade_point" json:"grade_point"`
	AcademicYear string   `db:"academic_year" json:"academic_year"`
	Semester     Semester `db:"semester" json:"semester"`
	Status       string   `db:"status" json:"status"`
}

// GradeRow is the row shape of the current grade store.
type GradeRow struct {
	ID           string     `db:"id"`
	StudentID    string     `db:"student_id"`
	StudentEmail *string    `db:"student_email"`
	CourseCode   string     `db:"course_code"`
	CourseTitle  *string    `db:"course_title"`
	Credits      *int       `db:"credits"`
	Assessment   float64    `db:"assessment"`
	MidSemester  float64    `db:"mid_semester"`
	ExamScore    float64    `db:"exam_score"`
	TotalScore   float64    `db:"total_score"`
	Grade        string     `db:"grade"`
	AcademicYear string     `db:"academic_year"`
	Semester     string     `db:"semester"`
	Status       string     `db:"status"`
	PublishedAt  *time.Time `db:"published_at"`
}

// LegacyGradeRow is the row shape of the legacy grade store. Records there
// were keyed inconsistently: student_key holds either the canonical id, the
// registration number or the email.
type LegacyGradeRow struct {
	ID          string  `db:"id"`
	StudentKey  string  `db:"student_key"`
	CourseCode  string  `db:"course_code"`
	Title       *string `db:"title"`
	CreditHours *int    `db:"credit_hours"`
	Letter      string  `db:"letter"`
	YearLabel   string  `db:"year_label"`
	TermLabel   string  `db:"term_label"`
	Published   bool    `db:"published"`
}

// PeriodKey identifies a (academic year, normalized semester) group.
type PeriodKey struct {
	AcademicYear string   `json:"academic_year"`
	Semester     Semester `json:"semester"`
}

// GradeGroup holds the deduplicated records of one period.
type GradeGroup struct {
	PeriodKey
	Records []GradeRecord `json:"records"`
}
