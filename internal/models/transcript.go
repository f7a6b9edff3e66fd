package models

// Class standing bands, a step function of cumulative GPA.
const (
	StandingFirstClass  = "First Class"
	StandingSecondUpper = "Second Class Upper"
	StandingSecondLower = "Second Class Lower"
	StandingThirdClass  = "Third Class"
	StandingPass        = "Pass"
)

// Academic status bands, independent of class standing.
const (
	StatusExcellent    = "Excellent"
	StatusGoodStanding = "Good Standing"
	StatusSatisfactory = "Satisfactory"
	StatusProbation    = "Probation"
)

// CourseResult is one graded course inside a semester result.
type CourseResult struct {
	CourseCode     string  `json:"course_code"`
	CourseTitle    string  `json:"course_title"`
	Credits        int     `json:"credits"`
	Grade          string  `json:"grade"`
	GradePoint     float64 `json:"grade_point"`
	WeightedPoints float64 `json:"weighted_points"`
}

// SemesterResult aggregates one academic period. Derived, never persisted.
type SemesterResult struct {
	AcademicYear     string         `json:"academic_year"`
	Semester         Semester       `json:"semester"`
	Courses          []CourseResult `json:"courses"`
	SemesterGPA      float64        `json:"semester_gpa"`
	CreditsAttempted int            `json:"credits_attempted"`
	CreditsEarned    int            `json:"credits_earned"`
	HasGrades        bool           `json:"has_grades"`
}

// TranscriptSummary carries the cumulative figures across all semesters.
type TranscriptSummary struct {
	CumulativeGPA    float64 `json:"cumulative_gpa"`
	CreditsAttempted int     `json:"credits_attempted"`
	CreditsEarned    int     `json:"credits_earned"`
	ClassStanding    string  `json:"class_standing"`
	AcademicStatus   string  `json:"academic_status"`
}

// Transcript is the authoritative academic record for one student. Fully
// derived; recomputing it is idempotent.
type Transcript struct {
	Student   StudentIdentity   `json:"student"`
	Semesters []SemesterResult  `json:"semesters"`
	Summary   TranscriptSummary `json:"summary"`
}
