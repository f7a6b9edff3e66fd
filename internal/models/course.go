package models

// Course is one catalog entry scoped to a program, level and semester.
type Course struct {
	Code       string   `db:"code" json:"code"`
	Title      string   `db:"title" json:"title"`
	Credits    int      `db:"credits" json:"credits"`
	Program    string   `db:"program" json:"program"`
	Level      string   `db:"level" json:"level"`
	Semester   Semester `db:"semester" json:"semester"`
	Instructor string   `db:"instructor" json:"instructor,omitempty"`
}

// DefaultCourseCredits applies when neither the catalog nor the grade record
// carries a credit value.
const DefaultCourseCredits = 3
