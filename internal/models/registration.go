package models

import "time"

// Course registration statuses. A registration in any status blocks a new one
// for the same period until resolved by the approval workflow.
const (
	RegistrationStatusPending  = "pending"
	RegistrationStatusApproved = "approved"
	RegistrationStatusRejected = "rejected"
)

// RegistrationCourse is one selected course within a registration.
type RegistrationCourse struct {
	CourseCode  string `json:"course_code"`
	CourseTitle string `json:"course_title"`
	Credits     int    `json:"credits"`
}

// CourseRegistration records a student's course selection for one period.
type CourseRegistration struct {
	ID           string               `db:"id" json:"id"`
	StudentID    string               `db:"student_id" json:"student_id"`
	AcademicYear string               `db:"academic_year" json:"academic_year"`
	Semester     Semester             `db:"semester" json:"semester"`
	Program      string               `db:"program" json:"program"`
	Level        string               `db:"level" json:"level"`
	Courses      []RegistrationCourse `db:"-" json:"courses"`
	TotalCredits int                  `db:"total_credits" json:"total_credits"`
	Status       string               `db:"status" json:"status"`
	RegisteredBy string               `db:"registered_by" json:"registered_by"`
	CreatedAt    time.Time            `db:"created_at" json:"created_at"`
}

// EligibilityResult is the outcome of a registration eligibility check.
type EligibilityResult struct {
	CanRegister bool                `json:"can_register"`
	Reason      string              `json:"reason,omitempty"`
	Existing    *CourseRegistration `json:"existing,omitempty"`
}
