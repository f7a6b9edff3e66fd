package models

import "time"

// TransitionKind identifies which boundary a scheduler run targets.
type TransitionKind string

const (
	TransitionSemester     TransitionKind = "semester"
	TransitionAcademicYear TransitionKind = "academic-year"
)

// Transition outcomes reported per kind on every scheduler run.
const (
	OutcomeCompleted = "completed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Actors that may trigger a scheduler run.
const (
	ActorScheduled = "scheduled"
	ActorManual    = "manual"
)

// ProgressionEvent is one append-only audit entry, written once per scheduler
// invocation and never mutated afterwards.
type ProgressionEvent struct {
	Timestamp      time.Time      `json:"timestamp"`
	ScheduleType   StudyMode      `json:"schedule_type"`
	TransitionKind TransitionKind `json:"transition_kind"`
	PreviousPeriod string         `json:"previous_period,omitempty"`
	NewPeriod      string         `json:"new_period,omitempty"`
	Outcome        string         `json:"outcome"`
	Processed      int            `json:"processed"`
	Succeeded      int            `json:"succeeded"`
	Failed         int            `json:"failed"`
	DryRun         bool           `json:"dry_run"`
	TriggeredBy    string         `json:"triggered_by"`
	Error          string         `json:"error,omitempty"`
}

// AuditTrail is the bounded per-schedule audit document: the most recent
// entries plus a running invocation counter.
type AuditTrail struct {
	ScheduleType StudyMode          `json:"schedule_type"`
	Entries      []ProgressionEvent `json:"entries"`
	TotalRuns    int                `json:"total_runs"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// TransitionOutcome summarises one transition kind within a scheduler run.
type TransitionOutcome struct {
	Kind       TransitionKind `json:"kind"`
	Status     string         `json:"status"`
	Summary    string         `json:"summary"`
	Eligible   int            `json:"eligible"`
	Ineligible int            `json:"ineligible"`
	Processed  int            `json:"processed"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	DryRun     bool           `json:"dry_run"`
}

// SchedulerResult is the structured response of one scheduler invocation.
type SchedulerResult struct {
	ScheduleType StudyMode           `json:"schedule_type"`
	Outcomes     []TransitionOutcome `json:"outcomes"`
	RanAt        time.Time           `json:"ran_at"`
}
