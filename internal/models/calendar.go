package models

import (
	"fmt"
	"time"
)

// PeriodWindow is one semester or trimester window within an academic year.
type PeriodWindow struct {
	Name    Semester  `json:"name"`
	Ordinal int       `json:"ordinal"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// AcademicCalendar describes the active academic year for one schedule type.
// Regular cohorts run two semesters per level, Weekend cohorts three
// trimesters.
type AcademicCalendar struct {
	ScheduleType StudyMode      `db:"schedule_type" json:"schedule_type"`
	CurrentYear  string         `db:"current_year" json:"current_year"`
	YearStart    time.Time      `db:"year_start" json:"year_start"`
	YearEnd      time.Time      `db:"year_end" json:"year_end"`
	Periods      []PeriodWindow `db:"-" json:"periods"`
}

// PeriodsPerLevel returns how many periods a student must complete per level
// under this calendar.
func (c AcademicCalendar) PeriodsPerLevel() int {
	if c.ScheduleType == StudyModeWeekend {
		return 3
	}
	return 2
}

// CurrentPeriod returns the period window containing the given instant, or
// the last window that started before it when none contains it.
func (c AcademicCalendar) CurrentPeriod(now time.Time) (PeriodWindow, bool) {
	var current PeriodWindow
	found := false
	for _, period := range c.Periods {
		if now.Before(period.Start) {
			continue
		}
		if !found || period.Ordinal > current.Ordinal {
			current = period
			found = true
		}
	}
	return current, found
}

// NextPeriod returns the period window following the given ordinal.
func (c AcademicCalendar) NextPeriod(ordinal int) (PeriodWindow, bool) {
	for _, period := range c.Periods {
		if period.Ordinal == ordinal+1 {
			return period, true
		}
	}
	return PeriodWindow{}, false
}

// InYearWindow reports whether the instant falls inside the academic year.
func (c AcademicCalendar) InYearWindow(now time.Time) bool {
	return !now.Before(c.YearStart) && !now.After(c.YearEnd)
}

// NextYearLabel derives the label of the following academic year, e.g.
// "2024/2025" -> "2025/2026". Unparseable labels are returned unchanged.
func NextYearLabel(year string) string {
	var first, second int
	if _, err := fmt.Sscanf(year, "%d/%d", &first, &second); err != nil {
		return year
	}
	return fmt.Sprintf("%d/%d", first+1, second+1)
}
