package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
)

// CalendarRepository reads the active academic calendar, one row per schedule
// type with the period windows stored as JSONB.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs a CalendarRepository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

type calendarRow struct {
	ScheduleType string          `db:"schedule_type"`
	CurrentYear  string          `db:"current_year"`
	YearStart    time.Time       `db:"year_start"`
	YearEnd      time.Time       `db:"year_end"`
	Periods      json.RawMessage `db:"periods"`
}

// FindBySchedule fetches the calendar for one schedule type.
func (r *CalendarRepository) FindBySchedule(ctx context.Context, scheduleType models.StudyMode) (*models.AcademicCalendar, error) {
	const query = `SELECT schedule_type, current_year, year_start, year_end, periods
        FROM academic_calendars WHERE schedule_type = $1`
	var row calendarRow
	if err := r.db.GetContext(ctx, &row, query, scheduleType); err != nil {
		return nil, err
	}
	calendar := &models.AcademicCalendar{
		ScheduleType: models.StudyMode(row.ScheduleType),
		CurrentYear:  row.CurrentYear,
		YearStart:    row.YearStart,
		YearEnd:      row.YearEnd,
	}
	if len(row.Periods) > 0 {
		if err := json.Unmarshal(row.Periods, &calendar.Periods); err != nil {
			return nil, fmt.Errorf("decode calendar periods: %w", err)
		}
	}
	return calendar, nil
}
