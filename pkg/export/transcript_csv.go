package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
)

// TranscriptCSV renders a composed transcript into a flat CSV, one row per
// graded course plus a trailing summary row.
type TranscriptCSV struct{}

// NewTranscriptCSV builds the CSV exporter.
func NewTranscriptCSV() *TranscriptCSV {
	return &TranscriptCSV{}
}

var csvHeader = []string{"academic_year", "semester", "course_code", "course_title", "credits", "grade", "grade_point", "weighted_points"}

// Render produces CSV bytes for one transcript.
func (e *TranscriptCSV) Render(transcript *models.Transcript) ([]byte, error) {
	if transcript == nil {
		return nil, fmt.Errorf("csv requires a transcript")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, semester := range transcript.Semesters {
		for _, course := range semester.Courses {
			record := []string{
				semester.AcademicYear,
				string(semester.Semester),
				course.CourseCode,
				course.CourseTitle,
				fmt.Sprintf("%d", course.Credits),
				course.Grade,
				fmt.Sprintf("%.2f", course.GradePoint),
				fmt.Sprintf("%.2f", course.WeightedPoints),
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	summary := transcript.Summary
	footer := []string{"", "", "", "CUMULATIVE", fmt.Sprintf("%d", summary.CreditsAttempted), summary.ClassStanding, fmt.Sprintf("%.2f", summary.CumulativeGPA), ""}
	if err := writer.Write(footer); err != nil {
		return nil, fmt.Errorf("write csv summary: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
