package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
)

// TranscriptPDF renders a composed transcript into an official-looking PDF.
type TranscriptPDF struct{}

// NewTranscriptPDF constructs the PDF exporter.
func NewTranscriptPDF() *TranscriptPDF {
	return &TranscriptPDF{}
}

// Render produces the PDF bytes for one transcript.
func (e *TranscriptPDF) Render(transcript *models.Transcript) ([]byte, error) {
	if transcript == nil {
		return nil, fmt.Errorf("pdf requires a transcript")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 15, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 9, "ACADEMIC TRANSCRIPT", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	student := transcript.Student
	pdf.CellFormat(0, 6, fmt.Sprintf("Name: %s", student.DisplayName), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Registration No: %s", student.Reference()), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Program: %s    Level: %s    Mode: %s", student.Program, student.CurrentLevel, student.StudyMode), "", 1, "", false, 0, "")
	pdf.Ln(3)

	widths := []float64{30, 76, 18, 18, 22, 22}
	headers := []string{"Code", "Title", "Credits", "Grade", "Points", "Weighted"}

	for _, semester := range transcript.Semesters {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 7, fmt.Sprintf("%s - %s Semester", semester.AcademicYear, semester.Semester), "", 1, "", false, 0, "")

		pdf.SetFont("Arial", "B", 9)
		for i, header := range headers {
			pdf.CellFormat(widths[i], 6, header, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, course := range semester.Courses {
			cells := []string{
				course.CourseCode,
				course.CourseTitle,
				fmt.Sprintf("%d", course.Credits),
				course.Grade,
				fmt.Sprintf("%.2f", course.GradePoint),
				fmt.Sprintf("%.2f", course.WeightedPoints),
			}
			for i, cell := range cells {
				pdf.CellFormat(widths[i], 6, cell, "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}

		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 6, fmt.Sprintf("Semester GPA: %.2f    Credits: %d attempted / %d earned",
			semester.SemesterGPA, semester.CreditsAttempted, semester.CreditsEarned), "", 1, "R", false, 0, "")
		pdf.Ln(2)
	}

	summary := transcript.Summary
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 7, fmt.Sprintf("Cumulative GPA: %.2f    Credits Earned: %d / %d attempted",
		summary.CumulativeGPA, summary.CreditsEarned, summary.CreditsAttempted), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Class Standing: %s    Academic Status: %s",
		summary.ClassStanding, summary.AcademicStatus), "", 1, "", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render transcript pdf: %w", err)
	}
	return buf.Bytes(), nil
}
