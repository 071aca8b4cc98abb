package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/bktrung/academic-records-api/internal/models"
)

// PDFExporter renders transcripts into a tabular PDF document.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

var transcriptColumns = []struct {
	header string
	width  float64
}{
	{"Course Code", 30},
	{"Course Name", 70},
	{"Credits", 20},
	{"Score", 20},
	{"Grade", 20},
	{"Points", 30},
}

// RenderTranscript creates a PDF transcript with a per-course grade table
// and the weighted GPA summary.
func (e *PDFExporter) RenderTranscript(transcript *models.Transcript) ([]byte, error) {
	if transcript == nil {
		return nil, fmt.Errorf("pdf requires a transcript")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "ACADEMIC TRANSCRIPT", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Student: %s (%s)", transcript.StudentName, transcript.StudentCode), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	for _, col := range transcriptColumns {
		pdf.CellFormat(col.width, 8, col.header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, entry := range transcript.Entries {
		values := []string{
			entry.CourseCode,
			truncate(entry.CourseName, 45),
			fmt.Sprintf("%d", entry.Credits),
			fmt.Sprintf("%.1f", entry.TotalScore),
			entry.LetterGrade,
			fmt.Sprintf("%.1f", entry.GradePoints),
		}
		for i, col := range transcriptColumns {
			pdf.CellFormat(col.width, 7, values[i], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total Credits: %d", transcript.TotalCredits), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("GPA (10-point scale): %.2f", transcript.GPA10), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("GPA (4-point scale): %.2f", transcript.GPA4), "", 1, "L", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max-3]) + "..."
}
