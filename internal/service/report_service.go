package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/judy4534/studentSystem/pkg/errors"
	"github.com/judy4534/studentSystem/pkg/export"
)

// ReportFormat selects the export rendering.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// Report is a rendered export ready to stream to the client.
type Report struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ReportService renders transcripts and ledger listings into
// downloadable documents.
type ReportService struct {
	records *RecordsService
	ledger  ledgerReader
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(records *RecordsService, ledger ledgerReader, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{records: records, ledger: ledger, csv: csv, pdf: pdf, logger: logger}
}

// Transcript renders a student's full academic record.
func (s *ReportService) Transcript(ctx context.Context, studentID string, format ReportFormat) (*Report, error) {
	transcript, err := s.records.Transcript(ctx, studentID)
	if err != nil {
		return nil, err
	}

	headers := []string{"Semester", "Code", "Course", "Credits", "Coursework", "Final", "Total", "Status"}
	var rows []map[string]string
	for _, semester := range transcript.Semesters {
		for _, course := range semester.Courses {
			rows = append(rows, map[string]string{
				"Semester":   semester.SemesterName,
				"Code":       course.CourseCode,
				"Course":     course.CourseName,
				"Credits":    fmt.Sprintf("%d", course.Credits),
				"Coursework": gradeCell(course.CourseworkGrade),
				"Final":      gradeCell(course.FinalGrade),
				"Total":      gradeCell(course.TotalGrade),
				"Status":     string(course.Status),
			})
		}
	}
	rows = append(rows, map[string]string{
		"Semester": "Cumulative",
		"Course":   "GPA",
		"Total":    transcript.Cumulative.GPA,
		"Credits":  fmt.Sprintf("%d", transcript.Cumulative.Credits),
	})

	dataset := export.Dataset{Headers: headers, Rows: rows}
	title := fmt.Sprintf("Transcript - %s", transcript.StudentName)
	fileBase := fmt.Sprintf("transcript_%s", sanitizeFileName(transcript.StudentNo, studentID))
	return s.render(dataset, title, fileBase, format)
}

// CourseRoster renders the graded roster of one course offering.
func (s *ReportService) CourseRoster(ctx context.Context, courseID, semesterID string, format ReportFormat) (*Report, error) {
	enrollments, err := s.ledger.ListByCourseAndSemester(ctx, courseID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	headers := []string{"Student", "Coursework", "Final", "Total", "Passed", "Status"}
	rows := make([]map[string]string, 0, len(enrollments))
	for _, enrollment := range enrollments {
		rows = append(rows, map[string]string{
			"Student":    enrollment.StudentID,
			"Coursework": gradeCell(enrollment.CourseworkGrade),
			"Final":      gradeCell(enrollment.FinalGrade),
			"Total":      gradeCell(enrollment.TotalGrade()),
			"Passed":     fmt.Sprintf("%t", enrollment.Passed()),
			"Status":     string(enrollment.Status),
		})
	}

	dataset := export.Dataset{Headers: headers, Rows: rows}
	fileBase := fmt.Sprintf("roster_%s_%s", courseID, semesterID)
	return s.render(dataset, "Course Roster", fileBase, format)
}

func (s *ReportService) render(dataset export.Dataset, title, fileBase string, format ReportFormat) (*Report, error) {
	switch format {
	case ReportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &Report{FileName: fileBase + ".csv", ContentType: "text/csv", Content: content}, nil
	case ReportFormatPDF:
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &Report{FileName: fileBase + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
}

func gradeCell(grade *int) string {
	if grade == nil {
		return ""
	}
	return fmt.Sprintf("%d", *grade)
}

func sanitizeFileName(preferred, fallback string) string {
	name := strings.TrimSpace(preferred)
	if name == "" {
		name = fallback
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
