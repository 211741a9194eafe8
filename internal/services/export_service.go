package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/mentora-service/internal/models"
)

const rosterSheet = "Roster"

var rosterHeader = []string{
	"Student ID", "Username", "Full Name", "Email",
	"Progress (%)", "Completed Sections", "Enrolled At", "Last Accessed At", "Completed At",
}

var rosterWidths = []struct {
	from, to string
	width    float64
}{
	{"A", "A", 38},
	{"B", "D", 24},
	{"E", "I", 22},
}

type exportService struct {
	enrollments EnrollmentService
	logger      *slog.Logger
}

// NewExportService renders rosters from the owner-checked enrollment listing
func NewExportService(enrollments EnrollmentService, logger *slog.Logger) ExportService {
	return &exportService{enrollments: enrollments, logger: logger}
}

func (s *exportService) ExportRoster(ctx context.Context, caller *models.Caller, courseID string) (*RosterExport, error) {
	roster, err := s.enrollments.ListCourseEnrollments(ctx, caller, courseID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return nil, fmt.Errorf("failed to prepare roster sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(rosterHeader))
	for i, title := range rosterHeader {
		header[i] = title
	}
	if err := writeRosterRow(f, rosterSheet, 1, header); err != nil {
		return nil, err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(rosterHeader), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(rosterSheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style roster header: %w", err)
	}
	for _, w := range rosterWidths {
		if err := f.SetColWidth(rosterSheet, w.from, w.to, w.width); err != nil {
			return nil, fmt.Errorf("failed to size roster columns: %w", err)
		}
	}

	for r, entry := range roster {
		completedAt := ""
		if entry.CompletedAt != nil {
			completedAt = *entry.CompletedAt
		}
		values := []interface{}{
			entry.StudentID,
			entry.Username,
			entry.FullName,
			entry.Email,
			entry.ProgressPercentage,
			entry.CompletedSections,
			entry.EnrolledAt,
			entry.LastAccessedAt,
			completedAt,
		}
		if err := writeRosterRow(f, rosterSheet, r+2, values); err != nil {
			s.logger.ErrorContext(ctx, "Failed to write roster row", "course_id", courseID, "student_id", entry.StudentID, "error", err)
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to write roster workbook", "course_id", courseID, "error", err)
		return nil, fmt.Errorf("failed to write roster workbook: %w", err)
	}

	s.logger.InfoContext(ctx, "Roster exported", "course_id", courseID, "rows", len(roster))

	return &RosterExport{
		Filename: fmt.Sprintf("roster_%s.xlsx", courseID),
		Data:     buf.Bytes(),
	}, nil
}

// writeRosterRow fills one sheet row starting at column A
func writeRosterRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for c, v := range values {
		cell, err := excelize.CoordinatesToCellName(c+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write roster cell %s: %w", cell, err)
		}
	}
	return nil
}
