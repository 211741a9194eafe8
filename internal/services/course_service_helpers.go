package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/mentora-service/internal/events"
	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
)

// Stores keep at most millisecond precision; stamping at that resolution keeps
// cached and freshly loaded documents identical.
func timeNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// buildSections assigns fresh ids and re-indexes order by array position
func buildSections(reqs []SectionRequest) []models.Section {
	sections := make([]models.Section, len(reqs))
	for i, req := range reqs {
		sections[i] = models.Section{
			ID:                 uuid.NewString(),
			Title:              req.Title,
			Content:            req.Content,
			Order:              i,
			ReadingTimeMinutes: req.ReadingTimeMinutes,
		}
	}
	return sections
}

// estimateHours rounds the total reading time up to whole hours, never below 1
func estimateHours(sections []models.Section) int {
	minutes := 0
	for _, s := range sections {
		minutes += s.ReadingTimeMinutes
	}
	hours := (minutes + 59) / 60
	if hours < 1 {
		return 1
	}
	return hours
}

func toCourseResponse(course *models.Course) *CourseResponse {
	sections := []models.Section(course.Sections)
	if sections == nil {
		sections = []models.Section{}
	}

	return &CourseResponse{
		ID:                 course.ID,
		TeacherID:          course.TeacherID,
		TeacherName:        course.TeacherName,
		Title:              course.Title,
		Description:        course.Description,
		DifficultyLevel:    course.DifficultyLevel,
		EstimatedHours:     course.EstimatedHours,
		Category:           course.Category,
		Tags:               stringsOrEmpty(course.Tags),
		Sections:           sections,
		Prerequisites:      stringsOrEmpty(course.Prerequisites),
		LearningObjectives: stringsOrEmpty(course.LearningObjectives),
		Status:             course.Status,
		EnrollmentCount:    course.EnrollmentCount,
		CompletionCount:    course.CompletionCount,
		AverageRating:      course.AverageRating,
		TotalReviews:       course.TotalReviews,
		CreatedAt:          formatTime(course.CreatedAt),
		UpdatedAt:          formatTime(course.UpdatedAt),
		PublishedAt:        formatTimePtr(course.PublishedAt),
	}
}

func toEnrollmentResponse(e *models.Enrollment, totalSections int) *EnrollmentResponse {
	return &EnrollmentResponse{
		ID:                 e.ID,
		StudentID:          e.StudentID,
		CourseID:           e.CourseID,
		ProgressPercentage: e.ProgressPercentage,
		CompletedSections:  stringsOrEmpty(e.CompletedSections),
		TotalSections:      totalSections,
		LastSectionID:      e.LastSectionID,
		EnrolledAt:         formatTime(e.EnrolledAt),
		LastAccessedAt:     formatTime(e.LastAccessedAt),
		CompletedAt:        formatTimePtr(e.CompletedAt),
	}
}

// attachTeacherNames resolves every distinct teacher with one batched lookup
func attachTeacherNames(ctx context.Context, users repositories.UserRepository, courses []*models.Course) error {
	if len(courses) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(courses))
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		if _, ok := seen[c.TeacherID]; ok {
			continue
		}
		seen[c.TeacherID] = struct{}{}
		ids = append(ids, c.TeacherID)
	}

	teachers, err := users.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load teachers: %w", err)
	}

	names := make(map[string]string, len(teachers))
	for _, t := range teachers {
		names[t.ID] = t.FullName
	}
	for _, c := range courses {
		c.TeacherName = names[c.TeacherID]
	}
	return nil
}

// courseLookupError maps store errors from a course lookup onto service errors
func courseLookupError(err error) error {
	switch {
	case errors.Is(err, ErrCourseNotFound), errors.Is(err, ErrInvalidID):
		return err
	case repositories.IsInvalidIDError(err):
		return ErrInvalidID
	case repositories.IsNotFoundError(err):
		return ErrCourseNotFound
	default:
		return fmt.Errorf("failed to get course: %w", err)
	}
}

// publishEvent never fails the caller; the write it describes has already committed
func publishEvent(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, eventType events.EventType, data interface{}) {
	if publisher == nil {
		return
	}
	event := events.NewEvent(eventType, data)
	if err := publisher.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "event_type", eventType, "event_id", event.ID, "error", err)
	}
}

func courseEventData(course *models.Course) events.CourseEventData {
	return events.CourseEventData{
		CourseID:  course.ID,
		TeacherID: course.TeacherID,
		Title:     course.Title,
		Status:    string(course.Status),
	}
}

func enrollmentEventData(e *models.Enrollment) events.EnrollmentEventData {
	return events.EnrollmentEventData{
		EnrollmentID: e.ID,
		CourseID:     e.CourseID,
		StudentID:    e.StudentID,
		Progress:     e.ProgressPercentage,
	}
}
