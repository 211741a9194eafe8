package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
)

// newID returns a fresh store identity.
func newID() string {
	return uuid.NewString()
}

// parseID rejects identifiers that could never match a row.
func parseID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", repositories.ErrInvalidID, id)
	}
	return parsed.String(), nil
}

// validIDs drops malformed identifiers from a batch lookup.
func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if parsed, err := parseID(id); err == nil {
			out = append(out, parsed)
		}
	}
	return out
}

// translateError maps driver errors onto the repository error kinds.
func translateError(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, repositories.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// isUniqueViolation covers drivers that do not implement gorm's error translator.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}

// ApplyCourseFilters applies optional status and category filters to course queries
func ApplyCourseFilters(query *gorm.DB, filters repositories.CourseFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	return query
}

// replaceCourseTags rewrites the tag index rows for one course.
func replaceCourseTags(tx *gorm.DB, courseID string, tags []string) error {
	if err := tx.Where("course_id = ?", courseID).Delete(&models.CourseTag{}).Error; err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	rows := make([]models.CourseTag, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		rows = append(rows, models.CourseTag{CourseID: courseID, Tag: tag})
	}
	return tx.Create(&rows).Error
}
