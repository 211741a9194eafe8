package repositories

import (
	"context"

	"github.com/SAP-F-2025/mentora-service/internal/models"
)

type CourseRepository interface {
	// Basic CRUD. Create assigns the store identity to course.ID.
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id string) (*models.Course, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Course, error)
	Update(ctx context.Context, course *models.Course) error

	// Listing, newest first
	ListByTeacher(ctx context.Context, teacherID string, filters CourseFilters) ([]*models.Course, error)

	// Discovery over published courses only
	ListPublishedByTags(ctx context.Context, tags []string, limit int) ([]*models.Course, error)
	// ListPopularPublished orders by enrollment_count desc with a stable tie-break.
	ListPopularPublished(ctx context.Context, excludeIDs []string, limit int) ([]*models.Course, error)

	// Denormalized counters
	IncrementEnrollmentCount(ctx context.Context, id string, delta int) error
	IncrementCompletionCount(ctx context.Context, id string, delta int) error
	// SetCounters writes counters only while the stored values still equal expected.
	// It reports false when they moved on or the course is gone.
	SetCounters(ctx context.Context, id string, expected, counters CourseCounters) (bool, error)
	ListCounters(ctx context.Context) (map[string]CourseCounters, error)
}

type EnrollmentRepository interface {
	// Create fails with ErrDuplicate when the (student, course) pair already exists.
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	ExistsByStudentAndCourse(ctx context.Context, studentID, courseID string) (bool, error)
	Update(ctx context.Context, enrollment *models.Enrollment) error

	ListByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID string) ([]*models.Enrollment, error)

	// CountByCourse recounts enrollments and completions for every course that has any.
	CountByCourse(ctx context.Context) (map[string]CourseCounters, error)
}
