package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
)

type CoursePostgreSQL struct {
	db *gorm.DB
}

func NewCoursePostgreSQL(db *gorm.DB) repositories.CourseRepository {
	return &CoursePostgreSQL{db: db}
}

// Create inserts the course and its tag index rows together
func (r *CoursePostgreSQL) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = newID()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(course).Error; err != nil {
			return err
		}
		return replaceCourseTags(tx, course.ID, course.Tags)
	})
	return translateError(err, "failed to create course")
}

func (r *CoursePostgreSQL) GetByID(ctx context.Context, id string) (*models.Course, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var course models.Course
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&course).Error; err != nil {
		return nil, translateError(err, "failed to get course")
	}
	return &course, nil
}

func (r *CoursePostgreSQL) GetByIDs(ctx context.Context, ids []string) ([]*models.Course, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return []*models.Course{}, nil
	}

	var courses []*models.Course
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&courses).Error; err != nil {
		return nil, translateError(err, "failed to get courses")
	}
	return courses, nil
}

// Update rewrites the mutable columns. Counters are left to the increment methods.
func (r *CoursePostgreSQL) Update(ctx context.Context, course *models.Course) error {
	id, err := parseID(course.ID)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Course{ID: id}).
			Select("title", "description", "difficulty_level", "estimated_hours", "category",
				"status", "tags", "sections", "prerequisites", "learning_objectives",
				"updated_at", "published_at").
			UpdateColumns(course)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return replaceCourseTags(tx, id, course.Tags)
	})
	return translateError(err, "failed to update course")
}

func (r *CoursePostgreSQL) ListByTeacher(ctx context.Context, teacherID string, filters repositories.CourseFilters) ([]*models.Course, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{}).Where("teacher_id = ?", teacherID)
	query = ApplyCourseFilters(query, filters)

	var courses []*models.Course
	if err := query.Order("created_at DESC").Order("id ASC").Find(&courses).Error; err != nil {
		return nil, translateError(err, "failed to list courses by teacher")
	}
	return courses, nil
}

func (r *CoursePostgreSQL) ListPublishedByTags(ctx context.Context, tags []string, limit int) ([]*models.Course, error) {
	if len(tags) == 0 || limit <= 0 {
		return []*models.Course{}, nil
	}

	db := r.db.WithContext(ctx)
	tagged := db.Model(&models.CourseTag{}).Select("course_id").Where("tag IN ?", tags)

	var courses []*models.Course
	err := db.Model(&models.Course{}).
		Where("status = ?", models.CourseStatusPublished).
		Where("id IN (?)", tagged).
		Order("enrollment_count DESC").Order("created_at ASC").Order("id ASC").
		Limit(limit).
		Find(&courses).Error
	if err != nil {
		return nil, translateError(err, "failed to list courses by tags")
	}
	return courses, nil
}

func (r *CoursePostgreSQL) ListPopularPublished(ctx context.Context, excludeIDs []string, limit int) ([]*models.Course, error) {
	if limit <= 0 {
		return []*models.Course{}, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("status = ?", models.CourseStatusPublished)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	var courses []*models.Course
	err := query.
		Order("enrollment_count DESC").Order("created_at ASC").Order("id ASC").
		Limit(limit).
		Find(&courses).Error
	if err != nil {
		return nil, translateError(err, "failed to list popular courses")
	}
	return courses, nil
}

func (r *CoursePostgreSQL) IncrementEnrollmentCount(ctx context.Context, id string, delta int) error {
	return r.increment(ctx, id, "enrollment_count", delta)
}

func (r *CoursePostgreSQL) IncrementCompletionCount(ctx context.Context, id string, delta int) error {
	return r.increment(ctx, id, "completion_count", delta)
}

func (r *CoursePostgreSQL) increment(ctx context.Context, id, column string, delta int) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if result.Error != nil {
		return translateError(result.Error, fmt.Sprintf("failed to increment %s", column))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to increment %s: %w", column, repositories.ErrNotFound)
	}
	return nil
}

func (r *CoursePostgreSQL) SetCounters(ctx context.Context, id string, expected, counters repositories.CourseCounters) (bool, error) {
	id, err := parseID(id)
	if err != nil {
		return false, err
	}

	result := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("id = ? AND enrollment_count = ? AND completion_count = ?", id, expected.Enrollments, expected.Completions).
		UpdateColumns(map[string]interface{}{
			"enrollment_count": counters.Enrollments,
			"completion_count": counters.Completions,
		})
	if result.Error != nil {
		return false, translateError(result.Error, "failed to set course counters")
	}
	return result.RowsAffected > 0, nil
}

func (r *CoursePostgreSQL) ListCounters(ctx context.Context) (map[string]repositories.CourseCounters, error) {
	var rows []struct {
		ID              string
		EnrollmentCount int
		CompletionCount int
	}
	err := r.db.WithContext(ctx).Model(&models.Course{}).
		Select("id, enrollment_count, completion_count").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err, "failed to list course counters")
	}

	counters := make(map[string]repositories.CourseCounters, len(rows))
	for _, row := range rows {
		counters[row.ID] = repositories.CourseCounters{
			Enrollments: row.EnrollmentCount,
			Completions: row.CompletionCount,
		}
	}
	return counters, nil
}
