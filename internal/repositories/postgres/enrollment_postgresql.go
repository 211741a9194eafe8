package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
)

type EnrollmentPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{db: db}
}

// Create relies on idx_enrollment_student_course to reject a second enrollment for the pair
func (r *EnrollmentPostgreSQL) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = newID()
	}
	if err := r.db.WithContext(ctx).Create(enrollment).Error; err != nil {
		return translateError(err, "failed to create enrollment")
	}
	return nil
}

func (r *EnrollmentPostgreSQL) GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	courseID, err := parseID(courseID)
	if err != nil {
		return nil, err
	}

	var enrollment models.Enrollment
	err = r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, translateError(err, "failed to get enrollment")
	}
	return &enrollment, nil
}

func (r *EnrollmentPostgreSQL) ExistsByStudentAndCourse(ctx context.Context, studentID, courseID string) (bool, error) {
	courseID, err := parseID(courseID)
	if err != nil {
		return false, err
	}

	var count int64
	err = r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error
	if err != nil {
		return false, translateError(err, "failed to check enrollment")
	}
	return count > 0, nil
}

func (r *EnrollmentPostgreSQL) Update(ctx context.Context, enrollment *models.Enrollment) error {
	result := r.db.WithContext(ctx).Model(&models.Enrollment{ID: enrollment.ID}).
		Select("last_accessed_at", "progress_percentage", "completed_sections", "last_section_id", "completed_at").
		UpdateColumns(enrollment)
	if result.Error != nil {
		return translateError(result.Error, "failed to update enrollment")
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "failed to update enrollment")
	}
	return nil
}

func (r *EnrollmentPostgreSQL) ListByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("enrolled_at DESC").Order("id ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, translateError(err, "failed to list student enrollments")
	}
	return enrollments, nil
}

func (r *EnrollmentPostgreSQL) ListByCourse(ctx context.Context, courseID string) ([]*models.Enrollment, error) {
	courseID, err := parseID(courseID)
	if err != nil {
		return nil, err
	}

	var enrollments []*models.Enrollment
	err = r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("enrolled_at ASC").Order("id ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, translateError(err, "failed to list course enrollments")
	}
	return enrollments, nil
}

func (r *EnrollmentPostgreSQL) CountByCourse(ctx context.Context) (map[string]repositories.CourseCounters, error) {
	var rows []struct {
		CourseID    string
		Enrollments int
		Completions int
	}
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Select("course_id, COUNT(*) AS enrollments, " +
			"SUM(CASE WHEN completed_at IS NOT NULL THEN 1 ELSE 0 END) AS completions").
		Group("course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err, "failed to count enrollments")
	}

	counters := make(map[string]repositories.CourseCounters, len(rows))
	for _, row := range rows {
		counters[row.CourseID] = repositories.CourseCounters{
			Enrollments: row.Enrollments,
			Completions: row.Completions,
		}
	}
	return counters, nil
}
