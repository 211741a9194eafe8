package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/mentora-service/internal/cache"
	"github.com/SAP-F-2025/mentora-service/internal/events"
	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
)

type enrollmentService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewEnrollmentService(repo repositories.Repository, cm *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		cache:     cm,
		publisher: publisher,
		logger:    logger,
	}
}

// Enroll inserts the enrollment and bumps the course's enrollment_count in one store transaction.
// The unique (student_id, course_id) index decides concurrent duplicates.
func (s *enrollmentService) Enroll(ctx context.Context, caller *models.Caller, courseID string) (*EnrollmentResponse, error) {
	if !caller.IsStudent() {
		return nil, NewPermissionError(caller.UserID, courseID, "course", "enroll", "only students can enroll")
	}

	s.logger.InfoContext(ctx, "Enrolling student", "student_id", caller.UserID, "course_id", courseID)

	var (
		enrollment *models.Enrollment
		course     *models.Course
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		c, err := tx.Course().GetByID(ctx, courseID)
		if err != nil {
			return courseLookupError(err)
		}
		// Unpublished courses are hidden from students
		if !c.IsPublished() {
			return ErrCourseNotFound
		}

		exists, err := tx.Enrollment().ExistsByStudentAndCourse(ctx, caller.UserID, c.ID)
		if err != nil {
			return fmt.Errorf("failed to check enrollment: %w", err)
		}
		if exists {
			return ErrAlreadyEnrolled
		}

		now := timeNow()
		e := &models.Enrollment{
			StudentID:         caller.UserID,
			CourseID:          c.ID,
			EnrolledAt:        now,
			LastAccessedAt:    now,
			CompletedSections: []string{},
		}
		if err := tx.Enrollment().Create(ctx, e); err != nil {
			if repositories.IsDuplicateError(err) {
				return ErrAlreadyEnrolled
			}
			return fmt.Errorf("failed to create enrollment: %w", err)
		}

		if err := tx.Course().IncrementEnrollmentCount(ctx, c.ID, 1); err != nil {
			return fmt.Errorf("failed to increment enrollment count: %w", err)
		}

		enrollment, course = e, c
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateCourseCache(ctx, s.cache, course.ID)

	s.logger.InfoContext(ctx, "Student enrolled", "enrollment_id", enrollment.ID, "course_id", course.ID)
	publishEvent(ctx, s.publisher, s.logger, events.EnrollmentCreated, enrollmentEventData(enrollment))

	return toEnrollmentResponse(enrollment, len(course.Sections)), nil
}

func (s *enrollmentService) ListEnrolled(ctx context.Context, caller *models.Caller) ([]*EnrolledCourseResponse, error) {
	if !caller.IsStudent() {
		return nil, NewPermissionError(caller.UserID, "", "enrollment", "list", "only students have enrollments")
	}

	enrollments, err := s.repo.Enrollment().ListByStudent(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	if len(enrollments) == 0 {
		return []*EnrolledCourseResponse{}, nil
	}

	ids := make([]string, len(enrollments))
	for i, e := range enrollments {
		ids[i] = e.CourseID
	}
	courses, err := s.repo.Course().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load enrolled courses: %w", err)
	}
	if err := attachTeacherNames(ctx, s.repo.User(), courses); err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	result := make([]*EnrolledCourseResponse, 0, len(enrollments))
	for _, e := range enrollments {
		c, ok := byID[e.CourseID]
		if !ok {
			s.logger.WarnContext(ctx, "Enrollment references a missing course", "enrollment_id", e.ID, "course_id", e.CourseID)
			continue
		}
		result = append(result, &EnrolledCourseResponse{
			CourseResponse:     *toCourseResponse(c),
			ProgressPercentage: e.ProgressPercentage,
			EnrolledAt:         formatTime(e.EnrolledAt),
			LastAccessedAt:     formatTime(e.LastAccessedAt),
			CompletedAt:        formatTimePtr(e.CompletedAt),
		})
	}
	return result, nil
}

// GetProgress returns the caller's enrollment and records the access
func (s *enrollmentService) GetProgress(ctx context.Context, caller *models.Caller, courseID string) (*EnrollmentResponse, error) {
	if !caller.IsStudent() {
		return nil, NewPermissionError(caller.UserID, courseID, "enrollment", "read", "only students have progress")
	}

	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		return nil, courseLookupError(err)
	}

	enrollment, err := s.repo.Enrollment().GetByStudentAndCourse(ctx, caller.UserID, course.ID)
	if err != nil {
		return nil, enrollmentLookupError(err)
	}

	enrollment.LastAccessedAt = timeNow()
	if err := s.repo.Enrollment().Update(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("failed to record access: %w", err)
	}

	return toEnrollmentResponse(enrollment, len(course.Sections)), nil
}

// CompleteSection marks one section done. The first time progress reaches 100 the
// enrollment is completed and the course's completion_count is bumped in the same transaction.
func (s *enrollmentService) CompleteSection(ctx context.Context, caller *models.Caller, courseID, sectionID string) (*EnrollmentResponse, error) {
	if !caller.IsStudent() {
		return nil, NewPermissionError(caller.UserID, courseID, "enrollment", "update", "only students have progress")
	}

	var (
		enrollment *models.Enrollment
		course     *models.Course
		completed  bool
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		c, err := tx.Course().GetByID(ctx, courseID)
		if err != nil {
			return courseLookupError(err)
		}
		if c.FindSection(sectionID) == nil {
			return ErrSectionNotFound
		}

		e, err := tx.Enrollment().GetByStudentAndCourse(ctx, caller.UserID, c.ID)
		if err != nil {
			return enrollmentLookupError(err)
		}

		completed = e.MarkSectionCompleted(sectionID, c.SectionIDs(), timeNow())
		if err := tx.Enrollment().Update(ctx, e); err != nil {
			return fmt.Errorf("failed to update progress: %w", err)
		}
		if completed {
			if err := tx.Course().IncrementCompletionCount(ctx, c.ID, 1); err != nil {
				return fmt.Errorf("failed to increment completion count: %w", err)
			}
		}

		enrollment, course = e, c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed {
		cache.InvalidateCourseCache(ctx, s.cache, course.ID)
		s.logger.InfoContext(ctx, "Course completed", "enrollment_id", enrollment.ID, "course_id", course.ID)
		publishEvent(ctx, s.publisher, s.logger, events.EnrollmentCompleted, enrollmentEventData(enrollment))
	}

	return toEnrollmentResponse(enrollment, len(course.Sections)), nil
}

// ListCourseEnrollments returns the roster of a course to its owner
func (s *enrollmentService) ListCourseEnrollments(ctx context.Context, caller *models.Caller, courseID string) ([]*RosterEntry, error) {
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		return nil, courseLookupError(err)
	}
	if course.TeacherID != caller.UserID {
		return nil, NewPermissionError(caller.UserID, courseID, "course", "list_enrollments", "not the course owner")
	}

	enrollments, err := s.repo.Enrollment().ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list course enrollments: %w", err)
	}
	if len(enrollments) == 0 {
		return []*RosterEntry{}, nil
	}

	ids := make([]string, len(enrollments))
	for i, e := range enrollments {
		ids[i] = e.StudentID
	}
	students, err := s.repo.User().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}
	byID := make(map[string]*models.User, len(students))
	for _, u := range students {
		byID[u.ID] = u
	}

	roster := make([]*RosterEntry, 0, len(enrollments))
	for _, e := range enrollments {
		entry := &RosterEntry{
			StudentID:          e.StudentID,
			ProgressPercentage: e.ProgressPercentage,
			CompletedSections:  len(e.CompletedSections),
			EnrolledAt:         formatTime(e.EnrolledAt),
			LastAccessedAt:     formatTime(e.LastAccessedAt),
			CompletedAt:        formatTimePtr(e.CompletedAt),
		}
		if u, ok := byID[e.StudentID]; ok {
			entry.Username = u.Username
			entry.FullName = u.FullName
			entry.Email = u.Email
		}
		roster = append(roster, entry)
	}
	return roster, nil
}

func enrollmentLookupError(err error) error {
	switch {
	case repositories.IsNotFoundError(err):
		return ErrEnrollmentNotFound
	case repositories.IsInvalidIDError(err):
		return ErrInvalidID
	default:
		return fmt.Errorf("failed to get enrollment: %w", err)
	}
}
