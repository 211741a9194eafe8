package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/mentora-service/internal/cache"
	"github.com/SAP-F-2025/mentora-service/internal/events"
	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
	"github.com/SAP-F-2025/mentora-service/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCourseService(repo repositories.Repository, cm *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) CourseService {
	return &courseService{
		repo:      repo,
		cache:     cm,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE OPERATIONS =====

func (s *courseService) Create(ctx context.Context, caller *models.Caller, req *CreateCourseRequest) (*CourseResponse, error) {
	if !caller.IsTeacher() {
		return nil, NewPermissionError(caller.UserID, "", "course", "create", "only teachers can create courses")
	}

	s.logger.InfoContext(ctx, "Creating course", "teacher_id", caller.UserID, "title", req.Title)

	if errs := s.validator.GetBusinessValidator().ValidateCourseCreate(req); len(errs) > 0 {
		return nil, errs
	}

	difficulty, _ := models.ParseDifficultyLevel(req.DifficultyLevel)
	sections := buildSections(req.Sections)
	hours := estimateHours(sections)
	if req.EstimatedHours != nil {
		hours = *req.EstimatedHours
	}

	now := timeNow()
	course := &models.Course{
		TeacherID:          caller.UserID,
		Title:              strings.TrimSpace(req.Title),
		Description:        req.Description,
		DifficultyLevel:    difficulty,
		EstimatedHours:     hours,
		Category:           strings.TrimSpace(req.Category),
		Status:             models.CourseStatusDraft,
		Tags:               models.NormalizeTags(req.Tags),
		Sections:           sections,
		Prerequisites:      stringsOrEmpty(req.Prerequisites),
		LearningObjectives: stringsOrEmpty(req.LearningObjectives),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Course().Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	if err := attachTeacherNames(ctx, s.repo.User(), []*models.Course{course}); err != nil {
		s.logger.WarnContext(ctx, "Failed to resolve teacher name", "course_id", course.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "Course created successfully", "course_id", course.ID)
	publishEvent(ctx, s.publisher, s.logger, events.CourseCreated, courseEventData(course))

	return toCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, caller *models.Caller, id string, req *UpdateCourseRequest) (*CourseResponse, error) {
	s.logger.InfoContext(ctx, "Updating course", "course_id", id, "user_id", caller.UserID)

	course, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		return nil, courseLookupError(err)
	}

	if course.TeacherID != caller.UserID {
		return nil, NewPermissionError(caller.UserID, id, "course", "update", "not the course owner")
	}

	if errs := s.validator.GetBusinessValidator().ValidateCourseUpdate(req, course); len(errs) > 0 {
		return nil, errs
	}

	previous := course.Status
	now := timeNow()
	applyCoursePatch(course, req, now)

	if err := s.repo.Course().Update(ctx, course); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, s.cache, course.ID)

	if err := attachTeacherNames(ctx, s.repo.User(), []*models.Course{course}); err != nil {
		s.logger.WarnContext(ctx, "Failed to resolve teacher name", "course_id", course.ID, "error", err)
	}

	if previous != course.Status {
		s.logger.InfoContext(ctx, "Course status changed", "course_id", course.ID, "from", previous, "to", course.Status)
		switch course.Status {
		case models.CourseStatusPublished:
			publishEvent(ctx, s.publisher, s.logger, events.CoursePublished, courseEventData(course))
		case models.CourseStatusArchived:
			publishEvent(ctx, s.publisher, s.logger, events.CourseArchived, courseEventData(course))
		}
	}

	return toCourseResponse(course), nil
}

func (s *courseService) Publish(ctx context.Context, caller *models.Caller, id string) (*CourseResponse, error) {
	status := string(models.CourseStatusPublished)
	return s.Update(ctx, caller, id, &UpdateCourseRequest{Status: &status})
}

func (s *courseService) Archive(ctx context.Context, caller *models.Caller, id string) (*CourseResponse, error) {
	status := string(models.CourseStatusArchived)
	return s.Update(ctx, caller, id, &UpdateCourseRequest{Status: &status})
}

func (s *courseService) GetByID(ctx context.Context, id string) (*CourseResponse, error) {
	var course models.Course
	err := s.cache.Course.CacheOrExecute(ctx, cache.CourseKey(id), &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		c, err := s.repo.Course().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := attachTeacherNames(ctx, s.repo.User(), []*models.Course{c}); err != nil {
			return nil, err
		}
		return c, nil
	})
	if err != nil {
		return nil, courseLookupError(err)
	}

	return toCourseResponse(&course), nil
}

func (s *courseService) ListByTeacher(ctx context.Context, caller *models.Caller, filters repositories.CourseFilters) ([]*CourseResponse, error) {
	if !caller.IsTeacher() {
		return nil, NewPermissionError(caller.UserID, "", "course", "list", "only teachers can list their courses")
	}

	courses, err := s.repo.Course().ListByTeacher(ctx, caller.UserID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	if err := attachTeacherNames(ctx, s.repo.User(), courses); err != nil {
		return nil, err
	}

	responses := make([]*CourseResponse, len(courses))
	for i, c := range courses {
		responses[i] = toCourseResponse(c)
	}
	return responses, nil
}

// applyCoursePatch copies whitelisted fields from req. The request has already been validated.
func applyCoursePatch(course *models.Course, req *UpdateCourseRequest, now time.Time) {
	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.DifficultyLevel != nil {
		course.DifficultyLevel, _ = models.ParseDifficultyLevel(*req.DifficultyLevel)
	}
	if req.Category != nil {
		course.Category = strings.TrimSpace(*req.Category)
	}
	if req.Tags != nil {
		course.Tags = models.NormalizeTags(req.Tags)
	}
	if req.Prerequisites != nil {
		course.Prerequisites = req.Prerequisites
	}
	if req.LearningObjectives != nil {
		course.LearningObjectives = req.LearningObjectives
	}
	if req.Sections != nil {
		course.Sections = buildSections(req.Sections)
	}
	if req.EstimatedHours != nil {
		course.EstimatedHours = *req.EstimatedHours
	}

	if req.Status != nil {
		next, _ := models.ParseCourseStatus(*req.Status)
		// published_at is written once, on the first entry into published
		if next == models.CourseStatusPublished && course.Status != next && course.PublishedAt == nil {
			course.PublishedAt = &now
		}
		course.Status = next
	}

	course.UpdatedAt = now
}
