package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
)

// RecommendationLimit is the size of a full recommendation list
const RecommendationLimit = 10

type recommendationService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewRecommendationService(repo repositories.Repository, logger *slog.Logger) RecommendationService {
	return &recommendationService{repo: repo, logger: logger}
}

// ListRecommended returns published courses matching the student's interests,
// topped up with the most enrolled published courses until the list is full.
func (s *recommendationService) ListRecommended(ctx context.Context, caller *models.Caller) ([]*CourseResponse, error) {
	if !caller.IsStudent() {
		return nil, NewPermissionError(caller.UserID, "", "course", "recommend", "recommendations are for students")
	}

	student, err := s.repo.User().GetByID(ctx, caller.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) || repositories.IsInvalidIDError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	courses := make([]*models.Course, 0, RecommendationLimit)
	seen := make(map[string]struct{}, RecommendationLimit)
	add := func(list []*models.Course) {
		for _, c := range list {
			if len(courses) == RecommendationLimit {
				return
			}
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			courses = append(courses, c)
		}
	}

	interests := models.NormalizeTags(student.Interests)
	if len(interests) > 0 {
		matched, err := s.repo.Course().ListPublishedByTags(ctx, interests, RecommendationLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list courses by interest: %w", err)
		}
		add(matched)
	}

	if missing := RecommendationLimit - len(courses); missing > 0 {
		exclude := make([]string, 0, len(courses))
		for _, c := range courses {
			exclude = append(exclude, c.ID)
		}
		popular, err := s.repo.Course().ListPopularPublished(ctx, exclude, missing)
		if err != nil {
			return nil, fmt.Errorf("failed to list popular courses: %w", err)
		}
		add(popular)
	}

	if err := attachTeacherNames(ctx, s.repo.User(), courses); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "Recommendations built", "student_id", student.ID, "interests", len(interests), "count", len(courses))

	responses := make([]*CourseResponse, len(courses))
	for i, c := range courses {
		responses[i] = toCourseResponse(c)
	}
	return responses, nil
}
