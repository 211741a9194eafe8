package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
	"github.com/SAP-F-2025/mentora-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateCourseRequest = validator.CourseCreateRequest
type UpdateCourseRequest = validator.CourseUpdateRequest
type SectionRequest = validator.SectionRequest

type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type UpdateInterestsRequest = validator.UpdateInterestsRequest

// CourseResponse renders a course with RFC 3339 UTC timestamps and the teacher's display name
type CourseResponse struct {
	ID                 string                 `json:"id"`
	TeacherID          string                 `json:"teacher_id"`
	TeacherName        string                 `json:"teacher_name"`
	Title              string                 `json:"title"`
	Description        string                 `json:"description"`
	DifficultyLevel    models.DifficultyLevel `json:"difficulty_level"`
	EstimatedHours     int                    `json:"estimated_hours"`
	Category           string                 `json:"category"`
	Tags               []string               `json:"tags"`
	Sections           []models.Section       `json:"sections"`
	Prerequisites      []string               `json:"prerequisites"`
	LearningObjectives []string               `json:"learning_objectives"`
	Status             models.CourseStatus    `json:"status"`
	EnrollmentCount    int                    `json:"enrollment_count"`
	CompletionCount    int                    `json:"completion_count"`
	AverageRating      float64                `json:"average_rating"`
	TotalReviews       int                    `json:"total_reviews"`
	CreatedAt          string                 `json:"created_at"`
	UpdatedAt          string                 `json:"updated_at"`
	PublishedAt        *string                `json:"published_at"`
}

type EnrollmentResponse struct {
	ID                 string   `json:"id"`
	StudentID          string   `json:"student_id"`
	CourseID           string   `json:"course_id"`
	ProgressPercentage float64  `json:"progress_percentage"`
	CompletedSections  []string `json:"completed_sections"`
	TotalSections      int      `json:"total_sections"`
	LastSectionID      *string  `json:"last_section_id"`
	EnrolledAt         string   `json:"enrolled_at"`
	LastAccessedAt     string   `json:"last_accessed_at"`
	CompletedAt        *string  `json:"completed_at"`
}

// EnrolledCourseResponse is one row of a student's course list
type EnrolledCourseResponse struct {
	CourseResponse
	ProgressPercentage float64 `json:"progress_percentage"`
	EnrolledAt         string  `json:"enrolled_at"`
	LastAccessedAt     string  `json:"last_accessed_at"`
	CompletedAt        *string `json:"completed_at"`
}

type RosterEntry struct {
	StudentID          string  `json:"student_id"`
	Username           string  `json:"username"`
	FullName           string  `json:"full_name"`
	Email              string  `json:"email"`
	ProgressPercentage float64 `json:"progress_percentage"`
	CompletedSections  int     `json:"completed_sections"`
	EnrolledAt         string  `json:"enrolled_at"`
	LastAccessedAt     string  `json:"last_accessed_at"`
	CompletedAt        *string `json:"completed_at"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token,omitempty"`
	TokenType   string       `json:"token_type,omitempty"`
	ExpiresAt   string       `json:"expires_at,omitempty"`
	User        *models.User `json:"user"`
}

type RosterExport struct {
	Filename string
	Data     []byte
}

// ===== SERVICE INTERFACES =====

type CourseService interface {
	Create(ctx context.Context, caller *models.Caller, req *CreateCourseRequest) (*CourseResponse, error)
	Update(ctx context.Context, caller *models.Caller, id string, req *UpdateCourseRequest) (*CourseResponse, error)
	Publish(ctx context.Context, caller *models.Caller, id string) (*CourseResponse, error)
	Archive(ctx context.Context, caller *models.Caller, id string) (*CourseResponse, error)
	GetByID(ctx context.Context, id string) (*CourseResponse, error)
	ListByTeacher(ctx context.Context, caller *models.Caller, filters repositories.CourseFilters) ([]*CourseResponse, error)
}

type EnrollmentService interface {
	Enroll(ctx context.Context, caller *models.Caller, courseID string) (*EnrollmentResponse, error)
	ListEnrolled(ctx context.Context, caller *models.Caller) ([]*EnrolledCourseResponse, error)
	GetProgress(ctx context.Context, caller *models.Caller, courseID string) (*EnrollmentResponse, error)
	CompleteSection(ctx context.Context, caller *models.Caller, courseID, sectionID string) (*EnrollmentResponse, error)
	ListCourseEnrollments(ctx context.Context, caller *models.Caller, courseID string) ([]*RosterEntry, error)
}

type RecommendationService interface {
	ListRecommended(ctx context.Context, caller *models.Caller) ([]*CourseResponse, error)
}

type UserService interface {
	Register(ctx context.Context, req *RegisterRequest) (*TokenResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateInterests(ctx context.Context, userID string, req *UpdateInterestsRequest) (*models.User, error)
	ListInterests(ctx context.Context) ([]*models.Interest, error)
}

type ExportService interface {
	ExportRoster(ctx context.Context, caller *models.Caller, courseID string) (*RosterExport, error)
}

// TokenIssuer signs access tokens for local logins
type TokenIssuer interface {
	Issue(user *models.User) (string, time.Time, error)
}

// ServiceManager interface for managing all services
type ServiceManager interface {
	Course() CourseService
	Enrollment() EnrollmentService
	Recommendation() RecommendationService
	User() UserService
	Export() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
