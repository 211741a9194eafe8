package mongodb

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
)

// Collection names
const (
	usersCollection       = "users"
	coursesCollection     = "courses"
	enrollmentsCollection = "enrollments"
	interestsCollection   = "interests"
)

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	FullName     string             `bson:"full_name"`
	Role         string             `bson:"role"`
	Interests    []string           `bson:"interests"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

type sectionDocument struct {
	ID                 string `bson:"id"`
	Title              string `bson:"title"`
	Content            string `bson:"content"`
	Order              int    `bson:"order"`
	ReadingTimeMinutes int    `bson:"reading_time_minutes"`
}

// courseDocument embeds its sections by value.
type courseDocument struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	TeacherID          primitive.ObjectID `bson:"teacher_id"`
	Title              string             `bson:"title"`
	Description        string             `bson:"description"`
	DifficultyLevel    string             `bson:"difficulty_level"`
	EstimatedHours     int                `bson:"estimated_hours"`
	Category           string             `bson:"category"`
	Tags               []string           `bson:"tags"`
	Sections           []sectionDocument  `bson:"sections"`
	Prerequisites      []string           `bson:"prerequisites"`
	LearningObjectives []string           `bson:"learning_objectives"`
	Status             string             `bson:"status"`
	EnrollmentCount    int                `bson:"enrollment_count"`
	CompletionCount    int                `bson:"completion_count"`
	AverageRating      float64            `bson:"average_rating"`
	TotalReviews       int                `bson:"total_reviews"`
	CreatedAt          time.Time          `bson:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at"`
	PublishedAt        *time.Time         `bson:"published_at"`
}

type enrollmentDocument struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	StudentID          primitive.ObjectID `bson:"student_id"`
	CourseID           primitive.ObjectID `bson:"course_id"`
	EnrolledAt         time.Time          `bson:"enrolled_at"`
	LastAccessedAt     time.Time          `bson:"last_accessed_at"`
	ProgressPercentage float64            `bson:"progress_percentage"`
	CompletedSections  []string           `bson:"completed_sections"`
	LastSectionID      *string            `bson:"last_section_id"`
	CompletedAt        *time.Time         `bson:"completed_at"`
}

type interestDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	CreatedAt time.Time          `bson:"created_at"`
}

// objectID parses a hex identifier, reporting malformed input as ErrInvalidID.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", repositories.ErrInvalidID, id)
	}
	return oid, nil
}

// objectIDs drops malformed identifiers from a batch lookup.
func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
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
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, repositories.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func newUserDocument(u *models.User) userDocument {
	return userDocument{
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FullName:     u.FullName,
		Role:         string(u.Role),
		Interests:    emptyIfNil(u.Interests),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDocument) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FullName:     d.FullName,
		Role:         models.UserRole(d.Role),
		Interests:    datatypes.JSONSlice[string](d.Interests),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func newCourseDocument(c *models.Course) (courseDocument, error) {
	teacherID, err := objectID(c.TeacherID)
	if err != nil {
		return courseDocument{}, err
	}

	sections := make([]sectionDocument, 0, len(c.Sections))
	for _, s := range c.Sections {
		sections = append(sections, sectionDocument(s))
	}

	return courseDocument{
		TeacherID:          teacherID,
		Title:              c.Title,
		Description:        c.Description,
		DifficultyLevel:    string(c.DifficultyLevel),
		EstimatedHours:     c.EstimatedHours,
		Category:           c.Category,
		Tags:               emptyIfNil(c.Tags),
		Sections:           sections,
		Prerequisites:      emptyIfNil(c.Prerequisites),
		LearningObjectives: emptyIfNil(c.LearningObjectives),
		Status:             string(c.Status),
		EnrollmentCount:    c.EnrollmentCount,
		CompletionCount:    c.CompletionCount,
		AverageRating:      c.AverageRating,
		TotalReviews:       c.TotalReviews,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
		PublishedAt:        c.PublishedAt,
	}, nil
}

func (d courseDocument) toModel() *models.Course {
	sections := make([]models.Section, 0, len(d.Sections))
	for _, s := range d.Sections {
		sections = append(sections, models.Section(s))
	}

	return &models.Course{
		ID:                 d.ID.Hex(),
		TeacherID:          d.TeacherID.Hex(),
		Title:              d.Title,
		Description:        d.Description,
		DifficultyLevel:    models.DifficultyLevel(d.DifficultyLevel),
		EstimatedHours:     d.EstimatedHours,
		Category:           d.Category,
		Tags:               d.Tags,
		Sections:           sections,
		Prerequisites:      d.Prerequisites,
		LearningObjectives: d.LearningObjectives,
		Status:             models.CourseStatus(d.Status),
		EnrollmentCount:    d.EnrollmentCount,
		CompletionCount:    d.CompletionCount,
		AverageRating:      d.AverageRating,
		TotalReviews:       d.TotalReviews,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
		PublishedAt:        d.PublishedAt,
	}
}

func newEnrollmentDocument(e *models.Enrollment) (enrollmentDocument, error) {
	studentID, err := objectID(e.StudentID)
	if err != nil {
		return enrollmentDocument{}, err
	}
	courseID, err := objectID(e.CourseID)
	if err != nil {
		return enrollmentDocument{}, err
	}

	return enrollmentDocument{
		StudentID:          studentID,
		CourseID:           courseID,
		EnrolledAt:         e.EnrolledAt,
		LastAccessedAt:     e.LastAccessedAt,
		ProgressPercentage: e.ProgressPercentage,
		CompletedSections:  emptyIfNil(e.CompletedSections),
		LastSectionID:      e.LastSectionID,
		CompletedAt:        e.CompletedAt,
	}, nil
}

func (d enrollmentDocument) toModel() *models.Enrollment {
	return &models.Enrollment{
		ID:                 d.ID.Hex(),
		StudentID:          d.StudentID.Hex(),
		CourseID:           d.CourseID.Hex(),
		EnrolledAt:         d.EnrolledAt,
		LastAccessedAt:     d.LastAccessedAt,
		ProgressPercentage: d.ProgressPercentage,
		CompletedSections:  d.CompletedSections,
		LastSectionID:      d.LastSectionID,
		CompletedAt:        d.CompletedAt,
	}
}
