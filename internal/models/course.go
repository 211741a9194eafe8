package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
	CourseStatusArchived  CourseStatus = "archived"
)

// ParseCourseStatus lower-cases the input and reports whether it names a known status.
func ParseCourseStatus(s string) (CourseStatus, bool) {
	switch st := CourseStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case CourseStatusDraft, CourseStatusPublished, CourseStatusArchived:
		return st, true
	default:
		return "", false
	}
}

// CanTransitionTo reports whether a course in status s may move to next.
// Staying in the same status is always allowed. A course never returns to draft.
func (s CourseStatus) CanTransitionTo(next CourseStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case CourseStatusDraft:
		return next == CourseStatusPublished || next == CourseStatusArchived
	case CourseStatusPublished:
		return next == CourseStatusArchived
	case CourseStatusArchived:
		return next == CourseStatusPublished
	default:
		return false
	}
}

type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "beginner"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyAdvanced     DifficultyLevel = "advanced"
)

// ParseDifficultyLevel lower-cases the input; an empty value means beginner.
func ParseDifficultyLevel(s string) (DifficultyLevel, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DifficultyBeginner, true
	}
	switch d := DifficultyLevel(s); d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return d, true
	default:
		return "", false
	}
}

// Section is owned by its course and stored inline with it.
type Section struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Content            string `json:"content"`
	Order              int    `json:"order"`
	ReadingTimeMinutes int    `json:"reading_time_minutes"`
}

type Course struct {
	ID              string          `json:"id" gorm:"primaryKey;size:64"`
	TeacherID       string          `json:"teacher_id" gorm:"not null;index;size:64"`
	Title           string          `json:"title" gorm:"not null;size:200"`
	Description     string          `json:"description" gorm:"type:text;not null"`
	DifficultyLevel DifficultyLevel `json:"difficulty_level" gorm:"not null;size:20;default:beginner"`
	EstimatedHours  int             `json:"estimated_hours" gorm:"not null;default:1"`
	Category        string          `json:"category" gorm:"not null;size:100;index"`
	Status          CourseStatus    `json:"status" gorm:"not null;size:20;default:draft;index"`

	Tags               datatypes.JSONSlice[string]  `json:"tags" gorm:"type:json"`
	Sections           datatypes.JSONSlice[Section] `json:"sections" gorm:"type:json"`
	Prerequisites      datatypes.JSONSlice[string]  `json:"prerequisites" gorm:"type:json"`
	LearningObjectives datatypes.JSONSlice[string]  `json:"learning_objectives" gorm:"type:json"`

	// Denormalized counters
	EnrollmentCount int `json:"enrollment_count" gorm:"not null;default:0;index"`
	CompletionCount int `json:"completion_count" gorm:"not null;default:0"`

	// Rating aggregate
	AverageRating float64 `json:"average_rating" gorm:"not null;default:0"`
	TotalReviews  int     `json:"total_reviews" gorm:"not null;default:0"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at"`

	// Computed fields (not stored)
	TeacherName string `json:"teacher_name,omitempty" gorm:"-"`
}

func (Course) TableName() string {
	return "courses"
}

// IsPublished reports whether students may discover and enroll in the course.
func (c *Course) IsPublished() bool {
	return c.Status == CourseStatusPublished
}

// FindSection returns the section with the given id, or nil.
func (c *Course) FindSection(id string) *Section {
	for i := range c.Sections {
		if c.Sections[i].ID == id {
			return &c.Sections[i]
		}
	}
	return nil
}

// SectionIDs lists section ids in order.
func (c *Course) SectionIDs() []string {
	ids := make([]string, 0, len(c.Sections))
	for _, s := range c.Sections {
		ids = append(ids, s.ID)
	}
	return ids
}

// CourseTag indexes course tags for overlap queries on relational stores.
type CourseTag struct {
	CourseID string `gorm:"primaryKey;size:64"`
	Tag      string `gorm:"primaryKey;size:100;index"`
}

func (CourseTag) TableName() string {
	return "course_tags"
}
