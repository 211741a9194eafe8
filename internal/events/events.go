package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "mentora-service"
	EventVersion = "1.0"
)

type EventType string

const (
	CourseCreated       EventType = "course.created"
	CoursePublished     EventType = "course.published"
	CourseArchived      EventType = "course.archived"
	EnrollmentCreated   EventType = "enrollment.created"
	EnrollmentCompleted EventType = "enrollment.completed"
)

// Event is the envelope written to the broker; the topic is the event type.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent stamps a fresh envelope around data
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type CourseEventData struct {
	CourseID  string `json:"course_id"`
	TeacherID string `json:"teacher_id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
}

type EnrollmentEventData struct {
	EnrollmentID string  `json:"enrollment_id"`
	CourseID     string  `json:"course_id"`
	StudentID    string  `json:"student_id"`
	Progress     float64 `json:"progress_percentage"`
}

// EventPublisher delivers domain events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
