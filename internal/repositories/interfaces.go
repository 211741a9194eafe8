package repositories

import (
	"github.com/SAP-F-2025/mentora-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Status   *models.CourseStatus `json:"status"`
	Category *string              `json:"category"`
}

// ===== SHARED STATISTICS STRUCTS =====

// CourseCounters holds the source-of-truth counts behind a course's denormalized counters.
type CourseCounters struct {
	Enrollments int `json:"enrollments"`
	Completions int `json:"completions"`
}
