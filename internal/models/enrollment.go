package models

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

type Enrollment struct {
	ID        string `json:"id" gorm:"primaryKey;size:64"`
	StudentID string `json:"student_id" gorm:"not null;size:64;uniqueIndex:idx_enrollment_student_course"`
	CourseID  string `json:"course_id" gorm:"not null;size:64;uniqueIndex:idx_enrollment_student_course;index"`

	EnrolledAt     time.Time `json:"enrolled_at" gorm:"not null"`
	LastAccessedAt time.Time `json:"last_accessed_at" gorm:"not null"`

	// Progress
	ProgressPercentage float64                     `json:"progress_percentage" gorm:"not null;default:0"`
	CompletedSections  datatypes.JSONSlice[string] `json:"completed_sections" gorm:"type:json"`
	LastSectionID      *string                     `json:"last_section_id" gorm:"size:64"`
	CompletedAt        *time.Time                  `json:"completed_at"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// MarkSectionCompleted records sectionID and recomputes progress against the course's
// current sections. Completed ids no longer in sectionIDs are dropped.
// It returns true when the call moved the enrollment into the completed state.
func (e *Enrollment) MarkSectionCompleted(sectionID string, sectionIDs []string, now time.Time) bool {
	current := make(map[string]struct{}, len(sectionIDs))
	for _, id := range sectionIDs {
		current[id] = struct{}{}
	}

	kept := make([]string, 0, len(e.CompletedSections)+1)
	found := false
	for _, id := range e.CompletedSections {
		if _, ok := current[id]; !ok {
			continue
		}
		if id == sectionID {
			found = true
		}
		kept = append(kept, id)
	}
	if _, ok := current[sectionID]; ok && !found {
		kept = append(kept, sectionID)
	}
	e.CompletedSections = kept
	e.LastSectionID = &sectionID
	e.LastAccessedAt = now
	e.ProgressPercentage = ComputeProgress(len(e.CompletedSections), len(sectionIDs))

	if e.CompletedAt == nil && e.ProgressPercentage >= 100 {
		e.CompletedAt = &now
		return true
	}
	return false
}

// ComputeProgress is completed/total as a percentage rounded to two decimals, capped at 100.
func ComputeProgress(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	p := float64(completed) * 100 / float64(total)
	if p > 100 {
		p = 100
	}
	return math.Round(p*100) / 100
}
