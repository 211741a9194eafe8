package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/mentora-service/internal/validator"
)

var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrSectionNotFound    = errors.New("section not found")
	ErrAlreadyEnrolled    = errors.New("student is already enrolled in this course")
	ErrInvalidID          = errors.New("invalid identifier")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrLocalAuthDisabled  = errors.New("password login is not enabled")
)

type ValidationErrors = validator.ValidationErrors

// PermissionError is returned when an authenticated caller may not perform an action
type PermissionError struct {
	UserID     string
	ResourceID string
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
