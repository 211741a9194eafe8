package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/services"
	"github.com/SAP-F-2025/mentora-service/internal/utils"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"errors,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs at debug level through the request-scoped logger
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Debug(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Error(msg, append(args, "error", err)...)
}

// caller returns the authenticated caller or writes 401
func (h *BaseHandler) caller(c *gin.Context) (*models.Caller, bool) {
	caller, err := GetCallerFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return nil, false
	}
	return caller, true
}

func (h *BaseHandler) parseStringIDParam(c *gin.Context, param string) string {
	id := strings.TrimSpace(c.Param(param))
	if id == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return id
}

func (h *BaseHandler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	return true
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrCourseNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Course not found"})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "User not found"})
	case errors.Is(err, services.ErrEnrollmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Enrollment not found"})
	case errors.Is(err, services.ErrSectionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Section not found"})
	case errors.Is(err, services.ErrInvalidID):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid identifier"})
	case errors.Is(err, services.ErrAlreadyEnrolled):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Already enrolled in this course"})
	case errors.Is(err, services.ErrUsernameTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Username already taken"})
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Email already registered"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid credentials"})
	case errors.Is(err, services.ErrLocalAuthDisabled):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Local authentication is disabled"})
	default:
		h.LogError(c, err, "Unhandled service error", "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
