package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
	"github.com/SAP-F-2025/mentora-service/internal/services"
	"github.com/SAP-F-2025/mentora-service/internal/utils"
	"github.com/SAP-F-2025/mentora-service/internal/validator"
)

type CourseHandler struct {
	BaseHandler
	courseService         services.CourseService
	recommendationService services.RecommendationService
}

func NewCourseHandler(
	courseService services.CourseService,
	recommendationService services.RecommendationService,
	logger utils.Logger,
) *CourseHandler {
	return &CourseHandler{
		BaseHandler:           NewBaseHandler(logger),
		courseService:         courseService,
		recommendationService: recommendationService,
	}
}

// CreateCourse creates a new draft course
// @Summary Create course
// @Tags courses
// @Accept json
// @Produce json
// @Param course body services.CreateCourseRequest true "Course data"
// @Success 201 {object} services.CourseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	var req services.CreateCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// GetCourse retrieves a course by ID
// @Summary Get course
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} services.CourseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id := h.parseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Getting course", "course_id", id)

	course, err := h.courseService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// UpdateCourse applies a partial update, including status changes
// @Summary Update course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param course body services.UpdateCourseRequest true "Fields to change"
// @Success 200 {object} services.CourseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [put]
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := h.parseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req services.UpdateCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	course, err := h.courseService.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// PublishCourse moves a course to published
// @Summary Publish course
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} services.CourseResponse
// @Router /courses/{id}/publish [post]
func (h *CourseHandler) PublishCourse(c *gin.Context) {
	h.changeStatus(c, h.courseService.Publish)
}

// ArchiveCourse moves a course to archived
// @Summary Archive course
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} services.CourseResponse
// @Router /courses/{id}/archive [post]
func (h *CourseHandler) ArchiveCourse(c *gin.Context) {
	h.changeStatus(c, h.courseService.Archive)
}

type statusChange func(ctx context.Context, caller *models.Caller, id string) (*services.CourseResponse, error)

func (h *CourseHandler) changeStatus(c *gin.Context, change statusChange) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := h.parseStringIDParam(c, "id")
	if id == "" {
		return
	}

	course, err := change(c.Request.Context(), caller, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// ListCourses lists the caller's own courses, newest first
// @Summary List own courses
// @Tags courses
// @Produce json
// @Param status query string false "draft, published or archived"
// @Param category query string false "Exact category"
// @Success 200 {array} services.CourseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	var filters repositories.CourseFilters
	if raw := c.Query("status"); raw != "" {
		status, valid := models.ParseCourseStatus(raw)
		if !valid {
			h.handleServiceError(c, validator.NewFieldError("status", "must be one of draft, published, archived", raw, "course_status"))
			return
		}
		filters.Status = &status
	}
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		filters.Category = &category
	}

	courses, err := h.courseService.ListByTeacher(c.Request.Context(), caller, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// ListRecommended returns up to ten published courses for the calling student
// @Summary Recommended courses
// @Tags courses
// @Produce json
// @Success 200 {array} services.CourseResponse
// @Failure 403 {object} ErrorResponse
// @Router /courses/recommended [get]
func (h *CourseHandler) ListRecommended(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	courses, err := h.recommendationService.ListRecommended(c.Request.Context(), caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}
