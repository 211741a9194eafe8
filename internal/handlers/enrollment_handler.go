package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/mentora-service/internal/services"
	"github.com/SAP-F-2025/mentora-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type EnrollmentHandler struct {
	BaseHandler
	enrollmentService services.EnrollmentService
	exportService     services.ExportService
}

func NewEnrollmentHandler(
	enrollmentService services.EnrollmentService,
	exportService services.ExportService,
	logger utils.Logger,
) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		enrollmentService: enrollmentService,
		exportService:     exportService,
	}
}

// Enroll enrolls the calling student in a published course
// @Summary Enroll in course
// @Tags enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Success 201 {object} services.EnrollmentResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /courses/{id}/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	courseID := h.parseStringIDParam(c, "id")
	if courseID == "" {
		return
	}

	enrollment, err := h.enrollmentService.Enroll(c.Request.Context(), caller, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

// ListEnrolled lists the calling student's courses with progress
// @Summary Enrolled courses
// @Tags enrollments
// @Produce json
// @Success 200 {array} services.EnrolledCourseResponse
// @Router /courses/enrolled [get]
func (h *EnrollmentHandler) ListEnrolled(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	courses, err := h.enrollmentService.ListEnrolled(c.Request.Context(), caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// GetProgress returns the calling student's progress in a course
// @Summary Course progress
// @Tags enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} services.EnrollmentResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/progress [get]
func (h *EnrollmentHandler) GetProgress(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	courseID := h.parseStringIDParam(c, "id")
	if courseID == "" {
		return
	}

	progress, err := h.enrollmentService.GetProgress(c.Request.Context(), caller, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// CompleteSection marks a section of the course as done
// @Summary Complete section
// @Tags enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Param section_id path string true "Section ID"
// @Success 200 {object} services.EnrollmentResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/sections/{section_id}/complete [post]
func (h *EnrollmentHandler) CompleteSection(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	courseID := h.parseStringIDParam(c, "id")
	if courseID == "" {
		return
	}
	sectionID := h.parseStringIDParam(c, "section_id")
	if sectionID == "" {
		return
	}

	h.LogRequest(c, "Completing section", "course_id", courseID, "section_id", sectionID)

	progress, err := h.enrollmentService.CompleteSection(c.Request.Context(), caller, courseID, sectionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// ListCourseEnrollments returns the roster of a course to its owner
// @Summary Course roster
// @Tags enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {array} services.RosterEntry
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/enrollments [get]
func (h *EnrollmentHandler) ListCourseEnrollments(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	courseID := h.parseStringIDParam(c, "id")
	if courseID == "" {
		return
	}

	roster, err := h.enrollmentService.ListCourseEnrollments(c.Request.Context(), caller, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, roster)
}

// ExportRoster downloads the roster as an Excel workbook
// @Summary Export course roster
// @Tags enrollments
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Course ID"
// @Success 200 {file} file
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/enrollments/export [get]
func (h *EnrollmentHandler) ExportRoster(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	courseID := h.parseStringIDParam(c, "id")
	if courseID == "" {
		return
	}

	export, err := h.exportService.ExportRoster(c.Request.Context(), caller, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, xlsxContentType, export.Data)
}
