package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/mentora-service/internal/auth"
	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
	"github.com/SAP-F-2025/mentora-service/internal/services"
	"github.com/SAP-F-2025/mentora-service/internal/utils"
	"github.com/SAP-F-2025/mentora-service/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── Mock services ──

type mockCourseService struct {
	course      *services.CourseResponse
	courses     []*services.CourseResponse
	err         error
	lastFilters repositories.CourseFilters
	lastCaller  *models.Caller
}

func (m *mockCourseService) Create(_ context.Context, caller *models.Caller, _ *services.CreateCourseRequest) (*services.CourseResponse, error) {
	m.lastCaller = caller
	return m.course, m.err
}
func (m *mockCourseService) Update(_ context.Context, _ *models.Caller, _ string, _ *services.UpdateCourseRequest) (*services.CourseResponse, error) {
	return m.course, m.err
}
func (m *mockCourseService) Publish(_ context.Context, _ *models.Caller, _ string) (*services.CourseResponse, error) {
	return m.course, m.err
}
func (m *mockCourseService) Archive(_ context.Context, _ *models.Caller, _ string) (*services.CourseResponse, error) {
	return m.course, m.err
}
func (m *mockCourseService) GetByID(_ context.Context, _ string) (*services.CourseResponse, error) {
	return m.course, m.err
}
func (m *mockCourseService) ListByTeacher(_ context.Context, _ *models.Caller, filters repositories.CourseFilters) ([]*services.CourseResponse, error) {
	m.lastFilters = filters
	return m.courses, m.err
}

type mockEnrollmentService struct {
	enrollment *services.EnrollmentResponse
	enrolled   []*services.EnrolledCourseResponse
	roster     []*services.RosterEntry
	err        error
}

func (m *mockEnrollmentService) Enroll(_ context.Context, _ *models.Caller, _ string) (*services.EnrollmentResponse, error) {
	return m.enrollment, m.err
}
func (m *mockEnrollmentService) ListEnrolled(_ context.Context, _ *models.Caller) ([]*services.EnrolledCourseResponse, error) {
	return m.enrolled, m.err
}
func (m *mockEnrollmentService) GetProgress(_ context.Context, _ *models.Caller, _ string) (*services.EnrollmentResponse, error) {
	return m.enrollment, m.err
}
func (m *mockEnrollmentService) CompleteSection(_ context.Context, _ *models.Caller, _, _ string) (*services.EnrollmentResponse, error) {
	return m.enrollment, m.err
}
func (m *mockEnrollmentService) ListCourseEnrollments(_ context.Context, _ *models.Caller, _ string) ([]*services.RosterEntry, error) {
	return m.roster, m.err
}

type mockRecommendationService struct {
	courses []*services.CourseResponse
	err     error
}

func (m *mockRecommendationService) ListRecommended(_ context.Context, _ *models.Caller) ([]*services.CourseResponse, error) {
	return m.courses, m.err
}

type mockUserService struct {
	token     *services.TokenResponse
	user      *models.User
	interests []*models.Interest
	err       error
}

func (m *mockUserService) Register(_ context.Context, _ *services.RegisterRequest) (*services.TokenResponse, error) {
	return m.token, m.err
}
func (m *mockUserService) Login(_ context.Context, _ *services.LoginRequest) (*services.TokenResponse, error) {
	return m.token, m.err
}
func (m *mockUserService) GetProfile(_ context.Context, _ string) (*models.User, error) {
	return m.user, m.err
}
func (m *mockUserService) UpdateInterests(_ context.Context, _ string, _ *services.UpdateInterestsRequest) (*models.User, error) {
	return m.user, m.err
}
func (m *mockUserService) ListInterests(_ context.Context) ([]*models.Interest, error) {
	return m.interests, m.err
}

type mockExportService struct {
	export *services.RosterExport
	err    error
}

func (m *mockExportService) ExportRoster(_ context.Context, _ *models.Caller, _ string) (*services.RosterExport, error) {
	return m.export, m.err
}

type mockServiceManager struct {
	course         *mockCourseService
	enrollment     *mockEnrollmentService
	recommendation *mockRecommendationService
	user           *mockUserService
	export         *mockExportService
	healthErr      error
}

func newMockServiceManager() *mockServiceManager {
	return &mockServiceManager{
		course:         &mockCourseService{},
		enrollment:     &mockEnrollmentService{},
		recommendation: &mockRecommendationService{},
		user:           &mockUserService{},
		export:         &mockExportService{},
	}
}

func (m *mockServiceManager) Course() services.CourseService                 { return m.course }
func (m *mockServiceManager) Enrollment() services.EnrollmentService         { return m.enrollment }
func (m *mockServiceManager) Recommendation() services.RecommendationService { return m.recommendation }
func (m *mockServiceManager) User() services.UserService                     { return m.user }
func (m *mockServiceManager) Export() services.ExportService                 { return m.export }
func (m *mockServiceManager) Initialize(context.Context) error               { return nil }
func (m *mockServiceManager) HealthCheck(context.Context) error              { return m.healthErr }
func (m *mockServiceManager) Shutdown(context.Context) error                 { return nil }

// ── Test identity ──

type tokenResolver map[string]*models.Caller

func (r tokenResolver) Resolve(_ context.Context, token string) (*models.Caller, error) {
	if token == "broken-store" {
		return nil, errors.New("store unavailable")
	}
	caller, ok := r[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return caller, nil
}

var (
	teacherCaller = &models.Caller{UserID: "teacher-1", Role: models.RoleTeacher, FullName: "Tess"}
	studentCaller = &models.Caller{UserID: "student-1", Role: models.RoleStudent, FullName: "Stu"}
	testResolver  = tokenResolver{"teacher-token": teacherCaller, "student-token": studentCaller}
)

func newTestRouter(sm services.ServiceManager, localAuth bool) *gin.Engine {
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := gin.New()
	SetupMiddleware(router, logger, MiddlewareConfig{AllowedOrigins: []string{"https://app.example.com"}, RequestTimeout: time.Second})
	NewHandlerManager(sm, testResolver, localAuth, logger).SetupRoutes(router)
	return router
}

func doRequest(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// ═══════════════════════════════════════════════════════════
// Authentication and roles
// ═══════════════════════════════════════════════════════════

func TestAuth_MissingOrInvalidToken(t *testing.T) {
	router := newTestRouter(newMockServiceManager(), true)

	w := doRequest(router, http.MethodGet, "/api/v1/courses/enrolled", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/courses/enrolled", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token", decodeError(t, w)["message"])

	w = doRequest(router, http.MethodGet, "/api/v1/courses/enrolled", "broken-store", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuth_RoleGates(t *testing.T) {
	sm := newMockServiceManager()
	sm.enrollment.enrolled = []*services.EnrolledCourseResponse{}
	sm.course.courses = []*services.CourseResponse{}
	router := newTestRouter(sm, true)

	w := doRequest(router, http.MethodGet, "/api/v1/courses/enrolled", "teacher-token", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/courses", "student-token", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/courses/enrolled", "student-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestAuthRoutes_MountedOnlyForLocalAuth(t *testing.T) {
	sm := newMockServiceManager()
	sm.user.token = &services.TokenResponse{AccessToken: "tok", TokenType: "Bearer", User: &models.User{ID: "u1"}}
	login := map[string]string{"login": "ada", "password": "secret-pass"}

	w := doRequest(newTestRouter(sm, true), http.MethodPost, "/api/v1/auth/login", "", login)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(newTestRouter(sm, false), http.MethodPost, "/api/v1/auth/login", "", login)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ═══════════════════════════════════════════════════════════
// Courses
// ═══════════════════════════════════════════════════════════

func TestCreateCourse(t *testing.T) {
	sm := newMockServiceManager()
	sm.course.course = &services.CourseResponse{ID: "c1", Status: models.CourseStatusDraft}
	router := newTestRouter(sm, true)

	w := doRequest(router, http.MethodPost, "/api/v1/courses", "teacher-token", map[string]interface{}{"title": "Go"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, teacherCaller, sm.course.lastCaller)

	var got services.CourseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "c1", got.ID)
}

func TestCreateCourse_MalformedBody(t *testing.T) {
	router := newTestRouter(newMockServiceManager(), true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer teacher-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request payload", decodeError(t, w)["message"])
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", validator.NewFieldError("title", "is required", "", "required"), http.StatusBadRequest, "Validation failed"},
		{"permission", services.NewPermissionError("teacher-1", "c1", "course", "update", "not the course owner"), http.StatusForbidden, "Access denied"},
		{"not found", services.ErrCourseNotFound, http.StatusNotFound, "Course not found"},
		{"wrapped not found", errors.Join(errors.New("ctx"), services.ErrCourseNotFound), http.StatusNotFound, "Course not found"},
		{"invalid id", services.ErrInvalidID, http.StatusBadRequest, "Invalid identifier"},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := newMockServiceManager()
			sm.course.err = tt.err
			router := newTestRouter(sm, true)

			w := doRequest(router, http.MethodPut, "/api/v1/courses/c1", "teacher-token", map[string]interface{}{"title": "x"})
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, decodeError(t, w)["message"])
		})
	}
}

func TestValidationErrorBody(t *testing.T) {
	sm := newMockServiceManager()
	sm.course.err = validator.NewFieldError("status", "cannot transition from published to draft", "draft", "status_transition")
	router := newTestRouter(sm, true)

	w := doRequest(router, http.MethodPut, "/api/v1/courses/c1", "teacher-token", map[string]interface{}{"status": "draft"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeError(t, w)
	details, ok := body["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, "status", details[0].(map[string]interface{})["field"])
}

func TestListCourses_Filters(t *testing.T) {
	sm := newMockServiceManager()
	sm.course.courses = []*services.CourseResponse{{ID: "c1"}}
	router := newTestRouter(sm, true)

	w := doRequest(router, http.MethodGet, "/api/v1/courses?status=Published&category=math", "teacher-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, sm.course.lastFilters.Status)
	assert.Equal(t, models.CourseStatusPublished, *sm.course.lastFilters.Status)
	require.NotNil(t, sm.course.lastFilters.Category)
	assert.Equal(t, "math", *sm.course.lastFilters.Category)

	w = doRequest(router, http.MethodGet, "/api/v1/courses?status=deleted", "teacher-token", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCourse_AnyAuthenticatedCaller(t *testing.T) {
	sm := newMockServiceManager()
	sm.course.course = &services.CourseResponse{ID: "c1"}
	router := newTestRouter(sm, true)

	for _, token := range []string{"teacher-token", "student-token"} {
		w := doRequest(router, http.MethodGet, "/api/v1/courses/c1", token, nil)
		assert.Equal(t, http.StatusOK, w.Code, token)
	}
}

func TestPublishAndArchive(t *testing.T) {
	sm := newMockServiceManager()
	sm.course.course = &services.CourseResponse{ID: "c1", Status: models.CourseStatusPublished}
	router := newTestRouter(sm, true)

	w := doRequest(router, http.MethodPost, "/api/v1/courses/c1/publish", "teacher-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/courses/c1/archive", "student-token", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListRecommended(t *testing.T) {
	sm := newMockServiceManager()
	sm.recommendation.courses = []*services.CourseResponse{{ID: "c1"}, {ID: "c2"}}
	router := newTestRouter(sm, true)

	w := doRequest(router, http.MethodGet, "/api/v1/courses/recommended", "student-token", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got []services.CourseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}

// ═══════════════════════════════════════════════════════════
// Enrollments
// ═══════════════════════════════════════════════════════════

func TestEnroll(t *testing.T) {
	sm := newMockServiceManager()
	sm.enrollment.enrollment = &services.EnrollmentResponse{ID: "e1", CourseID: "c1", CompletedSections: []string{}}
	router := newTestRouter(sm, true)

	w := doRequest(router, http.MethodPost, "/api/v1/courses/c1/enroll", "student-token", nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	sm.enrollment.err = services.ErrAlreadyEnrolled
	w = doRequest(router, http.MethodPost, "/api/v1/courses/c1/enroll", "student-token", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/courses/c1/enroll", "teacher-token", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCompleteSection_NotFound(t *testing.T) {
	sm := newMockServiceManager()
	sm.enrollment.err = services.ErrSectionNotFound
	router := newTestRouter(sm, true)

	w := doRequest(router, http.MethodPost, "/api/v1/courses/c1/sections/s9/complete", "student-token", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Section not found", decodeError(t, w)["message"])
}

func TestExportRoster(t *testing.T) {
	sm := newMockServiceManager()
	sm.export.export = &services.RosterExport{Filename: "roster_c1.xlsx", Data: []byte("PK")}
	router := newTestRouter(sm, true)

	w := doRequest(router, http.MethodGet, "/api/v1/courses/c1/enrollments/export", "teacher-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "roster_c1.xlsx")
	assert.Equal(t, "PK", w.Body.String())
}

// ═══════════════════════════════════════════════════════════
// Users, health and middleware
// ═══════════════════════════════════════════════════════════

func TestRegister_Conflict(t *testing.T) {
	sm := newMockServiceManager()
	sm.user.err = services.ErrUsernameTaken
	router := newTestRouter(sm, true)

	w := doRequest(router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "ada"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetMe(t *testing.T) {
	sm := newMockServiceManager()
	sm.user.user = &models.User{ID: "student-1", Username: "stu", PasswordHash: "hidden", Role: models.RoleStudent}
	router := newTestRouter(sm, true)

	w := doRequest(router, http.MethodGet, "/api/v1/users/me", "student-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "hidden")
}

func TestHealth(t *testing.T) {
	sm := newMockServiceManager()
	router := newTestRouter(sm, true)

	w := doRequest(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	sm.healthErr = errors.New("db down")
	w = doRequest(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCORS(t *testing.T) {
	router := newTestRouter(newMockServiceManager(), true)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/courses", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
