package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/SAP-F-2025/mentora-service/internal/auth"
	"github.com/SAP-F-2025/mentora-service/internal/cache"
	"github.com/SAP-F-2025/mentora-service/internal/events"
	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
	"github.com/SAP-F-2025/mentora-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/mentora-service/internal/validator"
)

type testEnv struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	redis     *miniredis.Miniredis
	publisher *events.MockEventPublisher
	tokens    *auth.TokenManager
	logger    *slog.Logger

	courses        CourseService
	enrollments    EnrollmentService
	recommendation RecommendationService
	users          UserService
	export         ExportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, postgres.Migrate(db))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db, RedisClient: client})
	cm := cache.NewCacheManager(client)
	publisher := events.NewMockEventPublisher(logger)
	tokens := auth.NewTokenManager("test-secret-0123456789", "mentora-test", time.Hour)
	v := validator.New()

	enrollments := NewEnrollmentService(repo, cm, publisher, logger)
	return &testEnv{
		repo:           repo,
		cache:          cm,
		redis:          mr,
		publisher:      publisher,
		tokens:         tokens,
		logger:         logger,
		courses:        NewCourseService(repo, cm, publisher, logger, v),
		enrollments:    enrollments,
		recommendation: NewRecommendationService(repo, logger),
		users:          NewUserService(repo, cm, tokens, logger, v),
		export:         NewExportService(enrollments, logger),
	}
}

// newUser stores a user directly and returns its caller identity
func (e *testEnv) newUser(t *testing.T, role models.UserRole, interests ...string) *models.Caller {
	t.Helper()
	name := uuid.NewString()[:8]
	user := &models.User{
		Username:  "u" + name,
		Email:     name + "@example.com",
		FullName:  "User " + name,
		Role:      role,
		Interests: interests,
	}
	require.NoError(t, e.repo.User().Create(context.Background(), user))
	return &models.Caller{UserID: user.ID, Role: role, FullName: user.FullName}
}

func courseRequest(title string, tags []string, sections ...string) *CreateCourseRequest {
	req := &CreateCourseRequest{
		Title:              title,
		Description:        "A course about " + title,
		Category:           "programming",
		Tags:               tags,
		Prerequisites:      []string{},
		LearningObjectives: []string{"learn " + title},
	}
	for _, s := range sections {
		req.Sections = append(req.Sections, SectionRequest{Title: s, Content: s + " content", ReadingTimeMinutes: 30})
	}
	return req
}

// publishedCourse creates and publishes a course owned by teacher
func (e *testEnv) publishedCourse(t *testing.T, teacher *models.Caller, title string, tags []string, sections ...string) *CourseResponse {
	t.Helper()
	ctx := context.Background()
	created, err := e.courses.Create(ctx, teacher, courseRequest(title, tags, sections...))
	require.NoError(t, err)
	published, err := e.courses.Publish(ctx, teacher, created.ID)
	require.NoError(t, err)
	return published
}
