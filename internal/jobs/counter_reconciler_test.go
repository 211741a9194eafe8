package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
	"github.com/SAP-F-2025/mentora-service/internal/repositories/postgres"
)

func newTestRepository(t *testing.T) repositories.Repository {
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
	return postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedCourse(t *testing.T, repo repositories.Repository, enrolled, completed int) *models.Course {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	course := &models.Course{
		TeacherID:   uuid.NewString(),
		Title:       "Course",
		Description: "desc",
		Category:    "general",
		Status:      models.CourseStatusPublished,
		Sections:    []models.Section{{ID: "s1", Title: "One"}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, repo.Course().Create(ctx, course))

	for i := 0; i < enrolled; i++ {
		e := &models.Enrollment{
			StudentID:         uuid.NewString(),
			CourseID:          course.ID,
			EnrolledAt:        now,
			LastAccessedAt:    now,
			CompletedSections: []string{},
		}
		if i < completed {
			e.MarkSectionCompleted("s1", []string{"s1"}, now)
		}
		require.NoError(t, repo.Enrollment().Create(ctx, e))
	}
	return course
}

func TestCounterReconciler_FixesDrift(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	drifted := seedCourse(t, repo, 3, 1)
	healthy := seedCourse(t, repo, 2, 0)
	empty := seedCourse(t, repo, 0, 0)

	require.NoError(t, repo.Course().IncrementEnrollmentCount(ctx, healthy.ID, 2))
	require.NoError(t, repo.Course().IncrementEnrollmentCount(ctx, empty.ID, 4))
	require.NoError(t, repo.Course().IncrementCompletionCount(ctx, empty.ID, 4))

	reconciler := NewCounterReconciler(repo, nil, testLogger())
	corrected, err := reconciler.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, corrected)

	got, err := repo.Course().GetByID(ctx, drifted.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.EnrollmentCount)
	assert.Equal(t, 1, got.CompletionCount)

	got, err = repo.Course().GetByID(ctx, empty.ID)
	require.NoError(t, err)
	assert.Zero(t, got.EnrollmentCount)
	assert.Zero(t, got.CompletionCount)

	corrected, err = reconciler.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, corrected)
}

// hookedRepository runs afterCount once, right after the enrollment recount.
type hookedRepository struct {
	repositories.Repository
	afterCount func()
}

func (r *hookedRepository) Enrollment() repositories.EnrollmentRepository {
	return &hookedEnrollments{EnrollmentRepository: r.Repository.Enrollment(), owner: r}
}

type hookedEnrollments struct {
	repositories.EnrollmentRepository
	owner *hookedRepository
}

func (e *hookedEnrollments) CountByCourse(ctx context.Context) (map[string]repositories.CourseCounters, error) {
	counts, err := e.EnrollmentRepository.CountByCourse(ctx)
	if hook := e.owner.afterCount; hook != nil {
		e.owner.afterCount = nil
		hook()
	}
	return counts, err
}

func TestCounterReconciler_KeepsConcurrentEnrollment(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	course := seedCourse(t, repo, 1, 0)
	require.NoError(t, repo.Course().IncrementEnrollmentCount(ctx, course.ID, 3))

	hooked := &hookedRepository{Repository: repo}
	hooked.afterCount = func() {
		err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			now := time.Now().UTC()
			e := &models.Enrollment{
				StudentID:         uuid.NewString(),
				CourseID:          course.ID,
				EnrolledAt:        now,
				LastAccessedAt:    now,
				CompletedSections: []string{},
			}
			if err := tx.Enrollment().Create(ctx, e); err != nil {
				return err
			}
			return tx.Course().IncrementEnrollmentCount(ctx, course.ID, 1)
		})
		require.NoError(t, err)
	}

	reconciler := NewCounterReconciler(hooked, nil, testLogger())
	corrected, err := reconciler.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, corrected)

	got, err := repo.Course().GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.EnrollmentCount)

	corrected, err = reconciler.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, corrected)

	got, err = repo.Course().GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.EnrollmentCount)
}

func TestCounterReconciler_Start(t *testing.T) {
	reconciler := NewCounterReconciler(newTestRepository(t), nil, testLogger())

	require.NoError(t, reconciler.Start(""))
	reconciler.Stop(context.Background())

	assert.Error(t, reconciler.Start("not a schedule"))

	require.NoError(t, reconciler.Start("@every 1h"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reconciler.Stop(ctx)
}
