package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/SAP-F-2025/mentora-service/internal/cache"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
)

// CounterReconciler repairs course enrollment and completion counters from the enrollment records.
// Counters drift only when a backend runs without transactions.
type CounterReconciler struct {
	repo    repositories.Repository
	cache   *cache.CacheManager
	logger  *slog.Logger
	timeout time.Duration

	cron *cron.Cron
}

func NewCounterReconciler(repo repositories.Repository, cm *cache.CacheManager, logger *slog.Logger) *CounterReconciler {
	if cm == nil {
		cm = cache.NewCacheManager(nil)
	}
	return &CounterReconciler{
		repo:    repo,
		cache:   cm,
		logger:  logger.With("job", "counter_reconciler"),
		timeout: 2 * time.Minute,
	}
}

// Start schedules the job with a standard five field cron expression.
// An empty schedule leaves the job disabled.
func (r *CounterReconciler) Start(schedule string) error {
	if schedule == "" {
		r.logger.Info("Counter reconciliation disabled")
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, r.run); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	c.Start()
	r.cron = c

	r.logger.Info("Counter reconciliation scheduled", "schedule", schedule)
	return nil
}

// Stop waits for a running pass to finish or ctx to expire
func (r *CounterReconciler) Stop(ctx context.Context) {
	if r.cron == nil {
		return
	}
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (r *CounterReconciler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if _, err := r.Reconcile(ctx); err != nil {
		r.logger.Error("Counter reconciliation failed", "error", err)
	}
}

// Reconcile compares every course's counters with a recount and rewrites the ones that drifted.
// It returns the number of corrected courses.
func (r *CounterReconciler) Reconcile(ctx context.Context) (int, error) {
	stored, err := r.repo.Course().ListCounters(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list course counters: %w", err)
	}

	actual, err := r.repo.Enrollment().CountByCourse(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	corrected := 0
	for courseID, current := range stored {
		// Courses with no enrollments are absent from the recount
		want := actual[courseID]
		if want == current {
			continue
		}

		// An enrollment committed since the read moves the counter and the write is skipped
		updated, err := r.repo.Course().SetCounters(ctx, courseID, current, want)
		if err != nil {
			return corrected, fmt.Errorf("failed to correct counters of course %s: %w", courseID, err)
		}
		if !updated {
			r.logger.Debug("Course counters changed during reconciliation, skipped", "course_id", courseID)
			continue
		}
		cache.InvalidateCourseCache(ctx, r.cache, courseID)

		r.logger.Warn("Course counters corrected",
			"course_id", courseID,
			"enrollment_count", current.Enrollments,
			"expected_enrollments", want.Enrollments,
			"completion_count", current.Completions,
			"expected_completions", want.Completions)
		corrected++
	}

	r.logger.Info("Counter reconciliation finished", "courses", len(stored), "corrected", corrected)
	return corrected, nil
}
