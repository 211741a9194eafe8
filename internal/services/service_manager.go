package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/mentora-service/internal/cache"
	"github.com/SAP-F-2025/mentora-service/internal/events"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
	"github.com/SAP-F-2025/mentora-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	DefaultTimeout time.Duration

	// RequireCache fails health checks when Redis is unreachable instead of degrading to the store.
	RequireCache bool
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	cache     *cache.CacheManager
	publisher events.EventPublisher
	tokens    TokenIssuer
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	// Service instances
	courseService         CourseService
	enrollmentService     EnrollmentService
	recommendationService RecommendationService
	userService           UserService
	exportService         ExportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies.
// tokens is nil when an external identity provider issues credentials.
func NewServiceManager(repo repositories.Repository, cm *cache.CacheManager, publisher events.EventPublisher,
	tokens TokenIssuer, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		repo:      repo,
		cache:     cm,
		publisher: publisher,
		tokens:    tokens,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(repo repositories.Repository, cm *cache.CacheManager, publisher events.EventPublisher,
	tokens TokenIssuer, logger *slog.Logger, validator *validator.Validator) ServiceManager {
	return NewServiceManager(repo, cm, publisher, tokens, logger, validator, ServiceManagerConfig{
		DefaultTimeout: 30 * time.Second,
	})
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.repo == nil {
		return errors.New("repository is required")
	}
	if sm.cache == nil {
		sm.cache = cache.NewCacheManager(nil)
	}

	sm.logger.Info("Initializing service manager")

	sm.courseService = NewCourseService(sm.repo, sm.cache, sm.publisher, sm.logger, sm.validator)
	sm.enrollmentService = NewEnrollmentService(sm.repo, sm.cache, sm.publisher, sm.logger)
	sm.recommendationService = NewRecommendationService(sm.repo, sm.logger)
	sm.userService = NewUserService(sm.repo, sm.cache, sm.tokens, sm.logger, sm.validator)
	sm.exportService = NewExportService(sm.enrollmentService, sm.logger)

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully", "cache_enabled", sm.cache.Enabled(), "local_auth", sm.tokens != nil)

	return nil
}

func (sm *serviceManager) mustBeInitialized() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Service getters
func (sm *serviceManager) Course() CourseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.courseService
}

func (sm *serviceManager) Enrollment() EnrollmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.enrollmentService
}

func (sm *serviceManager) Recommendation() RecommendationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.recommendationService
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.userService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.exportService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if sm.config.DefaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sm.config.DefaultTimeout)
		defer cancel()
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	if sm.config.RequireCache {
		if err := sm.cache.HealthCheck(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	var errs []error
	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
			errs = append(errs, err)
		}
	}

	if err := sm.repo.Close(); err != nil {
		sm.logger.Error("Failed to close repository", "error", err)
		errs = append(errs, err)
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return errors.Join(errs...)
}
