package repositories

import "context"

// Repository aggregates every store the course service reads and writes.
type Repository interface {
	// Course domain
	Course() CourseRepository
	Enrollment() EnrollmentRepository

	// User domain
	User() UserRepository
	Interest() InterestRepository

	// WithTransaction runs fn against a repository bound to one store transaction.
	// Backends that cannot open a transaction run fn directly against themselves.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
