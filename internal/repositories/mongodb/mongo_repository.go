package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SAP-F-2025/mentora-service/internal/cache"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
)

// MongoRepository implements the main Repository interface over a MongoDB database
type MongoRepository struct {
	client       *mongo.Client
	db           *mongo.Database
	redisClient  *redis.Client
	cacheManager *cache.CacheManager
	transactions bool

	// session is set on repositories bound to a transaction
	session mongo.Session

	course     repositories.CourseRepository
	enrollment repositories.EnrollmentRepository
	user       repositories.UserRepository
	interest   repositories.InterestRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	Client      *mongo.Client
	Database    string
	RedisClient *redis.Client
	// Transactions requires a replica set or sharded cluster.
	Transactions bool
}

func NewMongoRepository(config RepositoryConfig) repositories.Repository {
	return newRepository(config.Client, config.Client.Database(config.Database), config.RedisClient,
		cache.NewCacheManager(config.RedisClient), config.Transactions, nil)
}

func newRepository(client *mongo.Client, db *mongo.Database, redisClient *redis.Client,
	cacheManager *cache.CacheManager, transactions bool, session mongo.Session) *MongoRepository {
	base := collectionBase{session: session}
	return &MongoRepository{
		client:       client,
		db:           db,
		redisClient:  redisClient,
		cacheManager: cacheManager,
		transactions: transactions,
		session:      session,
		course:       &CourseMongo{collectionBase: base, coll: db.Collection(coursesCollection)},
		enrollment:   &EnrollmentMongo{collectionBase: base, coll: db.Collection(enrollmentsCollection)},
		user:         &UserMongo{collectionBase: base, coll: db.Collection(usersCollection)},
		interest:     &InterestMongo{collectionBase: base, coll: db.Collection(interestsCollection)},
	}
}

// collectionBase binds operations to the surrounding transaction, if any.
type collectionBase struct {
	session mongo.Session
}

func (b collectionBase) ctx(ctx context.Context) context.Context {
	if b.session == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, b.session)
}

// EnsureIndexes creates the unique and query indexes the repositories rely on
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_username")},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")},
		},
		interestsCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_name")},
		},
		coursesCollection: {
			{Keys: bson.D{{Key: "teacher_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("teacher_created")},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "enrollment_count", Value: -1}}, Options: options.Index().SetName("status_popularity")},
			{Keys: bson.D{{Key: "tags", Value: 1}}, Options: options.Index().SetName("tags")},
		},
		enrollmentsCollection: {
			{
				Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "course_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_student_course"),
			},
			{Keys: bson.D{{Key: "course_id", Value: 1}}, Options: options.Index().SetName("course")},
		},
	}

	for name, idx := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (r *MongoRepository) Course() repositories.CourseRepository {
	return r.course
}

func (r *MongoRepository) Enrollment() repositories.EnrollmentRepository {
	return r.enrollment
}

func (r *MongoRepository) User() repositories.UserRepository {
	return r.user
}

func (r *MongoRepository) Interest() repositories.InterestRepository {
	return r.interest
}

// WithTransaction runs fn inside a multi-document transaction when the deployment supports it.
// Otherwise fn runs directly and counters are repaired by the reconciliation job.
func (r *MongoRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	if !r.transactions || r.session != nil {
		return fn(r)
	}

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	txRepo := newRepository(r.client, r.db, r.redisClient, r.cacheManager, r.transactions, session)
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(txRepo)
	})
	return err
}

// Ping checks the health of database and cache connections
func (r *MongoRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections
func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{config: config}
}

// Initialize verifies connections, ensures indexes and builds the repository
func (rm *RepositoryManager) Initialize() error {
	if rm.config.Client == nil {
		return fmt.Errorf("mongo client is required")
	}
	if rm.config.Database == "" {
		return fmt.Errorf("mongo database name is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rm.config.Client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("Redis connection failed: %w", err)
		}
	}

	if err := EnsureIndexes(ctx, rm.config.Client.Database(rm.config.Database)); err != nil {
		return err
	}

	rm.repo = NewMongoRepository(rm.config)
	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}
	return rm.repo.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}
	return rm.repo.Close()
}
