package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
)

// popularitySort ranks by enrollment_count desc; _id breaks ties in insertion order.
var popularitySort = bson.D{{Key: "enrollment_count", Value: -1}, {Key: "_id", Value: 1}}

type CourseMongo struct {
	collectionBase
	coll *mongo.Collection
}

func (r *CourseMongo) Create(ctx context.Context, course *models.Course) error {
	doc, err := newCourseDocument(course)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()

	if _, err := r.coll.InsertOne(r.ctx(ctx), doc); err != nil {
		return translateError(err, "failed to create course")
	}
	course.ID = doc.ID.Hex()
	return nil
}

func (r *CourseMongo) GetByID(ctx context.Context, id string) (*models.Course, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc courseDocument
	if err := r.coll.FindOne(r.ctx(ctx), bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateError(err, "failed to get course")
	}
	return doc.toModel(), nil
}

func (r *CourseMongo) GetByIDs(ctx context.Context, ids []string) ([]*models.Course, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*models.Course{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, nil, "failed to get courses")
}

// Update sets the mutable fields. Counters are left to the increment methods.
func (r *CourseMongo) Update(ctx context.Context, course *models.Course) error {
	oid, err := objectID(course.ID)
	if err != nil {
		return err
	}
	doc, err := newCourseDocument(course)
	if err != nil {
		return err
	}

	result, err := r.coll.UpdateOne(r.ctx(ctx), bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":               doc.Title,
		"description":         doc.Description,
		"difficulty_level":    doc.DifficultyLevel,
		"estimated_hours":     doc.EstimatedHours,
		"category":            doc.Category,
		"status":              doc.Status,
		"tags":                doc.Tags,
		"sections":            doc.Sections,
		"prerequisites":       doc.Prerequisites,
		"learning_objectives": doc.LearningObjectives,
		"updated_at":          doc.UpdatedAt,
		"published_at":        doc.PublishedAt,
	}})
	if err != nil {
		return translateError(err, "failed to update course")
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to update course: %w", repositories.ErrNotFound)
	}
	return nil
}

func (r *CourseMongo) ListByTeacher(ctx context.Context, teacherID string, filters repositories.CourseFilters) ([]*models.Course, error) {
	oid, err := objectID(teacherID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"teacher_id": oid}
	if filters.Status != nil {
		filter["status"] = string(*filters.Status)
	}
	if filters.Category != nil {
		filter["category"] = *filters.Category
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	return r.find(ctx, filter, opts, "failed to list courses by teacher")
}

func (r *CourseMongo) ListPublishedByTags(ctx context.Context, tags []string, limit int) ([]*models.Course, error) {
	if len(tags) == 0 || limit <= 0 {
		return []*models.Course{}, nil
	}

	filter := bson.M{
		"status": string(models.CourseStatusPublished),
		"tags":   bson.M{"$in": tags},
	}
	opts := options.Find().SetSort(popularitySort).SetLimit(int64(limit))
	return r.find(ctx, filter, opts, "failed to list courses by tags")
}

func (r *CourseMongo) ListPopularPublished(ctx context.Context, excludeIDs []string, limit int) ([]*models.Course, error) {
	if limit <= 0 {
		return []*models.Course{}, nil
	}

	filter := bson.M{"status": string(models.CourseStatusPublished)}
	if oids := objectIDs(excludeIDs); len(oids) > 0 {
		filter["_id"] = bson.M{"$nin": oids}
	}
	opts := options.Find().SetSort(popularitySort).SetLimit(int64(limit))
	return r.find(ctx, filter, opts, "failed to list popular courses")
}

func (r *CourseMongo) IncrementEnrollmentCount(ctx context.Context, id string, delta int) error {
	return r.increment(ctx, id, "enrollment_count", delta)
}

func (r *CourseMongo) IncrementCompletionCount(ctx context.Context, id string, delta int) error {
	return r.increment(ctx, id, "completion_count", delta)
}

func (r *CourseMongo) increment(ctx context.Context, id, field string, delta int) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.coll.UpdateOne(r.ctx(ctx), bson.M{"_id": oid}, bson.M{"$inc": bson.M{field: delta}})
	if err != nil {
		return translateError(err, fmt.Sprintf("failed to increment %s", field))
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to increment %s: %w", field, repositories.ErrNotFound)
	}
	return nil
}

func (r *CourseMongo) SetCounters(ctx context.Context, id string, expected, counters repositories.CourseCounters) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}

	filter := bson.M{
		"_id":              oid,
		"enrollment_count": expected.Enrollments,
		"completion_count": expected.Completions,
	}
	result, err := r.coll.UpdateOne(r.ctx(ctx), filter, bson.M{"$set": bson.M{
		"enrollment_count": counters.Enrollments,
		"completion_count": counters.Completions,
	}})
	if err != nil {
		return false, translateError(err, "failed to set course counters")
	}
	return result.MatchedCount > 0, nil
}

func (r *CourseMongo) ListCounters(ctx context.Context) (map[string]repositories.CourseCounters, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1, "enrollment_count": 1, "completion_count": 1})
	courses, err := r.find(ctx, bson.M{}, opts, "failed to list course counters")
	if err != nil {
		return nil, err
	}

	counters := make(map[string]repositories.CourseCounters, len(courses))
	for _, c := range courses {
		counters[c.ID] = repositories.CourseCounters{
			Enrollments: c.EnrollmentCount,
			Completions: c.CompletionCount,
		}
	}
	return counters, nil
}

func (r *CourseMongo) find(ctx context.Context, filter interface{}, opts *options.FindOptions, op string) ([]*models.Course, error) {
	ctx = r.ctx(ctx)

	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	cursor, err := r.coll.Find(ctx, filter, findOpts...)
	if err != nil {
		return nil, translateError(err, op)
	}

	var docs []courseDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateError(err, op)
	}

	courses := make([]*models.Course, 0, len(docs))
	for _, doc := range docs {
		courses = append(courses, doc.toModel())
	}
	return courses, nil
}
