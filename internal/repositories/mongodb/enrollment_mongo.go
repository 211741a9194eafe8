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

type EnrollmentMongo struct {
	collectionBase
	coll *mongo.Collection
}

// Create relies on the uniq_student_course index to reject a second enrollment for the pair
func (r *EnrollmentMongo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	doc, err := newEnrollmentDocument(enrollment)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()

	if _, err := r.coll.InsertOne(r.ctx(ctx), doc); err != nil {
		return translateError(err, "failed to create enrollment")
	}
	enrollment.ID = doc.ID.Hex()
	return nil
}

func (r *EnrollmentMongo) pairFilter(studentID, courseID string) (bson.M, error) {
	sid, err := objectID(studentID)
	if err != nil {
		return nil, err
	}
	cid, err := objectID(courseID)
	if err != nil {
		return nil, err
	}
	return bson.M{"student_id": sid, "course_id": cid}, nil
}

func (r *EnrollmentMongo) GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	filter, err := r.pairFilter(studentID, courseID)
	if err != nil {
		return nil, err
	}

	var doc enrollmentDocument
	if err := r.coll.FindOne(r.ctx(ctx), filter).Decode(&doc); err != nil {
		return nil, translateError(err, "failed to get enrollment")
	}
	return doc.toModel(), nil
}

func (r *EnrollmentMongo) ExistsByStudentAndCourse(ctx context.Context, studentID, courseID string) (bool, error) {
	filter, err := r.pairFilter(studentID, courseID)
	if err != nil {
		return false, err
	}

	count, err := r.coll.CountDocuments(r.ctx(ctx), filter, options.Count().SetLimit(1))
	if err != nil {
		return false, translateError(err, "failed to check enrollment")
	}
	return count > 0, nil
}

func (r *EnrollmentMongo) Update(ctx context.Context, enrollment *models.Enrollment) error {
	oid, err := objectID(enrollment.ID)
	if err != nil {
		return err
	}

	result, err := r.coll.UpdateOne(r.ctx(ctx), bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"last_accessed_at":    enrollment.LastAccessedAt,
		"progress_percentage": enrollment.ProgressPercentage,
		"completed_sections":  emptyIfNil(enrollment.CompletedSections),
		"last_section_id":     enrollment.LastSectionID,
		"completed_at":        enrollment.CompletedAt,
	}})
	if err != nil {
		return translateError(err, "failed to update enrollment")
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to update enrollment: %w", repositories.ErrNotFound)
	}
	return nil
}

func (r *EnrollmentMongo) ListByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error) {
	sid, err := objectID(studentID)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "enrolled_at", Value: -1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"student_id": sid}, opts, "failed to list student enrollments")
}

func (r *EnrollmentMongo) ListByCourse(ctx context.Context, courseID string) ([]*models.Enrollment, error) {
	cid, err := objectID(courseID)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "enrolled_at", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"course_id": cid}, opts, "failed to list course enrollments")
}

func (r *EnrollmentMongo) CountByCourse(ctx context.Context) (map[string]repositories.CourseCounters, error) {
	ctx = r.ctx(ctx)

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$course_id"},
			{Key: "enrollments", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "completions", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$completed_at", false}}}, 1, 0,
			}}}}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translateError(err, "failed to count enrollments")
	}

	var rows []struct {
		CourseID    primitive.ObjectID `bson:"_id"`
		Enrollments int                `bson:"enrollments"`
		Completions int                `bson:"completions"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, translateError(err, "failed to count enrollments")
	}

	counters := make(map[string]repositories.CourseCounters, len(rows))
	for _, row := range rows {
		counters[row.CourseID.Hex()] = repositories.CourseCounters{
			Enrollments: row.Enrollments,
			Completions: row.Completions,
		}
	}
	return counters, nil
}

func (r *EnrollmentMongo) find(ctx context.Context, filter interface{}, opts *options.FindOptions, op string) ([]*models.Enrollment, error) {
	ctx = r.ctx(ctx)

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateError(err, op)
	}

	var docs []enrollmentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateError(err, op)
	}

	enrollments := make([]*models.Enrollment, 0, len(docs))
	for _, doc := range docs {
		enrollments = append(enrollments, doc.toModel())
	}
	return enrollments, nil
}
