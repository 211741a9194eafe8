package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
)

type UserMongo struct {
	collectionBase
	coll *mongo.Collection
}

func (r *UserMongo) Create(ctx context.Context, user *models.User) error {
	doc := newUserDocument(user)
	doc.ID = primitive.NewObjectID()

	if _, err := r.coll.InsertOne(r.ctx(ctx), doc); err != nil {
		return translateError(err, "failed to create user")
	}
	user.ID = doc.ID.Hex()
	return nil
}

func (r *UserMongo) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.first(ctx, bson.M{"_id": oid})
}

func (r *UserMongo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*models.User{}, nil
	}

	ctx = r.ctx(ctx)
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, translateError(err, "failed to get users")
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateError(err, "failed to get users")
	}

	users := make([]*models.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toModel())
	}
	return users, nil
}

func (r *UserMongo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, bson.M{"username": username})
}

func (r *UserMongo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, bson.M{"email": email})
}

func (r *UserMongo) first(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(r.ctx(ctx), filter).Decode(&doc); err != nil {
		return nil, translateError(err, "failed to get user")
	}
	return doc.toModel(), nil
}

func (r *UserMongo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, bson.M{"username": username})
}

func (r *UserMongo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": email})
}

func (r *UserMongo) exists(ctx context.Context, filter bson.M) (bool, error) {
	count, err := r.coll.CountDocuments(r.ctx(ctx), filter, options.Count().SetLimit(1))
	if err != nil {
		return false, translateError(err, "failed to check user")
	}
	return count > 0, nil
}

func (r *UserMongo) UpdateInterests(ctx context.Context, id string, interests []string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.coll.UpdateOne(r.ctx(ctx), bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"interests":  emptyIfNil(interests),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return translateError(err, "failed to update interests")
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to update interests: %w", repositories.ErrNotFound)
	}
	return nil
}

type InterestMongo struct {
	collectionBase
	coll *mongo.Collection
}

// AddMany upserts each name; a concurrent insert of the same name is not an error
func (r *InterestMongo) AddMany(ctx context.Context, names []string) error {
	ctx = r.ctx(ctx)
	now := time.Now().UTC()

	for _, name := range models.NormalizeTags(names) {
		_, err := r.coll.UpdateOne(ctx,
			bson.M{"name": name},
			bson.M{"$setOnInsert": bson.M{"name": name, "created_at": now}},
			options.Update().SetUpsert(true),
		)
		if err != nil && !mongo.IsDuplicateKeyError(err) {
			return translateError(err, "failed to add interests")
		}
	}
	return nil
}

func (r *InterestMongo) List(ctx context.Context) ([]*models.Interest, error) {
	ctx = r.ctx(ctx)

	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, translateError(err, "failed to list interests")
	}

	var docs []interestDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateError(err, "failed to list interests")
	}

	interests := make([]*models.Interest, 0, len(docs))
	for _, doc := range docs {
		interests = append(interests, &models.Interest{
			ID:        doc.ID.Hex(),
			Name:      doc.Name,
			CreatedAt: doc.CreatedAt,
		})
	}
	return interests, nil
}
