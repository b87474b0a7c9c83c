package repository

import (
	"context"
	"time"

	"clean-cloak/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
	GetByPhoneOrName(ctx context.Context, identifier string) (*models.User, error)
	AddDeviceToken(ctx context.Context, id, token string) error
	RemoveDeviceTokens(ctx context.Context, id string, tokens []string) error
	ListIDsByRole(ctx context.Context, role models.Role) ([]string, error)
}

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{collection: db.Collection("users")}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	_, err := r.collection.InsertOne(ctx, user)
	return handleDatabaseError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		return nil, handleDatabaseError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetByPhoneOrName resolves a login identifier, which may be either the phone number or the display name.
func (r *userRepository) GetByPhoneOrName(ctx context.Context, identifier string) (*models.User, error) {
	filter := bson.M{"$or": bson.A{bson.M{"phone": identifier}, bson.M{"name": identifier}}}
	var user models.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, handleDatabaseError(err)
	}
	return &user, nil
}

func (r *userRepository) AddDeviceToken(ctx context.Context, id, token string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	update := bson.M{
		"$addToSet": bson.M{"device_tokens": token},
		"$set":      bson.M{"updated_at": time.Now()},
	}
	return checkMatched(r.collection.UpdateByID(ctx, oid, update))
}

func (r *userRepository) RemoveDeviceTokens(ctx context.Context, id string, tokens []string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	_, err = r.collection.UpdateByID(ctx, oid, bson.M{"$pull": bson.M{"device_tokens": bson.M{"$in": tokens}}})
	return err
}

func (r *userRepository) ListIDsByRole(ctx context.Context, role models.Role) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"role": role, "is_active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID.Hex())
	}
	return ids, nil
}
