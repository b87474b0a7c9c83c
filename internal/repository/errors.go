package repository

import (
	"errors"

	"clean-cloak/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func handleDatabaseError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return models.ErrConflict
	}
	return err
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, models.ErrInvalidID
	}
	return oid, nil
}

func checkMatched(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return handleDatabaseError(err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
