package repository

import (
	"context"
	"fmt"

	"clean-cloak/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on for uniqueness.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		"cleaner_profiles": {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "approval_status", Value: 1}, {Key: "rating", Value: -1}}},
		},
		"bookings": {
			{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "cleaner_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		"transactions": {
			{Keys: bson.D{{Key: "booking_id", Value: 1}}},
			{
				Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "type", Value: 1}},
				Options: options.Index().
					SetName("one_completed_payment_per_booking").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{
						"type":   models.TransactionPayment,
						"status": models.TransactionCompleted,
					}),
			},
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		"chat_rooms": {
			{Keys: bson.D{{Key: "booking_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"trackings": {
			{Keys: bson.D{{Key: "booking_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"notifications": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for name, specs := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
