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

type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	MarkCompleted(ctx context.Context, id primitive.ObjectID, providerID string, processedAt time.Time, providerResponse map[string]interface{}) error
	ListByBooking(ctx context.Context, bookingID string) ([]models.Transaction, error)
	PendingPayoutsBefore(ctx context.Context, cutoff time.Time) ([]models.Transaction, error)
}

type transactionRepository struct {
	collection *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) TransactionRepository {
	return &transactionRepository{collection: db.Collection("transactions")}
}

// Create inserts a ledger entry. A second completed payment for the same
// booking violates the partial unique index and surfaces as ErrConflict.
func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	tx.ID = primitive.NewObjectID()
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	_, err := r.collection.InsertOne(ctx, tx)
	return handleDatabaseError(err)
}

// MarkCompleted settles a pending entry. Entries in any other state are left alone.
func (r *transactionRepository) MarkCompleted(ctx context.Context, id primitive.ObjectID, providerID string, processedAt time.Time, providerResponse map[string]interface{}) error {
	set := bson.M{
		"status":       models.TransactionCompleted,
		"processed_at": processedAt,
		"updated_at":   time.Now(),
	}
	if providerID != "" {
		set["metadata.provider_id"] = providerID
	}
	if providerResponse != nil {
		set["metadata.provider_response"] = providerResponse
	}
	filter := bson.M{"_id": id, "status": models.TransactionPending}
	return checkMatched(r.collection.UpdateOne(ctx, filter, bson.M{"$set": set}))
}

func (r *transactionRepository) ListByBooking(ctx context.Context, bookingID string) ([]models.Transaction, error) {
	return r.find(ctx, bson.M{"booking_id": bookingID})
}

func (r *transactionRepository) PendingPayoutsBefore(ctx context.Context, cutoff time.Time) ([]models.Transaction, error) {
	return r.find(ctx, bson.M{
		"type":       models.TransactionPayout,
		"status":     models.TransactionPending,
		"created_at": bson.M{"$lt": cutoff},
	})
}

func (r *transactionRepository) find(ctx context.Context, filter bson.M) ([]models.Transaction, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	txs := []models.Transaction{}
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}
