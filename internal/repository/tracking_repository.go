package repository

import (
	"context"
	"time"

	"clean-cloak/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type TrackingRepository interface {
	Create(ctx context.Context, t *models.Tracking) error
	GetByBookingID(ctx context.Context, bookingID string) (*models.Tracking, error)
	UpdateLocation(ctx context.Context, bookingID string, point models.GeoPoint, eta *time.Time) error
	UpdateStatus(ctx context.Context, bookingID string, status models.TrackingStatus, at time.Time) error
}

type trackingRepository struct {
	collection *mongo.Collection
}

func NewTrackingRepository(db *mongo.Database) TrackingRepository {
	return &trackingRepository{collection: db.Collection("trackings")}
}

func (r *trackingRepository) Create(ctx context.Context, t *models.Tracking) error {
	t.ID = primitive.NewObjectID()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	_, err := r.collection.InsertOne(ctx, t)
	return handleDatabaseError(err)
}

func (r *trackingRepository) GetByBookingID(ctx context.Context, bookingID string) (*models.Tracking, error) {
	var t models.Tracking
	if err := r.collection.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&t); err != nil {
		return nil, handleDatabaseError(err)
	}
	return &t, nil
}

func (r *trackingRepository) UpdateLocation(ctx context.Context, bookingID string, point models.GeoPoint, eta *time.Time) error {
	set := bson.M{"current_location": point, "updated_at": point.UpdatedAt}
	if eta != nil {
		set["estimated_arrival"] = *eta
	}
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"location_history": point},
	}
	return checkMatched(r.collection.UpdateOne(ctx, bson.M{"booking_id": bookingID}, update))
}

func (r *trackingRepository) UpdateStatus(ctx context.Context, bookingID string, status models.TrackingStatus, at time.Time) error {
	set := bson.M{"status": status, "updated_at": at}
	switch status {
	case models.TrackingInProgress:
		set["started_at"] = at
	case models.TrackingCompleted:
		set["completed_at"] = at
	}
	return checkMatched(r.collection.UpdateOne(ctx, bson.M{"booking_id": bookingID}, bson.M{"$set": set}))
}
