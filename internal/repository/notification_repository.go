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

type NotificationRepository interface {
	Create(ctx context.Context, notif *models.Notification) error
	List(ctx context.Context, userID string, limit int64) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id primitive.ObjectID, userID string) error
}

type notificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) NotificationRepository {
	return &notificationRepository{collection: db.Collection("notifications")}
}

func (r *notificationRepository) Create(ctx context.Context, notif *models.Notification) error {
	notif.ID = primitive.NewObjectID()
	notif.CreatedAt = time.Now()
	notif.Read = false
	_, err := r.collection.InsertOne(ctx, notif)
	return err
}

func (r *notificationRepository) List(ctx context.Context, userID string, limit int64) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id primitive.ObjectID, userID string) error {
	filter := bson.M{"_id": id, "user_id": userID}
	return checkMatched(r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"read": true}}))
}
