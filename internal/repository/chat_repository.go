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

type ChatRepository interface {
	Create(ctx context.Context, room *models.ChatRoom) error
	GetByBookingID(ctx context.Context, bookingID string) (*models.ChatRoom, error)
	ListForUser(ctx context.Context, userID string) ([]models.ChatRoom, error)
	AppendMessage(ctx context.Context, bookingID string, msg models.ChatMessage) error
	MarkRead(ctx context.Context, bookingID string, reader models.Role) error
}

type chatRepository struct {
	collection *mongo.Collection
}

func NewChatRepository(db *mongo.Database) ChatRepository {
	return &chatRepository{collection: db.Collection("chat_rooms")}
}

func (r *chatRepository) Create(ctx context.Context, room *models.ChatRoom) error {
	room.ID = primitive.NewObjectID()
	room.CreatedAt = time.Now()
	room.UpdatedAt = room.CreatedAt
	_, err := r.collection.InsertOne(ctx, room)
	return handleDatabaseError(err)
}

func (r *chatRepository) GetByBookingID(ctx context.Context, bookingID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := r.collection.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&room); err != nil {
		return nil, handleDatabaseError(err)
	}
	return &room, nil
}

func (r *chatRepository) ListForUser(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	filter := bson.M{
		"active": true,
		"$or":    bson.A{bson.M{"client_id": userID}, bson.M{"cleaner_id": userID}},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetProjection(bson.M{"messages": bson.M{"$slice": -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rooms := []models.ChatRoom{}
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// AppendMessage pushes msg and bumps the recipient counter in one update.
func (r *chatRepository) AppendMessage(ctx context.Context, bookingID string, msg models.ChatMessage) error {
	counter := "unread_client_count"
	if msg.SenderRole == models.RoleClient {
		counter = "unread_cleaner_count"
	}
	last := msg.Message
	if last == "" {
		last = "[image]"
	}
	update := bson.M{
		"$push": bson.M{"messages": msg},
		"$inc":  bson.M{counter: 1},
		"$set": bson.M{
			"last_message":      last,
			"last_message_time": msg.Timestamp,
			"updated_at":        msg.Timestamp,
		},
	}
	return checkMatched(r.collection.UpdateOne(ctx, bson.M{"booking_id": bookingID}, update))
}

// MarkRead flags the other side's messages as read by reader and zeroes reader's counter.
func (r *chatRepository) MarkRead(ctx context.Context, bookingID string, reader models.Role) error {
	flag, counter, author := "read_by_cleaner", "unread_cleaner_count", models.RoleClient
	if reader == models.RoleClient {
		flag, counter, author = "read_by_client", "unread_client_count", models.RoleCleaner
	}

	update := bson.M{"$set": bson.M{
		"messages.$[m]." + flag: true,
		counter:                 0,
	}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"m.sender_role": author, "m." + flag: false}},
	})
	return checkMatched(r.collection.UpdateOne(ctx, bson.M{"booking_id": bookingID}, update, opts))
}
