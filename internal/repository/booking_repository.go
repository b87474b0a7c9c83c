package repository

import (
	"context"
	"errors"
	"time"

	"clean-cloak/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	ListByClient(ctx context.Context, clientID string) ([]models.Booking, error)
	ListByCleaner(ctx context.Context, cleanerID string, statuses ...models.BookingStatus) ([]models.Booking, error)
	ListOpportunities(ctx context.Context, services []string) ([]models.Booking, error)
	Search(ctx context.Context, filter models.BookingFilter, page models.Page) ([]models.Booking, int64, error)
	ScheduledBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error)
	Accept(ctx context.Context, id primitive.ObjectID, cleanerID string) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.BookingStatus, completedAt *time.Time) error
	SetRating(ctx context.Context, id primitive.ObjectID, rating int, review string) (bool, error)
	MarkPaid(ctx context.Context, id primitive.ObjectID, transactionID string, paidAt time.Time, split models.PaymentSplit) (bool, error)
	ClaimPayout(ctx context.Context, id primitive.ObjectID) (bool, error)
	SetPayoutStatus(ctx context.Context, id primitive.ObjectID, status models.PayoutStatus, processedAt *time.Time) error
	SetPaymentMethod(ctx context.Context, id primitive.ObjectID, method string) error
	ClientSummaries(ctx context.Context, page models.Page) ([]models.ClientSummary, int64, error)
}

type bookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) BookingRepository {
	return &bookingRepository{collection: db.Collection("bookings")}
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	booking.ID = primitive.NewObjectID()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	_, err := r.collection.InsertOne(ctx, booking)
	return handleDatabaseError(err)
}

func (r *bookingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		return nil, handleDatabaseError(err)
	}
	return &booking, nil
}

func (r *bookingRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Booking, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
}

func (r *bookingRepository) ListByClient(ctx context.Context, clientID string) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"client_id": clientID}, newestFirst())
}

func (r *bookingRepository) ListByCleaner(ctx context.Context, cleanerID string, statuses ...models.BookingStatus) ([]models.Booking, error) {
	filter := bson.M{"cleaner_id": cleanerID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	return r.find(ctx, filter, newestFirst())
}

func (r *bookingRepository) ListOpportunities(ctx context.Context, services []string) ([]models.Booking, error) {
	filter := bson.M{
		"status":     models.BookingPending,
		"cleaner_id": bson.M{"$exists": false},
	}
	if len(services) > 0 {
		filter["service_category"] = bson.M{"$in": services}
	}
	return r.find(ctx, filter, newestFirst())
}

func (r *bookingRepository) Search(ctx context.Context, f models.BookingFilter, page models.Page) ([]models.Booking, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.ServiceCategory != "" {
		filter["service_category"] = f.ServiceCategory
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	bookings, err := r.find(ctx, filter, newestFirst().SetSkip(page.Skip()).SetLimit(page.Limit))
	return bookings, total, err
}

func (r *bookingRepository) ScheduledBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	return r.find(ctx, bson.M{
		"scheduled_date": bson.M{"$gte": from, "$lt": to},
		"status":         models.BookingConfirmed,
	})
}

// Accept assigns the cleaner only while the booking is still pending and unassigned.
func (r *bookingRepository) Accept(ctx context.Context, id primitive.ObjectID, cleanerID string) (*models.Booking, error) {
	filter := bson.M{
		"_id":        id,
		"status":     models.BookingPending,
		"cleaner_id": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{
		"cleaner_id": cleanerID,
		"status":     models.BookingConfirmed,
		"updated_at": time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking models.Booking
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrInvalidState
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.BookingStatus, completedAt *time.Time) error {
	set := bson.M{"status": status, "updated_at": time.Now()}
	if completedAt != nil {
		set["completed_at"] = *completedAt
	}
	return checkMatched(r.collection.UpdateByID(ctx, id, bson.M{"$set": set}))
}

func (r *bookingRepository) SetRating(ctx context.Context, id primitive.ObjectID, rating int, review string) (bool, error) {
	filter := bson.M{
		"_id":    id,
		"status": models.BookingCompleted,
		"rating": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{"rating": rating, "review": review, "updated_at": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// MarkPaid flips paid from false to true in a single conditional update. It
// reports false when another delivery already claimed the booking.
func (r *bookingRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, transactionID string, paidAt time.Time, split models.PaymentSplit) (bool, error) {
	filter := bson.M{"_id": id, "paid": bson.M{"$ne": true}}
	update := bson.M{"$set": bson.M{
		"paid":           true,
		"paid_at":        paidAt,
		"payment_status": models.PaymentPaid,
		"transaction_id": transactionID,
		"platform_fee":   split.PlatformFee,
		"cleaner_payout": split.CleanerPayout,
		"updated_at":     time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ClaimPayout moves a paid booking without payout state to pending. Only the
// caller that gets true may start the transfer.
func (r *bookingRepository) ClaimPayout(ctx context.Context, id primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"_id":           id,
		"paid":          true,
		"payout_status": bson.M{"$in": bson.A{nil, ""}},
	}
	update := bson.M{"$set": bson.M{"payout_status": models.PayoutPending, "updated_at": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *bookingRepository) SetPayoutStatus(ctx context.Context, id primitive.ObjectID, status models.PayoutStatus, processedAt *time.Time) error {
	set := bson.M{"payout_status": status, "updated_at": time.Now()}
	if processedAt != nil {
		set["payout_processed_at"] = *processedAt
	}
	return checkMatched(r.collection.UpdateByID(ctx, id, bson.M{"$set": set}))
}

func (r *bookingRepository) SetPaymentMethod(ctx context.Context, id primitive.ObjectID, method string) error {
	return checkMatched(r.collection.UpdateByID(ctx, id, bson.M{"$set": bson.M{"payment_method": method, "updated_at": time.Now()}}))
}

func (r *bookingRepository) ClientSummaries(ctx context.Context, page models.Page) ([]models.ClientSummary, int64, error) {
	group := bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: "$client_id"},
		{Key: "total_bookings", Value: bson.D{{Key: "$sum", Value: 1}}},
		{Key: "total_spent", Value: bson.D{{Key: "$sum", Value: bson.D{
			{Key: "$cond", Value: bson.A{"$paid", "$price", 0}},
		}}}},
		{Key: "last_booking", Value: bson.D{{Key: "$max", Value: "$created_at"}}},
	}}}

	pipeline := mongo.Pipeline{
		group,
		{{Key: "$sort", Value: bson.D{{Key: "last_booking", Value: -1}}}},
		{{Key: "$facet", Value: bson.D{
			{Key: "items", Value: bson.A{
				bson.D{{Key: "$skip", Value: page.Skip()}},
				bson.D{{Key: "$limit", Value: page.Limit}},
			}},
			{Key: "total", Value: bson.A{bson.D{{Key: "$count", Value: "n"}}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var result []struct {
		Items []models.ClientSummary `bson:"items"`
		Total []struct {
			N int64 `bson:"n"`
		} `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, 0, err
	}
	if len(result) == 0 {
		return []models.ClientSummary{}, 0, nil
	}
	var total int64
	if len(result[0].Total) > 0 {
		total = result[0].Total[0].N
	}
	return result[0].Items, total, nil
}
