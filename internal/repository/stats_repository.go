package repository

import (
	"context"
	"time"

	"clean-cloak/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type StatsRepository interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
}

type statsRepository struct {
	users        *mongo.Collection
	cleaners     *mongo.Collection
	bookings     *mongo.Collection
	transactions *mongo.Collection
}

func NewStatsRepository(db *mongo.Database) StatsRepository {
	return &statsRepository{
		users:        db.Collection("users"),
		cleaners:     db.Collection("cleaner_profiles"),
		bookings:     db.Collection("bookings"),
		transactions: db.Collection("transactions"),
	}
}

func (r *statsRepository) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{GeneratedAt: time.Now()}

	counts := []struct {
		dest   *int64
		col    *mongo.Collection
		filter bson.M
	}{
		{&stats.TotalClients, r.users, bson.M{"role": models.RoleClient}},
		{&stats.TotalCleaners, r.users, bson.M{"role": models.RoleCleaner}},
		{&stats.PendingCleaners, r.cleaners, bson.M{"approval_status": models.ApprovalPending}},
		{&stats.ApprovedCleaners, r.cleaners, bson.M{"approval_status": models.ApprovalApproved}},
		{&stats.TotalBookings, r.bookings, bson.M{}},
		{&stats.ActiveBookings, r.bookings, bson.M{"status": bson.M{"$in": bson.A{models.BookingConfirmed, models.BookingInProgress}}}},
		{&stats.CompletedBookings, r.bookings, bson.M{"status": models.BookingCompleted}},
		{&stats.PendingPayouts, r.transactions, bson.M{"type": models.TransactionPayout, "status": models.TransactionPending}},
		{&stats.FailedPayouts, r.transactions, bson.M{"type": models.TransactionPayout, "status": models.TransactionFailed}},
	}
	for _, c := range counts {
		n, err := c.col.CountDocuments(ctx, c.filter)
		if err != nil {
			return nil, err
		}
		*c.dest = n
	}

	revenue, err := r.sum(ctx, r.bookings, bson.M{"paid": true}, bson.D{
		{Key: "total", Value: bson.D{{Key: "$sum", Value: "$price"}}},
		{Key: "platform", Value: bson.D{{Key: "$sum", Value: "$platform_fee"}}},
	})
	if err != nil {
		return nil, err
	}
	stats.TotalRevenue = revenue["total"]
	stats.PlatformRevenue = revenue["platform"]

	rating, err := r.sum(ctx, r.cleaners, bson.M{"total_ratings": bson.M{"$gt": 0}}, bson.D{
		{Key: "avg", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
	})
	if err != nil {
		return nil, err
	}
	stats.AverageRating = rating["avg"]

	return stats, nil
}

// sum runs a single-group aggregation and returns the accumulator values by name.
func (r *statsRepository) sum(ctx context.Context, col *mongo.Collection, match bson.M, accumulators bson.D) (map[string]float64, error) {
	group := bson.D{{Key: "_id", Value: nil}}
	group = append(group, accumulators...)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: group}},
	}

	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []bson.M
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := map[string]float64{}
	if len(rows) == 0 {
		return out, nil
	}
	for _, acc := range accumulators {
		out[acc.Key] = toFloat(rows[0][acc.Key])
	}
	return out, nil
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
