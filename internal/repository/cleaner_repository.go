package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"clean-cloak/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CleanerRepository interface {
	Create(ctx context.Context, profile *models.CleanerProfile) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.CleanerProfile, error)
	GetByUserID(ctx context.Context, userID string) (*models.CleanerProfile, error)
	UpdateProfile(ctx context.Context, userID string, input *models.CleanerProfileInput) (*models.CleanerProfile, error)
	AddRating(ctx context.Context, userID string, rating int) (*models.CleanerProfile, error)
	SetApproval(ctx context.Context, profile *models.CleanerProfile) (*models.CleanerProfile, error)
	ListAvailable(ctx context.Context, filter models.CleanerFilter) ([]models.CleanerProfile, error)
	ListByStatus(ctx context.Context, query models.CleanerQuery, page models.Page) ([]models.CleanerProfile, int64, error)
	SetDocument(ctx context.Context, userID, field string, list bool, url string) error
	RecordJob(ctx context.Context, userID string, completed bool) error
}

type cleanerRepository struct {
	collection *mongo.Collection
}

func NewCleanerRepository(db *mongo.Database) CleanerRepository {
	return &cleanerRepository{collection: db.Collection("cleaner_profiles")}
}

func (r *cleanerRepository) Create(ctx context.Context, profile *models.CleanerProfile) error {
	profile.ID = primitive.NewObjectID()
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt
	_, err := r.collection.InsertOne(ctx, profile)
	return handleDatabaseError(err)
}

func (r *cleanerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CleanerProfile, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *cleanerRepository) GetByUserID(ctx context.Context, userID string) (*models.CleanerProfile, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

func (r *cleanerRepository) findOne(ctx context.Context, filter bson.M) (*models.CleanerProfile, error) {
	var profile models.CleanerProfile
	if err := r.collection.FindOne(ctx, filter).Decode(&profile); err != nil {
		return nil, handleDatabaseError(err)
	}
	return &profile, nil
}

// UpdateProfile sets only the fields present in input.
func (r *cleanerRepository) UpdateProfile(ctx context.Context, userID string, input *models.CleanerProfileInput) (*models.CleanerProfile, error) {
	set := bson.M{"updated_at": time.Now()}
	for path, v := range input.Fields() {
		set[path] = v
	}
	return r.findOneAndUpdate(ctx, bson.M{"user_id": userID}, bson.M{"$set": set})
}

// AddRating folds a rating into the stored average inside the update itself.
func (r *cleanerRepository) AddRating(ctx context.Context, userID string, rating int) (*models.CleanerProfile, error) {
	if err := models.ValidateRating(rating); err != nil {
		return nil, err
	}
	count := bson.M{"$ifNull": bson.A{"$total_ratings", 0}}
	average := bson.M{"$ifNull": bson.A{"$rating", 0}}
	pipeline := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"rating": bson.M{"$divide": bson.A{
			bson.M{"$add": bson.A{bson.M{"$multiply": bson.A{average, count}}, rating}},
			bson.M{"$add": bson.A{count, 1}},
		}},
		"total_ratings": bson.M{"$add": bson.A{count, 1}},
		"updated_at":    "$$NOW",
	}}}}
	return r.findOneAndUpdate(ctx, bson.M{"user_id": userID}, pipeline)
}

// SetApproval writes the approval state of profile and appends its latest
// history entry. It fails with ErrInvalidState when the stored profile already
// has that status.
func (r *cleanerRepository) SetApproval(ctx context.Context, profile *models.CleanerProfile) (*models.CleanerProfile, error) {
	if len(profile.ApprovalHistory) == 0 {
		return nil, fmt.Errorf("%w: no approval decision to save", models.ErrValidation)
	}
	entry := profile.ApprovalHistory[len(profile.ApprovalHistory)-1]

	set := bson.M{
		"approval_status": profile.ApprovalStatus,
		"approval_notes":  profile.ApprovalNotes,
		"verified":        profile.Verified,
		"updated_at":      time.Now(),
	}
	unset := bson.M{}
	for field, at := range map[string]*time.Time{"approved_at": profile.ApprovedAt, "rejected_at": profile.RejectedAt} {
		if at != nil {
			set[field] = *at
		} else {
			unset[field] = ""
		}
	}
	update := bson.M{"$set": set, "$push": bson.M{"approval_history": entry}}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	filter := bson.M{"_id": profile.ID, "approval_status": bson.M{"$ne": profile.ApprovalStatus}}
	updated, err := r.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: profile is already %s", models.ErrInvalidState, profile.ApprovalStatus)
	}
	return updated, err
}

func (r *cleanerRepository) findOneAndUpdate(ctx context.Context, filter, update interface{}) (*models.CleanerProfile, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var profile models.CleanerProfile
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&profile); err != nil {
		return nil, handleDatabaseError(err)
	}
	return &profile, nil
}

func (r *cleanerRepository) ListAvailable(ctx context.Context, f models.CleanerFilter) ([]models.CleanerProfile, error) {
	filter := bson.M{
		"approval_status": models.ApprovalApproved,
		"is_available":    true,
	}
	if f.Service != "" {
		filter["services"] = f.Service
	}
	if f.City != "" {
		filter["city"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.City), Options: "i"}
	}
	if f.MinRating > 0 {
		filter["rating"] = bson.M{"$gte": f.MinRating}
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "rating", Value: -1},
		{Key: "completed_jobs", Value: -1},
	})
	return r.find(ctx, filter, opts)
}

func (r *cleanerRepository) ListByStatus(ctx context.Context, q models.CleanerQuery, page models.Page) ([]models.CleanerProfile, int64, error) {
	filter := bson.M{"approval_status": q.Status}
	if q.City != "" {
		filter["city"] = primitive.Regex{Pattern: regexp.QuoteMeta(q.City), Options: "i"}
	}
	if q.Service != "" {
		filter["services"] = q.Service
	}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	sort := bson.D{{Key: "created_at", Value: 1}}
	if q.Status == models.ApprovalApproved {
		sort = bson.D{{Key: "approved_at", Value: -1}}
	}
	opts := options.Find().
		SetSort(sort).
		SetSkip(page.Skip()).
		SetLimit(page.Limit)
	profiles, err := r.find(ctx, filter, opts)
	return profiles, total, err
}

func (r *cleanerRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.CleanerProfile, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	profiles := []models.CleanerProfile{}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *cleanerRepository) SetDocument(ctx context.Context, userID, field string, list bool, url string) error {
	update := bson.M{"$set": bson.M{"updated_at": time.Now()}}
	if list {
		update["$push"] = bson.M{field: url}
	} else {
		update["$set"].(bson.M)[field] = url
	}
	return checkMatched(r.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update))
}

func (r *cleanerRepository) RecordJob(ctx context.Context, userID string, completed bool) error {
	inc := bson.M{"total_jobs": 1}
	if completed {
		inc = bson.M{"completed_jobs": 1}
	}
	return checkMatched(r.collection.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$inc": inc}))
}
