package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TrackingStatus string

const (
	TrackingAssigned   TrackingStatus = "assigned"
	TrackingInProgress TrackingStatus = "in_progress"
	TrackingCompleted  TrackingStatus = "completed"
	TrackingCancelled  TrackingStatus = "cancelled"
)

type GeoPoint struct {
	Lat       float64   `bson:"lat" json:"lat" validate:"min=-90,max=90"`
	Lng       float64   `bson:"lng" json:"lng" validate:"min=-180,max=180"`
	Address   string    `bson:"address,omitempty" json:"address,omitempty"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type Tracking struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BookingID        string             `bson:"booking_id" json:"booking_id"`
	CleanerID        string             `bson:"cleaner_id" json:"cleaner_id"`
	ClientID         string             `bson:"client_id" json:"client_id"`
	Status           TrackingStatus     `bson:"status" json:"status"`
	CurrentLocation  *GeoPoint          `bson:"current_location,omitempty" json:"current_location,omitempty"`
	LocationHistory  []GeoPoint         `bson:"location_history" json:"location_history"`
	EstimatedArrival *time.Time         `bson:"estimated_arrival,omitempty" json:"estimated_arrival,omitempty"`
	StartedAt        *time.Time         `bson:"started_at,omitempty" json:"started_at,omitempty"`
	CompletedAt      *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

type LocationUpdate struct {
	Lat              float64    `json:"lat" validate:"min=-90,max=90"`
	Lng              float64    `json:"lng" validate:"min=-180,max=180"`
	Address          string     `json:"address"`
	EstimatedArrival *time.Time `json:"estimated_arrival"`
}

type TrackingStart struct {
	BookingID string          `json:"booking_id" validate:"required"`
	Location  *LocationUpdate `json:"location"`
}

type TrackingStatusUpdate struct {
	Status TrackingStatus `json:"status" validate:"required,oneof=assigned in_progress completed cancelled"`
}
