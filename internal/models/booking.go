package models

import (
	"math"
	"time"

	"clean-cloak/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in-progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type PayoutStatus string

const (
	PayoutPending   PayoutStatus = "pending"
	PayoutProcessed PayoutStatus = "processed"
	PayoutFailed    PayoutStatus = "failed"
)

const (
	ServiceCarDetailing = "car-detailing"
	ServiceHomeCleaning = "home-cleaning"
)

type Location struct {
	Address       string    `bson:"address,omitempty" json:"address,omitempty"`
	ManualAddress string    `bson:"manual_address,omitempty" json:"manual_address,omitempty"`
	Coordinates   []float64 `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

type Booking struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID          string             `bson:"client_id" json:"client_id"`
	CleanerID         *string            `bson:"cleaner_id,omitempty" json:"cleaner_id,omitempty"`
	ServiceCategory   string             `bson:"service_category" json:"service_category" validate:"required,oneof=car-detailing home-cleaning"`
	ServiceType       string             `bson:"service_type,omitempty" json:"service_type,omitempty"`
	VehicleType       string             `bson:"vehicle_type,omitempty" json:"vehicle_type,omitempty"`
	CarServicePackage string             `bson:"car_service_package,omitempty" json:"car_service_package,omitempty"`
	CleaningCategory  string             `bson:"cleaning_category,omitempty" json:"cleaning_category,omitempty"`
	Rooms             int                `bson:"rooms,omitempty" json:"rooms,omitempty"`
	Location          Location           `bson:"location" json:"location"`
	BookingType       string             `bson:"booking_type" json:"booking_type" validate:"omitempty,oneof=immediate scheduled"`
	ScheduledDate     *time.Time         `bson:"scheduled_date,omitempty" json:"scheduled_date,omitempty"`
	ScheduledTime     string             `bson:"scheduled_time,omitempty" json:"scheduled_time,omitempty"`
	Price             float64            `bson:"price" json:"price" validate:"gt=0"`
	PlatformFee       float64            `bson:"platform_fee" json:"platform_fee"`
	CleanerPayout     float64            `bson:"cleaner_payout" json:"cleaner_payout"`
	Status            BookingStatus      `bson:"status" json:"status"`
	PaymentStatus     PaymentStatus      `bson:"payment_status" json:"payment_status"`
	PaymentMethod     string             `bson:"payment_method,omitempty" json:"payment_method,omitempty"`
	Paid              bool               `bson:"paid" json:"paid"`
	PaidAt            *time.Time         `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	TransactionID     string             `bson:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	PayoutStatus      PayoutStatus       `bson:"payout_status,omitempty" json:"payout_status,omitempty"`
	PayoutProcessedAt *time.Time         `bson:"payout_processed_at,omitempty" json:"payout_processed_at,omitempty"`
	Rating            int                `bson:"rating,omitempty" json:"rating,omitempty"`
	Review            string             `bson:"review,omitempty" json:"review,omitempty"`
	CompletedAt       *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}

// PaymentSplit is the breakdown of a booking price between platform and cleaner.
type PaymentSplit struct {
	Total         float64 `bson:"total" json:"total"`
	PlatformFee   float64 `bson:"platform_fee" json:"platform_fee"`
	CleanerPayout float64 `bson:"cleaner_payout" json:"cleaner_payout"`
	FeePercent    float64 `bson:"fee_percent" json:"fee_percent"`
}

// Split computes the platform fee and the cleaner share. The cleaner share is
// rounded to whole shillings since M-Pesa transfers carry no cents.
func (b *Booking) Split(feePercent float64) PaymentSplit {
	fee := b.Price * feePercent / 100
	return PaymentSplit{
		Total:         b.Price,
		PlatformFee:   fee,
		CleanerPayout: math.Round(b.Price - fee),
		FeePercent:    feePercent,
	}
}

func (b *Booking) IsParticipant(userID string) bool {
	if b.ClientID == userID {
		return true
	}
	return b.CleanerID != nil && *b.CleanerID == userID
}

func (b *Booking) CleanerIDValue() string {
	if b.CleanerID == nil {
		return ""
	}
	return *b.CleanerID
}

func (b *Booking) Validate() error {
	return utils.ValidateStruct(b, ErrValidation)
}

// CanTransition reports whether a booking may move from its current status to next.
func (b *Booking) CanTransition(next BookingStatus) bool {
	switch b.Status {
	case BookingPending:
		return next == BookingConfirmed || next == BookingCancelled
	case BookingConfirmed:
		return next == BookingInProgress || next == BookingCompleted || next == BookingCancelled
	case BookingInProgress:
		return next == BookingCompleted || next == BookingCancelled
	}
	return false
}

type BookingRating struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"max=500"`
}

type BookingStatusUpdate struct {
	Status BookingStatus `json:"status" validate:"required,oneof=confirmed in-progress completed cancelled"`
}

// Page is a pagination window parsed from page/limit query parameters.
type Page struct {
	Page  int64
	Limit int64
}

func NewPage(page, limit int64) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Skip() int64 {
	return (p.Page - 1) * p.Limit
}

type Pagination struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func (p Page) Result(total int64) Pagination {
	pages := total / p.Limit
	if total%p.Limit != 0 {
		pages++
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}
