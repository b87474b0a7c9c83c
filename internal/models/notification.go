package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event types shared by the realtime channel, push and the notification inbox.
const (
	EventBookingCreated   = "booking_created"
	EventBookingAccepted  = "booking_accepted"
	EventBookingStatus    = "booking_status"
	EventBookingCompleted = "booking_completed"
	EventPaymentCompleted = "payment_completed"
	EventPayoutProcessed  = "payout_processed"
	EventPayoutFailed     = "payout_failed"
	EventNewMessage       = "new_message"
	EventLocationUpdate   = "location_update"
	EventTrackingStatus   = "tracking_status"
	EventProfileApproved  = "profile_approved"
	EventProfileRejected  = "profile_rejected"
	EventStalePayouts     = "stale_payouts"
	EventBookingReminder  = "booking_reminder"
)

type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Type      string             `bson:"type" json:"type"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	BookingID string             `bson:"booking_id,omitempty" json:"booking_id,omitempty"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// PushContent is the visible part of a mobile notification.
type PushContent struct {
	Title string
	Body  string
}

const pushPreviewLength = 47

// PushContentFor returns the title and body shown for an event type. The
// preview argument is only used by chat messages.
func PushContentFor(eventType, preview string) (PushContent, bool) {
	switch eventType {
	case EventBookingCreated:
		return PushContent{"New Booking", "A new booking request is available."}, true
	case EventBookingAccepted:
		return PushContent{"Booking Accepted", "A cleaner has accepted your booking."}, true
	case EventBookingCompleted:
		return PushContent{"Booking Completed", "Your booking has been marked as completed."}, true
	case EventPaymentCompleted:
		return PushContent{"Payment Received", "Payment for your booking has been processed."}, true
	case EventPayoutProcessed:
		return PushContent{"Payout Sent", "Your payout for the booking has been processed."}, true
	case EventNewMessage:
		return PushContent{"New message", TruncatePreview(preview)}, true
	case EventBookingReminder:
		return PushContent{"Upcoming booking", "You have a booking scheduled within the next day."}, true
	case EventProfileApproved:
		return PushContent{"Profile Approved", "Your cleaner profile has been approved."}, true
	case EventProfileRejected:
		return PushContent{"Profile Rejected", "Your cleaner profile needs changes before approval."}, true
	}
	return PushContent{}, false
}

func TruncatePreview(s string) string {
	r := []rune(s)
	if len(r) <= pushPreviewLength+3 {
		return s
	}
	return string(r[:pushPreviewLength]) + "..."
}
