package models

import "time"

type DashboardStats struct {
	TotalClients      int64     `json:"total_clients"`
	TotalCleaners     int64     `json:"total_cleaners"`
	PendingCleaners   int64     `json:"pending_cleaners"`
	ApprovedCleaners  int64     `json:"approved_cleaners"`
	TotalBookings     int64     `json:"total_bookings"`
	ActiveBookings    int64     `json:"active_bookings"`
	CompletedBookings int64     `json:"completed_bookings"`
	TotalRevenue      float64   `json:"total_revenue"`
	PlatformRevenue   float64   `json:"platform_revenue"`
	PendingPayouts    int64     `json:"pending_payouts"`
	FailedPayouts     int64     `json:"failed_payouts"`
	AverageRating     float64   `json:"average_rating"`
	GeneratedAt       time.Time `json:"generated_at"`
}

type ClientSummary struct {
	ClientID      string     `bson:"_id" json:"client_id"`
	Name          string     `bson:"-" json:"name,omitempty"`
	Phone         string     `bson:"-" json:"phone,omitempty"`
	TotalBookings int64      `bson:"total_bookings" json:"total_bookings"`
	TotalSpent    float64    `bson:"total_spent" json:"total_spent"`
	LastBooking   *time.Time `bson:"last_booking" json:"last_booking,omitempty"`
}

type BookingFilter struct {
	Status          string
	ServiceCategory string
}
