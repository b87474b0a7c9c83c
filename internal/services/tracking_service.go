package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clean-cloak/internal/models"
	"clean-cloak/internal/repository"
	"clean-cloak/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TrackingService struct {
	trackings repository.TrackingRepository
	bookings  repository.BookingRepository
	notifier  Notifier
	now       func() time.Time
}

func NewTrackingService(trackings repository.TrackingRepository, bookings repository.BookingRepository, notifier Notifier) *TrackingService {
	return &TrackingService{trackings: trackings, bookings: bookings, notifier: notifier, now: time.Now}
}

// Start creates the tracking record of a booking. Only its cleaner may start it.
func (s *TrackingService) Start(ctx context.Context, cleanerID string, req models.TrackingStart) (*models.Tracking, error) {
	if err := utils.ValidateStruct(&req, models.ErrValidation); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(req.BookingID)
	if err != nil {
		return nil, models.ErrInvalidID
	}
	booking, err := s.bookings.GetByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if booking.CleanerIDValue() != cleanerID {
		return nil, models.ErrForbidden
	}

	now := s.now()
	t := &models.Tracking{
		BookingID:       req.BookingID,
		CleanerID:       cleanerID,
		ClientID:        booking.ClientID,
		Status:          models.TrackingAssigned,
		LocationHistory: []models.GeoPoint{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.Location != nil {
		if err := utils.ValidateStruct(req.Location, models.ErrValidation); err != nil {
			return nil, err
		}
		p := models.GeoPoint{Lat: req.Location.Lat, Lng: req.Location.Lng, Address: req.Location.Address, UpdatedAt: now}
		t.CurrentLocation = &p
		t.LocationHistory = append(t.LocationHistory, p)
		t.EstimatedArrival = req.Location.EstimatedArrival
	}
	if err := s.trackings.Create(ctx, t); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: tracking already started", models.ErrConflict)
		}
		return nil, err
	}
	return t, nil
}

// Get returns the tracking record to a participant of the booking.
func (s *TrackingService) Get(ctx context.Context, userID string, role models.Role, bookingID string) (*models.Tracking, error) {
	t, err := s.trackings.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && t.ClientID != userID && t.CleanerID != userID {
		return nil, models.ErrForbidden
	}
	return t, nil
}

// UpdateLocation records the cleaner's position and pushes it to the client.
func (s *TrackingService) UpdateLocation(ctx context.Context, cleanerID, bookingID string, u models.LocationUpdate) (*models.GeoPoint, error) {
	if err := utils.ValidateStruct(&u, models.ErrValidation); err != nil {
		return nil, err
	}
	t, err := s.owned(ctx, cleanerID, bookingID)
	if err != nil {
		return nil, err
	}
	if t.Status == models.TrackingCompleted || t.Status == models.TrackingCancelled {
		return nil, fmt.Errorf("%w: tracking is %s", models.ErrInvalidState, t.Status)
	}

	p := models.GeoPoint{Lat: u.Lat, Lng: u.Lng, Address: u.Address, UpdatedAt: s.now()}
	if err := s.trackings.UpdateLocation(ctx, bookingID, p, u.EstimatedArrival); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{"booking_id": bookingID, "location": p}
	if u.EstimatedArrival != nil {
		payload["estimated_arrival"] = u.EstimatedArrival
	}
	s.notifier.Send(ctx, Notice{
		UserID:    t.ClientID,
		Type:      models.EventLocationUpdate,
		BookingID: bookingID,
		Payload:   payload,
	})
	return &p, nil
}

func (s *TrackingService) UpdateStatus(ctx context.Context, cleanerID, bookingID string, status models.TrackingStatus) error {
	update := models.TrackingStatusUpdate{Status: status}
	if err := utils.ValidateStruct(&update, models.ErrValidation); err != nil {
		return err
	}
	t, err := s.owned(ctx, cleanerID, bookingID)
	if err != nil {
		return err
	}
	if err := s.trackings.UpdateStatus(ctx, bookingID, status, s.now()); err != nil {
		return err
	}
	s.notifier.Send(ctx, Notice{
		UserID:    t.ClientID,
		Type:      models.EventTrackingStatus,
		BookingID: bookingID,
		Payload:   map[string]interface{}{"booking_id": bookingID, "status": status},
	})
	return nil
}

func (s *TrackingService) owned(ctx context.Context, cleanerID, bookingID string) (*models.Tracking, error) {
	t, err := s.trackings.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if t.CleanerID != cleanerID {
		return nil, models.ErrForbidden
	}
	return t, nil
}
