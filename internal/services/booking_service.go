package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"clean-cloak/internal/models"
	"clean-cloak/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingService struct {
	bookings repository.BookingRepository
	cleaners repository.CleanerRepository
	users    repository.UserRepository
	notifier Notifier
	now      func() time.Time
}

func NewBookingService(bookings repository.BookingRepository, cleaners repository.CleanerRepository, users repository.UserRepository, notifier Notifier) *BookingService {
	return &BookingService{
		bookings: bookings,
		cleaners: cleaners,
		users:    users,
		notifier: notifier,
		now:      time.Now,
	}
}

// Create stores a new pending booking for clientID and announces it to cleaners.
func (s *BookingService) Create(ctx context.Context, clientID string, b *models.Booking) (*models.Booking, error) {
	b.ID = primitive.NilObjectID
	b.ClientID = clientID
	b.CleanerID = nil
	b.Status = models.BookingPending
	b.PaymentStatus = models.PaymentPending
	b.Paid = false
	b.PaidAt = nil
	b.PayoutStatus = ""
	b.Rating = 0
	if b.BookingType == "" {
		b.BookingType = "immediate"
	}
	if b.BookingType == "scheduled" && b.ScheduledDate == nil {
		return nil, fmt.Errorf("%w: scheduled_date is required for scheduled bookings", models.ErrValidation)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	log.Printf("[BOOKING] Created %s for client %s (%s, %.0f)", b.ID.Hex(), clientID, b.ServiceCategory, b.Price)

	cleanerIDs, err := s.users.ListIDsByRole(ctx, models.RoleCleaner)
	if err != nil {
		log.Printf("[BOOKING] Cannot list cleaners for %s: %v", b.ID.Hex(), err)
		return b, nil
	}
	for _, id := range cleanerIDs {
		s.notifier.Send(ctx, Notice{
			UserID:    id,
			Type:      models.EventBookingCreated,
			BookingID: b.ID.Hex(),
			Payload: map[string]interface{}{
				"booking_id":       b.ID.Hex(),
				"service_category": b.ServiceCategory,
				"price":            b.Price,
			},
		})
	}
	return b, nil
}

// ListMine returns the bookings the user takes part in.
func (s *BookingService) ListMine(ctx context.Context, userID string, role models.Role) ([]models.Booking, error) {
	if role == models.RoleCleaner {
		return s.bookings.ListByCleaner(ctx, userID)
	}
	return s.bookings.ListByClient(ctx, userID)
}

// Active returns confirmed and in-progress bookings of the user.
func (s *BookingService) Active(ctx context.Context, userID string, role models.Role) ([]models.Booking, error) {
	if role == models.RoleCleaner {
		return s.bookings.ListByCleaner(ctx, userID, models.BookingConfirmed, models.BookingInProgress)
	}
	all, err := s.bookings.ListByClient(ctx, userID)
	if err != nil {
		return nil, err
	}
	active := make([]models.Booking, 0, len(all))
	for _, b := range all {
		if b.Status == models.BookingConfirmed || b.Status == models.BookingInProgress {
			active = append(active, b)
		}
	}
	return active, nil
}

// Opportunities lists open bookings matching the services an approved cleaner offers.
func (s *BookingService) Opportunities(ctx context.Context, cleanerID string) ([]models.Booking, error) {
	profile, err := s.approvedProfile(ctx, cleanerID)
	if err != nil {
		return nil, err
	}
	return s.bookings.ListOpportunities(ctx, profile.Services)
}

func (s *BookingService) Get(ctx context.Context, userID string, role models.Role, id string) (*models.Booking, error) {
	booking, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == models.RoleAdmin || booking.IsParticipant(userID) {
		return booking, nil
	}
	if role == models.RoleCleaner && booking.Status == models.BookingPending && booking.CleanerID == nil {
		return booking, nil
	}
	return nil, models.ErrForbidden
}

// Accept assigns an open booking to the cleaner. Only one cleaner can win.
func (s *BookingService) Accept(ctx context.Context, cleanerID, id string) (*models.Booking, error) {
	if _, err := s.approvedProfile(ctx, cleanerID); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrInvalidID
	}

	booking, err := s.bookings.Accept(ctx, oid, cleanerID)
	if err != nil {
		if errors.Is(err, models.ErrInvalidState) {
			return nil, fmt.Errorf("%w: booking is no longer available", models.ErrInvalidState)
		}
		return nil, err
	}
	if err := s.cleaners.RecordJob(ctx, cleanerID, false); err != nil {
		log.Printf("[BOOKING] Failed to count job for cleaner %s: %v", cleanerID, err)
	}
	log.Printf("[BOOKING] Booking %s accepted by cleaner %s", id, cleanerID)

	s.notifier.Send(ctx, Notice{
		UserID:    booking.ClientID,
		Type:      models.EventBookingAccepted,
		BookingID: id,
		Payload:   map[string]interface{}{"booking_id": id, "cleaner_id": cleanerID},
	})
	return booking, nil
}

// UpdateStatus moves a booking along its lifecycle on behalf of a participant.
func (s *BookingService) UpdateStatus(ctx context.Context, userID string, role models.Role, id string, next models.BookingStatus) (*models.Booking, error) {
	booking, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && !booking.IsParticipant(userID) {
		return nil, models.ErrForbidden
	}
	if next == models.BookingCompleted {
		return s.complete(ctx, booking)
	}
	if next == models.BookingInProgress && role == models.RoleClient {
		return nil, fmt.Errorf("%w: only the cleaner can start a job", models.ErrForbidden)
	}
	if !booking.CanTransition(next) {
		return nil, fmt.Errorf("%w: cannot move booking from %s to %s", models.ErrInvalidState, booking.Status, next)
	}

	if err := s.bookings.UpdateStatus(ctx, booking.ID, next, nil); err != nil {
		return nil, err
	}
	booking.Status = next

	s.notifier.SendToParticipants(ctx, booking, models.EventBookingStatus, map[string]interface{}{
		"booking_id": id,
		"status":     next,
	})
	return booking, nil
}

// Complete marks a booking done. Only the assigned cleaner or an admin may do it.
func (s *BookingService) Complete(ctx context.Context, userID string, role models.Role, id string) (*models.Booking, error) {
	booking, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && booking.CleanerIDValue() != userID {
		return nil, models.ErrForbidden
	}
	return s.complete(ctx, booking)
}

func (s *BookingService) complete(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if booking.CleanerID == nil || !booking.CanTransition(models.BookingCompleted) {
		return nil, fmt.Errorf("%w: booking cannot be completed from %s", models.ErrInvalidState, booking.Status)
	}
	at := s.now()
	if err := s.bookings.UpdateStatus(ctx, booking.ID, models.BookingCompleted, &at); err != nil {
		return nil, err
	}
	booking.Status = models.BookingCompleted
	booking.CompletedAt = &at

	if err := s.cleaners.RecordJob(ctx, *booking.CleanerID, true); err != nil {
		log.Printf("[BOOKING] Failed to count completed job for %s: %v", *booking.CleanerID, err)
	}

	s.notifier.SendToParticipants(ctx, booking, models.EventBookingCompleted, map[string]interface{}{
		"booking_id": booking.ID.Hex(),
		"status":     models.BookingCompleted,
	})
	return booking, nil
}

// Rate records the client's rating once and folds it into the cleaner's average.
func (s *BookingService) Rate(ctx context.Context, clientID, id string, input models.BookingRating) (*models.Booking, error) {
	if err := models.ValidateRating(input.Rating); err != nil {
		return nil, err
	}
	booking, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.ClientID != clientID {
		return nil, models.ErrForbidden
	}
	if booking.Status != models.BookingCompleted || booking.CleanerID == nil {
		return nil, fmt.Errorf("%w: only completed bookings can be rated", models.ErrInvalidState)
	}

	ok, err := s.bookings.SetRating(ctx, booking.ID, input.Rating, input.Review)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: booking already rated", models.ErrAlreadyProcessed)
	}
	booking.Rating = input.Rating
	booking.Review = input.Review

	if _, err := s.cleaners.AddRating(ctx, *booking.CleanerID, input.Rating); err != nil {
		log.Printf("[BOOKING] Rating for %s stored but cleaner %s average not updated: %v", id, *booking.CleanerID, err)
	}
	return booking, nil
}

func (s *BookingService) approvedProfile(ctx context.Context, cleanerID string) (*models.CleanerProfile, error) {
	profile, err := s.cleaners.GetByUserID(ctx, cleanerID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: create a cleaner profile first", models.ErrForbidden)
	}
	if err != nil {
		return nil, err
	}
	if profile.ApprovalStatus != models.ApprovalApproved {
		return nil, fmt.Errorf("%w: cleaner profile is %s", models.ErrForbidden, profile.ApprovalStatus)
	}
	return profile, nil
}

func (s *BookingService) lookup(ctx context.Context, id string) (*models.Booking, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrInvalidID
	}
	return s.bookings.GetByID(ctx, oid)
}
