package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"clean-cloak/internal/models"
	"clean-cloak/internal/repository"
	"clean-cloak/internal/utils/intasend"
)

type PayoutService struct {
	bookings     repository.BookingRepository
	transactions repository.TransactionRepository
	cleaners     repository.CleanerRepository
	gateway      PayoutGateway
	notifier     Notifier
	sms          SMSSender
	currency     string
	now          func() time.Time
}

// NewPayoutService wires the dispatcher. sms may be nil.
func NewPayoutService(
	bookings repository.BookingRepository,
	transactions repository.TransactionRepository,
	cleaners repository.CleanerRepository,
	gateway PayoutGateway,
	notifier Notifier,
	sms SMSSender,
	currency string,
) *PayoutService {
	return &PayoutService{
		bookings:     bookings,
		transactions: transactions,
		cleaners:     cleaners,
		gateway:      gateway,
		notifier:     notifier,
		sms:          sms,
		currency:     currency,
		now:          time.Now,
	}
}

// Dispatch sends the cleaner's share of a paid booking to their M-Pesa number.
//
// A pending payout entry is written before the transfer. On success that
// entry is settled. On failure a separate FAILED_PAYOUT_ entry is appended and
// the pending one is left as written.
func (s *PayoutService) Dispatch(ctx context.Context, booking *models.Booking, amount float64) error {
	bookingID := booking.ID.Hex()

	if booking.CleanerID == nil {
		return s.fail(ctx, booking, amount, errors.New("booking has no assigned cleaner"))
	}
	profile, err := s.cleaners.GetByUserID(ctx, *booking.CleanerID)
	if err != nil {
		return s.fail(ctx, booking, amount, fmt.Errorf("cleaner profile: %w", err))
	}
	if profile.MpesaPhoneNumber == "" {
		return s.fail(ctx, booking, amount, models.ErrNoPayoutAccount)
	}

	pending := &models.Transaction{
		BookingID:     bookingID,
		ClientID:      booking.ClientID,
		CleanerID:     *booking.CleanerID,
		Type:          models.TransactionPayout,
		Amount:        amount,
		Currency:      s.currency,
		PaymentMethod: models.PaymentMethodMpesa,
		TransactionID: models.PayoutTransactionID(s.now(), bookingID),
		Reference:     models.PayoutReference(bookingID),
		Description:   fmt.Sprintf("Cleaner payout for %s booking", booking.ServiceCategory),
		Status:        models.TransactionPending,
		Metadata:      models.TransactionMetadata{MpesaPhone: profile.MpesaPhoneNumber},
	}
	if err := s.transactions.Create(ctx, pending); err != nil {
		return s.fail(ctx, booking, amount, fmt.Errorf("record pending payout: %w", err))
	}
	if err := s.bookings.SetPayoutStatus(ctx, booking.ID, models.PayoutPending, nil); err != nil {
		log.Printf("[PAYOUT] Failed to mark booking %s payout pending: %v", bookingID, err)
	}

	resp, err := s.gateway.Transfer(ctx, intasend.TransferRequest{
		Currency: s.currency,
		Transactions: []intasend.TransferItem{{
			Name:      profile.FirstName + " " + profile.LastName,
			Account:   profile.MpesaPhoneNumber,
			Amount:    amount,
			Narrative: fmt.Sprintf("Payment for job %s", bookingID),
		}},
	})
	if err != nil {
		return s.fail(ctx, booking, amount, err)
	}

	processedAt := s.now()
	if err := s.transactions.MarkCompleted(ctx, pending.ID, resp.TrackingID, processedAt, resp.Raw); err != nil {
		log.Printf("[PAYOUT] Transfer %s succeeded but ledger update failed: %v", resp.TrackingID, err)
	}
	if err := s.bookings.SetPayoutStatus(ctx, booking.ID, models.PayoutProcessed, &processedAt); err != nil {
		log.Printf("[PAYOUT] Failed to mark booking %s payout processed: %v", bookingID, err)
	}
	booking.PayoutStatus = models.PayoutProcessed
	booking.PayoutProcessedAt = &processedAt

	log.Printf("[PAYOUT] Sent %.0f %s to cleaner %s for booking %s (tracking %s)", amount, s.currency, *booking.CleanerID, bookingID, resp.TrackingID)

	s.notifier.Send(ctx, Notice{
		UserID:    *booking.CleanerID,
		Type:      models.EventPayoutProcessed,
		BookingID: bookingID,
		Payload: map[string]interface{}{
			"booking_id": bookingID,
			"amount":     amount,
		},
	})
	if s.sms != nil {
		body := fmt.Sprintf("Clean Cloak: %s %.0f has been sent to your M-Pesa for job %s.", s.currency, amount, bookingID)
		if err := s.sms.Send(profile.MpesaPhoneNumber, body); err != nil {
			log.Printf("[PAYOUT] SMS receipt to %s failed: %v", *booking.CleanerID, err)
		}
	}
	return nil
}

func (s *PayoutService) fail(ctx context.Context, booking *models.Booking, amount float64, cause error) error {
	bookingID := booking.ID.Hex()
	log.Printf("[PAYOUT] Payout for booking %s failed: %v", bookingID, cause)

	failed := &models.Transaction{
		BookingID:     bookingID,
		ClientID:      booking.ClientID,
		CleanerID:     booking.CleanerIDValue(),
		Type:          models.TransactionPayout,
		Amount:        amount,
		Currency:      s.currency,
		PaymentMethod: models.PaymentMethodMpesa,
		TransactionID: models.FailedPayoutTransactionID(s.now(), bookingID),
		Reference:     models.FailedPayoutReference(bookingID),
		Description:   "Failed cleaner payout",
		Status:        models.TransactionFailed,
		Metadata: models.TransactionMetadata{
			Error:          cause.Error(),
			OriginalAmount: amount,
		},
	}
	if err := s.transactions.Create(ctx, failed); err != nil {
		log.Printf("[PAYOUT] Failed to record failed payout for %s: %v", bookingID, err)
	}
	if err := s.bookings.SetPayoutStatus(ctx, booking.ID, models.PayoutFailed, nil); err != nil {
		log.Printf("[PAYOUT] Failed to mark booking %s payout failed: %v", bookingID, err)
	}
	booking.PayoutStatus = models.PayoutFailed

	if booking.CleanerID != nil {
		s.notifier.Send(ctx, Notice{
			UserID:    *booking.CleanerID,
			Type:      models.EventPayoutFailed,
			BookingID: bookingID,
			Payload:   map[string]interface{}{"booking_id": bookingID, "amount": amount},
		})
	}
	return fmt.Errorf("payout for booking %s: %w", bookingID, cause)
}
