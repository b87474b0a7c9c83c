package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"clean-cloak/internal/config"
	"clean-cloak/internal/models"
	"clean-cloak/internal/repository"
	"clean-cloak/internal/utils"
	"clean-cloak/internal/utils/intasend"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WebhookOutcome tells the caller what a callback delivery did.
type WebhookOutcome string

const (
	WebhookIgnored   WebhookOutcome = "ignored"
	WebhookDuplicate WebhookOutcome = "duplicate"
	WebhookProcessed WebhookOutcome = "processed"
)

const defaultSettleTimeout = 2 * time.Minute

type PaymentService struct {
	bookings     repository.BookingRepository
	transactions repository.TransactionRepository
	payouts      PayoutDispatcher
	collections  CollectionGateway
	notifier     Notifier
	cfg          config.PaymentConfig
	challenge    string
	now          func() time.Time
}

func NewPaymentService(
	bookings repository.BookingRepository,
	transactions repository.TransactionRepository,
	payouts PayoutDispatcher,
	collections CollectionGateway,
	notifier Notifier,
	cfg config.PaymentConfig,
	webhookChallenge string,
) *PaymentService {
	return &PaymentService{
		bookings:     bookings,
		transactions: transactions,
		payouts:      payouts,
		collections:  collections,
		notifier:     notifier,
		cfg:          cfg,
		challenge:    webhookChallenge,
		now:          time.Now,
	}
}

// HandleWebhook settles a booking when the provider reports a completed collection.
//
// The booking is claimed with a conditional update on paid=false and its payout
// with a second one on an empty payout status, so of any number of deliveries
// exactly one dispatches the payout. A delivery for a booking that is already
// paid picks up whatever an interrupted earlier delivery left undone.
func (s *PaymentService) HandleWebhook(ctx context.Context, w *models.PaymentWebhook) (WebhookOutcome, error) {
	if s.challenge != "" && w.Challenge != s.challenge {
		return WebhookIgnored, fmt.Errorf("%w: webhook challenge mismatch", models.ErrUnauthorized)
	}

	state := w.EffectiveState()
	if !strings.EqualFold(state, models.WebhookStateComplete) {
		log.Printf("[PAYMENT] Webhook for %s in state %q ignored", w.BookingRef(), state)
		return WebhookIgnored, nil
	}

	ref := w.BookingRef()
	if ref == "" {
		log.Println("[PAYMENT] Completed webhook without booking reference ignored")
		return WebhookIgnored, nil
	}
	bookingID, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		log.Printf("[PAYMENT] Webhook with malformed booking reference %q ignored", ref)
		return WebhookIgnored, nil
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, models.ErrNotFound) {
		log.Printf("[PAYMENT] Webhook for unknown booking %s ignored", ref)
		return WebhookIgnored, nil
	}
	if err != nil {
		return WebhookIgnored, err
	}

	if booking.Paid {
		log.Printf("[PAYMENT] Booking %s already paid, duplicate delivery", ref)
		settleCtx, cancel := s.settlementContext(ctx)
		defer cancel()
		return WebhookDuplicate, s.resume(settleCtx, booking, w)
	}

	split := booking.Split(s.cfg.PlatformFeePercent)
	providerID := w.ProviderTransactionID()
	paidAt := s.now()

	claimed, err := s.bookings.MarkPaid(ctx, booking.ID, providerID, paidAt, split)
	if err != nil {
		return WebhookIgnored, err
	}
	if !claimed {
		log.Printf("[PAYMENT] Booking %s claimed by a concurrent delivery", ref)
		return WebhookDuplicate, nil
	}

	booking.Paid = true
	booking.PaidAt = &paidAt
	booking.PaymentStatus = models.PaymentPaid
	booking.TransactionID = providerID
	booking.PlatformFee = split.PlatformFee
	booking.CleanerPayout = split.CleanerPayout

	// Settlement continues after the provider hangs up.
	settleCtx, cancel := s.settlementContext(ctx)
	defer cancel()

	if err := s.recordPayment(settleCtx, booking, w, split); err != nil {
		return WebhookProcessed, err
	}
	s.startPayout(settleCtx, booking)

	log.Printf("[PAYMENT] Booking %s paid: total %.2f, platform %.2f, cleaner %.0f", ref, split.Total, split.PlatformFee, split.CleanerPayout)
	return WebhookProcessed, nil
}

func (s *PaymentService) settlementContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.cfg.SettleTimeout
	if timeout <= 0 {
		timeout = defaultSettleTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// startPayout claims the payout of a paid booking and, when the claim is won,
// transfers the cleaner's share and tells both participants the payment landed.
func (s *PaymentService) startPayout(ctx context.Context, booking *models.Booking) {
	ref := booking.ID.Hex()
	claimed, err := s.bookings.ClaimPayout(ctx, booking.ID)
	if err != nil {
		log.Printf("[PAYMENT] Cannot claim payout of %s: %v", ref, err)
		return
	}
	if !claimed {
		log.Printf("[PAYMENT] Payout of %s already started", ref)
		return
	}

	amount := booking.CleanerPayout
	if amount <= 0 {
		amount = booking.Split(s.cfg.PlatformFeePercent).CleanerPayout
	}
	if err := s.payouts.Dispatch(ctx, booking, amount); err != nil {
		log.Printf("[PAYMENT] %v", err)
	}

	s.notifier.SendToParticipants(ctx, booking, models.EventPaymentCompleted, map[string]interface{}{
		"booking_id": ref,
		"amount":     booking.Price,
		"status":     "paid",
	})
}

func (s *PaymentService) recordPayment(ctx context.Context, booking *models.Booking, w *models.PaymentWebhook, split models.PaymentSplit) error {
	bookingID := booking.ID.Hex()
	processedAt := s.now()
	tx := &models.Transaction{
		BookingID:     bookingID,
		ClientID:      booking.ClientID,
		CleanerID:     booking.CleanerIDValue(),
		Type:          models.TransactionPayment,
		Amount:        booking.Price,
		Currency:      s.cfg.Currency,
		PaymentMethod: models.PaymentMethodMpesa,
		TransactionID: booking.TransactionID,
		Reference:     models.PaymentReference(bookingID),
		Description:   fmt.Sprintf("Payment for %s booking", booking.ServiceCategory),
		Status:        models.TransactionCompleted,
		ProcessedAt:   &processedAt,
		Metadata: models.TransactionMetadata{
			ProviderData: w.Raw,
			Split:        &split,
		},
	}
	err := s.transactions.Create(ctx, tx)
	if errors.Is(err, models.ErrConflict) {
		log.Printf("[PAYMENT] Payment entry for booking %s already recorded", bookingID)
		return nil
	}
	return err
}

// resume finishes the settlement of a booking that an earlier delivery marked
// paid but did not complete: the missing payment entry is written and a payout
// that was never started is dispatched.
func (s *PaymentService) resume(ctx context.Context, booking *models.Booking, w *models.PaymentWebhook) error {
	ref := booking.ID.Hex()
	txs, err := s.transactions.ListByBooking(ctx, ref)
	if err != nil {
		return fmt.Errorf("inspect ledger of %s: %w", ref, err)
	}
	recorded := false
	for _, tx := range txs {
		if tx.Type == models.TransactionPayment && tx.Status == models.TransactionCompleted {
			recorded = true
			break
		}
	}
	if !recorded {
		log.Printf("[PAYMENT] Booking %s paid without payment entry, recording it", ref)
		split := booking.Split(s.cfg.PlatformFeePercent)
		if booking.CleanerPayout > 0 {
			split.PlatformFee = booking.PlatformFee
			split.CleanerPayout = booking.CleanerPayout
		}
		if err := s.recordPayment(ctx, booking, w, split); err != nil {
			return fmt.Errorf("record payment of %s: %w", ref, err)
		}
	}

	if booking.PayoutStatus == "" {
		s.startPayout(ctx, booking)
	}
	return nil
}

// Initiate starts an STK push to the client's phone for an unpaid booking.
func (s *PaymentService) Initiate(ctx context.Context, clientID string, req models.PaymentInitiation) (*intasend.STKPushResponse, error) {
	if err := utils.ValidateStruct(&req, models.ErrValidation); err != nil {
		return nil, err
	}
	booking, err := s.ownedBooking(ctx, clientID, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Paid {
		return nil, fmt.Errorf("%w: booking is already paid", models.ErrAlreadyProcessed)
	}

	phone := utils.NormalizeMpesaPhone(req.PhoneNumber)
	if !utils.IsMpesaNumber(phone) {
		return nil, fmt.Errorf("%w: phone_number must be a Safaricom number", models.ErrValidation)
	}

	bookingID := booking.ID.Hex()
	resp, err := s.collections.STKPush(ctx, intasend.STKPushRequest{
		Amount:      booking.Price,
		PhoneNumber: phone,
		APIRef:      bookingID,
		Narrative:   fmt.Sprintf("Clean Cloak %s booking", booking.ServiceCategory),
		CallbackURL: strings.TrimRight(s.cfg.BackendURL, "/") + "/api/payments/webhook",
		Metadata: map[string]string{
			"booking_id": bookingID,
			"client_id":  booking.ClientID,
			"service":    booking.ServiceCategory,
		},
	})
	if err != nil {
		return nil, err
	}
	if err := s.bookings.SetPaymentMethod(ctx, booking.ID, models.PaymentMethodMpesa); err != nil {
		log.Printf("[PAYMENT] Failed to record payment method for %s: %v", bookingID, err)
	}
	log.Printf("[PAYMENT] STK push sent for booking %s (invoice %s)", bookingID, resp.Invoice.InvoiceID)
	return resp, nil
}

func (s *PaymentService) Status(ctx context.Context, userID string, role models.Role, bookingID string) (*models.PaymentStatusView, error) {
	booking, err := s.lookup(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && !booking.IsParticipant(userID) {
		return nil, models.ErrForbidden
	}
	return &models.PaymentStatusView{
		BookingID:     bookingID,
		PaymentStatus: booking.PaymentStatus,
		Paid:          booking.Paid,
		PaidAt:        booking.PaidAt,
		TransactionID: booking.TransactionID,
		PayoutStatus:  booking.PayoutStatus,
	}, nil
}

func (s *PaymentService) Retry(ctx context.Context, clientID, bookingID, phone string) (*intasend.STKPushResponse, error) {
	return s.Initiate(ctx, clientID, models.PaymentInitiation{BookingID: bookingID, PhoneNumber: phone})
}

func (s *PaymentService) lookup(ctx context.Context, id string) (*models.Booking, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrInvalidID
	}
	return s.bookings.GetByID(ctx, oid)
}

func (s *PaymentService) ownedBooking(ctx context.Context, clientID, id string) (*models.Booking, error) {
	booking, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.ClientID != clientID {
		return nil, models.ErrForbidden
	}
	return booking, nil
}
