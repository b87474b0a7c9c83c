package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionType string

const (
	TransactionPayment TransactionType = "payment"
	TransactionPayout  TransactionType = "payout"
	TransactionRefund  TransactionType = "refund"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionCancelled TransactionStatus = "cancelled"
)

const PaymentMethodMpesa = "mpesa"

type TransactionMetadata struct {
	ProviderData     map[string]interface{} `bson:"provider_data,omitempty" json:"provider_data,omitempty"`
	Split            *PaymentSplit          `bson:"split,omitempty" json:"split,omitempty"`
	MpesaPhone       string                 `bson:"mpesa_phone,omitempty" json:"mpesa_phone,omitempty"`
	ProviderID       string                 `bson:"provider_id,omitempty" json:"provider_id,omitempty"`
	ProviderResponse map[string]interface{} `bson:"provider_response,omitempty" json:"provider_response,omitempty"`
	Error            string                 `bson:"error,omitempty" json:"error,omitempty"`
	OriginalAmount   float64                `bson:"original_amount,omitempty" json:"original_amount,omitempty"`
}

// Transaction is one ledger entry. Entries are append-only per attempt: a
// failed payout is recorded as a new entry, never by rewriting an earlier one.
type Transaction struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	BookingID     string              `bson:"booking_id" json:"booking_id"`
	ClientID      string              `bson:"client_id,omitempty" json:"client_id,omitempty"`
	CleanerID     string              `bson:"cleaner_id,omitempty" json:"cleaner_id,omitempty"`
	Type          TransactionType     `bson:"type" json:"type"`
	Amount        float64             `bson:"amount" json:"amount"`
	Currency      string              `bson:"currency" json:"currency"`
	PaymentMethod string              `bson:"payment_method" json:"payment_method"`
	TransactionID string              `bson:"transaction_id" json:"transaction_id"`
	Reference     string              `bson:"reference" json:"reference"`
	Description   string              `bson:"description,omitempty" json:"description,omitempty"`
	Status        TransactionStatus   `bson:"status" json:"status"`
	ProcessedAt   *time.Time          `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
	Metadata      TransactionMetadata `bson:"metadata" json:"metadata"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at" json:"updated_at"`
}

func PaymentReference(bookingID string) string {
	return "JOB_" + bookingID
}

func PayoutTransactionID(at time.Time, bookingID string) string {
	return fmt.Sprintf("PAYOUT_%d_%s", at.UnixMilli(), bookingID)
}

func PayoutReference(bookingID string) string {
	return "CLEANER_PAYOUT_JOB_" + bookingID
}

func FailedPayoutTransactionID(at time.Time, bookingID string) string {
	return fmt.Sprintf("FAILED_PAYOUT_%d_%s", at.UnixMilli(), bookingID)
}

func FailedPayoutReference(bookingID string) string {
	return "FAILED_CLEANER_PAYOUT_JOB_" + bookingID
}

// PaymentWebhook is the callback body posted by IntaSend when a collection changes state.
type PaymentWebhook struct {
	InvoiceID     string                 `json:"invoice_id"`
	ID            string                 `json:"id"`
	TransactionID string                 `json:"transaction_id"`
	State         string                 `json:"state"`
	Status        string                 `json:"status"`
	Provider      string                 `json:"provider"`
	Value         interface{}            `json:"value"`
	Account       string                 `json:"account"`
	APIRef        string                 `json:"api_ref"`
	FailedReason  string                 `json:"failed_reason"`
	Challenge     string                 `json:"challenge"`
	Metadata      map[string]interface{} `json:"metadata"`

	Raw map[string]interface{} `json:"-"`
}

const WebhookStateComplete = "COMPLETE"

func (w *PaymentWebhook) EffectiveState() string {
	if w.State != "" {
		return w.State
	}
	return w.Status
}

// BookingRef returns the booking id carried by the callback, preferring metadata.
func (w *PaymentWebhook) BookingRef() string {
	if w.Metadata != nil {
		if id, ok := w.Metadata["booking_id"].(string); ok && id != "" {
			return id
		}
	}
	return w.APIRef
}

func (w *PaymentWebhook) ProviderTransactionID() string {
	switch {
	case w.ID != "":
		return w.ID
	case w.TransactionID != "":
		return w.TransactionID
	default:
		return w.InvoiceID
	}
}

type PaymentInitiation struct {
	BookingID   string `json:"booking_id" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required"`
}

type PaymentStatusView struct {
	BookingID     string        `json:"booking_id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Paid          bool          `json:"paid"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	TransactionID string        `json:"transaction_id,omitempty"`
	PayoutStatus  PayoutStatus  `json:"payout_status,omitempty"`
}
