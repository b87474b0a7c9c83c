package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"clean-cloak/internal/models"
	"clean-cloak/internal/services"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	service *services.PaymentService
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req models.PaymentInitiation
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Initiate(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"message":    "Payment request sent to your phone",
		"invoice_id": resp.Invoice.InvoiceID,
		"state":      resp.Invoice.State,
	})
}

func (h *PaymentHandler) Status(c *gin.Context) {
	view, err := h.service.Status(c.Request.Context(), c.GetString("userID"), currentRole(c), c.Param("bookingId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"payment": view})
}

func (h *PaymentHandler) Retry(c *gin.Context) {
	var body struct {
		PhoneNumber string `json:"phone_number"`
	}
	if !bindJSON(c, &body) {
		return
	}
	resp, err := h.service.Retry(c.Request.Context(), c.GetString("userID"), c.Param("bookingId"), body.PhoneNumber)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Payment request re-sent", "invoice_id": resp.Invoice.InvoiceID})
}

// Webhook receives IntaSend collection callbacks. Storage failures answer 500
// and are redelivered by the provider; handled, duplicate and ignored
// deliveries answer 200.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid body")
		return
	}
	var webhook models.PaymentWebhook
	if err := json.Unmarshal(raw, &webhook); err != nil {
		log.Printf("[PAYMENT] Malformed webhook body: %v", err)
		respondError(c, http.StatusBadRequest, "Invalid body")
		return
	}
	_ = json.Unmarshal(raw, &webhook.Raw)
	delete(webhook.Raw, "challenge")

	outcome, err := h.service.HandleWebhook(c.Request.Context(), &webhook)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"status": outcome})
}
