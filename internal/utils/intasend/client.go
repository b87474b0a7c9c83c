// Package intasend is a small client for the IntaSend collection and
// send-money APIs used for M-Pesa STK push and B2C payouts.
package intasend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	LiveURL    = "https://payment.intasend.com"
	SandboxURL = "https://sandbox.intasend.com"

	stkPushPath      = "/api/v1/payment/mpesa-stk-push/"
	sendMoneyPath    = "/api/v1/send-money/initiate/"
	approveMoneyPath = "/api/v1/send-money/approve/"

	ProviderMpesaB2C = "MPESA-B2C"
)

func BaseURL(sandbox bool) string {
	if sandbox {
		return SandboxURL
	}
	return LiveURL
}

type Client struct {
	baseURL    string
	publicKey  string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, publicKey, secretKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		publicKey:  publicKey,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("intasend: status %d: %s", e.StatusCode, e.Body)
}

type STKPushRequest struct {
	Amount      float64           `json:"amount"`
	PhoneNumber string            `json:"phone_number"`
	APIRef      string            `json:"api_ref"`
	Narrative   string            `json:"narrative,omitempty"`
	Name        string            `json:"name,omitempty"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	PublicKey   string            `json:"public_key"`
}

type Invoice struct {
	InvoiceID string      `json:"invoice_id"`
	State     string      `json:"state"`
	Provider  string      `json:"provider"`
	Value     interface{} `json:"value"`
	APIRef    string      `json:"api_ref"`
}

type STKPushResponse struct {
	ID      string  `json:"id"`
	Invoice Invoice `json:"invoice"`
}

// STKPush asks the customer's phone to authorize a payment.
func (c *Client) STKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error) {
	req.PublicKey = c.publicKey
	var resp STKPushResponse
	if _, err := c.post(ctx, stkPushPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type TransferItem struct {
	Name      string  `json:"name,omitempty"`
	Account   string  `json:"account"`
	Amount    float64 `json:"amount"`
	Narrative string  `json:"narrative,omitempty"`
}

type TransferRequest struct {
	Currency     string         `json:"currency"`
	Provider     string         `json:"provider"`
	Transactions []TransferItem `json:"transactions"`
	CallbackURL  string         `json:"callback_url,omitempty"`
}

type TransferResponse struct {
	TrackingID string `json:"tracking_id"`
	Status     string `json:"status"`
	Nonce      string `json:"nonce"`

	Raw map[string]interface{} `json:"-"`
}

// Transfer initiates an M-Pesa B2C transfer and approves the batch.
func (c *Client) Transfer(ctx context.Context, req TransferRequest) (*TransferResponse, error) {
	if req.Provider == "" {
		req.Provider = ProviderMpesaB2C
	}
	var initiated TransferResponse
	raw, err := c.post(ctx, sendMoneyPath, req, &initiated)
	if err != nil {
		return nil, err
	}
	initiated.Raw = raw

	if initiated.Nonce == "" {
		return &initiated, nil
	}

	var approved TransferResponse
	raw, err = c.post(ctx, approveMoneyPath, initiated.Raw, &approved)
	if err != nil {
		return nil, fmt.Errorf("approve transfer %s: %w", initiated.TrackingID, err)
	}
	approved.Raw = raw
	if approved.TrackingID == "" {
		approved.TrackingID = initiated.TrackingID
	}
	if strings.EqualFold(approved.Status, "failed") {
		return nil, fmt.Errorf("transfer %s failed", approved.TrackingID)
	}
	return &approved, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, dest interface{}) (map[string]interface{}, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	raw := map[string]interface{}{}
	_ = json.Unmarshal(data, &raw)
	return raw, nil
}
