package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nambautroi00/ClinicBooking-sub002/models"
)

// PaymentLinkRequest is the input for opening a payment attempt with the
// external gateway.
type PaymentLinkRequest struct {
	IntentID    string
	SlotID      string
	Amount      int64
	Description string
	SuccessURL  string
	CancelURL   string
}

// PaymentLink is the gateway's answer: where to send the patient, and the
// provider-side identifiers we later reconcile against.
type PaymentLink struct {
	ProviderPaymentID string
	OrderCode         string
	CheckoutURL       string
}

// Gateway abstracts the external payment provider. The patient is navigated
// to CheckoutURL with a full-page redirect; the provider redirects back with
// its own payment id, a status token and an order code.
type Gateway interface {
	CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*PaymentLink, error)
	GetPaymentStatus(ctx context.Context, providerPaymentID string) (models.PaymentStatus, error)
	CancelPaymentLink(ctx context.Context, providerPaymentID string) error
}

// LinkGateway talks to a payment-link REST provider.
type LinkGateway struct {
	BaseURL  string
	ClientID string
	APIKey   string
	Client   *http.Client
}

func NewLinkGateway(baseURL, clientID, apiKey string) *LinkGateway {
	return &LinkGateway{
		BaseURL:  baseURL,
		ClientID: clientID,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type linkCreateRequest struct {
	OrderCode   string `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
}

type linkCreateResponse struct {
	PaymentLinkID string `json:"paymentLinkId"`
	OrderCode     string `json:"orderCode"`
	CheckoutURL   string `json:"checkoutUrl"`
}

type linkStatusResponse struct {
	PaymentLinkID string `json:"paymentLinkId"`
	Status        string `json:"status"`
}

func (g *LinkGateway) CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*PaymentLink, error) {
	body := linkCreateRequest{
		OrderCode:   req.IntentID,
		Amount:      req.Amount,
		Description: req.Description,
		ReturnURL:   req.SuccessURL,
		CancelURL:   req.CancelURL,
	}
	var resp linkCreateResponse
	if err := g.do(ctx, http.MethodPost, "/v2/payment-requests", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to create payment link: %w", err)
	}
	return &PaymentLink{
		ProviderPaymentID: resp.PaymentLinkID,
		OrderCode:         resp.OrderCode,
		CheckoutURL:       resp.CheckoutURL,
	}, nil
}

func (g *LinkGateway) GetPaymentStatus(ctx context.Context, providerPaymentID string) (models.PaymentStatus, error) {
	var resp linkStatusResponse
	if err := g.do(ctx, http.MethodGet, "/v2/payment-requests/"+providerPaymentID, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to query payment status: %w", err)
	}
	status, err := models.ParsePaymentStatus(resp.Status)
	if err != nil {
		return "", fmt.Errorf("gateway returned unusable status: %w", err)
	}
	return status, nil
}

func (g *LinkGateway) CancelPaymentLink(ctx context.Context, providerPaymentID string) error {
	if err := g.do(ctx, http.MethodPost, "/v2/payment-requests/"+providerPaymentID+"/cancel", nil, nil); err != nil {
		return fmt.Errorf("failed to cancel payment link: %w", err)
	}
	return nil
}

func (g *LinkGateway) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", g.ClientID)
	req.Header.Set("x-api-key", g.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway responded with status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}
