package payment

import (
	"context"
	"fmt"

	"github.com/nambautroi00/ClinicBooking-sub002/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// StripeGateway implements Gateway on top of Stripe Checkout Sessions.
// Selected with PAYMENT_PROVIDER=stripe; stripe.Key is set in main.
type StripeGateway struct {
	Currency string
}

func NewStripeGateway(currency string) *StripeGateway {
	return &StripeGateway{Currency: currency}
}

func (g *StripeGateway) CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*PaymentLink, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.IntentID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.Currency),
					UnitAmount: stripe.Int64(req.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}
	return &PaymentLink{
		ProviderPaymentID: s.ID,
		OrderCode:         req.IntentID,
		CheckoutURL:       s.URL,
	}, nil
}

func (g *StripeGateway) GetPaymentStatus(ctx context.Context, providerPaymentID string) (models.PaymentStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := session.Get(providerPaymentID, params)
	if err != nil {
		return "", fmt.Errorf("failed to fetch stripe checkout session: %w", err)
	}
	if s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		return models.PaymentPaid, nil
	}
	switch s.Status {
	case stripe.CheckoutSessionStatusExpired:
		return models.PaymentCancelled, nil
	case stripe.CheckoutSessionStatusComplete:
		// Complete but unpaid (e.g., delayed payment method) stays pending.
		return models.PaymentPending, nil
	default:
		return models.PaymentPending, nil
	}
}

func (g *StripeGateway) CancelPaymentLink(ctx context.Context, providerPaymentID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx

	if _, err := session.Expire(providerPaymentID, params); err != nil {
		return fmt.Errorf("failed to expire stripe checkout session: %w", err)
	}
	return nil
}
