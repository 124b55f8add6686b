package intentRepo

import (
	"context"
	"errors"
	"time"

	"github.com/nambautroi00/ClinicBooking-sub002/models"
)

// ErrIntentNotFound is returned when no intent matches the given key.
var ErrIntentNotFound = errors.New("payment intent not found")

// ErrIntentTerminal is returned when an update is refused because the intent
// already reached a terminal status. Callers treat it as "already settled".
var ErrIntentTerminal = errors.New("payment intent already terminal")

// PaymentIntentRepository mirrors the gateway's payment records locally.
// Rows are never deleted; status updates are monotonic toward a terminal
// state and any transition out of a terminal state is rejected.
type PaymentIntentRepository interface {
	Insert(ctx context.Context, intent *models.PaymentIntent) error
	GetByID(ctx context.Context, intentID string) (*models.PaymentIntent, error)
	GetByProviderRef(ctx context.Context, providerPaymentID string) (*models.PaymentIntent, error)

	// UpdateStatus applies a status keyed by our intent id. Returns the
	// current row together with ErrIntentTerminal when the row was already
	// terminal.
	UpdateStatus(ctx context.Context, intentID string, status models.PaymentStatus, paidAt *time.Time) (*models.PaymentIntent, error)

	// UpdateStatusByProviderRef applies a status keyed by the provider's
	// payment id, as redirect parameters carry only provider identifiers.
	UpdateStatusByProviderRef(ctx context.Context, providerPaymentID string, status models.PaymentStatus, orderCode string) (*models.PaymentIntent, error)
}
