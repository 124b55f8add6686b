package models

import (
	"fmt"
	"strings"
	"time"
)

// PaymentStatus is the closed set of gateway statuses this service accepts.
// Raw gateway strings are parsed at the boundary; unknown values are rejected.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// Terminal reports whether no further status transition is permitted.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentPaid || s == PaymentFailed || s == PaymentCancelled
}

// ParsePaymentStatus maps a raw provider status token onto the closed variant.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PENDING", "PROCESSING":
		return PaymentPending, nil
	case "PAID", "SUCCESS", "COMPLETED":
		return PaymentPaid, nil
	case "FAILED", "ERROR":
		return PaymentFailed, nil
	case "CANCELLED", "CANCELED", "EXPIRED":
		return PaymentCancelled, nil
	default:
		return "", fmt.Errorf("unknown payment status %q", raw)
	}
}

// PaymentIntent mirrors the external gateway's record for one payment attempt.
// Intents are never deleted; terminal rows are kept as an audit trail.
type PaymentIntent struct {
	IntentID          string        `bson:"intentId" json:"intentId"`
	SlotID            string        `bson:"slotId" json:"slotId"`
	PatientID         string        `bson:"patientId" json:"patientId"`
	Amount            int64         `bson:"amount" json:"amount"`
	Status            PaymentStatus `bson:"status" json:"status"`
	ProviderPaymentID string        `bson:"providerPaymentId" json:"providerPaymentId"`
	OrderCode         string        `bson:"orderCode" json:"orderCode"`
	CheckoutURL       string        `bson:"checkoutUrl" json:"checkoutUrl"`
	CreatedAt         time.Time     `bson:"createdAt" json:"createdAt"`
	PaidAt            *time.Time    `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}
