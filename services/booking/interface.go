package booking

import (
	"context"
	"time"

	slotRepo "github.com/nambautroi00/ClinicBooking-sub002/database/repository/slot"
	"github.com/nambautroi00/ClinicBooking-sub002/models"
	"github.com/nambautroi00/ClinicBooking-sub002/services/payment"
)

// BookingSessionService drives one patient's booking attempt through
// slot selection, confirmation and payment.
type BookingSessionService interface {
	StartSession(ctx context.Context, doctorID, date, patientID string) (*models.BookingSession, error)
	SelectSlot(ctx context.Context, sessionID, slotID, note string) (*models.BookingSession, error)
	Confirm(ctx context.Context, sessionID string) (*models.BookingSession, *models.PaymentIntent, error)
	ResumeSession(ctx context.Context, doctorID, patientID string) (*models.BookingSession, error)
	CancelSession(ctx context.Context, sessionID string) error

	// ApplyPaymentOutcome folds a settled payment into the session attached
	// to the slot, if one is still alive. Results arriving for a dead
	// session are discarded rather than reviving it.
	ApplyPaymentOutcome(ctx context.Context, slotID string, status models.PaymentStatus, fatal error) error
}

// DefaultBookingSessionService implements BookingSessionService.
type DefaultBookingSessionService struct {
	Sessions SessionStore
	Stash    StashService
	Slots    slotRepo.ScheduleSlotRepository
	Engine   payment.ReconciliationEngine
	Now      func() time.Time
}
