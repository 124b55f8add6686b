package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	intentRepo "github.com/nambautroi00/ClinicBooking-sub002/database/repository/intent"
	slotRepo "github.com/nambautroi00/ClinicBooking-sub002/database/repository/slot"
	"github.com/nambautroi00/ClinicBooking-sub002/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RedirectParams are the query parameters the provider appends when it
// redirects the patient back. All three are opaque strings forwarded
// verbatim; parsing happens against the closed status variant only.
type RedirectParams struct {
	ProviderPaymentID string
	Status            string
	OrderCode         string
}

// Signature returns the deduplication key for this redirect landing.
func (p RedirectParams) Signature() Signature {
	return Signature{
		Status:            p.Status,
		ProviderPaymentID: p.ProviderPaymentID,
		OrderCode:         p.OrderCode,
	}
}

// WatchCallback is invoked once when a watched intent settles. A non-nil err
// marks a fatal invariant violation; otherwise status carries the outcome
// (timeout is reported as FAILED without asserting a gateway-side status).
type WatchCallback func(status models.PaymentStatus, err error)

// ReminderScheduler enqueues an appointment reminder once a slot commits.
type ReminderScheduler interface {
	ScheduleAppointmentReminder(payload models.ReminderPayload, fireAt time.Time) error
}

// ReconciliationEngine bridges booking sessions to the external gateway and
// folds gateway signals back into local state exactly once per logical event.
type ReconciliationEngine interface {
	CreateIntent(ctx context.Context, slot models.ScheduleSlot, patientID string) (*models.PaymentIntent, error)
	HandleRedirect(ctx context.Context, params RedirectParams) (*models.PaymentIntent, bool, error)
	LookupIntent(ctx context.Context, intentID string) (*models.PaymentIntent, error)
	Watch(intent *models.PaymentIntent, onTerminal WatchCallback)

	// AbandonIntent stops the watcher and expires the provider-side link for
	// a still-pending intent, so an abandoned checkout cannot settle later.
	AbandonIntent(ctx context.Context, intentID string)
}

// DefaultReconciliationEngine implements ReconciliationEngine.
type DefaultReconciliationEngine struct {
	Gateway   Gateway
	Intents   intentRepo.PaymentIntentRepository
	Slots     slotRepo.ScheduleSlotRepository
	Dedup     *Deduplicator
	Reminders ReminderScheduler // optional

	SuccessURL   string
	CancelURL    string
	PollInterval time.Duration
	PollTimeout  time.Duration
	Logger       *zap.Logger

	mu       sync.Mutex
	watchers map[string]context.CancelFunc
}

func NewReconciliationEngine(
	gateway Gateway,
	intents intentRepo.PaymentIntentRepository,
	slots slotRepo.ScheduleSlotRepository,
	logger *zap.Logger,
) *DefaultReconciliationEngine {
	return &DefaultReconciliationEngine{
		Gateway:      gateway,
		Intents:      intents,
		Slots:        slots,
		Dedup:        NewDeduplicator(),
		PollInterval: 2 * time.Second,
		PollTimeout:  2 * time.Minute,
		Logger:       logger,
		watchers:     make(map[string]context.CancelFunc),
	}
}

// CreateIntent opens a payment attempt with the gateway and mirrors it
// locally as PENDING. The caller navigates the patient to CheckoutURL.
func (e *DefaultReconciliationEngine) CreateIntent(ctx context.Context, slot models.ScheduleSlot, patientID string) (*models.PaymentIntent, error) {
	if slot.Fee <= 0 {
		return nil, NewValidationError("slot %s has no consultation fee configured", slot.ID)
	}
	if patientID == "" {
		return nil, NewValidationError("cannot create payment intent without a resolved patient identity")
	}

	intentID := uuid.New().String()
	link, err := e.Gateway.CreatePaymentLink(ctx, PaymentLinkRequest{
		IntentID:    intentID,
		SlotID:      slot.ID,
		Amount:      slot.Fee,
		Description: fmt.Sprintf("Appointment %s %s", slot.Date, slot.ID),
		SuccessURL:  e.SuccessURL,
		CancelURL:   e.CancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open payment attempt: %w", err)
	}

	intent := &models.PaymentIntent{
		IntentID:          intentID,
		SlotID:            slot.ID,
		PatientID:         patientID,
		Amount:            slot.Fee,
		Status:            models.PaymentPending,
		ProviderPaymentID: link.ProviderPaymentID,
		OrderCode:         link.OrderCode,
		CheckoutURL:       link.CheckoutURL,
		CreatedAt:         time.Now(),
	}
	if err := e.Intents.Insert(ctx, intent); err != nil {
		return nil, fmt.Errorf("failed to mirror payment intent: %w", err)
	}
	return intent, nil
}

// HandleRedirect folds one redirect landing into local state. The returned
// bool reports whether this landing changed anything; a duplicate signature
// or an already-terminal intent is a no-op by design.
func (e *DefaultReconciliationEngine) HandleRedirect(ctx context.Context, params RedirectParams) (*models.PaymentIntent, bool, error) {
	sig := params.Signature()
	if e.Dedup.HasProcessed(sig) {
		intent, err := e.Intents.GetByProviderRef(ctx, params.ProviderPaymentID)
		if err != nil {
			return nil, false, err
		}
		return intent, false, nil
	}

	status, err := models.ParsePaymentStatus(params.Status)
	if err != nil {
		e.Logger.Warn("rejecting redirect with unknown status token",
			zap.String("status", params.Status),
			zap.String("providerPaymentId", params.ProviderPaymentID))
		return nil, false, fmt.Errorf("unusable redirect status: %w", err)
	}

	// Push the status keyed by the provider's payment id; the returned
	// canonical row tells us which slot this intent belongs to.
	intent, err := e.Intents.UpdateStatusByProviderRef(ctx, params.ProviderPaymentID, status, params.OrderCode)
	if errors.Is(err, intentRepo.ErrIntentTerminal) {
		// Terminal states are sticky; a late or contradictory redirect
		// (e.g. CANCELLED after polling already saw PAID) never changes the
		// status. The slot effect is still re-applied with the canonical
		// row: it is idempotent, and this is what repairs an effect lost to
		// a transient store failure on an earlier attempt.
		if applyErr := e.applySlotEffect(ctx, intent); applyErr != nil {
			return intent, false, applyErr
		}
		e.Dedup.MarkProcessed(sig)
		return intent, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	// A mid-processing bounce carries a non-terminal token. Nothing to fold
	// yet: the landing is not consumed and the watcher keeps running.
	if !intent.Status.Terminal() {
		return intent, false, nil
	}

	if err := e.applySlotEffect(ctx, intent); err != nil {
		return intent, true, err
	}

	e.Dedup.MarkProcessed(sig)
	e.StopWatch(intent.IntentID)
	return intent, true, nil
}

// LookupIntent returns the canonical local intent record.
func (e *DefaultReconciliationEngine) LookupIntent(ctx context.Context, intentID string) (*models.PaymentIntent, error) {
	return e.Intents.GetByID(ctx, intentID)
}

// AbandonIntent stops polling and expires the provider-side payment link.
// Best effort: the mirror keeps its status, and a terminal intent is left
// alone entirely.
func (e *DefaultReconciliationEngine) AbandonIntent(ctx context.Context, intentID string) {
	e.StopWatch(intentID)

	intent, err := e.Intents.GetByID(ctx, intentID)
	if err != nil {
		e.Logger.Warn("cannot abandon unknown payment intent",
			zap.String("intentId", intentID), zap.Error(err))
		return
	}
	if intent.Status.Terminal() {
		return
	}
	if err := e.Gateway.CancelPaymentLink(ctx, intent.ProviderPaymentID); err != nil {
		e.Logger.Warn("failed to cancel payment link",
			zap.String("intentId", intentID), zap.Error(err))
	}
}

// settle moves the intent to a terminal status and applies the slot effect.
// Racing channels converge here: the sticky update makes the second caller a
// no-op and returns whichever terminal status won.
func (e *DefaultReconciliationEngine) settle(ctx context.Context, intent *models.PaymentIntent, status models.PaymentStatus) (*models.PaymentIntent, error) {
	var paidAt *time.Time
	if status == models.PaymentPaid {
		now := time.Now()
		paidAt = &now
	}

	updated, err := e.Intents.UpdateStatus(ctx, intent.IntentID, status, paidAt)
	if errors.Is(err, intentRepo.ErrIntentTerminal) {
		// Converge on whichever terminal status won, re-applying the
		// idempotent slot effect in case a previous attempt lost it.
		if applyErr := e.applySlotEffect(ctx, updated); applyErr != nil {
			return updated, applyErr
		}
		return updated, nil
	}
	if err != nil {
		return nil, err
	}

	if err := e.applySlotEffect(ctx, updated); err != nil {
		return updated, err
	}
	return updated, nil
}

// applySlotEffect is the only place a slot is ever committed. Commit is
// idempotent for the same patient; a different occupant is an invariant
// violation surfaced as a hard error.
func (e *DefaultReconciliationEngine) applySlotEffect(ctx context.Context, intent *models.PaymentIntent) error {
	switch intent.Status {
	case models.PaymentPaid:
		slot, err := e.Slots.AssignOccupant(ctx, intent.SlotID, intent.PatientID)
		if errors.Is(err, slotRepo.ErrSlotConflict) {
			occupant := ""
			if slot != nil {
				occupant = slot.OccupantID
			}
			e.Logger.Error("slot already confirmed to a different patient",
				zap.String("slotId", intent.SlotID),
				zap.String("occupantId", occupant),
				zap.String("patientId", intent.PatientID))
			return &InvariantError{SlotID: intent.SlotID, Occupant: occupant, Patient: intent.PatientID}
		}
		if err != nil {
			return fmt.Errorf("failed to commit slot %s: %w", intent.SlotID, err)
		}
		e.scheduleReminder(slot, intent.PatientID)
		return nil
	case models.PaymentFailed, models.PaymentCancelled:
		if _, err := e.Slots.ReleaseOccupant(ctx, intent.SlotID); err != nil {
			return fmt.Errorf("failed to release slot %s: %w", intent.SlotID, err)
		}
		return nil
	default:
		return nil
	}
}

func (e *DefaultReconciliationEngine) scheduleReminder(slot *models.ScheduleSlot, patientID string) {
	if e.Reminders == nil {
		return
	}
	start, err := slot.StartTime(time.Local)
	if err != nil {
		e.Logger.Warn("cannot schedule reminder for slot with bad date", zap.String("slotId", slot.ID), zap.Error(err))
		return
	}
	payload := models.ReminderPayload{
		SlotID:    slot.ID,
		DoctorID:  slot.DoctorID,
		PatientID: patientID,
		Date:      slot.Date,
		Start:     slot.Start,
		Title:     "Upcoming appointment",
		Body:      fmt.Sprintf("You have an appointment on %s.", slot.Date),
	}
	fireAt := start.Add(-24 * time.Hour)
	if err := e.Reminders.ScheduleAppointmentReminder(payload, fireAt); err != nil {
		e.Logger.Warn("failed to enqueue appointment reminder", zap.String("slotId", slot.ID), zap.Error(err))
	}
}
