package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	intentRepo "github.com/nambautroi00/ClinicBooking-sub002/database/repository/intent"
	slotRepo "github.com/nambautroi00/ClinicBooking-sub002/database/repository/slot"
	"github.com/nambautroi00/ClinicBooking-sub002/models"

	"go.uber.org/zap"
)

// memSlotRepo mirrors the conditional-update semantics of the Mongo repo.
type memSlotRepo struct {
	mu    sync.Mutex
	slots map[string]*models.ScheduleSlot
}

func newMemSlotRepo(slots ...models.ScheduleSlot) *memSlotRepo {
	repo := &memSlotRepo{slots: make(map[string]*models.ScheduleSlot)}
	for i := range slots {
		s := slots[i]
		repo.slots[s.ID] = &s
	}
	return repo
}

func (r *memSlotRepo) get(slotID string) (*models.ScheduleSlot, error) {
	slot, ok := r.slots[slotID]
	if !ok {
		return nil, slotRepo.ErrSlotNotFound
	}
	return slot, nil
}

func (r *memSlotRepo) ListSlots(_ context.Context, doctorID, from, to string) ([]models.ScheduleSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ScheduleSlot
	for _, s := range r.slots {
		if s.DoctorID == doctorID && s.Date >= from && s.Date <= to {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memSlotRepo) GetSlot(_ context.Context, slotID string) (*models.ScheduleSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, err := r.get(slotID)
	if err != nil {
		return nil, err
	}
	copied := *slot
	return &copied, nil
}

func (r *memSlotRepo) HoldSlot(_ context.Context, slotID, patientID string) (*models.ScheduleSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, err := r.get(slotID)
	if err != nil {
		return nil, err
	}
	if slot.Status == models.SlotAvailable && slot.OccupantID == "" {
		slot.Status = models.SlotScheduled
		slot.HeldBy = patientID
		copied := *slot
		return &copied, nil
	}
	if slot.Status == models.SlotScheduled && slot.HeldBy == patientID {
		copied := *slot
		return &copied, nil
	}
	copied := *slot
	return &copied, slotRepo.ErrSlotConflict
}

func (r *memSlotRepo) AssignOccupant(_ context.Context, slotID, patientID string) (*models.ScheduleSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, err := r.get(slotID)
	if err != nil {
		return nil, err
	}
	committable := slot.Status != models.SlotCancelled &&
		(slot.OccupantID == "" || slot.OccupantID == patientID) &&
		!(slot.Status == models.SlotScheduled && slot.HeldBy != "" && slot.HeldBy != patientID)
	if committable {
		slot.Status = models.SlotConfirmed
		slot.OccupantID = patientID
		slot.HeldBy = ""
		copied := *slot
		return &copied, nil
	}
	copied := *slot
	if slot.Status == models.SlotConfirmed && slot.OccupantID == patientID {
		return &copied, nil
	}
	return &copied, slotRepo.ErrSlotConflict
}

func (r *memSlotRepo) ReleaseOccupant(_ context.Context, slotID string) (*models.ScheduleSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, err := r.get(slotID)
	if err != nil {
		return nil, err
	}
	if slot.Status != models.SlotConfirmed && slot.Status != models.SlotCancelled {
		slot.Status = models.SlotAvailable
		slot.OccupantID = ""
		slot.HeldBy = ""
	}
	copied := *slot
	return &copied, nil
}

// memIntentRepo mirrors the terminal-sticky update semantics of the Mongo repo.
type memIntentRepo struct {
	mu      sync.Mutex
	intents map[string]*models.PaymentIntent
}

func newMemIntentRepo() *memIntentRepo {
	return &memIntentRepo{intents: make(map[string]*models.PaymentIntent)}
}

func (r *memIntentRepo) Insert(_ context.Context, intent *models.PaymentIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *intent
	r.intents[intent.IntentID] = &copied
	return nil
}

func (r *memIntentRepo) GetByID(_ context.Context, intentID string) (*models.PaymentIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	intent, ok := r.intents[intentID]
	if !ok {
		return nil, intentRepo.ErrIntentNotFound
	}
	copied := *intent
	return &copied, nil
}

func (r *memIntentRepo) GetByProviderRef(_ context.Context, providerPaymentID string) (*models.PaymentIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	intent := r.byProviderRef(providerPaymentID)
	if intent == nil {
		return nil, intentRepo.ErrIntentNotFound
	}
	copied := *intent
	return &copied, nil
}

func (r *memIntentRepo) byProviderRef(providerPaymentID string) *models.PaymentIntent {
	for _, intent := range r.intents {
		if intent.ProviderPaymentID == providerPaymentID {
			return intent
		}
	}
	return nil
}

func (r *memIntentRepo) UpdateStatus(_ context.Context, intentID string, status models.PaymentStatus, paidAt *time.Time) (*models.PaymentIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	intent, ok := r.intents[intentID]
	if !ok {
		return nil, intentRepo.ErrIntentNotFound
	}
	return applySticky(intent, status, paidAt, "")
}

func (r *memIntentRepo) UpdateStatusByProviderRef(_ context.Context, providerPaymentID string, status models.PaymentStatus, orderCode string) (*models.PaymentIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	intent := r.byProviderRef(providerPaymentID)
	if intent == nil {
		return nil, intentRepo.ErrIntentNotFound
	}
	var paidAt *time.Time
	if status == models.PaymentPaid {
		now := time.Now()
		paidAt = &now
	}
	return applySticky(intent, status, paidAt, orderCode)
}

func applySticky(intent *models.PaymentIntent, status models.PaymentStatus, paidAt *time.Time, orderCode string) (*models.PaymentIntent, error) {
	if intent.Status.Terminal() {
		copied := *intent
		return &copied, intentRepo.ErrIntentTerminal
	}
	intent.Status = status
	if paidAt != nil {
		intent.PaidAt = paidAt
	}
	if orderCode != "" {
		intent.OrderCode = orderCode
	}
	copied := *intent
	return &copied, nil
}

// flakySlotRepo fails a scripted number of AssignOccupant calls before
// delegating, to exercise the retry-after-transient-failure paths.
type flakySlotRepo struct {
	*memSlotRepo
	flakeMu        sync.Mutex
	assignFailures int
}

func (r *flakySlotRepo) AssignOccupant(ctx context.Context, slotID, patientID string) (*models.ScheduleSlot, error) {
	r.flakeMu.Lock()
	if r.assignFailures > 0 {
		r.assignFailures--
		r.flakeMu.Unlock()
		return nil, errors.New("slot store momentarily unavailable")
	}
	r.flakeMu.Unlock()
	return r.memSlotRepo.AssignOccupant(ctx, slotID, patientID)
}

// fakeGateway scripts provider behavior for tests.
type fakeGateway struct {
	mu       sync.Mutex
	statuses map[string]models.PaymentStatus
	errs     map[string]error
	created  int
	polls    int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		statuses: make(map[string]models.PaymentStatus),
		errs:     make(map[string]error),
	}
}

func (g *fakeGateway) setStatus(providerPaymentID string, status models.PaymentStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[providerPaymentID] = status
}

func (g *fakeGateway) CreatePaymentLink(_ context.Context, req PaymentLinkRequest) (*PaymentLink, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created++
	providerID := "prov-" + req.IntentID
	g.statuses[providerID] = models.PaymentPending
	return &PaymentLink{
		ProviderPaymentID: providerID,
		OrderCode:         "oc-" + req.IntentID,
		CheckoutURL:       "https://gateway.example/pay/" + providerID,
	}, nil
}

func (g *fakeGateway) GetPaymentStatus(_ context.Context, providerPaymentID string) (models.PaymentStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.polls++
	if err, ok := g.errs[providerPaymentID]; ok {
		return "", err
	}
	status, ok := g.statuses[providerPaymentID]
	if !ok {
		return "", errors.New("unknown payment link")
	}
	return status, nil
}

func (g *fakeGateway) CancelPaymentLink(_ context.Context, providerPaymentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[providerPaymentID] = models.PaymentCancelled
	return nil
}

func newTestEngine(gateway Gateway, intents intentRepo.PaymentIntentRepository, slots slotRepo.ScheduleSlotRepository) *DefaultReconciliationEngine {
	engine := NewReconciliationEngine(gateway, intents, slots, zap.NewNop())
	engine.SuccessURL = "https://clinic.example/payment/return"
	engine.CancelURL = "https://clinic.example/payment/cancel"
	return engine
}
