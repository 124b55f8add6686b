package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	slotRepo "github.com/nambautroi00/ClinicBooking-sub002/database/repository/slot"
	"github.com/nambautroi00/ClinicBooking-sub002/models"
	"github.com/nambautroi00/ClinicBooking-sub002/services/availability"
	"github.com/nambautroi00/ClinicBooking-sub002/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *DefaultBookingSessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// StartSession creates a new booking session at the slot-selection step.
// PatientID may be empty; identity is resolved lazily before confirmation.
func (s *DefaultBookingSessionService) StartSession(ctx context.Context, doctorID, date, patientID string) (*models.BookingSession, error) {
	now := s.now()
	session := &models.BookingSession{
		SessionID: uuid.New().String(),
		DoctorID:  doctorID,
		PatientID: patientID,
		Date:      date,
		Step:      models.StepSelectingSlot,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SelectSlot moves the session to the confirmation step. Availability is
// re-checked here defensively: slot state may have changed between render
// and click, so the rendered list is never trusted.
func (s *DefaultBookingSessionService) SelectSlot(ctx context.Context, sessionID, slotID, note string) (*models.BookingSession, error) {
	session, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step != models.StepSelectingSlot && session.Step != models.StepConfirming {
		return nil, &TransitionError{From: string(session.Step), Attempt: "select a slot"}
	}

	slot, err := s.Slots.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if !availability.IsSelectable(*slot, s.now()) {
		// Lost the race with another patient (or the slot expired). The
		// session drops back to selection and the caller refreshes the list.
		session.Slot = nil
		session.Step = models.StepSelectingSlot
		session.UpdatedAt = s.now()
		if saveErr := s.Sessions.Save(ctx, session); saveErr != nil {
			return nil, saveErr
		}
		return session, &ConflictError{SlotID: slotID}
	}

	session.Slot = slot
	session.Date = slot.Date
	session.Note = note
	session.Step = models.StepConfirming
	session.UpdatedAt = s.now()
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Confirm opens exactly one payment intent for the selected slot and moves
// the session to Paying. Without a resolved identity the in-flight data is
// stashed (keyed by doctor) and ErrIdentityRequired is returned; the flow
// suspends until ResumeSession.
func (s *DefaultBookingSessionService) Confirm(ctx context.Context, sessionID string) (*models.BookingSession, *models.PaymentIntent, error) {
	session, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Step != models.StepConfirming {
		return nil, nil, &TransitionError{From: string(session.Step), Attempt: "confirm"}
	}
	if session.Slot == nil {
		return nil, nil, &TransitionError{From: string(session.Step), Attempt: "confirm without a slot"}
	}

	if session.PatientID == "" {
		stash := models.BookingStash{
			DoctorID:  session.DoctorID,
			Date:      session.Date,
			SlotID:    session.Slot.ID,
			Note:      session.Note,
			StashedAt: s.now(),
		}
		if err := s.Stash.Put(ctx, stash); err != nil {
			return nil, nil, err
		}
		return session, nil, ErrIdentityRequired
	}

	// Hold the slot before opening the payment attempt, so the commit later
	// always follows a recent observation of an unoccupied slot.
	heldSlotID := session.Slot.ID
	if _, err := s.Slots.HoldSlot(ctx, heldSlotID, session.PatientID); err != nil {
		if errors.Is(err, slotRepo.ErrSlotConflict) {
			session.Slot = nil
			session.Step = models.StepSelectingSlot
			session.UpdatedAt = s.now()
			if saveErr := s.Sessions.Save(ctx, session); saveErr != nil {
				return nil, nil, saveErr
			}
			return session, nil, &ConflictError{SlotID: heldSlotID}
		}
		return nil, nil, err
	}

	// Re-entering confirmation abandons any prior non-terminal intent: the
	// watcher is stopped and the provider-side link expired, so only the new
	// attempt can settle.
	if session.PaymentRef != "" {
		s.Engine.AbandonIntent(ctx, session.PaymentRef)
	}

	intent, err := s.Engine.CreateIntent(ctx, *session.Slot, session.PatientID)
	if err != nil {
		if _, relErr := s.Slots.ReleaseOccupant(ctx, session.Slot.ID); relErr != nil {
			utils.GetLogger().Warn("failed to release slot hold after intent failure",
				zap.String("slotId", session.Slot.ID), zap.Error(relErr))
		}
		// Session stays at Confirming; the failure reason is surfaced.
		return session, nil, err
	}

	session.PaymentRef = intent.IntentID
	session.Step = models.StepPaying
	session.UpdatedAt = s.now()
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, nil, err
	}

	sessionID = session.SessionID
	slotID := session.Slot.ID
	s.Engine.Watch(intent, func(status models.PaymentStatus, fatal error) {
		cbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.ApplyPaymentOutcome(cbCtx, slotID, status, fatal); err != nil {
			utils.GetLogger().Error("failed to apply payment outcome",
				zap.String("sessionId", sessionID), zap.Error(err))
		}
	})

	return session, intent, nil
}

// ApplyPaymentOutcome folds a terminal payment status into the session bound
// to the slot. Both the poller and the redirect callback land here, so the
// method tolerates duplicate and late arrivals: a dead or already-settled
// session discards the signal.
func (s *DefaultBookingSessionService) ApplyPaymentOutcome(ctx context.Context, slotID string, status models.PaymentStatus, fatal error) error {
	session, err := s.Sessions.GetBySlot(ctx, slotID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if session.Step != models.StepPaying {
		return nil
	}

	if fatal != nil {
		// Invariant violation: the attempt is unrecoverable and the session
		// is the one thing we discard.
		utils.GetLogger().Error("discarding session after invariant violation",
			zap.String("sessionId", session.SessionID), zap.Error(fatal))
		return s.Sessions.Delete(ctx, session)
	}

	switch status {
	case models.PaymentPaid:
		session.Step = models.StepCompleted
		session.PaymentRef = ""
	case models.PaymentFailed, models.PaymentCancelled:
		// Retry path: back to confirmation with the same slot restored, not
		// re-queried. The slot is still logically reserved for this attempt.
		session.Step = models.StepConfirming
		session.PaymentRef = ""
	default:
		return fmt.Errorf("refusing to fold non-terminal status %s into session", status)
	}
	session.UpdatedAt = s.now()
	return s.Sessions.Save(ctx, session)
}

// ResumeSession restores a stashed booking after the identity detour. The
// machine resumes at Confirming with the original date, slot and note.
func (s *DefaultBookingSessionService) ResumeSession(ctx context.Context, doctorID, patientID string) (*models.BookingSession, error) {
	stash, err := s.Stash.Get(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if stash == nil {
		return nil, fmt.Errorf("no stashed booking for doctor %s: %w", doctorID, ErrSessionNotFound)
	}

	slot, err := s.Slots.GetSlot(ctx, stash.SlotID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &models.BookingSession{
		SessionID: uuid.New().String(),
		DoctorID:  doctorID,
		PatientID: patientID,
		Date:      stash.Date,
		Slot:      slot,
		Note:      stash.Note,
		Step:      models.StepConfirming,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	if err := s.Stash.Clear(ctx, doctorID); err != nil {
		utils.GetLogger().Warn("failed to clear booking stash", zap.String("doctorId", doctorID), zap.Error(err))
	}
	return session, nil
}

// CancelSession abandons the attempt: any pending payment is abandoned
// (poller stopped, provider link expired), any hold on the slot is released
// (never a Confirmed one) and the session is destroyed.
func (s *DefaultBookingSessionService) CancelSession(ctx context.Context, sessionID string) error {
	session, err := s.Sessions.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if session.PaymentRef != "" {
		s.Engine.AbandonIntent(ctx, session.PaymentRef)
	}
	if session.Slot != nil && session.Step != models.StepCompleted {
		if _, err := s.Slots.ReleaseOccupant(ctx, session.Slot.ID); err != nil {
			utils.GetLogger().Warn("failed to release slot on session cancel",
				zap.String("slotId", session.Slot.ID), zap.Error(err))
		}
	}
	session.Step = models.StepAbandoned
	return s.Sessions.Delete(ctx, session)
}
