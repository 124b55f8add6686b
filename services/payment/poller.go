package payment

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nambautroi00/ClinicBooking-sub002/models"
)

// Watch starts polling the gateway for the intent's status on a fixed short
// interval until a terminal status is observed or the bounded lifetime
// elapses, whichever first. Restarting a watch for the same intent cancels
// the previous one; StopWatch cancels it on session teardown so a destroyed
// session is never driven by a leaked timer.
func (e *DefaultReconciliationEngine) Watch(intent *models.PaymentIntent, onTerminal WatchCallback) {
	ctx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	if old, ok := e.watchers[intent.IntentID]; ok {
		old()
	}
	e.watchers[intent.IntentID] = cancel
	e.mu.Unlock()

	go e.poll(ctx, *intent, onTerminal)
}

// StopWatch cancels the poller for the given intent, if any.
func (e *DefaultReconciliationEngine) StopWatch(intentID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cancel, ok := e.watchers[intentID]; ok {
		cancel()
		delete(e.watchers, intentID)
	}
}

func (e *DefaultReconciliationEngine) removeWatcher(intentID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cancel, ok := e.watchers[intentID]; ok {
		cancel()
		delete(e.watchers, intentID)
	}
}

func (e *DefaultReconciliationEngine) poll(ctx context.Context, intent models.PaymentIntent, onTerminal WatchCallback) {
	defer e.removeWatcher(intent.IntentID)

	ticker := time.NewTicker(e.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(e.PollTimeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-deadline.C:
			// Lifetime elapsed with no terminal signal. Treat the attempt as
			// failed locally without asserting a gateway-side terminal status
			// in the mirror: the gateway's own record is what a later redirect
			// folds in. The local hold is released (ReleaseOccupant never
			// touches Confirmed rows) and the provider-side link is expired so
			// the abandoned checkout cannot settle afterwards.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if _, err := e.Slots.ReleaseOccupant(releaseCtx, intent.SlotID); err != nil {
				e.Logger.Warn("failed to release slot hold after poll timeout",
					zap.String("slotId", intent.SlotID), zap.Error(err))
			}
			if err := e.Gateway.CancelPaymentLink(releaseCtx, intent.ProviderPaymentID); err != nil {
				e.Logger.Warn("failed to cancel payment link after poll timeout",
					zap.String("intentId", intent.IntentID), zap.Error(err))
			}
			cancel()
			onTerminal(models.PaymentFailed, nil)
			return

		case <-ticker.C:
			status, err := e.Gateway.GetPaymentStatus(ctx, intent.ProviderPaymentID)
			if err != nil {
				// Transient failure: swallow for this tick, retry next tick.
				e.Logger.Debug("payment status poll failed",
					zap.String("intentId", intent.IntentID), zap.Error(err))
				continue
			}
			if !status.Terminal() {
				continue
			}

			settleCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			settled, settleErr := e.settle(settleCtx, &intent, status)
			cancel()
			if settleErr != nil {
				var inv *InvariantError
				if errors.As(settleErr, &inv) {
					onTerminal(status, settleErr)
					return
				}
				e.Logger.Warn("failed to settle polled payment status, retrying",
					zap.String("intentId", intent.IntentID), zap.Error(settleErr))
				continue
			}
			// Report whichever terminal status actually won the sticky update.
			onTerminal(settled.Status, nil)
			return
		}
	}
}
