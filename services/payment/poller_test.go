package payment

import (
	"context"
	"testing"
	"time"

	"github.com/nambautroi00/ClinicBooking-sub002/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForOutcome(t *testing.T, ch <-chan models.PaymentStatus) models.PaymentStatus {
	t.Helper()
	select {
	case status := <-ch:
		return status
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poll outcome")
		return ""
	}
}

func TestWatchFoldsPaidStatus(t *testing.T) {
	ctx := context.Background()
	slots := newMemSlotRepo(testSlot())
	gateway := newFakeGateway()
	engine := newTestEngine(gateway, newMemIntentRepo(), slots)
	engine.PollInterval = 5 * time.Millisecond
	engine.PollTimeout = time.Second

	intent, err := engine.CreateIntent(ctx, testSlot(), "patient-1")
	require.NoError(t, err)
	_, err = slots.HoldSlot(ctx, "slot-1", "patient-1")
	require.NoError(t, err)

	outcome := make(chan models.PaymentStatus, 1)
	engine.Watch(intent, func(status models.PaymentStatus, fatal error) {
		assert.NoError(t, fatal)
		outcome <- status
	})

	// The gateway stays PENDING for a few ticks, then settles.
	time.Sleep(20 * time.Millisecond)
	gateway.setStatus(intent.ProviderPaymentID, models.PaymentPaid)

	assert.Equal(t, models.PaymentPaid, waitForOutcome(t, outcome))

	slot, err := slots.GetSlot(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, "patient-1", slot.OccupantID)
	assert.Equal(t, models.SlotConfirmed, slot.Status)

	stored, err := engine.LookupIntent(ctx, intent.IntentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, stored.Status)
	assert.NotNil(t, stored.PaidAt)
}

func TestWatchRetriesSlotCommitAfterTransientFailure(t *testing.T) {
	ctx := context.Background()
	slots := &flakySlotRepo{memSlotRepo: newMemSlotRepo(testSlot()), assignFailures: 1}
	gateway := newFakeGateway()
	engine := newTestEngine(gateway, newMemIntentRepo(), slots)
	engine.PollInterval = 5 * time.Millisecond
	engine.PollTimeout = time.Second

	intent, err := engine.CreateIntent(ctx, testSlot(), "patient-1")
	require.NoError(t, err)
	_, err = slots.HoldSlot(ctx, "slot-1", "patient-1")
	require.NoError(t, err)

	outcome := make(chan models.PaymentStatus, 1)
	engine.Watch(intent, func(status models.PaymentStatus, fatal error) {
		assert.NoError(t, fatal)
		outcome <- status
	})
	gateway.setStatus(intent.ProviderPaymentID, models.PaymentPaid)

	// The first settle attempt loses the commit to a store hiccup; the next
	// tick must re-apply it off the already-terminal row, not report success
	// with the slot left unassigned.
	assert.Equal(t, models.PaymentPaid, waitForOutcome(t, outcome))

	slot, err := slots.GetSlot(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, "patient-1", slot.OccupantID)
	assert.Equal(t, models.SlotConfirmed, slot.Status)
}

func TestRedirectWithPendingTokenKeepsWatchAlive(t *testing.T) {
	ctx := context.Background()
	slots := newMemSlotRepo(testSlot())
	gateway := newFakeGateway()
	engine := newTestEngine(gateway, newMemIntentRepo(), slots)
	engine.PollInterval = 5 * time.Millisecond
	engine.PollTimeout = time.Second

	intent, err := engine.CreateIntent(ctx, testSlot(), "patient-1")
	require.NoError(t, err)
	_, err = slots.HoldSlot(ctx, "slot-1", "patient-1")
	require.NoError(t, err)

	outcome := make(chan models.PaymentStatus, 1)
	engine.Watch(intent, func(status models.PaymentStatus, fatal error) {
		assert.NoError(t, fatal)
		outcome <- status
	})

	// Provider bounced the patient back mid-processing. Nothing settles and
	// the watcher must survive the landing.
	landed, applied, err := engine.HandleRedirect(ctx, RedirectParams{
		ProviderPaymentID: intent.ProviderPaymentID,
		Status:            "PROCESSING",
		OrderCode:         intent.OrderCode,
	})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, models.PaymentPending, landed.Status)

	gateway.setStatus(intent.ProviderPaymentID, models.PaymentPaid)
	assert.Equal(t, models.PaymentPaid, waitForOutcome(t, outcome))
}

func TestWatchSwallowsTransientErrors(t *testing.T) {
	ctx := context.Background()
	slots := newMemSlotRepo(testSlot())
	gateway := newFakeGateway()
	engine := newTestEngine(gateway, newMemIntentRepo(), slots)
	engine.PollInterval = 5 * time.Millisecond
	engine.PollTimeout = time.Second

	intent, err := engine.CreateIntent(ctx, testSlot(), "patient-1")
	require.NoError(t, err)

	// First ticks fail; the poller must keep going rather than escalate.
	gateway.mu.Lock()
	gateway.errs[intent.ProviderPaymentID] = context.DeadlineExceeded
	gateway.mu.Unlock()

	outcome := make(chan models.PaymentStatus, 1)
	engine.Watch(intent, func(status models.PaymentStatus, fatal error) {
		assert.NoError(t, fatal)
		outcome <- status
	})

	time.Sleep(25 * time.Millisecond)
	gateway.mu.Lock()
	delete(gateway.errs, intent.ProviderPaymentID)
	gateway.statuses[intent.ProviderPaymentID] = models.PaymentCancelled
	gateway.mu.Unlock()

	assert.Equal(t, models.PaymentCancelled, waitForOutcome(t, outcome))
}

func TestWatchTimeoutReportsFailureWithoutAssertingGatewayState(t *testing.T) {
	ctx := context.Background()
	slots := newMemSlotRepo(testSlot())
	gateway := newFakeGateway()
	intents := newMemIntentRepo()
	engine := newTestEngine(gateway, intents, slots)
	engine.PollInterval = 5 * time.Millisecond
	engine.PollTimeout = 30 * time.Millisecond

	intent, err := engine.CreateIntent(ctx, testSlot(), "patient-1")
	require.NoError(t, err)
	_, err = slots.HoldSlot(ctx, "slot-1", "patient-1")
	require.NoError(t, err)

	outcome := make(chan models.PaymentStatus, 1)
	engine.Watch(intent, func(status models.PaymentStatus, fatal error) {
		assert.NoError(t, fatal)
		outcome <- status
	})

	// Gateway never reaches a terminal status within the window.
	assert.Equal(t, models.PaymentFailed, waitForOutcome(t, outcome))

	// The hold is released; the slot stays unoccupied.
	slot, err := slots.GetSlot(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, models.SlotAvailable, slot.Status)
	assert.Empty(t, slot.OccupantID)

	// The local mirror is NOT forced terminal: the gateway's own record may
	// still resolve and be folded in by a later direct lookup.
	stored, err := intents.GetByID(ctx, intent.IntentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, stored.Status)

	// The provider-side link is expired so the abandoned checkout cannot
	// settle afterwards.
	gateway.mu.Lock()
	linkStatus := gateway.statuses[intent.ProviderPaymentID]
	gateway.mu.Unlock()
	assert.Equal(t, models.PaymentCancelled, linkStatus)
}

func TestStopWatchCancelsPolling(t *testing.T) {
	ctx := context.Background()
	slots := newMemSlotRepo(testSlot())
	gateway := newFakeGateway()
	engine := newTestEngine(gateway, newMemIntentRepo(), slots)
	engine.PollInterval = 5 * time.Millisecond
	engine.PollTimeout = time.Second

	intent, err := engine.CreateIntent(ctx, testSlot(), "patient-1")
	require.NoError(t, err)

	fired := make(chan models.PaymentStatus, 1)
	engine.Watch(intent, func(status models.PaymentStatus, fatal error) {
		fired <- status
	})
	engine.StopWatch(intent.IntentID)

	// Settling after the stop must not invoke the callback: the session that
	// owned this watch is gone.
	gateway.setStatus(intent.ProviderPaymentID, models.PaymentPaid)
	select {
	case status := <-fired:
		t.Fatalf("callback fired with %s after StopWatch", status)
	case <-time.After(50 * time.Millisecond):
	}
}
