package handlers

import (
	"errors"
	"net/http"

	intentRepo "github.com/nambautroi00/ClinicBooking-sub002/database/repository/intent"
	"github.com/nambautroi00/ClinicBooking-sub002/services/booking"
	"github.com/nambautroi00/ClinicBooking-sub002/services/payment"
	"github.com/nambautroi00/ClinicBooking-sub002/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentHandler receives the gateway's redirect landings and serves the
// canonical intent record.
type PaymentHandler struct {
	Engine  payment.ReconciliationEngine
	Booking booking.BookingSessionService
	Logger  *zap.Logger
}

func NewPaymentHandler(engine payment.ReconciliationEngine, bookingSvc booking.BookingSessionService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{Engine: engine, Booking: bookingSvc, Logger: logger}
}

// Return handles the provider's success redirect.
func (h *PaymentHandler) Return(c *gin.Context) {
	h.handleRedirect(c)
}

// Cancel handles the provider's cancel redirect. Cancellation is a
// first-class outcome, not an error.
func (h *PaymentHandler) Cancel(c *gin.Context) {
	h.handleRedirect(c)
}

// handleRedirect forwards the provider's parameters verbatim into the
// reconciliation engine and folds the result into the live session, if any.
// Refreshing the landing page replays the same signature and is a no-op.
func (h *PaymentHandler) handleRedirect(c *gin.Context) {
	params := payment.RedirectParams{
		ProviderPaymentID: c.Query("id"),
		Status:            c.Query("status"),
		OrderCode:         c.Query("orderCode"),
	}
	if params.ProviderPaymentID == "" || params.Status == "" {
		utils.JSONError(c, http.StatusBadRequest, "missing redirect parameters", "")
		return
	}

	intent, applied, err := h.Engine.HandleRedirect(c.Request.Context(), params)
	if errors.Is(err, intentRepo.ErrIntentNotFound) {
		utils.JSONError(c, http.StatusNotFound, "unknown payment reference", "")
		return
	}

	var inv *payment.InvariantError
	if errors.As(err, &inv) {
		// Fatal for this booking attempt: discard the session, keep the audit row.
		if foldErr := h.Booking.ApplyPaymentOutcome(c.Request.Context(), intent.SlotID, intent.Status, inv); foldErr != nil {
			h.Logger.Error("failed to discard session after invariant violation", zap.Error(foldErr))
		}
		utils.JSONError(c, http.StatusConflict, "slot already confirmed to another patient", inv.Error())
		return
	}
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "failed to process payment redirect", err.Error())
		return
	}

	if applied {
		if foldErr := h.Booking.ApplyPaymentOutcome(c.Request.Context(), intent.SlotID, intent.Status, nil); foldErr != nil {
			h.Logger.Error("failed to fold payment outcome into session",
				zap.String("intentId", intent.IntentID), zap.Error(foldErr))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"intent":  intent,
		"applied": applied,
	})
}

// GetIntent returns the canonical local intent record. Terminal-state
// lookups are idempotent; a resumed session uses this to catch up on an
// attempt that resolved while it was away.
func (h *PaymentHandler) GetIntent(c *gin.Context) {
	intent, err := h.Engine.LookupIntent(c.Request.Context(), c.Param("intentID"))
	if errors.Is(err, intentRepo.ErrIntentNotFound) {
		utils.JSONError(c, http.StatusNotFound, "payment intent not found", "")
		return
	}
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch payment intent", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"intent": intent})
}
