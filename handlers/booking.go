package handlers

import (
	"errors"
	"net/http"

	"github.com/nambautroi00/ClinicBooking-sub002/middleware"
	"github.com/nambautroi00/ClinicBooking-sub002/services/booking"
	"github.com/nambautroi00/ClinicBooking-sub002/services/payment"
	"github.com/nambautroi00/ClinicBooking-sub002/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking session state machine over HTTP.
type BookingHandler struct {
	Service booking.BookingSessionService
	Logger  *zap.Logger
}

func NewBookingHandler(service booking.BookingSessionService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: service, Logger: logger}
}

// StartSession creates a new booking session for a doctor and date.
func (h *BookingHandler) StartSession(c *gin.Context) {
	var input struct {
		DoctorID string `json:"doctorId" binding:"required"`
		Date     string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	session, err := h.Service.StartSession(c.Request.Context(), input.DoctorID, input.Date, middleware.PatientID(c))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to start booking session", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// SelectSlot attaches a slot to the session and moves it to confirmation.
func (h *BookingHandler) SelectSlot(c *gin.Context) {
	sessionID := c.Param("sessionID")
	var input struct {
		SlotID string `json:"slotId" binding:"required"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	session, err := h.Service.SelectSlot(c.Request.Context(), sessionID, input.SlotID, input.Note)
	var conflict *booking.ConflictError
	switch {
	case errors.As(err, &conflict):
		// Expected race with another patient; the client refreshes the list.
		c.JSON(http.StatusConflict, gin.H{"session": session, "error": conflict.Error()})
	case errors.Is(err, booking.ErrSessionNotFound):
		utils.JSONError(c, http.StatusNotFound, "booking session not found or expired", "")
	case err != nil:
		utils.JSONError(c, http.StatusInternalServerError, "failed to select slot", err.Error())
	default:
		c.JSON(http.StatusOK, gin.H{"session": session})
	}
}

// Confirm opens the payment intent and hands back the checkout URL. Without
// a resolved identity the in-flight data is stashed and 401 is returned with
// stashed=true so the client can detour through login and resume.
func (h *BookingHandler) Confirm(c *gin.Context) {
	sessionID := c.Param("sessionID")

	session, intent, err := h.Service.Confirm(c.Request.Context(), sessionID)
	var conflict *booking.ConflictError
	var validation *payment.ValidationError
	switch {
	case errors.Is(err, booking.ErrIdentityRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"stashed": true, "error": "login required to confirm booking"})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"session": session, "error": conflict.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"session": session, "error": validation.Error()})
	case errors.Is(err, booking.ErrSessionNotFound):
		utils.JSONError(c, http.StatusNotFound, "booking session not found or expired", "")
	case err != nil:
		h.Logger.Error("confirm failed", zap.String("sessionId", sessionID), zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "failed to open payment attempt", err.Error())
	default:
		c.JSON(http.StatusOK, gin.H{
			"session":     session,
			"intentId":    intent.IntentID,
			"checkoutUrl": intent.CheckoutURL,
		})
	}
}

// Resume restores a stashed booking after the login detour.
func (h *BookingHandler) Resume(c *gin.Context) {
	patientID := middleware.PatientID(c)
	if patientID == "" {
		utils.JSONError(c, http.StatusUnauthorized, "identity required to resume booking", "")
		return
	}
	var input struct {
		DoctorID string `json:"doctorId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	session, err := h.Service.ResumeSession(c.Request.Context(), input.DoctorID, patientID)
	if errors.Is(err, booking.ErrSessionNotFound) {
		utils.JSONError(c, http.StatusNotFound, "no stashed booking to resume", "")
		return
	}
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to resume booking session", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// Cancel abandons the session.
func (h *BookingHandler) Cancel(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if err := h.Service.CancelSession(c.Request.Context(), sessionID); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to cancel booking session", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}
