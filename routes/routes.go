package routes

import (
	"github.com/nambautroi00/ClinicBooking-sub002/handlers"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the handlers the router wires up.
type HandlerBundle struct {
	Schedule *handlers.ScheduleHandler
	Booking  *handlers.BookingHandler
	Payment  *handlers.PaymentHandler
}

// RegisterRoutes registers all endpoints for the appointment engine.
func RegisterRoutes(r *gin.Engine, h *HandlerBundle) {
	r.GET("/healthz", handlers.Health)

	schedule := r.Group("/api/schedule")
	{
		schedule.GET("/:doctorID", h.Schedule.GetDaySchedule)
	}

	booking := r.Group("/api/booking")
	{
		booking.POST("/session", h.Booking.StartSession)
		booking.PUT("/session/:sessionID/slot", h.Booking.SelectSlot)
		booking.POST("/session/:sessionID/confirm", h.Booking.Confirm)
		booking.POST("/session/resume", h.Booking.Resume)
		booking.DELETE("/session/:sessionID", h.Booking.Cancel)
	}

	paymentGroup := r.Group("/api/payment")
	{
		paymentGroup.GET("/return", h.Payment.Return)
		paymentGroup.GET("/cancel", h.Payment.Cancel)
		paymentGroup.GET("/intents/:intentID", h.Payment.GetIntent)
	}
}
