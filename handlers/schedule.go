package handlers

import (
	"net/http"
	"time"

	"github.com/nambautroi00/ClinicBooking-sub002/services/availability"
	"github.com/nambautroi00/ClinicBooking-sub002/utils"

	"github.com/gin-gonic/gin"
)

// ScheduleHandler serves derived slot availability.
type ScheduleHandler struct {
	Resolver *availability.Resolver
}

func NewScheduleHandler(resolver *availability.Resolver) *ScheduleHandler {
	return &ScheduleHandler{Resolver: resolver}
}

// GetDaySchedule returns the doctor's slots for one date, partitioned into
// morning and afternoon buckets. `notScheduled` distinguishes a day the
// doctor never published from a fully booked one.
func (h *ScheduleHandler) GetDaySchedule(c *gin.Context) {
	doctorID := c.Param("doctorID")
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	schedule, err := h.Resolver.DaySchedule(c.Request.Context(), doctorID, date)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "failed to resolve day schedule", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"schedule":     schedule,
		"notScheduled": schedule.Unscheduled(),
		"fullyBooked":  !schedule.Unscheduled() && schedule.AvailableCount == 0,
	})
}
