package availability

import (
	"context"
	"fmt"
	"time"

	slotRepo "github.com/nambautroi00/ClinicBooking-sub002/database/repository/slot"
	"github.com/nambautroi00/ClinicBooking-sub002/models"
)

// noonMinute splits a day schedule into morning and afternoon buckets.
const noonMinute = 12 * 60

// Resolver derives which slots are selectable right now. It is a pure
// read-and-derive component: no side effects, safe to recompute on an
// interval while the patient keeps a day open (slots silently expire as
// real time passes).
type Resolver struct {
	Slots slotRepo.ScheduleSlotRepository
	Now   func() time.Time
}

func NewResolver(slots slotRepo.ScheduleSlotRepository) *Resolver {
	return &Resolver{Slots: slots, Now: time.Now}
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// IsSelectable is the single authoritative availability predicate. It is used
// both to render the day schedule and to gate slot selection, so the two can
// never drift apart.
func IsSelectable(slot models.ScheduleSlot, now time.Time) bool {
	if slot.OccupantID != "" {
		return false
	}
	if slot.Status != models.SlotAvailable {
		return false
	}
	day, err := time.ParseInLocation("2006-01-02", slot.Date, now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return false
	}
	if day.Equal(today) {
		start := day.Add(time.Duration(slot.Start) * time.Minute)
		return start.After(now)
	}
	return true
}

// DaySchedule returns the doctor's slots for one date, partitioned into
// morning and afternoon buckets and tagged with availability. A day with
// zero total slots means the doctor never published a schedule for it,
// which callers must render differently from a fully booked day.
func (r *Resolver) DaySchedule(ctx context.Context, doctorID, date string) (*models.DaySchedule, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	slots, err := r.Slots.ListSlots(ctx, doctorID, date, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots for doctor %s: %w", doctorID, err)
	}

	now := r.now()
	schedule := &models.DaySchedule{
		DoctorID:   doctorID,
		Date:       date,
		TotalCount: len(slots),
	}
	for _, slot := range slots {
		view := models.SlotView{Slot: slot, Available: IsSelectable(slot, now)}
		if view.Available {
			schedule.AvailableCount++
		}
		if slot.Start < noonMinute {
			schedule.Morning = append(schedule.Morning, view)
		} else {
			schedule.Afternoon = append(schedule.Afternoon, view)
		}
	}
	return schedule, nil
}
