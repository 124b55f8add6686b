package availability

import (
	"context"
	"testing"
	"time"

	"github.com/nambautroi00/ClinicBooking-sub002/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSlotRepo struct {
	slots []models.ScheduleSlot
}

func (s *stubSlotRepo) ListSlots(_ context.Context, doctorID, dateFrom, dateTo string) ([]models.ScheduleSlot, error) {
	var out []models.ScheduleSlot
	for _, slot := range s.slots {
		if slot.DoctorID == doctorID && slot.Date >= dateFrom && slot.Date <= dateTo {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *stubSlotRepo) GetSlot(_ context.Context, slotID string) (*models.ScheduleSlot, error) {
	for i := range s.slots {
		if s.slots[i].ID == slotID {
			return &s.slots[i], nil
		}
	}
	return nil, nil
}

func (s *stubSlotRepo) HoldSlot(context.Context, string, string) (*models.ScheduleSlot, error) {
	return nil, nil
}

func (s *stubSlotRepo) AssignOccupant(context.Context, string, string) (*models.ScheduleSlot, error) {
	return nil, nil
}

func (s *stubSlotRepo) ReleaseOccupant(context.Context, string) (*models.ScheduleSlot, error) {
	return nil, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIsSelectable(t *testing.T) {
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC) // 10:00 on 2025-03-10
	base := models.ScheduleSlot{
		ID:       "s1",
		DoctorID: "doc-1",
		Date:     "2025-03-11",
		Start:    540,
		End:      570,
		Fee:      200000,
		Status:   models.SlotAvailable,
	}

	t.Run("future day is selectable", func(t *testing.T) {
		assert.True(t, IsSelectable(base, now))
	})

	t.Run("occupied slot is not selectable", func(t *testing.T) {
		slot := base
		slot.OccupantID = "patient-9"
		assert.False(t, IsSelectable(slot, now))
	})

	t.Run("held slot is not selectable", func(t *testing.T) {
		slot := base
		slot.Status = models.SlotScheduled
		slot.HeldBy = "patient-9"
		assert.False(t, IsSelectable(slot, now))
	})

	t.Run("past day is not selectable", func(t *testing.T) {
		slot := base
		slot.Date = "2025-03-09"
		assert.False(t, IsSelectable(slot, now))
	})

	t.Run("today requires start strictly after now", func(t *testing.T) {
		slot := base
		slot.Date = "2025-03-10"
		slot.Start = 600 // 10:00, exactly now
		assert.False(t, IsSelectable(slot, now))

		slot.Start = 601
		assert.True(t, IsSelectable(slot, now))
	})
}

func TestIsSelectableMonotonicDecay(t *testing.T) {
	// A slot visible as available for today becomes unavailable at any time
	// at or past its start, without any external mutation.
	slot := models.ScheduleSlot{
		ID:     "s1",
		Date:   "2025-03-10",
		Start:  600, // 10:00
		Status: models.SlotAvailable,
	}

	before := time.Date(2025, 3, 10, 9, 59, 0, 0, time.UTC)
	atStart := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	after := time.Date(2025, 3, 10, 11, 30, 0, 0, time.UTC)

	assert.True(t, IsSelectable(slot, before))
	assert.False(t, IsSelectable(slot, atStart))
	assert.False(t, IsSelectable(slot, after))
}

func TestDaySchedulePartitionsAndCounts(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	repo := &stubSlotRepo{slots: []models.ScheduleSlot{
		{ID: "m1", DoctorID: "doc-1", Date: "2025-03-10", Start: 540, End: 570, Status: models.SlotAvailable},
		{ID: "m2", DoctorID: "doc-1", Date: "2025-03-10", Start: 600, End: 630, Status: models.SlotConfirmed, OccupantID: "p1"},
		{ID: "a1", DoctorID: "doc-1", Date: "2025-03-10", Start: 840, End: 870, Status: models.SlotAvailable},
	}}
	resolver := &Resolver{Slots: repo, Now: fixedClock(now)}

	schedule, err := resolver.DaySchedule(context.Background(), "doc-1", "2025-03-10")
	require.NoError(t, err)

	assert.Len(t, schedule.Morning, 2)
	assert.Len(t, schedule.Afternoon, 1)
	assert.Equal(t, 3, schedule.TotalCount)
	assert.Equal(t, 2, schedule.AvailableCount)
	assert.False(t, schedule.Unscheduled())

	assert.True(t, schedule.Morning[0].Available)
	assert.False(t, schedule.Morning[1].Available)
	assert.True(t, schedule.Afternoon[0].Available)
}

func TestDayScheduleDistinguishesUnscheduledFromFullyBooked(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("no schedule published", func(t *testing.T) {
		resolver := &Resolver{Slots: &stubSlotRepo{}, Now: fixedClock(now)}
		schedule, err := resolver.DaySchedule(context.Background(), "doc-1", "2025-03-12")
		require.NoError(t, err)
		assert.True(t, schedule.Unscheduled())
		assert.Zero(t, schedule.AvailableCount)
	})

	t.Run("fully booked", func(t *testing.T) {
		repo := &stubSlotRepo{slots: []models.ScheduleSlot{
			{ID: "s1", DoctorID: "doc-1", Date: "2025-03-12", Start: 540, Status: models.SlotConfirmed, OccupantID: "p1"},
		}}
		resolver := &Resolver{Slots: repo, Now: fixedClock(now)}
		schedule, err := resolver.DaySchedule(context.Background(), "doc-1", "2025-03-12")
		require.NoError(t, err)
		assert.False(t, schedule.Unscheduled())
		assert.Equal(t, 1, schedule.TotalCount)
		assert.Zero(t, schedule.AvailableCount)
	})
}

func TestDayScheduleRejectsBadDate(t *testing.T) {
	resolver := NewResolver(&stubSlotRepo{})
	_, err := resolver.DaySchedule(context.Background(), "doc-1", "12-03-2025")
	assert.Error(t, err)
}
