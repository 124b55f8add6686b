package slotRepo

import (
	"context"
	"errors"

	"github.com/nambautroi00/ClinicBooking-sub002/models"
)

// ErrSlotNotFound is returned when no slot matches the given id.
var ErrSlotNotFound = errors.New("schedule slot not found")

// ErrSlotConflict is returned when a hold or commit loses the race to another
// patient. This is an expected outcome, not an exceptional one.
var ErrSlotConflict = errors.New("schedule slot already taken")

// ScheduleSlotRepository is the authoritative store of per-doctor bookable
// time units. Occupant assignment happens only through AssignOccupant so the
// single-occupancy invariant is enforced by one conditional update.
type ScheduleSlotRepository interface {
	ListSlots(ctx context.Context, doctorID, dateFrom, dateTo string) ([]models.ScheduleSlot, error)
	GetSlot(ctx context.Context, slotID string) (*models.ScheduleSlot, error)

	// HoldSlot marks an available slot as Scheduled for the given patient's
	// in-flight attempt. Fails with ErrSlotConflict if the slot is no longer
	// available.
	HoldSlot(ctx context.Context, slotID, patientID string) (*models.ScheduleSlot, error)

	// AssignOccupant commits the slot to the patient (status Confirmed).
	// Committing a slot already confirmed to the same patient is a no-op;
	// a slot confirmed to a different patient yields ErrSlotConflict.
	AssignOccupant(ctx context.Context, slotID, patientID string) (*models.ScheduleSlot, error)

	// ReleaseOccupant returns a held slot to Available. Confirmed slots are
	// never released through this path.
	ReleaseOccupant(ctx context.Context, slotID string) (*models.ScheduleSlot, error)
}
