package models

import "time"

// SlotStatus is the lifecycle state of a schedule slot.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "Available"
	SlotScheduled SlotStatus = "Scheduled" // held for an in-flight booking attempt
	SlotConfirmed SlotStatus = "Confirmed"
	SlotCancelled SlotStatus = "Cancelled"
)

// ScheduleSlot represents one bookable time unit for one doctor on one date.
type ScheduleSlot struct {
	ID         string     `bson:"id" json:"id"`
	DoctorID   string     `bson:"doctorId" json:"doctorId"`
	Date       string     `bson:"date" json:"date"`   // e.g., "2025-02-25"
	Start      int        `bson:"start" json:"start"` // minutes from midnight (e.g., 540 for 9:00 AM)
	End        int        `bson:"end" json:"end"`     // minutes from midnight
	Fee        int64      `bson:"fee" json:"fee"`     // smallest currency unit
	OccupantID string     `bson:"occupantId,omitempty" json:"occupantId,omitempty"`
	HeldBy     string     `bson:"heldBy,omitempty" json:"heldBy,omitempty"` // patient holding the slot while paying
	Status     SlotStatus `bson:"status" json:"status"`
}

// StartTime resolves the slot's start instant in the given location.
func (s ScheduleSlot) StartTime(loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", s.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(s.Start) * time.Minute), nil
}
