package models

// SlotView is a slot tagged with its selectability at evaluation time.
type SlotView struct {
	Slot      ScheduleSlot `json:"slot"`
	Available bool         `json:"available"`
}

// DaySchedule is the resolver's output for one doctor on one date.
// TotalCount distinguishes "no schedule published" (zero total slots) from
// "fully booked" (slots exist, none available).
type DaySchedule struct {
	DoctorID       string     `json:"doctorId"`
	Date           string     `json:"date"`
	Morning        []SlotView `json:"morning"`
	Afternoon      []SlotView `json:"afternoon"`
	TotalCount     int        `json:"totalCount"`
	AvailableCount int        `json:"availableCount"`
}

// Unscheduled reports whether the doctor never published a schedule for the day.
func (d DaySchedule) Unscheduled() bool {
	return d.TotalCount == 0
}
