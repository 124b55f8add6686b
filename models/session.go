package models

import "time"

// BookingStep is the current position of a booking session in its lifecycle.
type BookingStep string

const (
	StepSelectingSlot BookingStep = "SelectingSlot"
	StepConfirming    BookingStep = "Confirming"
	StepPaying        BookingStep = "Paying"
	StepCompleted     BookingStep = "Completed"
	StepAbandoned     BookingStep = "Abandoned"
)

// BookingSession holds one patient's in-progress attempt to reserve a slot.
// Sessions live in Redis with a short TTL and are keyed by SessionID.
type BookingSession struct {
	SessionID  string        `json:"sessionId"`
	DoctorID   string        `json:"doctorId"`
	PatientID  string        `json:"patientId,omitempty"` // empty until identity resolves
	Date       string        `json:"date"`
	Slot       *ScheduleSlot `json:"slot,omitempty"` // snapshot taken at selection time
	Note       string        `json:"note,omitempty"`
	Step       BookingStep   `json:"step"`
	PaymentRef string        `json:"paymentRef,omitempty"` // at most one outstanding intent
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// BookingStash is the short-lived copy of a session's in-flight data, kept
// across an identity-resolution detour (forced login) and keyed by doctor.
type BookingStash struct {
	DoctorID  string    `json:"doctorId"`
	Date      string    `json:"date"`
	SlotID    string    `json:"slotId"`
	Note      string    `json:"note,omitempty"`
	StashedAt time.Time `json:"stashedAt"`
}
