package models

// ReminderPayload is the asynq task body for an appointment reminder.
type ReminderPayload struct {
	SlotID    string `json:"slotId"`
	DoctorID  string `json:"doctorId"`
	PatientID string `json:"patientId"`
	Date      string `json:"date"`
	Start     int    `json:"start"` // minutes from midnight
	Title     string `json:"title"`
	Body      string `json:"body"`
}
