package models

import "time"

// Recording is an audio sample attached to a queue entry. Recordings are kept
// on the device only and are removed together with their patient.
type Recording struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patient_id"`
	Format     string    `json:"format"`
	Data       []byte    `json:"-"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
