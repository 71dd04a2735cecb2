// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"errors"
	"fmt"
)

// BroadcastType discriminates the [BroadcastMessage] union.
type BroadcastType string

const (
	BroadcastPatientAdded   BroadcastType = "patient_added"
	BroadcastPatientRemoved BroadcastType = "patient_removed"
	BroadcastQueueRefreshed BroadcastType = "queue_refreshed"
)

// ErrInvalidBroadcast is returned by [BroadcastMessage.Validate] when the
// payload does not match the message type.
var ErrInvalidBroadcast = errors.New("invalid broadcast message")

// BroadcastMessage is a state-change notification exchanged between instances
// of the application on the same device. Exactly one payload field is set,
// selected by Type:
//
//   - patient_added:   Patient
//   - patient_removed: PatientID
//   - queue_refreshed: Patients
//
// Messages carry no version or causal metadata. Receivers apply them in
// arrival order, so concurrent writers converge to whichever message was
// applied last.
type BroadcastMessage struct {
	Type      BroadcastType `json:"type" cbor:"type"`
	Patient   *QueueItem    `json:"patient,omitempty" cbor:"patient,omitempty"`
	PatientID string        `json:"patient_id,omitempty" cbor:"patient_id,omitempty"`
	Patients  []QueueItem   `json:"patients,omitempty" cbor:"patients,omitempty"`
}

// NewPatientAdded builds a patient_added message.
func NewPatientAdded(item QueueItem) BroadcastMessage {
	return BroadcastMessage{Type: BroadcastPatientAdded, Patient: &item}
}

// NewPatientRemoved builds a patient_removed message.
func NewPatientRemoved(id string) BroadcastMessage {
	return BroadcastMessage{Type: BroadcastPatientRemoved, PatientID: id}
}

// NewQueueRefreshed builds a queue_refreshed message. A nil slice is sent as
// an empty snapshot.
func NewQueueRefreshed(items []QueueItem) BroadcastMessage {
	if items == nil {
		items = []QueueItem{}
	}
	return BroadcastMessage{Type: BroadcastQueueRefreshed, Patients: items}
}

// Validate checks that the payload required by Type is present.
func (m BroadcastMessage) Validate() error {
	switch m.Type {
	case BroadcastPatientAdded:
		if m.Patient == nil || m.Patient.ID == "" {
			return fmt.Errorf("%w: %s without patient", ErrInvalidBroadcast, m.Type)
		}
	case BroadcastPatientRemoved:
		if m.PatientID == "" {
			return fmt.Errorf("%w: %s without id", ErrInvalidBroadcast, m.Type)
		}
	case BroadcastQueueRefreshed:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidBroadcast, m.Type)
	}
	return nil
}
