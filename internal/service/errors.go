package service

import "errors"

var (
	// ErrPatientNotFound is returned when an operation targets an entry that
	// is not in the local queue.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrRemoveRejected is returned when the server refuses a removal; the
	// entry is restored locally.
	ErrRemoveRejected = errors.New("server rejected removal")

	ErrInvalidPatient    = errors.New("invalid patient data")
	ErrInvalidRecording  = errors.New("invalid recording")
	ErrUnknownOperation  = errors.New("unknown ledger operation")
	ErrMalformedMutation = errors.New("malformed ledger payload")
)
