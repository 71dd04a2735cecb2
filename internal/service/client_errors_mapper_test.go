package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/MKhiriev/triage-queue-sync/internal/adapter"
	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "unreachable", err: fmt.Errorf("delete patient request: %w: %w", adapter.ErrUnavailable, errors.New("dial tcp")), want: "Failed to remove patient: server unreachable"},
		{name: "cancelled", err: fmt.Errorf("delete patient request: %w", context.Canceled), want: "Failed to remove patient: request timed out"},
		{name: "not found", err: fmt.Errorf("%w: Patient not found", adapter.ErrNotFound), want: "Failed to remove patient: patient not found on server"},
		{name: "bad request with detail", err: fmt.Errorf("%w: invalid status", adapter.ErrBadRequest), want: "Failed to remove patient: rejected by server: invalid status"},
		{name: "bad request bare", err: adapter.ErrBadRequest, want: "Failed to remove patient: rejected by server"},
		{name: "server error", err: fmt.Errorf("%w: boom", adapter.ErrInternalServerError), want: "Failed to remove patient: server error"},
		{name: "unexpected status", err: fmt.Errorf("%w: http 418: teapot", adapter.ErrUnexpectedStatus), want: "Failed to remove patient: server error"},
		{name: "anything else", err: errors.New("disk full"), want: "Failed to remove patient"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, userMessage("remove patient", tt.err))
		})
	}
}
