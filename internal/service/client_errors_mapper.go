// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MKhiriev/triage-queue-sync/internal/adapter"
)

// userMessage turns a failed operation into the text shown in the queue
// error banner.
func userMessage(action string, err error) string {
	if err == nil {
		return ""
	}

	var reason string
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		reason = "request timed out"
	case errors.Is(err, adapter.ErrUnavailable):
		reason = "server unreachable"
	case errors.Is(err, adapter.ErrNotFound):
		reason = "patient not found on server"
	case errors.Is(err, adapter.ErrConflict):
		reason = "conflicting change on server"
	case errors.Is(err, adapter.ErrBadRequest):
		reason = "rejected by server"
		if detail := extractBody(err); detail != "" {
			reason += ": " + detail
		}
	case errors.Is(err, adapter.ErrInternalServerError), errors.Is(err, adapter.ErrUnexpectedStatus):
		reason = "server error"
	default:
		return fmt.Sprintf("Failed to %s", action)
	}

	return fmt.Sprintf("Failed to %s: %s", action, reason)
}

// extractBody returns the server detail of an adapter error of the form
// "<sentinel>: <detail>", or "" when there is none.
func extractBody(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx != -1 {
		return msg[idx+2:]
	}
	return ""
}
