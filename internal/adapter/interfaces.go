// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides transport-layer access to the remote triage queue
// server.
//
// The primary abstraction is [ServerAdapter], which decouples the sync and
// queue services from the HTTP API. The package ships an HTTP/REST
// implementation ([NewHTTPServerAdapter]) that also opens the server-sent
// event stream used for live updates.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling. [IsTransient] tells network and server failures, which are
// worth retrying, apart from rejections.
package adapter

import (
	"context"
	"io"

	"github.com/MKhiriev/triage-queue-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// ServerAdapter defines communication with the triage queue server.
// Implementations are responsible for serialisation and for mapping transport
// failures to the sentinel values defined in this package.
type ServerAdapter interface {
	// Ping checks that the server is reachable and healthy. A network failure
	// is reported as [ErrUnavailable].
	Ping(ctx context.Context) error

	// FetchQueue returns the server's queue, sorted for presentation. An empty
	// status returns every entry.
	FetchQueue(ctx context.Context, status models.QueueStatus) ([]models.QueueItem, error)

	// GetPatient returns a single entry or [ErrNotFound].
	GetPatient(ctx context.Context, id string) (models.QueueItem, error)

	// AddPatient submits a new entry. The server assigns its own identifier
	// and priority, both returned in the response.
	AddPatient(ctx context.Context, item models.QueueItem) (models.AddPatientResponse, error)

	// UpdatePatient applies a workflow update to an existing entry. Returns
	// [ErrNotFound] if the server does not know id.
	UpdatePatient(ctx context.Context, id string, update models.StatusUpdate) error

	// DeletePatient removes an entry. Returns [ErrNotFound] if the server
	// does not know id.
	DeletePatient(ctx context.Context, id string) error

	// Stats returns the server-side queue summary.
	Stats(ctx context.Context) (models.QueueStats, error)

	// ExportCSV returns the server's CSV export of the queue.
	ExportCSV(ctx context.Context) ([]byte, error)

	// OpenEventStream opens the server-sent event stream. The caller owns the
	// returned body; cancelling ctx closes it.
	OpenEventStream(ctx context.Context) (io.ReadCloser, error)
}
