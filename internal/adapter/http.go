package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/MKhiriev/triage-queue-sync/internal/config"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/internal/utils"
	"github.com/MKhiriev/triage-queue-sync/models"
)

// maxErrorBody bounds how much of a failed stream response is read for the
// error message.
const maxErrorBody = 4 << 10

type httpServerAdapter struct {
	client *utils.HTTPClient
	// stream has no request timeout; the event stream lives until its
	// context is cancelled.
	stream     *utils.HTTPClient
	eventsPath string

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs an HTTP/REST implementation of
// [ServerAdapter]. It normalises and validates the base URL from
// adapterCfg.HTTPAddress and configures two HTTP clients on it: one with the
// configured request timeout for regular calls and one without a timeout for
// the event stream.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPServerAdapter(adapterCfg config.ClientAdapter, logger *logger.Logger) (ServerAdapter, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client := utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout)
	client.SetHeader("Accept", "application/json")

	// the stream outlives any request timeout
	stream := utils.NewHTTPClient(baseURL, 0)

	eventsPath := adapterCfg.EventsPath
	if eventsPath == "" {
		eventsPath = config.DefaultEventsPath
	}

	return &httpServerAdapter{
		client:     client,
		stream:     stream,
		eventsPath: eventsPath,
		logger:     logger,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// Ping implements [ServerAdapter] via GET /health.
func (h *httpServerAdapter) Ping(ctx context.Context) error {
	resp, err := h.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return transportError(ctx, "health request", err)
	}
	return mapHTTPError(resp)
}

// FetchQueue implements [ServerAdapter] via GET /queue, optionally filtered
// by ?status=.
func (h *httpServerAdapter) FetchQueue(ctx context.Context, status models.QueueStatus) ([]models.QueueItem, error) {
	req := h.client.R().SetContext(ctx)
	if status != "" {
		req.SetQueryParam("status", string(status))
	}

	resp, err := req.Get("/queue")
	if err != nil {
		return nil, transportError(ctx, "fetch queue request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var qr models.QueueResponse
	if err = json.Unmarshal(resp.Body(), &qr); err != nil {
		return nil, fmt.Errorf("decode queue response: %w", err)
	}
	if qr.Patients == nil {
		qr.Patients = []models.QueueItem{}
	}
	return qr.Patients, nil
}

// GetPatient implements [ServerAdapter] via GET /queue/{id}.
func (h *httpServerAdapter) GetPatient(ctx context.Context, id string) (models.QueueItem, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Get("/queue/{id}")
	if err != nil {
		return models.QueueItem{}, transportError(ctx, "get patient request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.QueueItem{}, err
	}

	var pr models.PatientResponse
	if err = json.Unmarshal(resp.Body(), &pr); err != nil {
		return models.QueueItem{}, fmt.Errorf("decode patient response: %w", err)
	}
	return pr.Patient, nil
}

// AddPatient implements [ServerAdapter]. The locally queued entry is turned
// back into the analysis payload expected by POST /queue.
func (h *httpServerAdapter) AddPatient(ctx context.Context, item models.QueueItem) (models.AddPatientResponse, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.NewPatientData(item)).
		Post("/queue")
	if err != nil {
		return models.AddPatientResponse{}, transportError(ctx, "add patient request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.AddPatientResponse{}, err
	}

	var ar models.AddPatientResponse
	if err = json.Unmarshal(resp.Body(), &ar); err != nil {
		return models.AddPatientResponse{}, fmt.Errorf("decode add patient response: %w", err)
	}
	if ar.PatientID == "" {
		return models.AddPatientResponse{}, fmt.Errorf("add patient response without patient_id")
	}

	h.logger.Debug().
		Str("func", "httpServerAdapter.AddPatient").
		Str("local_id", item.ID).
		Str("patient_id", ar.PatientID).
		Msg("patient created on server")
	return ar, nil
}

// UpdatePatient implements [ServerAdapter] via PATCH /queue/{id}.
func (h *httpServerAdapter) UpdatePatient(ctx context.Context, id string, update models.StatusUpdate) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetPathParam("id", id).
		SetBody(update).
		Patch("/queue/{id}")
	if err != nil {
		return transportError(ctx, "update patient request", err)
	}
	return mapHTTPError(resp)
}

// DeletePatient implements [ServerAdapter] via DELETE /queue/{id}.
func (h *httpServerAdapter) DeletePatient(ctx context.Context, id string) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Delete("/queue/{id}")
	if err != nil {
		return transportError(ctx, "delete patient request", err)
	}
	return mapHTTPError(resp)
}

// Stats implements [ServerAdapter] via GET /queue/stats/summary.
func (h *httpServerAdapter) Stats(ctx context.Context) (models.QueueStats, error) {
	resp, err := h.client.R().SetContext(ctx).Get("/queue/stats/summary")
	if err != nil {
		return models.QueueStats{}, transportError(ctx, "stats request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.QueueStats{}, err
	}

	var sr models.StatsResponse
	if err = json.Unmarshal(resp.Body(), &sr); err != nil {
		return models.QueueStats{}, fmt.Errorf("decode stats response: %w", err)
	}
	return sr.Stats, nil
}

// ExportCSV implements [ServerAdapter] via GET /queue/export/csv.
func (h *httpServerAdapter) ExportCSV(ctx context.Context) ([]byte, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/csv").
		Get("/queue/export/csv")
	if err != nil {
		return nil, transportError(ctx, "export csv request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// OpenEventStream implements [ServerAdapter]. The response body is handed to
// the caller unread.
func (h *httpServerAdapter) OpenEventStream(ctx context.Context) (io.ReadCloser, error) {
	resp, err := h.stream.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/event-stream").
		SetHeader("Cache-Control", "no-cache").
		Get(h.eventsPath)
	if err != nil {
		return nil, transportError(ctx, "open event stream", err)
	}

	body := resp.RawBody()
	if resp.StatusCode() != http.StatusOK {
		defer body.Close()
		raw, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
		if err = mapStatus(resp.StatusCode(), raw); err == nil {
			err = fmt.Errorf("%w: http %d", ErrUnexpectedStatus, resp.StatusCode())
		}
		return nil, err
	}
	return body, nil
}

// transportError wraps a failed round trip. Cancellation is returned as is so
// that callers can tell it apart from an unreachable server.
func transportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
