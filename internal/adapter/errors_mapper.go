package adapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

func mapHTTPError(resp *resty.Response) error {
	return mapStatus(resp.StatusCode(), resp.Body())
}

func mapStatus(code int, raw []byte) error {
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	body := errorDetail(raw)

	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrBadRequest, body)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, body)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, body)
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: http %d", ErrUnavailable, code)
	}

	if body == "" {
		body = http.StatusText(code)
	}
	if code >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s", ErrInternalServerError, body)
	}
	return fmt.Errorf("%w: http %d: %s", ErrUnexpectedStatus, code, body)
}

// errorDetail extracts the "detail" message the queue server puts into error
// bodies, falling back to the raw body.
func errorDetail(raw []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			return s
		}
		b, _ := json.Marshal(payload.Detail)
		return string(b)
	}
	return strings.TrimSpace(string(raw))
}
