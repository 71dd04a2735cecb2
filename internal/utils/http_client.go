package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// UserAgent is sent with every request of an [HTTPClient].
const UserAgent = "triage-queue-sync"

// HTTPClient embeds *resty.Client so callers use its request builder
// directly.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient returns an independent client rooted at baseURL. A zero
// timeout means requests are bounded only by their context, which is what
// long-lived streams need.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", UserAgent)
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &HTTPClient{Client: c}
}
