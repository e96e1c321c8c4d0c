// Package httpclient builds the HTTP clients the backend adapters share.
package httpclient

import (
	"net/http"
	"time"

	"github.com/tejashwikalptaru/songscope/internal/platform/metrics"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// UserAgent is sent with every outbound request.
var UserAgent = "songscope/dev"

// New returns a client for one backend service. Requests are counted under
// service when m is non-nil. A non-positive timeout selects DefaultTimeout.
func New(service string, timeout time.Duration, m *metrics.Metrics) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var transport http.RoundTripper = userAgentTransport{next: http.DefaultTransport}
	transport = m.InstrumentTransport(service, transport)

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

type userAgentTransport struct {
	next http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", UserAgent)
	}
	return t.next.RoundTrip(req)
}
