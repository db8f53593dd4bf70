package server

import (
	"context"
	"fmt"
	"net/http"
)

// HTTPPinger probes an HTTP dependency (e.g. the Ollama or OpenAI embedding
// endpoint) by issuing a GET to its base URL. It satisfies the Pinger
// interface and is used by GET /api/ready.
//
// Any HTTP response below 500 counts as reachable: hosted APIs answer their
// base URL with 401/404, which still proves the service is up.
type HTTPPinger struct {
	// name identifies the dependency in readiness responses.
	name string
	// url is the base URL probed with a GET request.
	url string
	// client is the HTTP client used for probes.
	client *http.Client
}

// NewHTTPPinger constructs an HTTPPinger for the given dependency name and
// base URL.
func NewHTTPPinger(name, url string) *HTTPPinger {
	return &HTTPPinger{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: probeTimeout},
	}
}

// Name returns the dependency label used in readiness responses.
func (p *HTTPPinger) Name() string { return p.name }

// Ping issues a GET to the base URL and reports reachability.
func (p *HTTPPinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("probe returned %d", resp.StatusCode)
	}
	return nil
}

// PingerFunc adapts a name and a ping function into a Pinger. It lets
// dependencies that expose only a Ping method (like the question log)
// participate in readiness checks without a dedicated type.
type PingerFunc struct {
	// PingName is the dependency label used in readiness responses.
	PingName string
	// Fn is invoked for each probe.
	Fn func(ctx context.Context) error
}

// Name returns the dependency label used in readiness responses.
func (p PingerFunc) Name() string { return p.PingName }

// Ping invokes the wrapped function.
func (p PingerFunc) Ping(ctx context.Context) error { return p.Fn(ctx) }
