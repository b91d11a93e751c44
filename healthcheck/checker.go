package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// DefaultPath is the route the Handler serves and the Checker probes when
// given a bare base URL.
const DefaultPath = "/health"

const maxBodyBytes = 64 << 10

var (
	// ErrBadResponse is returned when the endpoint answers with a body that
	// is not a health document.
	ErrBadResponse = errors.New("healthcheck: malformed health response")
)

// StatusError is a non-2xx health answer.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("healthcheck: unexpected status %d", e.Code)
}

// StatusCode lets goSession.Classify map the failure.
func (e *StatusError) StatusCode() int { return e.Code }

type wireReport struct {
	Healthy  bool `json:"healthy"`
	Services struct {
		Auth bool `json:"auth"`
	} `json:"services"`
	Message string `json:"message,omitempty"`
}

func toWire(r goSession.HealthReport) wireReport {
	var w wireReport
	w.Healthy = r.Healthy
	w.Services.Auth = r.Services.Auth
	w.Message = r.Message
	return w
}

func (w wireReport) report() goSession.HealthReport {
	return goSession.HealthReport{
		Healthy:  w.Healthy,
		Services: goSession.HealthServices{Auth: w.Services.Auth},
		Message:  w.Message,
	}
}

// Checker polls a health endpoint over HTTP.
type Checker struct {
	url    string
	client *http.Client
}

// Option configures a Checker.
type Option func(*Checker)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(ch *Checker) {
		if c != nil {
			ch.client = c
		}
	}
}

// NewChecker returns a Checker for url. Deadlines come from the context
// passed to CheckHealth.
func NewChecker(url string, opts ...Option) *Checker {
	c := &Checker{url: url, client: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckHealth implements goSession.HealthChecker. A 503 that still carries
// a health document is decoded and returned without error, so the message
// reaches the Manager.
func (c *Checker) CheckHealth(ctx context.Context) (goSession.HealthReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return goSession.HealthReport{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return goSession.HealthReport{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return goSession.HealthReport{}, err
	}

	var w wireReport
	decodeErr := json.Unmarshal(body, &w)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if decodeErr != nil {
			return goSession.HealthReport{}, fmt.Errorf("%w: %v", ErrBadResponse, decodeErr)
		}
		return w.report(), nil
	case resp.StatusCode == http.StatusServiceUnavailable && decodeErr == nil:
		r := w.report()
		r.Healthy = false
		return r, nil
	default:
		return goSession.HealthReport{}, &StatusError{Code: resp.StatusCode}
	}
}
