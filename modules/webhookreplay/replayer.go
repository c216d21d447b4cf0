package webhookreplay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voicedesk/redial/pkg/dispatch"
)

// Replayer re-delivers failed webhook payloads. Each Replay call makes
// exactly one HTTP attempt; retry pacing belongs to the dispatcher, not the
// handler.
type Replayer struct {
	client    *http.Client
	userAgent string
}

// ReplayerOption configures a Replayer.
type ReplayerOption func(*Replayer)

// WithHTTPClient overrides the HTTP client, mainly for tests and custom
// transports.
func WithHTTPClient(client *http.Client) ReplayerOption {
	return func(r *Replayer) {
		if client != nil {
			r.client = client
		}
	}
}

// WithUserAgent overrides the User-Agent header on deliveries.
func WithUserAgent(ua string) ReplayerOption {
	return func(r *Replayer) {
		if ua != "" {
			r.userAgent = ua
		}
	}
}

// NewReplayer creates a Replayer with a pooled HTTP client.
func NewReplayer(opts ...ReplayerOption) *Replayer {
	r := &Replayer{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: "redial-webhook-replay/1.0",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handler adapts the Replayer for dispatcher registration.
func (r *Replayer) Handler() dispatch.Handler {
	return dispatch.NewHandler(Kind, r.Replay)
}

// Replay POSTs the stored event to the subscriber endpoint with fresh
// signature headers. Failure classes follow HTTP semantics: 408, 429, and
// 5xx are retryable, every other non-2xx status is not.
func (r *Replayer) Replay(ctx context.Context, p Payload) error {
	if p.URL == "" || len(p.Event) == 0 {
		return dispatch.Permanent(fmt.Errorf("%w: url and event are required", ErrInvalidPayload))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(p.Event))
	if err != nil {
		return dispatch.Permanent(fmt.Errorf("%w: %w", ErrInvalidPayload, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", r.userAgent)

	if p.Secret != "" {
		sig, err := SignPayload(p.Secret, p.Event, time.Now())
		if err != nil {
			return dispatch.Permanent(err)
		}
		for k, v := range sig.Headers() {
			req.Header.Set(k, v)
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEndpointUnavailable, err)
	}
	defer func() {
		// Drain so the connection returns to the pool.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	return classifyStatus(resp.StatusCode)
}

// classifyStatus maps a delivery status onto a failure class. Transient
// statuses come back as plain errors so the dispatcher retries them.
func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusRequestTimeout,
		code == http.StatusTooManyRequests,
		code >= 500:
		return fmt.Errorf("%w: status %d", ErrEndpointUnavailable, code)
	default:
		return dispatch.Permanent(fmt.Errorf("%w: status %d", ErrEndpointRejected, code))
	}
}
