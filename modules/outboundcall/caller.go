package outboundcall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Call is one outbound call request handed to the platform.
type Call struct {
	OwnerID string `json:"owner_id"`
	Number  string `json:"number"`
	AgentID string `json:"agent_id"`
	Reason  string `json:"reason,omitempty"`
}

// Caller places calls through the voice platform. Implementations classify
// their failures: ErrNumberRejected when retrying cannot help,
// ErrPlatformUnavailable when it can.
type Caller interface {
	PlaceCall(ctx context.Context, call Call) error
}

// APIConfig holds voice platform API settings, loaded from the environment
// by pkg/config.
type APIConfig struct {
	BaseURL string        `env:"CALL_API_BASE_URL,required"`
	Token   string        `env:"CALL_API_TOKEN,required"`
	Timeout time.Duration `env:"CALL_API_TIMEOUT" envDefault:"30s"`
}

// APICaller places calls over the platform's HTTP API.
type APICaller struct {
	cfg    APIConfig
	client *http.Client
}

// APICallerOption configures an APICaller.
type APICallerOption func(*APICaller)

// WithAPIClient overrides the HTTP client, mainly for tests.
func WithAPIClient(client *http.Client) APICallerOption {
	return func(c *APICaller) {
		if client != nil {
			c.client = client
		}
	}
}

// NewAPICaller creates a Caller over the platform HTTP API.
func NewAPICaller(cfg APIConfig, opts ...APICallerOption) *APICaller {
	c := &APICaller{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PlaceCall implements Caller. A 2xx answer means the platform accepted the
// call; whether the callee picks up is the platform's concern, not a retry
// trigger.
func (c *APICaller) PlaceCall(ctx context.Context, call Call) error {
	body, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNumberRejected, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/calls", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNumberRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPlatformUnavailable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrPlatformUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d", ErrNumberRejected, resp.StatusCode)
	}
}
