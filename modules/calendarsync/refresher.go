package calendarsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/voicedesk/redial/pkg/dispatch"
)

// ProviderConfig holds the OAuth client credentials for one calendar
// provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// Refresher exchanges expired calendar tokens for fresh ones through each
// provider's OAuth token endpoint.
type Refresher struct {
	store     TokenStore
	providers map[string]ProviderConfig
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithProvider registers the OAuth configuration for a provider name.
func WithProvider(name string, cfg ProviderConfig) RefresherOption {
	return func(r *Refresher) {
		r.providers[name] = cfg
	}
}

// NewRefresher creates a Refresher over the given token store.
func NewRefresher(store TokenStore, opts ...RefresherOption) (*Refresher, error) {
	if store == nil {
		return nil, ErrTokenStoreNil
	}

	r := &Refresher{
		store:     store,
		providers: make(map[string]ProviderConfig),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Handler adapts the Refresher for dispatcher registration.
func (r *Refresher) Handler() dispatch.Handler {
	return dispatch.NewHandler(Kind, r.Refresh)
}

// Refresh exchanges the stored token through the provider's token endpoint
// and persists the result. An invalid_grant answer means the refresh token
// itself died and only the owner reconnecting the calendar can fix it; a
// disconnected provider is a policy block, not a failure.
func (r *Refresher) Refresh(ctx context.Context, p Payload) error {
	if p.OwnerID == "" || p.Provider == "" || p.AccountID == "" {
		return dispatch.Permanent(fmt.Errorf("%w: owner_id, provider, and account_id are required", ErrInvalidPayload))
	}

	provider, ok := r.providers[p.Provider]
	if !ok {
		return dispatch.Permanent(fmt.Errorf("%w: %q", ErrUnknownProvider, p.Provider))
	}

	stored, err := r.store.Token(ctx, p.OwnerID, p.AccountID)
	if err != nil {
		if errors.Is(err, ErrProviderDisconnected) {
			return dispatch.Blocked(err)
		}
		if errors.Is(err, ErrTokenNotFound) {
			return dispatch.Permanent(err)
		}
		return fmt.Errorf("failed to load stored token: %w", err)
	}

	cfg := &oauth2.Config{
		ClientID:     provider.ClientID,
		ClientSecret: provider.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: provider.TokenURL},
	}

	fresh, err := cfg.TokenSource(ctx, stored).Token()
	if err != nil {
		return classifyRefreshError(err)
	}

	if err := r.store.Save(ctx, p.OwnerID, p.AccountID, fresh); err != nil {
		return fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	return nil
}

// classifyRefreshError maps OAuth token endpoint failures onto the engine's
// failure classes. Anything unclassified stays transient.
func classifyRefreshError(err error) error {
	var retrieve *oauth2.RetrieveError
	if !errors.As(err, &retrieve) {
		return fmt.Errorf("token refresh failed: %w", err)
	}

	if retrieve.ErrorCode == "invalid_grant" {
		return dispatch.Permanent(fmt.Errorf("%w: %w", ErrReauthorizationRequired, err))
	}

	if retrieve.Response != nil {
		code := retrieve.Response.StatusCode
		if code == http.StatusTooManyRequests || code >= 500 {
			return fmt.Errorf("token endpoint unavailable: %w", err)
		}
		if code >= 400 {
			return dispatch.Permanent(fmt.Errorf("token endpoint rejected refresh: %w", err))
		}
	}

	return fmt.Errorf("token refresh failed: %w", err)
}
