package calendarsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/oauth2"
)

// PostgresTokenStore persists OAuth tokens in the calendar_tokens table so a
// restart cannot turn every refresh into a terminal failure.
type PostgresTokenStore struct {
	pool *pgxpool.Pool
}

// NewPostgresTokenStore creates a token store over a connected pool.
func NewPostgresTokenStore(pool *pgxpool.Pool) *PostgresTokenStore {
	return &PostgresTokenStore{pool: pool}
}

// Token implements TokenStore.
func (s *PostgresTokenStore) Token(ctx context.Context, ownerID, accountID string) (*oauth2.Token, error) {
	var (
		tok          oauth2.Token
		disconnected bool
	)
	err := s.pool.QueryRow(ctx, `
		SELECT access_token, token_type, refresh_token, expiry, disconnected
		FROM calendar_tokens
		WHERE owner_id = $1 AND account_id = $2`,
		ownerID, accountID,
	).Scan(&tok.AccessToken, &tok.TokenType, &tok.RefreshToken, &tok.Expiry, &disconnected)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token for owner %q account %q: %w", ownerID, accountID, err)
	}
	if disconnected {
		return nil, ErrProviderDisconnected
	}
	return &tok, nil
}

// Save implements TokenStore. Saving reconnects a previously disconnected
// account: a fresh token can only come from the owner re-authorizing.
func (s *PostgresTokenStore) Save(ctx context.Context, ownerID, accountID string, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token for owner %q account %q", ErrInvalidPayload, ownerID, accountID)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO calendar_tokens (owner_id, account_id, access_token, token_type, refresh_token, expiry)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id, account_id) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    token_type = EXCLUDED.token_type,
		    refresh_token = EXCLUDED.refresh_token,
		    expiry = EXCLUDED.expiry,
		    disconnected = FALSE,
		    updated_at = now()`,
		ownerID, accountID, token.AccessToken, token.TokenType, token.RefreshToken, token.Expiry,
	)
	if err != nil {
		return fmt.Errorf("failed to save token for owner %q account %q: %w", ownerID, accountID, err)
	}
	return nil
}

// Disconnect marks the account as unlinked by the owner. Subsequent refreshes
// come back as policy blocks until a new token is saved.
func (s *PostgresTokenStore) Disconnect(ctx context.Context, ownerID, accountID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE calendar_tokens
		SET disconnected = TRUE, updated_at = now()
		WHERE owner_id = $1 AND account_id = $2`,
		ownerID, accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to disconnect owner %q account %q: %w", ownerID, accountID, err)
	}
	return nil
}
