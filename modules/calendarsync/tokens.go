package calendarsync

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

// TokenStore persists OAuth tokens per owner and calendar account.
// Implementations return ErrProviderDisconnected once the owner unlinks the
// calendar and ErrTokenNotFound when no token was ever stored.
type TokenStore interface {
	Token(ctx context.Context, ownerID, accountID string) (*oauth2.Token, error)
	Save(ctx context.Context, ownerID, accountID string, token *oauth2.Token) error
}

// MemoryTokenStore is an in-memory TokenStore for tests and single-node
// setups.
type MemoryTokenStore struct {
	mu           sync.RWMutex
	tokens       map[string]*oauth2.Token
	disconnected map[string]struct{}
}

// NewMemoryTokenStore creates an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		tokens:       make(map[string]*oauth2.Token),
		disconnected: make(map[string]struct{}),
	}
}

// Token implements TokenStore.
func (s *MemoryTokenStore) Token(ctx context.Context, ownerID, accountID string) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := ownerID + "/" + accountID
	if _, gone := s.disconnected[key]; gone {
		return nil, ErrProviderDisconnected
	}
	tok, ok := s.tokens[key]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return tok, nil
}

// Save implements TokenStore.
func (s *MemoryTokenStore) Save(ctx context.Context, ownerID, accountID string, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[ownerID+"/"+accountID] = token
	return nil
}

// Disconnect marks the account as unlinked by the owner.
func (s *MemoryTokenStore) Disconnect(ownerID, accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnected[ownerID+"/"+accountID] = struct{}{}
}
