package outboundcall

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// DNCList answers whether an owner may call a number. Checked before every
// attempt because opt-outs can land while an operation waits in the queue.
type DNCList interface {
	Contains(ctx context.Context, ownerID, number string) (bool, error)
}

// StaticDNCList is an in-memory DNCList for tests and single-node setups.
type StaticDNCList struct {
	mu      sync.RWMutex
	numbers map[string]struct{}
}

// NewStaticDNCList creates an empty list.
func NewStaticDNCList() *StaticDNCList {
	return &StaticDNCList{numbers: make(map[string]struct{})}
}

// Add marks a number as opted out for the owner.
func (l *StaticDNCList) Add(ownerID, number string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.numbers[ownerID+"/"+number] = struct{}{}
}

// Contains implements DNCList.
func (l *StaticDNCList) Contains(ctx context.Context, ownerID, number string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.numbers[ownerID+"/"+number]
	return ok, nil
}

// RedisDNCList keeps per-owner opt-out sets in Redis so every worker sees an
// opt-out as soon as it lands.
type RedisDNCList struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisDNCList creates a DNCList over the given client. An empty prefix
// defaults to "redial:dnc".
func NewRedisDNCList(client redis.UniversalClient, prefix string) *RedisDNCList {
	if prefix == "" {
		prefix = "redial:dnc"
	}
	return &RedisDNCList{client: client, prefix: prefix}
}

// Contains implements DNCList.
func (l *RedisDNCList) Contains(ctx context.Context, ownerID, number string) (bool, error) {
	ok, err := l.client.SIsMember(ctx, l.key(ownerID), number).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check do-not-call list: %w", err)
	}
	return ok, nil
}

// Add marks a number as opted out for the owner.
func (l *RedisDNCList) Add(ctx context.Context, ownerID, number string) error {
	if err := l.client.SAdd(ctx, l.key(ownerID), number).Err(); err != nil {
		return fmt.Errorf("failed to add number to do-not-call list: %w", err)
	}
	return nil
}

func (l *RedisDNCList) key(ownerID string) string {
	return l.prefix + ":" + ownerID
}
