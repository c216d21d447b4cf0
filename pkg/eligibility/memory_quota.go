package eligibility

import (
	"context"
	"sync"
)

// MemoryQuota implements QuotaStore in memory for tests and local development.
// Buckets are keyed by (owner, local day); old days are never read again and
// can be dropped with Forget.
type MemoryQuota struct {
	mu   sync.Mutex
	used map[string]int
}

// NewMemoryQuota creates an empty in-memory quota store.
func NewMemoryQuota() *MemoryQuota {
	return &MemoryQuota{used: make(map[string]int)}
}

// Used implements QuotaReader.
func (q *MemoryQuota) Used(ctx context.Context, ownerID, day string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.used[quotaKey(ownerID, day)], nil
}

// Increment implements QuotaStore.
func (q *MemoryQuota) Increment(ctx context.Context, ownerID, day string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	key := quotaKey(ownerID, day)
	q.used[key]++
	return q.used[key], nil
}

// Forget drops the bucket for one owner-day.
func (q *MemoryQuota) Forget(ownerID, day string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.used, quotaKey(ownerID, day))
}

func quotaKey(ownerID, day string) string {
	return ownerID + "/" + day
}
