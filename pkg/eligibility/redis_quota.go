package eligibility

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisQuotaTTL keeps a day bucket alive long enough to straddle any timezone
// offset around the owner's midnight, then lets Redis reclaim it.
const redisQuotaTTL = 48 * time.Hour

// RedisQuota implements QuotaStore on Redis. INCR makes concurrent increments
// for the same owner atomic without coordination between sweep workers.
type RedisQuota struct {
	client *redis.Client
	prefix string
}

// NewRedisQuota creates a quota store over the given client. The prefix
// namespaces keys; empty defaults to "redial:quota".
func NewRedisQuota(client *redis.Client, prefix string) *RedisQuota {
	if prefix == "" {
		prefix = "redial:quota"
	}
	return &RedisQuota{client: client, prefix: prefix}
}

// Used implements QuotaReader.
func (q *RedisQuota) Used(ctx context.Context, ownerID, day string) (int, error) {
	used, err := q.client.Get(ctx, q.key(ownerID, day)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quota for owner %q: %w", ownerID, err)
	}
	return used, nil
}

// Increment implements QuotaStore.
func (q *RedisQuota) Increment(ctx context.Context, ownerID, day string) (int, error) {
	key := q.key(ownerID, day)

	pipe := q.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, redisQuotaTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment quota for owner %q: %w", ownerID, err)
	}

	return int(incr.Val()), nil
}

func (q *RedisQuota) key(ownerID, day string) string {
	return fmt.Sprintf("%s:%s:%s", q.prefix, ownerID, day)
}
