package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-lms/internal/config"
)

// popDueScript claims due members atomically, so two workers never receive
// the same attempt from one queue entry.
var popDueScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
if #ids > 0 then
	redis.call('ZREM', KEYS[1], unpack(ids))
end
return ids
`)

// PublicationQueue is a Redis sorted set of attempt ids scored by their
// publish-due time in unix milliseconds.
type PublicationQueue struct {
	rdb *redis.Client
	key string
}

// NewPublicationQueue creates a new PublicationQueue.
func NewPublicationQueue(rdb *redis.Client) *PublicationQueue {
	return &PublicationQueue{rdb: rdb, key: config.WorkerKey.PublicationQueue}
}

// Enqueue schedules attemptID for dueAt. Re-enqueueing moves the due time.
func (q *PublicationQueue) Enqueue(ctx context.Context, attemptID uuid.UUID, dueAt time.Time) error {
	return q.rdb.ZAdd(ctx, q.key, redis.Z{
		Score:  float64(dueAt.UnixMilli()),
		Member: attemptID.String(),
	}).Err()
}

// PopDue removes and returns up to limit attempts due at or before now.
func (q *PublicationQueue) PopDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	raw, err := popDueScript.Run(ctx, q.rdb, []string{q.key}, now.UnixMilli(), limit).StringSlice()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("pop due: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Len returns the number of queued attempts.
func (q *PublicationQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.ZCard(ctx, q.key).Result()
}
