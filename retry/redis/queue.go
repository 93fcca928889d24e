package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelsud/integration-pipeline/retry"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of retry.Queue
 * Delayed jobs wait in a Sorted Set scored by their due time (unix ms)
 * Due jobs move to the ready List, workers pop them into the processing List
 * The in-flight Hash records when each processing entry was taken
 * Everything lives in Redis, so a job waiting days for its next attempt
 * survives restarts of every worker
 */

const (
	defaultPrefix = "retry"
	promoteBatch  = 100
)

// ErrCorruptJob is returned when a queued entry can't be decoded, the entry is dropped
var ErrCorruptJob = errors.New("corrupt job entry")

type Queue struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewQueue creates a queue using the default key prefix
func NewQueue(client *redis.Client) *Queue {
	return NewQueueWithPrefix(client, defaultPrefix)
}

// NewQueueWithPrefix creates a queue whose keys start with prefix
func NewQueueWithPrefix(client *redis.Client, prefix string) *Queue {
	return &Queue{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// promoteScript moves due members from the delayed set to the ready list
// KEYS[1] = delayed, KEYS[2] = ready; ARGV[1] = now ms, ARGV[2] = batch
var promoteScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', '0', ARGV[2])
for _, member in ipairs(due) do
  redis.call('ZREM', KEYS[1], member)
  redis.call('LPUSH', KEYS[2], member)
end
return #due
`)

// requeueScript gives a stale processing entry back to the ready list
// KEYS[1] = processing, KEYS[2] = inflight, KEYS[3] = ready; ARGV[1] = entry
var requeueScript = redis.NewScript(`
local removed = redis.call('LREM', KEYS[1], 1, ARGV[1])
redis.call('HDEL', KEYS[2], ARGV[1])
if removed > 0 then
  redis.call('RPUSH', KEYS[3], ARGV[1])
end
return removed
`)

// Enqueue stores the job, runnable now or after delay
func (q *Queue) Enqueue(ctx context.Context, job retry.Job, delay time.Duration) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling job: %w", err)
	}

	if delay <= 0 {
		if err := q.client.LPush(ctx, q.key("ready"), raw).Err(); err != nil {
			return fmt.Errorf("pushing ready job: %w", err)
		}
		return nil
	}

	due := q.now().Add(delay).UnixMilli()
	err = q.client.ZAdd(ctx, q.key("delayed"), redis.Z{Score: float64(due), Member: string(raw)}).Err()
	if err != nil {
		return fmt.Errorf("scheduling delayed job: %w", err)
	}
	return nil
}

// Dequeue pops the oldest ready job into the processing list
func (q *Queue) Dequeue(ctx context.Context, wait time.Duration) (retry.Delivery, bool, error) {
	raw, err := q.client.BRPopLPush(ctx, q.key("ready"), q.key("processing"), wait).Result()
	if errors.Is(err, redis.Nil) {
		return retry.Delivery{}, false, nil
	}
	if err != nil {
		return retry.Delivery{}, false, fmt.Errorf("popping ready job: %w", err)
	}

	if err := q.client.HSet(ctx, q.key("inflight"), raw, q.now().UnixMilli()).Err(); err != nil {
		return retry.Delivery{}, false, fmt.Errorf("tracking in-flight job: %w", err)
	}

	var job retry.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		_ = q.Ack(ctx, retry.Delivery{Receipt: raw})
		return retry.Delivery{}, false, fmt.Errorf("%w: %v", ErrCorruptJob, err)
	}

	return retry.Delivery{Job: job, Receipt: raw}, true, nil
}

// Ack removes a finished job from the processing list
func (q *Queue) Ack(ctx context.Context, d retry.Delivery) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.key("processing"), 1, d.Receipt)
		pipe.HDel(ctx, q.key("inflight"), d.Receipt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("acking job: %w", err)
	}
	return nil
}

// PromoteDue moves every job whose due time has passed to the ready list
func (q *Queue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	total := 0
	for {
		n, err := promoteScript.Run(ctx, q.client,
			[]string{q.key("delayed"), q.key("ready")},
			now.UnixMilli(), promoteBatch,
		).Int()
		if err != nil {
			return total, fmt.Errorf("promoting due jobs: %w", err)
		}

		total += n
		if n < promoteBatch {
			return total, nil
		}
	}
}

// RecoverStale hands out again jobs that stayed in flight longer than olderThan
func (q *Queue) RecoverStale(ctx context.Context, olderThan time.Duration, now time.Time) (int, error) {
	entries, err := q.client.LRange(ctx, q.key("processing"), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("listing processing jobs: %w", err)
	}

	started, err := q.client.HGetAll(ctx, q.key("inflight")).Result()
	if err != nil {
		return 0, fmt.Errorf("listing in-flight jobs: %w", err)
	}

	cutoff := now.Add(-olderThan).UnixMilli()
	recovered := 0
	for _, raw := range entries {
		ts, tracked := started[raw]
		if !tracked {
			// popped but never tracked, start its clock now
			q.client.HSetNX(ctx, q.key("inflight"), raw, now.UnixMilli())
			continue
		}

		at, _ := strconv.ParseInt(ts, 10, 64)
		if at > cutoff {
			continue
		}

		n, err := requeueScript.Run(ctx, q.client,
			[]string{q.key("processing"), q.key("inflight"), q.key("ready")},
			raw,
		).Int()
		if err != nil {
			return recovered, fmt.Errorf("requeuing stale job: %w", err)
		}
		recovered += n
	}

	return recovered, nil
}

// Stats returns the size of each queue stage
func (q *Queue) Stats(ctx context.Context) (map[string]int64, error) {
	pipe := q.client.Pipeline()
	ready := pipe.LLen(ctx, q.key("ready"))
	delayed := pipe.ZCard(ctx, q.key("delayed"))
	processing := pipe.LLen(ctx, q.key("processing"))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("reading queue stats: %w", err)
	}

	return map[string]int64{
		"ready":      ready.Val(),
		"delayed":    delayed.Val(),
		"processing": processing.Val(),
	}, nil
}

// Delayed lists the delayed jobs with their due time, soonest first
func (q *Queue) Delayed(ctx context.Context, limit int64) ([]ScheduledJob, error) {
	if limit <= 0 {
		limit = 100
	}

	members, err := q.client.ZRangeWithScores(ctx, q.key("delayed"), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing delayed jobs: %w", err)
	}

	jobs := make([]ScheduledJob, 0, len(members))
	for _, m := range members {
		raw, ok := m.Member.(string)
		if !ok {
			continue
		}
		var job retry.Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			continue
		}
		jobs = append(jobs, ScheduledJob{Job: job, DueAt: time.UnixMilli(int64(m.Score)).UTC()})
	}

	return jobs, nil
}

// ScheduledJob is a delayed job and the time it becomes runnable
type ScheduledJob struct {
	Job   retry.Job
	DueAt time.Time
}

func (q *Queue) key(stage string) string {
	return fmt.Sprintf("%s:%s", q.prefix, stage)
}
