package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	retryredis "github.com/marcelsud/integration-pipeline/retry/redis"
	"github.com/redis/go-redis/v9"
)

// completedKey holds one member per completed job, scored by completion time in ms
const completedKey = "metrics:completed"

// throughputWindow is how far back completions are kept
const throughputWindow = 15 * time.Minute

// StageCounter reports the size of each queue stage
type StageCounter interface {
	Stats(ctx context.Context) (map[string]int64, error)
}

// StatusCounter reports inbox events per status
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// RedisCollector implements the Collector interface for Redis-backed metrics
type RedisCollector struct {
	client *redis.Client
	queue  StageCounter
	events StatusCounter
	now    func() time.Time
}

// NewRedisCollector creates a new Redis metrics collector
func NewRedisCollector(client *redis.Client, queue StageCounter, events StatusCounter) *RedisCollector {
	return &RedisCollector{
		client: client,
		queue:  queue,
		events: events,
		now:    time.Now,
	}
}

// Collect gathers all metrics from Redis
func (c *RedisCollector) Collect(ctx context.Context) (Metrics, error) {
	queueLengths, err := c.GetQueueLengths(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting queue lengths: %w", err)
	}

	statusCounts, err := c.GetStatusCounts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting status counts: %w", err)
	}

	throughput, err := c.GetThroughput(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting throughput: %w", err)
	}

	workers, err := c.GetActiveWorkers(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting active workers: %w", err)
	}

	return Metrics{
		QueueLengths: queueLengths,
		StatusCounts: statusCounts,
		Throughput:   throughput,
		Workers:      workers,
		Timestamp:    c.now(),
	}, nil
}

// GetQueueLengths returns the number of jobs in each queue stage
func (c *RedisCollector) GetQueueLengths(ctx context.Context) (map[string]int64, error) {
	if c.queue == nil {
		return map[string]int64{}, nil
	}
	return c.queue.Stats(ctx)
}

// GetStatusCounts returns counts of inbox events grouped by status
func (c *RedisCollector) GetStatusCounts(ctx context.Context) (map[string]int64, error) {
	if c.events == nil {
		return map[string]int64{}, nil
	}
	return c.events.CountByStatus(ctx)
}

// GetThroughput counts jobs completed over different time windows
func (c *RedisCollector) GetThroughput(ctx context.Context) (ThroughputMetrics, error) {
	now := c.now()
	windows := []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute}

	pipe := c.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(windows))
	for i, w := range windows {
		cmds[i] = pipe.ZCount(ctx, completedKey, strconv.FormatInt(now.Add(-w).UnixMilli(), 10), "+inf")
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return ThroughputMetrics{}, fmt.Errorf("counting completed jobs: %w", err)
	}

	return ThroughputMetrics{
		LastMinute:         cmds[0].Val(),
		LastFiveMinutes:    cmds[1].Val(),
		LastFifteenMinutes: cmds[2].Val(),
	}, nil
}

// GetActiveWorkers returns the workers with a live heartbeat, grouped by queue
func (c *RedisCollector) GetActiveWorkers(ctx context.Context) (map[string][]WorkerInfo, error) {
	heartbeats, err := retryredis.GetActiveWorkers(ctx, c.client)
	if err != nil {
		return nil, err
	}

	workers := make(map[string][]WorkerInfo)
	for _, hb := range heartbeats {
		workers[hb.Queue] = append(workers[hb.Queue], WorkerInfo{
			WorkerID:      hb.WorkerID,
			Queue:         hb.Queue,
			Status:        hb.Status,
			LastHeartbeat: hb.LastHeartbeat,
		})
	}

	return workers, nil
}

// RecordCompletion adds one completed job to the throughput window
// and drops completions older than the window
func RecordCompletion(ctx context.Context, client *redis.Client, member string, at time.Time) error {
	pipe := client.TxPipeline()
	pipe.ZAdd(ctx, completedKey, redis.Z{Score: float64(at.UnixMilli()), Member: member})
	pipe.ZRemRangeByScore(ctx, completedKey, "-inf", "("+strconv.FormatInt(at.Add(-throughputWindow).UnixMilli(), 10))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("recording completion: %w", err)
	}
	return nil
}
