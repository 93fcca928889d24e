package metrics

import (
	"context"
	"time"
)

// Metrics represents the current state of the pipeline.
type Metrics struct {
	// QueueLengths maps a queue stage (ready, delayed, processing) to its size
	QueueLengths map[string]int64 `json:"queue_lengths"`

	// StatusCounts maps an inbox status to the number of events in it
	StatusCounts map[string]int64 `json:"status_counts"`

	// Throughput represents jobs completed per time window
	Throughput ThroughputMetrics `json:"throughput"`

	// Workers maps a queue name to its live workers
	Workers map[string][]WorkerInfo `json:"workers"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// ThroughputMetrics represents jobs completed over different time windows.
type ThroughputMetrics struct {
	// LastMinute is jobs completed in the last 1 minute
	LastMinute int64 `json:"last_minute"`

	// LastFiveMinutes is jobs completed in the last 5 minutes
	LastFiveMinutes int64 `json:"last_five_minutes"`

	// LastFifteenMinutes is jobs completed in the last 15 minutes
	LastFifteenMinutes int64 `json:"last_fifteen_minutes"`
}

// WorkerInfo represents information about an active worker.
type WorkerInfo struct {
	// WorkerID is a unique identifier for the worker
	WorkerID string `json:"worker_id"`

	// Queue is the queue this worker drains
	Queue string `json:"queue"`

	// Status is the current status of the worker (e.g., "running", "stopping")
	Status string `json:"status"`

	// LastHeartbeat is the timestamp of the last heartbeat
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// Collector defines the interface for collecting metrics from the pipeline.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// GetQueueLengths returns the size of every retry queue stage
	GetQueueLengths(ctx context.Context) (map[string]int64, error)

	// GetStatusCounts returns the count of inbox events by status
	GetStatusCounts(ctx context.Context) (map[string]int64, error)

	// GetThroughput returns jobs completed over time windows
	GetThroughput(ctx context.Context) (ThroughputMetrics, error)

	// GetActiveWorkers returns information about active workers per queue
	GetActiveWorkers(ctx context.Context) (map[string][]WorkerInfo, error)
}
