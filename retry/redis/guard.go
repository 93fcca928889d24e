package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard is a retry.TerminalGuard backed by SETNX keys
type Guard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGuard creates a guard whose markers expire after ttl
// The ttl must outlive the longest retry schedule
func NewGuard(client *redis.Client, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Guard{client: client, ttl: ttl}
}

// MarkTerminal returns true only for the first caller per job id
func (g *Guard) MarkTerminal(ctx context.Context, jobID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, guardKey(jobID), time.Now().UnixMilli(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setting terminal marker: %w", err)
	}
	return ok, nil
}

// Release deletes the marker so the terminal path can run again
func (g *Guard) Release(ctx context.Context, jobID string) error {
	if err := g.client.Del(ctx, guardKey(jobID)).Err(); err != nil {
		return fmt.Errorf("deleting terminal marker: %w", err)
	}
	return nil
}

func guardKey(jobID string) string {
	return fmt.Sprintf("retry:terminal:%s", jobID)
}
