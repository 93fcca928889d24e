package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcelsud/integration-pipeline/notification"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of notification.AttemptRecorder
 * One capped List per target: notification:attempts:{target_id}, oldest first
 */

const (
	keyPrefix   = "notification:attempts"
	maxAttempts = 50
	historyTTL  = 30 * 24 * time.Hour
)

type AttemptLog struct {
	client *redis.Client
}

// NewAttemptLog creates an attempt log on a shared client
func NewAttemptLog(client *redis.Client) *AttemptLog {
	return &AttemptLog{client: client}
}

// Record appends an attempt, keeping the newest 50
func (l *AttemptLog) Record(ctx context.Context, a notification.Attempt) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshaling attempt: %w", err)
	}

	key := attemptsKey(a.TargetID)
	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, -maxAttempts, -1)
		pipe.Expire(ctx, key, historyTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("recording attempt: %w", err)
	}
	return nil
}

// List returns up to limit of the most recent attempts, oldest first
func (l *AttemptLog) List(ctx context.Context, targetID string, limit int64) ([]notification.Attempt, error) {
	if limit <= 0 || limit > maxAttempts {
		limit = maxAttempts
	}

	raw, err := l.client.LRange(ctx, attemptsKey(targetID), -limit, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}

	attempts := make([]notification.Attempt, 0, len(raw))
	for _, item := range raw {
		var a notification.Attempt
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			continue
		}
		attempts = append(attempts, a)
	}
	return attempts, nil
}

func attemptsKey(targetID string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, targetID)
}
