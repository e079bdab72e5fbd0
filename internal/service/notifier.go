package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-lms/internal/config"
	"github.com/stemsi/exstem-lms/internal/model"
	ws "github.com/stemsi/exstem-lms/internal/websocket"
)

// RedisResultNotifier publishes result events on the student's Redis channel,
// where the result WebSocket picks them up.
type RedisResultNotifier struct {
	rdb *redis.Client
}

// NewRedisResultNotifier creates a new RedisResultNotifier.
func NewRedisResultNotifier(rdb *redis.Client) *RedisResultNotifier {
	return &RedisResultNotifier{rdb: rdb}
}

// NotifyPublished publishes a ResultPublishedEvent. Scores are not included;
// the client fetches the result over the API.
func (n *RedisResultNotifier) NotifyPublished(ctx context.Context, attempt *model.ExamAttempt) error {
	payload, err := json.Marshal(ws.ResultPublishedEvent{
		Event:     ws.EventResultPublished,
		AttemptID: attempt.ID.String(),
		ExamID:    attempt.ExamID.String(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, config.CacheKey.StudentResultChannel(attempt.StudentID), payload).Err()
}
