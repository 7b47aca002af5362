package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jewan100/message-queue-study/shared/redis"
)

// streamAppender is the slice of the Redis client this transport needs
type streamAppender interface {
	XAdd(ctx context.Context, streamKey string, fields map[string]interface{}) (string, error)
}

// RedisTransport announces jobs on a replicated append-only stream.
// The record's fields are the announcement's field map directly; there
// is no intermediate encoding step.
type RedisTransport struct {
	appender  streamAppender
	streamKey string
	logger    *slog.Logger
}

// NewRedisTransport creates a Redis-stream-backed transport
func NewRedisTransport(client *redis.Client, streamKey string, logger *slog.Logger) *RedisTransport {
	return &RedisTransport{
		appender:  client,
		streamKey: streamKey,
		logger:    logger,
	}
}

func (t *RedisTransport) Name() string {
	return "redis"
}

// Publish appends the job announcement to the configured stream key
func (t *RedisTransport) Publish(ctx context.Context, jobID int64, pdfName string) error {
	fields := announcementFields(jobID, pdfName)

	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}

	recordID, err := t.appender.XAdd(ctx, t.streamKey, values)
	if err != nil {
		return fmt.Errorf("failed to publish job %d to Redis stream: %w", jobID, err)
	}

	t.logger.Debug("Job announced on Redis stream",
		slog.Int64("job_id", jobID),
		slog.String("record_id", recordID),
	)

	return nil
}
