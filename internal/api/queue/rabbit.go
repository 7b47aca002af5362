package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jewan100/message-queue-study/shared/rabbitmq"
)

// bodyPublisher is the slice of the RabbitMQ client this transport needs
type bodyPublisher interface {
	Publish(ctx context.Context, body []byte, contentType string) error
}

// RabbitTransport announces jobs on a topic-exchange broker. The client
// publishes to one fixed exchange under one fixed routing key; the
// broker-side binding routes the message to the job queue.
type RabbitTransport struct {
	publisher bodyPublisher
	logger    *slog.Logger
}

// NewRabbitTransport creates a RabbitMQ-backed transport
func NewRabbitTransport(client *rabbitmq.Client, logger *slog.Logger) *RabbitTransport {
	return &RabbitTransport{
		publisher: client,
		logger:    logger,
	}
}

func (t *RabbitTransport) Name() string {
	return "rabbitmq"
}

// Publish sends the job announcement to the configured exchange
func (t *RabbitTransport) Publish(ctx context.Context, jobID int64, pdfName string) error {
	fields := announcementFields(jobID, pdfName)

	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to serialize job announcement: %w", err)
	}

	if err := t.publisher.Publish(ctx, body, "application/json"); err != nil {
		return fmt.Errorf("failed to publish job %d to RabbitMQ: %w", jobID, err)
	}

	t.logger.Debug("Job announced on RabbitMQ",
		slog.Int64("job_id", jobID),
	)

	return nil
}
