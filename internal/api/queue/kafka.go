package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jewan100/message-queue-study/shared/kafka"
)

// partitionSender is the slice of the Kafka client this transport needs
type partitionSender interface {
	SendToPartition(partition int32, body []byte) error
}

// KafkaTransport announces jobs on a log-structured broker. Each
// announcement is serialized to flat JSON and sent to partition
// jobID mod partitions with no message key.
type KafkaTransport struct {
	sender     partitionSender
	partitions int32
	logger     *slog.Logger
}

// NewKafkaTransport creates a Kafka-backed transport
func NewKafkaTransport(client *kafka.Client, partitions int32, logger *slog.Logger) *KafkaTransport {
	return &KafkaTransport{
		sender:     client,
		partitions: partitions,
		logger:     logger,
	}
}

func (t *KafkaTransport) Name() string {
	return "kafka"
}

// Publish sends the job announcement to the partition selected by the
// job id
func (t *KafkaTransport) Publish(ctx context.Context, jobID int64, pdfName string) error {
	fields := announcementFields(jobID, pdfName)

	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to serialize job announcement: %w", err)
	}

	partition := partitionFor(jobID, t.partitions)

	if err := t.sender.SendToPartition(partition, body); err != nil {
		return fmt.Errorf("failed to publish job %d to Kafka: %w", jobID, err)
	}

	t.logger.Debug("Job announced on Kafka",
		slog.Int64("job_id", jobID),
		slog.Int("partition", int(partition)),
	)

	return nil
}
