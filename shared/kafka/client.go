package kafka

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// Config holds Kafka producer configuration
type Config struct {
	Brokers     []string
	Topic       string
	DialTimeout time.Duration
	MaxRetries  int
}

// Client represents a Kafka producer client. The producer is configured
// with the manual partitioner so callers assign partitions explicitly.
type Client struct {
	producer sarama.SyncProducer
	config   *Config
	logger   *slog.Logger
}

// NewClient creates a new Kafka client
func NewClient(config *Config, logger *slog.Logger) (*Client, error) {
	logger.Info("Connecting to Kafka",
		slog.Any("brokers", config.Brokers),
		slog.String("topic", config.Topic),
	)

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Partitioner = sarama.NewManualPartitioner
	if config.DialTimeout > 0 {
		saramaConfig.Net.DialTimeout = config.DialTimeout
	}
	if config.MaxRetries > 0 {
		saramaConfig.Producer.Retry.Max = config.MaxRetries
	}

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		logger.Error("Failed to create Kafka producer",
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Info("Kafka producer initialized",
		slog.String("topic", config.Topic),
	)

	return &Client{
		producer: producer,
		config:   config,
		logger:   logger,
	}, nil
}

// SendToPartition sends a message to an explicit partition of the
// configured topic. No message key is set.
func (c *Client) SendToPartition(partition int32, body []byte) error {
	msg := &sarama.ProducerMessage{
		Topic:     c.config.Topic,
		Partition: partition,
		Value:     sarama.ByteEncoder(body),
	}

	p, offset, err := c.producer.SendMessage(msg)
	if err != nil {
		c.logger.Error("Failed to send message to Kafka",
			slog.String("topic", c.config.Topic),
			slog.Int("partition", int(partition)),
			slog.Any("error", err),
		)
		return fmt.Errorf("failed to send message to topic %s: %w", c.config.Topic, err)
	}

	c.logger.Debug("Message sent to Kafka",
		slog.String("topic", c.config.Topic),
		slog.Int("partition", int(p)),
		slog.Int64("offset", offset),
	)

	return nil
}

// Topic returns the configured topic name
func (c *Client) Topic() string {
	return c.config.Topic
}

// Close closes the Kafka producer
func (c *Client) Close() error {
	c.logger.Info("Closing Kafka producer")

	if err := c.producer.Close(); err != nil {
		c.logger.Error("Failed to close Kafka producer",
			slog.Any("error", err),
		)
		return err
	}

	return nil
}
