package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cypherlabdev/market-signal-service/internal/metrics"
	"github.com/cypherlabdev/market-signal-service/internal/models"
	"github.com/cypherlabdev/market-signal-service/internal/service"
	"github.com/cypherlabdev/market-signal-service/pkg/iai"
)

// KafkaConsumer consumes market signal observations from Kafka and scores them
type KafkaConsumer struct {
	reader  *kafka.Reader
	signals *service.SignalService
	metrics *metrics.Registry
	logger  zerolog.Logger
}

// KafkaConsumerConfig holds Kafka consumer configuration
type KafkaConsumerConfig struct {
	Brokers []string // e.g., ["localhost:9092"]
	Topic   string   // e.g., "market_signals"
	GroupID string   // e.g., "market-signal"
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(
	config KafkaConsumerConfig,
	signals *service.SignalService,
	m *metrics.Registry,
	logger zerolog.Logger,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.GroupID,
		MinBytes:       1e3,  // 1KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: 1000, // Commit every 1 second
	})

	if m == nil {
		m = metrics.NewRegistry()
	}

	return &KafkaConsumer{
		reader:  reader,
		signals: signals,
		metrics: m,
		logger:  logger.With().Str("component", "kafka_consumer").Logger(),
	}
}

// Start begins consuming messages from Kafka
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("topic", c.reader.Config().Topic).
		Str("group_id", c.reader.Config().GroupID).
		Msg("started consuming from Kafka")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("stopping Kafka consumer")
			return c.reader.Close()

		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				c.logger.Error().Err(err).Msg("failed to fetch message")
				continue
			}

			if err := c.processMessage(ctx, msg.Value); err != nil {
				c.metrics.KafkaMessages.WithLabelValues(resultLabel(err)).Inc()
				c.logger.Error().
					Err(err).
					Int64("offset", msg.Offset).
					Str("key", string(msg.Key)).
					Msg("failed to process message")
				// Don't commit if processing failed
				continue
			}
			c.metrics.KafkaMessages.WithLabelValues("ok").Inc()

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("failed to commit message")
			}
		}
	}
}

// processMessage decodes one observation, resets the event's session when
// asked, then scores it
func (c *KafkaConsumer) processMessage(ctx context.Context, value []byte) error {
	var kafkaMsg models.KafkaMarketSignalMessage
	if err := json.Unmarshal(value, &kafkaMsg); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	log := c.logger.With().
		Str("event_id", kafkaMsg.EventID).
		Str("batch_id", kafkaMsg.BatchID).
		Logger()

	if kafkaMsg.Reset {
		if err := c.signals.ResetEvent(kafkaMsg.EventID); err != nil && !errors.Is(err, service.ErrNotFound) {
			return fmt.Errorf("failed to reset event: %w", err)
		}
		log.Debug().Msg("reset event session")
	}

	result, err := c.signals.ScoreEvent(ctx, kafkaMsg.EventID, kafkaMsg.Context)
	if err != nil {
		return fmt.Errorf("failed to score event: %w", err)
	}

	log.Debug().
		Float64("score", result.Score).
		Str("interpretation", result.Interpretation).
		Msg("processed market signal message")

	return nil
}

// Close closes the Kafka reader
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

func resultLabel(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return "malformed"
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, iai.ErrInsufficientContext):
		return "rejected"
	default:
		return "error"
	}
}
