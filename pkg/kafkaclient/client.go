// Package kafkaclient wraps a kafka-go reader in a channel based consumer
// with manual offset commits.
package kafkaclient

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"wanderlog/pkg/logger"
)

// KafkaReader defines the interface for a Kafka message reader.
// This allows for easy mocking in unit tests.
type KafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config selects the broker, topic and consumer group.
type Config struct {
	Broker  string
	Topic   string
	GroupID string
}

// Consumer pumps messages from a KafkaReader into a channel.
type Consumer struct {
	reader      KafkaReader
	log         *zap.Logger
	retryDelay  time.Duration
	doneChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	messageChan chan kafka.Message
}

// NewConsumer builds a consumer group reader with auto-commit disabled;
// callers acknowledge messages with CommitOffset.
func NewConsumer(cfg Config, log *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{cfg.Broker},
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		CommitInterval: 0,
		MinBytes:       1,
		MaxBytes:       10e6,
	})
	return newConsumer(reader, log)
}

func newConsumer(reader KafkaReader, log *zap.Logger) *Consumer {
	return &Consumer{
		reader:      reader,
		log:         logger.OrNop(log),
		retryDelay:  time.Second,
		doneChan:    make(chan struct{}),
		messageChan: make(chan kafka.Message),
	}
}

// Messages is closed once the consume loop exits.
func (c *Consumer) Messages() <-chan kafka.Message {
	return c.messageChan
}

func (c *Consumer) CommitOffset(ctx context.Context, msg kafka.Message) error {
	c.log.Debug("Committing offset",
		zap.String("topic", msg.Topic), zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset))
	return c.reader.CommitMessages(ctx, msg)
}

// StartConsuming begins the message loop in a separate goroutine.
func (c *Consumer) StartConsuming(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.messageChan)

		c.log.Info("Starting Kafka consumer loop")
		for {
			select {
			case <-ctx.Done():
				c.log.Info("Context canceled, stopping consumer loop")
				return
			case <-c.doneChan:
				c.log.Info("Shutdown signal received, stopping consumer loop")
				return
			default:
			}

			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
					c.log.Info("Kafka reader closed")
					return
				}
				if ctx.Err() != nil {
					return
				}
				c.log.Warn("Error reading message", zap.Error(err))
				// back off to avoid a tight error loop
				select {
				case <-time.After(c.retryDelay):
				case <-ctx.Done():
					return
				case <-c.doneChan:
					return
				}
				continue
			}

			select {
			case c.messageChan <- msg:
				c.log.Debug("Message received",
					zap.String("topic", msg.Topic), zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset))
			case <-ctx.Done():
				return
			case <-c.doneChan:
				return
			}
		}
	}()
}

// Stop shuts the loop down and closes the reader. It is safe to call more
// than once.
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() {
		c.log.Info("Stopping Kafka consumer")
		close(c.doneChan)
		c.wg.Wait()
		if err := c.reader.Close(); err != nil {
			c.log.Warn("Failed to close Kafka reader", zap.Error(err))
		}
	})
}
