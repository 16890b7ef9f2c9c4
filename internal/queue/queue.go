package queue

import (
	"context"
	"fmt"

	"github.com/avast/retry-go/v4"
	"github.com/introfi/commission-engine/internal/config"
	"github.com/introfi/commission-engine/internal/observability/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// QueueManager owns the AMQP connection feeding normalized revenue facts
// and stake events into the engine.
type QueueManager struct {
	cfg     *config.QueueConfig
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewQueueManager(cfg *config.QueueConfig) (*QueueManager, error) {
	var conn *amqp.Connection
	err := retry.Do(
		func() error {
			var dialErr error
			conn, dialErr = amqp.Dial(cfg.URL)
			return dialErr
		},
		retry.Attempts(5),
		retry.Delay(cfg.ReconnectInterval),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n).Msg("Failed to connect to queue, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to queue at %s: %w", cfg.URL, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.Qos(cfg.PrefetchCount, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set channel qos: %w", err)
	}

	for _, queueName := range []string{cfg.RevenueFactQueue, cfg.StakeEventQueue} {
		if _, err := channel.QueueDeclare(
			queueName,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,
		); err != nil {
			return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
		}
	}

	return &QueueManager{
		cfg:     cfg,
		conn:    conn,
		channel: channel,
	}, nil
}

// Consume delivers messages from the named queue to the handler until the
// context is cancelled. A handler error nacks the message back onto the
// queue; transient store failures are retried by redelivery, not in place.
func (qm *QueueManager) Consume(ctx context.Context, queueName string, handler func(ctx context.Context, body []byte) error) error {
	deliveries, err := qm.channel.Consume(
		queueName,
		"",    // consumer tag
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consumer on queue %s: %w", queueName, err)
	}

	log.Info().Str("queue", queueName).Msg("Started queue consumer")

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel for queue %s closed", queueName)
			}
			if err := handler(ctx, delivery.Body); err != nil {
				metrics.IncQueueConsumeErrors()
				log.Error().Err(err).Str("queue", queueName).Msg("Failed to process feed message")
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					log.Error().Err(nackErr).Str("queue", queueName).Msg("Failed to nack message")
				}
				continue
			}
			if ackErr := delivery.Ack(false); ackErr != nil {
				log.Error().Err(ackErr).Str("queue", queueName).Msg("Failed to ack message")
			}
		}
	}
}

// Shutdown gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Shutdown() {
	log.Info().Msg("Shutting down queue manager")

	if qm.channel != nil {
		if err := qm.channel.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close queue channel")
		}
	}
	if qm.conn != nil {
		if err := qm.conn.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close queue connection")
		}
	}
}
