package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/thumbworker/internal/config"
	"github.com/muhammadolammi/thumbworker/internal/notification"
	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"
)

// handleNotification runs the handler once per object in body, each with its
// own invocation id. Every event is attempted; the failures are joined.
func handleNotification(ctx context.Context, handler EventHandler, body []byte) error {
	events, err := notification.Parse(body)
	if err != nil {
		return err
	}

	var failed error
	for _, ev := range events {
		logger := log.With().Str("invocation_id", uuid.NewString()).Logger()
		res, err := handler.Handle(logger.WithContext(ctx), ev)
		if err != nil {
			logger.Error().Err(err).Str("bucket", ev.Bucket).Str("object", ev.Name).Msg("thumbnail generation failed")
			failed = errors.Join(failed, fmt.Errorf("%s/%s: %w", ev.Bucket, ev.Name, err))
			continue
		}
		if res.Skipped {
			logger.Debug().Str("object", ev.Name).Str("reason", res.Reason).Msg("skipped")
		}
	}
	return failed
}

// deliveryTimeout bounds one notification once it has been taken off the queue.
const deliveryTimeout = 5 * time.Minute

// processDelivery acks handled messages and drops failed ones without
// requeueing; redelivery is left to the broker's dead-letter policy.
// A delivery that was already received finishes even if ctx is cancelled for
// shutdown, so stopping the worker never turns into a failed upload.
func processDelivery(ctx context.Context, workerID int, handler EventHandler, msg amqp.Delivery) {
	log.Debug().Int("worker", workerID).Str("message_id", msg.MessageId).Msg("received bucket notification")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()

	if err := handleNotification(ctx, handler, msg.Body); err != nil {
		log.Error().Err(err).Int("worker", workerID).Msg("notification failed")
		if err := msg.Nack(false, false); err != nil {
			log.Error().Err(err).Msg("failed to nack message")
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		log.Error().Err(err).Msg("failed to ack message")
	}
}

// declareTopology makes sure the queue exists and, when an exchange is
// configured, that it receives the store's notifications.
func declareTopology(ch *amqp.Channel, cfg config.RabbitMQConfig) error {
	if cfg.Exchange != "" {
		err := ch.ExchangeDeclare(
			cfg.Exchange,
			cfg.ExchangeType,
			true,  // durable
			false, // auto-delete when unused
			false, // internal
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("failed to declare exchange: %w", err)
		}
	}
	_, err := ch.QueueDeclare(
		cfg.Queue,
		true,  // durable (survives broker restarts)
		false, // auto-delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if cfg.Exchange != "" {
		if err := ch.QueueBind(cfg.Queue, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue: %w", err)
		}
	}
	return nil
}

func worker(ctx context.Context, id int, workerConfig *WorkerConfig, wg *sync.WaitGroup) {
	defer wg.Done()

	ch, err := workerConfig.RabbitConn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to rabbitmq channel")
	}
	defer ch.Close()

	if err := declareTopology(ch, workerConfig.RabbitMQ); err != nil {
		log.Fatal().Err(err).Msg("error declaring rabbitmq topology")
	}
	// One unacked notification per worker.
	if err := ch.Qos(1, 0, false); err != nil {
		log.Fatal().Err(err).Msg("failed to set QoS")
	}

	msgs, err := ch.Consume(
		workerConfig.RabbitMQ.Queue,
		fmt.Sprintf("thumbworker-%d", id+1), // consumer tag
		false,                               // auto-ack
		false,                               // exclusive
		false,                               // no-local
		false,                               // no-wait
		nil,                                 // arguments
	)
	if err != nil {
		log.Fatal().Err(err).Msg("error consuming rabbitmq messages")
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id+1).Msg("worker stopping")
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Warn().Int("worker", id+1).Msg("delivery channel closed")
				return
			}
			processDelivery(ctx, id+1, workerConfig.Generator, msg)
		}
	}
}

// StartConsumerWorkerPool blocks until every worker has returned.
func (workerConfig *WorkerConfig) StartConsumerWorkerPool(ctx context.Context, numWorkers int) {
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for i := range numWorkers {
		log.Info().Int("worker", i+1).Msg("worker started")
		go worker(ctx, i, workerConfig, &wg)
	}
	wg.Wait()
}
