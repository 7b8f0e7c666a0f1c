package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const processTimeout = 60 * time.Second

// Consumer drains the durable listing queue. Each worker holds its own
// channel with prefetch 1, so in-flight work per worker is bounded to one
// message and geocoder pressure scales with the worker count, not the
// queue depth.
type Consumer struct {
	URL      string
	Queue    string
	Workers  int
	Pipeline *Pipeline
}

// Run blocks until ctx is cancelled or the broker connection dies. On
// cancellation each worker finishes (acks or nacks) its current delivery
// before returning.
func (c *Consumer) Run(ctx context.Context) error {
	workers := c.Workers
	if workers <= 0 {
		workers = 1
	}

	conn, err := amqp.Dial(c.URL)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer conn.Close()

	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		ch, err := c.openChannel(conn)
		if err != nil {
			return err
		}
		deliveries, err := ch.Consume(c.Queue, fmt.Sprintf("ingestor-%d", i), false, false, false, false, nil)
		if err != nil {
			ch.Close()
			return fmt.Errorf("consume %s: %w", c.Queue, err)
		}

		wg.Add(1)
		go func(worker int, ch *amqp.Channel, deliveries <-chan amqp.Delivery) {
			defer wg.Done()
			defer ch.Close()
			if err := c.work(ctx, worker, deliveries); err != nil {
				errCh <- err
			}
		}(i, ch, deliveries)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-ctx.Done():
		<-done
		return nil
	case err := <-errCh:
		return err
	case <-done:
		return nil
	}
}

func (c *Consumer) openChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("amqp qos: %w", err)
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("queue declare %s: %w", c.Queue, err)
	}
	return ch, nil
}

func (c *Consumer) work(ctx context.Context, worker int, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("worker %d: delivery channel closed", worker)
			}
			c.handle(worker, d)
		}
	}
}

func (c *Consumer) handle(worker int, d amqp.Delivery) {
	// The message deadline is detached from ctx so a shutdown signal lets
	// the in-flight message settle instead of aborting it mid-write.
	mctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	if err := c.Pipeline.Process(mctx, d.Body); err != nil {
		// No requeue: a poison message would loop forever. Failure
		// retention is the operator's dead-letter binding.
		log.Error().Err(err).Int("worker", worker).Msg("message failed; nack without requeue")
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error().Err(nackErr).Int("worker", worker).Msg("nack failed")
		}
		return
	}
	if err := d.Ack(false); err != nil {
		log.Error().Err(err).Int("worker", worker).Msg("ack failed")
	}
}
