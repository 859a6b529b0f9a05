package kafka

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler returns nil only when the message is processed and its offset may
// be committed.
type Handler func(ctx context.Context, m kafka.Message) error

// reader is the part of *kafka.Reader the consumer uses.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	defaultAttempts = 5
	defaultBackoff  = 200 * time.Millisecond
)

// Consumer runs a handler over a consumer group. Messages of one partition
// always go to the same worker, so they are handled and committed in offset
// order. A message that still fails after its retries stops the consumer
// without being committed; the group redelivers it after the restart.
type Consumer struct {
	r        reader
	topic    string
	workers  int
	attempts int
	backoff  time.Duration
}

func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, topic: topic, workers: workers, attempts: defaultAttempts, backoff: defaultBackoff}
}

// Start blocks until ctx is done (nil) or a message exhausts its retries
// (that error).
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		failOnce sync.Once
		failure  error
	)
	fail := func(err error) {
		failOnce.Do(func() {
			failure = err
			cancel()
		})
	}

	lanes := make([]chan kafka.Message, c.workers)
	for i := range lanes {
		lanes[i] = make(chan kafka.Message, 64)
		wg.Add(1)
		go func(in <-chan kafka.Message) {
			defer wg.Done()
			for m := range in {
				// after a failure the rest of the lane stays uncommitted
				if ctx.Err() != nil {
					continue
				}
				if err := c.process(ctx, h, m); err != nil && parent.Err() == nil {
					fail(err)
				}
			}
		}(lanes[i])
	}
	stop := func() error {
		for _, l := range lanes {
			close(l)
		}
		wg.Wait()
		return failure
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ferr := stop(); ferr != nil {
				return ferr
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case lanes[m.Partition%c.workers] <- m:
		case <-ctx.Done():
			return stop()
		}
	}
}

// process retries h with doubling backoff, then commits m.
func (c *Consumer) process(ctx context.Context, h Handler, m kafka.Message) error {
	attempts := c.attempts
	if attempts <= 0 {
		attempts = 1
	}
	wait := c.backoff
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			if err := c.r.CommitMessages(ctx, m); err != nil {
				return fmt.Errorf("commit %s/%d@%d: %w", m.Topic, m.Partition, m.Offset, err)
			}
			return nil
		}
		if attempt >= attempts {
			return fmt.Errorf("handle %s/%d@%d: giving up after %d attempts: %w",
				m.Topic, m.Partition, m.Offset, attempt, err)
		}
		log.Printf("consumer %s: %d@%d attempt %d failed, retrying in %s: %v",
			c.topic, m.Partition, m.Offset, attempt, wait, err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		wait *= 2
	}
}
