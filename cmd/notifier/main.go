package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-pharma-stock/internal/config"
	"github.com/ariefcatur/go-pharma-stock/internal/events"
	kafkax "github.com/ariefcatur/go-pharma-stock/internal/kafka"
	"github.com/ariefcatur/go-pharma-stock/internal/notify"
	"github.com/ariefcatur/go-pharma-stock/internal/redisx"
	"github.com/ariefcatur/go-pharma-stock/internal/settings"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("KAFKA_BROKERS is required")
	}
	if cfg.RedisAddr == "" {
		log.Fatal("REDIS_ADDR is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	n := &notify.Notifier{
		Cache:    redisx.NewCache(rdb),
		Settings: &settings.RedisStore{RDB: rdb},
		Sink:     notify.Multi{notify.LogSink{}, &notify.Feed{RDB: rdb}},
		Name:     cfg.NotifierGroup,
	}

	// Consumers: one per topic, same group
	var (
		wg     sync.WaitGroup
		failed atomic.Bool
	)
	consume := func(topic string, h kafkax.Handler) {
		c := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, topic, cfg.NotifierWorkers)
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("notifier consumer started: group=%s topic=%s workers=%d", cfg.NotifierGroup, topic, cfg.NotifierWorkers)
			if err := c.Start(ctx, h); err != nil {
				log.Printf("consumer %s exit: %v", topic, err)
				failed.Store(true)
				cancel()
			}
		}()
	}
	consume(events.TopicInventoryAlert, n.HandleStockAlert)
	consume(events.TopicOrderStatus, n.HandleOrderEvent)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Println("shutting down consumers...")
	cancel()
	wg.Wait()
	if failed.Load() {
		// the failed message was not committed; it is redelivered on restart
		os.Exit(1)
	}
}
