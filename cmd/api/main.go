package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-pharma-stock/internal/config"
	"github.com/ariefcatur/go-pharma-stock/internal/events"
	"github.com/ariefcatur/go-pharma-stock/internal/httpx"
	"github.com/ariefcatur/go-pharma-stock/internal/inventory"
	kafkax "github.com/ariefcatur/go-pharma-stock/internal/kafka"
	"github.com/ariefcatur/go-pharma-stock/internal/notify"
	"github.com/ariefcatur/go-pharma-stock/internal/orders"
	"github.com/ariefcatur/go-pharma-stock/internal/postgres"
	"github.com/ariefcatur/go-pharma-stock/internal/redisx"
	"github.com/ariefcatur/go-pharma-stock/internal/reports"
	"github.com/ariefcatur/go-pharma-stock/internal/settings"
	"github.com/ariefcatur/go-pharma-stock/internal/sqlite"
)

type stores struct {
	items  inventory.Store
	orders orders.Store
	close  func()
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := sqlite.Connect(cfg.SQLiteDSN)
		if err != nil {
			return stores{}, err
		}
		return stores{
			items:  &sqlite.ItemStore{DB: db},
			orders: &sqlite.OrderStore{DB: db},
			close:  func() { db.Close() },
		}, nil
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return stores{}, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return stores{}, err
		}
		return stores{
			items:  &inventory.Repo{DB: db},
			orders: &orders.Repo{DB: db},
			close:  db.Close,
		}, nil
	}
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect (%s): %v", cfg.StoreDriver, err)
	}
	defer st.close()

	// Redis: cache, settings and the notification feed
	var (
		cache         *redisx.Cache
		feed          *notify.Feed
		settingsStore settings.Store = &settings.MemoryStore{}
	)
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		cache = redisx.NewCache(rdb)
		settingsStore = &settings.RedisStore{RDB: rdb}
		feed = &notify.Feed{RDB: rdb}
	} else {
		log.Println("REDIS_ADDR not set: no cache, settings kept in memory")
	}

	invSvc := &inventory.Service{
		Store:           st.items,
		Cache:           cache,
		Settings:        settingsStore,
		DefaultCurrency: cfg.DefaultCurrency,
		ServiceName:     cfg.ServiceName,
	}
	ordSvc := &orders.Service{
		Store:           st.orders,
		Cache:           cache,
		DefaultCurrency: cfg.DefaultCurrency,
		ServiceName:     cfg.ServiceName,
	}

	// Kafka producers: one per topic
	var producers []*kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		alerts := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicInventoryAlert, 1024)
		alerts.Start(ctx)
		status := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicOrderStatus, 1024)
		status.Start(ctx)
		invSvc.Publisher = alerts
		ordSvc.Publisher = status
		producers = append(producers, alerts, status)
	} else {
		log.Println("KAFKA_BROKERS not set: events are not published")
	}

	router := httpx.NewRouter()
	(&httpx.InventoryHandler{Service: invSvc}).Register(router)
	(&httpx.OrdersHandler{Service: ordSvc}).Register(router)
	(&httpx.ReportsHandler{
		Inventory: invSvc,
		Dashboard: &reports.Dashboard{
			Items:           st.items,
			Orders:          st.orders,
			DefaultCurrency: cfg.DefaultCurrency,
		},
		Uploads:        reports.DirStore{Dir: cfg.ReportUploadDir},
		UploadsEnabled: cfg.ReportUploadsEnabled,
	}).Register(router)
	(&httpx.SettingsHandler{Store: settingsStore, Feed: feed}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Printf("HTTP listening at %s (store=%s)", cfg.HTTPAddr, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	// handlers still running past the deadline get ErrProducerClosed and log it
	for _, p := range producers {
		p.Close()
	}
	for _, p := range producers {
		p.WaitClosed()
	}
}
