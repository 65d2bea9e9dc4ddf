package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wenzetiindaku/checkout-api/internal/catalog"
	"github.com/wenzetiindaku/checkout-api/internal/checkout"
	"github.com/wenzetiindaku/checkout-api/internal/config"
	"github.com/wenzetiindaku/checkout-api/internal/inventory"
	kafkax "github.com/wenzetiindaku/checkout-api/internal/kafka"
	"github.com/wenzetiindaku/checkout-api/internal/postgres"
	"github.com/wenzetiindaku/checkout-api/internal/redisx"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Service
	svc := &inventory.Service{
		Stock:       &catalog.StockRepo{DB: db},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-inventory",
	}

	// Consumer
	group := getenv("INVENTORY_GROUP", "inventory-svc")
	workers := mustAtoi(os.Getenv("INVENTORY_WORKERS"), "8")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, checkout.TopicOrderConfirmed, workers)

	go func() {
		log.Printf("inventory consumer started: group=%s topic=%s workers=%d", group, checkout.TopicOrderConfirmed, workers)
		if err := cons.Start(ctx, svc.HandleOrderConfirmed); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
