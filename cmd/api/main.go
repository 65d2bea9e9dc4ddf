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

	"github.com/wenzetiindaku/checkout-api/internal/cart"
	"github.com/wenzetiindaku/checkout-api/internal/catalog"
	"github.com/wenzetiindaku/checkout-api/internal/checkout"
	"github.com/wenzetiindaku/checkout-api/internal/config"
	"github.com/wenzetiindaku/checkout-api/internal/gateway"
	"github.com/wenzetiindaku/checkout-api/internal/httpx"
	kafkax "github.com/wenzetiindaku/checkout-api/internal/kafka"
	"github.com/wenzetiindaku/checkout-api/internal/postgres"
	"github.com/wenzetiindaku/checkout-api/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers (one per topic)
	pConfirmed := kafkax.NewProducer(cfg.KafkaBrokers, checkout.TopicOrderConfirmed, 1024)
	pConfirmed.Start(ctx)
	pStarted := kafkax.NewProducer(cfg.KafkaBrokers, checkout.TopicCheckoutStarted, 1024)
	pStarted.Start(ctx)

	// Stores: in-memory state, snapshots in redis
	carts := cart.NewStore(&redisx.Store{RDB: rdb, TTL: redisx.TTLCartSnapshot})
	sessions := checkout.NewStore(&redisx.Store{RDB: rdb, TTL: redisx.TTLCheckoutSnapshot})

	// Payment gateway
	var gw gateway.Gateway
	if cfg.GatewayMock {
		log.Println("gateway: using built-in mock")
		gw = gateway.NewMock()
	} else {
		gw = gateway.NewHTTP(cfg.GatewayBaseURL, cfg.GatewayToken)
	}

	// Handlers
	repo := &catalog.Repo{DB: db}
	router := httpx.NewRouter()
	(&httpx.CatalogHandler{Repo: repo}).Register(router)
	(&httpx.CartHandler{Carts: carts, Catalog: repo}).Register(router)
	(&httpx.CheckoutHandler{
		Carts:             carts,
		Checkout:          sessions,
		Gateway:           gw,
		Redis:             rdb,
		Service:           cfg.ServiceName,
		ProducerConfirmed: pConfirmed,
		ProducerStarted:   pStarted,
	}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pConfirmed.Close()
	pStarted.Close()
	cancel()
	pConfirmed.WaitClosed()
	pStarted.WaitClosed()
}
