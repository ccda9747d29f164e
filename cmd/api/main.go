package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/pressplay/gamestore/internal/cart"
	"github.com/pressplay/gamestore/internal/catalog"
	"github.com/pressplay/gamestore/internal/config"
	"github.com/pressplay/gamestore/internal/httpx"
	"github.com/pressplay/gamestore/internal/kafkax"
	"github.com/pressplay/gamestore/internal/mongox"
	"github.com/pressplay/gamestore/internal/orders"
	"github.com/pressplay/gamestore/internal/redisx"
	"github.com/pressplay/gamestore/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Mongo
	client, err := mongox.Connect(ctx, cfg.MongoURI)
	if err != nil {
		slog.Error("mongo connect", "error", err)
		os.Exit(1)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(cfg.MongoDB)

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	createdPub := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	createdPub.Start(ctx)
	statusPub := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStatusChanged, 1024)
	statusPub.Start(ctx)

	// Stores & services
	txn := &mongox.TxnRunner{Client: client}
	ledger := catalog.NewLedger(db)
	directory := users.NewDirectory(db)
	cartStore := cart.NewMongoStore(db)
	orderStore := orders.NewMongoStore(db)

	if err := directory.EnsureIndexes(ctx); err != nil {
		slog.Error("user indexes", "error", err)
		os.Exit(1)
	}
	if err := cartStore.EnsureIndexes(ctx); err != nil {
		slog.Error("cart indexes", "error", err)
		os.Exit(1)
	}

	cartSvc := &cart.Service{Ledger: ledger, Store: cartStore, Txn: txn}
	orderSvc := &orders.Service{
		Store:      orderStore,
		Cart:       cartSvc,
		Catalog:    ledger,
		Ledger:     ledger,
		Riders:     directory,
		Txn:        txn,
		CreatedPub: createdPub,
		StatusPub:  statusPub,
		Producer:   cfg.ServiceName,
	}

	// Router
	router := httpx.NewRouter()
	ident := &httpx.Identity{Users: directory}

	(&httpx.CatalogHandler{Ledger: ledger}).Register(router)

	router.Group(func(r chi.Router) {
		r.Use(ident.Middleware)
		(&httpx.CartHandler{Cart: cartSvc, Redis: rdb}).Register(r)
		(&httpx.OrdersHandler{Orders: orderSvc, Redis: rdb}).Register(r)
		r.Route("/admin", func(r chi.Router) {
			r.Use(httpx.RequireRole(users.RoleAdmin))
			(&httpx.AdminHandler{Orders: orderSvc, Users: directory, Ledger: ledger, Redis: rdb}).Register(r)
		})
		r.Route("/rider", func(r chi.Router) {
			r.Use(httpx.RequireRole(users.RoleRider))
			(&httpx.RiderHandler{Orders: orderSvc, Redis: rdb}).Register(r)
		})
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		slog.Info("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("listen", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")

	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(shutdownCtx)

	createdPub.Close()
	statusPub.Close()
	cancel()
	createdPub.WaitClosed()
	statusPub.WaitClosed()
}
