package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pressplay/gamestore/internal/config"
	"github.com/pressplay/gamestore/internal/kafkax"
	"github.com/pressplay/gamestore/internal/mongox"
	"github.com/pressplay/gamestore/internal/notify"
	"github.com/pressplay/gamestore/internal/orders"
	"github.com/pressplay/gamestore/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := mongox.Connect(ctx, cfg.MongoURI)
	if err != nil {
		slog.Error("mongo connect", "error", err)
		os.Exit(1)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(cfg.MongoDB)

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notify.Service{
		Store:       notify.NewMongoStore(db),
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-notifier",
	}

	group := getenv("NOTIFIER_GROUP", "notifier-svc")
	workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), 4)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicStatusChanged, workers)

	go func() {
		slog.Info("notifier consumer started",
			"group", group, "topic", orders.TopicStatusChanged, "workers", workers)
		if err := cons.Start(ctx, svc.HandleStatusChanged); err != nil {
			slog.Error("consumer exit", "error", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down notifier")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
