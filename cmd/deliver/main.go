package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"im-core/broker"
	"im-core/delivery"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run consumes published envelopes from the broker and materializes
// them into the local delivery store.
func run() error {
	// 1. Configuration & Logger
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "No .env file loaded: %v\n", err)
	}
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Broker consumer
	opt, err := asynq.ParseRedisURI(config.RedisURL)
	if err != nil {
		return fmt.Errorf("redis url: %w", err)
	}
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: config.Concurrency,
		Queues:      map[string]int{broker.DefaultTopic: 1},
	})

	store := delivery.NewStore(db, log, config.LimitMessages)
	consumer := delivery.NewConsumer(store, log)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting delivery consumer", "queue", broker.DefaultTopic, "concurrency", config.Concurrency)
	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("consumer failed to start: %w", err)
	}

	<-ctx.Done()
	log.Info("Shutting down gracefully...")
	srv.Shutdown()
	log.Info("Delivery consumer stopped cleanly")

	return nil
}
