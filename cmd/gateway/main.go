package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/redis/go-redis/v9"

	"im-core/auth"
	"im-core/broker"
	"im-core/directory"
	"im-core/observability"
	"im-core/runtime"
	"im-core/runtime/workers"
	"im-core/sequence"
	"im-core/services"
	"im-core/sink"
	"im-core/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so deferred cleanup always executes.
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

	// 2. Redis (directories, sequences, risk events)
	opt, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opt)
	defer func() {
		log.Info("Closing redis client...")
		_ = client.Close()
	}()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	// 3. Broker client (durable publish)
	asynqClient, err := broker.NewAsynqClient(config.RedisURL)
	if err != nil {
		return fmt.Errorf("broker client: %w", err)
	}
	defer func() {
		log.Info("Closing broker client...")
		_ = asynqClient.Close()
	}()

	// 4. Core components
	sessions := directory.NewSessions(client, config.NodeAddr, log)
	members := directory.NewRedisMembership(client)
	risk := directory.NewRedisRisk(client)
	allocator := sequence.NewAllocator(sequence.NewRedisStore(client))
	publisher := broker.NewAsynqPublisher(asynqClient, log)
	service := services.NewMessageService(log, members, allocator, publisher)
	monitor := observability.NewMonitor(log)
	verifier := auth.NewJWTVerifier([]byte(config.JWTSecret), config.JWTIssuer)

	var connOpts []runtime.Option
	if config.AuthDevMode {
		log.Warn("AUTH DEV MODE ENABLED: device ids of the form DEV_{user}_{ts} bypass credentials")
		connOpts = append(connOpts, runtime.WithDevMode(auth.NewDevModeVerifier(verifier)))
	}

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Supervision: the sink, the risk watcher and the stats reporter
	// are long-lived; connection workers join dynamically below.
	inbound := make(chan sink.Inbound, config.SinkBufferSize)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		sink.NewMessageSink(service, inbound, config.SinkTimeout, config.SinkMaxInFlight, log),
		workers.NewRiskWatchWorker(client, sessions, log),
		workers.NewStatsWorker(log, sessions, monitor, config.StatsInterval),
	)
	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	// 7. HTTP surface: the websocket endpoint plus liveness.
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws, err := transport.Upgrade(w, r)
		if err != nil {
			log.Warn("Websocket upgrade failed", "err", err)
			return
		}
		wsConn := transport.NewWSConn(ws, log)
		wsConn.Start()

		conn := runtime.NewConn(uuid.NewString(), verifier, risk, log, connOpts...)
		worker := workers.NewConnWorker(
			conn, sessions, wsConn, wsConn.Frames(), inbound,
			config.ReadIdleTimeout, monitor, log,
		)
		sup.Start(ctx, worker)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting gateway", "address", address, "node", config.NodeAddr, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final Cleanup
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	<-supDone
	log.Info("Gateway stopped cleanly")

	return nil
}
