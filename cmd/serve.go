package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order-relay/internal/config"
	"order-relay/internal/db"
	"order-relay/internal/hub"
	httpSrv "order-relay/internal/http"
	"order-relay/internal/listener"
	"order-relay/internal/logger"
	"order-relay/internal/sink"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server and change feed relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger.Init(cfg.Log.Level)
		defer func() { _ = logger.Log.Sync() }()

		pgDB, err := db.NewPostgresConnection(cfg.Postgres.DSN, db.PostgresOpts{
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Postgres.ConnMaxIdleTime,
			PingTimeout:     cfg.Postgres.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		defer pgDB.Close()

		redisClient, err := db.NewRedisClient(db.RedisOpts{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		if redisClient != nil {
			defer func() { _ = redisClient.Close() }()
		}

		var eventSink listener.Sink
		if cfg.Kafka.Enabled {
			ks := sink.NewKafkaFromConfig(sink.Config{
				Brokers:  cfg.Kafka.Brokers,
				Topic:    cfg.Kafka.Topic,
				BatchMax: cfg.Kafka.BatchMax,
			})
			defer func() { _ = ks.Close() }()
			eventSink = ks
		}

		broadcastHub := hub.New()

		// The change feed is the system's core guarantee: refusing to
		// boot beats serving without live sync.
		feed, err := listener.New(cfg.Postgres.DSN, listener.Config{
			Channel:          cfg.Listener.Channel,
			MinReconnectWait: cfg.Listener.MinReconnectWait,
			MaxReconnectWait: cfg.Listener.MaxReconnectWait,
			PingInterval:     cfg.Listener.PingInterval,
		}, broadcastHub, eventSink)
		if err != nil {
			return fmt.Errorf("change feed subscribe: %w", err)
		}
		defer func() { _ = feed.Close() }()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = feed.Run(ctx) }()

		server := httpSrv.NewServer(cfg, pgDB, broadcastHub, redisClient)

		errCh := make(chan error, 1)
		go func() {
			logger.Log.Info("starting http", zap.String("addr", cfg.HTTP.Addr))
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			logger.Log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil {
				logger.Log.Error("http server exited", zap.Error(err))
			}
		}

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)

		return nil
	},
}
