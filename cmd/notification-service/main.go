package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/commerce-core/internal/notification/application"
	notificationkafka "github.com/dmehra2102/commerce-core/internal/notification/infrastructure/kafka"
	"github.com/dmehra2102/commerce-core/internal/notification/infrastructure/sender"
	"github.com/dmehra2102/commerce-core/internal/platform/grpcx"
	"github.com/dmehra2102/commerce-core/pkg/config"
	"github.com/dmehra2102/commerce-core/pkg/idempotency"
	"github.com/dmehra2102/commerce-core/pkg/logging"
	"github.com/dmehra2102/commerce-core/pkg/shutdown"
	"github.com/dmehra2102/commerce-core/pkg/tracing"
)

func main() {
	cfg, err := config.Load("notification-service")
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	ctx, cancel := shutdown.WithSignals(context.Background(), log)
	defer cancel()

	tp, err := tracing.Init(ctx, cfg.ServiceName, cfg.OTelEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	idem := idempotency.NewStore(rdb, cfg.ServiceName, 24*time.Hour)

	svc := application.NewService(log, sender.NewLogSender(log))
	reader := notificationkafka.NewReader(cfg.KafkaBrokers, cfg.EventsTopic, cfg.ConsumerGroup)
	consumer := notificationkafka.NewConsumer(log, reader, svc, idem)

	health := grpcx.NewServer(log, cfg.ServiceName)
	go health.Watch(ctx, 5*time.Second, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	go func() {
		if err := health.Run(cfg.GRPCAddr); err != nil {
			log.Error("grpc server error", "err", err)
			cancel()
		}
	}()

	go func() {
		log.Info("consuming order events", "topic", cfg.EventsTopic, "group", cfg.ConsumerGroup)
		if err := consumer.Run(ctx); err != nil {
			log.Error("consumer stopped with error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	health.Stop()
	log.Info("notification-service shutdown complete")
}
