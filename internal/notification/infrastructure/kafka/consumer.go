package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmehra2102/commerce-core/internal/notification/application"
	"github.com/dmehra2102/commerce-core/pkg/apperr"
	"github.com/dmehra2102/commerce-core/pkg/tracing"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Deduper interface {
	Key(topic string, partition int, offset int64) string
	Seen(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type Consumer struct {
	log    *slog.Logger
	reader Reader
	svc    *application.Service
	idem   Deduper
	tracer trace.Tracer
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

func NewConsumer(log *slog.Logger, reader Reader, svc *application.Service, idem Deduper) *Consumer {
	return &Consumer{
		log:    log,
		reader: reader,
		svc:    svc,
		idem:   idem,
		tracer: otel.Tracer("notification-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		c.Handle(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("commit failed", "offset", msg.Offset, "err", err)
		}
	}
}

// Handle processes one message at most once per (topic, partition, offset).
// Delivery failures are logged and the claim is released so a replay of the
// partition can deliver again.
func (c *Consumer) Handle(ctx context.Context, msg kafka.Message) {
	key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
	seen, err := c.idem.Seen(ctx, key)
	if err != nil {
		c.log.Error("idempotency check failed", "err", err)
		return
	}
	if seen {
		c.log.Info("duplicate message skipped", "key", key)
		return
	}

	eventType := tracing.HeaderValue(msg.Headers, "event_type")
	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "ConsumeOrderEvent")
	span.SetAttributes(attribute.String("event.type", eventType))
	defer span.End()

	err = c.svc.Handle(msgCtx, eventType, msg.Value)
	switch {
	case err == nil:
	case apperr.Is(err, apperr.KindInvalidArgument):
		c.log.Error("malformed event dropped", "type", eventType, "offset", msg.Offset, "err", err)
	default:
		c.log.Error("notification failed", "type", eventType, "order_id", string(msg.Key), "err", err)
		if rErr := c.idem.Release(ctx, key); rErr != nil {
			c.log.Error("idempotency release failed", "key", key, "err", rErr)
		}
	}
}
