package application

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/dmehra2102/commerce-core/internal/notification/domain"
	orderdomain "github.com/dmehra2102/commerce-core/internal/order/domain"
	"github.com/dmehra2102/commerce-core/pkg/apperr"
)

// Sender delivers a rendered message, for example over SMTP.
type Sender interface {
	Send(ctx context.Context, m domain.Message) error
}

type Service struct {
	log    *slog.Logger
	sender Sender
}

func NewService(log *slog.Logger, sender Sender) *Service {
	return &Service{log: log, sender: sender}
}

// Handle renders and sends the notification for one order event. Unknown
// event types are ignored. A malformed payload is reported as
// InvalidArgument so the caller can drop it instead of retrying.
func (s *Service) Handle(ctx context.Context, eventType string, payload []byte) error {
	var msg domain.Message
	switch eventType {
	case orderdomain.EventTypeOrderConfirmed:
		var ev orderdomain.OrderConfirmed
		if err := json.Unmarshal(payload, &ev); err != nil {
			return apperr.Wrap(apperr.KindInvalidArgument, "decode OrderConfirmed", err)
		}
		msg = domain.OrderConfirmedMessage(ev)
	case orderdomain.EventTypeReturnRequested:
		var ev orderdomain.ReturnRequested
		if err := json.Unmarshal(payload, &ev); err != nil {
			return apperr.Wrap(apperr.KindInvalidArgument, "decode ReturnRequested", err)
		}
		msg = domain.ReturnRequestedMessage(ev)
	default:
		s.log.Debug("event ignored", "type", eventType)
		return nil
	}

	if msg.To == "" {
		s.log.Warn("notification has no recipient", "type", eventType, "order_id", msg.OrderID)
		return nil
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return err
	}
	s.log.Info("notification sent", "type", eventType, "order_id", msg.OrderID)
	return nil
}
