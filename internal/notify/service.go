package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/pressplay/gamestore/internal/kafkax"
	"github.com/pressplay/gamestore/internal/orders"
	"github.com/pressplay/gamestore/internal/redisx"
)

// Service turns order status events into notification records for the
// customer or the assigned rider. It is the consumer-side collaborator that
// observes the lifecycle; the API never blocks on it.
type Service struct {
	Store       *MongoStore
	Redis       *redis.Client
	ServiceName string
}

// HandleStatusChanged is installed as the consumer handler for the status
// topic. Events are deduplicated by event id so redelivery never produces a
// second notification.
func (s *Service) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderStatusChanged {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, "notify", env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}

	n := notificationFor(p)
	if err := s.Store.Insert(ctx, n); err != nil {
		return err
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	slog.Info("notification recorded",
		"service", s.ServiceName,
		"order_id", p.OrderID,
		"to_status", p.ToStatus,
		"recipient", n.RecipientID,
		"recipient_role", n.RecipientRole,
	)
	return nil
}

// The rider hears about newly shipped orders; every other move is the
// customer's news.
func notificationFor(p orders.OrderStatusChangedPayload) Notification {
	n := Notification{
		OrderID:       p.OrderID,
		RecipientID:   p.UserID,
		RecipientRole: "customer",
		Message:       fmt.Sprintf("Your order %s is now %s", p.OrderID, p.ToStatus),
	}
	if p.ToStatus == string(orders.StatusShipped) && p.RiderID != "" {
		n.RecipientID = p.RiderID
		n.RecipientRole = "rider"
		n.Message = fmt.Sprintf("Order %s has been assigned to you for delivery", p.OrderID)
	}
	return n
}
