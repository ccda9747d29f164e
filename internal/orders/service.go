package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pressplay/gamestore/internal/auth"
	"github.com/pressplay/gamestore/internal/cart"
	"github.com/pressplay/gamestore/internal/catalog"
	"github.com/pressplay/gamestore/internal/kafkax"
	"github.com/pressplay/gamestore/internal/mongox"
	"github.com/pressplay/gamestore/internal/users"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrRiderRequired     = errors.New("shipping requires an assigned rider")
	ErrInvalidPayment    = errors.New("invalid payment method")
)

type Store interface {
	Insert(ctx context.Context, o Order) error
	Get(ctx context.Context, id primitive.ObjectID) (Order, error)
	Update(ctx context.Context, o Order) error
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]Order, error)
	ListForRider(ctx context.Context, riderID primitive.ObjectID) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	CountForRider(ctx context.Context, riderID primitive.ObjectID) (int64, error)
}

// CartSource is the slice of the cart aggregator the order builder needs:
// a read of the current lines and a Consume that empties the cart without
// touching stock (the reservations move to the order).
type CartSource interface {
	Snapshot(ctx context.Context, userID primitive.ObjectID) (cart.Snapshot, error)
	Consume(ctx context.Context, userID primitive.ObjectID) error
}

type ProductSource interface {
	Product(ctx context.Context, id primitive.ObjectID) (catalog.Product, error)
}

// StockReleaser returns reserved quantities to inventory on cancellation.
type StockReleaser interface {
	Release(ctx context.Context, key catalog.VariantKey, qty int) error
}

type RiderSource interface {
	Rider(ctx context.Context, id primitive.ObjectID) (users.User, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafka.Header)
}

// Service is the order builder and status machine.
type Service struct {
	Store   Store
	Cart    CartSource
	Catalog ProductSource
	Ledger  StockReleaser
	Riders  RiderSource
	Txn     mongox.Runner

	CreatedPub Publisher
	StatusPub  Publisher
	Producer   string
}

// Create snapshots the caller's cart into an immutable order and consumes
// the cart in the same transaction. Stock is not re-reserved: it was already
// reserved at cart-add time. The total is always recomputed here; no
// client-supplied figure is trusted.
func (s *Service) Create(ctx context.Context, userID primitive.ObjectID, details CustomerDetails, paymentMethod string) (Order, error) {
	if paymentMethod == "" {
		return Order{}, ErrInvalidPayment
	}

	var ord Order
	err := s.Txn.InTxn(ctx, func(ctx context.Context) error {
		snap, err := s.Cart.Snapshot(ctx, userID)
		if err != nil {
			return err
		}
		if len(snap.Items) == 0 {
			return ErrEmptyCart
		}

		lines := make([]Line, 0, len(snap.Items))
		var total int64
		for _, it := range snap.Items {
			line := Line{
				ProductID:  it.ProductID,
				Color:      it.Color,
				Size:       it.Size,
				Quantity:   it.Quantity,
				PriceCents: it.PriceCents,
			}
			if p, err := s.Catalog.Product(ctx, it.ProductID); err == nil {
				line.Title = p.Title
			} else if !errors.Is(err, catalog.ErrProductNotFound) {
				return err
			}
			lines = append(lines, line)
			total += line.SubtotalCents()
		}

		now := time.Now().UTC()
		ord = Order{
			ID:            primitive.NewObjectID(),
			UserID:        userID,
			Items:         lines,
			TotalCents:    total,
			Customer:      details,
			PaymentMethod: paymentMethod,
			Status:        initialStatus(paymentMethod),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.Store.Insert(ctx, ord); err != nil {
			return err
		}
		return s.Cart.Consume(ctx, userID)
	})
	if err != nil {
		return Order{}, err
	}

	s.publish(s.CreatedPub, EventOrderCreated, ord.ID, OrderCreatedPayload{
		OrderID:       ord.ID.Hex(),
		UserID:        ord.UserID.Hex(),
		TotalCents:    ord.TotalCents,
		PaymentMethod: ord.PaymentMethod,
		Status:        string(ord.Status),
	})
	return ord, nil
}

// Deferred payment starts the lifecycle at Pending; everything else arrives
// already paid.
func initialStatus(paymentMethod string) Status {
	if paymentMethod == PaymentCashOnDelivery {
		return StatusPending
	}
	return StatusPaid
}

// Transition advances an order through the lifecycle. Authorization comes
// first: admins may take any listed edge, riders only Shipped→Delivered on
// their own orders, customers none. Shipping without a rider needs one
// supplied in the same call; assignment and ship are one write, never two.
// Cancellation releases every line's stock inside the same transaction.
func (s *Service) Transition(ctx context.Context, orderID primitive.ObjectID, target Status, actor auth.Principal, riderID *primitive.ObjectID) (Order, error) {
	var ord Order
	var from Status
	err := s.Txn.InTxn(ctx, func(ctx context.Context) error {
		o, err := s.Store.Get(ctx, orderID)
		if err != nil {
			return err
		}
		from = o.Status

		switch actor.Role {
		case users.RoleAdmin:
			// any listed edge
		case users.RoleRider:
			if o.AssignedRider == nil || o.AssignedRider.RiderID != actor.UserID {
				return auth.ErrForbidden
			}
			if o.Status != StatusShipped || target != StatusDelivered {
				return auth.ErrForbidden
			}
		default:
			return auth.ErrForbidden
		}

		if !CanTransition(o.Status, target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
		}

		if riderID != nil {
			if actor.Role != users.RoleAdmin {
				return auth.ErrForbidden
			}
			snap, err := s.riderSnapshot(ctx, *riderID)
			if err != nil {
				return err
			}
			o.AssignedRider = &snap
		}
		if target == StatusShipped && o.AssignedRider == nil {
			return ErrRiderRequired
		}

		if target == StatusCancelled {
			if err := s.releaseLines(ctx, o.Items); err != nil {
				return err
			}
		}

		o.Status = target
		if err := s.Store.Update(ctx, o); err != nil {
			return err
		}
		ord = o
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.publishStatus(ord, from, target)
	return ord, nil
}

// AssignRider sets (or replaces) the rider on a non-terminal order without
// moving the status.
func (s *Service) AssignRider(ctx context.Context, orderID, riderID primitive.ObjectID, actor auth.Principal) (Order, error) {
	if err := auth.Authorize(actor.Role, users.RoleAdmin); err != nil {
		return Order{}, err
	}

	var ord Order
	err := s.Txn.InTxn(ctx, func(ctx context.Context) error {
		o, err := s.Store.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status.Terminal() {
			return fmt.Errorf("%w: order is %s", ErrInvalidTransition, o.Status)
		}
		snap, err := s.riderSnapshot(ctx, riderID)
		if err != nil {
			return err
		}
		o.AssignedRider = &snap
		if err := s.Store.Update(ctx, o); err != nil {
			return err
		}
		ord = o
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return ord, nil
}

func (s *Service) Get(ctx context.Context, orderID primitive.ObjectID, actor auth.Principal) (Order, error) {
	o, err := s.Store.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if err := auth.AuthorizeOwnerOrAdmin(actor.UserID, o.UserID, actor.Role); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *Service) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]Order, error) {
	return s.Store.ListForUser(ctx, userID)
}

func (s *Service) ListForRider(ctx context.Context, riderID primitive.ObjectID) ([]Order, error) {
	return s.Store.ListForRider(ctx, riderID)
}

func (s *Service) CountForRider(ctx context.Context, riderID primitive.ObjectID) (int64, error) {
	return s.Store.CountForRider(ctx, riderID)
}

func (s *Service) ListAll(ctx context.Context, actor auth.Principal) ([]Order, error) {
	if err := auth.Authorize(actor.Role, users.RoleAdmin); err != nil {
		return nil, err
	}
	return s.Store.ListAll(ctx)
}

func (s *Service) riderSnapshot(ctx context.Context, riderID primitive.ObjectID) (RiderSnapshot, error) {
	rider, err := s.Riders.Rider(ctx, riderID)
	if err != nil {
		return RiderSnapshot{}, err
	}
	return RiderSnapshot{RiderID: rider.ID, Name: rider.Name, Phone: rider.Phone}, nil
}

func (s *Service) releaseLines(ctx context.Context, lines []Line) error {
	for _, l := range lines {
		key := catalog.VariantKey{ProductID: l.ProductID, Color: l.Color, Size: l.Size}
		err := s.Ledger.Release(ctx, key, l.Quantity)
		if err != nil && !errors.Is(err, catalog.ErrVariantNotFound) && !errors.Is(err, catalog.ErrProductNotFound) {
			return err
		}
	}
	return nil
}

func (s *Service) publishStatus(o Order, from, target Status) {
	payload := OrderStatusChangedPayload{
		OrderID:    o.ID.Hex(),
		UserID:     o.UserID.Hex(),
		FromStatus: string(from),
		ToStatus:   string(target),
	}
	if o.AssignedRider != nil {
		payload.RiderID = o.AssignedRider.RiderID.Hex()
	}
	s.publish(s.StatusPub, EventOrderStatusChanged, o.ID, payload)
}

func (s *Service) publish(p Publisher, eventType string, orderID primitive.ObjectID, payload any) {
	if p == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.Producer,
		CorrelationID: orderID.Hex(),
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(PartitionKey(orderID.Hex()), kafkax.MustMarshal(ev),
		kafka.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafka.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
