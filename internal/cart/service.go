package cart

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pressplay/gamestore/internal/catalog"
	"github.com/pressplay/gamestore/internal/mongox"
)

var ErrInvalidQuantity = errors.New("quantity must be positive")

// Ledger is the slice of the inventory ledger the cart needs. All stock
// movement goes through it; the cart never touches stock counts directly.
type Ledger interface {
	Variant(ctx context.Context, key catalog.VariantKey) (catalog.Variant, error)
	Reserve(ctx context.Context, key catalog.VariantKey, qty int) error
	Release(ctx context.Context, key catalog.VariantKey, qty int) error
}

type Store interface {
	Get(ctx context.Context, userID primitive.ObjectID) (Cart, error)
	UpsertLine(ctx context.Context, userID primitive.ObjectID, line Line) error
	RemoveLine(ctx context.Context, userID primitive.ObjectID, key catalog.VariantKey) error
	Clear(ctx context.Context, userID primitive.ObjectID) error
}

// Service is the cart aggregator. Every mutating flow runs inside the txn
// runner so a stock movement and its cart write land together or not at all.
type Service struct {
	Ledger Ledger
	Store  Store
	Txn    mongox.Runner
}

// AddOrUpdate reserves stock and writes the line. Re-adding an existing
// variant is a quantity replacement: only the net delta moves through the
// ledger, and a failed reserve leaves the old line untouched.
func (s *Service) AddOrUpdate(ctx context.Context, userID primitive.ObjectID, key catalog.VariantKey, qty int) (Snapshot, error) {
	if qty <= 0 {
		return Snapshot{}, ErrInvalidQuantity
	}

	var snap Snapshot
	err := s.Txn.InTxn(ctx, func(ctx context.Context) error {
		v, err := s.Ledger.Variant(ctx, key)
		if err != nil {
			return err
		}
		c, err := s.Store.Get(ctx, userID)
		if err != nil {
			return err
		}

		old := 0
		if line, ok := c.Line(key); ok {
			old = line.Quantity
		}
		switch delta := qty - old; {
		case delta > 0:
			if err := s.Ledger.Reserve(ctx, key, delta); err != nil {
				return err
			}
		case delta < 0:
			if err := s.Ledger.Release(ctx, key, -delta); err != nil {
				return err
			}
		}

		line := Line{
			ProductID:  key.ProductID,
			Color:      key.Color,
			Size:       key.Size,
			PriceCents: v.PriceCents,
			Quantity:   qty,
		}
		if err := s.Store.UpsertLine(ctx, userID, line); err != nil {
			return err
		}
		snap, err = s.snapshot(ctx, userID)
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Remove releases the line's full quantity and deletes it. Removing an
// absent line is a no-op returning the current snapshot, so duplicate client
// retries never double-release stock.
func (s *Service) Remove(ctx context.Context, userID primitive.ObjectID, key catalog.VariantKey) (Snapshot, error) {
	var snap Snapshot
	err := s.Txn.InTxn(ctx, func(ctx context.Context) error {
		c, err := s.Store.Get(ctx, userID)
		if err != nil {
			return err
		}
		line, ok := c.Line(key)
		if !ok {
			snap = snapshotOf(c)
			return nil
		}
		if err := s.releaseLine(ctx, line); err != nil {
			return err
		}
		if err := s.Store.RemoveLine(ctx, userID, key); err != nil {
			return err
		}
		snap, err = s.snapshot(ctx, userID)
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Clear releases every line's quantity before emptying the cart. Clearing
// follows the same release policy as single-line removal.
func (s *Service) Clear(ctx context.Context, userID primitive.ObjectID) error {
	return s.Txn.InTxn(ctx, func(ctx context.Context) error {
		c, err := s.Store.Get(ctx, userID)
		if err != nil {
			return err
		}
		for _, line := range c.Items {
			if err := s.releaseLine(ctx, line); err != nil {
				return err
			}
		}
		return s.Store.Clear(ctx, userID)
	})
}

// Consume empties the cart without releasing stock: the lines' reservations
// move to the order created from them. Only the order builder calls this.
func (s *Service) Consume(ctx context.Context, userID primitive.ObjectID) error {
	return s.Store.Clear(ctx, userID)
}

func (s *Service) Snapshot(ctx context.Context, userID primitive.ObjectID) (Snapshot, error) {
	return s.snapshot(ctx, userID)
}

func (s *Service) CountItems(ctx context.Context, userID primitive.ObjectID) (int, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return 0, err
	}
	return snap.ItemCount, nil
}

func (s *Service) snapshot(ctx context.Context, userID primitive.ObjectID) (Snapshot, error) {
	c, err := s.Store.Get(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	return snapshotOf(c), nil
}

// releaseLine tolerates a variant that no longer exists: deleting a product
// must not strand its reserved quantities in carts forever.
func (s *Service) releaseLine(ctx context.Context, line Line) error {
	err := s.Ledger.Release(ctx, line.Key(), line.Quantity)
	if err != nil && !errors.Is(err, catalog.ErrVariantNotFound) && !errors.Is(err, catalog.ErrProductNotFound) {
		return fmt.Errorf("release %s: %w", line.ProductID.Hex(), err)
	}
	return nil
}
