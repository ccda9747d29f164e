package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrVariantNotFound   = errors.New("variant not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Ledger owns every stock mutation. Reserve and Release are the only paths
// that touch a variant's stock count; both are single conditional updates at
// the store, never read-then-write.
type Ledger struct {
	col *mongo.Collection
}

func NewLedger(db *mongo.Database) *Ledger {
	return &Ledger{col: db.Collection("products")}
}

// Reserve decrements the variant's stock by qty, failing without any change
// when fewer than qty units remain. The stock floor lives in the update
// filter so concurrent reserves of the last unit serialize at the store.
func (l *Ledger) Reserve(ctx context.Context, key VariantKey, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("reserve qty must be positive, got %d", qty)
	}
	filter := bson.M{
		"_id": key.ProductID,
		"variants": bson.M{"$elemMatch": bson.M{
			"color": key.Color,
			"size":  key.Size,
			"stock": bson.M{"$gte": qty},
		}},
	}
	update := bson.M{
		"$inc": bson.M{"variants.$.stock": -qty},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := l.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// distinguish a missing variant from an out-of-stock one
		if _, err := l.Variant(ctx, key); err != nil {
			return err
		}
		return ErrInsufficientStock
	}
	return nil
}

// Release is the compensating increment for cart removal or order
// cancellation. No upper bound is enforced; see DESIGN.md.
func (l *Ledger) Release(ctx context.Context, key VariantKey, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("release qty must be positive, got %d", qty)
	}
	filter := bson.M{
		"_id": key.ProductID,
		"variants": bson.M{"$elemMatch": bson.M{
			"color": key.Color,
			"size":  key.Size,
		}},
	}
	update := bson.M{
		"$inc": bson.M{"variants.$.stock": qty},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := l.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVariantNotFound
	}
	return nil
}

// AdjustStock applies an admin restock (or correction). Negative deltas keep
// the zero floor in the filter, same as Reserve.
func (l *Ledger) AdjustStock(ctx context.Context, key VariantKey, delta int) (Variant, error) {
	if delta < 0 {
		if err := l.Reserve(ctx, key, -delta); err != nil {
			return Variant{}, err
		}
	} else if delta > 0 {
		if err := l.Release(ctx, key, delta); err != nil {
			return Variant{}, err
		}
	}
	return l.Variant(ctx, key)
}

// Variant looks up live price and stock for a variant.
func (l *Ledger) Variant(ctx context.Context, key VariantKey) (Variant, error) {
	p, err := l.Product(ctx, key.ProductID)
	if err != nil {
		return Variant{}, err
	}
	v, ok := p.FindVariant(key.Color, key.Size)
	if !ok {
		return Variant{}, ErrVariantNotFound
	}
	return v, nil
}

func (l *Ledger) Product(ctx context.Context, id primitive.ObjectID) (Product, error) {
	var p Product
	err := l.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

func (l *Ledger) ListProducts(ctx context.Context) ([]Product, error) {
	cur, err := l.col.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var out []Product
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
