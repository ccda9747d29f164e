package cart

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pressplay/gamestore/internal/catalog"
)

// Line is one reserved variant quantity in a user's cart. At most one line
// exists per (user, variant); re-adding the same variant replaces the
// quantity. PriceCents is captured at add time.
type Line struct {
	ProductID  primitive.ObjectID `bson:"productId" json:"product_id"`
	Color      string             `bson:"color" json:"color"`
	Size       string             `bson:"size" json:"size"`
	PriceCents int64              `bson:"priceCents" json:"price_cents"`
	Quantity   int                `bson:"quantity" json:"quantity"`
}

func (l Line) Key() catalog.VariantKey {
	return catalog.VariantKey{ProductID: l.ProductID, Color: l.Color, Size: l.Size}
}

func (l Line) SubtotalCents() int64 {
	return l.PriceCents * int64(l.Quantity)
}

type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID    primitive.ObjectID `bson:"user" json:"-"`
	Items     []Line             `bson:"items" json:"items"`
	CreatedAt time.Time          `bson:"createdAt" json:"-"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"-"`
}

func (c Cart) Line(key catalog.VariantKey) (Line, bool) {
	for _, l := range c.Items {
		if l.Key() == key {
			return l, true
		}
	}
	return Line{}, false
}

// Snapshot is the view returned to callers after every cart operation.
type Snapshot struct {
	Items      []Line `json:"items"`
	ItemCount  int    `json:"item_count"`
	TotalCents int64  `json:"total_cents"`
}

func snapshotOf(c Cart) Snapshot {
	s := Snapshot{Items: c.Items}
	if s.Items == nil {
		s.Items = []Line{}
	}
	for _, l := range c.Items {
		s.ItemCount += l.Quantity
		s.TotalCents += l.SubtotalCents()
	}
	return s
}
