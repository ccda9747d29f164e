package catalog

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VariantKey identifies a purchasable color/size combination of a product.
type VariantKey struct {
	ProductID primitive.ObjectID
	Color     string
	Size      string
}

type Variant struct {
	Color      string `bson:"color" json:"color"`
	Size       string `bson:"size" json:"size"`
	Stock      int    `bson:"stock" json:"stock"`
	PriceCents int64  `bson:"priceCents" json:"price_cents"`
	SKU        string `bson:"sku,omitempty" json:"sku,omitempty"`
	Image      string `bson:"image,omitempty" json:"image,omitempty"`
}

type Ratings struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Category    string             `bson:"category" json:"category"`
	Brand       string             `bson:"brand" json:"brand"`
	Variants    []Variant          `bson:"variants" json:"variants"`
	IsFeatured  bool               `bson:"isFeatured" json:"is_featured"`
	Ratings     Ratings            `bson:"ratings" json:"ratings"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updated_at"`
}

// FindVariant returns the variant matching key, if present.
func (p Product) FindVariant(color, size string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.Color == color && v.Size == size {
			return v, true
		}
	}
	return Variant{}, false
}
