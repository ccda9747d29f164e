package orders

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Line is an immutable snapshot of a cart line at order time. It is a copy,
// not a reference: later price or stock changes never alter order history.
type Line struct {
	ProductID  primitive.ObjectID `bson:"productId" json:"product_id"`
	Title      string             `bson:"title" json:"title"`
	Color      string             `bson:"color" json:"color"`
	Size       string             `bson:"size" json:"size"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	PriceCents int64              `bson:"priceCents" json:"price_cents"`
}

func (l Line) SubtotalCents() int64 {
	return l.PriceCents * int64(l.Quantity)
}

// CustomerDetails is copied into the order at creation.
type CustomerDetails struct {
	Name    string `bson:"name" json:"name"`
	Phone   string `bson:"phone" json:"phone"`
	Address string `bson:"address" json:"address"`
}

// RiderSnapshot captures the assigned rider's identity at assignment time.
type RiderSnapshot struct {
	RiderID primitive.ObjectID `bson:"riderId" json:"rider_id"`
	Name    string             `bson:"name" json:"name"`
	Phone   string             `bson:"phone,omitempty" json:"phone,omitempty"`
}

const PaymentCashOnDelivery = "cash_on_delivery"

type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"user" json:"user_id"`
	Items         []Line             `bson:"items" json:"items"`
	TotalCents    int64              `bson:"totalCents" json:"total_cents"`
	Customer      CustomerDetails    `bson:"customerDetails" json:"customer_details"`
	PaymentMethod string             `bson:"paymentMethod" json:"payment_method"`
	Status        Status             `bson:"status" json:"status"`
	AssignedRider *RiderSnapshot     `bson:"assignedRider,omitempty" json:"assigned_rider,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updated_at"`
}
