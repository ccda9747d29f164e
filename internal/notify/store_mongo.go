package notify

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Notification struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	OrderID       string             `bson:"orderId"`
	RecipientID   string             `bson:"recipientId"`
	RecipientRole string             `bson:"recipientRole"`
	Message       string             `bson:"message"`
	CreatedAt     time.Time          `bson:"createdAt"`
}

type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("notifications")}
}

func (m *MongoStore) Insert(ctx context.Context, n Notification) error {
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now().UTC()
	_, err := m.col.InsertOne(ctx, n)
	return err
}
