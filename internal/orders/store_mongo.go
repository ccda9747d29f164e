package orders

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("orders")}
}

func (m *MongoStore) Insert(ctx context.Context, o Order) error {
	_, err := m.col.InsertOne(ctx, o)
	return err
}

func (m *MongoStore) Get(ctx context.Context, id primitive.ObjectID) (Order, error) {
	var o Order
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Order{}, ErrNotFound
	}
	return o, err
}

// Update persists a status change and/or rider assignment, advancing
// updatedAt in the same write.
func (m *MongoStore) Update(ctx context.Context, o Order) error {
	o.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"status":    o.Status,
		"updatedAt": o.UpdatedAt,
	}
	if o.AssignedRider != nil {
		set["assignedRider"] = o.AssignedRider
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": o.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]Order, error) {
	return m.list(ctx, bson.M{"user": userID})
}

func (m *MongoStore) ListForRider(ctx context.Context, riderID primitive.ObjectID) ([]Order, error) {
	return m.list(ctx, bson.M{"assignedRider.riderId": riderID})
}

func (m *MongoStore) ListAll(ctx context.Context) ([]Order, error) {
	return m.list(ctx, bson.M{})
}

func (m *MongoStore) CountForRider(ctx context.Context, riderID primitive.ObjectID) (int64, error) {
	return m.col.CountDocuments(ctx, bson.M{"assignedRider.riderId": riderID})
}

func (m *MongoStore) list(ctx context.Context, filter bson.M) ([]Order, error) {
	cur, err := m.col.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := []Order{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
