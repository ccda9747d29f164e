package cart

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pressplay/gamestore/internal/catalog"
)

// MongoStore keeps one cart document per user.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("carts")}
}

func (m *MongoStore) Get(ctx context.Context, userID primitive.ObjectID) (Cart, error) {
	var c Cart
	err := m.col.FindOne(ctx, bson.M{"user": userID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Cart{UserID: userID, Items: []Line{}}, nil
	}
	return c, err
}

func (m *MongoStore) UpsertLine(ctx context.Context, userID primitive.ObjectID, line Line) error {
	now := time.Now().UTC()

	// replace in place when the variant already has a line
	res, err := m.col.UpdateOne(ctx,
		bson.M{"user": userID, "items": bson.M{"$elemMatch": bson.M{
			"productId": line.ProductID,
			"color":     line.Color,
			"size":      line.Size,
		}}},
		bson.M{
			"$set": bson.M{
				"items.$.quantity":   line.Quantity,
				"items.$.priceCents": line.PriceCents,
				"updatedAt":          now,
			},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	_, err = m.col.UpdateOne(ctx,
		bson.M{"user": userID},
		bson.M{
			"$push":        bson.M{"items": line},
			"$set":         bson.M{"updatedAt": now},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (m *MongoStore) RemoveLine(ctx context.Context, userID primitive.ObjectID, key catalog.VariantKey) error {
	_, err := m.col.UpdateOne(ctx,
		bson.M{"user": userID},
		bson.M{
			"$pull": bson.M{"items": bson.M{
				"productId": key.ProductID,
				"color":     key.Color,
				"size":      key.Size,
			}},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	return err
}

func (m *MongoStore) Clear(ctx context.Context, userID primitive.ObjectID) error {
	_, err := m.col.UpdateOne(ctx,
		bson.M{"user": userID},
		bson.M{"$set": bson.M{"items": []Line{}, "updatedAt": time.Now().UTC()}},
	)
	return err
}

func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := m.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
