package users

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrRiderNotFound = errors.New("rider not found")
	ErrEmailTaken    = errors.New("email already registered")
)

// Directory maps identity-provider subjects to store users and owns the
// rider roster.
type Directory struct {
	col *mongo.Collection
}

func NewDirectory(db *mongo.Database) *Directory {
	return &Directory{col: db.Collection("users")}
}

func (d *Directory) BySubject(ctx context.Context, subjectID string) (User, error) {
	var u User
	err := d.col.FindOne(ctx, bson.M{"subjectId": subjectID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (d *Directory) ByID(ctx context.Context, id primitive.ObjectID) (User, error) {
	var u User
	err := d.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrNotFound
	}
	return u, err
}

// Rider returns the user only when it exists with the rider role.
func (d *Directory) Rider(ctx context.Context, id primitive.ObjectID) (User, error) {
	var u User
	err := d.col.FindOne(ctx, bson.M{"_id": id, "role": RoleRider}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrRiderNotFound
	}
	return u, err
}

func (d *Directory) ListRiders(ctx context.Context) ([]User, error) {
	cur, err := d.col.Find(ctx, bson.M{"role": RoleRider},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type RiderInput struct {
	SubjectID string
	Name      string
	Email     string
	Phone     string
	Address   string
	Details   RiderDetails
}

func (d *Directory) CreateRider(ctx context.Context, in RiderInput) (User, error) {
	n, err := d.col.CountDocuments(ctx, bson.M{"email": in.Email})
	if err != nil {
		return User{}, err
	}
	if n > 0 {
		return User{}, ErrEmailTaken
	}

	now := time.Now().UTC()
	u := User{
		ID:           primitive.NewObjectID(),
		SubjectID:    in.SubjectID,
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Address:      in.Address,
		Role:         RoleRider,
		RiderDetails: in.Details,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := d.col.InsertOne(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

type RiderUpdate struct {
	Name    string
	Phone   string
	Address string
	Details RiderDetails
}

func (d *Directory) UpdateRider(ctx context.Context, id primitive.ObjectID, up RiderUpdate) (User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if up.Name != "" {
		set["name"] = up.Name
	}
	if up.Phone != "" {
		set["phone"] = up.Phone
	}
	if up.Address != "" {
		set["address"] = up.Address
	}
	if up.Details.VehicleType != "" {
		set["riderDetails.vehicleType"] = up.Details.VehicleType
	}
	if up.Details.LicenseNumber != "" {
		set["riderDetails.licenseNumber"] = up.Details.LicenseNumber
	}

	var u User
	err := d.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "role": RoleRider},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrRiderNotFound
	}
	return u, err
}

func (d *Directory) DeleteRider(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.col.DeleteOne(ctx, bson.M{"_id": id, "role": RoleRider})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrRiderNotFound
	}
	return nil
}

// EnsureIndexes creates the unique lookup indexes the directory relies on.
func (d *Directory) EnsureIndexes(ctx context.Context) error {
	_, err := d.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "subjectId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}
