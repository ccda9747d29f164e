package users

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleRider    Role = "rider"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleAdmin, RoleRider:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type RiderDetails struct {
	VehicleType   string `bson:"vehicleType,omitempty" json:"vehicle_type,omitempty"`
	LicenseNumber string `bson:"licenseNumber,omitempty" json:"license_number,omitempty"`
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SubjectID    string             `bson:"subjectId" json:"-"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address      string             `bson:"address,omitempty" json:"address,omitempty"`
	Role         Role               `bson:"role" json:"role"`
	RiderDetails RiderDetails       `bson:"riderDetails,omitempty" json:"rider_details,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updated_at"`
}
