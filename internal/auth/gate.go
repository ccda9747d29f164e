package auth

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pressplay/gamestore/internal/users"
)

var ErrForbidden = errors.New("forbidden")

// Authorize is the single role predicate every mutating operation consults.
// Admin passes any check.
func Authorize(actor, required users.Role) error {
	if actor == users.RoleAdmin || actor == required {
		return nil
	}
	return ErrForbidden
}

// AuthorizeOwnerOrAdmin grants access to the resource owner and to admins.
func AuthorizeOwnerOrAdmin(actorID, ownerID primitive.ObjectID, actor users.Role) error {
	if actor == users.RoleAdmin || actorID == ownerID {
		return nil
	}
	return ErrForbidden
}
