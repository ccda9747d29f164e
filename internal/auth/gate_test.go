package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pressplay/gamestore/internal/users"
)

func TestAuthorize(t *testing.T) {
	assert.NoError(t, Authorize(users.RoleAdmin, users.RoleAdmin))
	assert.NoError(t, Authorize(users.RoleAdmin, users.RoleRider))
	assert.NoError(t, Authorize(users.RoleAdmin, users.RoleCustomer))
	assert.NoError(t, Authorize(users.RoleRider, users.RoleRider))
	assert.NoError(t, Authorize(users.RoleCustomer, users.RoleCustomer))

	assert.ErrorIs(t, Authorize(users.RoleCustomer, users.RoleAdmin), ErrForbidden)
	assert.ErrorIs(t, Authorize(users.RoleCustomer, users.RoleRider), ErrForbidden)
	assert.ErrorIs(t, Authorize(users.RoleRider, users.RoleAdmin), ErrForbidden)
	assert.ErrorIs(t, Authorize(users.RoleRider, users.RoleCustomer), ErrForbidden)
}

func TestAuthorizeOwnerOrAdmin(t *testing.T) {
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()

	assert.NoError(t, AuthorizeOwnerOrAdmin(owner, owner, users.RoleCustomer))
	assert.NoError(t, AuthorizeOwnerOrAdmin(other, owner, users.RoleAdmin))
	assert.ErrorIs(t, AuthorizeOwnerOrAdmin(other, owner, users.RoleCustomer), ErrForbidden)
	assert.ErrorIs(t, AuthorizeOwnerOrAdmin(other, owner, users.RoleRider), ErrForbidden)
}
