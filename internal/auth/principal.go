package auth

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pressplay/gamestore/internal/users"
)

// Principal is the verified caller: identity-provider subject plus the store
// user it maps to. It is attached to the request context once per request.
type Principal struct {
	UserID    primitive.ObjectID
	SubjectID string
	Email     string
	Role      users.Role
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
