package mongox

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// Runner executes a function as a single all-or-nothing unit. Multi-step
// flows (reserve + cart write, order insert + cart clear) go through it so
// a partial failure never leaves the store half-applied.
type Runner interface {
	InTxn(ctx context.Context, fn func(ctx context.Context) error) error
}

// TxnRunner runs fn inside a mongo session transaction. Writes made with the
// session context commit together or not at all; write conflicts are retried
// by the driver.
type TxnRunner struct {
	Client *mongo.Client
}

func (t *TxnRunner) InTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := t.Client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}
