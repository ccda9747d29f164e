package cart_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pressplay/gamestore/internal/cart"
	"github.com/pressplay/gamestore/internal/catalog"
)

type passTxn struct{}

func (passTxn) InTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memLedger mirrors the conditional-decrement contract of the mongo ledger:
// the stock check and the decrement are one step under the lock.
type memLedger struct {
	mu       sync.Mutex
	variants map[catalog.VariantKey]catalog.Variant
}

func newMemLedger() *memLedger {
	return &memLedger{variants: map[catalog.VariantKey]catalog.Variant{}}
}

func (m *memLedger) Variant(_ context.Context, key catalog.VariantKey) (catalog.Variant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.variants[key]
	if !ok {
		return catalog.Variant{}, catalog.ErrVariantNotFound
	}
	return v, nil
}

func (m *memLedger) Reserve(_ context.Context, key catalog.VariantKey, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.variants[key]
	if !ok {
		return catalog.ErrVariantNotFound
	}
	if v.Stock < qty {
		return catalog.ErrInsufficientStock
	}
	v.Stock -= qty
	m.variants[key] = v
	return nil
}

func (m *memLedger) Release(_ context.Context, key catalog.VariantKey, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.variants[key]
	if !ok {
		return catalog.ErrVariantNotFound
	}
	v.Stock += qty
	m.variants[key] = v
	return nil
}

func (m *memLedger) stock(key catalog.VariantKey) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.variants[key].Stock
}

type memStore struct {
	mu    sync.Mutex
	carts map[primitive.ObjectID][]cart.Line
}

func newMemStore() *memStore {
	return &memStore{carts: map[primitive.ObjectID][]cart.Line{}}
}

func (m *memStore) Get(_ context.Context, userID primitive.ObjectID) (cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]cart.Line, len(m.carts[userID]))
	copy(items, m.carts[userID])
	return cart.Cart{UserID: userID, Items: items}, nil
}

func (m *memStore) UpsertLine(_ context.Context, userID primitive.ObjectID, line cart.Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.carts[userID]
	for i, l := range items {
		if l.Key() == line.Key() {
			items[i] = line
			return nil
		}
	}
	m.carts[userID] = append(items, line)
	return nil
}

func (m *memStore) RemoveLine(_ context.Context, userID primitive.ObjectID, key catalog.VariantKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.carts[userID]
	for i, l := range items {
		if l.Key() == key {
			m.carts[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memStore) Clear(_ context.Context, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[userID] = nil
	return nil
}

func newService(t *testing.T) (*cart.Service, *memLedger, catalog.VariantKey) {
	t.Helper()
	ledger := newMemLedger()
	key := catalog.VariantKey{ProductID: primitive.NewObjectID(), Color: "black", Size: "M"}
	ledger.variants[key] = catalog.Variant{Color: "black", Size: "M", Stock: 5, PriceCents: 2000}
	svc := &cart.Service{Ledger: ledger, Store: newMemStore(), Txn: passTxn{}}
	return svc, ledger, key
}

func TestAddReservesStock(t *testing.T) {
	svc, ledger, key := newService(t)
	user := primitive.NewObjectID()

	snap, err := svc.AddOrUpdate(context.Background(), user, key, 3)
	require.NoError(t, err)

	assert.Equal(t, 2, ledger.stock(key))
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 3, snap.Items[0].Quantity)
	assert.Equal(t, int64(2000), snap.Items[0].PriceCents)
	assert.Equal(t, int64(6000), snap.TotalCents)
}

func TestAddIsQuantityReplacement(t *testing.T) {
	svc, ledger, key := newService(t)
	user := primitive.NewObjectID()

	_, err := svc.AddOrUpdate(context.Background(), user, key, 3)
	require.NoError(t, err)

	// shrink: delta released back
	snap, err := svc.AddOrUpdate(context.Background(), user, key, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, ledger.stock(key))
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 1, snap.Items[0].Quantity)

	// grow: only the delta reserved
	snap, err = svc.AddOrUpdate(context.Background(), user, key, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.stock(key))
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 4, snap.Items[0].Quantity)
}

func TestAddInsufficientStockLeavesLineUnchanged(t *testing.T) {
	svc, ledger, key := newService(t)
	user := primitive.NewObjectID()

	_, err := svc.AddOrUpdate(context.Background(), user, key, 2)
	require.NoError(t, err)

	_, err = svc.AddOrUpdate(context.Background(), user, key, 9)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)

	assert.Equal(t, 3, ledger.stock(key))
	snap, err := svc.Snapshot(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].Quantity)
}

func TestAddZeroStock(t *testing.T) {
	svc, ledger, key := newService(t)
	v := ledger.variants[key]
	v.Stock = 0
	ledger.variants[key] = v
	user := primitive.NewObjectID()

	_, err := svc.AddOrUpdate(context.Background(), user, key, 1)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
	assert.Equal(t, 0, ledger.stock(key))

	snap, err := svc.Snapshot(context.Background(), user)
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	svc, _, key := newService(t)
	user := primitive.NewObjectID()

	_, err := svc.AddOrUpdate(context.Background(), user, key, 0)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)
	_, err = svc.AddOrUpdate(context.Background(), user, key, -2)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)
}

func TestRemoveIsIdempotent(t *testing.T) {
	svc, ledger, key := newService(t)
	user := primitive.NewObjectID()

	_, err := svc.AddOrUpdate(context.Background(), user, key, 2)
	require.NoError(t, err)

	snap, err := svc.Remove(context.Background(), user, key)
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.Equal(t, 5, ledger.stock(key))

	// second remove: same snapshot, no double release
	snap, err = svc.Remove(context.Background(), user, key)
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.Equal(t, 5, ledger.stock(key))
}

func TestClearReleasesEveryLine(t *testing.T) {
	svc, ledger, key := newService(t)
	key2 := catalog.VariantKey{ProductID: primitive.NewObjectID(), Color: "white", Size: "L"}
	ledger.variants[key2] = catalog.Variant{Color: "white", Size: "L", Stock: 3, PriceCents: 1500}
	user := primitive.NewObjectID()

	_, err := svc.AddOrUpdate(context.Background(), user, key, 2)
	require.NoError(t, err)
	_, err = svc.AddOrUpdate(context.Background(), user, key2, 3)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), user))

	assert.Equal(t, 5, ledger.stock(key))
	assert.Equal(t, 3, ledger.stock(key2))
	n, err := svc.CountItems(context.Background(), user)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConsumeKeepsReservation(t *testing.T) {
	svc, ledger, key := newService(t)
	user := primitive.NewObjectID()

	_, err := svc.AddOrUpdate(context.Background(), user, key, 3)
	require.NoError(t, err)

	require.NoError(t, svc.Consume(context.Background(), user))

	assert.Equal(t, 2, ledger.stock(key), "consume must not release reserved stock")
	snap, err := svc.Snapshot(context.Background(), user)
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
}

func TestConcurrentReserveLastUnit(t *testing.T) {
	svc, ledger, key := newService(t)
	v := ledger.variants[key]
	v.Stock = 1
	ledger.variants[key] = v

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := primitive.NewObjectID()
			_, errs[i] = svc.AddOrUpdate(context.Background(), user, key, 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one caller may win the last unit")
	assert.Equal(t, 0, ledger.stock(key))
}
