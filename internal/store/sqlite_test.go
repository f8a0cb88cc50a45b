package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/miamore/storefront/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore(filepath.Join(t.TempDir(), "storefront.db"))
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func Test_SeedProducts_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	products := catalog.Default().All()

	require.NoError(t, s.SeedProducts(ctx, products))
	require.NoError(t, s.SeedProducts(ctx, products))

	persisted, err := s.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, products, persisted)
}

func Test_SeedProducts_UpsertsChanges(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SeedProducts(ctx, []catalog.Product{
		{ID: 1, Name: "Latte", Price: 400, Category: catalog.CategoryCoffee, Image: "latte.svg"},
	}))
	require.NoError(t, s.SeedProducts(ctx, []catalog.Product{
		{ID: 1, Name: "Latte", Price: 450, Category: catalog.CategoryCoffee, Image: "latte.svg"},
	}))

	persisted, err := s.Products(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, int64(450), persisted[0].Price)
}

func Test_AddOrder_AssignsMonotonicIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	order := NewOrder{
		CreatedAt: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
		Items: []OrderItem{
			{ProductID: 2, Name: "Latte", Price: 400, Qty: 2},
			{ProductID: 5, Name: "Croissant", Price: 300, Qty: 1},
		},
		Subtotal: 1100,
		Total:    1100,
	}

	first, err := s.AddOrder(ctx, order)
	require.NoError(t, err)
	second, err := s.AddOrder(ctx, order)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
}

func Test_FindOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	createdAt := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	items := []OrderItem{
		{ProductID: 2, Name: "Latte", Price: 400, Qty: 2},
		{ProductID: 5, Name: "Croissant", Price: 300, Qty: 1},
	}
	id, err := s.AddOrder(ctx, NewOrder{CreatedAt: createdAt, Items: items, Subtotal: 1100, Total: 1100})
	require.NoError(t, err)

	order, err := s.FindOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, order.ID)
	assert.Equal(t, createdAt, order.CreatedAt)
	assert.Equal(t, items, order.Items)
	assert.Equal(t, int64(1100), order.Subtotal)
	assert.Equal(t, int64(1100), order.Total)
}

func Test_FindOrder_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.FindOrder(ctx, 42)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func Test_Orders_EmptyCollection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	orders, err := s.Orders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.NotNil(t, orders)
}

func Test_Orders_PreservesItemOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	items := []OrderItem{
		{ProductID: 5, Name: "Croissant", Price: 300, Qty: 1},
		{ProductID: 2, Name: "Latte", Price: 400, Qty: 2},
		{ProductID: 7, Name: "Cookie", Price: 150, Qty: 3},
	}
	_, err := s.AddOrder(ctx, NewOrder{CreatedAt: time.Now().UTC().Truncate(time.Second), Items: items, Subtotal: 1550, Total: 1550})
	require.NoError(t, err)

	orders, err := s.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, items, orders[0].Items)
}

func Test_Reopen_KeepsOrders(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storefront.db")

	s := NewSQLiteStore(path)
	_, err := s.AddOrder(ctx, NewOrder{
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Items:     []OrderItem{{ProductID: 7, Name: "Cookie", Price: 150, Qty: 1}},
		Subtotal:  150,
		Total:     150,
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// A fresh store over the same file re-runs migrations idempotently and
	// must not lose existing orders.
	reopened := NewSQLiteStore(path)
	defer reopened.Close()

	orders, err := reopened.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	id, err := reopened.AddOrder(ctx, NewOrder{
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Items:     []OrderItem{{ProductID: 4, Name: "Green Tea", Price: 250, Qty: 1}},
		Subtotal:  250,
		Total:     250,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
}

func Test_Open_FailsWithoutPath(t *testing.T) {
	s := NewSQLiteStore("")
	defer s.Close()

	_, err := s.Orders(context.Background())

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "open", storageErr.Op)
}

func Test_LazyOpen_Memoized(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Concurrent first operations must resolve against a single open.
	errs := make(chan error, 4)
	for range 4 {
		go func() {
			_, err := s.Orders(ctx)
			errs <- err
		}()
	}
	for range 4 {
		require.NoError(t, <-errs)
	}
}
