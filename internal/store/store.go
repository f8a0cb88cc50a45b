// Package store persists the product snapshot and submitted orders to a
// local database.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/miamore/storefront/internal/catalog"
)

// ErrOrderNotFound is returned when no order exists with the requested id.
var ErrOrderNotFound = errors.New("order not found")

// StorageError wraps a failed storage operation with its underlying cause.
// Callers surface it to the user so a failed write is never silently dropped.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// storageErr wraps err as a StorageError for the given operation.
func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// OrderItem is one line-item snapshot inside a persisted order.
type OrderItem struct {
	ProductID int64  `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Qty       int64  `json:"qty"`
}

// Order is an immutable record of a completed checkout. The id is assigned
// by the store on write; orders are never updated or deleted.
type Order struct {
	ID        int64       `json:"orderId"`
	CreatedAt time.Time   `json:"createdAt"`
	Items     []OrderItem `json:"items"`
	Subtotal  int64       `json:"subtotal"`
	Total     int64       `json:"total"`
}

// NewOrder carries the fields of an order before the store assigns its id.
type NewOrder struct {
	CreatedAt time.Time
	Items     []OrderItem
	Subtotal  int64
	Total     int64
}

// Store is the persistence layer over the products and orders collections.
// Implementations open the underlying database lazily and idempotently; any
// failure is reported as a *StorageError.
type Store interface {
	// SeedProducts upserts the catalog snapshot into the products
	// collection. Safe to call repeatedly.
	SeedProducts(ctx context.Context, products []catalog.Product) error

	// AddOrder inserts a new order and returns its store-assigned id.
	// Ids are monotonically increasing and unique.
	AddOrder(ctx context.Context, order NewOrder) (int64, error)

	// FindOrder retrieves one order by id.
	// Returns ErrOrderNotFound if no order exists with the given id.
	FindOrder(ctx context.Context, id int64) (*Order, error)

	// Orders returns every persisted order. An empty collection yields an
	// empty slice, never an error.
	Orders(ctx context.Context) ([]Order, error)

	// Products returns the persisted product snapshot.
	Products(ctx context.Context) ([]catalog.Product, error)

	// Close releases the underlying database handle.
	Close() error
}
