// Package checkout implements order submission: validating the cart,
// persisting the order and producing the receipt.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/miamore/storefront/internal/cart"
	"github.com/miamore/storefront/internal/receipt"
	"github.com/miamore/storefront/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// ErrEmptyCart is returned when checkout is attempted with no cart lines.
var ErrEmptyCart = errors.New("cart is empty")

// ErrCheckoutInFlight is returned when a checkout is attempted while another
// one is still persisting. Guards against duplicate order submission from
// rapid repeated triggers.
var ErrCheckoutInFlight = errors.New("checkout already in progress")

// CartStore is the cart surface checkout needs.
type CartStore interface {
	Items() []cart.LineItem
	Clear()
}

// OrderStore is the persistence surface checkout needs.
type OrderStore interface {
	AddOrder(ctx context.Context, order store.NewOrder) (int64, error)
}

// Result is the outcome of a completed checkout.
type Result struct {
	Order   store.Order
	Receipt string
}

// Service submits orders from the current cart state.
type Service struct {
	cart          CartStore
	orders        OrderStore
	logger        *slog.Logger
	inFlight      atomic.Bool
	ordersCounter metric.Int64Counter
	now           func() time.Time
}

// NewService creates a checkout service over the given cart and order store.
func NewService(cartStore CartStore, orders OrderStore, logger *slog.Logger) *Service {
	meter := otel.Meter("storefront")
	ordersCounter, err := meter.Int64Counter("orders_created", metric.WithDescription("Total number of created orders"))
	if err != nil {
		panic(fmt.Sprintf("failed to create orders_created counter: %v", err))
	}
	return &Service{
		cart:          cartStore,
		orders:        orders,
		logger:        logger.With("component", "checkout"),
		ordersCounter: ordersCounter,
		now:           time.Now,
	}
}

// Checkout validates the cart, persists the order and returns the stored
// record with its receipt. On a storage failure the cart is left untouched so
// the user can retry; on an empty cart it fails without side effects. Only
// one checkout may be persisting at a time.
func (s *Service) Checkout(ctx context.Context) (*Result, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrCheckoutInFlight
	}
	defer s.inFlight.Store(false)

	items := s.cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	subtotal := cart.Subtotal(items)
	orderItems := make([]store.OrderItem, 0, len(items))
	for _, it := range items {
		orderItems = append(orderItems, store.OrderItem{
			ProductID: it.ID,
			Name:      it.Name,
			Price:     it.Price,
			Qty:       it.Qty,
		})
	}
	newOrder := store.NewOrder{
		CreatedAt: s.now().UTC(),
		Items:     orderItems,
		Subtotal:  subtotal,
		Total:     subtotal, // no delivery fee, no tax
	}

	orderID, err := s.orders.AddOrder(ctx, newOrder)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist order", "error", err)
		return nil, err
	}

	doc, err := receipt.Render(items, subtotal)
	if err != nil {
		return nil, err
	}

	s.cart.Clear()
	s.ordersCounter.Add(ctx, 1)
	s.logger.InfoContext(ctx, "order created", "order_id", orderID, "items", len(orderItems), "total", subtotal)

	return &Result{
		Order: store.Order{
			ID:        orderID,
			CreatedAt: newOrder.CreatedAt,
			Items:     orderItems,
			Subtotal:  subtotal,
			Total:     subtotal,
		},
		Receipt: doc,
	}, nil
}
