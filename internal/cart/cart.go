// Package cart implements the in-memory shopping cart.
package cart

import (
	"log/slog"
	"sync"

	"github.com/miamore/storefront/internal/catalog"
)

// LineItem is the flattened view of one cart line.
type LineItem struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Qty   int64  `json:"qty"`
}

// line is one product's quantity entry. Quantity is always >= 1 while the
// entry exists; a line reaching zero is deleted, never kept.
type line struct {
	product catalog.Product
	qty     int64
}

// Store maps product ids to cart lines. All methods are safe for concurrent
// use; each mutation is a single atomic step, so no error can leave the cart
// partially updated.
type Store struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	lines   map[int64]*line
	order   []int64 // insertion order, for stable display
	logger  *slog.Logger
}

// NewStore creates an empty cart backed by the given catalog.
func NewStore(cat *catalog.Catalog, logger *slog.Logger) *Store {
	return &Store{
		catalog: cat,
		lines:   make(map[int64]*line),
		logger:  logger.With("component", "cart"),
	}
}

// Add puts one unit of the product into the cart, creating the line on first
// add. An id that is not in the catalog is a no-op: the id always originates
// from the rendered catalog, so a miss is an internal inconsistency worth
// logging but not failing on.
func (s *Store) Add(productID int64) {
	product, ok := s.catalog.ByID(productID)
	if !ok {
		s.logger.Warn("add ignored: product not in catalog", "product_id", productID)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.lines[productID]; ok {
		l.qty++
		return
	}
	s.lines[productID] = &line{product: product, qty: 1}
	s.order = append(s.order, productID)
}

// Increment raises an existing line's quantity by one. Unknown ids are a
// no-op.
func (s *Store) Increment(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.lines[productID]; ok {
		l.qty++
	}
}

// Decrement lowers an existing line's quantity by one, removing the line
// entirely when it reaches zero. Unknown ids are a no-op.
func (s *Store) Decrement(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lines[productID]
	if !ok {
		return
	}
	l.qty--
	if l.qty <= 0 {
		s.deleteLocked(productID)
	}
}

// Remove deletes the line unconditionally if present.
func (s *Store) Remove(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lines[productID]; ok {
		s.deleteLocked(productID)
	}
}

// Items returns the flattened line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]LineItem, 0, len(s.lines))
	for _, id := range s.order {
		l := s.lines[id]
		items = append(items, LineItem{
			ID:    l.product.ID,
			Name:  l.product.Name,
			Price: l.product.Price,
			Qty:   l.qty,
		})
	}
	return items
}

// Len reports the number of lines in the cart.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Clear empties the cart. Called after a successful order submission.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = make(map[int64]*line)
	s.order = nil
}

func (s *Store) deleteLocked(productID int64) {
	delete(s.lines, productID)
	for i, id := range s.order {
		if id == productID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Subtotal sums price times quantity over the given items. Totals are always
// derived from the current lines, never stored, so they cannot drift from the
// cart state. There is no delivery fee or tax: total equals subtotal.
func Subtotal(items []LineItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.Price * it.Qty
	}
	return sum
}
