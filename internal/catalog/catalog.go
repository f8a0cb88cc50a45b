// Package catalog holds the fixed list of purchasable products.
package catalog

import "strings"

// Category is a product navigation tag.
type Category string

const (
	CategoryAll    Category = "all"
	CategorySnacks Category = "snacks"
	CategoryCoffee Category = "coffee"
	CategoryTea    Category = "tea"
	CategoryPastry Category = "pastry"
)

// Product is a single catalog entry. Prices are in cents.
// Products are created once at startup and never mutated.
type Product struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	Category Category `json:"category"`
	Image    string   `json:"image"`
}

// Catalog is an immutable product list with id lookup.
type Catalog struct {
	products []Product
	byID     map[int64]Product
}

// New creates a catalog from the given products.
func New(products []Product) *Catalog {
	byID := make(map[int64]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &Catalog{
		products: products,
		byID:     byID,
	}
}

// Default returns the built-in Mi Amore menu.
func Default() *Catalog {
	return New([]Product{
		{ID: 1, Name: "Burger Mozza XL", Price: 3900, Category: CategorySnacks, Image: "/static/images/burger-mozza-xl.svg"},
		{ID: 2, Name: "Latte", Price: 400, Category: CategoryCoffee, Image: "/static/images/latte.svg"},
		{ID: 3, Name: "Espresso", Price: 350, Category: CategoryCoffee, Image: "/static/images/espresso.svg"},
		{ID: 4, Name: "Green Tea", Price: 250, Category: CategoryTea, Image: "/static/images/green-tea.svg"},
		{ID: 5, Name: "Croissant", Price: 300, Category: CategoryPastry, Image: "/static/images/croissant.svg"},
		{ID: 6, Name: "Chilli Fried Burger", Price: 3900, Category: CategorySnacks, Image: "/static/images/chilli-fried-burger.svg"},
		{ID: 7, Name: "Cookie", Price: 150, Category: CategoryPastry, Image: "/static/images/cookie.svg"},
	})
}

// ByID looks up a product by its identifier.
func (c *Catalog) ByID(id int64) (Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// All returns a copy of every product in catalog order.
func (c *Catalog) All() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Filter returns the products matching the given category and name query.
// An empty category or CategoryAll matches every category; an empty query
// matches every name. Matching is case-insensitive on the name.
func (c *Catalog) Filter(category Category, query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if category != "" && category != CategoryAll && p.Category != category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}
