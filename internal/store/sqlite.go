package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/miamore/storefront/internal/catalog"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists the storefront state in a local SQLite file. The
// database is opened lazily on first use; initialization is memoized so
// concurrent first calls resolve against a single open.
type SQLiteStore struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a store backed by the SQLite database at path.
// The file is not touched until the first operation.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// ensureOpen opens the database, applies migrations and memoizes the handle.
// A failed open is not cached, so the next operation retries.
func (s *SQLiteStore) ensureOpen(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	if strings.TrimSpace(s.path) == "" {
		return nil, storageErr("open", errors.New("storage path is required"))
	}
	dsn := filepath.Clean(s.path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storageErr("open", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, storageErr("open", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, storageErr("migrate", err)
	}
	s.db = db
	return s.db, nil
}

// Close closes the database handle if it was opened.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// SeedProducts upserts the catalog snapshot. Seeding is separate from open so
// initialization and seeding stay independently testable.
func (s *SQLiteStore) SeedProducts(ctx context.Context, products []catalog.Product) error {
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return err
	}
	return s.withTransaction(ctx, db, "seed products", func(tx *sql.Tx) error {
		for _, p := range products {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO products (id, name, price, category, image)
				 VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT (id) DO UPDATE SET
				   name = excluded.name,
				   price = excluded.price,
				   category = excluded.category,
				   image = excluded.image`,
				p.ID, p.Name, p.Price, string(p.Category), p.Image,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// AddOrder inserts the order and its items in one transaction and returns
// the autoincrement id SQLite assigned.
func (s *SQLiteStore) AddOrder(ctx context.Context, order NewOrder) (int64, error) {
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return 0, err
	}
	var orderID int64
	txErr := s.withTransaction(ctx, db, "add order", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO orders (created_at, subtotal, total) VALUES (?, ?, ?)`,
			order.CreatedAt.UTC().Format(time.RFC3339),
			order.Subtotal,
			order.Total,
		)
		if err != nil {
			return err
		}
		orderID, err = res.LastInsertId()
		if err != nil {
			return err
		}
		for i, item := range order.Items {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, position, product_id, name, price, qty)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				orderID, i, item.ProductID, item.Name, item.Price, item.Qty,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return 0, txErr
	}
	return orderID, nil
}

// FindOrder retrieves one order with its items.
func (s *SQLiteStore) FindOrder(ctx context.Context, id int64) (*Order, error) {
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		`SELECT order_id, created_at, subtotal, total FROM orders WHERE order_id = ?`, id)
	order, err := scanOrder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, storageErr("find order", err)
	}
	items, err := s.orderItems(ctx, db, id)
	if err != nil {
		return nil, storageErr("find order items", err)
	}
	order.Items = items
	return order, nil
}

// Orders returns every persisted order, oldest first.
func (s *SQLiteStore) Orders(ctx context.Context) ([]Order, error) {
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT order_id, created_at, subtotal, total FROM orders ORDER BY order_id`)
	if err != nil {
		return nil, storageErr("list orders", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, storageErr("scan order", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list orders", err)
	}
	for i := range orders {
		items, err := s.orderItems(ctx, db, orders[i].ID)
		if err != nil {
			return nil, storageErr("list order items", err)
		}
		orders[i].Items = items
	}
	return orders, nil
}

// Products returns the persisted product snapshot in id order.
func (s *SQLiteStore) Products(ctx context.Context) ([]catalog.Product, error) {
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, price, category, image FROM products ORDER BY id`)
	if err != nil {
		return nil, storageErr("list products", err)
	}
	defer rows.Close()

	products := make([]catalog.Product, 0)
	for rows.Next() {
		var p catalog.Product
		var category string
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &category, &p.Image); err != nil {
			return nil, storageErr("scan product", err)
		}
		p.Category = catalog.Category(category)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list products", err)
	}
	return products, nil
}

func (s *SQLiteStore) orderItems(ctx context.Context, db *sql.DB, orderID int64) ([]OrderItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT product_id, name, price, qty FROM order_items WHERE order_id = ? ORDER BY position`,
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Price, &it.Qty); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) withTransaction(ctx context.Context, db *sql.DB, op string, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(op, fmt.Errorf("begin transaction: %w", err))
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return storageErr(op, fmt.Errorf("rollback: %w", rbErr))
		}
		return storageErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

func scanOrder(scan func(dest ...any) error) (*Order, error) {
	var order Order
	var createdAt string
	if err := scan(&order.ID, &createdAt, &order.Subtotal, &order.Total); err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	order.CreatedAt = ts
	return &order, nil
}
