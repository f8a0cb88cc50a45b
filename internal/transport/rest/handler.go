// Package rest provides the HTTP handlers for the storefront.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/miamore/storefront/internal/cart"
	"github.com/miamore/storefront/internal/catalog"
	"github.com/miamore/storefront/internal/checkout"
	"github.com/miamore/storefront/internal/platform/web"
	"github.com/miamore/storefront/internal/receipt"
	"github.com/miamore/storefront/internal/store"
)

type Handler struct {
	catalog  *catalog.Catalog
	cart     *cart.Store
	checkout *checkout.Service
	orders   store.Store
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates the storefront HTTP API over the given collaborators.
func NewHandler(cat *catalog.Catalog, cartStore *cart.Store, checkoutSvc *checkout.Service, orders store.Store, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:  cat,
		cart:     cartStore,
		checkout: checkoutSvc,
		orders:   orders,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the storefront.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", h.ListProducts)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/items", h.AddItem)
			r.Route("/items/{id}", func(r chi.Router) {
				r.Post("/increment", h.IncrementItem)
				r.Post("/decrement", h.DecrementItem)
				r.Delete("/", h.RemoveItem)
			})
		})

		r.Post("/checkout", h.Checkout)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Get("/{id}/receipt", h.OrderReceipt)
		})
	})
	r.Get("/healthz", h.HealthCheck)
}

// addItemRequest is the body of POST /api/v1/cart/items.
type addItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

// cartView is the derived cart representation returned after every cart
// operation. Amounts are in cents; total always equals subtotal.
type cartView struct {
	Items    []cart.LineItem `json:"items"`
	Subtotal int64           `json:"subtotal"`
	Total    int64           `json:"total"`
}

// checkoutResponse reports a completed order and where to fetch its receipt.
type checkoutResponse struct {
	Order      store.Order `json:"order"`
	ReceiptURL string      `json:"receipt_url"`
}

// ListProducts returns the catalog, optionally filtered by category and name
// query.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	category := catalog.Category(r.URL.Query().Get("category"))
	query := r.URL.Query().Get("q")
	products := h.catalog.Filter(category, query)
	mLogger.DebugContext(r.Context(), "Catalog listed", "category", category, "query", query, "count", len(products))
	web.RespondJSON(w, mLogger, http.StatusOK, products)
}

// GetCart returns the current cart view.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.loggerWithReqID(r), http.StatusOK, h.cartView())
}

// AddItem adds one unit of a product to the cart. An id missing from the
// catalog is a no-op and still returns the (unchanged) cart view.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.cart.Add(req.ProductID)
	web.RespondJSON(w, mLogger, http.StatusOK, h.cartView())
}

// IncrementItem raises an existing line's quantity by one.
func (h *Handler) IncrementItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	h.cart.Increment(id)
	web.RespondJSON(w, mLogger, http.StatusOK, h.cartView())
}

// DecrementItem lowers an existing line's quantity by one; the line is
// removed when it reaches zero.
func (h *Handler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	h.cart.Decrement(id)
	web.RespondJSON(w, mLogger, http.StatusOK, h.cartView())
}

// RemoveItem deletes a cart line unconditionally.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	h.cart.Remove(id)
	web.RespondJSON(w, mLogger, http.StatusOK, h.cartView())
}

// Checkout submits the current cart as an order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	result, err := h.checkout.Checkout(r.Context())
	if err != nil {
		var storageErr *store.StorageError
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			mLogger.WarnContext(r.Context(), "Checkout rejected: empty cart")
			web.RespondError(w, mLogger, http.StatusBadRequest, "Your cart is empty.")
		case errors.Is(err, checkout.ErrCheckoutInFlight):
			mLogger.WarnContext(r.Context(), "Checkout rejected: another checkout in progress")
			web.RespondError(w, mLogger, http.StatusConflict, "A checkout is already in progress.")
		case errors.As(err, &storageErr):
			mLogger.ErrorContext(r.Context(), "Checkout failed: storage error", "error", err)
			web.RespondError(w, mLogger, http.StatusServiceUnavailable, "Could not save order. Your cart was kept; please retry.")
		default:
			mLogger.ErrorContext(r.Context(), "Checkout failed", "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Checkout failed")
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Order created successfully", slog.Int64("order_id", result.Order.ID))
	web.RespondJSON(w, mLogger, http.StatusCreated, checkoutResponse{
		Order:      result.Order,
		ReceiptURL: fmt.Sprintf("/api/v1/orders/%d/receipt", result.Order.ID),
	})
}

// ListOrders returns every persisted order.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	orders, err := h.orders.Orders(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving order list", "error", err)
		web.RespondError(w, mLogger, http.StatusServiceUnavailable, "Failed to fetch orders")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved order list", "count", len(orders))
	web.RespondJSON(w, mLogger, http.StatusOK, orders)
}

// OrderReceipt re-renders the printable receipt for a persisted order.
func (h *Handler) OrderReceipt(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	order, err := h.orders.FindOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			mLogger.WarnContext(r.Context(), "Order not found", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Order with ID %d not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving order", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusServiceUnavailable, fmt.Sprintf("Failed to retrieve order with ID %d", id))
		return
	}

	items := make([]cart.LineItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, cart.LineItem{ID: it.ProductID, Name: it.Name, Price: it.Price, Qty: it.Qty})
	}
	doc, err := receipt.Render(items, order.Subtotal)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error rendering receipt", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to render receipt")
		return
	}
	web.RespondHTML(w, http.StatusOK, doc)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) cartView() cartView {
	items := h.cart.Items()
	subtotal := cart.Subtotal(items)
	return cartView{Items: items, Subtotal: subtotal, Total: subtotal}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
