// Package app contains the application setup for the storefront.
package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/miamore/storefront/internal/cart"
	"github.com/miamore/storefront/internal/catalog"
	"github.com/miamore/storefront/internal/checkout"
	"github.com/miamore/storefront/internal/config"
	"github.com/miamore/storefront/internal/platform/server"
	"github.com/miamore/storefront/internal/store"
	"github.com/miamore/storefront/internal/transport/rest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Dependencies struct {
	Catalog  *catalog.Catalog
	Cart     *cart.Store
	Store    store.Store
	Checkout *checkout.Service
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// SetupDependencies wires the storefront collaborators: the catalog, the
// single in-process cart, the persistence layer and the checkout service.
func SetupDependencies(st store.Store, registry *prometheus.Registry, logger *slog.Logger) *Dependencies {
	cat := catalog.Default()
	cartStore := cart.NewStore(cat, logger)
	checkoutSvc := checkout.NewService(cartStore, st, logger)

	return &Dependencies{
		Catalog:  cat,
		Cart:     cartStore,
		Store:    st,
		Checkout: checkoutSvc,
		Registry: registry,
		Logger:   logger,
	}
}

// SetupHttpHandler initializes the HTTP routes for the storefront.
// Used by handler tests to set up the server with the full middleware chain.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the storefront.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(deps.Catalog, deps.Cart, deps.Checkout, deps.Store, deps.Logger)
	handler.RegisterRoutes(mux)
	if deps.Registry != nil {
		mux.Get("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}).ServeHTTP)
	}
}

// SetupHttpServer creates and configures the HTTP server for the storefront.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
