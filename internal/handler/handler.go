// Package handler serves the storefront, cart, and business directory over
// JSON/HTTP.
package handler

import (
	"net/http"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/auth"
	"github.com/blessingcarter623/amatymasocialapp/internal/domain/cart"
	"github.com/blessingcarter623/amatymasocialapp/internal/domain/directory"
	"github.com/blessingcarter623/amatymasocialapp/internal/domain/order"
	"github.com/blessingcarter623/amatymasocialapp/internal/domain/product"
	"github.com/blessingcarter623/amatymasocialapp/internal/media"
)

const (
	defaultMaxBodyBytes   = 1 << 20
	defaultMaxUploadBytes = 8 << 20
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
	// MaxUploadBytes caps multipart uploads. Defaults to 8 MiB.
	MaxUploadBytes int64
}

// Deps are the domain collaborators of the Handler.
type Deps struct {
	Products      product.Repository
	Carts         *cart.Manager
	Orders        *order.Service
	Directory     *directory.Service
	Uploader      media.Uploader
	Authenticator auth.Authenticator
}

// Handler implements the HTTP API on top of the domain services.
type Handler struct {
	products  product.Repository
	carts     *cart.Manager
	orders    *order.Service
	directory *directory.Service
	uploader  media.Uploader
	authn     auth.Authenticator

	imageBaseURL   string
	maxUploadBytes int64
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(cfg HandlerConfig, deps Deps) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{
		products:       deps.Products,
		carts:          deps.Carts,
		orders:         deps.Orders,
		directory:      deps.Directory,
		uploader:       deps.Uploader,
		authn:          deps.Authenticator,
		imageBaseURL:   cfg.ImageBaseURL,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/product", h.ListProducts)
	mux.HandleFunc("GET /api/product/{id}", h.GetProduct)
	mux.Handle("POST /api/product", requireScope(auth.ScopeCatalogWrite, h.CreateProduct))
	mux.Handle("PUT /api/product/{id}", requireScope(auth.ScopeCatalogWrite, h.UpdateProduct))
	mux.Handle("DELETE /api/product/{id}", requireScope(auth.ScopeCatalogWrite, h.DeleteProduct))

	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/items", h.AddCartItem)
	mux.HandleFunc("PATCH /api/cart/items", h.UpdateCartItem)
	mux.HandleFunc("DELETE /api/cart/items", h.RemoveCartItem)
	mux.HandleFunc("DELETE /api/cart", h.ClearCart)
	mux.HandleFunc("POST /api/cart/checkout", h.Checkout)

	mux.HandleFunc("GET /api/business", h.SearchBusinesses)
	mux.HandleFunc("GET /api/business/{id}", h.GetBusiness)
	mux.Handle("POST /api/business", requireUser(h.CreateBusiness))
	mux.Handle("PUT /api/business/{id}", requireUser(h.UpdateBusiness))
	mux.Handle("POST /api/business/refresh", requireUser(h.RefreshBusinesses))

	mux.HandleFunc("GET /api/reference/provinces", h.ListProvinces)
	mux.HandleFunc("GET /api/reference/provinces/{province}/cities", h.ListCities)
	mux.HandleFunc("GET /api/reference/departments", h.ListDepartments)

	if h.uploader != nil {
		mux.Handle("POST /api/upload", requireUser(h.Upload))
	}
}
