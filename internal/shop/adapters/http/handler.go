package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dejobratic/shop/internal/shop/app"
)

const maxBodyBytes = 1 << 20

// Handler exposes the storefront API.
type Handler struct {
	service *app.Service
	auth    *Authenticator
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewHandler constructs a Handler. limiter may be nil.
func NewHandler(service *app.Service, auth *Authenticator, limiter *RateLimiter, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		auth:    auth,
		limiter: limiter,
		logger:  logger,
	}
}

// Register binds the storefront routes to mux. Catalog routes are public;
// checkout routes require a bearer token and mutations are rate limited.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/catalog", h.listCatalog)
	mux.HandleFunc("GET /api/product/{id}", h.getProduct)
	mux.HandleFunc("GET /api/sales", h.listSales)
	mux.HandleFunc("GET /api/tags", h.listTags)

	read := func(fn http.HandlerFunc) http.Handler {
		return h.auth.Require(fn)
	}
	write := func(fn http.HandlerFunc) http.Handler {
		return h.auth.Require(h.limiter.Limit(fn))
	}

	mux.Handle("GET /api/basket", read(h.getBasket))
	mux.Handle("POST /api/basket", write(h.addBasketItem))
	mux.Handle("DELETE /api/basket", write(h.removeBasketItem))

	mux.Handle("GET /api/orders", read(h.listOrders))
	mux.Handle("POST /api/orders", write(h.createOrder))
	mux.Handle("GET /api/order/{id}", read(h.getOrder))
	mux.Handle("POST /api/order/{id}", write(h.setDeliveryDetails))

	mux.Handle("GET /api/payment/{id}", read(h.getPaymentStatus))
	mux.Handle("POST /api/payment/{id}", write(h.submitPayment))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errInvalidPayload)
		}
		return fmt.Errorf("%w: %w", errInvalidPayload, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", errInvalidPayload, raw)
	}
	return id, nil
}
