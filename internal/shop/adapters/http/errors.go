package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dejobratic/shop/internal/shop/domain"
)

// errInvalidPayload marks request bodies and query strings that cannot be decoded.
var errInvalidPayload = errors.New("invalid request payload")

var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrInsufficientStock, http.StatusBadRequest},
	{domain.ErrInvalidCardNumber, http.StatusBadRequest},
	{domain.ErrInvalidQuantity, http.StatusBadRequest},
	{domain.ErrInvalidDeliveryType, http.StatusBadRequest},
	{domain.ErrInvalidPaymentType, http.StatusBadRequest},
	{domain.ErrInvalidPaymentDetails, http.StatusBadRequest},
	{domain.ErrNoBasket, http.StatusBadRequest},
	{errInvalidPayload, http.StatusBadRequest},
	{domain.ErrBasketNotFound, http.StatusNotFound},
	{domain.ErrItemNotFound, http.StatusNotFound},
	{domain.ErrOrderNotFound, http.StatusNotFound},
	{domain.ErrProductNotFound, http.StatusNotFound},
	{domain.ErrPaymentNotFound, http.StatusNotFound},
	{domain.ErrInvalidOrderState, http.StatusConflict},
	{domain.ErrForbidden, http.StatusForbidden},
}

// statusFor maps a service error to its response status. Unknown errors are
// reported as 500.
func statusFor(err error) int {
	for _, entry := range errorStatuses {
		if errors.Is(err, entry.err) {
			return entry.status
		}
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	// Expired cards are reported as a server error with a fixed message,
	// which is what storefront clients already handle.
	if errors.Is(err, domain.ErrPaymentExpired) {
		writeError(w, http.StatusInternalServerError, domain.PaymentErrorExpired)
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"route", r.Pattern,
			"error", err,
		)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// replayHeaders are the headers of a stored response served again.
func replayHeaders() http.Header {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Idempotent-Replayed", "true")
	return header
}
