package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dejobratic/shop/internal/shop/ports"
)

const idempotencyHeader = "Idempotency-Key"

func (h *Handler) getBasket(w http.ResponseWriter, r *http.Request) {
	customerID, _ := CustomerID(r.Context())

	lines, err := h.service.GetBasket(r.Context(), customerID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toBasketResponse(lines))
}

func (h *Handler) addBasketItem(w http.ResponseWriter, r *http.Request) {
	customerID, _ := CustomerID(r.Context())

	var payload basketItemRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	lines, err := h.service.AddItem(r.Context(), customerID, payload.ID, payload.Count)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBasketResponse(lines))
}

func (h *Handler) removeBasketItem(w http.ResponseWriter, r *http.Request) {
	customerID, _ := CustomerID(r.Context())

	var payload basketItemRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	lines, err := h.service.RemoveItem(r.Context(), customerID, payload.ID, payload.Count)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toBasketResponse(lines))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	customerID, _ := CustomerID(r.Context())

	orders, err := h.service.ListOrders(r.Context(), customerID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderResponse(order))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	customerID, _ := CustomerID(r.Context())

	h.idempotent(w, r, func() (int, any, string, error) {
		order, err := h.service.CreateOrder(r.Context(), customerID)
		if err != nil {
			return 0, nil, "", err
		}
		return http.StatusOK, orderIDResponse{OrderID: order.ID}, strconv.FormatInt(order.ID, 10), nil
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	customerID, _ := CustomerID(r.Context())
	id, err := pathID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	order, err := h.service.GetOrder(r.Context(), customerID, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *Handler) setDeliveryDetails(w http.ResponseWriter, r *http.Request) {
	customerID, _ := CustomerID(r.Context())
	id, err := pathID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	var payload deliveryDetailsRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	order, err := h.service.SetDeliveryDetails(r.Context(), customerID, id, payload.toDomain())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, orderIDResponse{OrderID: order.ID})
}

func (h *Handler) getPaymentStatus(w http.ResponseWriter, r *http.Request) {
	customerID, _ := CustomerID(r.Context())
	id, err := pathID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	status, err := h.service.GetPaymentStatus(r.Context(), customerID, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentStatusResponse(status))
}

func (h *Handler) submitPayment(w http.ResponseWriter, r *http.Request) {
	customerID, _ := CustomerID(r.Context())
	id, err := pathID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	var payload paymentRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.idempotent(w, r, func() (int, any, string, error) {
		order, err := h.service.SubmitPayment(r.Context(), customerID, id, payload.toDomain())
		if err != nil {
			return 0, nil, "", err
		}
		return http.StatusOK, paymentResponse{OrderID: order.ID, Status: string(order.Status)}, strconv.FormatInt(order.ID, 10), nil
	})
}

// idempotent replays a stored response when the request carries a known
// Idempotency-Key, and otherwise runs fn and stores its successful result.
// Keys are scoped to the customer and route so they cannot collide.
func (h *Handler) idempotent(w http.ResponseWriter, r *http.Request, fn func() (status int, payload any, resourceID string, err error)) {
	ctx := r.Context()

	idemKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if idemKey != "" {
		customerID, _ := CustomerID(ctx)
		idemKey = strings.Join([]string{customerID, r.Method, r.URL.Path, idemKey}, ":")

		stored, err := h.service.GetIdempotentResponse(ctx, idemKey)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		if stored != nil {
			for key, values := range replayHeaders() {
				for _, value := range values {
					w.Header().Add(key, value)
				}
			}
			w.WriteHeader(stored.StatusCode)
			_, _ = w.Write(stored.Body)
			return
		}
	}

	status, payload, resourceID, err := fn()
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	body = append(body, '\n')

	if idemKey != "" {
		stored := ports.StoredResponse{
			StatusCode: status,
			Body:       body,
			ResourceID: resourceID,
		}
		// The operation already committed; a failed save only costs replay.
		if err := h.service.SaveIdempotentResponse(ctx, idemKey, stored); err != nil {
			h.logger.WarnContext(ctx, "failed to store idempotent response",
				"resource_id", resourceID,
				"error", err,
			)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
