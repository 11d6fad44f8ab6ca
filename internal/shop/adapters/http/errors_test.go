package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dejobratic/shop/internal/shop/domain"
)

func decodeString(s string, dst any) error {
	return json.NewDecoder(strings.NewReader(s)).Decode(dst)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInsufficientStock, http.StatusBadRequest},
		{domain.ErrInvalidCardNumber, http.StatusBadRequest},
		{domain.ErrNoBasket, http.StatusBadRequest},
		{fmt.Errorf("%w: body", errInvalidPayload), http.StatusBadRequest},
		{domain.ErrOrderNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", domain.ErrItemNotFound), http.StatusNotFound},
		{domain.ErrInvalidOrderState, http.StatusConflict},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrPricingNotConfigured, http.StatusInternalServerError},
		{fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestReplayHeaders(t *testing.T) {
	header := replayHeaders()

	assert.Equal(t, http.Header{
		"Content-Type":        {"application/json"},
		"Idempotent-Replayed": {"true"},
	}, header)
}
