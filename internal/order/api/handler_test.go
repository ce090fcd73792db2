package api_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"ticketstore/internal/order/api"
)

func checkoutForm(t *testing.T, quantity string) *http.Request {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fields := map[string]string{
		"event_id":      "event-1",
		"tier_id":       "tier-1",
		"buyer_email":   "jane@example.com",
		"buyer_name":    "Jane",
		"buyer_surname": "Doe",
		"quantity":      quantity,
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			t.Fatalf("Failed to write form field %s: %v", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCheckoutRejectsUnparsableQuantity(t *testing.T) {
	h := &api.Handler{}
	rec := httptest.NewRecorder()

	h.Checkout(rec, checkoutForm(t, "two"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "quantity")
}

func TestCheckoutRejectsMissingQuantity(t *testing.T) {
	h := &api.Handler{}
	rec := httptest.NewRecorder()

	h.Checkout(rec, checkoutForm(t, ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "quantity")
}
