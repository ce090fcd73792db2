package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ticketstore/internal/coupon"
	"ticketstore/internal/models"
	"ticketstore/internal/order"
	"ticketstore/internal/pricing/rates"
)

const maxReceiptSize = 10 << 20 // 10 MB

type RateSource interface {
	Current(ctx context.Context) rates.Rate
}

type Handler struct {
	Orders  *order.Service
	Coupons *coupon.Service
	Rates   RateSource
}

// Checkout accepts the multipart checkout form: buyer fields, the tier
// selection, optional coupon and attendee names, and the receipt file.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":  "validation failed",
			"fields": map[string]string{"quantity": "quantity must be a whole number"},
		})
		return
	}

	req := models.CheckoutRequest{
		EventID:      r.FormValue("event_id"),
		TierID:       r.FormValue("tier_id"),
		BuyerEmail:   r.FormValue("buyer_email"),
		BuyerName:    r.FormValue("buyer_name"),
		BuyerSurname: r.FormValue("buyer_surname"),
		Quantity:     quantity,
		CouponCode:   r.FormValue("coupon_code"),
		Attendees:    r.Form["attendees"],
	}

	file, header, err := r.FormFile("receipt")
	if err == nil {
		defer file.Close()
		data, readErr := io.ReadAll(io.LimitReader(file, maxReceiptSize))
		if readErr != nil {
			http.Error(w, "Could not read receipt file", http.StatusBadRequest)
			return
		}
		req.ReceiptFileName = header.Filename
		req.ReceiptData = data
	}

	resp, err := h.Orders.Checkout(r.Context(), req)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, err error) {
	var invalid *order.ValidationError
	switch {
	case errors.As(err, &invalid):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":  "validation failed",
			"fields": invalid.Fields,
		})
	case errors.Is(err, order.ErrEventNotAvailable):
		http.Error(w, "Event or tier not available", http.StatusNotFound)
	case errors.Is(err, order.ErrSoldOut):
		http.Error(w, "Not enough tickets available", http.StatusConflict)
	case errors.Is(err, order.ErrCouponUsed):
		http.Error(w, "Coupon has already been used", http.StatusConflict)
	case errors.Is(err, order.ErrNoActiveBank):
		http.Error(w, "Payment details unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Could not place order", http.StatusInternalServerError)
	}
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	o, err := h.Orders.Get(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Could not load order", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(o)
}

// ValidateCoupon lets the checkout page check a code before submitting.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.Coupons.Validate(r.Context(), body.Code)
	if err != nil {
		http.Error(w, "Could not validate coupon", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// GetExchangeRate serves the rate the checkout page previews prices with.
func (h *Handler) GetExchangeRate(w http.ResponseWriter, r *http.Request) {
	rate := h.Rates.Current(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rate)
}
