package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ticketstore/internal/bank"
	catalogdb "ticketstore/internal/catalog/db"
	"ticketstore/internal/coupon"
	"ticketstore/internal/models"
	"ticketstore/internal/order"
)

type ReceiptURLResolver interface {
	PublicURL(key string) string
}

// Handler is the admin back office: event, tier, coupon and bank
// management plus order review.
type Handler struct {
	Orders   *order.Service
	Catalog  *catalogdb.DB
	Coupons  *coupon.DB
	Banks    *bank.DB
	Receipts ReceiptURLResolver
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ---------------- ORDERS ----------------

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := models.OrderStatus(r.URL.Query().Get("status"))
	switch status {
	case "", models.OrderPending, models.OrderApproved, models.OrderRejected:
	default:
		http.Error(w, "Unknown status filter", http.StatusBadRequest)
		return
	}

	orders, err := h.Orders.List(r.Context(), status)
	if err != nil {
		http.Error(w, "Could not load orders", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
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

	attendees, err := h.Orders.DB.GetAttendeesByOrder(r.Context(), orderID)
	if err != nil {
		http.Error(w, "Could not load attendees", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"order":       o,
		"attendees":   attendees,
		"receipt_url": h.Receipts.PublicURL(o.ReceiptKey),
	})
}

func (h *Handler) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	h.reviewOrder(w, r, models.OrderApproved)
}

func (h *Handler) RejectOrder(w http.ResponseWriter, r *http.Request) {
	h.reviewOrder(w, r, models.OrderRejected)
}

func (h *Handler) reviewOrder(w http.ResponseWriter, r *http.Request, status models.OrderStatus) {
	orderID := chi.URLParam(r, "orderId")

	var (
		o   *models.Order
		err error
	)
	if status == models.OrderApproved {
		o, err = h.Orders.Approve(r.Context(), orderID)
	} else {
		o, err = h.Orders.Reject(r.Context(), orderID)
	}

	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			http.Error(w, "Order not found", http.StatusNotFound)
		case errors.Is(err, order.ErrNotPending):
			http.Error(w, "Order is not pending", http.StatusConflict)
		default:
			http.Error(w, "Could not update order", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, o)
}

// ---------------- EVENTS ----------------

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Catalog.ListAllEvents(r.Context())
	if err != nil {
		http.Error(w, "Could not load events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if event.Title == "" || event.ArtistName == "" || event.Venue == "" {
		http.Error(w, "title, artist_name and venue are required", http.StatusBadRequest)
		return
	}

	event.ID = uuid.NewString()
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt

	if err := h.Catalog.CreateEvent(r.Context(), event); err != nil {
		http.Error(w, "Could not create event", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	event.ID = eventID
	event.UpdatedAt = time.Now()

	if err := h.Catalog.UpdateEvent(r.Context(), event); err != nil {
		http.Error(w, "Could not update event", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// ---------------- TIERS ----------------

func (h *Handler) CreateTier(w http.ResponseWriter, r *http.Request) {
	var tier models.TicketTier
	if err := json.NewDecoder(r.Body).Decode(&tier); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if tier.EventID == "" || tier.Name == "" || tier.PriceUSD < 0 || tier.QuantityTotal < 1 {
		http.Error(w, "event_id, name, a non-negative price and a positive quantity are required", http.StatusBadRequest)
		return
	}

	tier.ID = uuid.NewString()
	tier.QuantitySold = 0
	tier.CreatedAt = time.Now()
	tier.UpdatedAt = tier.CreatedAt

	if err := h.Catalog.CreateTier(r.Context(), tier); err != nil {
		http.Error(w, "Could not create tier", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, tier)
}

func (h *Handler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	tierID := chi.URLParam(r, "tierId")

	var tier models.TicketTier
	if err := json.NewDecoder(r.Body).Decode(&tier); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	tier.ID = tierID
	tier.UpdatedAt = time.Now()

	if err := h.Catalog.UpdateTier(r.Context(), tier); err != nil {
		http.Error(w, "Could not update tier", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tier)
}

// ---------------- COUPONS ----------------

func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.Coupons.ListCoupons(r.Context())
	if err != nil {
		http.Error(w, "Could not load coupons", http.StatusInternalServerError)
		return
	}
	if coupons == nil {
		coupons = []models.Coupon{}
	}
	writeJSON(w, http.StatusOK, coupons)
}

func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var c models.Coupon
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	c.Code = coupon.Normalize(c.Code)
	if c.Code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}
	if c.DiscountPercent < 1 || c.DiscountPercent > 100 {
		http.Error(w, "discount_percent must be between 1 and 100", http.StatusBadRequest)
		return
	}

	c.ID = uuid.NewString()
	c.IsUsed = false
	c.UsedAt = nil
	c.UsedByOrderID = ""
	c.CreatedAt = time.Now()

	if err := h.Coupons.CreateCoupon(r.Context(), c); err != nil {
		// The unique constraint on code rejects duplicates.
		http.Error(w, "Could not create coupon: "+err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	couponID := chi.URLParam(r, "couponId")

	var c models.Coupon
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	c.ID = couponID
	c.Code = coupon.Normalize(c.Code)

	if err := h.Coupons.UpdateCoupon(r.Context(), c); err != nil {
		http.Error(w, "Could not update coupon", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	couponID := chi.URLParam(r, "couponId")

	if err := h.Coupons.DeleteCoupon(r.Context(), couponID); err != nil {
		http.Error(w, "Could not delete coupon", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------- BANKS ----------------

func (h *Handler) ListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.Banks.ListBanks(r.Context())
	if err != nil {
		http.Error(w, "Could not load banks", http.StatusInternalServerError)
		return
	}
	if banks == nil {
		banks = []models.Bank{}
	}
	writeJSON(w, http.StatusOK, banks)
}

func (h *Handler) CreateBank(w http.ResponseWriter, r *http.Request) {
	var b models.Bank
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if b.BankName == "" || b.AccountHolderName == "" || b.IBAN == "" {
		http.Error(w, "bank_name, account_holder_name and iban are required", http.StatusBadRequest)
		return
	}

	b.ID = uuid.NewString()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt

	if err := h.Banks.CreateBank(r.Context(), b); err != nil {
		http.Error(w, "Could not create bank", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) UpdateBank(w http.ResponseWriter, r *http.Request) {
	bankID := chi.URLParam(r, "bankId")

	var b models.Bank
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	b.ID = bankID
	b.UpdatedAt = time.Now()

	if err := h.Banks.UpdateBank(r.Context(), b); err != nil {
		http.Error(w, "Could not update bank", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) DeleteBank(w http.ResponseWriter, r *http.Request) {
	bankID := chi.URLParam(r, "bankId")

	if err := h.Banks.DeleteBank(r.Context(), bankID); err != nil {
		http.Error(w, "Could not delete bank", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
