package order

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"ticketstore/internal/logger"
	"ticketstore/internal/models"
	orderdb "ticketstore/internal/order/db"
	"ticketstore/internal/pricing"
	"ticketstore/internal/pricing/rates"
)

var (
	ErrEventNotAvailable = errors.New("event or tier not available")
	ErrNoActiveBank      = errors.New("no active bank account configured")
	ErrOrderNotFound     = errors.New("order not found")
	ErrNotPending        = errors.New("order is not pending")
	ErrSoldOut           = orderdb.ErrSoldOut
	ErrCouponUsed        = orderdb.ErrCouponSpent
)

// ValidationError carries per-field messages for the checkout form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout validation failed: %d invalid field(s)", len(e.Fields))
}

type DBLayer interface {
	CreateOrder(ctx context.Context, order models.Order, attendees []models.OrderAttendee) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderWithRelations(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	ReviewOrder(ctx context.Context, order models.Order, status models.OrderStatus) (bool, error)
	GetAttendeesByOrder(ctx context.Context, orderID string) ([]models.OrderAttendee, error)
}

type CatalogSource interface {
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	GetTierByID(ctx context.Context, id string) (*models.TicketTier, error)
}

type BankSource interface {
	FirstActive(ctx context.Context) (*models.Bank, error)
}

type CouponValidator interface {
	Validate(ctx context.Context, code string) (models.CouponValidation, error)
}

type RateSource interface {
	Current(ctx context.Context) rates.Rate
}

type ReceiptStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	PublicURL(key string) string
}

type EventPublisher interface {
	PublishOrderCreated(order models.Order) error
	PublishOrderApproved(order models.Order) error
	PublishOrderRejected(order models.Order) error
}

type Notifier interface {
	NotifyNewOrder(orderID string)
}

type TicketIssuer interface {
	Issue(ctx context.Context, order models.Order) ([]models.Ticket, error)
}

// Service is the order workflow: checkout validation, pricing snapshot,
// receipt upload, transactional persistence, and the admin review
// transitions.
type Service struct {
	DB       DBLayer
	Catalog  CatalogSource
	Banks    BankSource
	Coupons  CouponValidator
	Rates    RateSource
	Receipts ReceiptStore
	Kafka    EventPublisher
	Notifier Notifier
	Tickets  TicketIssuer
	Logger   *logger.Logger

	validate *validator.Validate
}

func NewService(
	db DBLayer,
	catalog CatalogSource,
	banks BankSource,
	coupons CouponValidator,
	rateSource RateSource,
	receipts ReceiptStore,
	publisher EventPublisher,
	notifier Notifier,
	issuer TicketIssuer,
	log *logger.Logger,
) *Service {
	return &Service{
		DB:       db,
		Catalog:  catalog,
		Banks:    banks,
		Coupons:  coupons,
		Rates:    rateSource,
		Receipts: receipts,
		Kafka:    publisher,
		Notifier: notifier,
		Tickets:  issuer,
		Logger:   log,
		validate: validator.New(),
	}
}

// Checkout runs the full order creation workflow. Price, exchange rate and
// discount percent are snapshotted into the order row and never recomputed.
func (s *Service) Checkout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	// Trim before validating so padding cannot carry a too-short name past
	// the length check.
	req.BuyerName = strings.TrimSpace(req.BuyerName)
	req.BuyerSurname = strings.TrimSpace(req.BuyerSurname)

	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	event, err := s.Catalog.GetEventByID(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	tier, err := s.Catalog.GetTierByID(ctx, req.TierID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tier: %w", err)
	}
	if event == nil || !event.IsActive || tier == nil || !tier.IsActive || tier.EventID != event.ID {
		return nil, ErrEventNotAvailable
	}
	if req.Quantity > tier.Available() {
		return nil, ErrSoldOut
	}

	bank, err := s.Banks.FirstActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bank accounts: %w", err)
	}
	if bank == nil {
		return nil, ErrNoActiveBank
	}

	// An ineligible coupon degrades to full price instead of failing.
	var coupon models.CouponValidation
	if req.CouponCode != "" {
		coupon, err = s.Coupons.Validate(ctx, req.CouponCode)
		if err != nil {
			return nil, fmt.Errorf("failed to validate coupon: %w", err)
		}
	}

	rate := s.Rates.Current(ctx)
	quote := pricing.Compute(tier.PriceUSD, req.Quantity, coupon.DiscountPercent, rate.USDToTL)

	receiptKey, err := s.uploadReceipt(ctx, req)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := models.Order{
		ID:               uuid.NewString(),
		EventID:          event.ID,
		TicketTierID:     tier.ID,
		BuyerEmail:       req.BuyerEmail,
		BuyerName:        req.BuyerName,
		BuyerSurname:     req.BuyerSurname,
		Quantity:         req.Quantity,
		PriceUSD:         quote.FinalPriceUSD,
		PriceTL:          quote.FinalPriceTL,
		ExchangeRateUsed: rate.USDToTL,
		CouponID:         coupon.CouponID,
		DiscountApplied:  coupon.DiscountPercent,
		BankID:           bank.ID,
		ReceiptKey:       receiptKey,
		Status:           models.OrderPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.DB.CreateOrder(ctx, order, s.buildAttendees(order.ID, req)); err != nil {
		return nil, err
	}
	s.Logger.LogOrder("CREATE", order.ID, fmt.Sprintf("pending, %d x %s, $%.2f", order.Quantity, tier.Name, order.PriceUSD))

	// Fire-and-forget: neither event stream nor operator chat may fail
	// the checkout.
	if err := s.Kafka.PublishOrderCreated(order); err != nil {
		s.Logger.Error("KAFKA", "Failed to publish order created: "+err.Error())
	}
	go s.Notifier.NotifyNewOrder(order.ID)

	return &models.CheckoutResponse{
		OrderID:  order.ID,
		Status:   string(order.Status),
		PriceUSD: order.PriceUSD,
		PriceTL:  order.PriceTL,
		BankName: bank.BankName,
		IBAN:     bank.IBAN,
	}, nil
}

func (s *Service) validateRequest(req models.CheckoutRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return err
	}

	fields := make(map[string]string, len(invalid))
	for _, fe := range invalid {
		switch fe.Field() {
		case "BuyerEmail":
			fields["buyer_email"] = "invalid email address"
		case "BuyerName":
			fields["buyer_name"] = "name must be at least 2 characters"
		case "BuyerSurname":
			fields["buyer_surname"] = "surname must be at least 2 characters"
		case "Quantity":
			fields["quantity"] = "quantity must be at least 1"
		case "ReceiptFileName", "ReceiptData":
			fields["receipt"] = "payment receipt is required"
		default:
			fields[fe.Field()] = "invalid value"
		}
	}
	return &ValidationError{Fields: fields}
}

func (s *Service) uploadReceipt(ctx context.Context, req models.CheckoutRequest) (string, error) {
	ext := strings.ToLower(filepath.Ext(req.ReceiptFileName))
	key := "receipts/" + uuid.NewString() + ext

	contentType := "application/octet-stream"
	switch ext {
	case ".png":
		contentType = "image/png"
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".pdf":
		contentType = "application/pdf"
	}

	if _, err := s.Receipts.Upload(ctx, key, req.ReceiptData, contentType); err != nil {
		return "", fmt.Errorf("failed to upload receipt: %w", err)
	}
	return key, nil
}

func (s *Service) buildAttendees(orderID string, req models.CheckoutRequest) []models.OrderAttendee {
	if req.Quantity <= 1 {
		return nil
	}

	var attendees []models.OrderAttendee
	for _, name := range req.Attendees {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if len(attendees) >= req.Quantity-1 {
			break
		}
		attendees = append(attendees, models.OrderAttendee{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			FullName:  name,
			CreatedAt: time.Now(),
		})
	}
	return attendees
}

func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.DB.GetOrderWithRelations(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	return s.DB.ListOrders(ctx, status)
}

// Approve moves a pending order to approved and issues its tickets.
func (s *Service) Approve(ctx context.Context, id string) (*models.Order, error) {
	return s.review(ctx, id, models.OrderApproved)
}

// Reject moves a pending order to rejected and releases its reserved
// inventory. No refund or buyer notification happens here.
func (s *Service) Reject(ctx context.Context, id string) (*models.Order, error) {
	return s.review(ctx, id, models.OrderRejected)
}

func (s *Service) review(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	order, err := s.DB.GetOrderWithRelations(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", id, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != models.OrderPending {
		return nil, ErrNotPending
	}

	transitioned, err := s.DB.ReviewOrder(ctx, *order, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", id, err)
	}
	if !transitioned {
		return nil, ErrNotPending
	}
	order.Status = status
	s.Logger.LogOrder("REVIEW", id, "status set to "+string(status))

	if status == models.OrderApproved {
		// The approval stands even when ticket issuance fails.
		if _, err := s.Tickets.Issue(ctx, *order); err != nil {
			s.Logger.Error("ORDER", "Ticket issuance failed for order "+id+": "+err.Error())
		}
		if err := s.Kafka.PublishOrderApproved(*order); err != nil {
			s.Logger.Error("KAFKA", "Failed to publish order approved: "+err.Error())
		}
	} else {
		if err := s.Kafka.PublishOrderRejected(*order); err != nil {
			s.Logger.Error("KAFKA", "Failed to publish order rejected: "+err.Error())
		}
	}

	return order, nil
}
