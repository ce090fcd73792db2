package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ticketstore/internal/config"
	"ticketstore/internal/logger"
	"ticketstore/internal/models"
)

// OrderResolver loads the order with its event, tier and bank relations so
// the operator message can be fully formatted from just an order id.
type OrderResolver interface {
	GetOrderWithRelations(ctx context.Context, id string) (*models.Order, error)
}

// Telegram pushes new-order messages to the operator chat. Every failure is
// logged and swallowed: notification must never affect the order outcome.
type Telegram struct {
	cfg    config.TelegramConfig
	orders OrderResolver
	client *http.Client
	logger *logger.Logger

	// endpoint is overridable in tests.
	endpoint string
}

func NewTelegram(cfg config.TelegramConfig, orders OrderResolver, client *http.Client, log *logger.Logger) *Telegram {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Telegram{
		cfg:      cfg,
		orders:   orders,
		client:   client,
		logger:   log,
		endpoint: fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", cfg.BotToken),
	}
}

// NotifyNewOrder resolves the order and posts the formatted message. It is
// meant to be called from a goroutine; it returns nothing and reports
// problems only through the logger.
func (t *Telegram) NotifyNewOrder(orderID string) {
	if !t.cfg.Enabled || t.cfg.BotToken == "" || t.cfg.ChatID == "" {
		t.logger.Warn("TELEGRAM", "Telegram notifications not configured, skipping order "+orderID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	order, err := t.orders.GetOrderWithRelations(ctx, orderID)
	if err != nil {
		t.logger.Error("TELEGRAM", "Failed to resolve order "+orderID+": "+err.Error())
		return
	}
	if order == nil {
		t.logger.Warn("TELEGRAM", "Order "+orderID+" not found, skipping notification")
		return
	}

	if err := t.send(ctx, formatOrderMessage(order)); err != nil {
		t.logger.Error("TELEGRAM", "Failed to notify about order "+orderID+": "+err.Error())
		return
	}

	t.logger.LogTelegram("Operator notified about order " + orderID)
}

func (t *Telegram) send(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    t.cfg.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}

func formatOrderMessage(order *models.Order) string {
	eventTitle, tierName := "N/A", "N/A"
	bankName, iban := "N/A", "N/A"
	if order.Event != nil {
		eventTitle = order.Event.Title
	}
	if order.Tier != nil {
		tierName = order.Tier.Name
	}
	if order.Bank != nil {
		bankName = order.Bank.BankName
		iban = order.Bank.IBAN
	}

	return fmt.Sprintf(
		"🎫 <b>New order!</b>\n\n"+
			"🎵 <b>Event:</b> %s\n"+
			"🎟 <b>Tier:</b> %s\n"+
			"📊 <b>Quantity:</b> %d\n\n"+
			"💰 <b>Total:</b> $%.2f USD\n"+
			"💵 <b>In TL:</b> %.2f TL\n"+
			"📈 <b>Rate:</b> 1 USD = %.2f TL\n\n"+
			"👤 <b>Buyer:</b> %s %s\n"+
			"📧 <b>Email:</b> %s\n\n"+
			"🏦 <b>Bank:</b> %s\n"+
			"💳 <b>IBAN:</b> <code>%s</code>\n\n"+
			"⏳ Status: pending review",
		eventTitle, tierName, order.Quantity,
		order.PriceUSD, order.PriceTL, order.ExchangeRateUsed,
		order.BuyerName, order.BuyerSurname, order.BuyerEmail,
		bankName, iban,
	)
}
