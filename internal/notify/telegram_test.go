package notify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"ticketstore/internal/config"
	"ticketstore/internal/logger"
	"ticketstore/internal/models"
	"ticketstore/internal/notify"
)

type StubOrders struct {
	order  *models.Order
	err    error
	called bool
}

func (s *StubOrders) GetOrderWithRelations(ctx context.Context, id string) (*models.Order, error) {
	s.called = true
	return s.order, s.err
}

func configured() config.TelegramConfig {
	return config.TelegramConfig{
		BotToken: "token",
		ChatID:   "chat",
		Enabled:  true,
	}
}

func TestNotifyNewOrderMissingOrderDoesNotPanic(t *testing.T) {
	orders := &StubOrders{}
	tg := notify.NewTelegram(configured(), orders, nil, logger.NewLogger())

	assert.NotPanics(t, func() { tg.NotifyNewOrder("missing-order") })
	assert.True(t, orders.called)
}

func TestNotifyNewOrderResolverErrorDoesNotPanic(t *testing.T) {
	orders := &StubOrders{err: assert.AnError}
	tg := notify.NewTelegram(configured(), orders, nil, logger.NewLogger())

	assert.NotPanics(t, func() { tg.NotifyNewOrder("order-1") })
}

func TestNotifyNewOrderSkipsWhenUnconfigured(t *testing.T) {
	orders := &StubOrders{}
	tg := notify.NewTelegram(config.TelegramConfig{Enabled: false}, orders, nil, logger.NewLogger())

	tg.NotifyNewOrder("order-1")

	assert.False(t, orders.called)
}
