package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ticketstore/internal/catalog"
	"ticketstore/internal/models"
)

type MockCatalogDB struct {
	mock.Mock
}

func (m *MockCatalogDB) ListActiveEvents(ctx context.Context) ([]models.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockCatalogDB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockCatalogDB) GetActiveTiers(ctx context.Context, eventID string) ([]models.TicketTier, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TicketTier), args.Error(1)
}

func TestListEventsEmptyIsNotNil(t *testing.T) {
	db := new(MockCatalogDB)
	db.On("ListActiveEvents", mock.Anything).Return(nil, nil)

	events, err := catalog.NewService(db).ListEvents(context.Background())

	assert.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestEventDetailComputesAvailability(t *testing.T) {
	db := new(MockCatalogDB)
	db.On("GetEventByID", mock.Anything, "event-1").Return(&models.Event{
		ID:         "event-1",
		Title:      "Summer Fest",
		ArtistName: "The Band",
		Venue:      "Open Air Arena",
		EventDate:  time.Now().Add(24 * time.Hour),
		IsActive:   true,
	}, nil)
	db.On("GetActiveTiers", mock.Anything, "event-1").Return([]models.TicketTier{
		{ID: "t1", EventID: "event-1", Name: "VIP", PriceUSD: 150, QuantityTotal: 20, QuantitySold: 5, IsActive: true},
		{ID: "t2", EventID: "event-1", Name: "General", PriceUSD: 50, QuantityTotal: 100, QuantitySold: 120, IsActive: true},
	}, nil)

	detail, err := catalog.NewService(db).EventDetail(context.Background(), "event-1")

	assert.NoError(t, err)
	assert.Equal(t, "Summer Fest", detail.Event.Title)
	assert.Len(t, detail.Tiers, 2)
	assert.Equal(t, 15, detail.Tiers[0].Available)
	// Oversold tiers report zero, never negative.
	assert.Equal(t, 0, detail.Tiers[1].Available)
}

func TestEventDetailInactiveEventHidden(t *testing.T) {
	db := new(MockCatalogDB)
	db.On("GetEventByID", mock.Anything, "event-1").Return(&models.Event{
		ID:       "event-1",
		IsActive: false,
	}, nil)

	_, err := catalog.NewService(db).EventDetail(context.Background(), "event-1")

	assert.ErrorIs(t, err, catalog.ErrEventNotFound)
	db.AssertNotCalled(t, "GetActiveTiers", mock.Anything, mock.Anything)
}

func TestEventDetailUnknownEvent(t *testing.T) {
	db := new(MockCatalogDB)
	db.On("GetEventByID", mock.Anything, "missing").Return(nil, nil)

	_, err := catalog.NewService(db).EventDetail(context.Background(), "missing")

	assert.ErrorIs(t, err, catalog.ErrEventNotFound)
}
