package tickets

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ticketstore/internal/logger"
	"ticketstore/internal/models"
	"ticketstore/internal/tickets/qr"
)

type DBLayer interface {
	CreateTicket(ctx context.Context, ticket models.Ticket) error
	GetAttendeesByOrder(ctx context.Context, orderID string) ([]models.OrderAttendee, error)
}

type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Issuer materializes tickets for an approved order: one per purchased
// seat, named after the buyer and any registered attendees, each with an
// encrypted QR image in object storage.
type Issuer struct {
	DB     DBLayer
	Store  Uploader
	QR     *qr.Generator
	Logger *logger.Logger
}

func NewIssuer(db DBLayer, store Uploader, generator *qr.Generator, log *logger.Logger) *Issuer {
	return &Issuer{DB: db, Store: store, QR: generator, Logger: log}
}

func (i *Issuer) Issue(ctx context.Context, order models.Order) ([]models.Ticket, error) {
	names, err := i.seatNames(ctx, order)
	if err != nil {
		return nil, err
	}

	tierName := ""
	if order.Tier != nil {
		tierName = order.Tier.Name
	}

	issued := make([]models.Ticket, 0, len(names))
	for _, name := range names {
		ticket := models.Ticket{
			ID:           uuid.NewString(),
			OrderID:      order.ID,
			EventID:      order.EventID,
			TierName:     tierName,
			AttendeeName: name,
			IssuedAt:     time.Now(),
		}

		png, err := i.QR.EncryptedPNG(ticket)
		if err != nil {
			return nil, fmt.Errorf("failed to render QR for ticket %s: %w", ticket.ID, err)
		}

		key := "tickets/" + ticket.ID + ".png"
		if _, err := i.Store.Upload(ctx, key, png, "image/png"); err != nil {
			return nil, fmt.Errorf("failed to store QR for ticket %s: %w", ticket.ID, err)
		}
		ticket.QRKey = key

		if err := i.DB.CreateTicket(ctx, ticket); err != nil {
			return nil, fmt.Errorf("failed to persist ticket %s: %w", ticket.ID, err)
		}
		issued = append(issued, ticket)
	}

	i.Logger.LogOrder("ISSUE", order.ID, fmt.Sprintf("%d ticket(s) issued", len(issued)))
	return issued, nil
}

// seatNames assigns the buyer to the first seat and attendees to the rest;
// seats without a registered attendee fall back to the buyer's name.
func (i *Issuer) seatNames(ctx context.Context, order models.Order) ([]string, error) {
	attendees, err := i.DB.GetAttendeesByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendees for order %s: %w", order.ID, err)
	}

	buyer := order.BuyerName + " " + order.BuyerSurname
	names := make([]string, 0, order.Quantity)
	names = append(names, buyer)
	for _, a := range attendees {
		if len(names) >= order.Quantity {
			break
		}
		names = append(names, a.FullName)
	}
	for len(names) < order.Quantity {
		names = append(names, buyer)
	}
	return names, nil
}
