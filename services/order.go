package services

import (
	"context"

	"github.com/Endry199/jpstore/models"
)

// Order is a persisted checkout together with the request data the
// notifiers render from.
type Order struct {
	Transaction *models.Transaction
	Cart        []models.CartItem
	// FinalPrice is the total exactly as the customer submitted it.
	FinalPrice string
	// RawWhatsapp is the contact number as typed; Whatsapp is its canonical
	// form, nil when it could not be normalized.
	RawWhatsapp string
	Whatsapp    *string
	Attachment  *models.Attachment
}

func (o *Order) ID() string {
	return o.Transaction.TransactionID
}

// Notifier delivers one notification for an order.
type Notifier interface {
	Notify(ctx context.Context, order *Order) error
}
