// Package notifications persists outbound events and hands them to the
// async delivery queue.
package notifications

import (
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Type classifies a notification for client rendering.
type Type string

const (
	TypeBooking Type = "booking"
	TypePayment Type = "payment"
	TypeSession Type = "session"
	TypeReview  Type = "review"
)

// Notification is an outbound event for one user.
type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Type      Type           `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders a charge amount for notification copy, e.g. "$50.00".
func FormatAmount(amount float64) string {
	return amountPrinter.Sprintf("%v", currency.NarrowSymbol(currency.USD.Amount(amount)))
}
