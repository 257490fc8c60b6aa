// Package payments records charges and applies provider webhook events to
// the booking lifecycle.
package payments

import "time"

// Status mirrors the provider's terminal view of a charge.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// Payment is one recorded charge attempt against a session.
type Payment struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	StudentID   string    `json:"student_id"`
	MentorID    string    `json:"mentor_id"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Provider    string    `json:"provider"`
	ProviderRef string    `json:"provider_ref"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// WebhookEvent is the provider's delivery payload. EventID is the
// idempotency key: redeliveries carry the same one.
type WebhookEvent struct {
	EventID     string  `json:"event_id" validate:"required"`
	Type        string  `json:"type" validate:"required,oneof=payment.succeeded payment.failed payment.cancelled"`
	SessionID   string  `json:"session_id" validate:"required"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Provider    string  `json:"provider"`
	ProviderRef string  `json:"provider_ref"`
}
