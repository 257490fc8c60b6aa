// Package booking implements the session scheduler: pricing, conflict
// resolution, the status lifecycle and the orchestrator that composes them.
package booking

import "time"

// Status is a booking's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PaymentStatus tracks the payment leg of a booking.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRejected PaymentStatus = "rejected"
	PaymentRefunded PaymentStatus = "refunded"
)

// Duration is the enumerated length of a session.
type Duration string

const (
	Duration30Min  Duration = "30min"
	Duration1Hour  Duration = "1hour"
	Duration90Min  Duration = "1.5hours"
	Duration2Hours Duration = "2hours"
)

// Valid reports whether the duration is one of the enumerated values.
func (d Duration) Valid() bool {
	switch d {
	case Duration30Min, Duration1Hour, Duration90Min, Duration2Hours:
		return true
	}
	return false
}

// Minutes returns the slot length in minutes. Unknown values fall back to
// one hour to keep interval arithmetic total; validation rejects unknown
// durations before they reach this point.
func (d Duration) Minutes() int {
	switch d {
	case Duration30Min:
		return 30
	case Duration90Min:
		return 90
	case Duration2Hours:
		return 120
	default:
		return 60
	}
}

// SessionType is the delivery channel for a session.
type SessionType string

const (
	SessionTypeVideo    SessionType = "video"
	SessionTypeAudio    SessionType = "audio"
	SessionTypeChat     SessionType = "chat"
	SessionTypeInPerson SessionType = "in_person"
)

// Session is a booking between a student and a mentor.
type Session struct {
	ID            string        `json:"id"`
	StudentID     string        `json:"student_id"`
	MentorID      string        `json:"mentor_id"`
	SessionDate   time.Time     `json:"session_date"`
	SessionTime   string        `json:"session_time"` // HH:MM
	Duration      Duration      `json:"duration"`
	Subject       string        `json:"subject"`
	SessionType   SessionType   `json:"session_type"`
	Message       string        `json:"message,omitempty"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Amount        float64       `json:"amount"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	ConfirmedAt   *time.Time    `json:"confirmed_at,omitempty"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty"`
	// Reschedules re-enter pending carrying the slot they moved away from.
	OriginalDate *time.Time `json:"original_date,omitempty"`
	OriginalTime *string    `json:"original_time,omitempty"`
}

// SessionWithParty joins a session with the counter-party's public
// name/email for listings.
type SessionWithParty struct {
	Session
	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`
	MentorName   string `json:"mentor_name"`
	MentorEmail  string `json:"mentor_email"`
}
