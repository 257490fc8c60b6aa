package booking

import "time"

// CreateRequest is the validated payload for creating a booking.
type CreateRequest struct {
	MentorID    string `json:"mentor_id" validate:"required"`
	SessionDate string `json:"session_date" validate:"required,datetime=2006-01-02"`
	SessionTime string `json:"session_time" validate:"required,datetime=15:04"`
	Duration    string `json:"duration" validate:"required,oneof=30min 1hour 1.5hours 2hours"`
	Subject     string `json:"subject" validate:"required,max=200"`
	SessionType string `json:"session_type" validate:"required,oneof=video audio chat in_person"`
	Message     string `json:"message" validate:"max=2000"`
}

// RescheduleRequest moves a booking to a new slot.
type RescheduleRequest struct {
	SessionDate string `json:"session_date" validate:"required,datetime=2006-01-02"`
	SessionTime string `json:"session_time" validate:"required,datetime=15:04"`
}

// CancelRequest optionally carries a reason for auditing.
type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ListFilter narrows booking listings.
type ListFilter struct {
	StudentID string
	MentorID  string
	Status    Status
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PerPage   int
}
