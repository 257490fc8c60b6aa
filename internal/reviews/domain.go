// Package reviews lets students rate completed sessions and mentors
// respond, with time-boxed edit and delete windows.
package reviews

import "time"

// Windows for own-review mutations. Review admins bypass both.
const (
	EditWindow   = 7 * 24 * time.Hour
	DeleteWindow = 24 * time.Hour
)

// Review is a student's rating of one completed session. One review per
// session.
type Review struct {
	ID             string     `json:"id"`
	SessionID      string     `json:"session_id"`
	StudentID      string     `json:"student_id"`
	MentorID       string     `json:"mentor_id"`
	Rating         int        `json:"rating"` // 1..5
	Comment        string     `json:"comment,omitempty"`
	MentorResponse *string    `json:"mentor_response,omitempty"`
	RespondedAt    *time.Time `json:"responded_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// EditableAt reports whether the owner may still edit at the given time.
func (r Review) EditableAt(now time.Time) bool {
	return now.Sub(r.CreatedAt) <= EditWindow
}

// DeletableAt reports whether the owner may still delete at the given time.
func (r Review) DeletableAt(now time.Time) bool {
	return now.Sub(r.CreatedAt) <= DeleteWindow
}

// ReviewWithAuthor joins a review with the student's public name for
// mentor profile pages.
type ReviewWithAuthor struct {
	Review
	StudentName string `json:"student_name"`
}
