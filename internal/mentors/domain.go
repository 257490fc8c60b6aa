// Package mentors manages mentor profiles and their rollup counters.
package mentors

import "time"

// Profile represents a mentor's public profile and pricing.
type Profile struct {
	UserID              string    `json:"user_id"`
	Headline            string    `json:"headline"`
	Bio                 string    `json:"bio,omitempty"`
	Subjects            []string  `json:"subjects,omitempty"`
	HourlyRate          float64   `json:"hourly_rate"`
	Timezone            string    `json:"timezone"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	IsActive            bool      `json:"is_active"`
	TotalSessions       int       `json:"total_sessions"`
	TotalEarnings       float64   `json:"total_earnings"`
	AverageRating       float64   `json:"average_rating"`
	RatingCount         int       `json:"rating_count"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Bookable reports whether students may book this mentor.
func (p Profile) Bookable() bool {
	return p.IsActive && p.OnboardingCompleted && p.HourlyRate > 0
}
