package booking

import "math"

// Multiplier maps a duration to its share of the hourly rate.
func Multiplier(d Duration) float64 {
	switch d {
	case Duration30Min:
		return 0.5
	case Duration90Min:
		return 1.5
	case Duration2Hours:
		return 2
	default:
		// Unknown durations are billed as one hour. Validation rejects
		// them earlier, so this branch only covers legacy rows.
		return 1
	}
}

// Price computes the charge amount for one session, rounded to cents.
// Never negative: a negative rate prices to zero.
func Price(hourlyRate float64, d Duration) float64 {
	if hourlyRate < 0 {
		return 0
	}
	return round2(hourlyRate * Multiplier(d))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
