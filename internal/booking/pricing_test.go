package booking

import "testing"

func TestPrice(t *testing.T) {
	cases := []struct {
		rate     float64
		duration Duration
		want     float64
	}{
		{50, Duration30Min, 25},
		{50, Duration1Hour, 50},
		{50, Duration90Min, 75},
		{50, Duration2Hours, 100},
		{75.50, Duration2Hours, 151},
		{0, Duration1Hour, 0},
		{-10, Duration1Hour, 0},
		{50, Duration("45min"), 50},
	}
	for _, tc := range cases {
		if got := Price(tc.rate, tc.duration); got != tc.want {
			t.Errorf("Price(%v, %q) = %v, want %v", tc.rate, tc.duration, got, tc.want)
		}
	}
}

func TestMultiplier(t *testing.T) {
	cases := []struct {
		duration Duration
		want     float64
	}{
		{Duration30Min, 0.5},
		{Duration1Hour, 1},
		{Duration90Min, 1.5},
		{Duration2Hours, 2},
		{Duration(""), 1},
		{Duration("3hours"), 1},
	}
	for _, tc := range cases {
		if got := Multiplier(tc.duration); got != tc.want {
			t.Errorf("Multiplier(%q) = %v, want %v", tc.duration, got, tc.want)
		}
	}
}
