package domain

import (
	"testing"
	"time"
)

func TestDate_DaysUntil(t *testing.T) {
	base := NewDate(2025, time.January, 1)
	cases := []struct {
		to   Date
		want int
	}{
		{NewDate(2025, time.January, 1), 0},
		{NewDate(2025, time.January, 8), 7},
		{NewDate(2024, time.December, 31), -1},
		{NewDate(2025, time.March, 1), 59},
		// beyond the ~292 years a time.Duration can hold
		{NewDate(2400, time.January, 1), 136965},
		{NewDate(1600, time.January, 1), -155229},
	}
	for _, c := range cases {
		if got := base.DaysUntil(c.to); got != c.want {
			t.Fatalf("%s -> %s: expected %d, got %d", base, c.to, c.want, got)
		}
	}

	if got := NewDate(1, time.January, 1).DaysUntil(NewDate(9999, time.December, 31)); got != 3652058 {
		t.Fatalf("expected 3652058, got %d", got)
	}
}
