package storage

import (
	"math"
	"testing"
	"time"
)

// TestCircularMeanStd verifies bedtimes straddling the 24→0 boundary average
// to midnight instead of the naive 12:00, which matters because band wearers
// routinely fall asleep on either side of it.
func TestCircularMeanStd(t *testing.T) {
	tests := []struct {
		name     string
		hours    []float64
		wantMean float64
	}{
		{name: "identical bedtimes", hours: []float64{22.5, 22.5, 22.5}, wantMean: 22.5},
		{name: "straddling midnight", hours: []float64{23.5, 0.5}, wantMean: 0.0},
		{name: "wake cluster", hours: []float64{6.5, 7.0, 7.5}, wantMean: 7.0},
		{name: "late bedtime cluster", hours: []float64{23.0, 23.25, 23.75}, wantMean: 23.33},
		{name: "empty", hours: nil, wantMean: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, std := circularMeanStd(tt.hours)
			if math.Abs(mean-tt.wantMean) > 0.1 {
				t.Errorf("circularMeanStd(%v) mean = %.2f, want %.2f", tt.hours, mean, tt.wantMean)
			}

			if len(tt.hours) > 1 {
				allSame := true
				for _, h := range tt.hours {
					if h != tt.hours[0] {
						allSame = false
						break
					}
				}
				if allSame && std > 0.01 {
					t.Errorf("std = %.4f for identical times, want ~0", std)
				}
				if !allSame && std <= 0 {
					t.Errorf("std = %.4f for varied times, want > 0", std)
				}
			}
		})
	}
}

// TestTimeToHourOfDay verifies the fractional-hour extraction used to feed
// circular statistics.
func TestTimeToHourOfDay(t *testing.T) {
	got := timeToHourOfDay(time.Date(2026, 2, 6, 22, 45, 0, 0, time.UTC))
	if math.Abs(got-22.75) > 0.001 {
		t.Errorf("timeToHourOfDay(22:45) = %.3f, want 22.750", got)
	}
}

// TestHoursToHHMM verifies fractional hours format as "HH:MM" with 24 wrapping
// back to midnight.
func TestHoursToHHMM(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{0.0, "00:00"},
		{6.5, "06:30"},
		{23.25, "23:15"},
		{24.0, "00:00"},
	}

	for _, tt := range tests {
		if got := hoursToHHMM(tt.hours); got != tt.want {
			t.Errorf("hoursToHHMM(%.2f) = %q, want %q", tt.hours, got, tt.want)
		}
	}
}

// TestTruncInterval verifies the bucket-to-date_trunc mapping, including the
// monthly fallback for unrecognized buckets.
func TestTruncInterval(t *testing.T) {
	tests := []struct {
		bucket string
		want   string
	}{
		{"1 day", "day"},
		{"1 week", "week"},
		{"1 month", "month"},
		{"fortnight", "month"},
	}

	for _, tt := range tests {
		if got := truncInterval(tt.bucket); got != tt.want {
			t.Errorf("truncInterval(%q) = %q, want %q", tt.bucket, got, tt.want)
		}
	}
}
