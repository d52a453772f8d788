package main

import "testing"

func TestClockAtHour(t *testing.T) {
	for _, h := range []int{0, 8, 23} {
		if got := clockAtHour(h)().Hour(); got != h {
			t.Errorf("Expected hour %d, got %d", h, got)
		}
	}
}

func TestEngineOptions(t *testing.T) {
	tests := []struct {
		hour        int
		expectOpts  int
		expectError bool
	}{
		{-1, 0, false},
		{0, 1, false},
		{23, 1, false},
		{24, 0, true},
		{-5, 0, true},
	}

	for _, tt := range tests {
		hour = tt.hour
		opts, err := engineOptions()
		if tt.expectError != (err != nil) {
			t.Errorf("hour=%d: expected error %v, got %v", tt.hour, tt.expectError, err)
		}
		if len(opts) != tt.expectOpts {
			t.Errorf("hour=%d: expected %d options, got %d", tt.hour, tt.expectOpts, len(opts))
		}
	}
	hour = -1
}
