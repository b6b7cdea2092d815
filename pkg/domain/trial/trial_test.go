package trial

import (
	"testing"
	"time"
)

func TestNewState(t *testing.T) {
	state := NewState("user@example.com", 7*24*time.Hour)

	if !state.Consumed() {
		t.Error("a freshly activated trial must be consumed")
	}
	want := state.StartedAt().Add(7 * 24 * time.Hour)
	if !state.ExpiresAt().Equal(want) {
		t.Errorf("ExpiresAt() = %v, want %v", state.ExpiresAt(), want)
	}
}

func TestIsActiveAt(t *testing.T) {
	expiry := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	state := Reconstitute("user@example.com", expiry.AddDate(0, 0, -7), expiry, true)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"during trial", expiry.Add(-time.Hour), true},
		{"exactly at expiry", expiry, false},
		{"after expiry", expiry.Add(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := state.IsActiveAt(tt.now); got != tt.want {
				t.Errorf("IsActiveAt(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}
