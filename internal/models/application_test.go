package models

import (
	"testing"
)

func TestIsValidDecision(t *testing.T) {
	tests := []struct {
		name     string
		status   ApplicationStatus
		expected bool
	}{
		{"approved", ApplicationApproved, true},
		{"rejected", ApplicationRejected, true},
		{"pending is not a decision", ApplicationPending, false},
		{"unknown value", "maybe", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidDecision(tt.status); got != tt.expected {
				t.Errorf("IsValidDecision(%s) = %v, want %v", tt.status, got, tt.expected)
			}
		})
	}
}
