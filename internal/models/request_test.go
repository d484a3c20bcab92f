package models

import (
	"testing"
)

func TestIsValidRequestStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   RequestStatus
		expected bool
	}{
		{"pending", RequestPending, true},
		{"in-progress", RequestInProgress, true},
		{"completed", RequestCompleted, true},
		{"canceled", RequestCanceled, true},
		{"unknown", "paused", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidRequestStatus(tt.status); got != tt.expected {
				t.Errorf("IsValidRequestStatus(%s) = %v, want %v", tt.status, got, tt.expected)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     RequestStatus
		to       RequestStatus
		role     Role
		expected bool
	}{
		{"mechanic claims pending", RequestPending, RequestInProgress, RoleMechanic, true},
		{"admin claims pending", RequestPending, RequestInProgress, RoleAdmin, true},
		{"user cannot claim", RequestPending, RequestInProgress, RoleUser, false},
		{"user cancels pending", RequestPending, RequestCanceled, RoleUser, true},
		{"mechanic completes active", RequestInProgress, RequestCompleted, RoleMechanic, true},
		{"mechanic cancels active", RequestInProgress, RequestCanceled, RoleMechanic, true},
		{"user cannot complete", RequestInProgress, RequestCompleted, RoleUser, false},
		{"pending cannot complete directly", RequestPending, RequestCompleted, RoleMechanic, false},
		{"completed is terminal", RequestCompleted, RequestPending, RoleAdmin, false},
		{"completed cannot restart", RequestCompleted, RequestInProgress, RoleMechanic, false},
		{"canceled is terminal", RequestCanceled, RequestInProgress, RoleMechanic, false},
		{"no self transition", RequestPending, RequestPending, RoleAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to, tt.role); got != tt.expected {
				t.Errorf("CanTransition(%s, %s, %s) = %v, want %v", tt.from, tt.to, tt.role, got, tt.expected)
			}
		})
	}
}
