package utils

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"cashier@example.com", true},
		{"a.b+tag@sub.domain.io", true},
		{"", false},
		{"no-at-sign", false},
		{"missing@tld", false},
		{"@example.com", false},
	}

	for _, tt := range tests {
		if got := IsValidEmail(tt.email); got != tt.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestIsValidPasswordLength(t *testing.T) {
	if IsValidPasswordLength("short", 8) {
		t.Error("expected short password to fail")
	}
	if !IsValidPasswordLength("longenough", 8) {
		t.Error("expected long password to pass")
	}
}

func TestIsEmpty(t *testing.T) {
	if !IsEmpty("   ") {
		t.Error("whitespace-only string should be empty")
	}
	if IsEmpty(" x ") {
		t.Error("non-blank string should not be empty")
	}
}
