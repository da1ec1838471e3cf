package utils

import "testing"

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "admin@example.com", "ADMIN")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user ID 42, got %d", claims.UserID)
	}
	if claims.Email != "admin@example.com" {
		t.Errorf("expected email to round trip, got %s", claims.Email)
	}
	if claims.Role != "ADMIN" {
		t.Errorf("expected role ADMIN, got %s", claims.Role)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := ValidateToken(token); err == nil {
			t.Errorf("expected validation to fail for %q", token)
		}
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	token, err := GenerateAccessToken(1, "cashier@example.com", "CASHIER")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := ValidateToken(tampered); err == nil {
		t.Error("expected tampered token to be rejected")
	}
}
