package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, 1, "alice", true)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != 1 {
		t.Errorf("expected user_id 1, got %d", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("expected username 'alice', got %q", claims.Username)
	}
	if !claims.Admin {
		t.Error("expected admin claim set")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", 1, "alice", false)

	_, err := ValidateToken("secret2", token)
	if err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestTokenExpiry(t *testing.T) {
	// Just verify the expiry is set correctly.
	secret := "test"
	token, _ := GenerateToken(secret, 1, "test", false)
	claims, _ := ValidateToken(secret, token)

	expiresAt := claims.ExpiresAt.Time
	expectedExpiry := time.Now().Add(TokenExpiry)

	diff := expectedExpiry.Sub(expiresAt)
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiry off by %v", diff)
	}
}

func TestTokensHaveUniqueIDs(t *testing.T) {
	secret := "test"
	t1, _ := GenerateToken(secret, 1, "alice", false)
	t2, _ := GenerateToken(secret, 1, "alice", false)

	c1, _ := ValidateToken(secret, t1)
	c2, _ := ValidateToken(secret, t2)
	if c1.ID == c2.ID {
		t.Error("expected distinct JTIs")
	}
}
