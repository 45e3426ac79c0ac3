package crypto

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-passw0rd")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "s3cret-passw0rd" {
		t.Fatal("expected hash to differ from plaintext")
	}

	if !VerifyPassword(hash, "s3cret-passw0rd") {
		t.Fatal("expected correct password to verify")
	}
	if VerifyPassword(hash, "wrong-password") {
		t.Fatal("expected wrong password to fail verification")
	}
}

func TestHashPasswordCost(t *testing.T) {
	hash, err := HashPassword("cost-check")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("Cost returned error: %v", err)
	}
	if cost != passwordCost {
		t.Fatalf("expected cost %d, got %d", passwordCost, cost)
	}
}

func TestHashesAreSalted(t *testing.T) {
	first, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	second, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if first == second {
		t.Fatal("expected salted hashes to differ for identical inputs")
	}
}

func TestGenerateToken(t *testing.T) {
	first, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	second, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if first == "" || first == second {
		t.Fatal("expected distinct non-empty tokens")
	}
}
