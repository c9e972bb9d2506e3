package auth

import (
	"testing"
)

func TestHashPassword(t *testing.T) {
	password := "test-password-123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == password {
		t.Error("Hash should not equal plain password")
	}

	// Bcrypt hashes are 60 characters
	if len(hash) < 60 {
		t.Error("Bcrypt hash should be at least 60 characters")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("test-password-123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"correct", "test-password-123", true},
		{"incorrect", "wrong-password", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, hash); got != tt.want {
				t.Errorf("CheckPassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestHashPasswordRejectsWeak(t *testing.T) {
	for _, pw := range []string{"", "short"} {
		if _, err := HashPassword(pw); err == nil {
			t.Errorf("HashPassword(%q) should fail", pw)
		}
	}
}
