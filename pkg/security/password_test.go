package security_test

import (
	"testing"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/config"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/security"
)

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	hash, err := security.HashPassword("very-secure-password", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestValidatePolicy(t *testing.T) {
	cfg := config.PasswordConfig{MinLength: 8}

	cases := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Sup3r-Secret", false},
		{"too short", "Ab1!x", true},
		{"missing upper", "sup3r-secret", true},
		{"missing lower", "SUP3R-SECRET", true},
		{"missing digit", "Super-Secret", true},
		{"missing special", "Sup3rSecret", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := security.ValidatePolicy(tc.password, cfg)
			if tc.wantErr && err == nil {
				t.Fatalf("expected policy error for %q", tc.password)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.password, err)
			}
		})
	}
}
