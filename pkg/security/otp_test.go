package security_test

import (
	"testing"

	"github.com/parcelhub/parcelhub-backend/pkg/config"
	"github.com/parcelhub/parcelhub-backend/pkg/security"
)

func testOTPConfig() config.OTPConfig {
	return config.OTPConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestGenerateCodeShape(t *testing.T) {
	code, err := security.GenerateCode(6)
	if err != nil {
		t.Fatalf("GenerateCode returned error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digits, got %q", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("expected numeric code, got %q", code)
		}
	}

	if _, err := security.GenerateCode(0); err == nil {
		t.Fatal("expected error for non-positive length")
	}
}

func TestHashAndVerifyCode(t *testing.T) {
	hash, err := security.HashCode("482193", testOTPConfig())
	if err != nil {
		t.Fatalf("HashCode returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashCode returned empty string")
	}
	if hash == "482193" {
		t.Fatal("hash must not contain the plaintext code")
	}

	ok, err := security.VerifyCode("482193", hash)
	if err != nil {
		t.Fatalf("VerifyCode returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyCode failed for the correct code")
	}

	ok, err = security.VerifyCode("482194", hash)
	if err != nil {
		t.Fatalf("VerifyCode returned error for wrong code: %v", err)
	}
	if ok {
		t.Fatal("VerifyCode returned true for incorrect code")
	}
}

func TestVerifyCodeBadHash(t *testing.T) {
	if _, err := security.VerifyCode("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}
