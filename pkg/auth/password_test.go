package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatalf("hash equals plaintext")
	}
	if !CheckPassword("s3cret-pass", hash) {
		t.Fatalf("correct password rejected")
	}
	if CheckPassword("wrong-pass", hash) {
		t.Fatalf("wrong password accepted")
	}
}

func TestGenerateOTP(t *testing.T) {
	code, err := GenerateOTP(6)
	if err != nil {
		t.Fatalf("generate otp: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("code length = %d, want 6", len(code))
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Fatalf("code %q contains non-digit %q", code, c)
		}
	}
}

func TestGenerateOTPDefaultsLength(t *testing.T) {
	code, err := GenerateOTP(0)
	if err != nil {
		t.Fatalf("generate otp: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("code length = %d, want default 6", len(code))
	}
}
