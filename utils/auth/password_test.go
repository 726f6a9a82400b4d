package auth

import (
	"errors"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	password := "correct-horse-battery"

	hashed, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hashed == password {
		t.Fatal("hash must not equal the plaintext password")
	}

	if err := VerifyPassword(hashed, password); err != nil {
		t.Fatalf("VerifyPassword rejected the correct password: %v", err)
	}

	if err := VerifyPassword(hashed, "wrong-password"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	a, err := HashPassword("same-input")
	if err != nil {
		t.Fatal(err)
	}
	b, err := HashPassword("same-input")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	if err := VerifyPassword("not-a-bcrypt-digest", "anything"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("malformed digest should report ErrPasswordMismatch, got %v", err)
	}
}

func TestDummyHashNeverMatches(t *testing.T) {
	// The enumeration decoy must burn bcrypt time and then fail.
	if err := VerifyPassword(DummyHash, "any password at all"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("DummyHash comparison must fail with ErrPasswordMismatch, got %v", err)
	}
}

func TestIsPasswordValid(t *testing.T) {
	cases := []struct {
		password string
		want     bool
	}{
		{"", false},
		{"short", false},
		{"1234567", false},
		{"12345678", true},
		{"a perfectly fine passphrase", true},
	}
	for _, tc := range cases {
		if got := IsPasswordValid(tc.password); got != tc.want {
			t.Errorf("IsPasswordValid(%q) = %v, want %v", tc.password, got, tc.want)
		}
	}
}
