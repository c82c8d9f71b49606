package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := IssueToken(42, secret, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	userID, err := ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if userID != 42 {
		t.Fatalf("userID mismatch: got %d want 42", userID)
	}
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	tok, err := IssueToken(1, secret, -1*time.Second)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	_, err = ParseToken(tok, secret)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := IssueToken(2, []byte("right-secret"), time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	_, err = ParseToken(tok, []byte("wrong-secret"))
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseToken_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("not.a.jwt", []byte("k"))
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseToken_MissingUserID(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := IssueToken(0, secret, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	_, err = ParseToken(tok, secret)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for zero user id, got %v", err)
	}
}
