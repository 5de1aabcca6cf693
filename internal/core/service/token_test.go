package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/accessgate/access-system/internal/core/domain"
)

func TestTokenCodec_IssueAndDecode(t *testing.T) {
	codec := NewTokenCodec("test-secret")
	issuedAt := time.Now().UTC().Truncate(time.Second)

	token, err := codec.Issue("identity-1", issuedAt, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if token == "" {
		t.Fatal("Issue returned an empty token")
	}

	claims, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if claims.SubjectID != "identity-1" {
		t.Errorf("SubjectID = %q, want %q", claims.SubjectID, "identity-1")
	}
	if !claims.IssuedAt.Equal(issuedAt) {
		t.Errorf("IssuedAt = %v, want %v", claims.IssuedAt, issuedAt)
	}
	if !claims.ExpiresAt.Equal(issuedAt.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt, issuedAt.Add(time.Hour))
	}
}

func TestTokenCodec_DecodeWrongSecret(t *testing.T) {
	token, err := NewTokenCodec("secret-a").Issue("identity-1", time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := NewTokenCodec("secret-b").Decode(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("Decode error = %v, want ErrTokenInvalid", err)
	}
}

func TestTokenCodec_DecodeMalformed(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := codec.Decode(token); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Errorf("Decode(%q) error = %v, want ErrTokenInvalid", token, err)
		}
	}
}

func TestTokenCodec_DecodeRejectsUnsignedAlgorithm(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "identity-1",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing with none: %v", err)
	}

	if _, err := NewTokenCodec("test-secret").Decode(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("Decode error = %v, want ErrTokenInvalid", err)
	}
}

// An expired token must still decode: session rows decide validity, and the
// lookup path needs the token to find the row it is about to deactivate.
func TestTokenCodec_DecodeExpiredToken(t *testing.T) {
	codec := NewTokenCodec("test-secret")
	issuedAt := time.Now().Add(-48 * time.Hour)

	token, err := codec.Issue("identity-1", issuedAt, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("Decode of expired token returned error: %v", err)
	}
	if claims.SubjectID != "identity-1" {
		t.Errorf("SubjectID = %q, want %q", claims.SubjectID, "identity-1")
	}
}

func TestTokenCodec_DecodeRejectsMissingSubject(t *testing.T) {
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := NewTokenCodec("test-secret").Decode(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("Decode error = %v, want ErrTokenInvalid", err)
	}
}
