package identity

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	apperrors "github.com/tempora-io/tempora-desktop/internal/errors"
)

// Kind distinguishes the two bearer token types the identity provider
// can hand out.
type Kind int

const (
	AccessToken Kind = iota
	IDToken
)

func (k Kind) String() string {
	if k == IDToken {
		return "id_token"
	}
	return "access_token"
}

// Credential is one decoded bearer credential. It is produced fresh on
// each read from the identity provider and never persisted.
type Credential struct {
	SubjectID string
	Kind      Kind
	ExpiresAt time.Time
	Raw       string
}

// Expired reports whether the credential is past its expiry at the
// given instant. A credential without an exp claim never expires
// client-side; the backend is the authority either way.
func (c *Credential) Expired(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return now.After(c.ExpiresAt)
}

// DecodeSubject extracts the subject identifier from a raw bearer
// token. The decode is purely local: the signature is not verified,
// since verification is the backend's job and the subject is only used
// as the canonical user key for building request paths.
func DecodeSubject(raw string) (string, error) {
	claims, err := decodeClaims(raw)
	if err != nil {
		return "", err
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.Wrap(apperrors.ErrMalformedCredential, "[DecodeSubject] missing sub claim")
	}
	return sub, nil
}

func decodeClaims(raw string) (jwtlib.MapClaims, error) {
	unverified, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return nil, errors.Wrap(apperrors.ErrMalformedCredential, err.Error())
	}
	claims, ok := unverified.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.Wrap(apperrors.ErrMalformedCredential, "[decodeClaims] error extracting claims")
	}
	return claims, nil
}

func decodeExpiry(claims jwtlib.MapClaims) time.Time {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
