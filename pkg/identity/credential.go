package identity

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingCredential     = errors.New("missing bearer credential")
	ErrUnsupportedCredential = errors.New("unsupported credential issuer")
	ErrInvalidToken          = errors.New("invalid token")
	ErrExpiredToken          = errors.New("token expired")
)

// Credential is either a FirebaseCredential or a SessionCredential.
type Credential interface {
	Token() string
	isCredential()
}

type FirebaseCredential struct {
	Raw string
}

func (c FirebaseCredential) Token() string { return c.Raw }
func (FirebaseCredential) isCredential() {}

type SessionCredential struct {
	Raw string
}

func (c SessionCredential) Token() string { return c.Raw }
func (SessionCredential) isCredential() {}

// ParseBearer extracts the token from an Authorization header and
// classifies it.
func ParseBearer(header, sessionIssuer string) (Credential, error) {
	token, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return nil, ErrMissingCredential
	}
	return Classify(strings.TrimSpace(token), sessionIssuer)
}

// Classify picks the credential kind from the unverified iss claim.
// The signature is checked later by the matching verifier.
func Classify(token, sessionIssuer string) (Credential, error) {
	if token == "" {
		return nil, ErrMissingCredential
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, ErrInvalidToken
	}

	switch {
	case sessionIssuer != "" && claims.Issuer == sessionIssuer:
		return SessionCredential{Raw: token}, nil
	case strings.HasPrefix(claims.Issuer, FirebaseIssuerPrefix):
		return FirebaseCredential{Raw: token}, nil
	default:
		return nil, ErrUnsupportedCredential
	}
}
