// Package otp keeps short-lived one-time codes for admin login and
// password reset.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// DefaultMaxAttempts is used when a store is built with a non-positive
// attempt limit.
const DefaultMaxAttempts = 5

var (
	ErrCodeInvalid     = errors.New("one-time code is invalid")
	ErrCodeExpired     = errors.New("one-time code has expired")
	ErrTooManyAttempts = errors.New("too many failed attempts")
)

// Store holds at most one live code per key. A code is consumed by a
// successful Verify, or discarded once the key collects the configured
// number of wrong guesses.
type Store interface {
	Put(ctx context.Context, key, code string) error
	Verify(ctx context.Context, key, code string) error
	Stop()
}

func attemptLimit(n int) int {
	if n <= 0 {
		return DefaultMaxAttempts
	}
	return n
}

// Generate returns a random numeric code of the given length.
func Generate(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for range length {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
