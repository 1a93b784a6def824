package identity

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const FirebaseIssuerPrefix = "https://securetoken.google.com/"

// MinCertRefreshInterval bounds how often an unknown kid may force a
// certificate fetch.
const MinCertRefreshInterval = time.Minute

var (
	ErrUnknownKey = errors.New("unknown signing key")

	// ErrKeysUnavailable wraps failures to load the signing certificates.
	// It is an outage, not a bad token.
	ErrKeysUnavailable = errors.New("signing keys unavailable")
)

type FirebaseClaims struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	Phone         string `json:"phone_number,omitempty"`
	jwt.RegisteredClaims
}

// KeySource resolves a Firebase signing key by its kid header.
type KeySource interface {
	PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

type FirebaseVerifier struct {
	projectID string
	keys      KeySource
	now       func() time.Time
}

func NewFirebaseVerifier(projectID string, keys KeySource) *FirebaseVerifier {
	return &FirebaseVerifier{
		projectID: projectID,
		keys:      keys,
		now:       time.Now,
	}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*FirebaseClaims, error) {
	if v.projectID == "" {
		return nil, ErrUnsupportedCredential
	}

	var claims FirebaseClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKey
		}
		return v.keys.PublicKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(FirebaseIssuerPrefix+v.projectID),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrKeysUnavailable):
			return nil, err
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		default:
			return nil, ErrInvalidToken
		}
	}

	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// GoogleCertSource fetches the x509 certificates Google publishes for
// Firebase ID tokens and caches them until the response's max-age. An
// unknown kid forces at most one fetch per MinCertRefreshInterval and
// concurrent fetches are collapsed into one.
type GoogleCertSource struct {
	url         string
	httpClient  *http.Client
	now         func() time.Time
	minInterval time.Duration
	group       singleflight.Group

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	expires     time.Time
	lastAttempt time.Time
	lastErr     error
}

func NewGoogleCertSource(url string, httpClient *http.Client) *GoogleCertSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleCertSource{
		url:         url,
		httpClient:  httpClient,
		now:         time.Now,
		minInterval: MinCertRefreshInterval,
	}
}

func (s *GoogleCertSource) PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mu.RLock()
	key, ok := s.keys[kid]
	now := s.now()
	fresh := now.Before(s.expires)
	recent := !s.lastAttempt.IsZero() && now.Sub(s.lastAttempt) < s.minInterval
	lastErr := s.lastErr
	s.mu.RUnlock()

	switch {
	case ok && (fresh || recent):
		return key, nil
	case recent && lastErr != nil:
		return nil, lastErr
	case recent:
		return nil, ErrUnknownKey
	}

	_, err, _ := s.group.Do("certs", func() (any, error) {
		return nil, s.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if key, ok := s.keys[kid]; ok {
		return key, nil
	}
	return nil, ErrUnknownKey
}

// refresh records the attempt and its outcome so failures are not
// retried before the minimum interval.
func (s *GoogleCertSource) refresh(ctx context.Context) error {
	s.mu.RLock()
	recent := !s.lastAttempt.IsZero() && s.now().Sub(s.lastAttempt) < s.minInterval
	lastErr := s.lastErr
	s.mu.RUnlock()
	if recent {
		return lastErr
	}

	keys, expires, err := s.fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAttempt = s.now()
	if err != nil {
		s.lastErr = fmt.Errorf("%w: %w", ErrKeysUnavailable, err)
		return s.lastErr
	}
	s.lastErr = nil
	s.keys = keys
	s.expires = expires
	return nil
}

func (s *GoogleCertSource) fetch(ctx context.Context) (map[string]*rsa.PublicKey, time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("build cert request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("fetch certs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, time.Time{}, fmt.Errorf("fetch certs: unexpected status %d", resp.StatusCode)
	}

	var raw map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode certs: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(raw))
	for kid, certPEM := range raw {
		key, err := parseCertKey(certPEM)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("parse cert %s: %w", kid, err)
		}
		keys[kid] = key
	}

	return keys, s.now().Add(maxAge(resp.Header.Get("Cache-Control"))), nil
}

func parseCertKey(certPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, errors.New("no PEM block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("certificate key is not RSA")
	}
	return key, nil
}

func maxAge(cacheControl string) time.Duration {
	for _, directive := range strings.Split(cacheControl, ",") {
		value, ok := strings.CutPrefix(strings.TrimSpace(directive), "max-age=")
		if !ok {
			continue
		}
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Hour
}
