package siack

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum signing secret length in bytes (256 bits for HS256).
const MinSecretLength = 32

// DefaultTokenTTL is used when TokenConfig.TTL is zero.
const DefaultTokenTTL = time.Hour

// TokenConfig configures a TokenAuthenticator.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

type tokenClaims struct {
	Auth string `json:"auth,omitempty"`
	jwt.RegisteredClaims
}

// TokenAuthenticator issues and verifies HS256 bearer tokens. The signing key
// is derived once at construction and is read-only afterwards, so a single
// instance is safe for concurrent use.
//
// Timestamps carry second precision; exp is rounded up, so a token never
// expires before its TTL has elapsed.
type TokenAuthenticator struct {
	key    []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption configures optional TokenAuthenticator settings.
type TokenOption func(*TokenAuthenticator)

// WithClock replaces the time source used for iat, exp and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(a *TokenAuthenticator) {
		a.now = now
	}
}

// NewTokenAuthenticator derives the signing key from cfg.Secret.
func NewTokenAuthenticator(cfg TokenConfig, opts ...TokenOption) (*TokenAuthenticator, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("new token authenticator: secret must be at least %d bytes: %w", MinSecretLength, ErrInvalidInput)
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("new token authenticator: negative ttl: %w", ErrInvalidInput)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}

	a := &TokenAuthenticator{
		key: []byte(cfg.Secret),
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)

	return a, nil
}

// TTL returns the lifetime of issued tokens.
func (a *TokenAuthenticator) TTL() time.Duration {
	return a.ttl
}

// Issue signs a token for subject carrying the comma-joined authorities.
func (a *TokenAuthenticator) Issue(subject string, authorities []string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("issue token: empty subject: %w", ErrInvalidInput)
	}
	for _, auth := range authorities {
		if auth == "" || strings.Contains(auth, ",") {
			return "", fmt.Errorf("issue token: invalid authority %q: %w", auth, ErrInvalidInput)
		}
	}

	now := a.now()
	claims := tokenClaims{
		Auth: strings.Join(authorities, ","),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt(now, a.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// expiresAt rounds now+ttl up to the next whole second. The exp claim only
// holds seconds, so truncating would expire a token before its TTL elapsed.
func expiresAt(now time.Time, ttl time.Duration) time.Time {
	exp := now.Add(ttl)
	if t := exp.Truncate(time.Second); t.Before(exp) {
		return t.Add(time.Second)
	}
	return exp
}

// Verify checks the token and returns its principal.
//
// Errors:
//   - ErrMalformed: the token cannot be decoded or lacks a subject or expiry
//   - ErrUnsupportedFormat: the token uses an algorithm other than HS256
//   - ErrExpired: the expiry has passed, whether or not the signature is valid
//   - ErrInvalidSignature: the signature does not match the signing key
func (a *TokenAuthenticator) Verify(token string) (Principal, error) {
	var unverified tokenClaims
	parsed, _, err := a.parser.ParseUnverified(token, &unverified)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenUnverifiable) {
			return Principal{}, fmt.Errorf("verify token: %w", ErrUnsupportedFormat)
		}
		return Principal{}, fmt.Errorf("verify token: %w: %w", ErrMalformed, err)
	}
	if parsed.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return Principal{}, fmt.Errorf("verify token: alg %s: %w", parsed.Method.Alg(), ErrUnsupportedFormat)
	}
	if unverified.ExpiresAt == nil {
		return Principal{}, fmt.Errorf("verify token: missing exp: %w", ErrMalformed)
	}
	if !a.now().Before(unverified.ExpiresAt.Time) {
		return Principal{}, fmt.Errorf("verify token: %w", ErrExpired)
	}

	var claims tokenClaims
	_, err = a.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Principal{}, fmt.Errorf("verify token: %w", ErrInvalidSignature)
		case errors.Is(err, jwt.ErrTokenExpired):
			return Principal{}, fmt.Errorf("verify token: %w", ErrExpired)
		default:
			return Principal{}, fmt.Errorf("verify token: %w: %w", ErrMalformed, err)
		}
	}

	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("verify token: missing sub: %w", ErrMalformed)
	}

	return Principal{
		Subject:     claims.Subject,
		Authorities: splitAuthorities(claims.Auth),
	}, nil
}

func splitAuthorities(joined string) []string {
	var out []string
	for auth := range strings.SplitSeq(joined, ",") {
		if auth = strings.TrimSpace(auth); auth != "" {
			out = append(out, auth)
		}
	}
	return out
}
