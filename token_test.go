package siack_test

import (
	"strings"
	"testing"
	"time"

	"github.com/dakgu/siack"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newAuthenticator(t *testing.T, secret string, ttl time.Duration) (*siack.TokenAuthenticator, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	a, err := siack.NewTokenAuthenticator(siack.TokenConfig{Secret: secret, TTL: ttl}, siack.WithClock(clock.Now))
	require.NoError(t, err)
	return a, clock
}

func TestNewTokenAuthenticator_ShortSecret(t *testing.T) {
	_, err := siack.NewTokenAuthenticator(siack.TokenConfig{Secret: "short"})
	assert.ErrorIs(t, err, siack.ErrInvalidInput)
}

func TestNewTokenAuthenticator_DefaultTTL(t *testing.T) {
	a, err := siack.NewTokenAuthenticator(siack.TokenConfig{Secret: testSecret})
	require.NoError(t, err)
	assert.Equal(t, siack.DefaultTokenTTL, a.TTL())
}

func TestTokenAuthenticator_RoundTrip(t *testing.T) {
	tests := []struct {
		name        string
		subject     string
		authorities []string
	}{
		{name: "single authority", subject: "alice", authorities: []string{"ROLE_USER"}},
		{name: "multiple authorities", subject: "bob", authorities: []string{"ROLE_USER", "ROLE_ADMIN"}},
		{name: "no authorities", subject: "carol", authorities: nil},
	}

	a, _ := newAuthenticator(t, testSecret, time.Hour)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := a.Issue(tt.subject, tt.authorities)
			require.NoError(t, err)

			p, err := a.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, tt.subject, p.Subject)
			assert.ElementsMatch(t, tt.authorities, p.Authorities)
		})
	}
}

func TestTokenAuthenticator_Issue_InvalidInput(t *testing.T) {
	a, _ := newAuthenticator(t, testSecret, time.Hour)

	_, err := a.Issue("", []string{"ROLE_USER"})
	assert.ErrorIs(t, err, siack.ErrInvalidInput)

	_, err = a.Issue("alice", []string{"ROLE_A,ROLE_B"})
	assert.ErrorIs(t, err, siack.ErrInvalidInput)
}

func TestTokenAuthenticator_Expired(t *testing.T) {
	a, clock := newAuthenticator(t, testSecret, 1000*time.Millisecond)

	token, err := a.Issue("alice", []string{"ROLE_USER"})
	require.NoError(t, err)

	clock.Advance(1001 * time.Millisecond)

	_, err = a.Verify(token)
	assert.ErrorIs(t, err, siack.ErrExpired)
}

func TestTokenAuthenticator_SubSecondIssueTime(t *testing.T) {
	tests := []struct {
		name  string
		issue time.Time
		ttl   time.Duration
	}{
		{name: "late in the second", issue: time.Date(2026, 3, 1, 12, 0, 0, 999_000_000, time.UTC), ttl: time.Second},
		{name: "sub-second ttl", issue: time.Date(2026, 3, 1, 12, 0, 0, 200_000_000, time.UTC), ttl: 500 * time.Millisecond},
		{name: "whole second", issue: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), ttl: 1500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{t: tt.issue}
			a, err := siack.NewTokenAuthenticator(siack.TokenConfig{Secret: testSecret, TTL: tt.ttl}, siack.WithClock(clock.Now))
			require.NoError(t, err)

			token, err := a.Issue("alice", []string{"ROLE_USER"})
			require.NoError(t, err)

			_, err = a.Verify(token)
			require.NoError(t, err, "fresh token")

			clock.Advance(2 * time.Millisecond)
			_, err = a.Verify(token)
			require.NoError(t, err, "2ms after issue")

			clock.t = tt.issue.Add(tt.ttl - time.Millisecond)
			_, err = a.Verify(token)
			require.NoError(t, err, "just before ttl")

			clock.t = tt.issue.Add(tt.ttl + time.Second)
			_, err = a.Verify(token)
			assert.ErrorIs(t, err, siack.ErrExpired)
		})
	}
}

func TestTokenAuthenticator_ExpiredWithForeignSignature(t *testing.T) {
	issuer, clock := newAuthenticator(t, "ffffffffffffffffffffffffffffffff", time.Second)
	verifier, err := siack.NewTokenAuthenticator(siack.TokenConfig{Secret: testSecret}, siack.WithClock(clock.Now))
	require.NoError(t, err)

	token, err := issuer.Issue("alice", []string{"ROLE_USER"})
	require.NoError(t, err)

	clock.Advance(2 * time.Second)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, siack.ErrExpired)
}

func TestTokenAuthenticator_ForeignKey(t *testing.T) {
	issuer, clock := newAuthenticator(t, "ffffffffffffffffffffffffffffffff", time.Hour)
	verifier, err := siack.NewTokenAuthenticator(siack.TokenConfig{Secret: testSecret}, siack.WithClock(clock.Now))
	require.NoError(t, err)

	token, err := issuer.Issue("alice", []string{"ROLE_USER"})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, siack.ErrInvalidSignature)
}

func TestTokenAuthenticator_TamperedPayload(t *testing.T) {
	a, _ := newAuthenticator(t, testSecret, time.Hour)
	other, err := a.Issue("mallory", []string{"ROLE_ADMIN"})
	require.NoError(t, err)
	token, err := a.Issue("alice", []string{"ROLE_USER"})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	forged := parts[0] + "." + otherParts[1] + "." + parts[2]

	_, err = a.Verify(forged)
	assert.ErrorIs(t, err, siack.ErrInvalidSignature)
}

func TestTokenAuthenticator_Malformed(t *testing.T) {
	a, _ := newAuthenticator(t, testSecret, time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-token"},
		{name: "two segments", token: "abc.def"},
		{name: "bad base64", token: "!!!.???.***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Verify(tt.token)
			assert.ErrorIs(t, err, siack.ErrMalformed)
		})
	}
}

func TestTokenAuthenticator_MissingSubject(t *testing.T) {
	a, clock := newAuthenticator(t, testSecret, time.Hour)

	claims := jwt.MapClaims{"exp": clock.Now().Add(time.Hour).Unix(), "auth": "ROLE_USER"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = a.Verify(token)
	assert.ErrorIs(t, err, siack.ErrMalformed)
}

func TestTokenAuthenticator_UnsupportedFormat(t *testing.T) {
	a, clock := newAuthenticator(t, testSecret, time.Hour)
	claims := jwt.MapClaims{"sub": "alice", "exp": clock.Now().Add(time.Hour).Unix()}

	t.Run("hs512", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = a.Verify(token)
		assert.ErrorIs(t, err, siack.ErrUnsupportedFormat)
	})

	t.Run("none", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = a.Verify(token)
		assert.ErrorIs(t, err, siack.ErrUnsupportedFormat)
	})

	t.Run("unknown alg", func(t *testing.T) {
		// {"alg":"XY99","typ":"JWT"}
		token := "eyJhbGciOiJYWTk5IiwidHlwIjoiSldUIn0.eyJzdWIiOiJhbGljZSJ9.c2ln"

		_, err := a.Verify(token)
		assert.ErrorIs(t, err, siack.ErrUnsupportedFormat)
	})
}
