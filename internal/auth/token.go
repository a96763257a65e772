package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenTTL is the fixed lifetime of a bearer token.
const AccessTokenTTL = 30 * time.Minute

// minSecretLength is the minimum HS256 signing secret length in bytes.
const minSecretLength = 32

// ErrWeakSecret is returned when the signing secret is too short.
var ErrWeakSecret = errors.New("auth: jwt secret must be at least 32 bytes")

// TokenService issues and validates HS256 bearer tokens. Tokens carry the
// username as subject and expire AccessTokenTTL after issuance.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a token service signing with secret.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, ErrWeakSecret
	}
	return &TokenService{secret: []byte(secret), ttl: AccessTokenTTL}, nil
}

// TTL returns the token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for subject valid from now until now+TTL.
func (s *TokenService) Issue(subject string, now time.Time) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrTokenInvalid)
	}

	claims := accessClaims{
		Subject:   subject,
		IssuedAt:  formatNumericDate(now),
		ExpiresAt: formatNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, algorithm and expiry as of now and returns the
// subject. Every failure wraps ErrTokenInvalid.
//
// Expiry keeps nanosecond precision: a token is accepted while now is
// strictly before exp.
func (s *TokenService) Validate(tokenString string, now time.Time) (string, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return "", ErrTokenInvalid
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims.Subject, nil
}

// accessClaims is the token payload. exp and iat are written as exact
// decimal NumericDates, so fractional seconds survive the round trip
// without touching jwt.TimePrecision.
type accessClaims struct {
	Subject   string      `json:"sub,omitempty"`
	IssuedAt  json.Number `json:"iat,omitempty"`
	ExpiresAt json.Number `json:"exp,omitempty"`
}

func (c *accessClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return parseNumericDate(c.ExpiresAt)
}

func (c *accessClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return parseNumericDate(c.IssuedAt)
}

func (c *accessClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil } //nolint:nilnil // claim not issued
func (c *accessClaims) GetIssuer() (string, error)              { return "", nil }
func (c *accessClaims) GetSubject() (string, error)             { return c.Subject, nil }
func (c *accessClaims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

// formatNumericDate renders t as seconds since the epoch, with a nine-digit
// fraction when t is not on a whole second.
func formatNumericDate(t time.Time) json.Number {
	if t.Nanosecond() == 0 {
		return json.Number(strconv.FormatInt(t.Unix(), 10))
	}
	return json.Number(fmt.Sprintf("%d.%09d", t.Unix(), t.Nanosecond()))
}

// parseNumericDate reads a decimal NumericDate exactly. Digits past the
// nanosecond are dropped. The result is built without jwt.NewNumericDate,
// which would truncate to jwt.TimePrecision.
func parseNumericDate(n json.Number) (*jwt.NumericDate, error) {
	if n == "" {
		return nil, nil //nolint:nilnil // absent claim
	}
	whole, frac, _ := strings.Cut(string(n), ".")
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || sec < 0 {
		return nil, fmt.Errorf("%w: malformed numeric date %q", jwt.ErrInvalidType, n)
	}
	var nsec int64
	if frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		frac += strings.Repeat("0", 9-len(frac))
		if nsec, err = strconv.ParseInt(frac, 10, 64); err != nil || nsec < 0 {
			return nil, fmt.Errorf("%w: malformed numeric date %q", jwt.ErrInvalidType, n)
		}
	}
	return &jwt.NumericDate{Time: time.Unix(sec, nsec)}, nil
}
