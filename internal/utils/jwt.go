// Package utils holds the token and password primitives used by the auth
// service.
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Numeric dates carry sub-second fractions. They are decoded through float64,
// so parsed values are rounded back to the millisecond iat was signed with.
func init() { jwt.TimePrecision = time.Microsecond }

// AccessToken is a signed HS256 JWT and the instants it was issued and
// expires at.
type AccessToken struct {
	Token    string
	IssuedAt time.Time
	Exp      time.Time
}

// NewAccessToken signs a token whose subject is the account id. iat is
// truncated to milliseconds, the resolution of the claim.
func NewAccessToken(secret, accountID string, issuedAt time.Time, ttl time.Duration) (AccessToken, error) {
	if secret == "" {
		return AccessToken{}, errors.New("jwt: empty signing secret")
	}
	iat := issuedAt.UTC().Truncate(time.Millisecond)
	exp := iat.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, IssuedAt: iat, Exp: exp}, nil
}

// ParseAccessToken verifies signature, algorithm, expiry and iat against
// now and returns the registered claims.
func ParseAccessToken(secret, raw string, now func() time.Time) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	p := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(now),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	tok, err := p.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, errors.New("jwt: incomplete claims")
	}
	claims.IssuedAt = jwt.NewNumericDate(claims.IssuedAt.Round(time.Millisecond))
	return claims, nil
}
