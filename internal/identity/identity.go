// Package identity resolves who is acting on an order: an actor id, a display name and,
// for workshop staff, the sector their station is bound to.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Actor is the identity context of a session. Read-only to the rest of the system.
type Actor struct {
	ID     string
	Name   string
	Sector string
}

// Bound reports whether the actor works at a specific sector. Management roles are not.
func (a Actor) Bound() bool {
	return a.Sector != ""
}

// Claims is the token payload. The subject carries the actor id.
type Claims struct {
	Name   string `json:"name"`
	Sector string `json:"sector,omitempty"`
	jwt.RegisteredClaims
}

// Verifier issues and validates HS256 bearer tokens.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue signs a token for the actor valid for ttl.
func (v *Verifier) Issue(a Actor, ttl time.Duration) (string, error) {
	now := v.now()

	claims := Claims{
		Name:   a.Name,
		Sector: a.Sector,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}

// Parse validates the token and returns the actor it names.
func (v *Verifier) Parse(raw string) (Actor, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	if claims.Subject == "" {
		return Actor{}, fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}

	return Actor{ID: claims.Subject, Name: claims.Name, Sector: claims.Sector}, nil
}

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the actor stored by the middleware.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}
