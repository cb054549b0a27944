// Package auth verifies identity tokens of signed-in learners.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/victornm/techbridge/internal/domain"
)

// Verifier checks an identity token and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}

type claims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

func (c *claims) identity() (*domain.Identity, error) {
	if c.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return &domain.Identity{
		Subject: c.Subject,
		Name:    c.Name,
		Email:   c.Email,
		Picture: c.Picture,
	}, nil
}

// verify checks iss and aud when they are configured.
func (c *claims) verify(issuer, audience string) error {
	if issuer != "" && !c.VerifyIssuer(issuer, true) {
		return fmt.Errorf("unexpected issuer %q", c.Issuer)
	}
	if audience != "" && !c.VerifyAudience(audience, true) {
		return fmt.Errorf("unexpected audience %v", c.Audience)
	}
	return nil
}

// HMACVerifier accepts HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

type HMACConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

func NewHMACVerifier(c HMACConfig) *HMACVerifier {
	return &HMACVerifier{
		secret:   []byte(c.Secret),
		issuer:   c.Issuer,
		audience: c.Audience,
	}
}

func (v *HMACVerifier) Verify(_ context.Context, token string) (*domain.Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	if err := c.verify(v.issuer, v.audience); err != nil {
		return nil, err
	}

	return c.identity()
}

// Sign issues a token for the identity. It is meant for local development and tests.
func (v *HMACVerifier) Sign(id domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Name:    id.Name,
		Email:   id.Email,
		Picture: id.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		c.Audience = jwt.ClaimStrings{v.audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, &c).SignedString(v.secret)
}
