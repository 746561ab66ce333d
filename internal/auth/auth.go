// Package auth validates bearer tokens issued by the portal's login flow and
// exposes the resulting principal to request handlers.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Config struct {
	JWTSecret string        `env:"JWT_SECRET"`
	Issuer    string        `env:"ISSUER,default=excentrica"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,default=24h"`
}

// Roles known to the portal
const (
	RoleAdmin      = "admin"
	RoleEditor     = "editor"
	RolePublicista = "publicista"
	RoleUser       = "user"
)

// Principal is the authenticated caller of a request
type Principal struct {
	UserID int64
	Role   string
}

// IsStaff reports whether the principal may use admin endpoints
func (p Principal) IsStaff() bool {
	switch p.Role {
	case RoleAdmin, RoleEditor, RolePublicista:
		return true
	}
	return false
}

type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewAuthenticator(cfg Config) *Authenticator {
	return &Authenticator{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
	}
}

// Issue signs a token for the given principal. Used by the smoke validator and tests.
func (a *Authenticator) Issue(p Principal) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: p.UserID,
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse validates the token signature and expiry
func (a *Authenticator) Parse(tokenString string) (Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(a.issuer))
	if err != nil {
		return Principal{}, fmt.Errorf("invalid token: %w", err)
	}
	if claims.UserID <= 0 {
		return Principal{}, fmt.Errorf("invalid token: missing user_id")
	}
	return Principal{UserID: claims.UserID, Role: claims.Role}, nil
}

type principalKey struct{}

func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
