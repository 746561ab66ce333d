package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator() *Authenticator {
	return NewAuthenticator(Config{JWTSecret: "test-secret", Issuer: "excentrica", TokenTTL: time.Hour})
}

func TestIssueAndParse(t *testing.T) {
	a := newTestAuthenticator()

	token, err := a.Issue(Principal{UserID: 42, Role: RoleEditor})
	require.NoError(t, err)

	p, err := a.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.UserID)
	assert.Equal(t, RoleEditor, p.Role)
	assert.True(t, p.IsStaff())
}

func TestParse_Rejects(t *testing.T) {
	a := newTestAuthenticator()
	other := NewAuthenticator(Config{JWTSecret: "other", Issuer: "excentrica", TokenTTL: time.Hour})
	expired := NewAuthenticator(Config{JWTSecret: "test-secret", Issuer: "excentrica", TokenTTL: -time.Minute})

	foreign, err := other.Issue(Principal{UserID: 1, Role: RoleAdmin})
	require.NoError(t, err)
	stale, err := expired.Issue(Principal{UserID: 1, Role: RoleAdmin})
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      stale,
	} {
		_, err := a.Parse(token)
		assert.Error(t, err, name)
	}
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	ctx := ContextWithPrincipal(context.Background(), Principal{UserID: 7, Role: RoleUser})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(7), p.UserID)
	assert.False(t, p.IsStaff())
}
