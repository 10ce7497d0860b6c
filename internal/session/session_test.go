package session_test

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sunflower_web/internal/session"
)

func TestBind_IsolatesSessionIDs(t *testing.T) {
	ctx := context.Background()
	repo := session.NewMemoryRepository()
	a := session.Bind(repo, "a")
	b := session.Bind(repo, "b")

	require.NoError(t, a.Set(ctx, session.Session{Token: "tok-a", Role: session.RoleClient}))

	got, err := b.Get(ctx)
	require.NoError(t, err)
	assert.False(t, got.LoggedIn())

	got, err = a.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-a", got.Token)

	require.NoError(t, a.Clear(ctx))
	got, err = a.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.Session{}, got)
}

func TestParseRole(t *testing.T) {
	for in, ok := range map[string]bool{"client": true, "employee": true, "admin": false, "": false, "Client": false} {
		_, got := session.ParseRole(in)
		assert.Equal(t, ok, got, in)
	}
}

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-the-server-secret"))
	require.NoError(t, err)
	return tok
}

func TestDecodeClaims_IgnoresSignature(t *testing.T) {
	tok := sign(t, jwt.MapClaims{"userId": 12, "employeeId": 34, "role": "employee"})

	c, err := session.DecodeClaims(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(34), c.IDFor(session.RoleEmployee))
	assert.Equal(t, int64(12), c.IDFor(session.RoleClient))
	assert.Equal(t, "employee", c.Role)
}

func TestDecodeClaims_FallsBackToUserID(t *testing.T) {
	c, err := session.DecodeClaims(sign(t, jwt.MapClaims{"userId": 7, "role": "client"}))
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.IDFor(session.RoleClient))
	assert.Equal(t, int64(7), c.IDFor(session.RoleEmployee))
	assert.Zero(t, c.IDFor(session.Role("guest")))
}

func TestDecodeClaims_Malformed(t *testing.T) {
	_, err := session.DecodeClaims("not-a-jwt")
	assert.Error(t, err)
}
