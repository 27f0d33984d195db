package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearvat/clearvat/internal/auth"
	"github.com/clearvat/clearvat/internal/tenancy"
	_ "github.com/clearvat/clearvat/testing"
)

func newRevocationList(t *testing.T) (*auth.RedisRevocationList, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return auth.NewRedisRevocationList(client), mr
}

func TestLocalVerifierRoundTrip(t *testing.T) {
	verifier := auth.NewLocalVerifier("secret", time.Hour, nil)

	raw, expiresAt, err := verifier.Issue("u-1", "lead@acme.test", "9f0d3c5e-0000-4000-8000-000000000001", tenancy.RoleTeamLead)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	identity, err := verifier.Verify(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "u-1", identity.ID)
	assert.Equal(t, "lead@acme.test", identity.Email)
	assert.NotEmpty(t, identity.TokenID)
	assert.Equal(t, "9f0d3c5e-0000-4000-8000-000000000001", identity.OrgHint())
	assert.Equal(t, string(tenancy.RoleTeamLead), identity.RoleHint())
}

func TestLocalVerifierRejectsWrongSecret(t *testing.T) {
	issuer := auth.NewLocalVerifier("secret-a", time.Hour, nil)
	verifier := auth.NewLocalVerifier("secret-b", time.Hour, nil)

	raw, _, err := issuer.Issue("u-1", "user@acme.test", "", tenancy.RoleClient)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), raw)
	var authErr *auth.Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, auth.CodeInvalidToken, authErr.Code)
}

func TestLocalVerifierRejectsUnsignedToken(t *testing.T) {
	verifier := auth.NewLocalVerifier("secret", time.Hour, nil)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u-1"})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), raw)
	var authErr *auth.Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, auth.CodeInvalidToken, authErr.Code)
}

func TestLocalVerifierRejectsExpiredToken(t *testing.T) {
	verifier := auth.NewLocalVerifier("secret", -time.Minute, nil)

	raw, _, err := verifier.Issue("u-1", "user@acme.test", "", tenancy.RoleClient)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), raw)
	var authErr *auth.Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, auth.CodeInvalidToken, authErr.Code)
}

func TestLocalVerifierRevocation(t *testing.T) {
	revoked, _ := newRevocationList(t)
	verifier := auth.NewLocalVerifier("secret", time.Hour, revoked)

	raw, _, err := verifier.Issue("u-1", "user@acme.test", "", tenancy.RoleClient)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), raw)
	require.NoError(t, err)

	require.NoError(t, verifier.Revoke(context.Background(), raw))

	_, err = verifier.Verify(context.Background(), raw)
	var authErr *auth.Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, auth.CodeInvalidToken, authErr.Code)
}

func TestLocalVerifierRevocationExpires(t *testing.T) {
	revoked, mr := newRevocationList(t)
	verifier := auth.NewLocalVerifier("secret", time.Hour, revoked)

	raw, _, err := verifier.Issue("u-1", "user@acme.test", "", tenancy.RoleClient)
	require.NoError(t, err)

	identity, err := verifier.Verify(context.Background(), raw)
	require.NoError(t, err)
	require.NoError(t, verifier.Revoke(context.Background(), raw))

	gone, err := revoked.IsRevoked(context.Background(), identity.TokenID)
	require.NoError(t, err)
	assert.True(t, gone)

	// Past the token's lifetime the denylist entry is gone; the token
	// itself has expired anyway.
	mr.FastForward(2 * time.Hour)

	gone, err = revoked.IsRevoked(context.Background(), identity.TokenID)
	require.NoError(t, err)
	assert.False(t, gone)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	verifier := auth.NewLocalVerifier("secret", time.Hour, nil)

	refresh, err := verifier.IssueRefresh("u-1")
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), refresh)
	var authErr *auth.Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, auth.CodeInvalidToken, authErr.Code)

	subject, err := verifier.VerifyRefresh(context.Background(), refresh)
	require.NoError(t, err)
	assert.Equal(t, "u-1", subject)
}

func TestVerifyRefreshRejectsAccessToken(t *testing.T) {
	verifier := auth.NewLocalVerifier("secret", time.Hour, nil)

	raw, _, err := verifier.Issue("u-1", "user@acme.test", "", tenancy.RoleClient)
	require.NoError(t, err)

	_, err = verifier.VerifyRefresh(context.Background(), raw)
	var authErr *auth.Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, auth.CodeInvalidToken, authErr.Code)
}

func TestVerifierChainAcceptsEitherIssuer(t *testing.T) {
	local := auth.NewLocalVerifier("secret", time.Hour, nil)
	providerSrv, providerToken := providerWithIdentity(t)
	provider := auth.NewProviderVerifier(providerSrv.URL, "anon-key", time.Second)

	chain := auth.NewVerifierChain(local, provider)

	selfIssued, _, err := local.Issue("u-1", "lead@acme.test", "", tenancy.RoleTeamLead)
	require.NoError(t, err)
	identity, err := chain.Verify(context.Background(), selfIssued)
	require.NoError(t, err)
	assert.Equal(t, "u-1", identity.ID)

	identity, err = chain.Verify(context.Background(), providerToken)
	require.NoError(t, err)
	assert.NotEmpty(t, identity.ID)
}

func TestVerifierChainRejectsGarbage(t *testing.T) {
	local := auth.NewLocalVerifier("secret", time.Hour, nil)
	providerSrv, _ := providerWithIdentity(t)
	chain := auth.NewVerifierChain(local, auth.NewProviderVerifier(providerSrv.URL, "anon-key", time.Second))

	_, err := chain.Verify(context.Background(), "not-a-token")
	var authErr *auth.Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, auth.CodeInvalidToken, authErr.Code)
}

func TestVerifierChainSurfacesProviderOutage(t *testing.T) {
	local := auth.NewLocalVerifier("secret", time.Hour, nil)
	down := auth.NewProviderVerifier("http://127.0.0.1:1", "anon-key", 200*time.Millisecond)
	chain := auth.NewVerifierChain(local, down)

	_, err := chain.Verify(context.Background(), "someone-elses-token")
	var authErr *auth.Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, auth.CodeProviderUnavailable, authErr.Code)
}

func TestLocalVerifierRevocationStoreDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	verifier := auth.NewLocalVerifier("secret", time.Hour, auth.NewRedisRevocationList(client))

	raw, _, err := verifier.Issue("u-1", "user@acme.test", "", tenancy.RoleClient)
	require.NoError(t, err)

	mr.Close()

	_, err = verifier.Verify(context.Background(), raw)
	var authErr *auth.Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, auth.CodeProviderUnavailable, authErr.Code)
	assert.True(t, errors.Is(err, authErr.Err) || authErr.Err != nil)
}
