package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearvat/clearvat/internal/auth"
	"github.com/clearvat/clearvat/internal/tenancy"
	_ "github.com/clearvat/clearvat/testing"
)

type stubVerifier struct {
	identity auth.Identity
	err      error
}

func (s *stubVerifier) Verify(ctx context.Context, raw string) (auth.Identity, error) {
	if s.err != nil {
		return auth.Identity{}, s.err
	}
	return s.identity, nil
}

type failureCounter struct {
	mu    sync.Mutex
	codes []string
}

func (c *failureCounter) RecordAuthFailure(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes = append(c.codes, code)
}

func memberIdentity() auth.Identity {
	return auth.Identity{
		ID:    "u-1",
		Email: "member@acme.test",
		Claims: map[string]any{
			"org_id": orgAlpha,
			"role":   string(tenancy.RoleTeamMember),
		},
	}
}

func guardedRequest(t *testing.T, pipeline *auth.Pipeline, meta auth.RouteMeta, header string) (*httptest.ResponseRecorder, *tenancy.Principal) {
	t.Helper()
	var seen *tenancy.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = tenancy.PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	res := httptest.NewRecorder()
	pipeline.Guard(meta)(next).ServeHTTP(res, req)
	return res, seen
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload.Error.Code
}

func TestGuardAttachesPrincipal(t *testing.T) {
	verifier := &stubVerifier{identity: memberIdentity()}
	pipeline := auth.NewPipeline(verifier, auth.NewResolver(&stubUserStore{}, nil), nil)

	res, principal := guardedRequest(t, pipeline, auth.Protected(), "Bearer good-token")

	require.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, principal)
	assert.Equal(t, orgAlpha, principal.OrgID)
	assert.Equal(t, "good-token", principal.AccessToken)
}

func TestGuardPublicRouteBypassesVerification(t *testing.T) {
	verifier := &stubVerifier{err: &auth.Error{Code: auth.CodeInvalidToken, Message: "should never run"}}
	pipeline := auth.NewPipeline(verifier, auth.NewResolver(&stubUserStore{}, nil), nil)

	res, principal := guardedRequest(t, pipeline, auth.Public(), "")

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Nil(t, principal)
}

func TestGuardMissingHeader(t *testing.T) {
	pipeline := auth.NewPipeline(&stubVerifier{}, auth.NewResolver(&stubUserStore{}, nil), nil)

	res, _ := guardedRequest(t, pipeline, auth.Protected(), "")

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, string(auth.CodeMissingToken), errorCode(t, res.Body.Bytes()))
}

func TestGuardNonBearerScheme(t *testing.T) {
	pipeline := auth.NewPipeline(&stubVerifier{}, auth.NewResolver(&stubUserStore{}, nil), nil)

	for _, header := range []string{"Token abc", "Basic dXNlcjpwYXNz", "Bearer", "Bearer   "} {
		res, _ := guardedRequest(t, pipeline, auth.Protected(), header)
		assert.Equalf(t, http.StatusUnauthorized, res.Code, "header %q", header)
		assert.Equalf(t, string(auth.CodeMissingToken), errorCode(t, res.Body.Bytes()), "header %q", header)
	}
}

func TestGuardBearerSchemeIsCaseInsensitive(t *testing.T) {
	verifier := &stubVerifier{identity: memberIdentity()}
	pipeline := auth.NewPipeline(verifier, auth.NewResolver(&stubUserStore{}, nil), nil)

	res, principal := guardedRequest(t, pipeline, auth.Protected(), "bearer good-token")

	assert.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, principal)
}

func TestGuardRoleEnforcement(t *testing.T) {
	verifier := &stubVerifier{identity: memberIdentity()}
	pipeline := auth.NewPipeline(verifier, auth.NewResolver(&stubUserStore{}, nil), nil)

	meta := auth.RequireRoles(tenancy.RoleSuperAdmin, tenancy.RoleTeamLead)
	res, _ := guardedRequest(t, pipeline, meta, "Bearer good-token")

	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, string(auth.CodeForbidden), errorCode(t, res.Body.Bytes()))
}

func TestGuardRoleAllowed(t *testing.T) {
	verifier := &stubVerifier{identity: memberIdentity()}
	pipeline := auth.NewPipeline(verifier, auth.NewResolver(&stubUserStore{}, nil), nil)

	meta := auth.RequireRoles(tenancy.RoleTeamMember)
	res, principal := guardedRequest(t, pipeline, meta, "Bearer good-token")

	assert.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, principal)
	assert.Equal(t, tenancy.RoleTeamMember, principal.Role)
}

func TestGuardProviderOutageMapsTo503(t *testing.T) {
	verifier := &stubVerifier{err: &auth.Error{Code: auth.CodeProviderUnavailable, Message: "provider down"}}
	pipeline := auth.NewPipeline(verifier, auth.NewResolver(&stubUserStore{}, nil), nil)

	res, _ := guardedRequest(t, pipeline, auth.Protected(), "Bearer any")

	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
	assert.Equal(t, string(auth.CodeProviderUnavailable), errorCode(t, res.Body.Bytes()))
}

func TestGuardRecordsFailures(t *testing.T) {
	counter := &failureCounter{}
	verifier := &stubVerifier{err: &auth.Error{Code: auth.CodeInvalidToken, Message: "bad"}}
	pipeline := auth.NewPipeline(verifier, auth.NewResolver(&stubUserStore{}, nil), nil).
		WithFailureRecorder(counter)

	guardedRequest(t, pipeline, auth.Protected(), "Bearer junk")
	guardedRequest(t, pipeline, auth.Protected(), "")

	assert.Equal(t, []string{
		string(auth.CodeInvalidToken),
		string(auth.CodeMissingToken),
	}, counter.codes)
}
