package http_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/accounts/internal/accounts/activation"
	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/events"
	httpapi "github.com/aussiebroadwan/accounts/internal/accounts/http"
	"github.com/aussiebroadwan/accounts/internal/accounts/rolecache"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/idx"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

const (
	testIssuer   = "bartab-auth"
	testAudience = "accounts"
	testKid      = "test-key"
)

type testEnv struct {
	router   *httpapi.Router
	store    *sqlite.Store
	deletion *service.DeletionService
	runtimes *activation.Manager
	priv     ed25519.PrivateKey
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "accounts.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	keys := jwtx.NewKeySet()
	keys.Add(testKid, pub)

	reg := prometheus.NewRegistry()
	metrics, err := events.NewMetrics(reg)
	require.NoError(t, err)

	cache := rolecache.NewMemory(st.Roles().GetRole, time.Minute)
	runtimes := activation.NewManager()
	deletion := &service.DeletionService{
		Store:      st,
		Activation: runtimes,
		Notifier:   &events.Fanout{Sinks: []service.Notifier{events.LogSink{}, metrics}, Failures: metrics},
	}
	t.Cleanup(deletion.Wait)

	r := httpapi.NewRouter(keys, jwtx.NewVerifierEdDSA(keys, testIssuer, []string{testAudience}), "test", st, slogx.Discard())
	r.UserService = &service.UserService{Store: st, Cache: cache}
	r.RolesService = &service.RolesService{Store: st, Cache: cache}
	r.DeletionService = deletion
	r.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	r.Workflows = runtimes
	r.ApplyRoutes()

	return &testEnv{router: r, store: st, deletion: deletion, runtimes: runtimes, priv: priv}
}

func (e *testEnv) user(t *testing.T, role domain.RoleRef) domain.User {
	t.Helper()
	ctx := context.Background()

	id := idx.New().String()
	require.NoError(t, e.store.Users().CreateUser(ctx, domain.User{
		ID:        id,
		Email:     strings.ToLower(id) + "@example.com",
		FirstName: "Test",
		Role:      domain.Role{ID: role.ID()},
	}))
	u, err := e.store.Users().GetUserByID(ctx, id)
	require.NoError(t, err)
	return u
}

func (e *testEnv) token(t *testing.T, sub string, scopes ...string) string {
	t.Helper()
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    testIssuer,
			Audience:  []string{testAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		},
		Scopes: scopes,
	})
	tok.Header["kid"] = testKid
	s, err := tok.SignedString(e.priv)
	require.NoError(t, err)
	return s
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httpx.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(t, domain.GlobalAdmin)
	member := env.user(t, domain.GlobalMember)

	t.Run("missing token", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/v1/users/"+member.ID, "", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("missing scope", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/v1/users/"+member.ID, env.token(t, admin.ID, "users:read"), "")
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "insufficient_scope", errorCode(t, rec))
	})

	t.Run("unknown subject", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/v1/users/"+member.ID, env.token(t, "ghost", "users:write"), "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(t, domain.GlobalAdmin)
	tok := env.token(t, admin.ID, "users:write")

	t.Run("self deletion", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/v1/users/"+admin.ID, tok, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "self_deletion_forbidden", errorCode(t, rec))
	})

	t.Run("transferee equals target", func(t *testing.T) {
		member := env.user(t, domain.GlobalMember)
		rec := env.do(t, http.MethodDelete, "/v1/users/"+member.ID+"?transferId="+member.ID, tok, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "invalid_transferee", errorCode(t, rec))
	})

	t.Run("unknown target", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/v1/users/missing", tok, "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "user_not_found", errorCode(t, rec))
	})

	t.Run("transfer", func(t *testing.T) {
		ctx := context.Background()
		member := env.user(t, domain.GlobalMember)
		require.NoError(t, env.store.Workflows().CreateWorkflow(ctx, domain.Workflow{ID: "wf-1", Name: "wf-1"}))
		require.NoError(t, env.store.Ownership().CreateLink(ctx, domain.OwnershipLink{
			Kind: domain.KindWorkflow, ResourceID: "wf-1", UserID: member.ID, RoleID: domain.WorkflowOwner.ID(),
		}))

		rec := env.do(t, http.MethodDelete, "/v1/users/"+member.ID+"?transferId="+admin.ID, tok, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"success":true}`, rec.Body.String())

		links, err := env.store.Ownership().ListLinks(ctx, domain.KindWorkflow, admin.ID, domain.WorkflowOwner.ID())
		require.NoError(t, err)
		require.Len(t, links, 1)
		require.Equal(t, "wf-1", links[0].ResourceID)

		rec = env.do(t, http.MethodGet, "/v1/users/"+member.ID, env.token(t, admin.ID, "users:read"), "")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestChangeRole(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(t, domain.GlobalAdmin)
	member := env.user(t, domain.GlobalMember)
	tok := env.token(t, admin.ID, "users:write")
	path := "/v1/users/" + member.ID + "/role"

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"invalid json", `{"newRoleName":`, http.StatusBadRequest, "malformed_field"},
		{"empty body", ``, http.StatusBadRequest, "missing_field"},
		{"missing role", `{}`, http.StatusBadRequest, "missing_field"},
		{"missing scope", `{"newRoleName":{"name":"admin"}}`, http.StatusBadRequest, "malformed_field"},
		{"owner promotion", `{"newRoleName":{"scope":"global","name":"owner"}}`, http.StatusForbidden, "insufficient_privilege"},
		{"unknown role", `{"newRoleName":{"scope":"global","name":"root"}}`, http.StatusBadRequest, "malformed_field"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPatch, path, tok, tc.body)
			require.Equal(t, tc.wantCode, rec.Code)
			require.Equal(t, tc.wantErr, errorCode(t, rec))
		})
	}

	t.Run("member sending invalid json is refused for privilege", func(t *testing.T) {
		caller := env.user(t, domain.GlobalMember)
		target := env.user(t, domain.GlobalMember)
		rec := env.do(t, http.MethodPatch, "/v1/users/"+target.ID+"/role",
			env.token(t, caller.ID, "users:write"), `{"newRoleName":`)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "insufficient_privilege", errorCode(t, rec))
	})

	t.Run("member cannot change roles but passes authn", func(t *testing.T) {
		caller := env.user(t, domain.GlobalMember)
		target := env.user(t, domain.GlobalMember)
		rec := env.do(t, http.MethodPatch, "/v1/users/"+target.ID+"/role",
			env.token(t, caller.ID, "users:write"),
			`{"newRoleName":{"scope":"global","name":"admin"}}`)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "insufficient_privilege", errorCode(t, rec))
	})

	t.Run("promote to admin", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, path, tok, `{"newRoleName":{"scope":"global","name":"admin"}}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodGet, "/v1/users/"+member.ID, env.token(t, admin.ID, "users:read"), "")
		require.Equal(t, http.StatusOK, rec.Code)

		var got domain.PublicUser
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, domain.GlobalAdmin, got.Role)
		require.Equal(t, member.Email, got.Email)
	})
}

func TestListRoles(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(t, domain.GlobalAdmin)

	rec := env.do(t, http.MethodGet, "/v1/roles", env.token(t, admin.ID, "users:read"), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body httpapi.ListRolesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Roles, len(domain.DefaultRoleCatalog()))
}

func TestSystemEndpoints(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(t, domain.GlobalAdmin)
	member := env.user(t, domain.GlobalMember)

	rec := env.do(t, http.MethodGet, "/livez", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/readyz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var health httpapi.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "test", health.Version)
	require.NotNil(t, health.ActiveWorkflows)
	require.Zero(t, *health.ActiveWorkflows)

	rec = env.do(t, http.MethodDelete, "/v1/users/"+member.ID, env.token(t, admin.ID, "users:write"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	env.deletion.Wait()

	rec = env.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `accounts_user_deletions_total{prior_status="active",strategy="delete_data"} 1`)
}

func TestReadyzDegradedWithoutKeys(t *testing.T) {
	env := newTestEnv(t)

	r := httpapi.NewRouter(jwtx.NewKeySet(), nil, "test", env.store, slogx.Discard())
	r.ApplyRoutes()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadyzReportsActiveWorkflows(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.user(t, domain.GlobalAdmin)
	member := env.user(t, domain.GlobalMember)

	require.NoError(t, env.store.Workflows().CreateWorkflow(ctx, domain.Workflow{ID: "wf-live", Name: "live", Active: true}))
	require.NoError(t, env.store.Ownership().CreateLink(ctx, domain.OwnershipLink{
		Kind: domain.KindWorkflow, ResourceID: "wf-live", UserID: member.ID, RoleID: domain.WorkflowOwner.ID(),
	}))
	require.NoError(t, env.runtimes.Load(ctx, env.store.Workflows()))

	readyz := func() int {
		rec := env.do(t, http.MethodGet, "/readyz", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var health httpapi.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
		require.NotNil(t, health.ActiveWorkflows)
		return *health.ActiveWorkflows
	}
	require.Equal(t, 1, readyz())

	// Deleting the owner without a transferee stops the workflow runtime.
	rec := env.do(t, http.MethodDelete, "/v1/users/"+member.ID, env.token(t, admin.ID, "users:write"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	env.deletion.Wait()

	require.Zero(t, readyz())
}

func TestReadyzOmitsWorkflowsWhenUnset(t *testing.T) {
	env := newTestEnv(t)

	r := httpapi.NewRouter(jwtx.NewKeySet(), nil, "test", env.store, slogx.Discard())
	r.ApplyRoutes()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.NotContains(t, rec.Body.String(), "activeWorkflows")
}
