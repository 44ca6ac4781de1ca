// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dilux/backupd/internal/audit"
	"github.com/dilux/backupd/internal/auth"
	"github.com/dilux/backupd/internal/blobstore"
	"github.com/dilux/backupd/internal/catalog"
	"github.com/dilux/backupd/internal/config"
	"github.com/dilux/backupd/internal/domain"
	"github.com/dilux/backupd/internal/history"
	"github.com/dilux/backupd/internal/pipeline"
	"github.com/dilux/backupd/internal/secrets"
)

type testEnv struct {
	srv     *Server
	catalog *catalog.Store
	jwt     *auth.JWTManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	cat, err := catalog.Open(ctx, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })
	require.NoError(t, cat.SeedSystemPolicies(ctx))

	hist := history.New(cat.DB())
	blobs, err := blobstore.New(t.TempDir())
	require.NoError(t, err)

	secCfg := config.SecurityConfig{
		JWTSecret:                       "test-secret-test-secret-test-secret",
		SessionTimeout:                  time.Hour,
		RateLimitReqs:                   1000,
		RateLimitWindow:                 time.Minute,
		DevelopmentModePlaintextSecrets: true,
	}
	resolver, err := secrets.NewResolverFromConfig(&secCfg)
	require.NoError(t, err)

	pipe := pipeline.New(config.PipelineConfig{}, resolver, blobs)
	auditor := audit.New(cat)
	jwtMgr, err := auth.NewJWTManager(&secCfg)
	require.NoError(t, err)

	cfg := config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: time.Second,
		},
		API: config.APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Security: secCfg,
	}

	srv := New(cfg, Deps{
		Catalog:  cat,
		History:  hist,
		Blobs:    blobs,
		Pipeline: pipe,
		Secrets:  resolver,
		Auditor:  auditor,
		JWT:      jwtMgr,
	})

	return &testEnv{srv: srv, catalog: cat, jwt: jwtMgr}
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedAdmin(t *testing.T) (id, username, password string) {
	t.Helper()
	hash, err := auth.HashPassword("correct-horse-battery")
	require.NoError(t, err)
	u := &domain.User{
		ID:           "admin-1",
		Username:     "admin",
		Role:         domain.RoleAdmin,
		PasswordHash: hash,
		Enabled:      true,
		CreatedAt:    domain.Now(),
	}
	require.NoError(t, e.catalog.PutUser(context.Background(), u))
	return u.ID, u.Username, "correct-horse-battery"
}

func TestHealthzReadyz(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSON(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_SuccessAndFailure(t *testing.T) {
	env := newTestEnv(t)
	_, username, password := env.seedAdmin(t)

	rec := env.doJSON(t, http.MethodPost, "/auth/login", "", loginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data)

	rec = env.doJSON(t, http.MethodPost, "/auth/login", "", loginRequest{Username: username, Password: "wrong"})
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestProtectedRoute_RequiresBearerToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodGet, "/databases", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsersRoute_RequiresAdminRole(t *testing.T) {
	env := newTestEnv(t)
	_, username, password := env.seedAdmin(t)

	loginRec := env.doJSON(t, http.MethodPost, "/auth/login", "", loginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, loginRec.Code)
	var loginResp envelope
	require.NoError(t, json.Unmarshal(loginRec.Body.Bytes(), &loginResp))
	data := loginResp.Data.(map[string]interface{})
	token := data["token"].(string)

	rec := env.doJSON(t, http.MethodGet, "/users", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	viewerToken, err := env.jwt.GenerateToken("viewer-1", "viewer", string(domain.RoleViewer))
	require.NoError(t, err)
	rec = env.doJSON(t, http.MethodGet, "/users", viewerToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDatabaseLifecycle(t *testing.T) {
	env := newTestEnv(t)
	_, _, password := env.seedAdmin(t)
	_ = password

	token, err := env.jwt.GenerateToken("admin-1", "admin", string(domain.RoleAdmin))
	require.NoError(t, err)

	engine := &domain.Engine{
		ID:         "engine-1",
		Name:       "primary-mysql",
		EngineType: domain.EngineMySQL,
		Host:       "localhost",
		Port:       3306,
		AuthMethod: domain.AuthUserPassword,
		Username:   "root",
		Password:   "secret",
		CreatedAt:  domain.Now(),
		UpdatedAt:  domain.Now(),
	}
	require.NoError(t, env.catalog.PutEngine(context.Background(), engine))

	createRec := env.doJSON(t, http.MethodPost, "/databases", token, databaseRequest{
		Name:         "orders-db",
		EngineID:     engine.ID,
		DatabaseName: "orders",
		DatabaseType: "mysql",
		Host:         "localhost",
		Port:         3306,
		Username:     "root",
		Enabled:      true,
	})
	require.Equal(t, http.StatusCreated, createRec.Code)

	listRec := env.doJSON(t, http.MethodGet, "/databases", token, nil)
	require.Equal(t, http.StatusOK, listRec.Code)
	var listResp envelope
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &listResp))
	items := listResp.Data.([]interface{})
	require.Len(t, items, 1)
}

func TestCreateDatabase_RejectsPlaintextPasswordOutsideDevMode(t *testing.T) {
	env := newTestEnv(t)
	settings, err := env.catalog.GetSettings(context.Background())
	require.NoError(t, err)
	settings.DevelopmentModePlaintextSecrets = false
	require.NoError(t, env.catalog.PutSettings(context.Background(), settings))

	token, err := env.jwt.GenerateToken("admin-1", "admin", string(domain.RoleAdmin))
	require.NoError(t, err)

	rec := env.doJSON(t, http.MethodPost, "/databases", token, databaseRequest{
		Name:         "orders-db",
		EngineID:     "engine-1",
		DatabaseName: "orders",
		DatabaseType: "mysql",
		Password:     "literal-password",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
