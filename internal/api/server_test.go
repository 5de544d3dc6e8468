// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/userdir/internal/api"
	"github.com/taibuivan/userdir/internal/platform/config"
	"github.com/taibuivan/userdir/internal/platform/metrics"
	"github.com/taibuivan/userdir/internal/platform/sec"
	"github.com/taibuivan/userdir/internal/users/account"
)

func newTestServer(t *testing.T, deps api.HealthDependencies) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := account.NewService(account.NewMemoryRepository(), sec.NewHasher(bcrypt.MinCost), logger)
	liveness, readiness := api.NewHealthHandlers(deps, logger)

	server := api.NewServer(ctx, &config.Config{ServerPort: "0"}, logger, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Users:     account.NewHandler(service),
	})
	return server.Handler()
}

func do(t *testing.T, handler http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(method, target, strings.NewReader(body)))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded), recorder.Body.String())
	return recorder, decoded
}

func TestServer_RouteNotFound(t *testing.T) {
	handler := newTestServer(t, api.HealthDependencies{})

	recorder, body := do(t, handler, http.MethodGet, "/api/v1/nothing-here", "")

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Route not found", body["message"])
	assert.Equal(t, "GET", body["method"])
	assert.Equal(t, "/api/v1/nothing-here", body["resource"])
}

func TestServer_UsersMounted(t *testing.T) {
	handler := newTestServer(t, api.HealthDependencies{})

	recorder, body := do(t, handler, http.MethodPost, "/api/v1/users", `{
		"username": "ada", "email": "ada@example.com", "password": "correct-horse",
		"dateOfBirth": "1990-04-12", "city": "Lagos", "occupation": "Engineer"
	}`)
	require.Equal(t, http.StatusCreated, recorder.Code, body)

	recorder, body = do(t, handler, http.MethodGet, "/api/v1/users?limit=1", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "Users fetched successfully", body["message"])

	assert.NotEmpty(t, recorder.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", recorder.Header().Get("X-Content-Type-Options"))
}

func TestServer_Health(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		handler := newTestServer(t, api.HealthDependencies{
			CheckDatabase: func(context.Context) error { return nil },
			CheckCache:    func(context.Context) error { return nil },
		})

		recorder, _ := do(t, handler, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, recorder.Code)

		recorder, body := do(t, handler, http.MethodGet, "/ready", "")
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "ready", body["data"].(map[string]any)["status"])
	})

	t.Run("degraded", func(t *testing.T) {
		handler := newTestServer(t, api.HealthDependencies{
			CheckDatabase: func(context.Context) error { return nil },
			CheckCache:    func(context.Context) error { return errors.New("connection refused") },
		})

		recorder, body := do(t, handler, http.MethodGet, "/ready", "")
		assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "degraded", body["data"].(map[string]any)["status"])
	})
}

func TestServer_Metrics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := metrics.New()
	service := account.NewService(account.NewMemoryRepository(), sec.NewHasher(bcrypt.MinCost), logger,
		account.WithCacheObserver(recorder))
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{}, logger)

	handler := api.NewServer(ctx, &config.Config{ServerPort: "0"}, logger, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Users:     account.NewHandler(service),
		Metrics:   recorder,
	}).Handler()

	response, _ := do(t, handler, http.MethodGet, "/api/v1/users/0190f2a4-7c1e-7d2a-9b3c-4d5e6f708192", "")
	require.Equal(t, http.StatusNotFound, response.Code)

	scrape := httptest.NewRecorder()
	handler.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, scrape.Code)

	text := scrape.Body.String()
	assert.Contains(t, text, `userdir_http_requests_total{method="GET",route="/api/v1/users/{id}",status="404"} 1`)
	assert.NotContains(t, text, "0190f2a4-7c1e-7d2a-9b3c-4d5e6f708192")
}
