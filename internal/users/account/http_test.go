// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/userdir/internal/users/account"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Details []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
}

func serve(t *testing.T, handler http.Handler, method, target, body string) (int, envelope) {
	t.Helper()

	request := httptest.NewRequest(method, target, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	var decoded envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded), recorder.Body.String())
	return recorder.Code, decoded
}

const createBody = `{
	"username": "ada",
	"email": "ada@example.com",
	"password": "correct-horse",
	"dateOfBirth": "1996-01-01",
	"city": "Lagos",
	"occupation": "Engineer"
}`

func TestHandler_CRUD(t *testing.T) {
	router := account.NewHandler(newTestService(t)).Routes()

	status, body := serve(t, router, http.MethodPost, "/", createBody)
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, body.Success)
	assert.Equal(t, "User created successfully", body.Message)
	assert.NotContains(t, string(body.Data), "password")

	var created struct {
		ID  string `json:"id"`
		Age int    `json:"age"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	require.NotEmpty(t, created.ID)

	status, body = serve(t, router, http.MethodGet, "/"+created.ID, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User fetched successfully", body.Message)

	status, body = serve(t, router, http.MethodPatch, "/"+created.ID, `{"city":"Accra"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User updated successfully", body.Message)
	assert.Contains(t, string(body.Data), `"city":"Accra"`)

	status, _ = serve(t, router, http.MethodPut, "/"+created.ID, `{"occupation":"Doctor"}`)
	assert.Equal(t, http.StatusOK, status)

	status, body = serve(t, router, http.MethodDelete, "/"+created.ID, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User deleted successfully", body.Message)

	status, body = serve(t, router, http.MethodGet, "/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, body.Success)
	assert.Equal(t, "User not found", body.Message)
}

func TestHandler_Create_Errors(t *testing.T) {
	router := account.NewHandler(newTestService(t)).Routes()

	status, body := serve(t, router, http.MethodPost, "/", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, body.Success)

	status, body = serve(t, router, http.MethodPost, "/", strings.Replace(createBody, "correct-horse", "short", 1))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.NotEmpty(t, body.Details)
	assert.Equal(t, "password", body.Details[0].Field)

	status, _ = serve(t, router, http.MethodPost, "/", createBody)
	require.Equal(t, http.StatusCreated, status)

	status, body = serve(t, router, http.MethodPost, "/", createBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ada@example.com already exists for email.", body.Message)
}

func TestHandler_InvalidID(t *testing.T) {
	router := account.NewHandler(newTestService(t)).Routes()

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		status, body := serve(t, router, method, "/not-a-uuid", `{}`)
		assert.Equal(t, http.StatusBadRequest, status, method)
		assert.False(t, body.Success)
	}
}

func TestHandler_List(t *testing.T) {
	router := account.NewHandler(newTestService(t)).Routes()

	status, _ := serve(t, router, http.MethodPost, "/", createBody)
	require.Equal(t, http.StatusCreated, status)

	status, body := serve(t, router, http.MethodGet, "/?page=1&limit=5&sortBy=username&order=desc", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Users fetched successfully", body.Message)

	var page map[string]any
	require.NoError(t, json.Unmarshal(body.Data, &page))
	for _, key := range []string{
		"docs", "totalDocs", "limit", "totalPages", "page", "pagingCounter",
		"hasPrevPage", "hasNextPage", "prevPage", "nextPage",
	} {
		assert.Contains(t, page, key)
	}
	assert.Equal(t, float64(1), page["totalDocs"])
	assert.Nil(t, page["prevPage"])

	status, body = serve(t, router, http.MethodGet, "/?page=abc", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid query parameter", body.Message)

	status, _ = serve(t, router, http.MethodGet, "/?sortBy=password", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHandler_Analytics(t *testing.T) {
	router := account.NewHandler(newTestService(t)).Routes()

	status, body := serve(t, router, http.MethodGet, "/average-age", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0", string(body.Data))
	assert.Equal(t, "No users found with the specified criteria.", body.Message)

	status, _ = serve(t, router, http.MethodPost, "/", createBody)
	require.Equal(t, http.StatusCreated, status)

	status, body = serve(t, router, http.MethodGet, "/average-age-by-city?city=Lagos", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Average age for users in Lagos calculated successfully.", body.Message)

	status, body = serve(t, router, http.MethodGet, "/demographics", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User demographics fetched successfully", body.Message)

	var report map[string]any
	require.NoError(t, json.Unmarshal(body.Data, &report))
	assert.Contains(t, report, "ageDistribution")
	assert.Contains(t, report, "topCities")
	assert.Contains(t, report, "topOccupations")
}
