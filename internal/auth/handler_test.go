package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebuszqo/FinanceTracker/internal/response"
)

func newTestHandler(t *testing.T) (*Handler, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	return NewHandler(env.service, nil, response.JSON, response.Error), env
}

func post(handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestHandleLogin_Scenario(t *testing.T) {
	h, env := newTestHandler(t)
	env.register(t, "alice", "a@x.com", "Passw0rd")

	ok := post(h.HandleLogin, "/login", `{"email":"a@x.com","password":"Passw0rd"}`)
	require.Equal(t, http.StatusOK, ok.Code)

	var body sessionResponse
	require.NoError(t, json.Unmarshal(ok.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)
	assert.NotEmpty(t, body.Refresh)
	assert.Equal(t, "alice", body.User.Username)
	assert.Equal(t, "a@x.com", body.User.Email)
	assert.Nil(t, body.IsNewUser)

	bad := post(h.HandleLogin, "/login", `{"email":"a@x.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, bad.Code)
	assert.Contains(t, bad.Body.String(), "Invalid email or password")
}

func TestHandleLogin_MissingFields(t *testing.T) {
	h, _ := newTestHandler(t)

	w := post(h.HandleLogin, "/login", `{"email":"a@x.com"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "password is required", body.Errors["password"])
}

func TestHandleLogin_GoogleOnlyAccount(t *testing.T) {
	h, env := newTestHandler(t)
	env.verifier.Add("assertion", ExternalIdentity{Email: "g@x.com", DisplayName: "Gina", SubjectID: "sub"})
	require.Equal(t, http.StatusOK, post(h.HandleGoogle, "/google", `{"token":"assertion"}`).Code)

	w := post(h.HandleLogin, "/login", `{"email":"g@x.com","password":"Passw0rd"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleGoogle(t *testing.T) {
	h, env := newTestHandler(t)
	env.verifier.Add("assertion", ExternalIdentity{Email: "jane@x.com", DisplayName: "Jane Doe", SubjectID: "sub-1"})

	first := post(h.HandleGoogle, "/google", `{"token":"assertion"}`)
	require.Equal(t, http.StatusOK, first.Code)
	var firstBody sessionResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstBody))
	require.NotNil(t, firstBody.IsNewUser)
	assert.True(t, *firstBody.IsNewUser)

	second := post(h.HandleGoogle, "/google", `{"token":"assertion"}`)
	require.Equal(t, http.StatusOK, second.Code)
	var secondBody sessionResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondBody))
	require.NotNil(t, secondBody.IsNewUser)
	assert.False(t, *secondBody.IsNewUser)
	assert.Equal(t, firstBody.User.ID, secondBody.User.ID)
}

func TestHandleGoogle_Failures(t *testing.T) {
	h, _ := newTestHandler(t)

	missing := post(h.HandleGoogle, "/google", `{}`)
	assert.Equal(t, http.StatusBadRequest, missing.Code)

	forged := post(h.HandleGoogle, "/google", `{"token":"forged"}`)
	assert.Equal(t, http.StatusInternalServerError, forged.Code)
	assert.Contains(t, forged.Body.String(), "Google authentication failed")
	assert.NotContains(t, forged.Body.String(), "unknown assertion")
}

func TestHandleRefresh(t *testing.T) {
	h, env := newTestHandler(t)
	env.register(t, "alice", "a@x.com", "Passw0rd")
	login := post(h.HandleLogin, "/login", `{"email":"a@x.com","password":"Passw0rd"}`)
	var session sessionResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &session))

	ok := post(h.HandleRefresh, "/token/refresh", `{"refresh":"`+session.Refresh+`"}`)
	require.Equal(t, http.StatusOK, ok.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(ok.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])

	withAccess := post(h.HandleRefresh, "/token/refresh", `{"refresh":"`+session.Token+`"}`)
	assert.Equal(t, http.StatusUnauthorized, withAccess.Code)

	missing := post(h.HandleRefresh, "/token/refresh", `{}`)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
}

func TestHandlers_RejectOversizedBodies(t *testing.T) {
	h, _ := newTestHandler(t)
	padding := strings.Repeat("a", response.MaxBodyBytes+1)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		body    string
	}{
		{"login", h.HandleLogin, `{"email":"` + padding + `@x.com","password":"Passw0rd"}`},
		{"google", h.HandleGoogle, `{"token":"` + padding + `"}`},
		{"refresh", h.HandleRefresh, `{"refresh":"` + padding + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(tt.handler, "/"+tt.name, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "Invalid request body")
		})
	}
}
