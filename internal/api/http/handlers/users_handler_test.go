package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/cheese-market/internal/api/dto"
)

func TestLoginCheckUnknownEmailReturns404(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(http.MethodPost, "/api/login_check", dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "irrelevant",
	})
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLoginCheckWrongPasswordReturns401(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "brie@example.com", "correct-password")

	req := jsonRequest(http.MethodPost, "/api/login_check", dto.LoginRequest{
		Email:    "brie@example.com",
		Password: "wrong-password",
	})
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginCheckSuccessReturnsToken(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "brie@example.com", "correct-password")

	issuedAt := time.Now()
	req := jsonRequest(http.MethodPost, "/api/login_check", dto.LoginRequest{
		Email:    "brie@example.com",
		Password: "correct-password",
	})
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	token, ok := payload["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)

	claims, err := env.auth.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "brie@example.com", claims.Email)
	assert.WithinDuration(t, issuedAt.Add(time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestLoginCheckRequiresPost(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(http.MethodGet, "/api/login_check", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterUserAndReadBack(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(http.MethodPost, "/users", dto.RegisterUserRequest{
		Email:    "fresh@example.com",
		Password: "my-password",
	})
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	payload := decodeBody(t, resp)
	data, ok := payload["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fresh@example.com", data["email"])
	assert.NotContains(t, data, "passwordHash")
	assert.NotContains(t, data, "password")

	// the stored password is the hash, not the plaintext
	id, ok := data["id"].(string)
	require.True(t, ok)
	stored, err := env.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.NotEqual(t, "my-password", stored.PasswordHash)
}

func TestRegisterUserMissingFieldsEnumerated(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(http.MethodPost, "/users", map[string]any{})
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	payload := decodeBody(t, resp)
	errBody, ok := payload["error"].(map[string]any)
	require.True(t, ok)
	details, ok := errBody["details"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
}

func TestGetUserRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.registerUser(t, "me@example.com", "pw")

	req := jsonRequest(http.MethodGet, "/users/"+user.ID, nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = jsonRequest(http.MethodGet, "/users/"+user.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	data := payload["data"].(map[string]any)
	assert.Equal(t, "me@example.com", data["email"])
	assert.Contains(t, data, "roles")
	assert.Contains(t, data, "cheeseListings")
}
