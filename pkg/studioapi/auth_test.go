package studioapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoArmGo/StudioApp/internal/logger"
)

func TestLogin_StoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var creds credentialsRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			if creds.Password != "secret123" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "Invalid credentials"})
				return
			}
			_ = json.NewEncoder(w).Encode(tokenResponse{Token: "issued-token"})
		case "/auth/me":
			if r.Header.Get("Authorization") != "Bearer issued-token" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
				return
			}
			_ = json.NewEncoder(w).Encode(UserProfile{ID: 42, Email: "user@example.com"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, logger.NewNop())

	require.NoError(t, c.Login(context.Background(), "user@example.com", "secret123"))
	assert.Equal(t, "issued-token", c.Token())

	profile, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), profile.ID)
	assert.Equal(t, "user@example.com", profile.Email)

	// После выхода токен не отправляется и профиль недоступен.
	c.Logout()
	assert.Empty(t, c.Token())
	_, err = c.CurrentUser(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestLogin_WrongCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Invalid credentials"})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, logger.NewNop())

	err := c.Login(context.Background(), "user@example.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Empty(t, c.Token())
}

func TestSignup_StoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(tokenResponse{Token: "fresh-token"})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, logger.NewNop())
	require.NoError(t, c.Signup(context.Background(), "user@example.com", "secret123"))
	assert.Equal(t, "fresh-token", c.Token())
}
