package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoArmGo/StudioApp/internal/auth"
	"github.com/GoArmGo/StudioApp/internal/domain"
	"github.com/GoArmGo/StudioApp/internal/logger"
)

type stubAuthUseCase struct {
	signupErr error
	loginErr  error
	user      *domain.User
}

func (s *stubAuthUseCase) Signup(_ context.Context, email, _ string) (string, error) {
	if s.signupErr != nil {
		return "", s.signupErr
	}
	return "token-" + email, nil
}

func (s *stubAuthUseCase) Login(_ context.Context, email, _ string) (string, error) {
	if s.loginErr != nil {
		return "", s.loginErr
	}
	return "token-" + email, nil
}

func (s *stubAuthUseCase) CurrentUser(context.Context, int64) (*domain.User, error) {
	if s.user == nil {
		return nil, domain.ErrUnauthorized
	}
	return s.user, nil
}

func newAuthRouter(t *testing.T, uc *stubAuthUseCase) (*chi.Mux, string) {
	t.Helper()

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	token, err := tokens.Generate(42)
	require.NoError(t, err)

	h := NewAuthHandler(uc, logger.NewNop())

	r := chi.NewRouter()
	r.Post("/auth/signup", h.Signup)
	r.Post("/auth/login", h.Login)
	r.With(RequireAuth(tokens, logger.NewNop())).Get("/auth/me", h.Me)
	return r, token
}

func TestSignupHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r, _ := newAuthRouter(t, &stubAuthUseCase{})
		rec := doJSON(t, r, http.MethodPost, "/auth/signup", "",
			`{"email":"user@example.com","password":"secret123"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"token":"token-user@example.com"}`, rec.Body.String())
	})

	t.Run("invalid email", func(t *testing.T) {
		r, _ := newAuthRouter(t, &stubAuthUseCase{})
		rec := doJSON(t, r, http.MethodPost, "/auth/signup", "",
			`{"email":"not-an-email","password":"secret123"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp struct {
			Issues []domain.FieldIssue `json:"issues"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Issues, 1)
		assert.Equal(t, "email", resp.Issues[0].Field)
	})

	t.Run("short password", func(t *testing.T) {
		r, _ := newAuthRouter(t, &stubAuthUseCase{})
		rec := doJSON(t, r, http.MethodPost, "/auth/signup", "",
			`{"email":"user@example.com","password":"abc"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp struct {
			Issues []domain.FieldIssue `json:"issues"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Issues, 1)
		assert.Equal(t, "password", resp.Issues[0].Field)
	})

	t.Run("duplicate email", func(t *testing.T) {
		r, _ := newAuthRouter(t, &stubAuthUseCase{signupErr: domain.ErrEmailTaken})
		rec := doJSON(t, r, http.MethodPost, "/auth/signup", "",
			`{"email":"user@example.com","password":"secret123"}`)
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"message":"Email already exists"}`, rec.Body.String())
	})
}

func TestLoginHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r, _ := newAuthRouter(t, &stubAuthUseCase{})
		rec := doJSON(t, r, http.MethodPost, "/auth/login", "",
			`{"email":"user@example.com","password":"secret123"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"token":"token-user@example.com"}`, rec.Body.String())
	})

	t.Run("wrong credentials", func(t *testing.T) {
		r, _ := newAuthRouter(t, &stubAuthUseCase{loginErr: domain.ErrInvalidCredentials})
		rec := doJSON(t, r, http.MethodPost, "/auth/login", "",
			`{"email":"user@example.com","password":"wrong1"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"message":"Invalid credentials"}`, rec.Body.String())
	})
}

func TestMeHandler(t *testing.T) {
	uc := &stubAuthUseCase{user: &domain.User{ID: 42, Email: "user@example.com"}}
	r, token := newAuthRouter(t, uc)

	t.Run("authorized", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/auth/me", token, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":42,"email":"user@example.com"}`, rec.Body.String())
	})

	t.Run("no token", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/auth/me", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
