package studioapi

import (
	"context"
	"net/http"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// UserProfile — профиль текущего пользователя.
type UserProfile struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Signup регистрирует пользователя и запоминает выданный токен в клиенте.
func (c *Client) Signup(ctx context.Context, email, password string) error {
	var resp tokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/signup", credentialsRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

// Login выполняет вход и запоминает выданный токен в клиенте.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp tokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", credentialsRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

// Logout сбрасывает сохраненный токен.
func (c *Client) Logout() {
	c.token = ""
}

// CurrentUser возвращает профиль владельца токена.
func (c *Client) CurrentUser(ctx context.Context) (*UserProfile, error) {
	var profile UserProfile
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
