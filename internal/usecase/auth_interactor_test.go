package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GoArmGo/StudioApp/internal/domain"
	"github.com/GoArmGo/StudioApp/internal/logger"
)

type fakeUserStorage struct {
	users     map[string]*domain.User
	createErr error
}

func newFakeUserStorage() *fakeUserStorage {
	return &fakeUserStorage{users: map[string]*domain.User{}}
}

func (f *fakeUserStorage) CreateUser(_ context.Context, email, passwordHash string) (*domain.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.users[email]; ok {
		return nil, domain.ErrEmailTaken
	}
	user := &domain.User{
		ID:           int64(len(f.users) + 1),
		Email:        email,
		PasswordHash: passwordHash,
	}
	f.users[email] = user
	return user, nil
}

func (f *fakeUserStorage) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	return f.users[email], nil
}

func (f *fakeUserStorage) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

type staticTokenIssuer struct{}

func (staticTokenIssuer) Generate(userID int64) (string, error) {
	return fmt.Sprintf("token-for-%d", userID), nil
}

func TestSignup_HashesPasswordAndIssuesToken(t *testing.T) {
	users := newFakeUserStorage()
	uc := NewAuthUseCase(users, staticTokenIssuer{}, logger.NewNop())

	token, err := uc.Signup(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "token-for-1", token)

	stored := users.users["user@example.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret123")))
}

func TestSignup_DuplicateEmail(t *testing.T) {
	users := newFakeUserStorage()
	uc := NewAuthUseCase(users, staticTokenIssuer{}, logger.NewNop())

	_, err := uc.Signup(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)

	_, err = uc.Signup(context.Background(), "user@example.com", "another")
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	users := newFakeUserStorage()
	uc := NewAuthUseCase(users, staticTokenIssuer{}, logger.NewNop())

	_, err := uc.Signup(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)

	t.Run("correct credentials", func(t *testing.T) {
		token, err := uc.Login(context.Background(), "user@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "token-for-1", token)
	})

	// Неверный пароль и незнакомый email дают один и тот же отказ.
	t.Run("wrong password", func(t *testing.T) {
		_, err := uc.Login(context.Background(), "user@example.com", "wrong")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := uc.Login(context.Background(), "nobody@example.com", "secret123")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestCurrentUser(t *testing.T) {
	users := newFakeUserStorage()
	uc := NewAuthUseCase(users, staticTokenIssuer{}, logger.NewNop())

	_, err := uc.Signup(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)

	user, err := uc.CurrentUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)

	_, err = uc.CurrentUser(context.Background(), 999)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}
