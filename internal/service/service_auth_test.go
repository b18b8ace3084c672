package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/internal/validators"
	"github.com/MKhiriev/go-social-sync/internal/utils"
	"github.com/MKhiriev/go-social-sync/models"
)

func TestAuthService_Register(t *testing.T) {
	svcs := newServerServices(t)
	ctx := context.Background()

	u := registerUser(t, svcs, "alice@example.com", "alice")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice", u.Alias)

	tests := []struct {
		name    string
		req     models.RegisterRequest
		wantErr error
	}{
		{"empty email", models.RegisterRequest{Password: "x"}, ErrEmailRequired},
		{"empty password", models.RegisterRequest{Email: "b@example.com"}, ErrPasswordRequired},
		{"malformed email", models.RegisterRequest{Email: "not-an-email", Password: "x"}, validators.ErrInvalidEmail},
		{"bad alias", models.RegisterRequest{Email: "d@example.com", Password: "x", Alias: "a b"}, validators.ErrInvalidAlias},
		{"email taken", models.RegisterRequest{Email: "ALICE@example.com", Password: "x"}, store.ErrEmailAlreadyExists},
		{"alias taken", models.RegisterRequest{Email: "c@example.com", Password: "x", Alias: "alice"}, store.ErrAliasAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svcs.AuthService.Register(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	svcs := newServerServices(t)
	ctx := context.Background()
	alice := registerUser(t, svcs, "alice@example.com", "alice")

	for _, login := range []string{"alice@example.com", "alice"} {
		u, err := svcs.AuthService.Login(ctx, models.LoginRequest{Login: login, Password: "pw-alice"})
		require.NoError(t, err, login)
		assert.Equal(t, alice.ID, u.ID)
	}

	_, err := svcs.AuthService.Login(ctx, models.LoginRequest{Login: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrWrongPassword)

	// неизвестный логин неотличим от неверного пароля
	_, err = svcs.AuthService.Login(ctx, models.LoginRequest{Login: "nobody", Password: "pw"})
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = svcs.AuthService.Login(ctx, models.LoginRequest{Login: "alice"})
	assert.ErrorIs(t, err, ErrInvalidDataProvided)
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	svcs := newServerServices(t)
	ctx := context.Background()
	alice := registerUser(t, svcs, "alice@example.com", "alice")

	token, err := svcs.AuthService.CreateToken(ctx, alice)
	require.NoError(t, err)

	parsed, err := svcs.AuthService.ParseToken(ctx, token.SignedString)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, parsed.UserID)

	_, err = svcs.AuthService.ParseToken(ctx, token.SignedString+"x")
	assert.ErrorIs(t, err, ErrTokenIsExpiredOrInvalid)

	foreign, err := utils.GenerateJWTToken("someone-else", alice.ID, time.Hour, "secret")
	require.NoError(t, err)
	_, err = svcs.AuthService.ParseToken(ctx, foreign.SignedString)
	assert.ErrorIs(t, err, ErrTokenIsExpiredOrInvalid)

	_, err = svcs.AuthService.CreateToken(ctx, models.User{})
	assert.ErrorIs(t, err, ErrTokenCreationFailed)
}

func TestAuthService_ProfileAndPassword(t *testing.T) {
	svcs := newServerServices(t)
	ctx := context.Background()
	alice := registerUser(t, svcs, "alice@example.com", "alice")

	u, err := svcs.AuthService.UpdateProfile(ctx, alice.ID, models.ProfileUpdate{FirstName: "Alice", Website: "https://a.example"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.FirstName)

	me, err := svcs.AuthService.Me(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example", me.Website)

	err = svcs.AuthService.ChangePassword(ctx, alice.ID, models.ChangePasswordRequest{OldPassword: "bad", NewPassword: "n"})
	assert.ErrorIs(t, err, ErrOldPasswordMismatch)

	require.NoError(t, svcs.AuthService.ChangePassword(ctx, alice.ID,
		models.ChangePasswordRequest{OldPassword: "pw-alice", NewPassword: "n"}))

	_, err = svcs.AuthService.Login(ctx, models.LoginRequest{Login: "alice", Password: "pw-alice"})
	assert.ErrorIs(t, err, ErrWrongPassword)
	_, err = svcs.AuthService.Login(ctx, models.LoginRequest{Login: "alice", Password: "n"})
	assert.NoError(t, err)

	_, err = svcs.AuthService.Me(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
