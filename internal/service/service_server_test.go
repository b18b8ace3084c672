package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MKhiriev/go-social-sync/internal/config"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/models"
)

var testServerConfig = config.ServerConfig{
	HTTPAddress:    "localhost:0",
	RequestTimeout: time.Second,
	TokenSignKey:   "secret",
	TokenIssuer:    "test",
	TokenDuration:  time.Hour,
	Version:        "test",
}

// newServerServices returns services over a fresh in-memory store with a
// cheap bcrypt cost.
func newServerServices(t *testing.T) *Services {
	t.Helper()
	svcs, err := NewServices(store.NewMemoryStorages(logger.Nop()), testServerConfig, logger.Nop())
	require.NoError(t, err)
	svcs.AuthService.(*authService).bcryptCost = bcrypt.MinCost
	return svcs
}

func registerUser(t *testing.T, svcs *Services, email, alias string) models.User {
	t.Helper()
	u, err := svcs.AuthService.Register(context.Background(), models.RegisterRequest{
		Email: email, Password: "pw-" + alias, Alias: alias,
	})
	require.NoError(t, err)
	return u
}
