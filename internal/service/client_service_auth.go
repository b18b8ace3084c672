package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-social-sync/internal/adapter"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/network"
	"github.com/MKhiriev/go-social-sync/internal/session"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/models"
)

// metaAccountID names the account whose data the local database holds.
const metaAccountID = "account_id"

type clientAuthService struct {
	storages *store.ClientStorages
	adapter  adapter.ServerAdapter
	session  *session.Session
	monitor  network.Monitor
	logger   *logger.Logger
}

func NewClientAuthService(
	storages *store.ClientStorages,
	serverAdapter adapter.ServerAdapter,
	sess *session.Session,
	monitor network.Monitor,
	logger *logger.Logger,
) ClientAuthService {
	return &clientAuthService{
		storages: storages,
		adapter:  serverAdapter,
		session:  sess,
		monitor:  monitor,
		logger:   logger,
	}
}

func (a *clientAuthService) requireOnline() error {
	if !a.monitor.IsOnline() {
		return ErrOffline
	}
	return nil
}

func (a *clientAuthService) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	if err := a.requireOnline(); err != nil {
		return models.User{}, err
	}

	resp, err := a.adapter.Register(ctx, req)
	if err != nil {
		return models.User{}, mapAdapterError(err)
	}
	return a.establish(ctx, resp)
}

func (a *clientAuthService) Login(ctx context.Context, req models.LoginRequest) (models.User, error) {
	if err := a.requireOnline(); err != nil {
		return models.User{}, err
	}

	resp, err := a.adapter.Login(ctx, req)
	if err != nil {
		return models.User{}, mapAdapterError(err)
	}
	return a.establish(ctx, resp)
}

// establish stores the authenticated user and makes resp the current
// session. The local database is purged when it belongs to another account.
func (a *clientAuthService) establish(ctx context.Context, resp models.AuthResponse) (models.User, error) {
	if resp.Token == "" || resp.User.ID == "" {
		return models.User{}, fmt.Errorf("%w: incomplete auth response", ErrNetwork)
	}

	err := a.storages.DB.InTx(ctx, func(ctx context.Context) error {
		owner, ok, err := a.storages.Meta.Get(ctx, metaAccountID)
		if err != nil {
			return err
		}
		if ok && owner != resp.User.ID {
			a.logger.Info().Str("previous", owner).Str("user_id", resp.User.ID).Msg("account switched, purging local data")
			if err = a.storages.DB.Purge(ctx); err != nil {
				return err
			}
		}

		if err = a.storages.Users.Upsert(ctx, resp.User); err != nil {
			return err
		}
		return a.storages.Meta.Set(ctx, metaAccountID, resp.User.ID)
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "clientAuthService.establish").Str("user_id", resp.User.ID).Msg("failed to store account")
		return models.User{}, err
	}

	if err = a.session.Set(models.Session{UserID: resp.User.ID, Token: resp.Token}); err != nil {
		return models.User{}, err
	}

	a.logger.Info().Str("user_id", resp.User.ID).Msg("session established")
	return a.storages.Users.GetByID(ctx, resp.User.ID)
}

func (a *clientAuthService) Logout(ctx context.Context) error {
	if err := a.session.Clear(); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "clientAuthService.Logout").Msg("failed to clear session")
		return err
	}
	return nil
}

func (a *clientAuthService) RestoreSession(ctx context.Context) (models.User, error) {
	sess, err := a.session.Restore()
	if errors.Is(err, session.ErrNoSession) || errors.Is(err, session.ErrSessionExpired) {
		return models.User{}, fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	if err != nil {
		return models.User{}, err
	}

	u, err := a.storages.Users.GetByID(ctx, sess.UserID)
	if isLocalNotFound(err) {
		if err = a.storages.Users.EnsureExists(ctx, sess.UserID); err != nil {
			return models.User{}, err
		}
		return a.storages.Users.GetByID(ctx, sess.UserID)
	}
	return u, err
}

func (a *clientAuthService) Me(ctx context.Context) (models.User, error) {
	userID, err := currentUser(a.session)
	if err != nil {
		return models.User{}, err
	}
	return a.storages.Users.GetByID(ctx, userID)
}

func (a *clientAuthService) RefreshMe(ctx context.Context) (models.User, error) {
	if _, err := currentUser(a.session); err != nil {
		return models.User{}, err
	}
	if err := a.requireOnline(); err != nil {
		return models.User{}, refreshError(err)
	}

	u, err := a.adapter.Me(ctx)
	if err != nil {
		return models.User{}, refreshError(mapAdapterError(err))
	}
	if err = a.storages.Users.Upsert(ctx, u); err != nil {
		return models.User{}, refreshError(err)
	}
	return a.storages.Users.GetByID(ctx, u.ID)
}

func (a *clientAuthService) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.User, error) {
	if _, err := currentUser(a.session); err != nil {
		return models.User{}, err
	}
	if err := a.requireOnline(); err != nil {
		return models.User{}, err
	}

	u, err := a.adapter.UpdateMe(ctx, upd)
	if err != nil {
		return models.User{}, mapAdapterError(err)
	}
	if err = a.storages.Users.Upsert(ctx, u); err != nil {
		return models.User{}, err
	}
	return a.storages.Users.GetByID(ctx, u.ID)
}

func (a *clientAuthService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if _, err := currentUser(a.session); err != nil {
		return err
	}
	if err := a.requireOnline(); err != nil {
		return err
	}

	err := a.adapter.ChangePassword(ctx, models.ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword})
	if err != nil {
		return mapAdapterError(err)
	}
	return nil
}

func (a *clientAuthService) ObserveMe(ctx context.Context) (*store.Subscription[models.User], error) {
	userID, err := currentUser(a.session)
	if err != nil {
		return nil, err
	}

	return store.Watch(ctx, a.storages.DB, store.UserTables, func(ctx context.Context) (models.User, error) {
		return a.storages.Users.GetByID(ctx, userID)
	}), nil
}
