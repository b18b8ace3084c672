package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/models"
)

type memoryAccountRepository struct {
	state  *memoryState
	logger *logger.Logger
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeAlias(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}

func (r *memoryAccountRepository) Create(ctx context.Context, u models.User, passwordHash []byte) (models.User, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(u.Email)
	if _, taken := s.emails[email]; taken {
		return models.User{}, ErrEmailAlreadyExists
	}
	alias := normalizeAlias(u.Alias)
	if alias != "" {
		if _, taken := s.aliases[alias]; taken {
			return models.User{}, ErrAliasAlreadyExists
		}
	}

	u.ID, _ = s.next()
	u.Email = strings.TrimSpace(u.Email)
	u.Alias = strings.TrimSpace(u.Alias)
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	s.accounts[u.ID] = &memoryAccount{user: u, passwordHash: passwordHash}
	s.emails[email] = u.ID
	if alias != "" {
		s.aliases[alias] = u.ID
	}

	logger.FromContext(ctx).Debug().Str("func", "memoryAccountRepository.Create").Str("user_id", u.ID).Msg("account created")
	return u, nil
}

func (r *memoryAccountRepository) FindByLogin(ctx context.Context, login string) (models.User, []byte, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[normalizeEmail(login)]
	if !ok {
		id, ok = s.aliases[normalizeAlias(login)]
	}
	if !ok {
		return models.User{}, nil, fmt.Errorf("account %q: %w", login, ErrNotFound)
	}

	a := s.accounts[id]
	return a.user, a.passwordHash, nil
}

func (r *memoryAccountRepository) Get(ctx context.Context, id string) (models.User, []byte, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return models.User{}, nil, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return a.user, a.passwordHash, nil
}

func (r *memoryAccountRepository) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (models.User, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return models.User{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}

	if alias := normalizeAlias(upd.Alias); alias != "" && alias != normalizeAlias(a.user.Alias) {
		if owner, taken := s.aliases[alias]; taken && owner != id {
			return models.User{}, ErrAliasAlreadyExists
		}
		delete(s.aliases, normalizeAlias(a.user.Alias))
		s.aliases[alias] = id
		a.user.Alias = strings.TrimSpace(upd.Alias)
	}

	for _, f := range []struct {
		dst *string
		src string
	}{
		{&a.user.FirstName, upd.FirstName},
		{&a.user.LastName, upd.LastName},
		{&a.user.Phone, upd.Phone},
		{&a.user.Website, upd.Website},
		{&a.user.Avatar, upd.Avatar},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	a.user.UpdatedAt = time.Now().UTC()

	return a.user, nil
}

func (r *memoryAccountRepository) SetPasswordHash(ctx context.Context, id string, passwordHash []byte) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	a.passwordHash = passwordHash
	a.user.UpdatedAt = time.Now().UTC()
	return nil
}
