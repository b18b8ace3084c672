package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-social-sync/internal/adapter"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/network"
	"github.com/MKhiriev/go-social-sync/internal/session"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/models"
)

type clientPostService struct {
	storages *store.ClientStorages
	adapter  adapter.ServerAdapter
	session  *session.Session
	monitor  network.Monitor
	mapper   *identityMapper
	pusher   *pusher
	logger   *logger.Logger
}

func newClientPostService(
	storages *store.ClientStorages,
	serverAdapter adapter.ServerAdapter,
	sess *session.Session,
	monitor network.Monitor,
	mapper *identityMapper,
	pusher *pusher,
	logger *logger.Logger,
) *clientPostService {
	return &clientPostService{
		storages: storages,
		adapter:  serverAdapter,
		session:  sess,
		monitor:  monitor,
		mapper:   mapper,
		pusher:   pusher,
		logger:   logger,
	}
}

func currentUser(sess *session.Session) (string, error) {
	if !sess.IsAuthenticated() || sess.UserID() == "" {
		return "", ErrNotAuthenticated
	}
	return sess.UserID(), nil
}

func refreshError(err error) error {
	return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
}

func (s *clientPostService) Create(ctx context.Context, in models.PostInput) (models.Post, error) {
	userID, err := currentUser(s.session)
	if err != nil {
		return models.Post{}, err
	}

	localID, err := s.insertLocal(ctx, userID, in)
	if err != nil {
		return models.Post{}, err
	}

	return s.afterWrite(ctx, localID)
}

// insertLocal stores a new unsynced post owned by userID.
func (s *clientPostService) insertLocal(ctx context.Context, userID string, in models.PostInput) (int64, error) {
	var localID int64

	err := s.storages.DB.InTx(ctx, func(ctx context.Context) error {
		if err := s.storages.Users.EnsureExists(ctx, userID); err != nil {
			return err
		}

		var err error
		localID, err = s.storages.Posts.Insert(ctx, models.Post{
			OwnerID:     userID,
			Title:       strings.TrimSpace(in.Title),
			Description: in.Description,
			Images:      models.Images(in.Images),
			LocalRev:    1,
		})
		return err
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "clientPostService.insertLocal").Msg("failed to store post")
		return 0, err
	}

	return localID, nil
}

// afterWrite pushes the post when online and returns the stored row. Push
// failures are left to the sync engine.
func (s *clientPostService) afterWrite(ctx context.Context, localID int64) (models.Post, error) {
	if s.monitor.IsOnline() {
		p, err := s.storages.Posts.GetByID(ctx, localID)
		if err != nil {
			return models.Post{}, err
		}
		if outcome, err := s.pusher.pushPost(ctx, p); err != nil {
			s.logger.Debug().Err(err).Int64("local_id", localID).Int("outcome", int(outcome)).Msg("immediate push deferred")
		}
	}

	return s.storages.Posts.GetByID(ctx, localID)
}

func (s *clientPostService) ownPost(ctx context.Context, localID int64) (models.Post, error) {
	userID, err := currentUser(s.session)
	if err != nil {
		return models.Post{}, err
	}

	p, err := s.storages.Posts.GetByID(ctx, localID)
	if err != nil {
		return models.Post{}, err
	}
	if p.OwnerID != userID {
		return models.Post{}, ErrNotOwner
	}
	return p, nil
}

func (s *clientPostService) Update(ctx context.Context, localID int64, in models.PostInput) (models.Post, error) {
	if _, err := s.ownPost(ctx, localID); err != nil {
		return models.Post{}, err
	}

	err := s.storages.Posts.UpdateContent(ctx, localID, strings.TrimSpace(in.Title), in.Description, models.Images(in.Images), time.Now())
	if err != nil {
		return models.Post{}, err
	}

	return s.afterWrite(ctx, localID)
}

func (s *clientPostService) Delete(ctx context.Context, localID int64) error {
	p, err := s.ownPost(ctx, localID)
	if err != nil {
		return err
	}

	err = s.storages.DB.InTx(ctx, func(ctx context.Context) error {
		if p.HasServerID() {
			if err := s.storages.Posts.AddTombstone(ctx, p.RemoteID(), p.OwnerID); err != nil {
				return err
			}
		}
		return s.storages.Posts.DeleteByID(ctx, localID)
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "clientPostService.Delete").Int64("local_id", localID).Msg("failed to delete post")
		return err
	}

	if p.HasServerID() && s.monitor.IsOnline() {
		if _, err = s.pusher.pushDelete(ctx, p.RemoteID()); err != nil {
			s.logger.Debug().Err(err).Str("server_id", p.RemoteID()).Msg("remote delete deferred")
		}
	}
	return nil
}

func (s *clientPostService) Vote(ctx context.Context, localID int64, vote models.VoteKind) (models.Post, error) {
	if !vote.Valid() {
		return models.Post{}, fmt.Errorf("%w: invalid vote %q", ErrValidation, vote)
	}
	if _, err := currentUser(s.session); err != nil {
		return models.Post{}, err
	}

	p, err := s.storages.Posts.GetByID(ctx, localID)
	if err != nil {
		return models.Post{}, err
	}
	if !p.HasServerID() {
		return models.Post{}, ErrNotSynced
	}

	if err = s.storages.Posts.ApplyLocalVote(ctx, localID, vote); err != nil {
		return models.Post{}, err
	}

	if s.monitor.IsOnline() {
		if p, err = s.storages.Posts.GetByID(ctx, localID); err != nil {
			return models.Post{}, err
		}
		if _, err = s.pusher.pushVote(ctx, p); err != nil {
			s.logger.Debug().Err(err).Int64("local_id", localID).Msg("vote deferred")
		}
	}

	return s.storages.Posts.GetByID(ctx, localID)
}

func (s *clientPostService) SetFavorite(ctx context.Context, localID int64, favorite bool) error {
	userID, err := currentUser(s.session)
	if err != nil {
		return err
	}

	p, err := s.storages.Posts.GetByID(ctx, localID)
	if err != nil {
		return err
	}
	if !p.HasServerID() {
		return ErrNotSynced
	}

	if err = s.storages.Favorites.Set(ctx, userID, localID, favorite); err != nil {
		return err
	}

	if s.monitor.IsOnline() {
		change := models.PendingFavorite{
			Favorite:     models.Favorite{UserID: userID, PostID: localID, Deleted: !favorite},
			PostServerID: p.RemoteID(),
		}
		if _, err = s.pusher.pushFavorite(ctx, change); err != nil {
			s.logger.Debug().Err(err).Int64("local_id", localID).Msg("favorite deferred")
		}
	}
	return nil
}

func (s *clientPostService) Get(ctx context.Context, localID int64) (models.PostView, error) {
	userID, err := currentUser(s.session)
	if err != nil {
		return models.PostView{}, err
	}
	return s.storages.Posts.GetView(ctx, userID, localID)
}

func (s *clientPostService) Observe(ctx context.Context, q models.PostQuery) (*store.Subscription[[]models.PostView], error) {
	userID, err := currentUser(s.session)
	if err != nil {
		return nil, err
	}

	return store.Watch(ctx, s.storages.DB, store.PostViewTables, func(ctx context.Context) ([]models.PostView, error) {
		return s.storages.Posts.ListViews(ctx, userID, q)
	}), nil
}

func (s *clientPostService) ObservePost(ctx context.Context, localID int64) (*store.Subscription[models.PostView], error) {
	userID, err := currentUser(s.session)
	if err != nil {
		return nil, err
	}

	return store.Watch(ctx, s.storages.DB, store.PostViewTables, func(ctx context.Context) (models.PostView, error) {
		return s.storages.Posts.GetView(ctx, userID, localID)
	}), nil
}

func (s *clientPostService) ObserveFavorites(ctx context.Context) (*store.Subscription[[]models.PostView], error) {
	return s.Observe(ctx, models.PostQuery{FavoritesOnly: true})
}

func (s *clientPostService) ObserveUserPosts(ctx context.Context, userID string) (*store.Subscription[[]models.PostView], error) {
	return s.Observe(ctx, models.PostQuery{OwnerID: userID})
}

func (s *clientPostService) requireOnline() error {
	if !s.monitor.IsOnline() {
		return ErrOffline
	}
	return nil
}

func (s *clientPostService) Refresh(ctx context.Context, q models.PostQuery) error {
	if _, err := currentUser(s.session); err != nil {
		return err
	}
	if err := s.requireOnline(); err != nil {
		return refreshError(err)
	}

	remotes, err := s.adapter.ListPosts(ctx, q)
	if err != nil {
		return refreshError(mapAdapterError(err))
	}

	if _, err = s.mapper.importPosts(ctx, remotes); err != nil {
		return refreshError(err)
	}
	return nil
}

func (s *clientPostService) RefreshPost(ctx context.Context, localID int64) error {
	if _, err := currentUser(s.session); err != nil {
		return err
	}

	p, err := s.storages.Posts.GetByID(ctx, localID)
	if err != nil {
		return err
	}
	if !p.HasServerID() {
		return ErrNotSynced
	}
	if err = s.requireOnline(); err != nil {
		return refreshError(err)
	}

	remote, err := s.adapter.GetPost(ctx, p.RemoteID())
	if err != nil {
		mapped := mapAdapterError(err)
		if isRemoteNotFound(mapped) && p.Synced {
			s.logger.Info().Int64("local_id", localID).Str("server_id", p.RemoteID()).Msg("post removed on server")
			if derr := s.storages.Posts.DeleteByID(ctx, localID); derr != nil {
				return derr
			}
		}
		return refreshError(mapped)
	}

	if _, err = s.mapper.importPostDetail(ctx, remote); err != nil {
		return refreshError(err)
	}
	return nil
}

func (s *clientPostService) RefreshFavorites(ctx context.Context) error {
	userID, err := currentUser(s.session)
	if err != nil {
		return err
	}
	if err = s.requireOnline(); err != nil {
		return refreshError(err)
	}

	remotes, err := s.adapter.Favorites(ctx)
	if err != nil {
		return refreshError(mapAdapterError(err))
	}

	err = s.storages.DB.InTx(ctx, func(ctx context.Context) error {
		ids, err := s.mapper.importPosts(ctx, remotes)
		if err != nil {
			return err
		}

		favorites := make([]int64, 0, len(ids))
		for _, id := range ids {
			if id != 0 {
				favorites = append(favorites, id)
			}
		}
		return s.storages.Favorites.ReplaceSynced(ctx, userID, favorites)
	})
	if err != nil {
		return refreshError(err)
	}
	return nil
}

func (s *clientPostService) RefreshUserPosts(ctx context.Context, userID string) error {
	if _, err := currentUser(s.session); err != nil {
		return err
	}
	if err := s.requireOnline(); err != nil {
		return refreshError(err)
	}

	remotes, err := s.adapter.UserPosts(ctx, userID)
	if err != nil {
		return refreshError(mapAdapterError(err))
	}

	if _, err = s.mapper.importPosts(ctx, remotes); err != nil {
		return refreshError(err)
	}
	return nil
}

func (s *clientPostService) Abandoned(ctx context.Context) ([]models.Post, error) {
	userID, err := currentUser(s.session)
	if err != nil {
		return nil, err
	}
	return s.storages.Posts.ListAbandoned(ctx, userID)
}

func (s *clientPostService) Abandon(ctx context.Context, localID int64) error {
	if _, err := s.ownPost(ctx, localID); err != nil {
		return err
	}
	return s.storages.Posts.SetAbandoned(ctx, localID, true)
}

func (s *clientPostService) Retry(ctx context.Context, localID int64) error {
	if _, err := s.ownPost(ctx, localID); err != nil {
		return err
	}
	if err := s.storages.Posts.SetAbandoned(ctx, localID, false); err != nil {
		return err
	}

	_, err := s.afterWrite(ctx, localID)
	return err
}
