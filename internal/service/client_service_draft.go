package service

import (
	"context"
	"strings"
	"time"

	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/session"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/models"
)

// clientDraftService keeps unpublished posts. Drafts never leave the device
// until Publish turns them into pending posts.
type clientDraftService struct {
	storages *store.ClientStorages
	session  *session.Session
	posts    *clientPostService
	logger   *logger.Logger
}

func newClientDraftService(storages *store.ClientStorages, sess *session.Session, posts *clientPostService, logger *logger.Logger) *clientDraftService {
	return &clientDraftService{storages: storages, session: sess, posts: posts, logger: logger}
}

func (s *clientDraftService) Save(ctx context.Context, in models.PostInput) (models.DraftPost, error) {
	userID, err := currentUser(s.session)
	if err != nil {
		return models.DraftPost{}, err
	}

	var localID int64
	err = s.storages.DB.InTx(ctx, func(ctx context.Context) error {
		if err := s.storages.Users.EnsureExists(ctx, userID); err != nil {
			return err
		}

		var err error
		localID, err = s.storages.Drafts.Insert(ctx, models.DraftPost{
			OwnerID:     userID,
			Title:       strings.TrimSpace(in.Title),
			Description: in.Description,
			Images:      models.Images(in.Images),
		})
		return err
	})
	if err != nil {
		return models.DraftPost{}, err
	}

	return s.storages.Drafts.GetByID(ctx, localID)
}

func (s *clientDraftService) own(ctx context.Context, localID int64) (models.DraftPost, error) {
	userID, err := currentUser(s.session)
	if err != nil {
		return models.DraftPost{}, err
	}

	d, err := s.storages.Drafts.GetByID(ctx, localID)
	if err != nil {
		return models.DraftPost{}, err
	}
	if d.OwnerID != userID {
		return models.DraftPost{}, ErrNotOwner
	}
	return d, nil
}

func (s *clientDraftService) Update(ctx context.Context, localID int64, in models.PostInput) (models.DraftPost, error) {
	d, err := s.own(ctx, localID)
	if err != nil {
		return models.DraftPost{}, err
	}

	d.Title = strings.TrimSpace(in.Title)
	d.Description = in.Description
	d.Images = models.Images(in.Images)
	d.UpdatedAt = time.Now().UTC()

	if err = s.storages.Drafts.Update(ctx, d); err != nil {
		return models.DraftPost{}, err
	}
	return s.storages.Drafts.GetByID(ctx, localID)
}

func (s *clientDraftService) Delete(ctx context.Context, localID int64) error {
	if _, err := s.own(ctx, localID); err != nil {
		return err
	}
	return s.storages.Drafts.Delete(ctx, localID)
}

func (s *clientDraftService) List(ctx context.Context) ([]models.DraftPost, error) {
	userID, err := currentUser(s.session)
	if err != nil {
		return nil, err
	}
	return s.storages.Drafts.ListByOwner(ctx, userID)
}

func (s *clientDraftService) Observe(ctx context.Context) (*store.Subscription[[]models.DraftPost], error) {
	userID, err := currentUser(s.session)
	if err != nil {
		return nil, err
	}

	return store.Watch(ctx, s.storages.DB, store.DraftTables, func(ctx context.Context) ([]models.DraftPost, error) {
		return s.storages.Drafts.ListByOwner(ctx, userID)
	}), nil
}

// Publish moves the draft into the posts table as a pending post and pushes
// it when online.
func (s *clientDraftService) Publish(ctx context.Context, localID int64) (models.Post, error) {
	var postID int64

	err := s.storages.DB.InTx(ctx, func(ctx context.Context) error {
		d, err := s.own(ctx, localID)
		if err != nil {
			return err
		}

		postID, err = s.posts.insertLocal(ctx, d.OwnerID, models.PostInput{
			Title:       d.Title,
			Description: d.Description,
			Images:      []string(d.Images),
		})
		if err != nil {
			return err
		}
		return s.storages.Drafts.Delete(ctx, localID)
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "clientDraftService.Publish").Int64("draft_id", localID).Msg("failed to publish draft")
		return models.Post{}, err
	}

	return s.posts.afterWrite(ctx, postID)
}
