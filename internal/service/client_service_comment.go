package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/network"
	"github.com/MKhiriev/go-social-sync/internal/session"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/models"
)

type clientCommentService struct {
	storages *store.ClientStorages
	session  *session.Session
	monitor  network.Monitor
	pusher   *pusher
	posts    *clientPostService
	logger   *logger.Logger

	// slot holds the thread subscription of the post on screen.
	slot store.Slot[[]models.CommentThread]
}

func newClientCommentService(
	storages *store.ClientStorages,
	sess *session.Session,
	monitor network.Monitor,
	pusher *pusher,
	posts *clientPostService,
	logger *logger.Logger,
) *clientCommentService {
	return &clientCommentService{
		storages: storages,
		session:  sess,
		monitor:  monitor,
		pusher:   pusher,
		posts:    posts,
		logger:   logger,
	}
}

func (s *clientCommentService) Add(ctx context.Context, postLocalID int64, body string) (models.Comment, error) {
	userID, err := currentUser(s.session)
	if err != nil {
		return models.Comment{}, err
	}

	localID, err := s.insertLocal(ctx, userID, postLocalID, nil, body)
	if err != nil {
		return models.Comment{}, err
	}
	return s.afterWrite(ctx, localID)
}

// Reply adds a reply to a top-level comment. Replies cannot be replied to.
func (s *clientCommentService) Reply(ctx context.Context, parentLocalID int64, body string) (models.Comment, error) {
	userID, err := currentUser(s.session)
	if err != nil {
		return models.Comment{}, err
	}

	parent, err := s.storages.Comments.GetByID(ctx, parentLocalID)
	if err != nil {
		return models.Comment{}, err
	}
	if parent.IsReply() {
		return models.Comment{}, ErrReplyDepth
	}

	localID, err := s.insertLocal(ctx, userID, parent.PostID, &parent.LocalID, body)
	if err != nil {
		return models.Comment{}, err
	}
	return s.afterWrite(ctx, localID)
}

func (s *clientCommentService) insertLocal(ctx context.Context, userID string, postID int64, parentID *int64, body string) (int64, error) {
	var localID int64

	err := s.storages.DB.InTx(ctx, func(ctx context.Context) error {
		if err := s.storages.Users.EnsureExists(ctx, userID); err != nil {
			return err
		}

		var err error
		localID, err = s.storages.Comments.Insert(ctx, models.Comment{
			PostID:   postID,
			ParentID: parentID,
			AuthorID: userID,
			Body:     strings.TrimSpace(body),
			LocalRev: 1,
		})
		return err
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "clientCommentService.insertLocal").Int64("post_id", postID).Msg("failed to store comment")
		return 0, err
	}
	return localID, nil
}

func (s *clientCommentService) afterWrite(ctx context.Context, localID int64) (models.Comment, error) {
	if s.monitor.IsOnline() {
		c, err := s.storages.Comments.GetByID(ctx, localID)
		if err != nil {
			return models.Comment{}, err
		}
		if _, err = s.pusher.pushComment(ctx, c); err != nil {
			s.logger.Debug().Err(err).Int64("local_id", localID).Msg("immediate comment push deferred")
		}
	}
	return s.storages.Comments.GetByID(ctx, localID)
}

// Like marks the comment liked. Liking twice is a no-op.
func (s *clientCommentService) Like(ctx context.Context, localID int64) (models.Comment, error) {
	if _, err := currentUser(s.session); err != nil {
		return models.Comment{}, err
	}

	c, err := s.storages.Comments.GetByID(ctx, localID)
	if err != nil {
		return models.Comment{}, err
	}
	if !c.HasServerID() {
		return models.Comment{}, ErrNotSynced
	}

	changed, err := s.storages.Comments.ApplyLocalLike(ctx, localID)
	if err != nil {
		return models.Comment{}, err
	}

	if changed && s.monitor.IsOnline() {
		if c, err = s.storages.Comments.GetByID(ctx, localID); err != nil {
			return models.Comment{}, err
		}
		if _, err = s.pusher.pushLike(ctx, c); err != nil {
			s.logger.Debug().Err(err).Int64("local_id", localID).Msg("like deferred")
		}
	}
	return s.storages.Comments.GetByID(ctx, localID)
}

// Delete removes an own comment and its replies locally.
func (s *clientCommentService) Delete(ctx context.Context, localID int64) error {
	userID, err := currentUser(s.session)
	if err != nil {
		return err
	}

	c, err := s.storages.Comments.GetByID(ctx, localID)
	if err != nil {
		return err
	}
	if c.AuthorID != userID {
		return fmt.Errorf("%w: comment %d", ErrNotOwner, localID)
	}
	return s.storages.Comments.DeleteByID(ctx, localID)
}

func (s *clientCommentService) List(ctx context.Context, postLocalID int64) ([]models.CommentThread, error) {
	return s.storages.Comments.ListThreads(ctx, postLocalID)
}

// Observe switches the active thread subscription to postLocalID. The
// previous subscription is closed before the new one emits.
func (s *clientCommentService) Observe(ctx context.Context, postLocalID int64) *store.Subscription[[]models.CommentThread] {
	return s.slot.Replace(func() *store.Subscription[[]models.CommentThread] {
		return store.Watch(ctx, s.storages.DB, store.CommentTables, func(ctx context.Context) ([]models.CommentThread, error) {
			return s.storages.Comments.ListThreads(ctx, postLocalID)
		})
	})
}

func (s *clientCommentService) Stop() {
	s.slot.Close()
}

// Refresh reloads the post with its comments from the server.
func (s *clientCommentService) Refresh(ctx context.Context, postLocalID int64) error {
	return s.posts.RefreshPost(ctx, postLocalID)
}
