package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/internal/validators"
	"github.com/MKhiriev/go-social-sync/models"
)

type feedService struct {
	feed      store.FeedRepository
	validator validators.Validator
	logger    *logger.Logger
}

func NewFeedService(feed store.FeedRepository, validator validators.Validator, logger *logger.Logger) FeedService {
	return &feedService{feed: feed, validator: validator, logger: logger}
}

// normalizePostInput validates in and trims the title.
func normalizePostInput(ctx context.Context, v validators.Validator, in models.PostInput) (models.PostInput, error) {
	if err := v.Validate(ctx, in); err != nil {
		return in, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Images == nil {
		in.Images = []string{}
	}
	return in, nil
}

func (s *feedService) ListPosts(ctx context.Context, viewerID string, q models.PostQuery) ([]models.RemotePost, error) {
	// только серверные фильтры
	q.OwnerID, q.FavoritesOnly = "", false
	return s.feed.ListPosts(ctx, viewerID, q)
}

func (s *feedService) GetPost(ctx context.Context, viewerID, id string) (models.RemotePost, error) {
	return s.feed.GetPost(ctx, viewerID, id, true)
}

func (s *feedService) CreatePost(ctx context.Context, userID, clientID string, in models.PostInput) (models.RemotePost, error) {
	in, err := normalizePostInput(ctx, s.validator, in)
	if err != nil {
		return models.RemotePost{}, err
	}

	var key *store.IdempotencyKey
	if in.LocalID != nil {
		key = &store.IdempotencyKey{UserID: userID, ClientID: clientID, LocalID: *in.LocalID}
	}

	post, existed, err := s.feed.CreatePost(ctx, userID, in, time.Time{}, key)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "feedService.CreatePost").Str("user_id", userID).Msg("create failed")
		return models.RemotePost{}, err
	}
	if existed {
		logger.FromContext(ctx).Info().Str("func", "feedService.CreatePost").Str("server_id", post.ID).Msg("create replayed")
	}
	return post, nil
}

// owned loads the post and checks that userID wrote it.
func (s *feedService) owned(ctx context.Context, userID, id string) (models.RemotePost, error) {
	post, err := s.feed.GetPost(ctx, userID, id, false)
	if err != nil {
		return models.RemotePost{}, err
	}
	if post.Author.ID != userID {
		return models.RemotePost{}, fmt.Errorf("%w: post %s", ErrAccessDenied, id)
	}
	return post, nil
}

func (s *feedService) UpdatePost(ctx context.Context, userID, id string, in models.PostInput) (models.RemotePost, error) {
	in, err := normalizePostInput(ctx, s.validator, in)
	if err != nil {
		return models.RemotePost{}, err
	}
	if _, err = s.owned(ctx, userID, id); err != nil {
		return models.RemotePost{}, err
	}
	return s.feed.UpdatePost(ctx, userID, id, in)
}

func (s *feedService) DeletePost(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.feed.DeletePost(ctx, id)
}

func (s *feedService) Vote(ctx context.Context, userID, id string, vote models.VoteKind) (models.VoteResponse, error) {
	if err := s.validator.Validate(ctx, models.VoteRequest{Vote: vote}); err != nil {
		return models.VoteResponse{}, err
	}
	return s.feed.Vote(ctx, userID, id, vote)
}

func (s *feedService) SetFavorite(ctx context.Context, userID, id string, favorite bool) error {
	return s.feed.SetFavorite(ctx, userID, id, favorite)
}

func (s *feedService) Favorites(ctx context.Context, userID string) ([]models.RemotePost, error) {
	return s.feed.Favorites(ctx, userID)
}

func (s *feedService) UserPosts(ctx context.Context, viewerID, authorID string) ([]models.RemotePost, error) {
	return s.feed.ListPosts(ctx, viewerID, models.PostQuery{OwnerID: authorID})
}

func (s *feedService) AddComment(ctx context.Context, userID, postID string, in models.CommentInput) (models.RemoteComment, error) {
	if err := s.validator.Validate(ctx, in); err != nil {
		return models.RemoteComment{}, err
	}
	return s.feed.AddComment(ctx, userID, postID, "", strings.TrimSpace(in.Body))
}

func (s *feedService) Reply(ctx context.Context, userID, commentID string, in models.CommentInput) (models.RemoteComment, error) {
	if err := s.validator.Validate(ctx, in); err != nil {
		return models.RemoteComment{}, err
	}

	parent, err := s.feed.GetComment(ctx, userID, commentID)
	if err != nil {
		return models.RemoteComment{}, err
	}
	return s.feed.AddComment(ctx, userID, parent.PostID, parent.ID, strings.TrimSpace(in.Body))
}

func (s *feedService) LikeComment(ctx context.Context, userID, commentID string) (models.LikeResponse, error) {
	return s.feed.LikeComment(ctx, userID, commentID)
}
