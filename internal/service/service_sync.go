package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-social-sync/internal/app"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/internal/validators"
	"github.com/MKhiriev/go-social-sync/models"
)

// syncService is the concrete implementation of SyncService.
// Items are created one by one through the feed repository, each under an
// idempotency key, so a batch replayed after a lost response yields the
// same server ids and no duplicates.
type syncService struct {
	feed      store.FeedRepository
	validator validators.Validator
	logger    *logger.Logger
}

// NewSyncService constructs a SyncService over feed.
func NewSyncService(feed store.FeedRepository, validator validators.Validator, logger *logger.Logger) SyncService {
	return &syncService{feed: feed, validator: validator, logger: logger}
}

// Sync implements SyncService.
//
// Every item ends up in exactly one of Synced or Rejected. A storage
// failure aborts the batch; items created before it keep their keys, so
// the client's retry picks them up as replays.
// ctx cancellation is checked before each item.
func (s *syncService) Sync(ctx context.Context, userID, clientID string, req models.SyncRequest) (models.SyncResponse, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, req); err != nil {
		log.Debug().Err(err).Str("func", "syncService.Sync").Str("user_id", userID).Msg("batch rejected")
		return models.SyncResponse{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	resp := models.SyncResponse{Synced: make([]models.SyncAck, 0, len(req.PendingPosts))}

	for _, item := range req.PendingPosts {
		if err := ctx.Err(); err != nil {
			return models.SyncResponse{}, err
		}

		if err := s.validator.Validate(ctx, item); err != nil {
			resp.Rejected = append(resp.Rejected, models.SyncRejection{LocalID: item.LocalID, Reason: rejectionReason(err)})
			continue
		}
		in, err := normalizePostInput(ctx, s.validator, models.PostInput{
			Title:       item.Title,
			Description: item.Description,
			Images:      item.Images,
		})
		if err != nil {
			resp.Rejected = append(resp.Rejected, models.SyncRejection{LocalID: item.LocalID, Reason: rejectionReason(err)})
			continue
		}

		key := &store.IdempotencyKey{UserID: userID, ClientID: clientID, LocalID: item.LocalID}
		post, existed, err := s.feed.CreatePost(ctx, userID, in, item.CreatedAt, key)
		if err != nil {
			log.Err(err).Str("func", "syncService.Sync").Int64("local_id", item.LocalID).Msg("create failed")
			return models.SyncResponse{}, err
		}

		log.Debug().Str("func", "syncService.Sync").
			Int64("local_id", item.LocalID).Str("server_id", post.ID).Bool("replayed", existed).
			Msg("pending post acknowledged")
		resp.Synced = append(resp.Synced, models.SyncAck{LocalID: item.LocalID, ServerID: post.ID})
	}

	log.Info().Str("func", "syncService.Sync").Str("user_id", userID).
		Int("synced", len(resp.Synced)).Int("rejected", len(resp.Rejected)).
		Msg("sync batch processed")

	return resp, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyTitle):
		return app.MsgTitleRequired
	case errors.Is(err, validators.ErrInvalidContent):
		return validators.Reason(err)
	default:
		return app.MsgInvalidDataProvided
	}
}
