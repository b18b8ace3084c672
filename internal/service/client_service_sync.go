package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-social-sync/internal/adapter"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/network"
	"github.com/MKhiriev/go-social-sync/internal/session"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/models"
)

type clientSyncService struct {
	storages *store.ClientStorages
	adapter  adapter.ServerAdapter
	session  *session.Session
	monitor  network.Monitor
	pusher   *pusher
	logger   *logger.Logger
}

func newClientSyncService(
	storages *store.ClientStorages,
	serverAdapter adapter.ServerAdapter,
	sess *session.Session,
	monitor network.Monitor,
	pusher *pusher,
	logger *logger.Logger,
) *clientSyncService {
	return &clientSyncService{
		storages: storages,
		adapter:  serverAdapter,
		session:  sess,
		monitor:  monitor,
		pusher:   pusher,
		logger:   logger,
	}
}

// pendingWork is everything waiting for delivery at the start of a pass.
type pendingWork struct {
	tombstones []string
	posts      []models.Post
	comments   []models.Comment
	votes      []models.Post
	likes      []models.Comment
	favorites  []models.PendingFavorite
}

func (w pendingWork) empty() bool {
	return len(w.tombstones) == 0 && len(w.posts) == 0 && len(w.comments) == 0 &&
		len(w.votes) == 0 && len(w.likes) == 0 && len(w.favorites) == 0
}

// Run performs one reconciliation pass. Deletes go first, then new posts in
// a single /sync batch, then edited posts, comments (top-level before
// replies), votes, likes and favorites. Remote failures never abort the pass;
// rows that could not be delivered are reported and retried later.
func (s *clientSyncService) Run(ctx context.Context) (models.SyncReport, error) {
	log := s.logger.With().Str("func", "clientSyncService.Run").Logger()

	if !s.monitor.IsOnline() {
		log.Debug().Msg("offline, sync postponed")
		return models.SyncReport{Status: models.SyncRetry}, nil
	}

	userID, err := currentUser(s.session)
	if err != nil {
		log.Debug().Msg("no session, nothing to sync")
		return models.SyncReport{Status: models.SyncNoop}, nil
	}

	work, err := s.collect(ctx, userID)
	if err != nil {
		log.Error().Err(err).Msg("failed to collect pending rows")
		return models.SyncReport{}, err
	}
	if work.empty() {
		return models.SyncReport{Status: models.SyncNoop}, nil
	}

	var report models.SyncReport

	for _, serverID := range work.tombstones {
		report.Pushed++
		if _, err = s.pusher.pushDelete(ctx, serverID); err != nil {
			log.Warn().Err(err).Str("server_id", serverID).Msg("remote delete deferred")
			report.Deferred++
		}
	}

	var creates, updates []models.Post
	for _, p := range work.posts {
		if p.HasServerID() {
			updates = append(updates, p)
		} else {
			creates = append(creates, p)
		}
	}

	if err = s.pushBatch(ctx, creates, &report); err != nil {
		return report, err
	}

	for _, p := range updates {
		outcome, err := s.pusher.pushPost(ctx, p)
		if called(outcome, err) {
			report.Pushed++
		}
		s.countPost(&report, p.LocalID, outcome, err)
	}

	for _, c := range work.comments {
		outcome, err := s.pusher.pushComment(ctx, c)
		if called(outcome, err) {
			report.Pushed++
		}
		if outcome != pushAcked {
			report.UnresolvedComments = append(report.UnresolvedComments, c.LocalID)
		}
		if err != nil {
			log.Debug().Err(err).Int64("local_id", c.LocalID).Msg("comment not delivered")
		}
	}

	for _, p := range work.votes {
		report.Pushed++
		if outcome, err := s.pusher.pushVote(ctx, p); outcome == pushDeferred {
			log.Debug().Err(err).Int64("local_id", p.LocalID).Msg("vote deferred")
			report.Deferred++
		}
	}
	for _, c := range work.likes {
		report.Pushed++
		if outcome, err := s.pusher.pushLike(ctx, c); outcome == pushDeferred {
			log.Debug().Err(err).Int64("local_id", c.LocalID).Msg("like deferred")
			report.Deferred++
		}
	}
	for _, f := range work.favorites {
		report.Pushed++
		if outcome, err := s.pusher.pushFavorite(ctx, f); outcome == pushDeferred {
			log.Debug().Err(err).Int64("post_id", f.PostID).Msg("favorite deferred")
			report.Deferred++
		}
	}

	report.Status = models.SyncSuccess
	if !report.Done() {
		report.Status = models.SyncRetry
	}

	log.Info().
		Stringer("status", report.Status).
		Int("pushed", report.Pushed).
		Int("acknowledged", report.Acknowledged).
		Int("unresolved", len(report.Unresolved)).
		Int("unresolved_comments", len(report.UnresolvedComments)).
		Int("abandoned", len(report.Abandoned)).
		Int("deferred", report.Deferred).
		Msg("sync pass finished")

	return report, nil
}

func (s *clientSyncService) collect(ctx context.Context, userID string) (pendingWork, error) {
	var (
		w   pendingWork
		err error
	)

	if w.tombstones, err = s.storages.Posts.ListTombstones(ctx, userID); err != nil {
		return w, fmt.Errorf("list tombstones: %w", err)
	}
	if w.posts, err = s.storages.Posts.ListPending(ctx, userID); err != nil {
		return w, fmt.Errorf("list pending posts: %w", err)
	}
	if w.comments, err = s.storages.Comments.ListPending(ctx, userID); err != nil {
		return w, fmt.Errorf("list pending comments: %w", err)
	}
	if w.votes, err = s.storages.Posts.ListPendingVotes(ctx); err != nil {
		return w, fmt.Errorf("list pending votes: %w", err)
	}
	if w.likes, err = s.storages.Comments.ListPendingLikes(ctx); err != nil {
		return w, fmt.Errorf("list pending likes: %w", err)
	}
	if w.favorites, err = s.storages.Favorites.ListPending(ctx, userID); err != nil {
		return w, fmt.Errorf("list pending favorites: %w", err)
	}
	return w, nil
}

// pushBatch submits posts without a server id in one /sync request and
// applies the acknowledgments in one transaction. The local id is the
// correlation token; the server deduplicates replays by client id and local
// id.
func (s *clientSyncService) pushBatch(ctx context.Context, posts []models.Post, report *models.SyncReport) error {
	batch := make(map[int64]models.Post, len(posts))
	req := models.SyncRequest{PendingPosts: make([]models.PendingPost, 0, len(posts))}

	defer func() {
		for localID := range batch {
			s.pusher.inflight.release(postKey(localID))
		}
	}()

	for _, p := range posts {
		if !s.pusher.inflight.acquire(postKey(p.LocalID)) {
			report.Unresolved = append(report.Unresolved, p.LocalID)
			continue
		}

		images := []string(p.Images)
		if images == nil {
			images = []string{}
		}
		batch[p.LocalID] = p
		req.PendingPosts = append(req.PendingPosts, models.PendingPost{
			LocalID:     p.LocalID,
			Title:       p.Title,
			Description: p.Description,
			Images:      images,
			CreatedAt:   p.CreatedAt.UTC(),
		})
	}
	if len(req.PendingPosts) == 0 {
		return nil
	}

	report.Pushed++
	resp, err := s.adapter.Sync(ctx, req)
	if err != nil {
		s.logger.Warn().Err(mapAdapterError(err)).Int("items", len(req.PendingPosts)).Msg("sync batch failed")
		for _, item := range req.PendingPosts {
			report.Unresolved = append(report.Unresolved, item.LocalID)
		}
		return nil
	}

	pending := make(map[int64]models.Post, len(batch))
	for id, p := range batch {
		pending[id] = p
	}

	return s.storages.DB.InTx(ctx, func(ctx context.Context) error {
		for _, ack := range resp.Synced {
			p, ok := pending[ack.LocalID]
			if !ok {
				s.logger.Warn().Int64("local_id", ack.LocalID).Str("server_id", ack.ServerID).Msg("acknowledgment for unknown local id")
				report.Unresolved = append(report.Unresolved, ack.LocalID)
				continue
			}
			delete(pending, ack.LocalID)

			outcome, err := s.pusher.ackPost(ctx, p, ack.ServerID)
			if err != nil {
				return fmt.Errorf("apply ack for post %d: %w", p.LocalID, err)
			}
			s.countPost(report, p.LocalID, outcome, nil)
		}

		for _, rej := range resp.Rejected {
			if _, ok := pending[rej.LocalID]; !ok {
				continue
			}
			delete(pending, rej.LocalID)

			outcome, err := s.pusher.rejectPost(ctx, rej.LocalID, rej.Reason)
			if err != nil {
				return err
			}
			s.countPost(report, rej.LocalID, outcome, nil)
		}

		// neither acknowledged nor rejected
		for localID := range pending {
			outcome, err := s.pusher.rejectPost(ctx, localID, "not acknowledged by server")
			if err != nil {
				return err
			}
			s.countPost(report, localID, outcome, nil)
		}
		return nil
	})
}

func (s *clientSyncService) countPost(report *models.SyncReport, localID int64, outcome pushOutcome, err error) {
	switch outcome {
	case pushAcked:
		report.Acknowledged++
	case pushAbandoned:
		report.Abandoned = append(report.Abandoned, localID)
	default:
		report.Unresolved = append(report.Unresolved, localID)
	}
	if err != nil {
		s.logger.Debug().Err(err).Int64("local_id", localID).Msg("post not delivered")
	}
}

// called reports whether a push reached the server.
func called(outcome pushOutcome, err error) bool {
	return outcome != pushDeferred || err != nil
}
