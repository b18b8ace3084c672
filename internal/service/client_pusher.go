package service

import (
	"context"

	"github.com/MKhiriev/go-social-sync/internal/adapter"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/models"
)

// pushOutcome is the result of delivering one pending row.
type pushOutcome int

const (
	// pushAcked means the server accepted the row and it is synced.
	pushAcked pushOutcome = iota
	// pushStale means the server accepted the row but it was edited
	// locally in the meantime, so it stays pending.
	pushStale
	// pushDeferred means the row could not be delivered now: transport
	// failure, missing parent identity or a concurrent push.
	pushDeferred
	// pushRejected means the server refused the row permanently.
	pushRejected
	// pushAbandoned is pushRejected after the last allowed attempt.
	pushAbandoned
)

// pusher delivers single pending rows. The foreground write path and the
// sync engine share it so both apply acknowledgments the same way.
type pusher struct {
	storages    *store.ClientStorages
	adapter     adapter.ServerAdapter
	mapper      *identityMapper
	inflight    *inflight
	maxAttempts int
	logger      *logger.Logger
}

func newPusher(storages *store.ClientStorages, serverAdapter adapter.ServerAdapter, mapper *identityMapper, maxAttempts int, logger *logger.Logger) *pusher {
	return &pusher{
		storages:    storages,
		adapter:     serverAdapter,
		mapper:      mapper,
		inflight:    newInflight(),
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// pushPost creates p on the server, or updates it when it already has a
// server id.
func (ps *pusher) pushPost(ctx context.Context, p models.Post) (pushOutcome, error) {
	key := postKey(p.LocalID)
	if !ps.inflight.acquire(key) {
		return pushDeferred, nil
	}
	defer ps.inflight.release(key)

	in := models.PostInput{Title: p.Title, Description: p.Description, Images: []string(p.Images)}
	if in.Images == nil {
		in.Images = []string{}
	}

	var (
		remote models.RemotePost
		err    error
	)
	if p.HasServerID() {
		remote, err = ps.adapter.UpdatePost(ctx, p.RemoteID(), in)
	} else {
		localID := p.LocalID
		in.LocalID = &localID
		remote, err = ps.adapter.CreatePost(ctx, in)
	}
	if err != nil {
		return ps.postFailed(ctx, p.LocalID, err)
	}

	synced, err := ps.mapper.adoptPost(ctx, p.LocalID, p.LocalRev, remote)
	if isLocalNotFound(err) {
		// deleted locally while the push was in flight
		return pushAcked, ps.orphan(ctx, remote.ID, p.OwnerID)
	}
	if err != nil {
		return pushDeferred, err
	}
	if !synced {
		return pushStale, nil
	}
	return pushAcked, nil
}

// ackPost applies one /sync acknowledgment.
func (ps *pusher) ackPost(ctx context.Context, p models.Post, serverID string) (pushOutcome, error) {
	synced, err := ps.mapper.acknowledgePost(ctx, p.LocalID, serverID, p.LocalRev)
	if isLocalNotFound(err) {
		return pushAcked, ps.orphan(ctx, serverID, p.OwnerID)
	}
	if err != nil {
		return pushDeferred, err
	}
	if !synced {
		return pushStale, nil
	}
	return pushAcked, nil
}

// rejectPost records a permanent refusal of p. A repeated try within one
// sync run only refreshes the error; the run has already counted its
// attempt.
func (ps *pusher) rejectPost(ctx context.Context, localID int64, reason string) (pushOutcome, error) {
	if isRepeatTry(ctx) {
		if err := ps.storages.Posts.NoteFailure(ctx, localID, reason); err != nil {
			return pushDeferred, err
		}
		return pushRejected, nil
	}

	abandoned, err := ps.storages.Posts.RecordFailure(ctx, localID, reason, ps.maxAttempts)
	if err != nil {
		return pushDeferred, err
	}

	ps.logger.Warn().Str("func", "pusher.rejectPost").Int64("local_id", localID).
		Str("reason", reason).Bool("abandoned", abandoned).Msg("server rejected post")
	if abandoned {
		return pushAbandoned, nil
	}
	return pushRejected, nil
}

func (ps *pusher) postFailed(ctx context.Context, localID int64, err error) (pushOutcome, error) {
	mapped := mapAdapterError(err)
	if !isPermanent(mapped) {
		return pushDeferred, mapped
	}

	outcome, ferr := ps.rejectPost(ctx, localID, mapped.Error())
	if ferr != nil {
		return outcome, ferr
	}
	return outcome, mapped
}

// orphan schedules the remote delete of a post that was acknowledged after
// its local row had been deleted.
func (ps *pusher) orphan(ctx context.Context, serverID, ownerID string) error {
	ps.logger.Info().Str("func", "pusher.orphan").Str("server_id", serverID).Msg("post deleted during push, scheduling remote delete")
	return ps.storages.Posts.AddTombstone(ctx, serverID, ownerID)
}

// pushComment delivers a comment once its post, and for replies its
// parent, have server ids.
func (ps *pusher) pushComment(ctx context.Context, c models.Comment) (pushOutcome, error) {
	key := commentKey(c.LocalID)
	if !ps.inflight.acquire(key) {
		return pushDeferred, nil
	}
	defer ps.inflight.release(key)

	if c.HasServerID() {
		synced, err := ps.storages.Comments.ApplyAck(ctx, c.LocalID, c.RemoteID(), c.LocalRev)
		if err != nil {
			return pushDeferred, err
		}
		if !synced {
			return pushStale, nil
		}
		return pushAcked, nil
	}

	post, err := ps.storages.Posts.GetByID(ctx, c.PostID)
	if err != nil {
		return pushDeferred, err
	}
	if !post.HasServerID() {
		return pushDeferred, nil
	}

	in := models.CommentInput{Body: c.Body}
	var remote models.RemoteComment

	if c.ParentID != nil {
		parent, err := ps.storages.Comments.GetByID(ctx, *c.ParentID)
		if err != nil {
			return pushDeferred, err
		}
		if !parent.HasServerID() {
			return pushDeferred, nil
		}
		remote, err = ps.adapter.Reply(ctx, parent.RemoteID(), in)
		if err != nil {
			return ps.commentFailed(ctx, c.LocalID, err)
		}
	} else {
		remote, err = ps.adapter.AddComment(ctx, post.RemoteID(), in)
		if err != nil {
			return ps.commentFailed(ctx, c.LocalID, err)
		}
	}

	synced, err := ps.mapper.adoptComment(ctx, c.LocalID, c.LocalRev, remote)
	if isLocalNotFound(err) {
		ps.logger.Info().Str("func", "pusher.pushComment").Str("server_id", remote.ID).Msg("comment deleted during push")
		return pushAcked, nil
	}
	if err != nil {
		return pushDeferred, err
	}
	if !synced {
		return pushStale, nil
	}
	return pushAcked, nil
}

func (ps *pusher) commentFailed(ctx context.Context, localID int64, err error) (pushOutcome, error) {
	mapped := mapAdapterError(err)
	if !isPermanent(mapped) {
		return pushDeferred, mapped
	}

	if isRepeatTry(ctx) {
		if ferr := ps.storages.Comments.NoteFailure(ctx, localID, mapped.Error()); ferr != nil {
			return pushDeferred, ferr
		}
		return pushRejected, mapped
	}

	abandoned, ferr := ps.storages.Comments.RecordFailure(ctx, localID, mapped.Error(), ps.maxAttempts)
	if ferr != nil {
		return pushDeferred, ferr
	}
	if abandoned {
		return pushAbandoned, mapped
	}
	return pushRejected, mapped
}

// pushVote delivers the pending vote of p. A permanently refused vote is
// settled locally; the next refresh brings the server counters.
func (ps *pusher) pushVote(ctx context.Context, p models.Post) (pushOutcome, error) {
	vote := p.PendingVote
	if vote == models.VoteNone || !p.HasServerID() {
		return pushAcked, nil
	}

	resp, err := ps.adapter.Vote(ctx, p.RemoteID(), vote)
	if err != nil {
		mapped := mapAdapterError(err)
		if !isPermanent(mapped) {
			return pushDeferred, mapped
		}
		if serr := ps.storages.Posts.ApplyVoteResult(ctx, p.LocalID, vote, p.Likes, p.Dislikes); serr != nil {
			return pushDeferred, serr
		}
		return pushRejected, mapped
	}

	if err = ps.storages.Posts.ApplyVoteResult(ctx, p.LocalID, vote, resp.Likes, resp.Dislikes); err != nil {
		return pushDeferred, err
	}
	return pushAcked, nil
}

// pushLike delivers the pending like of c.
func (ps *pusher) pushLike(ctx context.Context, c models.Comment) (pushOutcome, error) {
	if !c.PendingLike || !c.HasServerID() {
		return pushAcked, nil
	}

	resp, err := ps.adapter.LikeComment(ctx, c.RemoteID())
	if err != nil {
		mapped := mapAdapterError(err)
		if !isPermanent(mapped) {
			return pushDeferred, mapped
		}
		if serr := ps.storages.Comments.ApplyLikeResult(ctx, c.LocalID, c.Likes); serr != nil {
			return pushDeferred, serr
		}
		return pushRejected, mapped
	}

	if err = ps.storages.Comments.ApplyLikeResult(ctx, c.LocalID, resp.Likes); err != nil {
		return pushDeferred, err
	}
	return pushAcked, nil
}

// pushFavorite delivers one favorite change.
func (ps *pusher) pushFavorite(ctx context.Context, f models.PendingFavorite) (pushOutcome, error) {
	favorite := !f.Deleted

	err := ps.adapter.SetFavorite(ctx, f.PostServerID, favorite)
	outcome := pushAcked
	if err != nil {
		mapped := mapAdapterError(err)
		if !isPermanent(mapped) {
			return pushDeferred, mapped
		}
		outcome, err = pushRejected, mapped
	}

	if serr := ps.storages.Favorites.MarkSynced(ctx, f.UserID, f.PostID, favorite); serr != nil {
		return pushDeferred, serr
	}
	return outcome, err
}

// pushDelete deletes a tombstoned post on the server. A post the server no
// longer has counts as deleted.
func (ps *pusher) pushDelete(ctx context.Context, serverID string) (pushOutcome, error) {
	if err := ps.adapter.DeletePost(ctx, serverID); err != nil {
		mapped := mapAdapterError(err)
		if !isRemoteNotFound(mapped) {
			return pushDeferred, mapped
		}
	}

	if err := ps.storages.Posts.RemoveTombstone(ctx, serverID); err != nil {
		return pushDeferred, err
	}
	return pushAcked, nil
}
