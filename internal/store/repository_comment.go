package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/models"
)

// localCommentRepository is the SQLite-backed implementation of
// [CommentRepository].
type localCommentRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewLocalCommentRepository constructs a [CommentRepository] backed by db.
func NewLocalCommentRepository(db *DB, logger *logger.Logger) CommentRepository {
	logger.Debug().Msg("creating local comment repository")
	return &localCommentRepository{db: db, logger: logger}
}

func commentFields(c *models.Comment) []any {
	return []any{
		&c.LocalID, &c.ServerID, &c.PostID, &c.ParentID, &c.AuthorID, &c.Synced, &c.Body, &c.Likes,
		&c.LikedByMe, &c.PendingLike, &c.LocalRev, &c.SyncAttempts, &c.Abandoned, &c.LastSyncError,
		&c.CreatedAt, &c.UpdatedAt,
	}
}

func scanComment(s rowScanner) (models.Comment, error) {
	var c models.Comment
	err := s.Scan(commentFields(&c)...)
	return c, err
}

func (r *localCommentRepository) Insert(ctx context.Context, c models.Comment) (int64, error) {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}

	id, err := r.db.insert(ctx, insertComment, []any{
		c.ServerID, c.PostID, c.ParentID, c.AuthorID, c.Synced, c.Body, c.Likes, c.LikedByMe, c.PendingLike,
		c.LocalRev, c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	}, tableComments)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localCommentRepository.Insert").Msg("failed to insert comment")
		return 0, err
	}

	return id, nil
}

func (r *localCommentRepository) GetByID(ctx context.Context, localID int64) (models.Comment, error) {
	c, err := scanComment(r.db.conn(ctx).QueryRowContext(ctx, getCommentByID, localID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, ErrNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localCommentRepository.GetByID").Msg("failed to scan comment")
		return models.Comment{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return c, nil
}

func (r *localCommentRepository) LookupByServerID(ctx context.Context, serverID string) (models.Comment, bool, error) {
	c, err := scanComment(r.db.conn(ctx).QueryRowContext(ctx, getCommentByServerID, serverID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, false, nil
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localCommentRepository.LookupByServerID").Msg("failed to scan comment")
		return models.Comment{}, false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return c, true, nil
}

func (r *localCommentRepository) MergeRemote(ctx context.Context, localID int64, postID int64, parentID *int64, rc models.RemoteComment) error {
	return r.execOne(ctx, "localCommentRepository.MergeRemote", mergeRemoteComment, []any{
		rc.ID, postID, parentID, rc.Author.ID, rc.Likes, rc.CreatedAt.UTC(), rc.UpdatedAt.UTC(),
		rc.LikedByMe,
		rc.Body,
		localID,
	})
}

func (r *localCommentRepository) ApplyAck(ctx context.Context, localID int64, serverID string, rev int64) (bool, error) {
	var synced bool
	err := r.db.InTx(ctx, func(ctx context.Context) error {
		if err := r.execOne(ctx, "localCommentRepository.ApplyAck", ackComment, []any{serverID, rev, localID}); err != nil {
			return err
		}
		c, err := r.GetByID(ctx, localID)
		if err != nil {
			return err
		}
		synced = c.Synced
		return nil
	})
	return synced, err
}

func (r *localCommentRepository) RecordFailure(ctx context.Context, localID int64, reason string, maxAttempts int) (bool, error) {
	var abandoned bool
	err := r.db.InTx(ctx, func(ctx context.Context) error {
		if err := r.execOne(ctx, "localCommentRepository.RecordFailure", failComment, []any{reason, maxAttempts, maxAttempts, localID}); err != nil {
			return err
		}
		c, err := r.GetByID(ctx, localID)
		if err != nil {
			return err
		}
		abandoned = c.Abandoned
		return nil
	})
	return abandoned, err
}

func (r *localCommentRepository) NoteFailure(ctx context.Context, localID int64, reason string) error {
	return r.execOne(ctx, "localCommentRepository.NoteFailure", noteCommentFailure, []any{reason, localID})
}

func (r *localCommentRepository) SetAbandoned(ctx context.Context, localID int64, abandoned bool) error {
	return r.execOne(ctx, "localCommentRepository.SetAbandoned", setCommentAbandoned, []any{abandoned, abandoned, localID})
}

func (r *localCommentRepository) DeleteByID(ctx context.Context, localID int64) error {
	return r.execOne(ctx, "localCommentRepository.DeleteByID", deleteCommentByID, []any{localID})
}

func (r *localCommentRepository) MergeDuplicate(ctx context.Context, keep, drop int64) error {
	return r.db.InTx(ctx, func(ctx context.Context) error {
		if _, err := r.db.exec(ctx, moveReplies, []any{keep, drop}, tableComments); err != nil {
			return err
		}
		return r.DeleteByID(ctx, drop)
	})
}

func (r *localCommentRepository) ListPending(ctx context.Context, authorID string) ([]models.Comment, error) {
	return r.listComments(ctx, "localCommentRepository.ListPending", listPendingComments, authorID)
}

func (r *localCommentRepository) ListPendingLikes(ctx context.Context) ([]models.Comment, error) {
	return r.listComments(ctx, "localCommentRepository.ListPendingLikes", listPendingLikes)
}

func (r *localCommentRepository) ListThreads(ctx context.Context, postID int64) ([]models.CommentThread, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.conn(ctx).QueryContext(ctx, listCommentsOfPost, postID)
	if err != nil {
		log.Err(err).Str("func", "localCommentRepository.ListThreads").Msg("failed to query comments")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var views []models.CommentView
	for rows.Next() {
		var v models.CommentView
		if err = rows.Scan(append(commentFields(&v.Comment), userFields(&v.Author)...)...); err != nil {
			log.Err(err).Str("func", "localCommentRepository.ListThreads").Msg("failed to scan comment")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		views = append(views, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return buildThreads(views), nil
}

// buildThreads groups ordered comments into top-level threads. Replies whose
// parent is missing are dropped.
func buildThreads(views []models.CommentView) []models.CommentThread {
	threads := make([]models.CommentThread, 0)
	index := make(map[int64]int)

	for _, v := range views {
		if !v.IsReply() {
			index[v.LocalID] = len(threads)
			threads = append(threads, models.CommentThread{CommentView: v, Replies: []models.CommentView{}})
		}
	}
	for _, v := range views {
		if !v.IsReply() {
			continue
		}
		if i, ok := index[*v.ParentID]; ok {
			threads[i].Replies = append(threads[i].Replies, v)
		}
	}

	return threads
}

func (r *localCommentRepository) ApplyLocalLike(ctx context.Context, localID int64) (bool, error) {
	n, err := r.db.exec(ctx, likeComment, []any{localID}, tableComments)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localCommentRepository.ApplyLocalLike").Msg("failed to like comment")
		return false, err
	}
	if n == 0 {
		if _, err = r.GetByID(ctx, localID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (r *localCommentRepository) ApplyLikeResult(ctx context.Context, localID int64, likes int64) error {
	return r.execOne(ctx, "localCommentRepository.ApplyLikeResult", applyCommentLikeResult, []any{likes, localID})
}

func (r *localCommentRepository) execOne(ctx context.Context, fn, query string, args []any) error {
	n, err := r.db.exec(ctx, query, args, tableComments)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", fn).Msg("failed to update comment")
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *localCommentRepository) listComments(ctx context.Context, fn, query string, args ...any) ([]models.Comment, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to query comments")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			log.Err(err).Str("func", fn).Msg("failed to scan comment")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		comments = append(comments, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return comments, nil
}
