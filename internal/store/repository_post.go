package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/models"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// localPostRepository is the SQLite-backed implementation of
// [PostRepository].
type localPostRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewLocalPostRepository constructs a [PostRepository] backed by db.
func NewLocalPostRepository(db *DB, logger *logger.Logger) PostRepository {
	logger.Debug().Msg("creating local post repository")
	return &localPostRepository{db: db, logger: logger}
}

func postFields(p *models.Post) []any {
	return []any{
		&p.LocalID, &p.ServerID, &p.OwnerID, &p.Synced, &p.Title, &p.Description, &p.Images,
		&p.Likes, &p.Dislikes, &p.CommentCount, &p.MyVote, &p.PendingVote,
		&p.LocalRev, &p.SyncAttempts, &p.Abandoned, &p.LastSyncError, &p.CreatedAt, &p.UpdatedAt,
	}
}

func userFields(u *models.User) []any {
	return []any{&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Alias, &u.Phone, &u.Website, &u.Avatar, &u.CreatedAt, &u.UpdatedAt}
}

func scanPost(s rowScanner) (models.Post, error) {
	var p models.Post
	err := s.Scan(postFields(&p)...)
	return p, err
}

func scanPostView(s rowScanner) (models.PostView, error) {
	var v models.PostView
	dest := append(postFields(&v.Post), userFields(&v.Author)...)
	dest = append(dest, &v.IsFavorite)
	err := s.Scan(dest...)
	return v, err
}

func (r *localPostRepository) Insert(ctx context.Context, p models.Post) (int64, error) {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	id, err := r.db.insert(ctx, insertPost, []any{
		p.ServerID, p.OwnerID, p.Synced, p.Title, p.Description, p.Images,
		p.Likes, p.Dislikes, p.CommentCount, p.MyVote, p.PendingVote, p.LocalRev,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	}, tablePosts)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localPostRepository.Insert").Msg("failed to insert post")
		return 0, err
	}

	return id, nil
}

func (r *localPostRepository) GetByID(ctx context.Context, localID int64) (models.Post, error) {
	p, err := scanPost(r.db.conn(ctx).QueryRowContext(ctx, getPostByID, localID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, ErrNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localPostRepository.GetByID").Int64("local_id", localID).Msg("failed to scan post")
		return models.Post{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return p, nil
}

func (r *localPostRepository) LookupByServerID(ctx context.Context, serverID string) (models.Post, bool, error) {
	p, err := scanPost(r.db.conn(ctx).QueryRowContext(ctx, getPostByServerID, serverID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, false, nil
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localPostRepository.LookupByServerID").Msg("failed to scan post")
		return models.Post{}, false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return p, true, nil
}

func (r *localPostRepository) UpdateContent(ctx context.Context, localID int64, title, description string, images models.Images, at time.Time) error {
	return r.execOne(ctx, "localPostRepository.UpdateContent", updatePostContent,
		[]any{title, description, images, at.UTC(), localID})
}

func (r *localPostRepository) MergeRemote(ctx context.Context, localID int64, ownerID string, rp models.RemotePost) error {
	return r.execOne(ctx, "localPostRepository.MergeRemote", mergeRemotePost, []any{
		rp.ID, ownerID, rp.Likes, rp.Dislikes, rp.CommentCount, rp.CreatedAt.UTC(), rp.UpdatedAt.UTC(),
		rp.MyVote,
		rp.Title, rp.Description, models.Images(rp.Images),
		localID,
	})
}

func (r *localPostRepository) ApplyAck(ctx context.Context, localID int64, serverID string, rev int64) (bool, error) {
	var synced bool
	err := r.db.InTx(ctx, func(ctx context.Context) error {
		if err := r.execOne(ctx, "localPostRepository.ApplyAck", ackPost, []any{serverID, rev, localID}); err != nil {
			return err
		}
		p, err := r.GetByID(ctx, localID)
		if err != nil {
			return err
		}
		synced = p.Synced
		return nil
	})
	return synced, err
}

func (r *localPostRepository) RecordFailure(ctx context.Context, localID int64, reason string, maxAttempts int) (bool, error) {
	var abandoned bool
	err := r.db.InTx(ctx, func(ctx context.Context) error {
		if err := r.execOne(ctx, "localPostRepository.RecordFailure", failPost, []any{reason, maxAttempts, maxAttempts, localID}); err != nil {
			return err
		}
		p, err := r.GetByID(ctx, localID)
		if err != nil {
			return err
		}
		abandoned = p.Abandoned
		return nil
	})
	return abandoned, err
}

func (r *localPostRepository) NoteFailure(ctx context.Context, localID int64, reason string) error {
	return r.execOne(ctx, "localPostRepository.NoteFailure", notePostFailure, []any{reason, localID})
}

func (r *localPostRepository) SetAbandoned(ctx context.Context, localID int64, abandoned bool) error {
	return r.execOne(ctx, "localPostRepository.SetAbandoned", setPostAbandoned, []any{abandoned, abandoned, localID})
}

func (r *localPostRepository) DeleteByID(ctx context.Context, localID int64) error {
	return r.execOne(ctx, "localPostRepository.DeleteByID", deletePostByID, []any{localID}, tableComments, tableFavorites)
}

func (r *localPostRepository) DeleteByServerID(ctx context.Context, serverID string) error {
	return r.execOne(ctx, "localPostRepository.DeleteByServerID", deletePostByServerID, []any{serverID}, tableComments, tableFavorites)
}

func (r *localPostRepository) MergeDuplicate(ctx context.Context, keep, drop int64) error {
	return r.db.InTx(ctx, func(ctx context.Context) error {
		if _, err := r.db.exec(ctx, moveCommentsToPost, []any{keep, drop}, tableComments); err != nil {
			return err
		}
		if _, err := r.db.exec(ctx, copyFavoritesToPost, []any{keep, drop}, tableFavorites); err != nil {
			return err
		}
		return r.DeleteByID(ctx, drop)
	})
}

func (r *localPostRepository) ListPending(ctx context.Context, ownerID string) ([]models.Post, error) {
	return r.listPosts(ctx, "localPostRepository.ListPending", listPendingPosts, ownerID)
}

func (r *localPostRepository) ListAbandoned(ctx context.Context, ownerID string) ([]models.Post, error) {
	return r.listPosts(ctx, "localPostRepository.ListAbandoned", listAbandonedPosts, ownerID)
}

func (r *localPostRepository) ListPendingVotes(ctx context.Context) ([]models.Post, error) {
	return r.listPosts(ctx, "localPostRepository.ListPendingVotes", listPendingVotes)
}

func (r *localPostRepository) ListViews(ctx context.Context, viewerID string, q models.PostQuery) ([]models.PostView, error) {
	log := logger.FromContext(ctx)

	query, args, err := postViewQuery(viewerID).
		Where(postFilter(q)).
		OrderBy(postOrder(q)...).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "localPostRepository.ListViews").Msg("failed to build query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "localPostRepository.ListViews").Msg("failed to query posts")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	views := make([]models.PostView, 0)
	for rows.Next() {
		v, err := scanPostView(rows)
		if err != nil {
			log.Err(err).Str("func", "localPostRepository.ListViews").Msg("failed to scan post")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		views = append(views, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return views, nil
}

func (r *localPostRepository) GetView(ctx context.Context, viewerID string, localID int64) (models.PostView, error) {
	query, args, err := postViewQuery(viewerID).Where(sq.Eq{"p.local_id": localID}).ToSql()
	if err != nil {
		return models.PostView{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	v, err := scanPostView(r.db.conn(ctx).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.PostView{}, ErrNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localPostRepository.GetView").Msg("failed to scan post")
		return models.PostView{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return v, nil
}

func (r *localPostRepository) ApplyLocalVote(ctx context.Context, localID int64, vote models.VoteKind) error {
	return r.db.InTx(ctx, func(ctx context.Context) error {
		p, err := r.GetByID(ctx, localID)
		if err != nil {
			return err
		}

		likes, dislikes := p.Likes, p.Dislikes
		switch p.MyVote {
		case models.VoteLike:
			likes--
		case models.VoteDislike:
			dislikes--
		}
		switch vote {
		case models.VoteLike:
			likes++
		case models.VoteDislike:
			dislikes++
		}

		return r.execOne(ctx, "localPostRepository.ApplyLocalVote", setPostVote,
			[]any{max(likes, 0), max(dislikes, 0), vote, vote, localID})
	})
}

func (r *localPostRepository) ApplyVoteResult(ctx context.Context, localID int64, vote models.VoteKind, likes, dislikes int64) error {
	return r.execOne(ctx, "localPostRepository.ApplyVoteResult", applyPostVoteResult,
		[]any{likes, dislikes, vote, vote, vote, localID})
}

func (r *localPostRepository) AddTombstone(ctx context.Context, serverID, ownerID string) error {
	_, err := r.db.exec(ctx, insertTombstone, []any{serverID, ownerID, time.Now().UTC()}, tableTombstones)
	return err
}

func (r *localPostRepository) RemoveTombstone(ctx context.Context, serverID string) error {
	_, err := r.db.exec(ctx, deleteTombstone, []any{serverID}, tableTombstones)
	return err
}

func (r *localPostRepository) ListTombstones(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, listTombstones, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return ids, nil
}

func (r *localPostRepository) IsTombstoned(ctx context.Context, serverID string) (bool, error) {
	var n int
	if err := r.db.conn(ctx).QueryRowContext(ctx, existsTombstone, serverID).Scan(&n); err != nil {
		return false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return n > 0, nil
}

// execOne runs a statement that must touch exactly one post. cascades
// names tables changed through foreign keys.
func (r *localPostRepository) execOne(ctx context.Context, fn, query string, args []any, cascades ...string) error {
	n, err := r.db.exec(ctx, query, args, append([]string{tablePosts}, cascades...)...)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", fn).Msg("failed to update post")
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *localPostRepository) listPosts(ctx context.Context, fn, query string, args ...any) ([]models.Post, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to query posts")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			log.Err(err).Str("func", fn).Msg("failed to scan post")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		posts = append(posts, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return posts, nil
}

func postViewQuery(viewerID string) sq.SelectBuilder {
	return builder.
		Select(postColumns, authorColumns, "CASE WHEN f.post_id IS NULL THEN 0 ELSE 1 END AS is_favorite").
		From("posts p").
		Join("users u ON u.id = p.owner_id").
		LeftJoin("favorites f ON f.post_id = p.local_id AND f.user_id = ? AND f.deleted = 0", viewerID)
}

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func postFilter(q models.PostQuery) sq.And {
	filter := sq.And{}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + likeEscaper.Replace(s) + "%"
		filter = append(filter, sq.Or{
			sq.Expr(`p.title LIKE ? ESCAPE '\'`, like),
			sq.Expr(`p.description LIKE ? ESCAPE '\'`, like),
		})
	}
	if a := strings.TrimSpace(q.Author); a != "" {
		filter = append(filter, sq.Or{sq.Eq{"u.alias": a}, sq.Eq{"u.id": a}})
	}
	if q.OwnerID != "" {
		filter = append(filter, sq.Eq{"p.owner_id": q.OwnerID})
	}
	if q.FavoritesOnly {
		filter = append(filter, sq.Expr("f.post_id IS NOT NULL"))
	}
	return filter
}

func postOrder(q models.PostQuery) []string {
	column := "p.created_at"
	switch q.OrderBy {
	case models.OrderByLikes:
		column = "p.likes"
	case models.OrderByComments:
		column = "p.comment_count"
	case models.OrderByTitle:
		column = "p.title"
	}

	direction := "DESC"
	if strings.EqualFold(q.Direction, models.DirectionAsc) {
		direction = "ASC"
	}

	return []string{column + " " + direction, "p.local_id " + direction}
}
