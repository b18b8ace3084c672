package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/models"
)

// identityMapper merges remote objects into the local database without
// ever creating two local rows for one server id.
//
// Every import runs in one transaction and writes in dependency order:
// users, posts, top-level comments, replies. Server-owned fields always
// win; content of a row with an unsynced local edit is kept.
type identityMapper struct {
	storages *store.ClientStorages
	logger   *logger.Logger
}

func newIdentityMapper(storages *store.ClientStorages, logger *logger.Logger) *identityMapper {
	return &identityMapper{storages: storages, logger: logger}
}

// importUsers upserts every distinct user with a non-empty id.
func (m *identityMapper) importUsers(ctx context.Context, users ...models.User) error {
	seen := make(map[string]struct{}, len(users))
	for _, u := range users {
		if u.ID == "" {
			continue
		}
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}

		if err := m.storages.Users.Upsert(ctx, u); err != nil {
			return fmt.Errorf("import user %s: %w", u.ID, err)
		}
	}
	return nil
}

// importPosts reconciles a list of remote posts and returns their local
// ids in input order. Posts deleted locally but not yet on the server are
// skipped and reported as 0.
func (m *identityMapper) importPosts(ctx context.Context, remotes []models.RemotePost) ([]int64, error) {
	ids := make([]int64, len(remotes))

	err := m.storages.DB.InTx(ctx, func(ctx context.Context) error {
		authors := make([]models.User, 0, len(remotes))
		for _, r := range remotes {
			authors = append(authors, r.Author)
		}
		if err := m.importUsers(ctx, authors...); err != nil {
			return err
		}

		for i, r := range remotes {
			localID, err := m.upsertPost(ctx, r)
			if err != nil {
				return err
			}
			ids[i] = localID
		}
		return nil
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "identityMapper.importPosts").Int("count", len(remotes)).Msg("import failed")
		return nil, err
	}

	return ids, nil
}

// importPostDetail reconciles a post with its embedded comment tree.
func (m *identityMapper) importPostDetail(ctx context.Context, r models.RemotePost) (int64, error) {
	var localID int64

	err := m.storages.DB.InTx(ctx, func(ctx context.Context) error {
		users := []models.User{r.Author}
		for _, c := range r.Comments {
			users = append(users, c.Author)
			for _, reply := range c.Replies {
				users = append(users, reply.Author)
			}
		}
		if err := m.importUsers(ctx, users...); err != nil {
			return err
		}

		var err error
		localID, err = m.upsertPost(ctx, r)
		if err != nil {
			return err
		}
		if localID == 0 {
			return store.ErrNotFound
		}

		return m.importComments(ctx, localID, r.Comments)
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "identityMapper.importPostDetail").Str("server_id", r.ID).Msg("import failed")
		return 0, err
	}

	return localID, nil
}

// upsertPost updates the row holding r.ID in place or inserts a new synced
// row. It returns 0 for tombstoned posts.
func (m *identityMapper) upsertPost(ctx context.Context, r models.RemotePost) (int64, error) {
	if r.ID == "" {
		return 0, fmt.Errorf("%w: remote post without id", ErrValidation)
	}

	tombstoned, err := m.storages.Posts.IsTombstoned(ctx, r.ID)
	if err != nil {
		return 0, err
	}
	if tombstoned {
		return 0, nil
	}

	existing, found, err := m.storages.Posts.LookupByServerID(ctx, r.ID)
	if err != nil {
		return 0, err
	}

	if found {
		owner := r.Author.ID
		if owner == "" {
			owner = existing.OwnerID
		}
		if err = m.storages.Posts.MergeRemote(ctx, existing.LocalID, owner, r); err != nil {
			return 0, fmt.Errorf("merge post %s: %w", r.ID, err)
		}
		return existing.LocalID, nil
	}

	if r.Author.ID == "" {
		return 0, fmt.Errorf("%w: remote post %s without author", ErrValidation, r.ID)
	}

	serverID := r.ID
	localID, err := m.storages.Posts.Insert(ctx, models.Post{
		ServerID:     &serverID,
		OwnerID:      r.Author.ID,
		Synced:       true,
		Title:        r.Title,
		Description:  r.Description,
		Images:       models.Images(r.Images),
		Likes:        r.Likes,
		Dislikes:     r.Dislikes,
		CommentCount: r.CommentCount,
		MyVote:       r.MyVote,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	})
	if err != nil {
		return 0, fmt.Errorf("insert post %s: %w", r.ID, err)
	}
	return localID, nil
}

// importComments writes top-level comments before replies. Replies may
// be nested under their parent or listed flat with a parent id.
func (m *identityMapper) importComments(ctx context.Context, postLocalID int64, comments []models.RemoteComment) error {
	var (
		top     []models.RemoteComment
		replies []models.RemoteComment
	)
	for _, c := range comments {
		if c.ParentID != nil && *c.ParentID != "" {
			replies = append(replies, c)
			continue
		}
		top = append(top, c)
		for _, r := range c.Replies {
			if r.ParentID == nil {
				parent := c.ID
				r.ParentID = &parent
			}
			replies = append(replies, r)
		}
	}

	parents := make(map[string]int64, len(top))
	for _, c := range top {
		localID, err := m.upsertComment(ctx, postLocalID, nil, c)
		if err != nil {
			return err
		}
		parents[c.ID] = localID
	}

	for _, r := range replies {
		parentLocal, ok := parents[*r.ParentID]
		if !ok {
			parent, found, err := m.storages.Comments.LookupByServerID(ctx, *r.ParentID)
			if err != nil {
				return err
			}
			if !found {
				m.logger.Warn().Str("func", "identityMapper.importComments").
					Str("server_id", r.ID).Str("parent_id", *r.ParentID).
					Msg("skipping reply with unknown parent")
				continue
			}
			parentLocal = parent.LocalID
		}

		if _, err := m.upsertComment(ctx, postLocalID, &parentLocal, r); err != nil {
			return err
		}
	}

	return nil
}

func (m *identityMapper) upsertComment(ctx context.Context, postLocalID int64, parentID *int64, r models.RemoteComment) (int64, error) {
	if r.ID == "" {
		return 0, fmt.Errorf("%w: remote comment without id", ErrValidation)
	}

	existing, found, err := m.storages.Comments.LookupByServerID(ctx, r.ID)
	if err != nil {
		return 0, err
	}
	if found {
		if r.Author.ID == "" {
			r.Author.ID = existing.AuthorID
		}
		if err = m.storages.Comments.MergeRemote(ctx, existing.LocalID, postLocalID, parentID, r); err != nil {
			return 0, fmt.Errorf("merge comment %s: %w", r.ID, err)
		}
		return existing.LocalID, nil
	}

	if r.Author.ID == "" {
		return 0, fmt.Errorf("%w: remote comment %s without author", ErrValidation, r.ID)
	}

	serverID := r.ID
	localID, err := m.storages.Comments.Insert(ctx, models.Comment{
		ServerID:  &serverID,
		PostID:    postLocalID,
		ParentID:  parentID,
		AuthorID:  r.Author.ID,
		Synced:    true,
		Body:      r.Body,
		Likes:     r.Likes,
		LikedByMe: r.LikedByMe,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	})
	if err != nil {
		return 0, fmt.Errorf("insert comment %s: %w", r.ID, err)
	}
	return localID, nil
}

// acknowledgePost records serverID on the local post. When a refresh has
// already stored serverID as a second row, that row is folded into
// localID first. The result reports whether the row is now synced, which
// is false if it was edited after rev was read.
func (m *identityMapper) acknowledgePost(ctx context.Context, localID int64, serverID string, rev int64) (bool, error) {
	var synced bool

	err := m.storages.DB.InTx(ctx, func(ctx context.Context) error {
		dup, found, err := m.storages.Posts.LookupByServerID(ctx, serverID)
		if err != nil {
			return err
		}
		if found && dup.LocalID != localID {
			m.logger.Info().Str("func", "identityMapper.acknowledgePost").
				Int64("local_id", localID).Int64("duplicate_id", dup.LocalID).Str("server_id", serverID).
				Msg("folding duplicate row")
			if err = m.storages.Posts.MergeDuplicate(ctx, localID, dup.LocalID); err != nil {
				return err
			}
		}

		synced, err = m.storages.Posts.ApplyAck(ctx, localID, serverID, rev)
		return err
	})

	return synced, err
}

// adoptPost acknowledges localID with a full server response and merges
// the server-owned fields.
func (m *identityMapper) adoptPost(ctx context.Context, localID int64, rev int64, r models.RemotePost) (bool, error) {
	var synced bool

	err := m.storages.DB.InTx(ctx, func(ctx context.Context) error {
		if err := m.importUsers(ctx, r.Author); err != nil {
			return err
		}

		var err error
		synced, err = m.acknowledgePost(ctx, localID, r.ID, rev)
		if err != nil {
			return err
		}

		owner := r.Author.ID
		if owner == "" {
			p, err := m.storages.Posts.GetByID(ctx, localID)
			if err != nil {
				return err
			}
			owner = p.OwnerID
		}
		return m.storages.Posts.MergeRemote(ctx, localID, owner, r)
	})

	return synced, err
}

// adoptComment acknowledges a pushed comment with the server response.
func (m *identityMapper) adoptComment(ctx context.Context, localID int64, rev int64, r models.RemoteComment) (bool, error) {
	var synced bool

	err := m.storages.DB.InTx(ctx, func(ctx context.Context) error {
		local, err := m.storages.Comments.GetByID(ctx, localID)
		if err != nil {
			return err
		}

		dup, found, err := m.storages.Comments.LookupByServerID(ctx, r.ID)
		if err != nil {
			return err
		}
		if found && dup.LocalID != localID {
			if err = m.storages.Comments.MergeDuplicate(ctx, localID, dup.LocalID); err != nil {
				return err
			}
		}

		if err = m.importUsers(ctx, r.Author); err != nil {
			return err
		}
		if synced, err = m.storages.Comments.ApplyAck(ctx, localID, r.ID, rev); err != nil {
			return err
		}
		if r.Author.ID == "" {
			r.Author.ID = local.AuthorID
		}
		return m.storages.Comments.MergeRemote(ctx, localID, local.PostID, local.ParentID, r)
	})

	return synced, err
}
