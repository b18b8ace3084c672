package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/models"
)

type memoryFeedRepository struct {
	state  *memoryState
	logger *logger.Logger
}

func (r *memoryFeedRepository) CreatePost(ctx context.Context, authorID string, in models.PostInput, createdAt time.Time, key *IdempotencyKey) (models.RemotePost, bool, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if key != nil {
		if id, ok := s.creates[*key]; ok {
			logger.FromContext(ctx).Debug().Str("func", "memoryFeedRepository.CreatePost").
				Int64("local_id", key.LocalID).Str("server_id", id).Msg("replayed create")
			if p, found := s.posts[id]; found {
				return s.projectPost(p, authorID, false), true, nil
			}
			// deleted since; the id is still the answer for that key
			return models.RemotePost{ID: id, Author: s.author(authorID)}, true, nil
		}
	}

	now := time.Now().UTC()
	if createdAt.IsZero() || createdAt.After(now) {
		createdAt = now
	}

	id, seq := s.next()
	p := &memoryPost{
		seq:         seq,
		id:          id,
		authorID:    authorID,
		title:       in.Title,
		description: in.Description,
		images:      slices.Clone(in.Images),
		votes:       make(map[string]models.VoteKind),
		favoritedBy: make(map[string]struct{}),
		createdAt:   createdAt.UTC(),
		updatedAt:   now,
	}
	s.posts[id] = p
	if key != nil {
		s.creates[*key] = id
	}

	return s.projectPost(p, authorID, false), false, nil
}

func (r *memoryFeedRepository) UpdatePost(ctx context.Context, viewerID, id string, in models.PostInput) (models.RemotePost, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return models.RemotePost{}, postNotFound(id)
	}
	p.title = in.Title
	p.description = in.Description
	p.images = slices.Clone(in.Images)
	p.updatedAt = time.Now().UTC()

	return s.projectPost(p, viewerID, false), nil
}

func (r *memoryFeedRepository) GetPost(ctx context.Context, viewerID, id string, withComments bool) (models.RemotePost, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return models.RemotePost{}, postNotFound(id)
	}
	return s.projectPost(p, viewerID, withComments), nil
}

func (r *memoryFeedRepository) ListPosts(ctx context.Context, viewerID string, q models.PostQuery) ([]models.RemotePost, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(q.Search))
	author := strings.TrimSpace(q.Author)

	selected := make([]*memoryPost, 0, len(s.posts))
	for _, p := range s.posts {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.title), search) &&
			!strings.Contains(strings.ToLower(p.description), search) {
			continue
		}
		if author != "" && p.authorID != author && !strings.EqualFold(s.author(p.authorID).Alias, author) {
			continue
		}
		if q.OwnerID != "" && p.authorID != q.OwnerID {
			continue
		}
		if _, fav := p.favoritedBy[viewerID]; q.FavoritesOnly && !fav {
			continue
		}
		selected = append(selected, p)
	}

	sortPosts(selected, q)

	out := make([]models.RemotePost, 0, len(selected))
	for _, p := range selected {
		out = append(out, s.projectPost(p, viewerID, false))
	}
	return out, nil
}

func sortPosts(posts []*memoryPost, q models.PostQuery) {
	by := func(a, b *memoryPost) int { return a.createdAt.Compare(b.createdAt) }
	switch q.OrderBy {
	case models.OrderByLikes:
		by = func(a, b *memoryPost) int { return cmp.Compare(a.likes(), b.likes()) }
	case models.OrderByComments:
		by = func(a, b *memoryPost) int { return cmp.Compare(a.commentCount, b.commentCount) }
	case models.OrderByTitle:
		by = func(a, b *memoryPost) int { return strings.Compare(a.title, b.title) }
	}

	desc := !strings.EqualFold(q.Direction, models.DirectionAsc)
	slices.SortFunc(posts, func(a, b *memoryPost) int {
		c := cmp.Or(by(a, b), cmp.Compare(a.seq, b.seq))
		if desc {
			return -c
		}
		return c
	})
}

func (r *memoryFeedRepository) DeletePost(ctx context.Context, id string) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return postNotFound(id)
	}
	delete(s.posts, id)
	for cid, c := range s.comments {
		if c.postID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (r *memoryFeedRepository) Vote(ctx context.Context, userID, postID string, vote models.VoteKind) (models.VoteResponse, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return models.VoteResponse{}, postNotFound(postID)
	}
	p.votes[userID] = vote

	return models.VoteResponse{Likes: p.likes(), Dislikes: p.dislikes()}, nil
}

func (r *memoryFeedRepository) SetFavorite(ctx context.Context, userID, postID string, favorite bool) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return postNotFound(postID)
	}
	if favorite {
		p.favoritedBy[userID] = struct{}{}
	} else {
		delete(p.favoritedBy, userID)
	}
	return nil
}

func (r *memoryFeedRepository) Favorites(ctx context.Context, userID string) ([]models.RemotePost, error) {
	return r.ListPosts(ctx, userID, models.PostQuery{FavoritesOnly: true})
}

func (r *memoryFeedRepository) AddComment(ctx context.Context, authorID, postID, parentID, body string) (models.RemoteComment, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return models.RemoteComment{}, postNotFound(postID)
	}
	if parentID != "" {
		parent, found := s.comments[parentID]
		if !found || parent.postID != postID {
			return models.RemoteComment{}, commentNotFound(parentID)
		}
		if parent.parentID != "" {
			return models.RemoteComment{}, ErrReplyDepth
		}
	}

	id, seq := s.next()
	now := time.Now().UTC()
	c := &memoryComment{
		seq:       seq,
		id:        id,
		postID:    postID,
		parentID:  parentID,
		authorID:  authorID,
		body:      body,
		likedBy:   make(map[string]struct{}),
		createdAt: now,
		updatedAt: now,
	}
	s.comments[id] = c
	p.commentCount++

	return s.projectComment(c, authorID, false), nil
}

func (r *memoryFeedRepository) GetComment(ctx context.Context, viewerID, id string) (models.RemoteComment, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return models.RemoteComment{}, commentNotFound(id)
	}
	return s.projectComment(c, viewerID, false), nil
}

func (r *memoryFeedRepository) LikeComment(ctx context.Context, userID, commentID string) (models.LikeResponse, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok {
		return models.LikeResponse{}, commentNotFound(commentID)
	}
	c.likedBy[userID] = struct{}{}

	return models.LikeResponse{Likes: int64(len(c.likedBy))}, nil
}

func (p *memoryPost) likes() int64 {
	return p.count(models.VoteLike)
}

func (p *memoryPost) dislikes() int64 {
	return p.count(models.VoteDislike)
}

func (p *memoryPost) count(kind models.VoteKind) int64 {
	var n int64
	for _, v := range p.votes {
		if v == kind {
			n++
		}
	}
	return n
}

// projectPost renders p for viewerID. Callers hold mu.
func (s *memoryState) projectPost(p *memoryPost, viewerID string, withComments bool) models.RemotePost {
	_, favorite := p.favoritedBy[viewerID]
	out := models.RemotePost{
		ID:           p.id,
		Author:       s.author(p.authorID),
		Title:        p.title,
		Description:  p.description,
		Images:       slices.Clone(p.images),
		Likes:        p.likes(),
		Dislikes:     p.dislikes(),
		CommentCount: p.commentCount,
		MyVote:       p.votes[viewerID],
		IsFavorite:   favorite,
		CreatedAt:    p.createdAt,
		UpdatedAt:    p.updatedAt,
	}
	if out.Images == nil {
		out.Images = []string{}
	}
	if !withComments {
		return out
	}

	var top []*memoryComment
	for _, c := range s.comments {
		if c.postID == p.id && c.parentID == "" {
			top = append(top, c)
		}
	}
	slices.SortFunc(top, bySeq)

	out.Comments = make([]models.RemoteComment, 0, len(top))
	for _, c := range top {
		out.Comments = append(out.Comments, s.projectComment(c, viewerID, true))
	}
	return out
}

// projectComment renders c for viewerID. Callers hold mu.
func (s *memoryState) projectComment(c *memoryComment, viewerID string, withReplies bool) models.RemoteComment {
	_, liked := c.likedBy[viewerID]
	out := models.RemoteComment{
		ID:        c.id,
		PostID:    c.postID,
		Author:    s.author(c.authorID),
		Body:      c.body,
		Likes:     int64(len(c.likedBy)),
		LikedByMe: liked,
		CreatedAt: c.createdAt,
		UpdatedAt: c.updatedAt,
	}
	if c.parentID != "" {
		parent := c.parentID
		out.ParentID = &parent
	}
	if !withReplies || c.parentID != "" {
		return out
	}

	var replies []*memoryComment
	for _, reply := range s.comments {
		if reply.parentID == c.id {
			replies = append(replies, reply)
		}
	}
	slices.SortFunc(replies, bySeq)
	for _, reply := range replies {
		out.Replies = append(out.Replies, s.projectComment(reply, viewerID, false))
	}
	return out
}

func bySeq(a, b *memoryComment) int {
	return cmp.Compare(a.seq, b.seq)
}

func postNotFound(id string) error {
	return fmt.Errorf("post %s: %w", id, ErrNotFound)
}

func commentNotFound(id string) error {
	return fmt.Errorf("comment %s: %w", id, ErrNotFound)
}
