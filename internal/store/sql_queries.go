package store

// Table names published to subscribers.
const (
	tableUsers      = "users"
	tablePosts      = "posts"
	tableComments   = "comments"
	tableFavorites  = "favorites"
	tableDrafts     = "draft_posts"
	tableTombstones = "post_tombstones"
	tableMeta       = "meta"
)

// users

const upsertUser = `
INSERT INTO users (id, email, first_name, last_name, alias, phone, website, avatar, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    email      = CASE WHEN excluded.email != '' THEN excluded.email ELSE users.email END,
    first_name = excluded.first_name,
    last_name  = excluded.last_name,
    alias      = excluded.alias,
    phone      = excluded.phone,
    website    = excluded.website,
    avatar     = excluded.avatar,
    created_at = excluded.created_at,
    updated_at = excluded.updated_at`

const ensureUser = `
INSERT INTO users (id, created_at, updated_at) VALUES (?, ?, ?)
ON CONFLICT (id) DO NOTHING`

const getUserByID = `
SELECT id, email, first_name, last_name, alias, phone, website, avatar, created_at, updated_at
FROM users WHERE id = ?`

const deleteUser = `DELETE FROM users WHERE id = ?`

// posts

const postColumns = `p.local_id, p.server_id, p.owner_id, p.synced, p.title, p.description, p.images,
    p.likes, p.dislikes, p.comment_count, p.my_vote, p.pending_vote,
    p.local_rev, p.sync_attempts, p.abandoned, p.last_sync_error, p.created_at, p.updated_at`

const authorColumns = `u.id, u.email, u.first_name, u.last_name, u.alias, u.phone, u.website, u.avatar, u.created_at, u.updated_at`

const insertPost = `
INSERT INTO posts (server_id, owner_id, synced, title, description, images, likes, dislikes, comment_count,
                   my_vote, pending_vote, local_rev, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const getPostByID = `SELECT ` + postColumns + ` FROM posts p WHERE p.local_id = ?`

const getPostByServerID = `SELECT ` + postColumns + ` FROM posts p WHERE p.server_id = ?`

// updatePostContent also returns an abandoned post to the queue: an edit is
// the user's answer to a rejection.
const updatePostContent = `
UPDATE posts SET
    title = ?, description = ?, images = ?, synced = 0, local_rev = local_rev + 1, updated_at = ?,
    abandoned = 0, sync_attempts = 0, last_sync_error = ''
WHERE local_id = ?`

const mergeRemotePost = `
UPDATE posts SET
    server_id     = ?,
    owner_id      = ?,
    likes         = ?,
    dislikes      = ?,
    comment_count = ?,
    created_at    = ?,
    updated_at    = ?,
    my_vote       = CASE WHEN pending_vote = '' THEN ? ELSE my_vote END,
    title         = CASE WHEN synced = 1 THEN ? ELSE title END,
    description   = CASE WHEN synced = 1 THEN ? ELSE description END,
    images        = CASE WHEN synced = 1 THEN ? ELSE images END
WHERE local_id = ?`

const ackPost = `
UPDATE posts SET
    server_id       = ?,
    synced          = CASE WHEN local_rev = ? THEN 1 ELSE 0 END,
    sync_attempts   = 0,
    abandoned       = 0,
    last_sync_error = ''
WHERE local_id = ?`

const failPost = `
UPDATE posts SET
    sync_attempts   = sync_attempts + 1,
    last_sync_error = ?,
    abandoned       = CASE WHEN ? > 0 AND sync_attempts + 1 >= ? THEN 1 ELSE abandoned END
WHERE local_id = ?`

const notePostFailure = `UPDATE posts SET last_sync_error = ? WHERE local_id = ?`

const setPostAbandoned = `
UPDATE posts SET abandoned = ?, sync_attempts = CASE WHEN ? THEN sync_attempts ELSE 0 END
WHERE local_id = ?`

const deletePostByID = `DELETE FROM posts WHERE local_id = ?`

const deletePostByServerID = `DELETE FROM posts WHERE server_id = ?`

const moveCommentsToPost = `UPDATE comments SET post_id = ? WHERE post_id = ?`

const copyFavoritesToPost = `
INSERT INTO favorites (user_id, post_id, synced, deleted, created_at)
SELECT user_id, ?, synced, deleted, created_at FROM favorites WHERE post_id = ?
ON CONFLICT (user_id, post_id) DO NOTHING`

const listPendingPosts = `SELECT ` + postColumns + ` FROM posts p
WHERE p.owner_id = ? AND p.synced = 0 AND p.abandoned = 0
ORDER BY p.local_id`

const listAbandonedPosts = `SELECT ` + postColumns + ` FROM posts p
WHERE p.owner_id = ? AND p.abandoned = 1
ORDER BY p.local_id`

const setPostVote = `
UPDATE posts SET likes = ?, dislikes = ?, my_vote = ?, pending_vote = ?
WHERE local_id = ?`

const applyPostVoteResult = `
UPDATE posts SET
    likes        = ?,
    dislikes     = ?,
    my_vote      = CASE WHEN pending_vote = ? THEN ? ELSE my_vote END,
    pending_vote = CASE WHEN pending_vote = ? THEN '' ELSE pending_vote END
WHERE local_id = ?`

const listPendingVotes = `SELECT ` + postColumns + ` FROM posts p
WHERE p.pending_vote != '' AND p.server_id IS NOT NULL
ORDER BY p.local_id`

const insertTombstone = `
INSERT INTO post_tombstones (server_id, owner_id, created_at) VALUES (?, ?, ?)
ON CONFLICT (server_id) DO NOTHING`

const deleteTombstone = `DELETE FROM post_tombstones WHERE server_id = ?`

const listTombstones = `SELECT server_id FROM post_tombstones WHERE owner_id = ? ORDER BY created_at`

const existsTombstone = `SELECT COUNT(*) FROM post_tombstones WHERE server_id = ?`

// comments

const commentColumns = `c.local_id, c.server_id, c.post_id, c.parent_id, c.author_id, c.synced, c.body, c.likes,
    c.liked_by_me, c.pending_like, c.local_rev, c.sync_attempts, c.abandoned, c.last_sync_error,
    c.created_at, c.updated_at`

const insertComment = `
INSERT INTO comments (server_id, post_id, parent_id, author_id, synced, body, likes, liked_by_me, pending_like,
                      local_rev, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const getCommentByID = `SELECT ` + commentColumns + ` FROM comments c WHERE c.local_id = ?`

const getCommentByServerID = `SELECT ` + commentColumns + ` FROM comments c WHERE c.server_id = ?`

const mergeRemoteComment = `
UPDATE comments SET
    server_id   = ?,
    post_id     = ?,
    parent_id   = ?,
    author_id   = ?,
    likes       = ?,
    created_at  = ?,
    updated_at  = ?,
    liked_by_me = CASE WHEN pending_like = 1 THEN liked_by_me ELSE ? END,
    body        = CASE WHEN synced = 1 THEN ? ELSE body END
WHERE local_id = ?`

const ackComment = `
UPDATE comments SET
    server_id       = ?,
    synced          = CASE WHEN local_rev = ? THEN 1 ELSE 0 END,
    sync_attempts   = 0,
    abandoned       = 0,
    last_sync_error = ''
WHERE local_id = ?`

const failComment = `
UPDATE comments SET
    sync_attempts   = sync_attempts + 1,
    last_sync_error = ?,
    abandoned       = CASE WHEN ? > 0 AND sync_attempts + 1 >= ? THEN 1 ELSE abandoned END
WHERE local_id = ?`

const noteCommentFailure = `UPDATE comments SET last_sync_error = ? WHERE local_id = ?`

const setCommentAbandoned = `
UPDATE comments SET abandoned = ?, sync_attempts = CASE WHEN ? THEN sync_attempts ELSE 0 END
WHERE local_id = ?`

const deleteCommentByID = `DELETE FROM comments WHERE local_id = ?`

const moveReplies = `UPDATE comments SET parent_id = ? WHERE parent_id = ?`

const listPendingComments = `SELECT ` + commentColumns + ` FROM comments c
WHERE c.author_id = ? AND c.synced = 0 AND c.abandoned = 0
ORDER BY c.parent_id IS NOT NULL, c.local_id`

const listCommentsOfPost = `SELECT ` + commentColumns + `, ` + authorColumns + `
FROM comments c JOIN users u ON u.id = c.author_id
WHERE c.post_id = ?
ORDER BY c.created_at, c.local_id`

const likeComment = `
UPDATE comments SET liked_by_me = 1, pending_like = 1, likes = likes + 1
WHERE local_id = ? AND liked_by_me = 0`

const applyCommentLikeResult = `
UPDATE comments SET likes = ?, liked_by_me = 1, pending_like = 0 WHERE local_id = ?`

const listPendingLikes = `SELECT ` + commentColumns + ` FROM comments c
WHERE c.pending_like = 1 AND c.server_id IS NOT NULL
ORDER BY c.local_id`

// favorites

const upsertFavorite = `
INSERT INTO favorites (user_id, post_id, synced, deleted, created_at) VALUES (?, ?, 0, ?, ?)
ON CONFLICT (user_id, post_id) DO UPDATE SET synced = 0, deleted = excluded.deleted`

const isFavorite = `SELECT COUNT(*) FROM favorites WHERE user_id = ? AND post_id = ? AND deleted = 0`

const settleFavorite = `
UPDATE favorites SET synced = 1 WHERE user_id = ? AND post_id = ? AND deleted = 0 AND synced = 0`

const settleUnfavorite = `
DELETE FROM favorites WHERE user_id = ? AND post_id = ? AND deleted = 1 AND synced = 0`

const listPendingFavorites = `
SELECT f.user_id, f.post_id, f.synced, f.deleted, f.created_at, p.server_id
FROM favorites f JOIN posts p ON p.local_id = f.post_id
WHERE f.user_id = ? AND f.synced = 0 AND p.server_id IS NOT NULL
ORDER BY f.created_at`

const insertSyncedFavorite = `
INSERT INTO favorites (user_id, post_id, synced, deleted, created_at) VALUES (?, ?, 1, 0, ?)
ON CONFLICT (user_id, post_id) DO NOTHING`

// drafts

const draftColumns = `local_id, owner_id, title, description, images, created_at, updated_at`

const insertDraft = `
INSERT INTO draft_posts (owner_id, title, description, images, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`

const updateDraft = `
UPDATE draft_posts SET title = ?, description = ?, images = ?, updated_at = ? WHERE local_id = ?`

const getDraftByID = `SELECT ` + draftColumns + ` FROM draft_posts WHERE local_id = ?`

const deleteDraft = `DELETE FROM draft_posts WHERE local_id = ?`

const listDrafts = `SELECT ` + draftColumns + ` FROM draft_posts WHERE owner_id = ? ORDER BY updated_at DESC, local_id DESC`

// meta

const getMeta = `SELECT value FROM meta WHERE key = ?`

const setMeta = `
INSERT INTO meta (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`

// purge

const purgeUsers = `DELETE FROM users`

const purgeTombstones = `DELETE FROM post_tombstones`

// Table sets watched by read projections.
var (
	PostViewTables = []string{tablePosts, tableUsers, tableFavorites}
	CommentTables  = []string{tableComments, tableUsers}
	DraftTables    = []string{tableDrafts}
	UserTables     = []string{tableUsers}
)
