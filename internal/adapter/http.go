package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-social-sync/internal/config"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/utils"
	"github.com/MKhiriev/go-social-sync/models"
)

// Header names shared with the development server.
const (
	HeaderHash     = "HashSHA256"
	HeaderClientID = "X-Client-ID"
	HeaderTraceID  = "X-Trace-ID"
)

type anonymousKey struct{}

type httpServerAdapter struct {
	client *utils.HTTPClient
	hasher *utils.Hasher
	tokens TokenSource
	uuid   *utils.UUIDGenerator

	clientID string

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs the REST implementation of [ServerAdapter].
// It normalises adapterCfg.HTTPAddress, applies the connect and request
// timeouts and signs write bodies when appCfg.HashKey is set. The bearer
// token is taken from tokens right before each request is sent; clientID
// identifies this installation to the server.
func NewHTTPServerAdapter(adapterCfg config.ClientAdapter, appCfg config.ClientApp, tokens TokenSource, clientID string, logger *logger.Logger) (ServerAdapter, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	h := &httpServerAdapter{
		client:   utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout, adapterCfg.ConnectTimeout),
		hasher:   utils.NewHasher(appCfg.HashKey),
		tokens:   tokens,
		uuid:     utils.NewUUIDGenerator(),
		clientID: clientID,
		logger:   logger,
	}
	h.client.OnBeforeRequest(h.beforeRequest)

	return h, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// beforeRequest attaches identity headers. The token read is a plain
// synchronous call on the session.
func (h *httpServerAdapter) beforeRequest(_ *resty.Client, r *resty.Request) error {
	r.SetHeader(HeaderTraceID, h.uuid.Generate())
	if h.clientID != "" {
		r.SetHeader(HeaderClientID, h.clientID)
	}

	if anonymous, _ := r.Context().Value(anonymousKey{}).(bool); anonymous {
		return nil
	}
	if h.tokens == nil {
		return nil
	}
	if token := strings.TrimSpace(h.tokens.Token()); token != "" {
		r.SetHeader("Authorization", "Bearer "+token)
	}
	return nil
}

func (h *httpServerAdapter) Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error) {
	var out models.AuthResponse
	err := h.do(context.WithValue(ctx, anonymousKey{}, true), "register", "POST", "/auth/register", req, &out)
	return out, err
}

func (h *httpServerAdapter) Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error) {
	var out models.AuthResponse
	err := h.do(context.WithValue(ctx, anonymousKey{}, true), "login", "POST", "/auth/login", req, &out)
	return out, err
}

func (h *httpServerAdapter) Me(ctx context.Context) (models.User, error) {
	var out models.User
	err := h.do(ctx, "me", "GET", "/users/me", nil, &out)
	return out, err
}

func (h *httpServerAdapter) UpdateMe(ctx context.Context, upd models.ProfileUpdate) (models.User, error) {
	var out models.User
	err := h.do(ctx, "update me", "PUT", "/users/me", upd, &out)
	return out, err
}

func (h *httpServerAdapter) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error {
	return h.do(ctx, "change password", "PUT", "/users/me/password", req, nil)
}

func (h *httpServerAdapter) ListPosts(ctx context.Context, q models.PostQuery) ([]models.RemotePost, error) {
	params := url.Values{}
	for k, v := range map[string]string{
		"search":    q.Search,
		"author":    q.Author,
		"order_by":  q.OrderBy,
		"direction": q.Direction,
	} {
		if v != "" {
			params.Set(k, v)
		}
	}

	path := "/posts"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	out := make([]models.RemotePost, 0)
	err := h.do(ctx, "list posts", "GET", path, nil, &out)
	return out, err
}

func (h *httpServerAdapter) GetPost(ctx context.Context, id string) (models.RemotePost, error) {
	var out models.RemotePost
	err := h.do(ctx, "get post", "GET", "/posts/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (h *httpServerAdapter) CreatePost(ctx context.Context, in models.PostInput) (models.RemotePost, error) {
	var out models.RemotePost
	err := h.do(ctx, "create post", "POST", "/posts", in, &out)
	return out, err
}

func (h *httpServerAdapter) UpdatePost(ctx context.Context, id string, in models.PostInput) (models.RemotePost, error) {
	var out models.RemotePost
	err := h.do(ctx, "update post", "PUT", "/posts/"+url.PathEscape(id), in, &out)
	return out, err
}

func (h *httpServerAdapter) DeletePost(ctx context.Context, id string) error {
	return h.do(ctx, "delete post", "DELETE", "/posts/"+url.PathEscape(id), nil, nil)
}

func (h *httpServerAdapter) Vote(ctx context.Context, id string, vote models.VoteKind) (models.VoteResponse, error) {
	var out models.VoteResponse
	err := h.do(ctx, "vote", "POST", "/posts/"+url.PathEscape(id)+"/vote", models.VoteRequest{Vote: vote}, &out)
	return out, err
}

func (h *httpServerAdapter) SetFavorite(ctx context.Context, id string, favorite bool) error {
	return h.do(ctx, "favorite", "POST", "/posts/"+url.PathEscape(id)+"/favorite", models.FavoriteRequest{Favorite: favorite}, nil)
}

func (h *httpServerAdapter) Favorites(ctx context.Context) ([]models.RemotePost, error) {
	out := make([]models.RemotePost, 0)
	err := h.do(ctx, "favorites", "GET", "/users/me/favorites", nil, &out)
	return out, err
}

func (h *httpServerAdapter) UserPosts(ctx context.Context, userID string) ([]models.RemotePost, error) {
	out := make([]models.RemotePost, 0)
	err := h.do(ctx, "user posts", "GET", "/posts/user/"+url.PathEscape(userID), nil, &out)
	return out, err
}

func (h *httpServerAdapter) AddComment(ctx context.Context, postID string, in models.CommentInput) (models.RemoteComment, error) {
	var out models.RemoteComment
	err := h.do(ctx, "add comment", "POST", "/posts/"+url.PathEscape(postID)+"/comments", in, &out)
	return out, err
}

func (h *httpServerAdapter) Reply(ctx context.Context, commentID string, in models.CommentInput) (models.RemoteComment, error) {
	var out models.RemoteComment
	err := h.do(ctx, "reply", "POST", "/comments/"+url.PathEscape(commentID)+"/replies", in, &out)
	return out, err
}

func (h *httpServerAdapter) LikeComment(ctx context.Context, commentID string) (models.LikeResponse, error) {
	var out models.LikeResponse
	err := h.do(ctx, "like comment", "POST", "/comments/"+url.PathEscape(commentID)+"/like", nil, &out)
	return out, err
}

func (h *httpServerAdapter) Sync(ctx context.Context, req models.SyncRequest) (models.SyncResponse, error) {
	var out models.SyncResponse
	err := h.do(ctx, "sync", "POST", "/sync", req, &out)
	return out, err
}

func (h *httpServerAdapter) Ping(ctx context.Context) error {
	return h.do(context.WithValue(ctx, anonymousKey{}, true), "ping", "GET", "/health", nil, nil)
}

// do sends one request. A non-nil body is marshaled once so that the
// integrity header covers exactly the bytes on the wire. A non-nil out
// receives the decoded 2xx response.
func (h *httpServerAdapter) do(ctx context.Context, op, method, path string, body, out any) error {
	req := h.client.R().SetContext(ctx)

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		req.SetBody(payload)
		if h.hasher != nil {
			req.SetHeader(HeaderHash, h.hasher.SumHex(payload))
		}
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		h.logger.Debug().Err(err).Str("func", "httpServerAdapter.do").Str("op", op).Msg("request failed")
		return fmt.Errorf("%w: %s request: %w", ErrTransport, op, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err = json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, op, err)
	}
	return nil
}
