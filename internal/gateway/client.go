package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/midgard-blog/interaction-sync/domain"
)

const defaultTimeout = 10 * time.Second

type tokenKey struct{}

// WithToken attaches the caller's bearer token to the context; the
// client forwards it verbatim on every request.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom extracts the bearer token previously attached by WithToken.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Client consumes the remote platform's interaction endpoints. All of
// them answer the same envelope: {success: bool, data?, error?}.
// A client timeout is treated identically to a failure response.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ domain.InteractionGateway = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type followData struct {
	IsFollowing *bool  `json:"isFollowing,omitempty"`
	Message     string `json:"message,omitempty"`
}

type statsData struct {
	Followers   int64 `json:"followers"`
	Following   int64 `json:"following"`
	IsFollowing bool  `json:"isFollowing"`
}

func (c *Client) do(ctx context.Context, method, path string) (envelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return envelope{}, err
	}
	req.Header.Set("Accept", "application/json")
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("%w: %v", domain.ErrGatewayFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, fmt.Errorf("%w: %v", domain.ErrGatewayFailure, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		// Success is decided by the envelope alone; a body we cannot
		// parse is a failure carrying the HTTP status as the reason.
		logrus.Warnf("gateway returned non-envelope body on %s %s: %v", method, path, err)
		return envelope{Success: false, Error: http.StatusText(resp.StatusCode)}, nil
	}
	return env, nil
}

// toggleCall runs one toggle-family endpoint and maps the envelope to
// a CallResult. The transport error is kept separate so the controller
// can wrap it for the caller.
func (c *Client) toggleCall(ctx context.Context, method, path string) (domain.CallResult, error) {
	env, err := c.do(ctx, method, path)
	if err != nil {
		return domain.CallResult{}, err
	}
	res := domain.CallResult{Success: env.Success, Err: env.Error}
	if len(env.Data) > 0 {
		var data followData
		if err := json.Unmarshal(env.Data, &data); err == nil && data.IsFollowing != nil {
			res.ConfirmedActive = data.IsFollowing
		}
	}
	return res, nil
}

func (c *Client) FollowUser(ctx context.Context, userID string) (domain.CallResult, error) {
	return c.toggleCall(ctx, http.MethodPost, "/users/"+userID+"/follow")
}

func (c *Client) UnfollowUser(ctx context.Context, userID string) (domain.CallResult, error) {
	return c.toggleCall(ctx, http.MethodDelete, "/users/"+userID+"/follow")
}

func (c *Client) CheckFollowStatus(ctx context.Context, userID string) (bool, error) {
	env, err := c.do(ctx, http.MethodGet, "/users/"+userID+"/follow/status")
	if err != nil {
		return false, err
	}
	if !env.Success {
		return false, fmt.Errorf("%w: %s", domain.ErrGatewayFailure, env.Error)
	}
	var data followData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrGatewayFailure, err)
	}
	return data.IsFollowing != nil && *data.IsFollowing, nil
}

func (c *Client) GetFollowStats(ctx context.Context, userID string) (domain.FollowStats, error) {
	env, err := c.do(ctx, http.MethodGet, "/users/"+userID+"/follow/stats")
	if err != nil {
		return domain.FollowStats{}, err
	}
	if !env.Success {
		return domain.FollowStats{}, fmt.Errorf("%w: %s", domain.ErrGatewayFailure, env.Error)
	}
	var data statsData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return domain.FollowStats{}, fmt.Errorf("%w: %v", domain.ErrGatewayFailure, err)
	}
	return domain.FollowStats{
		UserID:      userID,
		Followers:   data.Followers,
		Following:   data.Following,
		IsFollowing: data.IsFollowing,
	}, nil
}

func (c *Client) LikePost(ctx context.Context, postID string) (domain.CallResult, error) {
	return c.toggleCall(ctx, http.MethodPost, "/posts/"+postID+"/like")
}

func (c *Client) UnlikePost(ctx context.Context, postID string) (domain.CallResult, error) {
	return c.toggleCall(ctx, http.MethodDelete, "/posts/"+postID+"/like")
}

func (c *Client) LikeComment(ctx context.Context, commentID string) (domain.CallResult, error) {
	return c.toggleCall(ctx, http.MethodPost, "/comments/"+commentID+"/like")
}

func (c *Client) UnlikeComment(ctx context.Context, commentID string) (domain.CallResult, error) {
	return c.toggleCall(ctx, http.MethodDelete, "/comments/"+commentID+"/like")
}

// Call builds the RemoteCall for one subject, picking the endpoint
// pair that matches its kind and the toggle direction.
func Call(gw domain.InteractionGateway, subject domain.Subject) domain.RemoteCall {
	return func(ctx context.Context, nextActive bool) (domain.CallResult, error) {
		switch subject.Kind {
		case domain.KindFollow:
			if nextActive {
				return gw.FollowUser(ctx, subject.ID)
			}
			return gw.UnfollowUser(ctx, subject.ID)
		case domain.KindPostLike:
			if nextActive {
				return gw.LikePost(ctx, subject.ID)
			}
			return gw.UnlikePost(ctx, subject.ID)
		case domain.KindCommentLike:
			if nextActive {
				return gw.LikeComment(ctx, subject.ID)
			}
			return gw.UnlikeComment(ctx, subject.ID)
		default:
			return domain.CallResult{}, domain.ErrInvalidSubject
		}
	}
}
