// Package rest implements the Blogify backend contract over HTTP. It is the
// concrete credential issuer the session core consumes: auth endpoints,
// notification endpoints, the admin dashboard, and the blog/comment
// plumbing.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	blogify "github.com/HiravPansuriya/blogify-client"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const defaultTimeout = 10 * time.Second

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger overrides the client's logger.
func WithLogger(logger blogify.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// Client talks to the Blogify REST backend. All error responses are mapped
// into the shared error taxonomy; transport failures are retryable and never
// mutate local state.
type Client struct {
	baseURL   string
	http      *http.Client
	logger    blogify.Logger
	userAgent string
}

var (
	_ blogify.CredentialIssuer = (*Client)(nil)
	_ blogify.AdminAPI         = (*Client)(nil)
)

// New returns a client rooted at baseURL (e.g. http://localhost:8000/api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  blogify.NoopLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

type apiEnvelope struct {
	Message       string                 `json:"message"`
	Error         string                 `json:"error"`
	OK            bool                   `json:"ok"`
	Token         string                 `json:"token"`
	User          *blogify.Identity      `json:"user"`
	Notifications []blogify.Notification `json:"notifications"`
	Blogs         []blogify.Blog         `json:"blogs"`
	Blog          *blogify.Blog          `json:"blog"`
	Comments      []blogify.Comment      `json:"comments"`
	Comment       *blogify.Comment       `json:"comment"`
	Users         []blogify.Identity     `json:"users"`
	Likes         int                    `json:"likes"`
}

// Signup submits the account creation payload. Returns the backend's
// confirmation message; rejections surface as validation errors.
func (c *Client) Signup(ctx context.Context, payload blogify.SignupPayload) (string, error) {
	out := apiEnvelope{}
	if err := c.do(ctx, http.MethodPost, "/user/signup", "", payload, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// VerifyOTP confirms a pending signup. Any 4xx rejection is an OTP error:
// the code was wrong or expired and may be retried.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*blogify.Session, error) {
	out := apiEnvelope{}
	body := map[string]string{"email": email, "code": code}
	if err := c.do(ctx, http.MethodPost, "/user/verify-otp", "", body, &out); err != nil {
		if blogify.IsValidationError(err) || blogify.IsAuthError(err) {
			return nil, blogify.ErrInvalidOTP.WithMetadata(map[string]any{
				"email": email,
				"cause": err.Error(),
			})
		}
		return nil, err
	}
	return c.sessionFromEnvelope(out)
}

// Login exchanges credentials for a session. Any 4xx rejection other than a
// privilege error is a credential error.
func (c *Client) Login(ctx context.Context, email, password string) (*blogify.Session, error) {
	out := apiEnvelope{}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/user/login", "", body, &out); err != nil {
		if blogify.IsValidationError(err) || blogify.IsAuthError(err) {
			return nil, blogify.ErrInvalidCredentials.WithMetadata(map[string]any{
				"email": email,
				"cause": err.Error(),
			})
		}
		return nil, err
	}
	return c.sessionFromEnvelope(out)
}

// Notifications fetches the full notification set for the token's identity.
func (c *Client) Notifications(ctx context.Context, token string) ([]blogify.Notification, error) {
	out := apiEnvelope{}
	if err := c.do(ctx, http.MethodGet, "/notifications", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Notifications, nil
}

// MarkNotificationRead confirms a single read transition.
func (c *Client) MarkNotificationRead(ctx context.Context, token, id string) error {
	out := apiEnvelope{}
	return c.do(ctx, http.MethodPost, "/notifications/"+id+"/read", token, nil, &out)
}

// AdminDashboard fetches the admin aggregate. Non-admin tokens fail with a
// forbidden error, which is the authoritative check behind the advisory
// client-side gate.
func (c *Client) AdminDashboard(ctx context.Context, token string) (*blogify.AdminDashboard, error) {
	out := apiEnvelope{}
	if err := c.do(ctx, http.MethodGet, "/admin", token, nil, &out); err != nil {
		return nil, err
	}
	return &blogify.AdminDashboard{
		Users:    out.Users,
		Blogs:    out.Blogs,
		Comments: out.Comments,
	}, nil
}

// Blogs lists all posts visible to the token's identity.
func (c *Client) Blogs(ctx context.Context, token string) ([]blogify.Blog, error) {
	out := apiEnvelope{}
	if err := c.do(ctx, http.MethodGet, "/blog", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Blogs, nil
}

// Blog fetches one post with its comments.
func (c *Client) Blog(ctx context.Context, token, id string) (*blogify.Blog, []blogify.Comment, error) {
	out := apiEnvelope{}
	if err := c.do(ctx, http.MethodGet, "/blog/"+id, token, nil, &out); err != nil {
		return nil, nil, err
	}
	return out.Blog, out.Comments, nil
}

// CreateBlog publishes a new post.
func (c *Client) CreateBlog(ctx context.Context, token string, blog blogify.Blog) (*blogify.Blog, error) {
	out := apiEnvelope{}
	if err := c.do(ctx, http.MethodPost, "/blog/add-new", token, blog, &out); err != nil {
		return nil, err
	}
	return out.Blog, nil
}

// UpdateBlog edits an existing post.
func (c *Client) UpdateBlog(ctx context.Context, token string, blog blogify.Blog) (*blogify.Blog, error) {
	out := apiEnvelope{}
	if err := c.do(ctx, http.MethodPut, "/blog/edit/"+blog.ID, token, blog, &out); err != nil {
		return nil, err
	}
	return out.Blog, nil
}

// DeleteBlog removes a post.
func (c *Client) DeleteBlog(ctx context.Context, token, id string) error {
	out := apiEnvelope{}
	return c.do(ctx, http.MethodDelete, "/blog/"+id, token, nil, &out)
}

// AddComment posts a comment on a blog.
func (c *Client) AddComment(ctx context.Context, token, blogID, content string) (*blogify.Comment, error) {
	out := apiEnvelope{}
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, "/blog/comment/"+blogID, token, body, &out); err != nil {
		return nil, err
	}
	return out.Comment, nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, token, id string) error {
	out := apiEnvelope{}
	return c.do(ctx, http.MethodDelete, "/blog/comment/"+id, token, nil, &out)
}

// LikeBlog toggles the identity's like on a post, returning the new total.
func (c *Client) LikeBlog(ctx context.Context, token, id string) (int, error) {
	out := apiEnvelope{}
	if err := c.do(ctx, http.MethodPost, "/blog/like/"+id, token, nil, &out); err != nil {
		return 0, err
	}
	return out.Likes, nil
}

func (c *Client) sessionFromEnvelope(out apiEnvelope) (*blogify.Session, error) {
	session := &blogify.Session{Token: out.Token, User: out.User}
	if !session.Valid() {
		return nil, goerrors.New("issuer response missing token or user", goerrors.CategoryInternal)
	}
	return session, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("%s %s", method, path)

	res, err := c.http.Do(req)
	if err != nil {
		return blogify.ErrTransport.WithMetadata(map[string]any{
			"path":  path,
			"cause": err.Error(),
		})
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal,
				fmt.Sprintf("malformed response from %s", path))
		}
		return nil
	}

	failure := apiEnvelope{}
	_ = json.NewDecoder(res.Body).Decode(&failure)

	return c.statusError(res.StatusCode, failure.Error, path, token != "")
}

func (c *Client) statusError(status int, message, path string, authed bool) error {
	meta := map[string]any{
		"status": status,
		"path":   path,
	}
	if message != "" {
		meta["error"] = message
	}

	switch {
	case status == http.StatusUnauthorized && authed:
		return blogify.ErrSessionExpired.WithMetadata(meta)
	case status == http.StatusUnauthorized:
		return blogify.ErrInvalidCredentials.WithMetadata(meta)
	case status == http.StatusForbidden:
		return blogify.ErrForbidden.WithMetadata(meta)
	case status == http.StatusNotFound:
		return goerrors.New("resource not found", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound).
			WithMetadata(meta)
	case status >= 500:
		return blogify.ErrTransport.WithMetadata(meta)
	default:
		return blogify.ErrValidation.WithMetadata(meta)
	}
}
