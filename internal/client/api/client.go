package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophfeed/internal/client/models"
	"github.com/dmitrijs2005/gophfeed/internal/common"
	"github.com/dmitrijs2005/gophfeed/internal/logging"
	"github.com/google/uuid"
)

// Client is the server contract used by the client components. Methods
// taking a token send it as a bearer credential; Refresh and Logout rely on
// the refresh cookie alone.
type Client interface {
	Register(ctx context.Context, username string, password []byte) (string, error)
	Login(ctx context.Context, username string, password []byte) (models.AuthResult, error)
	Refresh(ctx context.Context) (models.AuthResult, error)
	Logout(ctx context.Context) error

	ListPosts(ctx context.Context) ([]models.Post, error)
	ListPostsByUser(ctx context.Context, token string, id models.UserID) ([]models.Post, error)
	CreatePost(ctx context.Context, token, content string) error
	UpdatePost(ctx context.Context, token string, id uint64, content string) error
	DeletePost(ctx context.Context, token string, id uint64) error
}

const maxResponseBytes = 1 << 20

type HTTPClient struct {
	baseURL string
	client  *http.Client
	log     logging.Logger
}

// NewHTTPClient builds a client for baseURL (e.g. http://127.0.0.1:8080/api/v1).
// hc should carry the cookie jar; a nil hc gets a jar-less default client.
// No timeout is imposed here; callers bound requests through their context.
func NewHTTPClient(baseURL string, hc *http.Client, log logging.Logger) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("server url is required")
	}
	if hc == nil {
		hc = &http.Client{}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &HTTPClient{baseURL: baseURL, client: hc, log: log}, nil
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type postRequest struct {
	Content string `json:"content"`
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []ErrorDetail   `json:"errors"`
}

func (c *HTTPClient) Register(ctx context.Context, username string, password []byte) (string, error) {
	var msg string
	err := c.do(ctx, http.MethodPost, "/auth/register", "",
		credentialsRequest{Username: username, Password: string(password)}, &msg)
	if err != nil {
		return "", err
	}
	return msg, nil
}

func (c *HTTPClient) Login(ctx context.Context, username string, password []byte) (models.AuthResult, error) {
	var res models.AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/login", "",
		credentialsRequest{Username: username, Password: string(password)}, &res)
	return res, err
}

func (c *HTTPClient) Refresh(ctx context.Context) (models.AuthResult, error) {
	var res models.AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/refresh", "", nil, &res)
	return res, err
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", "", nil, nil)
}

// ListPosts returns the global feed. A "data": null response yields a nil
// slice and no error.
func (c *HTTPClient) ListPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := c.do(ctx, http.MethodGet, "/posts", "", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *HTTPClient) ListPostsByUser(ctx context.Context, token string, id models.UserID) ([]models.Post, error) {
	var posts []models.Post
	path := "/posts/by-user/" + strconv.FormatUint(uint64(id), 10)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *HTTPClient) CreatePost(ctx context.Context, token, content string) error {
	return c.do(ctx, http.MethodPost, "/posts", token, postRequest{Content: content}, nil)
}

func (c *HTTPClient) UpdatePost(ctx context.Context, token string, id uint64, content string) error {
	path := "/posts/" + strconv.FormatUint(id, 10)
	return c.do(ctx, http.MethodPut, path, token, postRequest{Content: content}, nil)
}

func (c *HTTPClient) DeletePost(ctx context.Context, token string, id uint64) error {
	path := "/posts/" + strconv.FormatUint(id, 10)
	return c.do(ctx, http.MethodDelete, path, token, nil, nil)
}

// do sends one request and decodes the envelope. out receives the "data"
// member and is left untouched when data is null or absent.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, requestID)
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	log := c.log.With("method", method, "path", path, "request_id", requestID)
	log.Debug(ctx, "sending request")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Debug(ctx, "request failed", "err", err)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}
	log.Debug(ctx, "response received", "status", resp.StatusCode)

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, env.Errors)
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if out == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
