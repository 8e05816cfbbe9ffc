package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultTimeout = 10 * time.Second

// Client is the authenticated API client. Requests carry the session's
// bearer token; a 401/403 response triggers exactly one token refresh and
// one retry of the original request. If the refresh fails or no refresh
// token exists, the session is logged out and the call fails with AuthError.
//
// A single request may therefore mutate the session (new tokens, or a full
// logout) as a side effect.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	log        *zap.Logger

	refreshGroup singleflight.Group
	validate     *validator.Validate
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client for the given base URL and session.
func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		session:    session,
		log:        zap.NewNop(),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session this client mutates.
func (c *Client) Session() *Session {
	return c.session
}

type multipartPayload struct {
	fields map[string]string
	files  map[string]filePayload
}

type filePayload struct {
	name   string
	reader io.Reader
}

func (p *multipartPayload) encode() (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range p.fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", err
		}
	}
	for key, file := range p.files {
		part, err := writer.CreateFormFile(key, file.name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, file.reader); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

// do issues a request and decodes the JSON response into out (when non-nil).
// jsonBody and multipartBody are mutually exclusive.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, jsonBody any, multipartBody *multipartPayload, out any) error {
	resp, body, err := c.send(ctx, method, path, query, jsonBody, multipartBody, true)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{StatusCode: resp.StatusCode, Message: serverMessage(body)}
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// send executes the request, transparently refreshing the token pair once
// when the server answers 401 or 403. The body is encoded to bytes up front
// so the retry can replay it; file readers are only consumed once.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, jsonBody any, multipartBody *multipartPayload, allowRefresh bool) (*http.Response, []byte, error) {
	var bodyBytes []byte
	contentType := ""
	switch {
	case multipartBody != nil:
		buf, ct, err := multipartBody.encode()
		if err != nil {
			return nil, nil, fmt.Errorf("encode multipart body: %w", err)
		}
		bodyBytes = buf.Bytes()
		contentType = ct
	case jsonBody != nil:
		data, err := json.Marshal(jsonBody)
		if err != nil {
			return nil, nil, fmt.Errorf("encode request body: %w", err)
		}
		bodyBytes = data
		contentType = "application/json"
	}

	resp, body, err := c.attempt(ctx, method, path, query, bodyBytes, contentType)
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden {
		return resp, body, nil
	}

	if !allowRefresh {
		return resp, body, nil
	}

	original := &ServerError{StatusCode: resp.StatusCode, Message: serverMessage(body)}

	if _, refresh := c.session.Tokens(); refresh == "" {
		c.log.Warn("no refresh token, logging out", zap.String("path", path))
		c.session.Logout()
		return nil, nil, &AuthError{Err: original}
	}

	if err := c.refreshTokens(ctx); err != nil {
		c.log.Warn("token refresh failed, logging out", zap.String("path", path), zap.Error(err))
		c.session.Logout()
		return nil, nil, &AuthError{Err: original}
	}

	c.log.Debug("token refreshed, retrying request", zap.String("path", path))
	return c.attempt(ctx, method, path, query, bodyBytes, contentType)
}

// attempt performs a single request with the current session token.
func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, bodyBytes []byte, contentType string) (*http.Response, []byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if bodyBytes != nil {
		body = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token, _ := c.session.Tokens(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &NetworkError{Err: err}
	}
	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, nil, &NetworkError{Err: readErr}
	}
	return resp, respBody, nil
}

// refreshTokens exchanges the refresh token for a new pair. Concurrent
// callers collapse into one refresh call and share its result.
func (c *Client) refreshTokens(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		_, refresh := c.session.Tokens()
		if refresh == "" {
			return nil, fmt.Errorf("no refresh token")
		}

		payload, err := json.Marshal(map[string]string{"refresh": refresh})
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token/refresh/", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &NetworkError{Err: err}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &NetworkError{Err: err}
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &ServerError{StatusCode: resp.StatusCode, Message: serverMessage(body)}
		}

		var pair TokenPair
		if err := json.Unmarshal(body, &pair); err != nil {
			return nil, fmt.Errorf("decode refresh response: %w", err)
		}
		if pair.Access == "" {
			return nil, fmt.Errorf("refresh response missing access token")
		}

		c.session.SetTokens(pair.Access, pair.Refresh)
		return nil, nil
	})
	return err
}

// serverMessage extracts the error message from an API error payload.
func serverMessage(body []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Detail
}
