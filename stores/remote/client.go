// Package remote talks to a board API server over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marker-mind/core"

	"github.com/sirupsen/logrus"
)

const boardsPath = "/api/v2/boards/"

// Client implements core.Persistence against the board API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default client, which times out after 30s.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchBoard loads a board. A 404 yields an error matching core.ErrNotFound
// and transport failures a *core.NetworkError.
func (c *Client) FetchBoard(ctx context.Context, id string) (*core.Board, error) {
	var b core.Board
	if err := c.do(ctx, http.MethodGet, id, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// SaveBoard replaces the objects of a board.
func (c *Client) SaveBoard(ctx context.Context, id string, objects core.Snapshot) error {
	body, err := json.Marshal(core.SaveRequest{Objects: objects})
	if err != nil {
		return fmt.Errorf("encode board %s: %w", id, err)
	}
	return c.do(ctx, http.MethodPut, id, body, nil)
}

func (c *Client) do(ctx context.Context, method, id string, body []byte, out any) error {
	target := c.baseURL + boardsPath + url.PathEscape(id)
	log := logrus.WithFields(logrus.Fields{"method": method, "url": target})

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Error("Request failed")
		return &core.NetworkError{Op: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		log.Warn("Board not found on server")
		return &core.NotFoundError{ID: id}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.WithField("status", resp.StatusCode).Error("Unexpected response")
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &core.NetworkError{Op: method, URL: target, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// StatusError is returned for non-2xx responses other than 404.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server responded %d", e.Code)
	}
	return fmt.Sprintf("server responded %d: %s", e.Code, e.Body)
}
