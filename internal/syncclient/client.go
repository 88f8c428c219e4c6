// Package syncclient talks to the lessons HTTP API on behalf of a learner.
// It implements engine.SyncClient.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/mind-engage/mindengage-lessons/internal/slide"
)

type Config struct {
	BaseURL string
	// Token is a static bearer token. Ignored when TokenURL is set.
	Token string

	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	Timeout time.Duration
}

type Client struct {
	base string
	http *http.Client
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.Status, e.Body)
}

func New(cfg Config) *Client {
	var h *http.Client
	switch {
	case cfg.TokenURL != "":
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		h = cc.Client(context.Background())
	case cfg.Token != "":
		h = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	default:
		h = &http.Client{}
	}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &Client{base: strings.TrimSuffix(cfg.BaseURL, "/"), http: h}
}

func (c *Client) FetchView(ctx context.Context, viewID int64) (slide.View, error) {
	var v slide.View
	err := c.do(ctx, "fetch view", http.MethodGet, fmt.Sprintf("/views/%d", viewID), nil, &v)
	return v, err
}

func (c *Client) FetchSubmissions(ctx context.Context, viewID int64) ([]slide.Submission, error) {
	var out []slide.Submission
	if err := c.do(ctx, "fetch submissions", http.MethodGet, fmt.Sprintf("/views/%d/submissions", viewID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PostProgress(ctx context.Context, viewID int64, progress []bool) error {
	return c.do(ctx, "post progress", http.MethodPost, fmt.Sprintf("/views/%d/progress", viewID),
		slide.Progress{Progress: progress}, nil)
}

// PostSubmission creates the submission, or overwrites it when sub.ID is
// already known.
func (c *Client) PostSubmission(ctx context.Context, viewID int64, sub slide.Submission) (slide.Submission, error) {
	sub.ViewID = viewID
	if sub.Answer == nil {
		sub.Answer = []slide.Answer{}
	}
	var out slide.Submission
	var err error
	if sub.ID != 0 {
		err = c.do(ctx, "update submission", http.MethodPatch,
			fmt.Sprintf("/views/%d/submissions/%d", viewID, sub.ID), sub, &out)
	} else {
		err = c.do(ctx, "post submission", http.MethodPost,
			fmt.Sprintf("/views/%d/submissions", viewID), sub, &out)
	}
	return out, err
}

func (c *Client) RestartView(ctx context.Context, viewID int64) error {
	return c.do(ctx, "restart view", http.MethodPost, fmt.Sprintf("/views/%d/restart", viewID), nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return &StatusError{Op: op, Status: res.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	return nil
}
