// Package github reads public repository listings from the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rvsync/backend/pkg/logger"
	"rvsync/backend/pkg/resilience"
)

const (
	defaultBaseURL = "https://api.github.com"
	reposPerPage   = 30
	maxBodyBytes   = 4 << 20
)

var (
	// ErrUserNotFound means GitHub has no account with that login
	ErrUserNotFound = errors.New("github user not found")
	// ErrUnavailable covers transport failures, 5xx answers and an open breaker
	ErrUnavailable = errors.New("github unavailable")
)

// Repo is the subset of a GitHub repository listing that gets imported
type Repo struct {
	Name        string     `json:"name"`
	HTMLURL     string     `json:"html_url"`
	Description *string    `json:"description"`
	Stars       int        `json:"stargazers_count"`
	Forks       int        `json:"forks_count"`
	Language    *string    `json:"language"`
	Topics      []string   `json:"topics"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// Options configures a Client
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is a GitHub REST client whose calls go through a circuit breaker
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
}

func NewClient(opts Options, log *logger.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	breakerConfig := resilience.DefaultConfig("github")
	breakerConfig.Timeout = opts.Timeout

	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		breaker: resilience.NewCircuitBreaker(breakerConfig, log),
		log:     log.WithComponent("github"),
	}
}

// Breaker exposes the circuit breaker for health reporting
func (c *Client) Breaker() *resilience.CircuitBreaker {
	return c.breaker
}

// ListRepos returns the user's most recently updated public repositories.
// A 404 is the caller's problem and does not count against the breaker.
func (c *Client) ListRepos(ctx context.Context, username string) ([]Repo, error) {
	endpoint := fmt.Sprintf("%s/users/%s/repos?%s", c.baseURL, url.PathEscape(username), url.Values{
		"sort":     {"updated"},
		"per_page": {fmt.Sprint(reposPerPage)},
	}.Encode())

	var (
		repos  []Repo
		status int
	)
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		switch {
		case resp.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("status %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return nil
		}
		return json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&repos)
	})
	if err != nil {
		c.log.Warn("repository listing failed", "username", username, "error", err.Error())
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	switch status {
	case http.StatusOK:
		return repos, nil
	case http.StatusNotFound:
		return nil, ErrUserNotFound
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, status)
	}
}

// UsernameFromURL takes the login from a profile URL such as
// https://github.com/octocat/. It reports false when nothing is left.
func UsernameFromURL(profileURL string) (string, bool) {
	trimmed := strings.TrimRight(strings.TrimSpace(profileURL), "/")
	if trimmed == "" {
		return "", false
	}
	login := trimmed[strings.LastIndex(trimmed, "/")+1:]
	return login, login != ""
}
