// Package github syncs documents from a GitHub repository directory.
package github

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// Client wraps the GitHub API client with rate limiting support
type Client struct {
	*github.Client
}

// ClientOption configures NewClient.
type ClientOption func(*github.Client) error

// WithBaseURL points the client at another API root, such as GitHub
// Enterprise or a test server.
func WithBaseURL(raw string) ClientOption {
	return func(c *github.Client) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse base URL: %w", err)
		}
		c.BaseURL = u
		return nil
	}
}

// NewClient creates a GitHub client that waits out primary and secondary
// rate limits. An empty token makes unauthenticated requests (60 per hour).
func NewClient(token string, opts ...ClientOption) (*Client, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(http.DefaultTransport)
	if err != nil {
		return nil, fmt.Errorf("create rate limiter: %w", err)
	}

	ghClient := github.NewClient(rateLimiter)
	if token != "" {
		ghClient = ghClient.WithAuthToken(token)
	}

	for _, opt := range opts {
		if err := opt(ghClient); err != nil {
			return nil, err
		}
	}

	return &Client{Client: ghClient}, nil
}
