// Package api talks to the country-leaders REST API.
//
// The API hands out a short-lived session cookie from GET /cookie/ and answers
// 401 or 403 once it expires. Every call goes through withRetry, which renews
// the session and tries again up to the configured budget.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bryanmaina/wikipedia-scraper/internal/constants"
	"github.com/bryanmaina/wikipedia-scraper/internal/domain"
	"github.com/bryanmaina/wikipedia-scraper/internal/util"
	"github.com/bryanmaina/wikipedia-scraper/pkg/errors"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// LeadersAPI is what the harvester needs from the API.
type LeadersAPI interface {
	Countries(ctx context.Context) ([]string, error)
	Leaders(ctx context.Context, country string) ([]domain.Leader, error)
}

type Options struct {
	BaseURL   string
	MaxRetry  int
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the underlying transport. Optional.
	HTTPClient *http.Client
}

type Client struct {
	http     *resty.Client
	maxRetry int
	logger   *zap.Logger
	session  session
}

// session is the cookie set from the last successful handshake. Renewal
// replaces the whole set.
type session struct {
	mu      sync.RWMutex
	cookies []*http.Cookie
}

func (s *session) get() []*http.Cookie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cookies
}

func (s *session) set(cookies []*http.Cookie) {
	s.mu.Lock()
	s.cookies = cookies
	s.mu.Unlock()
}

// NewClient builds the client and performs the first session handshake.
func NewClient(ctx context.Context, opts Options, logger *zap.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.NewValidationError("base URL is required", "base_url", opts.BaseURL)
	}
	if opts.MaxRetry < 1 {
		return nil, errors.NewValidationError("max retry must be at least 1", "max_retry", opts.MaxRetry)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.APIConfig.DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = constants.DefaultUserAgent
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(strings.TrimRight(opts.BaseURL, "/"))
	rc.SetCookieJar(nil)
	rc.SetTimeout(opts.Timeout)
	rc.SetHeader("User-Agent", opts.UserAgent)
	rc.SetHeader("Accept", "application/json")

	c := &Client{
		http:     rc,
		maxRetry: opts.MaxRetry,
		logger:   util.OrNop(logger),
	}

	if err := c.renewSession(ctx); err != nil {
		return nil, err
	}

	c.logger.Info("Leaders API session established",
		zap.String("base_url", opts.BaseURL),
		zap.Int("max_retry", opts.MaxRetry),
	)

	return c, nil
}

// Countries returns the country codes the API knows about.
func (c *Client) Countries(ctx context.Context) ([]string, error) {
	path := constants.APIConfig.CountriesPath

	resp, err := c.withRetry(ctx, path, func(ctx context.Context) (*resty.Response, error) {
		return c.request(ctx).Get(path)
	})
	if err != nil {
		return nil, err
	}
	if needsRetry(resp.StatusCode()) {
		return nil, exhaustedError(path, resp.StatusCode(), c.maxRetry)
	}

	var countries []string
	if err := json.Unmarshal(resp.Body(), &countries); err != nil {
		return nil, decodeError(path, resp, err)
	}
	return countries, nil
}

// Leaders returns the roster of one country with Country set on every record.
func (c *Client) Leaders(ctx context.Context, country string) ([]domain.Leader, error) {
	path := constants.APIConfig.LeadersPath

	resp, err := c.withRetry(ctx, path, func(ctx context.Context) (*resty.Response, error) {
		return c.request(ctx).
			SetQueryParam("country", country).
			Get(path)
	})
	if err != nil {
		return nil, err
	}
	if needsRetry(resp.StatusCode()) {
		return nil, exhaustedError(path, resp.StatusCode(), c.maxRetry)
	}

	var leaders []domain.Leader
	if err := json.Unmarshal(resp.Body(), &leaders); err != nil {
		return nil, decodeError(path, resp, err)
	}
	return domain.WithCountry(leaders, country), nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetCookies(c.session.get())
}

// withRetry runs call until it gets a response outside the auth-failure set,
// renewing the session between attempts. When the budget runs out the last
// auth-failure response is returned with a nil error; callers decide what an
// exhausted budget means for them.
func (c *Client) withRetry(ctx context.Context, endpoint string, call func(context.Context) (*resty.Response, error)) (*resty.Response, error) {
	var last *resty.Response

	for attempt := 1; attempt <= c.maxRetry; attempt++ {
		resp, err := call(ctx)
		if err != nil {
			apiErr := errors.NewAPIError("request failed", 0, map[string]any{
				"endpoint": endpoint,
				"attempt":  attempt,
			})
			apiErr.Cause = err
			return nil, apiErr
		}

		status := resp.StatusCode()
		if needsRetry(status) {
			last = resp
			if attempt == c.maxRetry {
				c.logger.Info("Max retries reached, returning last response",
					zap.String("endpoint", endpoint),
					zap.Int("status", status),
				)
				return resp, nil
			}

			c.logger.Info("Session rejected, renewing cookie",
				zap.String("endpoint", endpoint),
				zap.Int("status", status),
				zap.Int("attempt", attempt),
			)
			if err := c.renewSession(ctx); err != nil {
				c.logger.Error("Failed to renew session during retry", zap.Error(err))
				return nil, err
			}
			continue
		}

		if status >= 400 {
			return nil, errors.NewAPIError(fmt.Sprintf("API error: %d", status), status, map[string]any{
				"endpoint": endpoint,
				"body":     util.TruncateString(string(resp.Body()), 200),
			})
		}

		return resp, nil
	}

	return last, nil
}

// renewSession fetches a fresh cookie set. A 403 gets exactly one more try.
func (c *Client) renewSession(ctx context.Context) error {
	path := constants.APIConfig.CookiePath
	attempts := constants.APIConfig.HandshakeAttempt

	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.http.R().SetContext(ctx).Get(path)
		if err != nil {
			authErr := errors.NewAuthError("cookie handshake failed", 0, map[string]any{
				"attempt": attempt,
			})
			authErr.Cause = err
			return authErr
		}

		status := resp.StatusCode()
		if status == http.StatusForbidden && attempt < attempts {
			c.logger.Warn("Cookie handshake forbidden, trying once more", zap.Int("attempt", attempt))
			continue
		}
		if status >= 400 {
			return errors.NewAuthError(fmt.Sprintf("cookie handshake failed: %d", status), status, map[string]any{
				"attempt": attempt,
			})
		}

		c.session.set(resp.Cookies())
		c.logger.Debug("Session cookie renewed", zap.Int("cookies", len(resp.Cookies())))
		return nil
	}

	return errors.NewAuthError("cookie handshake failed", http.StatusForbidden, nil)
}

func needsRetry(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func exhaustedError(endpoint string, status, budget int) *errors.AuthError {
	return errors.NewAuthError("session still rejected after retry budget", status, map[string]any{
		"endpoint":  endpoint,
		"max_retry": budget,
	})
}

func decodeError(endpoint string, resp *resty.Response, cause error) *errors.APIError {
	apiErr := errors.NewAPIError("failed to decode response", resp.StatusCode(), map[string]any{
		"endpoint": endpoint,
		"body":     util.TruncateString(string(resp.Body()), 200),
	})
	apiErr.Cause = cause
	return apiErr
}
