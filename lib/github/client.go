// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/statusdesk/statusdesk/lib/clock"
	"github.com/statusdesk/statusdesk/lib/netutil"
)

// apiVersion pins the REST API revision via the X-GitHub-Api-Version
// header, so GitHub-side API evolution cannot change behavior under us.
const apiVersion = "2022-11-28"

// defaultBaseURL is the public GitHub API endpoint. GitHub Enterprise
// installs override it through Config.BaseURL.
const defaultBaseURL = "https://api.github.com"

// Config describes the repository a Client binds to and how it
// authenticates. Exactly one authentication mode must be set:
//
//   - a GitHub App installation: AppID, PrivateKey, and InstallationID
//   - a token: Token
type Config struct {
	// Owner is the repository owner (user or organization). Required.
	Owner string

	// Repo is the repository name. Required.
	Repo string

	// BaseURL overrides the API endpoint. Defaults to the public
	// GitHub API. Must be HTTPS.
	BaseURL string

	// AppID is the GitHub App's numeric ID.
	AppID int64

	// PrivateKey is the App's PEM-encoded RSA private key.
	PrivateKey []byte

	// InstallationID names the App installation to act as.
	InstallationID int64

	// Token is a personal access token or fine-grained token.
	Token string

	// HTTPClient carries all requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Clock supplies time for token renewal and rate limit waits.
	// Defaults to clock.Real(); tests inject clock.Fake().
	Clock clock.Clock

	// Logger receives structured request logging. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Client talks to one GitHub repository. It layers authentication,
// rate limit tracking, conditional request caching, and error decoding
// over the REST API, so callers see only typed operations and typed
// errors.
type Client struct {
	owner      string
	repo       string
	baseURL    string
	httpClient *http.Client
	tokens     tokenSource
	limiter    *rateLimiter
	cache      *responseCache
	clock      clock.Clock
	logger     *slog.Logger
}

// NewClient validates config and returns a repository-scoped client.
func NewClient(config Config) (*Client, error) {
	if config.Owner == "" || config.Repo == "" {
		return nil, fmt.Errorf("github: Owner and Repo are required")
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("github: BaseURL must use https, got %q", baseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tokens, err := pickTokenSource(config, httpClient, baseURL, clk)
	if err != nil {
		return nil, err
	}

	return &Client{
		owner:      config.Owner,
		repo:       config.Repo,
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     tokens,
		limiter:    newRateLimiter(clk),
		cache:      newResponseCache(),
		clock:      clk,
		logger:     logger,
	}, nil
}

// pickTokenSource checks the auth fields and builds the matching token
// source.
func pickTokenSource(config Config, httpClient *http.Client, baseURL string, clk clock.Clock) (tokenSource, error) {
	wantsApp := config.AppID != 0 || len(config.PrivateKey) > 0 || config.InstallationID != 0
	switch {
	case wantsApp && config.Token != "":
		return nil, fmt.Errorf("github: cannot configure both App auth and token auth")
	case !wantsApp && config.Token == "":
		return nil, fmt.Errorf("github: no authentication configured (set AppID+PrivateKey+InstallationID or Token)")
	case !wantsApp:
		return staticToken(config.Token), nil
	}
	if config.AppID == 0 || len(config.PrivateKey) == 0 || config.InstallationID == 0 {
		return nil, fmt.Errorf("github: App auth needs AppID, PrivateKey, and InstallationID together")
	}
	return newAppInstallation(config.AppID, config.InstallationID, config.PrivateKey, httpClient, baseURL, clk)
}

// Repository returns the "owner/repo" coordinates the client is bound
// to.
func (client *Client) Repository() string {
	return client.owner + "/" + client.repo
}

// repoPath builds an API path under the client's repository. The
// suffix must start with "/".
func (client *Client) repoPath(suffix string) string {
	return "/repos/" + client.owner + "/" + client.repo + suffix
}

// call runs one API operation against a path relative to the base URL
// and returns the raw response body. Non-2xx responses come back as
// *APIError. A rate limit rejection that names a deadline is retried
// once after waiting it out; everything else fails straight through.
func (client *Client) call(ctx context.Context, method, path string, payload any) ([]byte, error) {
	url := client.baseURL + path
	for attempt := 0; ; attempt++ {
		body, retryIn, err := client.callOnce(ctx, method, url, payload)
		if err == nil {
			return body, nil
		}
		if retryIn <= 0 || attempt > 0 {
			return nil, err
		}

		client.logger.Info("rate limited, backing off",
			"wait", retryIn,
			"method", method,
			"path", path,
		)
		select {
		case <-client.clock.After(retryIn):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// callOnce runs a single request/response cycle. A positive retryIn
// alongside the error marks a rate limit rejection worth retrying
// after that long.
func (client *Client) callOnce(ctx context.Context, method, url string, payload any) (body []byte, retryIn time.Duration, err error) {
	response, err := client.send(ctx, method, url, payload)
	if err != nil {
		return nil, 0, err
	}
	defer response.Body.Close()

	// A 304 confirms the If-None-Match condition: the cached body is
	// still current. A 304 with nothing cached falls through and
	// decodes as an APIError below.
	if response.StatusCode == http.StatusNotModified {
		if _, cached := client.cache.lookup(url); cached != nil {
			return cached, 0, nil
		}
	}

	body, err = netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("github: reading response: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		if method == http.MethodGet {
			client.cache.store(url, response.Header.Get("ETag"), body)
		}
		return body, 0, nil
	}

	apiError := decodeAPIError(response.StatusCode, body)
	if IsRateLimited(apiError) {
		retryIn = client.limiter.backoff(response.Header)
	}
	return nil, retryIn, apiError
}

// send runs one authenticated HTTP round trip and hands back the raw
// response. Shared by call and PageIterator, which needs the Link
// header before the body is decoded. The caller closes the body.
func (client *Client) send(ctx context.Context, method, url string, payload any) (*http.Response, error) {
	if err := client.limiter.block(ctx); err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("github: encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("github: building request: %w", err)
	}

	authorization, err := client.tokens.header(ctx)
	if err != nil {
		return nil, fmt.Errorf("github: authentication: %w", err)
	}
	request.Header.Set("Authorization", authorization)
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", apiVersion)
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodGet {
		if etag, _ := client.cache.lookup(url); etag != "" {
			request.Header.Set("If-None-Match", etag)
		}
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("github: calling %s %s: %w", method, url, err)
	}
	client.limiter.observe(response.Header)
	return response, nil
}

// getJSON fetches path and decodes the JSON object into result.
func (client *Client) getJSON(ctx context.Context, path string, result any) error {
	body, err := client.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, result)
}

// putJSON writes payload to path and decodes the response into result
// when result is non-nil.
func (client *Client) putJSON(ctx context.Context, path string, payload, result any) error {
	body, err := client.call(ctx, http.MethodPut, path, payload)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(body, result)
}
