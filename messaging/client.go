// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/statusdesk/statusdesk/lib/netutil"
	"github.com/statusdesk/statusdesk/lib/ref"
	"github.com/statusdesk/statusdesk/lib/secret"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// HomeserverURL is the base URL of the Matrix homeserver, e.g.
	// "https://matrix.example.org".
	HomeserverURL string
	// HTTPClient overrides http.DefaultClient when set.
	HTTPClient *http.Client
	// Logger overrides slog.Default() when set.
	Logger *slog.Logger
}

// Client talks to one homeserver. It carries no credentials of its
// own; authenticated calls go through a Session, which shares the
// Client's transport.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates the homeserver URL and returns a client for it.
func NewClient(config ClientConfig) (*Client, error) {
	if config.HomeserverURL == "" {
		return nil, fmt.Errorf("messaging: HomeserverURL must be set")
	}
	// Request URLs are built by concatenating onto the base string
	// rather than through url.URL, which re-encodes Path on String()
	// and can double-escape the room and event IDs embedded in Matrix
	// paths. Parse once here so a malformed base fails fast.
	if _, err := url.Parse(config.HomeserverURL); err != nil {
		return nil, fmt.Errorf("messaging: invalid HomeserverURL %q: %w", config.HomeserverURL, err)
	}

	client := &Client{
		baseURL:    strings.TrimRight(config.HomeserverURL, "/"),
		httpClient: config.HTTPClient,
		logger:     config.Logger,
	}
	if client.httpClient == nil {
		client.httpClient = http.DefaultClient
	}
	if client.logger == nil {
		client.logger = slog.Default()
	}
	return client, nil
}

// CloseIdleConnections drops pooled TCP connections. Call after a
// network disruption so the next request dials fresh instead of
// reusing a poisoned connection.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// ServerVersions asks the homeserver which Matrix protocol versions it
// speaks. The endpoint is unauthenticated, which makes it a cheap
// reachability probe before attempting a login.
func (c *Client) ServerVersions(ctx context.Context) (*ServerVersionsResponse, error) {
	body, err := c.call(ctx, http.MethodGet, "/_matrix/client/versions", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: fetching server versions: %w", err)
	}
	response := new(ServerVersionsResponse)
	if err := json.Unmarshal(body, response); err != nil {
		return nil, fmt.Errorf("messaging: parsing versions response: %w", err)
	}
	return response, nil
}

// Login authenticates with username and password and returns a
// Session for the account. The password buffer is read, not closed;
// the caller keeps ownership.
func (c *Client) Login(ctx context.Context, username string, password *secret.Buffer) (*Session, error) {
	if username == "" {
		return nil, fmt.Errorf("messaging: login needs a username")
	}
	if password == nil {
		return nil, fmt.Errorf("messaging: login needs a password")
	}

	// The password escapes to an ordinary heap string here; JSON
	// serialization leaves no way around that. The copy lives only for
	// the duration of the request.
	body, err := c.call(ctx, http.MethodPost, "/_matrix/client/v3/login", nil, LoginRequest{
		Type:                     "m.login.password",
		User:                     username,
		Password:                 password.String(),
		InitialDeviceDisplayName: "statusdesk",
	})
	if err != nil {
		return nil, fmt.Errorf("messaging: login: %w", err)
	}

	var auth AuthResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		return nil, fmt.Errorf("messaging: parsing login response: %w", err)
	}
	c.logger.Info("logged in to matrix",
		"user_id", auth.UserID,
		"device_id", auth.DeviceID,
	)
	return c.newSession(auth.AccessToken, auth.UserID, auth.DeviceID)
}

// SessionFromToken builds a Session around an existing access token,
// as saved by a previous login. The token is not validated here; the
// first authenticated call fails if it has been revoked.
//
// The caller must Close the returned Session when done.
func (c *Client) SessionFromToken(userID ref.UserID, accessToken string) (*Session, error) {
	return c.newSession(accessToken, userID, "")
}

// newSession moves the token into mmap-backed memory (locked against
// swap, excluded from core dumps). The string copy it came in as is
// left to the garbage collector.
func (c *Client) newSession(accessToken string, userID ref.UserID, deviceID string) (*Session, error) {
	tokenBuffer, err := secret.NewFromBytes([]byte(accessToken))
	if err != nil {
		return nil, fmt.Errorf("messaging: protecting access token: %w", err)
	}
	return &Session{
		client:      c,
		accessToken: tokenBuffer,
		userID:      userID,
		deviceID:    deviceID,
	}, nil
}

// call performs one homeserver request and returns the response body.
// Non-2xx responses come back as a *MatrixError. accessToken is nil
// for unauthenticated endpoints; query is optional.
func (c *Client) call(ctx context.Context, method, path string, accessToken *secret.Buffer, requestBody any, query ...url.Values) ([]byte, error) {
	request, err := c.newRequest(ctx, method, path, accessToken, requestBody, query...)
	if err != nil {
		return nil, err
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("messaging: calling %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("messaging: reading response body: %w", err)
	}
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}
	return nil, matrixErrorFrom(response.StatusCode, responseBody, method, path)
}

// newRequest assembles the request for one endpoint call: optional
// query string, JSON-encoded body, bearer credential.
func (c *Client) newRequest(ctx context.Context, method, path string, accessToken *secret.Buffer, requestBody any, query ...url.Values) (*http.Request, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 && query[0] != nil {
		endpoint += "?" + query[0].Encode()
	}

	var payload io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("messaging: encoding request body: %w", err)
		}
		payload = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("messaging: building request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if accessToken != nil {
		request.Header.Set("Authorization", "Bearer "+accessToken.String())
	}
	return request, nil
}

// matrixErrorFrom decodes the standard Matrix error payload. A
// non-JSON body means a broken proxy or a very confused server; its
// raw text is surfaced rather than swallowed.
func matrixErrorFrom(statusCode int, body []byte, method, path string) error {
	var matrixErr MatrixError
	if err := json.Unmarshal(body, &matrixErr); err != nil {
		return fmt.Errorf("messaging: unexpected %d response from %s %s: %s",
			statusCode, method, path, string(body))
	}
	matrixErr.StatusCode = statusCode
	return &matrixErr
}
