// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/statusdesk/statusdesk/lib/clock"
	"github.com/statusdesk/statusdesk/lib/netutil"
)

// A tokenSource produces the Authorization header value for API
// requests. A personal access token is a fixed string for the life of
// the process; a GitHub App installation mints short-lived tokens and
// renews them as they age out.
type tokenSource interface {
	header(ctx context.Context) (string, error)
}

// staticToken authenticates with a personal access token or
// fine-grained token.
type staticToken string

func (token staticToken) header(context.Context) (string, error) {
	return "Bearer " + string(token), nil
}

// Installation tokens live for one hour. Renewing this far before the
// recorded expiry keeps a token from going stale between the header
// check and the request that carries it.
const tokenRenewMargin = 5 * time.Minute

// appJWTLifetime bounds the signed App JWT. Ten minutes is the longest
// GitHub accepts.
const appJWTLifetime = 10 * time.Minute

// appJWTBackdate shifts the JWT's issued-at into the past to absorb
// clock skew between this host and GitHub.
const appJWTBackdate = time.Minute

// appInstallation authenticates as a GitHub App installation. Each
// mint signs an RS256 JWT with the App's private key and trades it for
// an installation access token; header renews the token once the
// current one is inside the renew margin.
type appInstallation struct {
	appID          int64
	installationID int64
	key            *rsa.PrivateKey
	httpClient     *http.Client
	apiBase        string
	clock          clock.Clock

	mu         sync.Mutex
	current    string
	validUntil time.Time
}

func newAppInstallation(appID, installationID int64, keyPEM []byte, httpClient *http.Client, apiBase string, clk clock.Clock) (*appInstallation, error) {
	key, err := parseAppKey(keyPEM)
	if err != nil {
		return nil, err
	}
	return &appInstallation{
		appID:          appID,
		installationID: installationID,
		key:            key,
		httpClient:     httpClient,
		apiBase:        apiBase,
		clock:          clk,
	}, nil
}

// parseAppKey decodes the PEM-encoded RSA private key GitHub issues
// for an App. GitHub hands out PKCS#1 keys, but keys re-wrapped by
// other tooling often arrive as PKCS#8, so both forms are accepted.
func parseAppKey(keyPEM []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("github: App private key is not PEM")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("github: parsing App private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("github: App private key is %T, want RSA", parsed)
	}
	return key, nil
}

func (app *appInstallation) header(ctx context.Context) (string, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.current != "" && app.clock.Now().Add(tokenRenewMargin).Before(app.validUntil) {
		return "Bearer " + app.current, nil
	}

	token, validUntil, err := app.mint(ctx)
	if err != nil {
		return "", err
	}
	app.current = token
	app.validUntil = validUntil
	return "Bearer " + token, nil
}

// mint trades a freshly signed App JWT for an installation access
// token. Caller holds app.mu.
func (app *appInstallation) mint(ctx context.Context) (string, time.Time, error) {
	jwt, err := app.signedJWT()
	if err != nil {
		return "", time.Time{}, err
	}

	url := fmt.Sprintf("%s/app/installations/%d/access_tokens", app.apiBase, app.installationID)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("github: building token request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+jwt)
	request.Header.Set("Accept", "application/vnd.github+json")

	response, err := app.httpClient.Do(request)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("github: minting installation token: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusCreated {
		return "", time.Time{}, fmt.Errorf("github: installation token request returned HTTP %d: %s", response.StatusCode, netutil.ErrorBody(response.Body))
	}

	var minted struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := netutil.DecodeResponse(response.Body, &minted); err != nil {
		return "", time.Time{}, fmt.Errorf("github: decoding installation token: %w", err)
	}
	if minted.Token == "" {
		return "", time.Time{}, fmt.Errorf("github: installation token response carried no token")
	}
	return minted.Token, minted.ExpiresAt, nil
}

// signedJWT builds the RS256 App JWT that authorizes a token mint. The
// claims are three fields and the algorithm is fixed, so stdlib crypto
// covers the whole signing path.
func (app *appInstallation) signedJWT() (string, error) {
	now := app.clock.Now()
	claims, err := json.Marshal(struct {
		IssuedAt  int64  `json:"iat"`
		ExpiresAt int64  `json:"exp"`
		Issuer    string `json:"iss"`
	}{
		IssuedAt:  now.Add(-appJWTBackdate).Unix(),
		ExpiresAt: now.Add(appJWTLifetime).Unix(),
		Issuer:    strconv.FormatInt(app.appID, 10),
	})
	if err != nil {
		return "", fmt.Errorf("github: encoding JWT claims: %w", err)
	}

	encode := base64.RawURLEncoding.EncodeToString
	unsigned := encode([]byte(`{"alg":"RS256","typ":"JWT"}`)) + "." + encode(claims)
	digest := sha256.Sum256([]byte(unsigned))
	signature, err := rsa.SignPKCS1v15(rand.Reader, app.key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("github: signing App JWT: %w", err)
	}
	return unsigned + "." + encode(signature), nil
}
