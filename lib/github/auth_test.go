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
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/statusdesk/statusdesk/lib/clock"
)

// testAppKeyPEM is a throwaway RSA key in the PKCS#1 wrapping GitHub
// uses for App keys. Generated once per test binary.
var testAppKeyPEM = func() []byte {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic("generating test RSA key: " + err.Error())
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}()

func decodeJWTPart(t *testing.T, part string, into any) {
	t.Helper()
	raw, err := base64.RawURLEncoding.DecodeString(part)
	if err != nil {
		t.Fatalf("decoding JWT part: %v", err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		t.Fatalf("parsing JWT part %q: %v", raw, err)
	}
}

func TestAppJWTShape(t *testing.T) {
	signedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	app, err := newAppInstallation(12345, 67890, testAppKeyPEM, nil, "", clock.Fake(signedAt))
	if err != nil {
		t.Fatalf("newAppInstallation: %v", err)
	}

	jwt, err := app.signedJWT()
	if err != nil {
		t.Fatalf("signedJWT: %v", err)
	}
	parts := strings.Split(jwt, ".")
	if len(parts) != 3 {
		t.Fatalf("JWT has %d parts, want 3", len(parts))
	}

	var header struct {
		Alg string `json:"alg"`
		Typ string `json:"typ"`
	}
	decodeJWTPart(t, parts[0], &header)
	if header.Alg != "RS256" || header.Typ != "JWT" {
		t.Errorf("header = %+v, want RS256/JWT", header)
	}

	var claims struct {
		IssuedAt  int64  `json:"iat"`
		ExpiresAt int64  `json:"exp"`
		Issuer    string `json:"iss"`
	}
	decodeJWTPart(t, parts[1], &claims)
	if got, want := claims.IssuedAt, signedAt.Add(-appJWTBackdate).Unix(); got != want {
		t.Errorf("iat = %d, want %d (backdated for skew)", got, want)
	}
	if got, want := claims.ExpiresAt, signedAt.Add(appJWTLifetime).Unix(); got != want {
		t.Errorf("exp = %d, want %d", got, want)
	}
	if claims.Issuer != "12345" {
		t.Errorf("iss = %q, want the App ID", claims.Issuer)
	}

	// The signature must verify against the key's public half.
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		t.Fatalf("decoding signature: %v", err)
	}
	digest := sha256.Sum256([]byte(parts[0] + "." + parts[1]))
	if err := rsa.VerifyPKCS1v15(&app.key.PublicKey, crypto.SHA256, digest[:], signature); err != nil {
		t.Errorf("signature does not verify: %v", err)
	}
}

func TestInstallationTokenRenewal(t *testing.T) {
	fakeClock := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	mints := 0
	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		mints++
		if request.URL.Path != "/app/installations/67890/access_tokens" {
			t.Errorf("mint path = %s", request.URL.Path)
			http.Error(writer, "not found", http.StatusNotFound)
			return
		}
		// The mint must be authorized by a JWT, not an old token.
		if authorization := request.Header.Get("Authorization"); !strings.HasPrefix(authorization, "Bearer ey") {
			t.Errorf("mint Authorization = %q, want a JWT", authorization)
		}
		writer.WriteHeader(http.StatusCreated)
		json.NewEncoder(writer).Encode(map[string]any{
			"token":      fmt.Sprintf("ghs_minted_%d", mints),
			"expires_at": fakeClock.Now().Add(time.Hour).Format(time.RFC3339),
		})
	}))
	defer server.Close()

	app, err := newAppInstallation(12345, 67890, testAppKeyPEM, server.Client(), server.URL, fakeClock)
	if err != nil {
		t.Fatalf("newAppInstallation: %v", err)
	}
	ctx := context.Background()

	// First header mints; the second rides the cached token.
	for call := 1; call <= 2; call++ {
		header, err := app.header(ctx)
		if err != nil {
			t.Fatalf("header call %d: %v", call, err)
		}
		if header != "Bearer ghs_minted_1" {
			t.Errorf("header call %d = %q, want the first minted token", call, header)
		}
	}
	if mints != 1 {
		t.Fatalf("mints = %d after two header calls, want 1", mints)
	}

	// Inside the renew margin of the one-hour expiry, a new token is
	// minted.
	fakeClock.Advance(56 * time.Minute)
	header, err := app.header(ctx)
	if err != nil {
		t.Fatalf("header after advance: %v", err)
	}
	if header != "Bearer ghs_minted_2" {
		t.Errorf("header after advance = %q, want a renewed token", header)
	}
	if mints != 2 {
		t.Errorf("mints = %d, want 2", mints)
	}
}

func TestStaticTokenHeader(t *testing.T) {
	header, err := staticToken("ghp_test123").header(context.Background())
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	if header != "Bearer ghp_test123" {
		t.Errorf("header = %q", header)
	}
}

func TestParseAppKey(t *testing.T) {
	if _, err := parseAppKey([]byte("not a pem")); err == nil {
		t.Error("expected error for non-PEM input")
	}

	if _, err := parseAppKey(testAppKeyPEM); err != nil {
		t.Errorf("PKCS#1 key rejected: %v", err)
	}

	// The same key re-wrapped as PKCS#8 must parse too.
	block, _ := pem.Decode(testAppKeyPEM)
	pkcs1, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		t.Fatalf("ParsePKCS1PrivateKey: %v", err)
	}
	pkcs8, err := x509.MarshalPKCS8PrivateKey(pkcs1)
	if err != nil {
		t.Fatalf("MarshalPKCS8PrivateKey: %v", err)
	}
	rewrapped := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8})
	if _, err := parseAppKey(rewrapped); err != nil {
		t.Errorf("PKCS#8 key rejected: %v", err)
	}
}
