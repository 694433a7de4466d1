// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/statusdesk/statusdesk/lib/ref"
	"github.com/statusdesk/statusdesk/lib/secret"
)

// secretBuffer wraps a string in a secret.Buffer that is closed when
// the test finishes.
func secretBuffer(t *testing.T, value string) *secret.Buffer {
	t.Helper()
	buffer, err := secret.NewFromBytes([]byte(value))
	if err != nil {
		t.Fatalf("creating secret buffer: %v", err)
	}
	t.Cleanup(func() { buffer.Close() })
	return buffer
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid URL", url: "http://localhost:6167"},
		{name: "empty URL", url: "", wantErr: true},
		{name: "unparseable URL", url: "://invalid", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(ClientConfig{HomeserverURL: tt.url})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewClient(%q) succeeded, want error", tt.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient(%q): %v", tt.url, err)
			}
			if client == nil {
				t.Fatal("NewClient returned nil client")
			}
		})
	}
}

func TestServerVersions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/_matrix/client/versions" {
			t.Errorf("path = %s, want /_matrix/client/versions", request.URL.Path)
		}
		if auth := request.Header.Get("Authorization"); auth != "" {
			t.Errorf("Authorization = %q on an unauthenticated endpoint", auth)
		}
		respondJSON(writer, ServerVersionsResponse{Versions: []string{"v1.11", "v1.12"}})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	versions, err := client.ServerVersions(context.Background())
	if err != nil {
		t.Fatalf("ServerVersions: %v", err)
	}
	if got := strings.Join(versions.Versions, ","); got != "v1.11,v1.12" {
		t.Errorf("versions = %s, want v1.11,v1.12", got)
	}
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/_matrix/client/v3/login" {
			t.Errorf("path = %s, want /_matrix/client/v3/login", request.URL.Path)
			http.NotFound(writer, request)
			return
		}

		var body LoginRequest
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			t.Fatalf("decoding login request: %v", err)
		}
		if body.Type != "m.login.password" {
			t.Errorf("login type = %q, want m.login.password", body.Type)
		}
		if body.User != "statusdesk" {
			t.Errorf("user = %q, want statusdesk", body.User)
		}
		if body.InitialDeviceDisplayName != "statusdesk" {
			t.Errorf("device display name = %q, want statusdesk", body.InitialDeviceDisplayName)
		}

		respondJSON(writer, AuthResponse{
			UserID:      ref.MustParseUserID("@statusdesk:test.local"),
			AccessToken: "syt_statusdesk_token",
			DeviceID:    "DEVICE1",
		})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	session, err := client.Login(context.Background(), "statusdesk", secretBuffer(t, "hunter2"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	defer session.Close()

	if got := session.UserID().String(); got != "@statusdesk:test.local" {
		t.Errorf("UserID() = %q, want @statusdesk:test.local", got)
	}
	if got := session.AccessToken(); got != "syt_statusdesk_token" {
		t.Errorf("AccessToken() = %q, want syt_statusdesk_token", got)
	}
	if got := session.DeviceID(); got != "DEVICE1" {
		t.Errorf("DeviceID() = %q, want DEVICE1", got)
	}
}

func TestLoginRejectedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		respondMatrixError(writer, http.StatusForbidden, ErrCodeForbidden, "Invalid password")
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Login(context.Background(), "statusdesk", secretBuffer(t, "wrong"))
	if !IsMatrixError(err, ErrCodeForbidden) {
		t.Errorf("Login error = %v, want M_FORBIDDEN", err)
	}
}

func TestLoginArgumentValidation(t *testing.T) {
	// Validation happens before any network traffic; the unroutable
	// URL proves it.
	client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Login(context.Background(), "", secretBuffer(t, "password")); err == nil {
		t.Error("Login with empty username succeeded, want error")
	}
	if _, err := client.Login(context.Background(), "statusdesk", nil); err == nil {
		t.Error("Login with nil password succeeded, want error")
	}
}

func TestSessionFromToken(t *testing.T) {
	client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	session, err := client.SessionFromToken(ref.MustParseUserID("@statusdesk:test.local"), "syt_token")
	if err != nil {
		t.Fatalf("SessionFromToken: %v", err)
	}
	defer session.Close()

	if got := session.UserID().String(); got != "@statusdesk:test.local" {
		t.Errorf("UserID() = %q, want @statusdesk:test.local", got)
	}
	if got := session.AccessToken(); got != "syt_token" {
		t.Errorf("AccessToken() = %q, want syt_token", got)
	}
	// Only a login assigns a device.
	if got := session.DeviceID(); got != "" {
		t.Errorf("DeviceID() = %q, want empty", got)
	}
}

func TestMatrixErrorText(t *testing.T) {
	err := &MatrixError{Code: ErrCodeForbidden, Message: "Access denied", StatusCode: 403}
	want := "matrix: M_FORBIDDEN (403): Access denied"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIsMatrixError(t *testing.T) {
	notFound := &MatrixError{Code: ErrCodeNotFound, Message: "not found", StatusCode: 404}
	if !IsMatrixError(notFound, ErrCodeNotFound) {
		t.Error("IsMatrixError(notFound, M_NOT_FOUND) = false, want true")
	}
	if IsMatrixError(notFound, ErrCodeForbidden) {
		t.Error("IsMatrixError(notFound, M_FORBIDDEN) = true, want false")
	}
	if IsMatrixError(context.Canceled, ErrCodeNotFound) {
		t.Error("IsMatrixError matched a non-matrix error")
	}
}

func TestMatrixErrorRetryDelay(t *testing.T) {
	limited := &MatrixError{Code: ErrCodeLimitExceeded, RetryAfterMS: 2500, StatusCode: 429}
	if got := limited.RetryDelay(); got != 2500*time.Millisecond {
		t.Errorf("RetryDelay() = %v, want 2.5s", got)
	}
	bare := &MatrixError{Code: ErrCodeForbidden, StatusCode: 403}
	if got := bare.RetryDelay(); got != 0 {
		t.Errorf("RetryDelay() = %v for an error without a hint, want 0", got)
	}
}
