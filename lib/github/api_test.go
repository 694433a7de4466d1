// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetFile(t *testing.T) {
	var receivedPath, receivedQuery string
	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		receivedPath = request.URL.Path
		receivedQuery = request.URL.RawQuery
		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(ContentFile{
			Type:     "file",
			Encoding: "base64",
			Name:     "status.json",
			Path:     "data/status.json",
			SHA:      "abc123",
			Size:     3,
			Content:  "W10K\n",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	file, err := client.GetFile(context.Background(), "data/status.json", "main")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}

	if receivedPath != "/repos/owner/repo/contents/data/status.json" {
		t.Errorf("path = %s", receivedPath)
	}
	if receivedQuery != "ref=main" {
		t.Errorf("query = %s, want ref=main", receivedQuery)
	}
	if file.SHA != "abc123" {
		t.Errorf("SHA = %q, want abc123", file.SHA)
	}
}

func TestContentFile_Decode(t *testing.T) {
	raw := []byte(`[{"status":"resolved"}]` + "\n")
	encoded := base64.StdEncoding.EncodeToString(raw)
	// Reproduce GitHub's line wrapping.
	wrapped := encoded[:10] + "\n" + encoded[10:] + "\n"

	file := &ContentFile{Encoding: "base64", Path: "data/status.json", Content: wrapped}
	decoded, err := file.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(decoded) != string(raw) {
		t.Errorf("decoded = %q, want %q", decoded, raw)
	}
}

func TestContentFile_DecodeRejectsUnknownEncoding(t *testing.T) {
	file := &ContentFile{Encoding: "none", Path: "big.bin"}
	if _, err := file.Decode(); err == nil {
		t.Error("expected error for non-base64 encoding")
	}
}

func TestGetFile_RejectsDirectories(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(ContentFile{Type: "dir", Path: "data"})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	if _, err := client.GetFile(context.Background(), "data", ""); err == nil {
		t.Error("expected error for directory response")
	}
}

func TestPutFile(t *testing.T) {
	var receivedMethod, receivedPath string
	var receivedBody map[string]string

	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		receivedMethod = request.Method
		receivedPath = request.URL.Path
		json.NewDecoder(request.Body).Decode(&receivedBody)

		writer.WriteHeader(http.StatusOK)
		json.NewEncoder(writer).Encode(ContentUpdate{
			Content: &ContentFile{SHA: "newsha456", Path: "data/status.json"},
			Commit: ContentCommit{
				SHA:     "commit789",
				HTMLURL: "https://github.com/owner/repo/commit/commit789",
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	update, err := client.PutFile(context.Background(), "data/status.json", PutFileRequest{
		Message: "Update service status (via statusdesk by @ops)",
		Content: []byte(`[]` + "\n"),
		SHA:     "abc123",
		Branch:  "main",
	})
	if err != nil {
		t.Fatalf("PutFile: %v", err)
	}

	if receivedMethod != "PUT" {
		t.Errorf("method = %s, want PUT", receivedMethod)
	}
	if receivedPath != "/repos/owner/repo/contents/data/status.json" {
		t.Errorf("path = %s", receivedPath)
	}
	if receivedBody["message"] != "Update service status (via statusdesk by @ops)" {
		t.Errorf("message = %q", receivedBody["message"])
	}
	if receivedBody["sha"] != "abc123" {
		t.Errorf("sha = %q, want abc123", receivedBody["sha"])
	}
	if receivedBody["branch"] != "main" {
		t.Errorf("branch = %q, want main", receivedBody["branch"])
	}
	decoded, err := base64.StdEncoding.DecodeString(receivedBody["content"])
	if err != nil || string(decoded) != "[]\n" {
		t.Errorf("content = %q (decode error %v), want base64 of []\\n", receivedBody["content"], err)
	}
	if update.Content.SHA != "newsha456" {
		t.Errorf("new blob SHA = %q", update.Content.SHA)
	}
	if update.Commit.SHA != "commit789" {
		t.Errorf("commit SHA = %q", update.Commit.SHA)
	}
}

func TestPutFile_CreateOmitsSHA(t *testing.T) {
	var receivedBody map[string]any
	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		json.NewDecoder(request.Body).Decode(&receivedBody)
		writer.WriteHeader(http.StatusCreated)
		json.NewEncoder(writer).Encode(ContentUpdate{
			Content: &ContentFile{SHA: "first"},
			Commit:  ContentCommit{SHA: "commit1"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.PutFile(context.Background(), "data/status.json", PutFileRequest{
		Message: "Create status file",
		Content: []byte("[]\n"),
	})
	if err != nil {
		t.Fatalf("PutFile: %v", err)
	}

	if _, present := receivedBody["sha"]; present {
		t.Error("sha field sent for a create request")
	}
	if _, present := receivedBody["branch"]; present {
		t.Error("branch field sent when not configured")
	}
}

func TestPutFile_Conflict(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusConflict)
		json.NewEncoder(writer).Encode(map[string]string{
			"message": "data/status.json does not match abc123",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.PutFile(context.Background(), "data/status.json", PutFileRequest{
		Message: "update",
		Content: []byte("[]\n"),
		SHA:     "abc123",
	})
	if err == nil {
		t.Fatal("expected error for 409")
	}
	if !IsConflict(err) {
		t.Errorf("expected IsConflict, got: %v", err)
	}
}

func TestListCommits(t *testing.T) {
	pageCount := 0
	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		pageCount++
		if pageCount == 1 {
			if request.URL.Path != "/repos/owner/repo/commits" {
				t.Errorf("unexpected path: %s", request.URL.Path)
			}
			query := request.URL.Query()
			if query.Get("path") != "data/status.json" {
				t.Errorf("path param = %q", query.Get("path"))
			}
			if query.Get("per_page") != "2" {
				t.Errorf("per_page param = %q", query.Get("per_page"))
			}
			writer.Header().Set("Link", fmt.Sprintf(`<https://%s/repos/owner/repo/commits?page=2>; rel="next"`, request.Host))
		}
		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode([]CommitListItem{
			{SHA: fmt.Sprintf("sha-%d", pageCount), Commit: CommitDetail{Message: "Update service status"}},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	iterator := client.ListCommits(ListCommitsOptions{
		Path:    "data/status.json",
		PerPage: 2,
	})

	commits, err := iterator.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if len(commits) != 2 {
		t.Fatalf("got %d commits, want 2 (across 2 pages)", len(commits))
	}
	if commits[0].SHA != "sha-1" || commits[1].SHA != "sha-2" {
		t.Errorf("commit SHAs = %q, %q", commits[0].SHA, commits[1].SHA)
	}
	if pageCount != 2 {
		t.Errorf("server saw %d page fetches, want 2", pageCount)
	}
}

func TestEscapePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"status.json", "status.json"},
		{"data/status.json", "data/status.json"},
		{"data/status file.json", "data/status%20file.json"},
		{"a#b/c.json", "a%23b/c.json"},
	}
	for _, test := range tests {
		if got := escapePath(test.input); got != test.expected {
			t.Errorf("escapePath(%q) = %q, want %q", test.input, got, test.expected)
		}
	}
}
