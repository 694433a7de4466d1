// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/statusdesk/statusdesk/lib/ref"
	"github.com/statusdesk/statusdesk/lib/secret"
	"github.com/statusdesk/statusdesk/messaging"
)

// sessionFileName is the JSON file under the state directory holding
// the Matrix credentials. The CLI's login command writes it; the
// daemon reads it at startup.
const sessionFileName = "session.json"

// SessionData is the on-disk shape of the session file.
type SessionData struct {
	HomeserverURL string `json:"homeserver_url"`
	UserID        string `json:"user_id"`
	AccessToken   string `json:"access_token"`
}

// readSessionData loads and parses the session file. The raw bytes
// are zeroed once parsed so the token's file-copy does not linger in
// process memory.
func readSessionData(path string) (SessionData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SessionData{}, fmt.Errorf("reading session from %s: %w", path, err)
	}
	defer secret.Zero(raw)

	var data SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return SessionData{}, fmt.Errorf("parsing session from %s: %w", path, err)
	}
	if data.AccessToken == "" {
		return SessionData{}, fmt.Errorf("session file %s has empty access token", path)
	}
	return data, nil
}

// LoadSession builds an authenticated Matrix client from the session
// file in stateDir. A non-empty homeserverURL overrides the URL the
// file recorded, which lets a deployment move homeservers without
// rewriting sessions.
//
// The messaging library moves the access token into mmap-backed
// guarded memory; the caller owns the returned session and must Close
// it to release that memory.
func LoadSession(stateDir, homeserverURL string, logger *slog.Logger) (*messaging.Client, *messaging.Session, error) {
	path := filepath.Join(stateDir, sessionFileName)
	data, err := readSessionData(path)
	if err != nil {
		return nil, nil, err
	}

	if homeserverURL == "" {
		homeserverURL = data.HomeserverURL
	}
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: homeserverURL,
		Logger:        logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating matrix client: %w", err)
	}

	userID, err := ref.ParseUserID(data.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid user_id in %s: %w", path, err)
	}
	session, err := client.SessionFromToken(userID, data.AccessToken)
	if err != nil {
		return nil, nil, err
	}
	return client, session, nil
}

// SaveSession records session under stateDir so LoadSession can
// rebuild it later. The file is written owner-only, and the
// serialized bytes are zeroed after the write.
func SaveSession(stateDir, homeserverURL string, session *messaging.Session) error {
	raw, err := json.Marshal(SessionData{
		HomeserverURL: homeserverURL,
		UserID:        session.UserID().String(),
		AccessToken:   session.AccessToken(),
	})
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	defer secret.Zero(raw)

	path := filepath.Join(stateDir, sessionFileName)
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return fmt.Errorf("writing session to %s: %w", path, err)
	}
	return nil
}

// ValidateSession confirms the loaded token still works by asking the
// homeserver who it belongs to. Run once at startup so a revoked
// token fails loud instead of surfacing as scattered 401s later.
func ValidateSession(ctx context.Context, session *messaging.Session) (ref.UserID, error) {
	userID, err := session.WhoAmI(ctx)
	if err != nil {
		return ref.UserID{}, fmt.Errorf("validating matrix session: %w", err)
	}
	return userID, nil
}
