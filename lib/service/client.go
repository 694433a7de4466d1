// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/statusdesk/statusdesk/lib/codec"
)

// dialTimeout bounds the connect phase alone. The daemon accepts
// promptly when it is up; a longer wait only delays the "is it
// running" answer.
const dialTimeout = 5 * time.Second

// responseReadTimeout is how long to wait for the response after the
// request is written. Sized to the server's read and write timeouts
// plus handler time — publish in particular holds the response for a
// GitHub round trip.
const responseReadTimeout = 45 * time.Second

// maxResponseSize caps a single CBOR response, mirroring the server's
// request cap.
const maxResponseSize = 1024 * 1024

// Error carries the daemon's ok=false answer for an action. Transport
// and decoding failures are plain errors; an *Error means the daemon
// itself rejected the request.
type Error struct {
	Action  string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("service error on %q: %s", e.Action, e.Message)
}

// Client talks to the statusdesk control socket. Every Call dials a
// fresh connection, mirroring the server's one-exchange-per-connection
// model, so a Client carries no state beyond the path.
type Client struct {
	socketPath string
}

// NewClient returns a client for the control socket at socketPath.
// Nothing is dialed until the first Call.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Call sends one request and decodes the daemon's answer.
//
// fields holds the handler-specific request fields; Call injects
// "action" itself, so the map must not carry that key. nil is fine for
// actions without parameters. When the daemon answers ok=true and
// result is non-nil, the response data is CBOR-decoded into result.
func (client *Client) Call(ctx context.Context, action string, fields map[string]any, result any) error {
	request := make(map[string]any, len(fields)+1)
	for key, value := range fields {
		request[key] = value
	}
	request["action"] = action

	response, err := client.exchange(ctx, request)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, client.socketPath, err)
	}
	if !response.OK {
		return &Error{Action: action, Message: response.Error}
	}

	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}
	return nil
}

// exchange dials the socket, writes the request, and reads the one
// response.
func (client *Client) exchange(ctx context.Context, request any) (*Response, error) {
	conn, err := (&net.Dialer{Timeout: dialTimeout}).DialContext(ctx, "unix", client.socketPath)
	if err != nil {
		return nil, fmt.Errorf("dialing: %w", err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	// Half-close the write side so the server's decoder sees EOF once
	// the request bytes end.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	response := new(Response)
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(response); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return response, nil
}
