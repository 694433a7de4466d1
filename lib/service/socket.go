// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/statusdesk/statusdesk/lib/codec"
)

// ActionFunc handles one socket request. raw is the complete CBOR
// request, action field included; the handler decodes whatever
// action-specific fields it needs from it.
//
// The returned value becomes the response's data field, CBOR-encoded.
// A nil value produces a bare {ok: true}; an error produces
// {ok: false} with the error text.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// Response is the envelope every socket response travels in.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// readTimeout bounds how long a connection may sit idle before sending
// its request. A healthy client writes immediately after dialing.
const readTimeout = 30 * time.Second

// writeTimeout bounds the response write.
const writeTimeout = 10 * time.Second

// maxRequestSize caps a single CBOR request. 1 MiB is generous: the
// largest requests carry a full status document inline, and those run
// tens of kilobytes at most.
const maxRequestSize = 1024 * 1024

// SocketServer answers a CBOR request-response protocol on a Unix
// socket. A connection carries exactly one exchange: the client writes
// one CBOR value, the server writes one Response, and the connection
// closes.
//
// Register actions with Handle before Serve; a request naming anything
// else gets an error response.
type SocketServer struct {
	socketPath string
	handlers   map[string]ActionFunc
	logger     *slog.Logger

	// inflight counts running handlers so Serve can drain them before
	// returning.
	inflight sync.WaitGroup
}

// NewSocketServer creates a server for socketPath. Nothing touches the
// filesystem until Serve.
func NewSocketServer(socketPath string, logger *slog.Logger) *SocketServer {
	return &SocketServer{
		socketPath: socketPath,
		handlers:   make(map[string]ActionFunc),
		logger:     logger,
	}
}

// Handle registers the handler for an action name. Registering a name
// twice is a programming error and panics.
func (server *SocketServer) Handle(action string, handler ActionFunc) {
	if _, taken := server.handlers[action]; taken {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
	server.handlers[action] = handler
}

// Serve listens on the Unix socket and dispatches requests until ctx
// is cancelled, then stops accepting and drains in-flight handlers.
//
// A leftover socket file from a crashed process is removed first. The
// protocol itself has no authentication, so the socket is chmodded to
// owner-only: filesystem access is the access control. The file is
// removed again on the way out.
func (server *SocketServer) Serve(ctx context.Context) error {
	if err := os.Remove(server.socketPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing stale socket %s: %w", server.socketPath, err)
	}

	listener, err := net.Listen("unix", server.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", server.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(server.socketPath)
	}()

	if err := os.Chmod(server.socketPath, 0600); err != nil {
		return fmt.Errorf("restricting socket %s: %w", server.socketPath, err)
	}

	// Cancellation reaches the blocked Accept by closing the listener.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	server.logger.Info("control socket listening", "path", server.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			server.logger.Error("accept failed", "error", err)
			continue
		}

		server.inflight.Add(1)
		go func() {
			defer server.inflight.Done()
			defer conn.Close()
			server.serveConn(ctx, conn)
		}()
	}

	server.inflight.Wait()
	return nil
}

// serveConn runs one request-response exchange.
func (server *SocketServer) serveConn(ctx context.Context, conn net.Conn) {
	action, raw, err := readRequest(conn)
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Connected and hung up without sending anything.
			return
		}
		server.reply(conn, Response{Error: err.Error()})
		return
	}

	handler, known := server.handlers[action]
	if !known {
		server.reply(conn, Response{Error: fmt.Sprintf("unknown action %q", action)})
		return
	}

	result, err := handler(ctx, raw)
	if err != nil {
		server.logger.Debug("action failed", "action", action, "error", err)
		server.reply(conn, Response{Error: err.Error()})
		return
	}

	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			server.reply(conn, Response{Error: fmt.Sprintf("internal: marshaling response: %v", err)})
			return
		}
		response.Data = data
	}
	server.reply(conn, response)
}

// readRequest decodes the single CBOR request from the connection and
// extracts the action name used for routing. CBOR is self-delimiting,
// so there is no length prefix; the LimitReader keeps a hostile
// client from ballooning memory.
func readRequest(conn net.Conn) (string, []byte, error) {
	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("invalid request: %v", err)
	}

	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		return "", nil, fmt.Errorf("invalid request: %v", err)
	}
	if header.Action == "" {
		return "", nil, errors.New("missing required field: action")
	}
	return header.Action, []byte(raw), nil
}

// reply writes the response envelope. Write failures are only logged:
// the connection is closing either way, and the handler outcome
// already stands.
func (server *SocketServer) reply(conn net.Conn, response Response) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		server.logger.Debug("failed to write response", "error", err)
	}
}
