// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/statusdesk/statusdesk/lib/clock"
	"github.com/statusdesk/statusdesk/lib/config"
	"github.com/statusdesk/statusdesk/lib/editor"
	"github.com/statusdesk/statusdesk/lib/github"
	"github.com/statusdesk/statusdesk/lib/process"
	"github.com/statusdesk/statusdesk/lib/ref"
	"github.com/statusdesk/statusdesk/lib/service"
	"github.com/statusdesk/statusdesk/lib/version"
	"github.com/statusdesk/statusdesk/messaging"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "configuration file path (default $STATUSDESK_CONFIG, then "+config.DefaultPath+")")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("statusdesk-service %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load and validate the Matrix session saved by `statusdesk login`.
	_, session, err := service.LoadSession(cfg.StateDir, cfg.HomeserverURL, logger)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	defer session.Close()

	userID, err := service.ValidateSession(ctx, session)
	if err != nil {
		if messaging.IsMatrixError(err, messaging.ErrCodeUnknownToken) {
			return fmt.Errorf("saved access token was rejected, run `statusdesk login` to refresh it: %w", err)
		}
		return err
	}
	logger.Info("matrix session valid", "user_id", userID)

	roomID, err := resolveStatusRoom(ctx, session, cfg)
	if err != nil {
		return err
	}
	if _, err := session.JoinRoom(ctx, roomID); err != nil {
		if messaging.IsMatrixError(err, messaging.ErrCodeForbidden) {
			return fmt.Errorf("joining status room %s: %s has not been invited: %w", roomID, userID, err)
		}
		return fmt.Errorf("joining status room %s: %w", roomID, err)
	}
	logger.Info("status room joined", "room_id", roomID)

	clk := clock.Real()

	// GitHub client and the status file it manages.
	githubClient, err := buildGitHubClient(cfg, clk, logger)
	if err != nil {
		return err
	}
	statusFile, err := github.NewStatusFile(github.StatusFileConfig{
		Client: githubClient,
		Path:   cfg.GitHub.Path,
		Branch: cfg.GitHub.Branch,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	editSession, err := editor.New(editor.Config{
		Transport: statusFile,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	// Fetch the editing baseline. A failed fetch is not fatal: the
	// session degrades to an empty list and retains the error, and an
	// operator `!status reset` retries the fetch once GitHub is back.
	if err := editSession.Load(ctx); err != nil {
		logger.Error("initial status file fetch failed, starting with empty baseline", "error", err)
	}

	operators := make(map[ref.UserID]bool)
	for _, operator := range cfg.OperatorIDs() {
		operators[operator] = true
	}

	statusService := &statusService{
		session:    session,
		editor:     editSession,
		github:     githubClient,
		statusFile: statusFile,
		clock:      clk,
		config:     cfg,
		userID:     userID,
		roomID:     roomID,
		operators:  operators,
		requests:   make(chan dispatchRequest),
		startedAt:  clk.Now(),
		logger:     logger,
	}

	// Capture the sync position before serving anything: commands sent
	// while the daemon was down are history, not a backlog to replay.
	watcher, err := messaging.WatchRoom(ctx, session, roomID, &messaging.SyncFilter{
		TimelineTypes: []string{string(messageEventType)},
		ExcludeState:  true,
	})
	if err != nil {
		return fmt.Errorf("watching status room: %w", err)
	}

	socketServer := service.NewSocketServer(cfg.SocketPath(), logger)
	statusService.registerActions(socketServer)

	socketDone := make(chan error, 1)
	go func() {
		socketDone <- socketServer.Serve(ctx)
	}()

	events := make(chan messaging.Event)
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		statusService.runDispatch(ctx, events)
	}()
	go statusService.watchMessages(ctx, watcher, events)

	logger.Info("statusdesk service running",
		"user_id", userID,
		"room_id", roomID,
		"repository", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo,
		"path", cfg.GitHub.Path,
		"socket", cfg.SocketPath(),
		"records", len(editSession.Snapshot().Records),
	)

	// Wait for shutdown signal.
	<-ctx.Done()
	logger.Info("shutting down")

	// Wait for the socket server to drain active connections, then for
	// the dispatch loop to finish its in-flight action.
	if err := <-socketDone; err != nil {
		logger.Error("socket server error", "error", err)
	}
	<-dispatchDone

	return nil
}

// loadConfig loads from the --config path when given, otherwise from
// $STATUSDESK_CONFIG or the default location.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// resolveStatusRoom turns the configured room into a room ID,
// resolving the alias through the homeserver when needed.
func resolveStatusRoom(ctx context.Context, session *messaging.Session, cfg *config.Config) (ref.RoomID, error) {
	if roomID, ok := cfg.StatusRoomID(); ok {
		return roomID, nil
	}
	alias, ok := cfg.StatusRoomAlias()
	if !ok {
		// Validate rejects anything that parses as neither.
		return ref.RoomID{}, fmt.Errorf("status_room %q is neither a room ID nor an alias", cfg.StatusRoom)
	}
	roomID, err := session.ResolveAlias(ctx, alias)
	if err != nil {
		if messaging.IsMatrixError(err, messaging.ErrCodeNotFound) {
			return ref.RoomID{}, fmt.Errorf("status room alias %s does not exist on the homeserver: %w", alias, err)
		}
		return ref.RoomID{}, fmt.Errorf("resolving status room alias %s: %w", alias, err)
	}
	return roomID, nil
}

// buildGitHubClient constructs the API client from the configured auth
// mode. App auth reads the private key file here so a bad path fails
// startup instead of the first API call.
func buildGitHubClient(cfg *config.Config, clk clock.Clock, logger *slog.Logger) (*github.Client, error) {
	clientConfig := github.Config{
		Owner:  cfg.GitHub.Owner,
		Repo:   cfg.GitHub.Repo,
		Token:  cfg.GitHub.Token,
		Clock:  clk,
		Logger: logger,
	}
	if cfg.GitHub.PrivateKeyPath != "" {
		privateKey, err := os.ReadFile(cfg.GitHub.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("reading GitHub App private key: %w", err)
		}
		clientConfig.AppID = cfg.GitHub.AppID
		clientConfig.InstallationID = cfg.GitHub.InstallationID
		clientConfig.PrivateKey = privateKey
	}
	client, err := github.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}
	return client, nil
}
