// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/statusdesk/statusdesk/lib/ref"
	"github.com/statusdesk/statusdesk/lib/secret"
	"github.com/statusdesk/statusdesk/lib/service"
	"github.com/statusdesk/statusdesk/messaging"
)

// loginTimeout bounds the login round trips; password logins can be
// slow on homeservers that stretch their KDF.
const loginTimeout = 30 * time.Second

func loginCommand() *Command {
	var connection daemonConnection
	var homeserverURL string
	var passwordFile string

	return &Command{
		Name:    "login",
		Summary: "Log the service account in and save its Matrix session",
		Description: `Log in to the Matrix homeserver as the service account and save the
session to <state_dir>/session.json, where the daemon picks it up on
startup. Run this once before the first daemon start and again
whenever the access token is invalidated.

The password is prompted for interactively; --password-file reads it
from a file (or from stdin with "-") for non-interactive setups.

The username may be a bare localpart or a full @user:server ID. With
a full ID the server name also serves as the default homeserver when
none is configured.`,
		Usage: "statusdesk login <username> [flags]",
		Examples: []Example{
			{
				Description: "Log in interactively",
				Command:     "statusdesk login statusdesk-bot",
			},
			{
				Description: "Log in with the password from a file",
				Command:     "statusdesk login statusdesk-bot --password-file /run/secrets/matrix-password",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("login", pflag.ContinueOnError)
			flagSet.StringVar(&homeserverURL, "homeserver", "", "Matrix homeserver URL (default homeserver_url from the configuration)")
			flagSet.StringVar(&passwordFile, "password-file", "", "file holding the password, or - for stdin (default: prompt)")
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: statusdesk login <username>")
			}
			username := args[0]

			cfg, err := connection.loadConfig()
			if err != nil {
				return err
			}
			serverURL := homeserverURL
			if serverURL == "" {
				serverURL = cfg.HomeserverURL
			}

			// Operators tend to paste the full @user:server ID. The
			// login endpoint wants the bare localpart, and the server
			// name is a workable homeserver guess when neither the
			// flag nor the configuration names one.
			if userID, err := ref.ParseUserID(username); err == nil {
				username = userID.Localpart()
				if serverURL == "" {
					serverURL = "https://" + userID.Server()
				}
			}

			password, err := readPassword(passwordFile)
			if err != nil {
				return err
			}
			defer password.Close()

			ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
			defer cancel()

			client, err := messaging.NewClient(messaging.ClientConfig{
				HomeserverURL: serverURL,
				Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
			})
			if err != nil {
				return err
			}

			// Probe the unauthenticated versions endpoint first so a
			// typo in the URL reads as "homeserver unreachable" rather
			// than a login failure.
			if _, err := client.ServerVersions(ctx); err != nil {
				return fmt.Errorf("homeserver %s is not reachable: %w", serverURL, err)
			}

			session, err := client.Login(ctx, username, password)
			if err != nil {
				return err
			}
			defer session.Close()

			// Verify the token before writing it anywhere.
			userID, err := session.WhoAmI(ctx)
			if err != nil {
				return fmt.Errorf("session verification failed: %w", err)
			}

			if err := cfg.EnsurePaths(); err != nil {
				return err
			}
			if err := service.SaveSession(cfg.StateDir, serverURL, session); err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Logged in as %s\n", userID)
			fmt.Fprintf(os.Stderr, "Session saved to %s\n", cfg.SessionPath())
			return nil
		},
	}
}

// readPassword reads the login password: from the named file when
// --password-file is set, otherwise from an interactive prompt with
// echo disabled.
func readPassword(passwordFile string) (*secret.Buffer, error) {
	if passwordFile != "" {
		return secret.ReadFromPath(passwordFile)
	}

	stdinFd := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFd) {
		return nil, fmt.Errorf("no terminal for the password prompt (use --password-file)")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(stdinFd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	buffer, err := secret.NewFromBytes(passwordBytes)
	if err != nil {
		secret.Zero(passwordBytes)
		return nil, err
	}
	return buffer, nil
}
