// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/statusdesk/statusdesk/lib/config"
	"github.com/statusdesk/statusdesk/lib/service"
)

// callTimeout bounds one socket round trip. Publish is the slow case:
// the daemon holds the request while it talks to GitHub.
const callTimeout = 60 * time.Second

// daemonConnection carries the flags every daemon-talking command
// shares: where the configuration lives and where the socket is.
// Commands embed it, register its flags, and call connect.
type daemonConnection struct {
	configPath string
	socketPath string
}

func (d *daemonConnection) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&d.configPath, "config", "", "configuration file (default $STATUSDESK_CONFIG, then "+config.DefaultPath+")")
	flagSet.StringVar(&d.socketPath, "socket", "", "control socket path (default <state_dir>/statusdesk.sock from the configuration)")
}

// loadConfig resolves the configuration the same way the daemon does:
// explicit flag, then $STATUSDESK_CONFIG, then the default path.
func (d *daemonConnection) loadConfig() (*config.Config, error) {
	if d.configPath != "" {
		return config.LoadFile(d.configPath)
	}
	return config.Load()
}

// connect returns a client for the daemon's control socket. An
// explicit --socket skips configuration loading entirely, so a
// misplaced config file cannot get in the way of pointing the CLI at
// a known socket.
func (d *daemonConnection) connect() (*service.Client, error) {
	if d.socketPath != "" {
		return service.NewClient(d.socketPath), nil
	}
	cfg, err := d.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("resolving socket path: %w (or pass --socket)", err)
	}
	return service.NewClient(cfg.SocketPath()), nil
}

// call performs one request against the daemon with the standard
// timeout.
func (d *daemonConnection) call(action string, fields map[string]any, result any) error {
	client, err := d.connect()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return client.Call(ctx, action, fields, result)
}
