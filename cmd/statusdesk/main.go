// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/statusdesk/statusdesk/lib/process"
	"github.com/statusdesk/statusdesk/lib/version"
)

func main() {
	if err := rootCommand().Execute(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func rootCommand() *Command {
	return &Command{
		Name: "statusdesk",
		Description: `statusdesk: edit and publish a service-status page.

The statusdesk daemon holds the working copy of the status document;
this CLI talks to it over the control socket. Committed edits live in
the daemon until 'statusdesk publish' pushes them to GitHub.`,
		Subcommands: []*Command{
			listCommand(),
			showCommand(),
			editCommand(),
			newCommand(),
			setCommand(),
			addUpdateCommand(),
			setUpdateCommand(),
			removeUpdateCommand(),
			commitCommand(),
			discardCommand(),
			draftsCommand(),
			deleteCommand(),
			resetCommand(),
			publishCommand(),
			historyCommand(),
			journalCommand(),
			pingCommand(),
			loginCommand(),
			versionCommand(),
		},
	}
}

func versionCommand() *Command {
	return &Command{
		Name:    "version",
		Summary: "Print version information",
		Usage:   "statusdesk version",
		Run: func(args []string) error {
			fmt.Printf("statusdesk %s\n", version.Info())
			return nil
		},
	}
}
