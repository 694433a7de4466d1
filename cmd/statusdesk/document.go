// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

// Document-level commands: delete, reset, publish.

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/statusdesk/statusdesk/lib/schema/status"
)

type deleteResult struct {
	Removed         status.Record `cbor:"removed"`
	DiscardedDrafts []string      `cbor:"discarded_drafts"`
	Records         int           `cbor:"records"`
}

func deleteCommand() *Command {
	var connection daemonConnection

	return &Command{
		Name:    "delete",
		Summary: "Delete a record from the working document",
		Description: `Delete a record from the working document. Records after it shift
down one position, and drafts on shifted records are discarded. The
published file is unchanged until 'statusdesk publish'.`,
		Usage: "statusdesk delete <index> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("delete", pflag.ContinueOnError)
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			index, err := indexArgument(args, "statusdesk delete <index>")
			if err != nil {
				return err
			}
			var result deleteResult
			if err := connection.call("status.delete", map[string]any{"index": index}, &result); err != nil {
				return err
			}
			fmt.Printf("Deleted record %d (%s). %d record(s) remain.\n",
				index, valueOrDash(result.Removed.Summary), result.Records)
			if len(result.DiscardedDrafts) > 0 {
				fmt.Printf("Discarded drafts made stale by the shift: %s.\n",
					strings.Join(result.DiscardedDrafts, ", "))
			}
			return nil
		},
	}
}

type resetResult struct {
	Records    int    `cbor:"records"`
	VersionTag string `cbor:"version_tag"`
}

func resetCommand() *Command {
	var connection daemonConnection

	return &Command{
		Name:    "reset",
		Summary: "Discard all local changes and reload the published file",
		Description: `Discard every draft and every unpublished change, then reload the
working document from the published file. This is the recovery path
after a publish conflict.`,
		Usage: "statusdesk reset [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("reset", pflag.ContinueOnError)
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			var result resetResult
			if err := connection.call("status.reset", nil, &result); err != nil {
				return err
			}
			fmt.Printf("Reloaded from the published file: %d record(s), all drafts discarded.\n", result.Records)
			return nil
		},
	}
}

type publishResult struct {
	Published  bool   `cbor:"published"`
	Records    int    `cbor:"records"`
	VersionTag string `cbor:"version_tag"`
	CommitSHA  string `cbor:"commit_sha"`
	CommitURL  string `cbor:"commit_url"`
	PageURL    string `cbor:"page_url"`
}

func publishCommand() *Command {
	var connection daemonConnection

	return &Command{
		Name:    "publish",
		Summary: "Commit the working document to GitHub",
		Description: `Publish the working document as a commit to the configured GitHub
file. The publish is conditioned on the version that was loaded: if
someone changed the file in the meantime, nothing is written and
'statusdesk reset' reloads.

A publish through this command is attributed to the service account
in the commit message; publishes issued in the Matrix room carry the
operator who asked.`,
		Usage: "statusdesk publish [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("publish", pflag.ContinueOnError)
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			var result publishResult
			if err := connection.call("status.publish", nil, &result); err != nil {
				return err
			}
			if !result.Published {
				fmt.Println("Nothing to publish — the working document matches the published file.")
				return nil
			}
			fmt.Printf("Published %d record(s) in commit %s.\n", result.Records, shortSHA(result.CommitSHA))
			if result.CommitURL != "" {
				fmt.Printf("Commit: %s\n", result.CommitURL)
			}
			if result.PageURL != "" {
				fmt.Printf("Page:   %s\n", result.PageURL)
			}
			return nil
		},
	}
}
