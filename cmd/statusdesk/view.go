// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

// Read-only commands: list, show, drafts, history, ping. Each mirrors
// one daemon action and renders the response as plain text. The
// result structs carry the same CBOR field names the daemon's
// handlers encode.

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/statusdesk/statusdesk/lib/schema/status"
)

type listResult struct {
	Records    []status.Record `cbor:"records"`
	Dirty      bool            `cbor:"dirty"`
	DraftKeys  []string        `cbor:"draft_keys"`
	VersionTag string          `cbor:"version_tag"`
	LoadError  string          `cbor:"load_error"`
}

func listCommand() *Command {
	var connection daemonConnection

	return &Command{
		Name:    "list",
		Summary: "List the records in the working status document",
		Description: `List the working status document: every record with its index, severity,
affected services, and summary. The working document is the daemon's
in-memory state — committed edits show up here before they are published.`,
		Usage: "statusdesk list [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("usage: statusdesk list")
			}
			var result listResult
			if err := connection.call("status.list", nil, &result); err != nil {
				return err
			}
			writeList(os.Stdout, result)
			return nil
		},
	}
}

func writeList(w io.Writer, result listResult) {
	if result.LoadError != "" {
		fmt.Fprintf(w, "warning: last load of the published file failed: %s\n", result.LoadError)
		fmt.Fprintf(w, "warning: the list below may be empty or stale; 'statusdesk reset' retries\n\n")
	}

	if len(result.Records) == 0 {
		fmt.Fprintln(w, "The working list is empty.")
	} else {
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		fmt.Fprintln(tw, "INDEX\tSTATUS\tSERVICES\tSUMMARY\tDATE\tUPDATES")
		for i, record := range result.Records {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n",
				i, record.Status, record.AffectedServices, record.Summary, record.Date, len(record.Updates))
		}
		tw.Flush()
	}

	if len(result.DraftKeys) > 0 {
		fmt.Fprintf(w, "\nOpen drafts: %s\n", strings.Join(result.DraftKeys, ", "))
	}
	if result.Dirty {
		fmt.Fprintln(w, "\nUnpublished changes — 'statusdesk publish' when ready.")
	}
}

type recordResult struct {
	Index  int           `cbor:"index"`
	Record status.Record `cbor:"record"`
}

func showCommand() *Command {
	var connection daemonConnection

	return &Command{
		Name:    "show",
		Summary: "Show one record in full",
		Usage:   "statusdesk show <index> [flags]",
		Examples: []Example{
			{Command: "statusdesk show 0"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			index, err := indexArgument(args, "statusdesk show <index>")
			if err != nil {
				return err
			}
			var result recordResult
			if err := connection.call("status.show", map[string]any{"index": index}, &result); err != nil {
				return err
			}
			writeRecord(os.Stdout, strconv.Itoa(result.Index), result.Record)
			return nil
		},
	}
}

// writeRecord renders one record in the label: value form shared by
// show and the draft commands.
func writeRecord(w io.Writer, heading string, record status.Record) {
	fmt.Fprintf(w, "record %s\n", heading)
	fmt.Fprintf(w, "  status:    %s\n", valueOrDash(string(record.Status)))
	fmt.Fprintf(w, "  services:  %s\n", valueOrDash(record.AffectedServices))
	fmt.Fprintf(w, "  summary:   %s\n", valueOrDash(record.Summary))
	fmt.Fprintf(w, "  date:      %s\n", valueOrDash(record.Date))
	if len(record.Updates) == 0 {
		fmt.Fprintf(w, "  updates:   -\n")
		return
	}
	fmt.Fprintf(w, "  updates:\n")
	for i, update := range record.Updates {
		fmt.Fprintf(w, "    [%d] %s  %s", i, valueOrDash(update.Date), valueOrDash(update.Details))
		if update.URL != "" {
			fmt.Fprintf(w, "  (%s)", update.URL)
		}
		fmt.Fprintln(w)
	}
}

type draftResult struct {
	Key    string        `cbor:"key"`
	Record status.Record `cbor:"record"`
}

type draftListResult struct {
	Drafts []draftResult `cbor:"drafts"`
}

func draftsCommand() *Command {
	var connection daemonConnection

	return &Command{
		Name:    "drafts",
		Summary: "List open drafts",
		Usage:   "statusdesk drafts [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("drafts", pflag.ContinueOnError)
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			var result draftListResult
			if err := connection.call("status.draft.list", nil, &result); err != nil {
				return err
			}
			writeDrafts(os.Stdout, result.Drafts)
			return nil
		},
	}
}

func writeDrafts(w io.Writer, drafts []draftResult) {
	if len(drafts) == 0 {
		fmt.Fprintln(w, "No drafts open.")
		return
	}
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSTATUS\tSERVICES\tSUMMARY\tUPDATES")
	for _, draft := range drafts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			draft.Key, draft.Record.Status, draft.Record.AffectedServices,
			draft.Record.Summary, len(draft.Record.Updates))
	}
	tw.Flush()
}

type historyResult struct {
	Path    string             `cbor:"path"`
	Entries []historyListEntry `cbor:"entries"`
}

type historyListEntry struct {
	SHA     string    `cbor:"sha"`
	Message string    `cbor:"message"`
	Author  string    `cbor:"author"`
	Date    time.Time `cbor:"date"`
	URL     string    `cbor:"url"`
}

func historyCommand() *Command {
	var connection daemonConnection
	var limit int

	return &Command{
		Name:    "history",
		Summary: "Show recent publishes of the status file",
		Description: `Show the GitHub commit log for the published status file, newest
first. This includes commits made outside statusdesk — anything that
touched the file on the configured branch.`,
		Usage: "statusdesk history [--limit N] [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("history", pflag.ContinueOnError)
			flagSet.IntVar(&limit, "limit", 0, "number of commits to show (default 5)")
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			fields := map[string]any{}
			if limit > 0 {
				fields["limit"] = limit
			}
			var result historyResult
			if err := connection.call("status.history", fields, &result); err != nil {
				return err
			}
			writeHistory(os.Stdout, result)
			return nil
		},
	}
}

func writeHistory(w io.Writer, result historyResult) {
	if len(result.Entries) == 0 {
		fmt.Fprintf(w, "No publishes of %s found.\n", result.Path)
		return
	}
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "COMMIT\tDATE\tAUTHOR\tMESSAGE")
	for _, entry := range result.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			shortSHA(entry.SHA), entry.Date.Format("2006-01-02 15:04"), entry.Author, firstLine(entry.Message))
	}
	tw.Flush()
}

type pingResult struct {
	UptimeSeconds float64 `cbor:"uptime_seconds"`
}

func pingCommand() *Command {
	var connection daemonConnection

	return &Command{
		Name:    "ping",
		Summary: "Check that the daemon is running",
		Usage:   "statusdesk ping [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("ping", pflag.ContinueOnError)
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			var result pingResult
			if err := connection.call("ping", nil, &result); err != nil {
				return err
			}
			fmt.Printf("daemon up %s\n", time.Duration(result.UptimeSeconds*float64(time.Second)).Round(time.Second))
			return nil
		},
	}
}

// indexArgument parses the single record-index argument shared by
// show, edit, and delete.
func indexArgument(args []string, usage string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	index, err := strconv.Atoi(args[0])
	if err != nil || index < 0 {
		return 0, fmt.Errorf("%q is not a record index", args[0])
	}
	return index, nil
}

func valueOrDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func firstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return message[:i]
	}
	return message
}
