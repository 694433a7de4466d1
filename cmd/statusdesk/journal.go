// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/statusdesk/statusdesk/lib/journal"
	"github.com/statusdesk/statusdesk/lib/schema/status"
)

func journalCommand() *Command {
	var connection daemonConnection
	var journalPath string
	var limit int

	return &Command{
		Name:    "journal",
		Summary: "Show the local publish journal",
		Description: `Show the local publish journal: one line per successful publish with
its time, operator, version tags, and record count, oldest first.
The journal is read directly from disk — the daemon does not need to
be running.

Requires journal_path in the configuration (or --journal-path).`,
		Usage: "statusdesk journal [--limit N] [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("journal", pflag.ContinueOnError)
			flagSet.IntVar(&limit, "limit", 0, "show only the most recent N publishes")
			flagSet.StringVar(&journalPath, "journal-path", "", "journal file (default journal_path from the configuration)")
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			path := journalPath
			if path == "" {
				cfg, err := connection.loadConfig()
				if err != nil {
					return fmt.Errorf("resolving journal path: %w (or pass --journal-path)", err)
				}
				if cfg.JournalPath == "" {
					return fmt.Errorf("journaling is not enabled: journal_path is not set in the configuration")
				}
				path = cfg.JournalPath
			}

			frames, err := journal.Read(path)
			// A torn final frame is what a crash mid-append leaves;
			// the intact frames are still worth showing.
			truncated := errors.Is(err, journal.ErrTruncated)
			if err != nil && !truncated {
				if errors.Is(err, fs.ErrNotExist) {
					fmt.Println("No publishes journaled yet.")
					return nil
				}
				return err
			}

			if limit > 0 && len(frames) > limit {
				frames = frames[len(frames)-limit:]
			}
			writeJournal(os.Stdout, frames)
			if truncated {
				fmt.Println("\nwarning: the journal ends mid-frame (crash during an append); later publishes are missing")
			}
			return nil
		},
	}
}

func writeJournal(w io.Writer, frames []journal.Frame) {
	if len(frames) == 0 {
		fmt.Fprintln(w, "No publishes journaled yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "TIME\tOPERATOR\tVERSION\tRECORDS\tDIGEST")
	for _, frame := range frames {
		entry := frame.Entry
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			entry.Time.Format("2006-01-02 15:04:05"),
			entry.Operator,
			versionTransition(entry),
			recordCount(frame.Document),
			entry.ShortDigest(),
		)
	}
	tw.Flush()
}

// versionTransition renders the tag movement of one publish. A
// publish that created the file has no old tag.
func versionTransition(entry journal.Entry) string {
	if entry.OldTag == "" {
		return "(created) -> " + shortSHA(entry.NewTag)
	}
	return shortSHA(entry.OldTag) + " -> " + shortSHA(entry.NewTag)
}

// recordCount decodes the journaled document just far enough to count
// records. A frame that fails to decode is still listed; the count
// column degrades instead of hiding the publish.
func recordCount(document []byte) string {
	decoded, err := status.DecodeDocument(document)
	if err != nil {
		return "?"
	}
	return fmt.Sprintf("%d", len(decoded))
}
