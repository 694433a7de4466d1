// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

// Draft commands: edit, new, set, add-update, set-update,
// remove-update, commit, discard. The daemon owns the drafts; these
// commands are thin calls plus rendering. edit and new additionally
// accept --file, which drives the whole begin/set/commit sequence
// from a JSONC record file in one invocation.

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/statusdesk/statusdesk/lib/schema/status"
)

func editCommand() *Command {
	var connection daemonConnection
	var recordFile string

	return &Command{
		Name:    "edit",
		Summary: "Open a draft on an existing record",
		Description: `Open a draft on an existing record. The draft starts as a copy of the
record; change it with 'statusdesk set' and apply it with 'statusdesk
commit'.

With --file, the whole record is replaced by the contents of a JSONC
file and committed in one step.`,
		Usage: "statusdesk edit <index> [--file record.jsonc] [flags]",
		Examples: []Example{
			{Command: "statusdesk edit 0"},
			{
				Description: "Replace record 2 from a file",
				Command:     "statusdesk edit 2 --file incident.jsonc",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("edit", pflag.ContinueOnError)
			flagSet.StringVar(&recordFile, "file", "", "JSONC file holding the full record")
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			index, err := indexArgument(args, "statusdesk edit <index> [--file record.jsonc]")
			if err != nil {
				return err
			}
			key := strconv.Itoa(index)
			if recordFile != "" {
				return commitRecordFile(&connection, key, recordFile)
			}
			var draft draftResult
			if err := connection.call("status.draft.begin", map[string]any{"key": key}, &draft); err != nil {
				return err
			}
			writeRecord(os.Stdout, "draft "+draft.Key, draft.Record)
			fmt.Printf("\n'statusdesk set %s <field> <value>' changes it; 'statusdesk commit %s' applies it.\n", key, key)
			return nil
		},
	}
}

func newCommand() *Command {
	var connection daemonConnection
	var recordFile string

	return &Command{
		Name:    "new",
		Summary: "Open a draft for a new record",
		Usage:   "statusdesk new [--file record.jsonc] [flags]",
		Examples: []Example{
			{Command: "statusdesk new"},
			{
				Description: "Create a record from a file in one step",
				Command:     "statusdesk new --file incident.jsonc",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("new", pflag.ContinueOnError)
			flagSet.StringVar(&recordFile, "file", "", "JSONC file holding the full record")
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("usage: statusdesk new [--file record.jsonc]")
			}
			if recordFile != "" {
				return commitRecordFile(&connection, "new", recordFile)
			}
			var draft draftResult
			if err := connection.call("status.draft.begin", map[string]any{"key": "new"}, &draft); err != nil {
				return err
			}
			fmt.Println("Draft 'new' opened.")
			fmt.Println("'statusdesk set new <field> <value>' fills it in; 'statusdesk commit new' applies it.")
			return nil
		},
	}
}

func setCommand() *Command {
	var connection daemonConnection

	return &Command{
		Name:    "set",
		Summary: "Set a field on a draft",
		Description: `Set one field on an open draft. Fields: status (resolved, degraded,
down, at risk), services, summary, date (YYYY-MM-DDThh:mm). The value
is everything after the field name, so multi-word values need no
quoting.`,
		Usage: "statusdesk set <key> <field> <value...> [flags]",
		Examples: []Example{
			{Command: "statusdesk set 0 status resolved"},
			{Command: "statusdesk set new summary Scheduled maintenance overran"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("set", pflag.ContinueOnError)
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) < 3 {
				return fmt.Errorf("usage: statusdesk set <key> <field> <value...>")
			}
			var draft draftResult
			fields := map[string]any{
				"key":   args[0],
				"field": args[1],
				"value": strings.Join(args[2:], " "),
			}
			if err := connection.call("status.draft.set", fields, &draft); err != nil {
				return err
			}
			writeRecord(os.Stdout, "draft "+draft.Key, draft.Record)
			return nil
		},
	}
}

func addUpdateCommand() *Command {
	var connection daemonConnection

	return &Command{
		Name:    "add-update",
		Summary: "Append an empty update entry to a draft",
		Usage:   "statusdesk add-update <key> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("add-update", pflag.ContinueOnError)
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: statusdesk add-update <key>")
			}
			var draft draftResult
			if err := connection.call("status.draft.add-update", map[string]any{"key": args[0]}, &draft); err != nil {
				return err
			}
			fmt.Printf("Added update entry %d to draft %s.\n", len(draft.Record.Updates)-1, draft.Key)
			return nil
		},
	}
}

func setUpdateCommand() *Command {
	var connection daemonConnection

	return &Command{
		Name:    "set-update",
		Summary: "Set a field on a draft's update entry",
		Description: `Set one field on an update entry of an open draft. Entry fields: date
(YYYY-MM-DDThh:mm), details, url.`,
		Usage: "statusdesk set-update <key> <entry> <field> <value...> [flags]",
		Examples: []Example{
			{Command: "statusdesk set-update 0 1 details Mitigated, monitoring recovery"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("set-update", pflag.ContinueOnError)
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) < 4 {
				return fmt.Errorf("usage: statusdesk set-update <key> <entry> <field> <value...>")
			}
			entry, err := strconv.Atoi(args[1])
			if err != nil || entry < 0 {
				return fmt.Errorf("%q is not an update entry index", args[1])
			}
			var draft draftResult
			fields := map[string]any{
				"key":   args[0],
				"entry": entry,
				"field": args[2],
				"value": strings.Join(args[3:], " "),
			}
			if err := connection.call("status.draft.set-update", fields, &draft); err != nil {
				return err
			}
			writeRecord(os.Stdout, "draft "+draft.Key, draft.Record)
			return nil
		},
	}
}

func removeUpdateCommand() *Command {
	var connection daemonConnection

	return &Command{
		Name:    "remove-update",
		Summary: "Remove an update entry from a draft",
		Usage:   "statusdesk remove-update <key> <entry> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("remove-update", pflag.ContinueOnError)
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: statusdesk remove-update <key> <entry>")
			}
			entry, err := strconv.Atoi(args[1])
			if err != nil || entry < 0 {
				return fmt.Errorf("%q is not an update entry index", args[1])
			}
			var draft draftResult
			fields := map[string]any{"key": args[0], "entry": entry}
			if err := connection.call("status.draft.remove-update", fields, &draft); err != nil {
				return err
			}
			fmt.Printf("Removed update entry %d from draft %s.\n", entry, draft.Key)
			return nil
		},
	}
}

type commitResult struct {
	Committed  bool              `cbor:"committed"`
	Index      int               `cbor:"index"`
	Record     status.Record     `cbor:"record"`
	Dirty      bool              `cbor:"dirty"`
	Violations status.Violations `cbor:"violations"`
}

func commitCommand() *Command {
	var connection daemonConnection

	return &Command{
		Name:    "commit",
		Summary: "Validate a draft and apply it to the working document",
		Description: `Validate a draft and apply it to the working document. A draft that
fails validation stays open with nothing applied; every failing field
is listed. Committing changes only the daemon's working state —
'statusdesk publish' pushes it to GitHub.`,
		Usage: "statusdesk commit <key> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("commit", pflag.ContinueOnError)
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: statusdesk commit <key>")
			}
			var result commitResult
			if err := connection.call("status.draft.commit", map[string]any{"key": args[0]}, &result); err != nil {
				return err
			}
			return reportCommit(os.Stdout, result)
		},
	}
}

// reportCommit prints a commit outcome. A validation failure is
// reported field by field and surfaces as a non-zero exit.
func reportCommit(w io.Writer, result commitResult) error {
	if !result.Committed {
		fmt.Fprintf(w, "Not committed — %d field(s) need attention:\n", len(result.Violations))
		for _, field := range result.Violations.Fields() {
			fmt.Fprintf(w, "  %s: %s\n", field, result.Violations[field])
		}
		fmt.Fprintln(w, "The draft is untouched; fix the fields and commit again.")
		return fmt.Errorf("draft failed validation")
	}
	fmt.Fprintf(w, "Committed to record %d (%s).\n", result.Index, result.Record.Status)
	if result.Dirty {
		fmt.Fprintln(w, "The working document now differs from the published file; 'statusdesk publish' when ready.")
	}
	return nil
}

func discardCommand() *Command {
	var connection daemonConnection

	return &Command{
		Name:    "discard",
		Summary: "Discard a draft",
		Usage:   "statusdesk discard <key> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("discard", pflag.ContinueOnError)
			connection.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: statusdesk discard <key>")
			}
			if err := connection.call("status.draft.discard", map[string]any{"key": args[0]}, nil); err != nil {
				return err
			}
			fmt.Printf("Draft %s discarded.\n", args[0])
			return nil
		},
	}
}

// commitRecordFile drives a whole-record edit from a JSONC file:
// begin the draft, clear any update entries carried over from the
// existing record, apply the file's fields and updates, commit. Each
// step is one daemon action, so a failure partway leaves an open
// draft that 'statusdesk discard' removes.
func commitRecordFile(connection *daemonConnection, key, path string) error {
	record, err := readRecordFile(path)
	if err != nil {
		return err
	}

	var draft draftResult
	if err := connection.call("status.draft.begin", map[string]any{"key": key}, &draft); err != nil {
		return err
	}

	// An edit draft starts with the existing record's updates; the
	// file replaces them wholesale. Remove from the end so indices
	// stay valid.
	for entry := len(draft.Record.Updates) - 1; entry >= 0; entry-- {
		fields := map[string]any{"key": key, "entry": entry}
		if err := connection.call("status.draft.remove-update", fields, &draft); err != nil {
			return err
		}
	}

	scalars := map[string]string{
		"status":   string(record.Status),
		"services": record.AffectedServices,
		"summary":  record.Summary,
		"date":     record.Date,
	}
	for _, field := range []string{"status", "services", "summary", "date"} {
		fields := map[string]any{"key": key, "field": field, "value": scalars[field]}
		if err := connection.call("status.draft.set", fields, &draft); err != nil {
			return err
		}
	}

	for entry, update := range record.Updates {
		if err := connection.call("status.draft.add-update", map[string]any{"key": key}, &draft); err != nil {
			return err
		}
		values := map[string]string{"date": update.Date, "details": update.Details, "url": update.URL}
		for _, field := range []string{"date", "details", "url"} {
			if values[field] == "" {
				continue
			}
			fields := map[string]any{"key": key, "entry": entry, "field": field, "value": values[field]}
			if err := connection.call("status.draft.set-update", fields, &draft); err != nil {
				return err
			}
		}
	}

	var result commitResult
	if err := connection.call("status.draft.commit", map[string]any{"key": key}, &result); err != nil {
		return err
	}
	return reportCommit(os.Stdout, result)
}

// readRecordFile loads a record from a JSONC file: JSON with comments
// and trailing commas, the concessions people expect when writing
// incident records by hand.
func readRecordFile(path string) (status.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return status.Record{}, fmt.Errorf("reading record file: %w", err)
	}
	var record status.Record
	if err := json.Unmarshal(jsonc.ToJSON(data), &record); err != nil {
		return status.Record{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return record, nil
}
