// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"abc", "ab", 1},
		{"ab", "abc", 1},
		{"publish", "publsih", 2},
		{"commit", "comit", 1},
		{"history", "histroy", 2},
		{"kitten", "sitting", 3},
	}

	for _, test := range tests {
		got := levenshtein(test.a, test.b)
		if got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
		if reverse := levenshtein(test.b, test.a); reverse != got {
			t.Errorf("levenshtein(%q, %q) = %d, but reverse = %d", test.a, test.b, got, reverse)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{
		{Name: "list"},
		{Name: "publish"},
		{Name: "commit"},
		{Name: "history"},
	}

	tests := []struct {
		input string
		want  string
	}{
		{"publsih", "publish"},
		{"comit", "commit"},
		{"histoyr", "history"},
		{"lst", "list"},
		{"frobnicate", ""},
	}

	for _, test := range tests {
		if got := suggestCommand(test.input, commands); got != test.want {
			t.Errorf("suggestCommand(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	flags := func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flagSet.String("socket", "", "")
		flagSet.Int("limit", 0, "")
		return flagSet
	}

	if got := suggestFlag([]string{"--soket", "/x"}, flags()); got != "--socket" {
		t.Errorf("suggestFlag(--soket) = %q, want --socket", got)
	}
	if got := suggestFlag([]string{"--limti=3"}, flags()); got != "--limit" {
		t.Errorf("suggestFlag(--limti=3) = %q, want --limit", got)
	}
	// A defined flag before the typo must not short-circuit the scan.
	if got := suggestFlag([]string{"--socket", "/x", "--limt", "3"}, flags()); got != "--limit" {
		t.Errorf("suggestFlag(--socket --limt) = %q, want --limit", got)
	}
	if got := suggestFlag([]string{"--completely-unrelated"}, flags()); got != "" {
		t.Errorf("suggestFlag(unrelated) = %q, want no suggestion", got)
	}
}
