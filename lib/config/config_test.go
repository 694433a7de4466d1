// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleConfig = `
homeserver_url: https://matrix.example.org
state_dir: /var/lib/statusdesk
status_room: "!status:example.org"
operators:
  - "@alice:example.org"
  - "@bob:example.org"
github:
  owner: example-org
  repo: service-status
  path: data/status.json
  branch: main
  token: ghp_sample
  page_url: https://status.example.org
journal_path: /var/lib/statusdesk/publish.journal
`

// writeConfig writes content to a temp file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.StateDir != "/var/lib/statusdesk" {
		t.Errorf("StateDir = %q", cfg.StateDir)
	}
	if cfg.GitHub.Path != "status.json" {
		t.Errorf("GitHub.Path = %q", cfg.GitHub.Path)
	}
	if cfg.JournalPath != "" {
		t.Errorf("JournalPath = %q, want empty (journaling off by default)", cfg.JournalPath)
	}
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.HomeserverURL != "https://matrix.example.org" {
		t.Errorf("HomeserverURL = %q", cfg.HomeserverURL)
	}
	if cfg.StatusRoom != "!status:example.org" {
		t.Errorf("StatusRoom = %q", cfg.StatusRoom)
	}
	if len(cfg.Operators) != 2 || cfg.Operators[1] != "@bob:example.org" {
		t.Errorf("Operators = %v", cfg.Operators)
	}
	if cfg.GitHub.Owner != "example-org" || cfg.GitHub.Repo != "service-status" {
		t.Errorf("GitHub target = %s/%s", cfg.GitHub.Owner, cfg.GitHub.Repo)
	}
	if cfg.GitHub.Path != "data/status.json" {
		t.Errorf("GitHub.Path = %q", cfg.GitHub.Path)
	}
	if cfg.GitHub.Branch != "main" {
		t.Errorf("GitHub.Branch = %q", cfg.GitHub.Branch)
	}
	if cfg.JournalPath != "/var/lib/statusdesk/publish.journal" {
		t.Errorf("JournalPath = %q", cfg.JournalPath)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate on sample config: %v", err)
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_UsesEnvPath(t *testing.T) {
	t.Setenv("STATUSDESK_CONFIG", writeConfig(t, sampleConfig))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StatusRoom != "!status:example.org" {
		t.Errorf("StatusRoom = %q", cfg.StatusRoom)
	}
}

func TestLoadFile_TokenExpansion(t *testing.T) {
	t.Setenv("STATUSDESK_GITHUB_TOKEN", "ghp_from_env")

	cfg, err := LoadFile(writeConfig(t, strings.Replace(
		sampleConfig, "token: ghp_sample", "token: ${STATUSDESK_GITHUB_TOKEN}", 1)))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.GitHub.Token != "ghp_from_env" {
		t.Errorf("Token = %q, want ghp_from_env", cfg.GitHub.Token)
	}
}

func TestLoadFile_EnvVarsDoNotOverride(t *testing.T) {
	// A literal value stays literal even when the same-named variable
	// is set: only explicit ${...} patterns read the environment.
	t.Setenv("STATUSDESK_GITHUB_TOKEN", "ghp_from_env")

	cfg, err := LoadFile(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.GitHub.Token != "ghp_sample" {
		t.Errorf("Token = %q, want the literal ghp_sample", cfg.GitHub.Token)
	}
}

func TestLoadFile_StateDirExpansion(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, strings.Replace(
		sampleConfig,
		"journal_path: /var/lib/statusdesk/publish.journal",
		"journal_path: ${STATUSDESK_STATE}/publish.journal", 1)))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.JournalPath != "/var/lib/statusdesk/publish.journal" {
		t.Errorf("JournalPath = %q, want state dir expansion", cfg.JournalPath)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("STATUSDESK_TEST_VAR", "from-env")

	vars := map[string]string{"STATUSDESK_STATE": "/state"}
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no variables", "/plain/path", "/plain/path"},
		{"provided var", "${STATUSDESK_STATE}/x", "/state/x"},
		{"environment var", "${STATUSDESK_TEST_VAR}", "from-env"},
		{"default used when unset", "${STATUSDESK_UNSET:-fallback}", "fallback"},
		{"default ignored when set", "${STATUSDESK_TEST_VAR:-fallback}", "from-env"},
		{"unknown var becomes empty", "a${STATUSDESK_UNSET}b", "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandVars(tt.input, vars); got != tt.want {
				t.Errorf("expandVars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// validConfig returns a configuration that passes Validate, for the
// table below to break one field at a time.
func validConfig() *Config {
	cfg := Default()
	cfg.HomeserverURL = "https://matrix.example.org"
	cfg.StatusRoom = "!status:example.org"
	cfg.Operators = []string{"@alice:example.org"}
	cfg.GitHub.Owner = "example-org"
	cfg.GitHub.Repo = "service-status"
	cfg.GitHub.Token = "ghp_test"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string // empty means valid
	}{
		{
			name:   "valid with token auth",
			modify: func(c *Config) {},
		},
		{
			name: "valid with alias room",
			modify: func(c *Config) {
				c.StatusRoom = "#status:example.org"
			},
		},
		{
			name: "valid with App auth",
			modify: func(c *Config) {
				c.GitHub.Token = ""
				c.GitHub.AppID = 12345
				c.GitHub.InstallationID = 67890
				c.GitHub.PrivateKeyPath = "/etc/statusdesk/app.pem"
			},
		},
		{
			name:    "missing homeserver",
			modify:  func(c *Config) { c.HomeserverURL = "" },
			wantErr: "homeserver_url is required",
		},
		{
			name:    "homeserver wrong scheme",
			modify:  func(c *Config) { c.HomeserverURL = "ftp://matrix.example.org" },
			wantErr: "must be an absolute http(s) URL",
		},
		{
			name:    "missing state dir",
			modify:  func(c *Config) { c.StateDir = "" },
			wantErr: "state_dir is required",
		},
		{
			name:    "missing status room",
			modify:  func(c *Config) { c.StatusRoom = "" },
			wantErr: "status_room is required",
		},
		{
			name:    "status room without sigil",
			modify:  func(c *Config) { c.StatusRoom = "status:example.org" },
			wantErr: "room ID (!room:server) or alias",
		},
		{
			name:    "no operators",
			modify:  func(c *Config) { c.Operators = nil },
			wantErr: "at least one operator",
		},
		{
			name:    "malformed operator",
			modify:  func(c *Config) { c.Operators = []string{"alice"} },
			wantErr: `operator "alice" is not a valid Matrix user ID`,
		},
		{
			name:    "missing github owner",
			modify:  func(c *Config) { c.GitHub.Owner = "" },
			wantErr: "github.owner is required",
		},
		{
			name:    "missing github path",
			modify:  func(c *Config) { c.GitHub.Path = "" },
			wantErr: "github.path is required",
		},
		{
			name: "both auth modes",
			modify: func(c *Config) {
				c.GitHub.AppID = 12345
				c.GitHub.InstallationID = 67890
				c.GitHub.PrivateKeyPath = "/etc/statusdesk/app.pem"
			},
			wantErr: "not both",
		},
		{
			name:    "no auth mode",
			modify:  func(c *Config) { c.GitHub.Token = "" },
			wantErr: "either token or app_id",
		},
		{
			name: "partial App auth",
			modify: func(c *Config) {
				c.GitHub.Token = ""
				c.GitHub.AppID = 12345
			},
			wantErr: "app_id, installation_id, and private_key_path together",
		},
		{
			name:    "relative page url",
			modify:  func(c *Config) { c.GitHub.PageURL = "status.example.org" },
			wantErr: "page_url must be an absolute URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors for empty config")
	}
	for _, want := range []string{"homeserver_url", "state_dir", "status_room", "operator", "github.owner", "github.repo"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error missing %q: %v", want, err)
		}
	}
}

func TestRoomAccessors(t *testing.T) {
	cfg := validConfig()

	if roomID, ok := cfg.StatusRoomID(); !ok || roomID.String() != "!status:example.org" {
		t.Errorf("StatusRoomID = %v, %v", roomID, ok)
	}
	if _, ok := cfg.StatusRoomAlias(); ok {
		t.Error("StatusRoomAlias should be false for a literal room ID")
	}

	cfg.StatusRoom = "#status:example.org"
	if _, ok := cfg.StatusRoomID(); ok {
		t.Error("StatusRoomID should be false for an alias")
	}
	if alias, ok := cfg.StatusRoomAlias(); !ok || alias.String() != "#status:example.org" {
		t.Errorf("StatusRoomAlias = %v, %v", alias, ok)
	}
}

func TestOperatorIDs(t *testing.T) {
	cfg := validConfig()
	cfg.Operators = []string{"@alice:example.org", "@bob:example.org"}

	ids := cfg.OperatorIDs()
	if len(ids) != 2 {
		t.Fatalf("len = %d, want 2", len(ids))
	}
	if ids[0].String() != "@alice:example.org" || ids[1].String() != "@bob:example.org" {
		t.Errorf("ids = %v", ids)
	}
}

func TestStatePaths(t *testing.T) {
	cfg := validConfig()
	if got := cfg.SocketPath(); got != "/var/lib/statusdesk/statusdesk.sock" {
		t.Errorf("SocketPath = %q", got)
	}
	if got := cfg.SessionPath(); got != "/var/lib/statusdesk/session.json" {
		t.Errorf("SessionPath = %q", got)
	}
}

func TestEnsurePaths(t *testing.T) {
	root := t.TempDir()
	cfg := validConfig()
	cfg.StateDir = filepath.Join(root, "state")
	cfg.JournalPath = filepath.Join(root, "journal", "publish.journal")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths: %v", err)
	}

	info, err := os.Stat(cfg.StateDir)
	if err != nil {
		t.Fatalf("state dir not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("state dir mode = %o, want 0700", perm)
	}
	if _, err := os.Stat(filepath.Dir(cfg.JournalPath)); err != nil {
		t.Errorf("journal dir not created: %v", err)
	}
}
