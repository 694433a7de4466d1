// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/statusdesk/statusdesk/lib/ref"
)

// DefaultPath is where Load looks when STATUSDESK_CONFIG is not set.
const DefaultPath = "/etc/statusdesk/config.yaml"

// Config is the full statusdesk configuration, shared by the service
// and the CLI.
type Config struct {
	// HomeserverURL is the Matrix homeserver base URL, e.g.
	// "https://matrix.example.org".
	HomeserverURL string `yaml:"homeserver_url"`

	// StateDir holds runtime state: the saved Matrix session and the
	// control socket. Created with owner-only permissions because the
	// session file contains an access token.
	StateDir string `yaml:"state_dir"`

	// StatusRoom is the room the service watches for commands, as a
	// room ID ("!room:server") or an alias ("#alias:server") resolved
	// at startup.
	StatusRoom string `yaml:"status_room"`

	// Operators lists the Matrix user IDs allowed to issue commands.
	// Everything sent by anyone else is ignored.
	Operators []string `yaml:"operators"`

	// GitHub identifies the repository file the status document is
	// published to, and how to authenticate.
	GitHub GitHubConfig `yaml:"github"`

	// JournalPath enables the local publish journal when set. Empty
	// disables journaling.
	JournalPath string `yaml:"journal_path"`
}

// GitHubConfig identifies the published status file and the API
// credentials. Exactly one auth mode is configured: a personal access
// token, or a GitHub App (app_id + installation_id + private_key_path).
type GitHubConfig struct {
	// Owner is the repository owner (user or organization).
	Owner string `yaml:"owner"`

	// Repo is the repository name.
	Repo string `yaml:"repo"`

	// Path is the status file path within the repository.
	Path string `yaml:"path"`

	// Branch is the branch to read and commit on. Empty uses the
	// repository's default branch.
	Branch string `yaml:"branch"`

	// Token is a personal access token. Usually supplied via
	// expansion: token: ${STATUSDESK_GITHUB_TOKEN}.
	Token string `yaml:"token"`

	// AppID is the GitHub App ID for App auth.
	AppID int64 `yaml:"app_id"`

	// InstallationID is the App installation on the target repository.
	InstallationID int64 `yaml:"installation_id"`

	// PrivateKeyPath is the PEM file holding the App's signing key.
	PrivateKeyPath string `yaml:"private_key_path"`

	// PageURL is the public status page rendered from the file,
	// linked in publish confirmations. Optional.
	PageURL string `yaml:"page_url"`
}

// Default returns the base configuration the file is merged over.
// These exist so optional fields have sensible values, not as a
// substitute for the file - the file is required.
func Default() *Config {
	return &Config{
		StateDir: "/var/lib/statusdesk",
		GitHub: GitHubConfig{
			Path: "status.json",
		},
	}
}

// Load loads configuration from the path in STATUSDESK_CONFIG, or
// from DefaultPath when the variable is not set.
func Load() (*Config, error) {
	configPath := os.Getenv("STATUSDESK_CONFIG")
	if configPath == "" {
		configPath = DefaultPath
	}
	return LoadFile(configPath)
}

// LoadFile reads, parses, and expands the configuration at path.
//
// The file is the single source of truth: environment variables do
// not override loaded values. The only environment access is through
// explicit ${VAR} expansion in credential and path fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in the
// fields that plausibly carry secrets or host-specific paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.StateDir = expandVars(c.StateDir, vars)
	vars["STATUSDESK_STATE"] = c.StateDir // available to dependent paths

	c.JournalPath = expandVars(c.JournalPath, vars)
	c.GitHub.Token = expandVars(c.GitHub.Token, vars)
	c.GitHub.PrivateKeyPath = expandVars(c.GitHub.PrivateKeyPath, vars)
}

// A variable reference is ${NAME} or ${NAME:-fallback}; the name runs
// up to the first ':' or '}'.
var variableReference = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars resolves every variable reference in s. Names are looked
// up in vars and then in the process environment; a name set in
// neither resolves to its fallback, or to the empty string without
// one.
func expandVars(s string, vars map[string]string) string {
	return variableReference.ReplaceAllStringFunc(s, func(reference string) string {
		groups := variableReference.FindStringSubmatch(reference)
		name, fallback := groups[1], groups[2]
		if value := vars[name]; value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return fallback
	})
}

// Validate checks the configuration and reports every problem at
// once, joined into a single error.
func (c *Config) Validate() error {
	var errs []error

	if c.HomeserverURL == "" {
		errs = append(errs, fmt.Errorf("homeserver_url is required"))
	} else if parsed, err := url.Parse(c.HomeserverURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("homeserver_url must be an absolute http(s) URL, got %q", c.HomeserverURL))
	}

	if c.StateDir == "" {
		errs = append(errs, fmt.Errorf("state_dir is required"))
	}

	if c.StatusRoom == "" {
		errs = append(errs, fmt.Errorf("status_room is required"))
	} else if !validRoom(c.StatusRoom) {
		errs = append(errs, fmt.Errorf("status_room must be a room ID (!room:server) or alias (#alias:server), got %q", c.StatusRoom))
	}

	if len(c.Operators) == 0 {
		errs = append(errs, fmt.Errorf("at least one operator is required"))
	}
	for _, operator := range c.Operators {
		if _, err := ref.ParseUserID(operator); err != nil {
			errs = append(errs, fmt.Errorf("operator %q is not a valid Matrix user ID", operator))
		}
	}

	errs = append(errs, c.GitHub.validate()...)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (g *GitHubConfig) validate() []error {
	var errs []error

	if g.Owner == "" {
		errs = append(errs, fmt.Errorf("github.owner is required"))
	}
	if g.Repo == "" {
		errs = append(errs, fmt.Errorf("github.repo is required"))
	}
	if g.Path == "" {
		errs = append(errs, fmt.Errorf("github.path is required"))
	}

	hasToken := g.Token != ""
	hasApp := g.AppID != 0 || g.InstallationID != 0 || g.PrivateKeyPath != ""
	switch {
	case hasToken && hasApp:
		errs = append(errs, fmt.Errorf("github: configure either token or App credentials, not both"))
	case !hasToken && !hasApp:
		errs = append(errs, fmt.Errorf("github: either token or app_id/installation_id/private_key_path is required"))
	case hasApp && (g.AppID == 0 || g.InstallationID == 0 || g.PrivateKeyPath == ""):
		errs = append(errs, fmt.Errorf("github: App auth requires app_id, installation_id, and private_key_path together"))
	}

	if g.PageURL != "" {
		if parsed, err := url.Parse(g.PageURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			errs = append(errs, fmt.Errorf("github.page_url must be an absolute URL, got %q", g.PageURL))
		}
	}

	return errs
}

func validRoom(room string) bool {
	if _, err := ref.ParseRoomID(room); err == nil {
		return true
	}
	if _, err := ref.ParseRoomAlias(room); err == nil {
		return true
	}
	return false
}

// StatusRoomID returns the configured room when it is a literal room
// ID, and false when it is an alias that needs resolving first.
func (c *Config) StatusRoomID() (ref.RoomID, bool) {
	roomID, err := ref.ParseRoomID(c.StatusRoom)
	return roomID, err == nil
}

// StatusRoomAlias returns the configured room as an alias, false when
// it is a literal room ID.
func (c *Config) StatusRoomAlias() (ref.RoomAlias, bool) {
	alias, err := ref.ParseRoomAlias(c.StatusRoom)
	return alias, err == nil
}

// OperatorIDs returns the operator allow-list as parsed user IDs.
// Call Validate first; unparseable entries are reported there.
func (c *Config) OperatorIDs() []ref.UserID {
	ids := make([]ref.UserID, 0, len(c.Operators))
	for _, operator := range c.Operators {
		userID, err := ref.ParseUserID(operator)
		if err != nil {
			continue
		}
		ids = append(ids, userID)
	}
	return ids
}

// SocketPath returns the control socket path inside the state dir.
func (c *Config) SocketPath() string {
	return filepath.Join(c.StateDir, "statusdesk.sock")
}

// SessionPath returns the saved Matrix session path inside the state
// dir.
func (c *Config) SessionPath() string {
	return filepath.Join(c.StateDir, "session.json")
}

// EnsurePaths creates the state directory (and the journal's parent
// directory when journaling is enabled). Owner-only permissions: the
// state dir holds an access token and the control socket.
func (c *Config) EnsurePaths() error {
	if err := os.MkdirAll(c.StateDir, 0700); err != nil {
		return fmt.Errorf("creating %s: %w", c.StateDir, err)
	}
	if c.JournalPath != "" {
		if err := os.MkdirAll(filepath.Dir(c.JournalPath), 0700); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(c.JournalPath), err)
		}
	}
	return nil
}
