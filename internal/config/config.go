package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all configuration for the nmail terminal client. Real mail
// semantics live in external tools; the config mostly names the commands
// used to reach them.
type Config struct {
	// Notmuch is the indexer binary (default "notmuch" on PATH).
	Notmuch string `json:"notmuch"`

	// SendMailCommand is the transfer agent invocation; the assembled
	// message is written to its stdin (e.g. ["msmtp", "-t"]).
	SendMailCommand []string `json:"send_mail_command"`

	// EditorCommand is the external editor; the draft's temp file path is
	// appended as the last argument.
	EditorCommand []string `json:"editor_command"`

	// FileBrowserCommand opens a directory of extracted attachments.
	// "{dir}" is replaced with the directory path.
	FileBrowserCommand string `json:"file_browser_command"`

	// EmailAddress is the From address for new drafts.
	EmailAddress string `json:"email_address"`

	// SentDir is the maildir that receives copies of sent messages.
	SentDir string `json:"sent_dir"`

	// SendTimeout bounds the wait on the transfer agent (default 30s).
	SendTimeout string `json:"send_timeout"`

	// DefaultToHTML selects the initial body rendering mode.
	DefaultToHTML bool `json:"default_to_html"`

	// HTMLAllowRemote disables the remote-content block in HTML mode.
	// Blocking is the security-relevant default; leave this off unless
	// every sender is trusted.
	HTMLAllowRemote bool `json:"html_allow_remote"`

	// TagIcons maps a tag name to the icon shown in tag summaries. Tags
	// without an icon render as [tag].
	TagIcons map[string]string `json:"tag_icons"`

	// Keys holds the keyboard shortcuts.
	Keys KeyBindings `json:"keys"`

	// History configures the saved-search / query-history store.
	History HistoryConfig `json:"history"`

	// Logging
	LogFile string `json:"log_file"`

	// UI customization
	CurrentTheme   string `json:"current_theme"`
	CustomThemeDir string `json:"custom_theme_dir"`
}

// HistoryConfig configures the SQLite query store.
type HistoryConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// KeyBindings defines keyboard shortcuts for the TUI.
type KeyBindings struct {
	Search      string `json:"search"`
	Refresh     string `json:"refresh"`
	Compose     string `json:"compose"`
	Reply       string `json:"reply"`
	ReplyAll    string `json:"reply_all"`
	Forward     string `json:"forward"`
	ToggleRead  string `json:"toggle_read"`
	ToggleHTML  string `json:"toggle_html"`
	NextMessage string `json:"next_message"`
	PrevMessage string `json:"prev_message"`
	Attachments string `json:"attachments"`
	Edit        string `json:"edit"`
	Send        string `json:"send"`
	Archive     string `json:"archive"`
	Delete      string `json:"delete"`
	Quit        string `json:"quit"`
	Help        string `json:"help"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Notmuch:            "notmuch",
		SendMailCommand:    []string{"sendmail", "-t"},
		EditorCommand:      []string{"gvim", "-f"},
		FileBrowserCommand: "xdg-open {dir}",
		SendTimeout:        "30s",
		DefaultToHTML:      false,
		HTMLAllowRemote:    false,
		TagIcons:           DefaultTagIcons(),
		Keys:               DefaultKeyBindings(),
		History:            HistoryConfig{Enabled: true},
		LogFile:            "",
		CurrentTheme:       "nmail-dark",
	}
}

// DefaultTagIcons returns the default tag to icon mapping.
func DefaultTagIcons() map[string]string {
	return map[string]string{
		"inbox":      "📥",
		"unread":     "🔵",
		"attachment": "📎",
		"flagged":    "🚩",
		"replied":    "↩️",
		"sent":       "📤",
		"signed":     "🔑",
	}
}

// DefaultKeyBindings returns default keyboard shortcuts.
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		Search:      "/",
		Refresh:     "R",
		Compose:     "c",
		Reply:       "r",
		ReplyAll:    "a",
		Forward:     "f",
		ToggleRead:  "u",
		ToggleHTML:  "h",
		NextMessage: "J",
		PrevMessage: "K",
		Attachments: "A",
		Edit:        "e",
		Send:        "y",
		Archive:     "I",
		Delete:      "d",
		Quit:        "q",
		Help:        "?",
	}
}

// LoadConfig loads configuration from a file over the defaults. A missing
// file is not an error; the defaults apply.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a file.
func (c *Config) SaveConfig(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetSendTimeout returns the parsed bounded wait for the transfer agent.
func (c *Config) GetSendTimeout() time.Duration {
	if c.SendTimeout != "" {
		if d, err := time.ParseDuration(c.SendTimeout); err == nil && d > 0 {
			return d
		}
	}
	return 30 * time.Second
}

// FileBrowserFor expands the file browser command template for a directory.
func (c *Config) FileBrowserFor(dir string) string {
	cmd := c.FileBrowserCommand
	if strings.TrimSpace(cmd) == "" {
		cmd = "xdg-open {dir}"
	}
	return strings.ReplaceAll(cmd, "{dir}", dir)
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "nmail", "config.json")
}

// DefaultDataDir returns the default directory for the query store.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "nmail", "data")
}

// DefaultThemeDir returns the default directory for theme files.
func DefaultThemeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "nmail", "themes")
}

// DefaultLogDir returns the default log directory path.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "nmail")
}
