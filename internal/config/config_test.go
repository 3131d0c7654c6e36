package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "notmuch", cfg.Notmuch)
	assert.Equal(t, []string{"sendmail", "-t"}, cfg.SendMailCommand)
	assert.False(t, cfg.HTMLAllowRemote, "remote content must be blocked by default")
	assert.False(t, cfg.DefaultToHTML)
	assert.Equal(t, 30*time.Second, cfg.GetSendTimeout())
	assert.NotEmpty(t, cfg.TagIcons)
	assert.Equal(t, "q", cfg.Keys.Quit)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Notmuch, cfg.Notmuch)
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"email_address": "me@example.com",
		"send_mail_command": ["msmtp", "-t"],
		"send_timeout": "5s",
		"html_allow_remote": true,
		"keys": {"quit": "Q"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "me@example.com", cfg.EmailAddress)
	assert.Equal(t, []string{"msmtp", "-t"}, cfg.SendMailCommand)
	assert.Equal(t, 5*time.Second, cfg.GetSendTimeout())
	assert.True(t, cfg.HTMLAllowRemote)
	assert.Equal(t, "Q", cfg.Keys.Quit)
	// Untouched fields keep their defaults
	assert.Equal(t, "notmuch", cfg.Notmuch)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.json")

	cfg := DefaultConfig()
	cfg.EmailAddress = "me@example.com"
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", loaded.EmailAddress)
}

func TestGetSendTimeout_Fallbacks(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"empty", "", 30 * time.Second},
		{"garbage", "soon", 30 * time.Second},
		{"negative", "-2s", 30 * time.Second},
		{"valid", "90s", 90 * time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{SendTimeout: tc.value}
			assert.Equal(t, tc.want, cfg.GetSendTimeout())
		})
	}
}

func TestFileBrowserFor(t *testing.T) {
	cfg := &Config{FileBrowserCommand: "thunar {dir}"}
	assert.Equal(t, "thunar /tmp/atts", cfg.FileBrowserFor("/tmp/atts"))

	cfg.FileBrowserCommand = ""
	assert.Equal(t, "xdg-open /tmp/atts", cfg.FileBrowserFor("/tmp/atts"))
}

func TestThemeLoader_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	tl := NewThemeLoader(dir)

	require.NoError(t, tl.CreateDefaultTheme())

	themes, err := tl.ListAvailableThemes()
	require.NoError(t, err)
	assert.Contains(t, themes, "nmail-dark.yaml")

	theme, err := tl.LoadThemeFromFile("nmail-dark.yaml")
	require.NoError(t, err)
	require.NoError(t, tl.ValidateTheme(theme))
	assert.Equal(t, DefaultColors().Mail.UnreadColor, theme.Mail.UnreadColor)
}

func TestThemeLoader_MissingFile(t *testing.T) {
	tl := NewThemeLoader(t.TempDir())
	_, err := tl.LoadThemeFromFile("missing.yaml")
	assert.Error(t, err)
}

func TestThemeLoader_ValidateRejectsIncomplete(t *testing.T) {
	tl := NewThemeLoader(t.TempDir())

	assert.Error(t, tl.ValidateTheme(nil))
	assert.Error(t, tl.ValidateTheme(&ColorsConfig{}))
	assert.NoError(t, tl.ValidateTheme(DefaultColors()))
}
