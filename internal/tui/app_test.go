package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rbarranco/nmail/internal/config"
	"github.com/rbarranco/nmail/internal/db"
	"github.com/rbarranco/nmail/internal/notmuch"
	"github.com/rbarranco/nmail/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.CustomThemeDir = t.TempDir()
	a := NewApp(cfg, notmuch.NewClient("notmuch"), nil)
	t.Cleanup(a.cancel)
	return a
}

func TestNewApp_Defaults(t *testing.T) {
	a := newTestApp(t)

	require.NotNil(t, a.searchSvc)
	require.NotNil(t, a.threadSvc)
	require.NotNil(t, a.tagSvc)
	require.NotNil(t, a.composeSvc)
	assert.False(t, a.htmlMode, "plain text is the default rendering mode")
	assert.NotNil(t, a.theme)
}

func TestNewApp_HTMLModeFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.CustomThemeDir = t.TempDir()
	cfg.DefaultToHTML = true
	a := NewApp(cfg, notmuch.NewClient("notmuch"), nil)
	defer a.cancel()

	assert.True(t, a.htmlMode)
}

func TestLoadTheme_WritesDefaultThemeFile(t *testing.T) {
	a := newTestApp(t)

	loader := config.NewThemeLoader(a.cfg.CustomThemeDir)
	themes, err := loader.ListAvailableThemes()
	require.NoError(t, err)
	assert.Contains(t, themes, "nmail-dark.yaml")
}

func TestHelpText_ListsBindings(t *testing.T) {
	a := newTestApp(t)
	text := a.helpText()

	assert.Contains(t, text, "reply / reply all")
	assert.Contains(t, text, a.keys.Send)
	assert.Contains(t, text, "toggle html rendering")
}

func TestResolveQuery_SavedSearches(t *testing.T) {
	store, err := db.Open(filepath.Join(t.TempDir(), "nmail.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.DefaultConfig()
	cfg.CustomThemeDir = t.TempDir()
	a := NewApp(cfg, notmuch.NewClient("notmuch"), store)
	t.Cleanup(a.cancel)

	q, err := a.resolveQuery("@work=tag:work and tag:unread")
	require.NoError(t, err)
	assert.Equal(t, "tag:work and tag:unread", q)

	q, err = a.resolveQuery("@work")
	require.NoError(t, err)
	assert.Equal(t, "tag:work and tag:unread", q)

	_, err = a.resolveQuery("@missing")
	assert.ErrorIs(t, err, db.ErrQueryNotFound)

	q, err = a.resolveQuery("tag:inbox")
	require.NoError(t, err)
	assert.Equal(t, "tag:inbox", q, "plain queries pass through")
}

func TestResolveQuery_NoStorePassesThrough(t *testing.T) {
	a := newTestApp(t)
	q, err := a.resolveQuery("@work")
	require.NoError(t, err)
	assert.Equal(t, "@work", q)
}

func TestFormatMessage(t *testing.T) {
	assert.Contains(t, formatMessage("boom", LogLevelError), "[red]")
	assert.Contains(t, formatMessage("fine", LogLevelSuccess), "[green]")
	assert.Contains(t, formatMessage("hm", LogLevelWarning), "[yellow]")
	assert.Contains(t, formatMessage("fyi", LogLevelInfo), "[blue]")
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, LogLevelWarning, levelFor(services.ErrTimeout))
	assert.Equal(t, LogLevelWarning, levelFor(fmt.Errorf("%w: sendmail: exit 1", services.ErrProcess)))
	assert.Equal(t, LogLevelError, levelFor(services.ErrInvalidInput))
	assert.Equal(t, LogLevelError, levelFor(errors.New("boom")))
}

func TestLevelLabel(t *testing.T) {
	assert.Equal(t, "ERROR", levelLabel(LogLevelError))
	assert.Equal(t, "INFO", levelLabel(LogLevelInfo))
}
