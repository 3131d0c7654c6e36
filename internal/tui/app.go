package tui

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/derailed/tview"
	"github.com/rbarranco/nmail/internal/config"
	"github.com/rbarranco/nmail/internal/db"
	"github.com/rbarranco/nmail/internal/notmuch"
	"github.com/rbarranco/nmail/internal/render"
	"github.com/rbarranco/nmail/internal/services"
)

// Page names within the root Pages container.
const (
	pageSearch  = "search"
	pageThread  = "thread"
	pageCompose = "compose"
	pageHelp    = "help"
)

// App encapsulates the terminal UI, the notmuch client, and the services
// behind it.
type App struct {
	*tview.Application
	Pages *tview.Pages

	cfg    *config.Config
	keys   config.KeyBindings
	client *notmuch.Client

	searchSvc  *services.SearchService
	threadSvc  *services.ThreadService
	tagSvc     *services.TagService
	composeSvc *services.ComposeService
	store      *db.Store

	renderer *render.Renderer
	theme    *config.ColorsConfig

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.RWMutex
	views     map[string]tview.Primitive
	htmlMode  bool
	composeID string

	logger       *log.Logger
	logFile      *os.File
	errorHandler *ErrorHandler
}

// NewApp creates the application. The db store may be nil when history is
// disabled or unavailable.
func NewApp(cfg *config.Config, client *notmuch.Client, store *db.Store) *App {
	ctx, cancel := context.WithCancel(context.Background())

	tags := services.NewTagService(client)
	a := &App{
		Application: tview.NewApplication(),
		Pages:       tview.NewPages(),
		cfg:         cfg,
		keys:        cfg.Keys,
		client:      client,
		searchSvc:   services.NewSearchService(client),
		threadSvc:   services.NewThreadService(client),
		tagSvc:      tags,
		composeSvc:  services.NewComposeService(cfg, client, tags),
		store:       store,
		renderer:    render.NewRenderer(cfg.TagIcons, cfg.HTMLAllowRemote),
		ctx:         ctx,
		cancel:      cancel,
		views:       make(map[string]tview.Primitive),
		htmlMode:    cfg.DefaultToHTML,
	}

	a.initLogger()
	a.loadTheme()
	a.searchSvc.SetTagFormatter(a.renderer.TagSummary)
	a.tagSvc.AddNotifier(a)

	status := tview.NewTextView().SetDynamicColors(true)
	a.views["status"] = status
	a.errorHandler = NewErrorHandler(a.Application, status, a.logger)
	return a
}

func (a *App) initLogger() {
	if a.cfg.LogFile == "" {
		a.logger = log.New(os.Stderr, "", log.LstdFlags)
		return
	}
	f, err := os.OpenFile(a.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		a.logger = log.New(os.Stderr, "", log.LstdFlags)
		a.logger.Printf("cannot open log file %s: %v", a.cfg.LogFile, err)
		return
	}
	a.logFile = f
	a.logger = log.New(f, "", log.LstdFlags|log.Lshortfile)

	a.client.SetLogger(a.logger)
	a.searchSvc.SetLogger(a.logger)
	a.threadSvc.SetLogger(a.logger)
	a.tagSvc.SetLogger(a.logger)
	a.composeSvc.SetLogger(a.logger)
}

func (a *App) loadTheme() {
	a.theme = config.DefaultColors()

	themeDir := a.cfg.CustomThemeDir
	if themeDir == "" {
		themeDir = config.DefaultThemeDir()
	}
	loader := config.NewThemeLoader(themeDir)
	if err := loader.CreateDefaultTheme(); err != nil {
		a.logger.Printf("theme: cannot create default theme: %v", err)
	}
	if a.cfg.CurrentTheme != "" {
		theme, err := loader.LoadThemeFromFile(a.cfg.CurrentTheme + ".yaml")
		if err != nil {
			a.logger.Printf("theme: %v, using defaults", err)
			return
		}
		if err := loader.ValidateTheme(theme); err != nil {
			a.logger.Printf("theme: %v, using defaults", err)
			return
		}
		a.theme = theme
	}
	a.renderer.UpdateFromConfig(a.theme)
}

// Run builds the layout and enters the event loop.
func (a *App) Run() error {
	status := a.views["status"]

	a.initSearchView()
	a.initThreadView()
	a.initComposeView()
	a.initHelpView()

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.Pages, 0, 1, true).
		AddItem(status, 1, 0, false)
	root.SetBackgroundColor(a.theme.Body.BgColor.Color())

	a.Pages.SwitchToPage(pageSearch)
	a.errorHandler.ShowPersistent(a.baselineStatus())

	go a.consumeComposeEvents()
	go a.runSearch("tag:inbox")

	defer a.shutdown()
	return a.SetRoot(root, true).EnableMouse(true).Run()
}

func (a *App) shutdown() {
	a.cancel()
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func (a *App) baselineStatus() string {
	return fmt.Sprintf("nmail | %s search | %s help | %s quit",
		a.keys.Search, a.keys.Help, a.keys.Quit)
}

// NotifyChanged re-reads the open snapshots after a tag mutation. Mutations
// run off the UI goroutine, so queueing a redraw here is safe.
func (a *App) NotifyChanged() {
	ctx := a.ctx
	if err := a.searchSvc.Refresh(ctx); err != nil {
		a.logger.Printf("refresh search: %v", err)
	}
	if err := a.threadSvc.Refresh(ctx); err != nil {
		a.logger.Printf("refresh thread: %v", err)
	}
	a.QueueUpdateDraw(func() {
		a.reloadSearchTable()
		a.reloadThreadList()
	})
}

// consumeComposeEvents is the single consumer of the compose event channel.
func (a *App) consumeComposeEvents() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case ev := <-a.composeSvc.Events():
			a.QueueUpdateDraw(func() {
				a.applyComposeEvent(ev)
			})
		}
	}
}
