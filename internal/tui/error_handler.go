package tui

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/derailed/tview"
	"github.com/rbarranco/nmail/internal/services"
)

// LogLevel represents the severity of a status message.
type LogLevel int

const (
	LogLevelInfo LogLevel = iota
	LogLevelWarning
	LogLevelError
	LogLevelSuccess
)

// ErrorHandler funnels user feedback through the status bar and the log.
// Messages clear after a few seconds unless marked persistent.
type ErrorHandler struct {
	mu         sync.Mutex
	app        *tview.Application
	statusView *tview.TextView
	logger     *log.Logger

	persistent string
	timer      *time.Timer
}

// NewErrorHandler creates an error handler bound to the status bar.
func NewErrorHandler(app *tview.Application, statusView *tview.TextView, logger *log.Logger) *ErrorHandler {
	return &ErrorHandler{app: app, statusView: statusView, logger: logger}
}

// HandleError logs the technical error and shows a friendly message.
// Transient failures show as warnings since retrying the action as-is may
// succeed.
func (eh *ErrorHandler) HandleError(err error, userMsg string) {
	if err == nil {
		return
	}
	if eh.logger != nil {
		eh.logger.Printf("ERROR: %v", err)
	}
	if userMsg == "" {
		userMsg = err.Error()
	}
	eh.ShowMessage(userMsg, levelFor(err))
}

// levelFor maps an error to the status line severity it is shown with.
func levelFor(err error) LogLevel {
	if services.IsTransient(err) {
		return LogLevelWarning
	}
	return LogLevelError
}

// ShowMessage displays a transient status message.
func (eh *ErrorHandler) ShowMessage(msg string, level LogLevel) {
	if strings.TrimSpace(msg) == "" {
		return
	}
	if eh.logger != nil {
		eh.logger.Printf("%s: %s", levelLabel(level), msg)
	}

	formatted := formatMessage(msg, level)

	eh.mu.Lock()
	if eh.timer != nil {
		eh.timer.Stop()
	}
	eh.timer = time.AfterFunc(4*time.Second, eh.restore)
	eh.mu.Unlock()

	// Queued from a fresh goroutine: callers may already be on the UI
	// goroutine, where a direct QueueUpdateDraw would deadlock.
	go eh.app.QueueUpdateDraw(func() {
		eh.statusView.SetText(formatted)
	})
}

// ShowPersistent sets the baseline status text shown when no transient
// message is active.
func (eh *ErrorHandler) ShowPersistent(msg string) {
	eh.mu.Lock()
	eh.persistent = msg
	eh.mu.Unlock()
	go eh.app.QueueUpdateDraw(func() {
		eh.statusView.SetText(msg)
	})
}

func (eh *ErrorHandler) restore() {
	eh.mu.Lock()
	baseline := eh.persistent
	eh.mu.Unlock()
	eh.app.QueueUpdateDraw(func() {
		eh.statusView.SetText(baseline)
	})
}

func formatMessage(msg string, level LogLevel) string {
	msg = tview.Escape(msg)
	switch level {
	case LogLevelError:
		return fmt.Sprintf("[red]✗ %s[-]", msg)
	case LogLevelWarning:
		return fmt.Sprintf("[yellow]⚠ %s[-]", msg)
	case LogLevelSuccess:
		return fmt.Sprintf("[green]✓ %s[-]", msg)
	default:
		return fmt.Sprintf("[blue]ℹ %s[-]", msg)
	}
}

func levelLabel(level LogLevel) string {
	switch level {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarning:
		return "WARN"
	case LogLevelSuccess:
		return "OK"
	default:
		return "INFO"
	}
}
