package tui

import (
	"errors"
	"fmt"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/rbarranco/nmail/internal/services"
)

// initComposeView builds the compose page: a one-line status bar over the
// read-only draft preview. Editing happens in the external editor.
func (a *App) initComposeView() {
	statusLine := tview.NewTextView().SetDynamicColors(true)
	statusLine.SetBackgroundColor(a.theme.Body.BgColor.Color())

	content := tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	content.SetBackgroundColor(a.theme.Body.BgColor.Color())
	content.SetBorder(true).SetTitle(" Compose ")
	content.SetBorderColor(a.theme.Frame.Border.FgColor.Color())
	content.SetInputCapture(a.composeKeyHandler())

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(statusLine, 1, 0, false).
		AddItem(content, 0, 1, true)

	a.views["composeStatus"] = statusLine
	a.views["composeContent"] = content
	a.Pages.AddPage(pageCompose, flex, true, false)
}

func (a *App) composeKeyHandler() func(*tcell.EventKey) *tcell.EventKey {
	return func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEscape {
			a.Pages.SwitchToPage(pageSearch)
			return nil
		}
		if ev.Key() != tcell.KeyRune {
			return ev
		}
		switch string(ev.Rune()) {
		case a.keys.Edit:
			a.editDraft()
			return nil
		case a.keys.Send:
			a.sendDraft()
			return nil
		case a.keys.Help:
			a.showHelp()
			return nil
		case a.keys.Quit:
			a.Stop()
			return nil
		}
		return ev
	}
}

func (a *App) startCompose() {
	a.openComposer(a.composeSvc.NewCompose())
}

func (a *App) startReply(all bool) {
	m, err := a.threadSvc.Message(a.threadSvc.Selected())
	if err != nil {
		return
	}
	a.openComposer(a.composeSvc.NewReply(m, all))
}

func (a *App) startForward() {
	m, err := a.threadSvc.Message(a.threadSvc.Selected())
	if err != nil {
		return
	}
	a.openComposer(a.composeSvc.NewForward(m))
}

func (a *App) openComposer(cs *services.ComposeSession) {
	a.mu.Lock()
	a.composeID = cs.ID
	a.mu.Unlock()
	a.renderCompose(cs)
	a.Pages.SwitchToPage(pageCompose)
}

func (a *App) activeSession() *services.ComposeSession {
	a.mu.RLock()
	id := a.composeID
	a.mu.RUnlock()
	if id == "" {
		return nil
	}
	cs, err := a.composeSvc.Session(id)
	if err != nil {
		return nil
	}
	return cs
}

// renderCompose redraws the compose page for a session. Must run on the UI
// goroutine.
func (a *App) renderCompose(cs *services.ComposeSession) {
	status := cs.Status()
	color := a.theme.Mail.TagColor
	switch status {
	case services.StatusSent:
		color = a.theme.Mail.GoodColor
	case services.StatusError, services.StatusTimedOut:
		color = a.theme.Mail.BadColor
	}

	if line, ok := a.views["composeStatus"].(*tview.TextView); ok {
		line.SetText(fmt.Sprintf(" [%s]● %s[-]  %s edit | %s send | Esc back",
			color, status, a.keys.Edit, a.keys.Send))
	}
	if content, ok := a.views["composeContent"].(*tview.TextView); ok {
		content.SetText(tview.Escape(cs.Content()))
	}
}

func (a *App) editDraft() {
	cs := a.activeSession()
	if cs == nil {
		return
	}
	if err := a.composeSvc.StartEdit(a.ctx, cs.ID); err != nil {
		if errors.Is(err, services.ErrInvalidState) {
			a.errorHandler.ShowMessage("Draft is busy", LogLevelWarning)
			return
		}
		a.errorHandler.HandleError(err, "Cannot start editor")
	}
}

func (a *App) sendDraft() {
	cs := a.activeSession()
	if cs == nil {
		return
	}
	if err := a.composeSvc.StartSend(a.ctx, cs.ID); err != nil {
		if errors.Is(err, services.ErrInvalidState) {
			a.errorHandler.ShowMessage("Draft is busy", LogLevelWarning)
			return
		}
		a.errorHandler.HandleError(err, "Cannot send")
	}
}

// applyComposeEvent reflects a status transition in the UI. Must run on the
// UI goroutine.
func (a *App) applyComposeEvent(ev services.ComposeEvent) {
	a.mu.RLock()
	active := a.composeID == ev.SessionID
	a.mu.RUnlock()

	switch {
	case ev.Status == services.StatusSent:
		a.errorHandler.ShowMessage("Message sent", LogLevelSuccess)
	case ev.Status == services.StatusTimedOut:
		a.errorHandler.ShowMessage("Transfer agent timed out, outcome unknown", LogLevelWarning)
	case ev.Err != nil:
		a.errorHandler.HandleError(ev.Err, "")
	}

	if !active {
		return
	}
	if cs, err := a.composeSvc.Session(ev.SessionID); err == nil {
		a.renderCompose(cs)
	}
}
