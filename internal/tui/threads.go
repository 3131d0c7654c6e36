package tui

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/rbarranco/nmail/internal/notmuch"
	"github.com/rbarranco/nmail/internal/render"
)

// initThreadView builds the flat message list next to the header and body
// panes.
func (a *App) initThreadView() {
	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)
	list.SetBackgroundColor(a.theme.Body.BgColor.Color())
	list.SetBorder(true).SetTitle(" Messages ")
	list.SetBorderColor(a.theme.Frame.Border.FgColor.Color())

	header := tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	header.SetBackgroundColor(a.theme.Body.BgColor.Color())

	body := tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	body.SetBackgroundColor(a.theme.Body.BgColor.Color())
	body.SetBorder(true)
	body.SetBorderColor(a.theme.Frame.Border.FgColor.Color())

	list.SetChangedFunc(func(index int, _, _ string, _ rune) {
		a.threadSvc.Select(index)
		a.showSelectedMessage()
	})
	list.SetInputCapture(a.threadKeyHandler())

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(header, 8, 0, false).
		AddItem(body, 0, 1, false)

	flex := tview.NewFlex().
		AddItem(list, 30, 0, true).
		AddItem(right, 0, 1, false)

	a.views["threadList"] = list
	a.views["messageHeader"] = header
	a.views["messageBody"] = body
	a.Pages.AddPage(pageThread, flex, true, false)
}

func (a *App) threadKeyHandler() func(*tcell.EventKey) *tcell.EventKey {
	return func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEscape {
			a.Pages.SwitchToPage(pageSearch)
			return nil
		}
		if ev.Key() != tcell.KeyRune {
			return ev
		}
		switch string(ev.Rune()) {
		case a.keys.NextMessage:
			a.selectMessage(a.threadSvc.Next())
			return nil
		case a.keys.PrevMessage:
			a.selectMessage(a.threadSvc.Prev())
			return nil
		case a.keys.ToggleHTML:
			a.toggleHTML()
			return nil
		case a.keys.ToggleRead:
			go a.toggleRead()
			return nil
		case a.keys.Reply:
			a.startReply(false)
			return nil
		case a.keys.ReplyAll:
			a.startReply(true)
			return nil
		case a.keys.Forward:
			a.startForward()
			return nil
		case a.keys.Attachments:
			go a.openAttachments()
			return nil
		case a.keys.Refresh:
			go a.refreshThread()
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

// reloadThreadList redraws the message list from the current snapshot. Must
// run on the UI goroutine.
func (a *App) reloadThreadList() {
	list, ok := a.views["threadList"].(*tview.List)
	if !ok {
		return
	}
	list.Clear()

	for i := 0; i < a.threadSvc.Count(); i++ {
		label := a.threadSvc.RowLabel(i)
		if a.threadSvc.IsUnread(i) {
			label = fmt.Sprintf("[%s]%s[-]", a.theme.Mail.UnreadColor, tview.Escape(label))
		} else {
			label = tview.Escape(label)
		}
		list.AddItem(label, "", 0, nil)
	}

	if sel := a.threadSvc.Selected(); sel >= 0 {
		list.SetCurrentItem(sel)
	}
}

func (a *App) selectMessage(index int) {
	if list, ok := a.views["threadList"].(*tview.List); ok && index >= 0 {
		list.SetCurrentItem(index)
	}
	a.showSelectedMessage()
}

// showSelectedMessage renders the selected message and marks it read. Must
// run on the UI goroutine.
func (a *App) showSelectedMessage() {
	m, err := a.threadSvc.Message(a.threadSvc.Selected())
	if err != nil {
		return
	}

	if header, ok := a.views["messageHeader"].(*tview.TextView); ok {
		header.SetText(a.renderer.RenderHeaders(m))
	}
	if body, ok := a.views["messageBody"].(*tview.TextView); ok {
		mode := render.ModePlainText
		title := " Body "
		if a.htmlMode {
			mode = render.ModeHTML
			title = " Body (html) "
		}
		body.SetTitle(title)
		body.SetText(a.renderer.RenderBody(m, mode))
		body.ScrollToBeginning()
	}

	if m.IsUnread() {
		id := m.ID
		go func() {
			if err := a.tagSvc.MarkRead(a.ctx, id); err != nil {
				a.logger.Printf("mark read %s: %v", id, err)
			}
		}()
	}
}

func (a *App) toggleHTML() {
	a.mu.Lock()
	a.htmlMode = !a.htmlMode
	a.mu.Unlock()
	a.showSelectedMessage()
}

// toggleRead flips the unread tag on the selected message.
func (a *App) toggleRead() {
	m, err := a.threadSvc.Message(a.threadSvc.Selected())
	if err != nil {
		return
	}
	if err := a.tagSvc.Toggle(a.ctx, notmuch.ScopeMessage, m.ID, "unread", m.IsUnread()); err != nil {
		a.errorHandler.HandleError(err, "Tagging failed")
	}
}

func (a *App) refreshThread() {
	if err := a.threadSvc.Refresh(a.ctx); err != nil {
		a.errorHandler.HandleError(err, "Refresh failed")
		return
	}
	a.QueueUpdateDraw(func() {
		a.reloadThreadList()
		a.showSelectedMessage()
	})
}

// openAttachments extracts the selected message's attachments into a temp
// directory and opens the configured file browser on it.
func (a *App) openAttachments() {
	m, err := a.threadSvc.Message(a.threadSvc.Selected())
	if err != nil {
		return
	}
	atts := m.Attachments()
	if len(atts) == 0 {
		a.errorHandler.ShowMessage("No attachments", LogLevelInfo)
		return
	}

	dir, err := os.MkdirTemp("", "nmail-attachments-")
	if err != nil {
		a.errorHandler.HandleError(err, "Cannot create attachment directory")
		return
	}

	saved := 0
	for _, p := range atts {
		data, err := a.client.Part(a.ctx, m.ID, p.ID)
		if err != nil {
			a.logger.Printf("attachment %s: %v", p.Filename, err)
			continue
		}
		name := filepath.Base(p.Filename)
		if name == "" || name == "." {
			name = fmt.Sprintf("part-%d", p.ID)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0600); err != nil {
			a.logger.Printf("attachment %s: %v", name, err)
			continue
		}
		saved++
	}
	if saved == 0 {
		a.errorHandler.ShowMessage("Could not extract any attachment", LogLevelWarning)
		return
	}

	parts := strings.Fields(a.cfg.FileBrowserFor(dir))
	cmd := exec.CommandContext(a.ctx, parts[0], parts[1:]...)
	if err := cmd.Start(); err != nil {
		a.errorHandler.HandleError(err, "Cannot open file browser")
		return
	}
	go cmd.Wait()
	a.errorHandler.ShowMessage(fmt.Sprintf("Saved %d attachment(s) to %s", saved, dir), LogLevelSuccess)
}
