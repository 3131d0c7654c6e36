package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/rbarranco/nmail/internal/notmuch"
	"github.com/rbarranco/nmail/internal/render"
)

// initSearchView builds the query input and the four-column results table.
func (a *App) initSearchView() {
	input := tview.NewInputField().
		SetLabel(" 🔍 ").
		SetFieldBackgroundColor(a.theme.Body.BgColor.Color()).
		SetFieldTextColor(a.theme.Body.FgColor.Color())
	input.SetText("tag:inbox")

	table := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	table.SetBackgroundColor(a.theme.Table.BgColor.Color())
	table.SetBorder(true).SetTitle(" Threads ")
	table.SetBorderColor(a.theme.Frame.Border.FgColor.Color())

	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			query := input.GetText()
			go a.runSearch(query)
			a.SetFocus(table)
		case tcell.KeyEscape:
			a.SetFocus(table)
		}
	})

	table.SetSelectedFunc(func(row, _ int) {
		a.openThreadAt(row - 1)
	})
	table.SetSelectionChangedFunc(func(row, _ int) {
		if row >= 1 {
			a.searchSvc.Select(row - 1)
		}
	})
	table.SetInputCapture(a.searchKeyHandler(input))

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, false).
		AddItem(table, 0, 1, true)

	a.views["searchInput"] = input
	a.views["searchTable"] = table
	a.Pages.AddPage(pageSearch, flex, true, false)
}

func (a *App) searchKeyHandler(input *tview.InputField) func(*tcell.EventKey) *tcell.EventKey {
	return func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() != tcell.KeyRune {
			return ev
		}
		switch string(ev.Rune()) {
		case a.keys.Search:
			a.SetFocus(input)
			return nil
		case a.keys.Refresh:
			go a.refreshSearch()
			return nil
		case a.keys.Compose:
			a.startCompose()
			return nil
		case a.keys.Archive:
			go a.tagSelectedThread("-inbox")
			return nil
		case a.keys.Delete:
			go a.tagSelectedThread("+deleted")
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

// resolveQuery expands the saved-search shorthand: "@name" runs the saved
// query of that name, "@name=query" saves it first.
func (a *App) resolveQuery(query string) (string, error) {
	if !strings.HasPrefix(query, "@") || a.store == nil {
		return query, nil
	}
	rest := strings.TrimPrefix(query, "@")
	if name, saved, ok := strings.Cut(rest, "="); ok {
		name, saved = strings.TrimSpace(name), strings.TrimSpace(saved)
		if err := a.store.SaveQuery(a.ctx, name, saved); err != nil {
			return "", err
		}
		a.errorHandler.ShowMessage(fmt.Sprintf("Saved search %q", name), LogLevelSuccess)
		return saved, nil
	}
	sq, err := a.store.GetQueryByName(a.ctx, strings.TrimSpace(rest))
	if err != nil {
		return "", err
	}
	return sq.Query, nil
}

// runSearch executes a query off the UI goroutine and repopulates the table.
func (a *App) runSearch(query string) {
	query, err := a.resolveQuery(query)
	if err != nil {
		a.errorHandler.HandleError(err, "Saved search failed")
		return
	}
	if err := a.searchSvc.Search(a.ctx, query); err != nil {
		a.errorHandler.HandleError(err, "Search failed")
		return
	}
	if a.store != nil && a.cfg.History.Enabled {
		if err := a.store.RecordSearch(a.ctx, query); err != nil {
			a.logger.Printf("history: %v", err)
		}
	}
	a.QueueUpdateDraw(func() {
		a.reloadSearchTable()
	})
	a.errorHandler.ShowPersistent(fmt.Sprintf("nmail | %d threads | %s help",
		a.searchSvc.Count(), a.keys.Help))
}

func (a *App) refreshSearch() {
	if err := a.client.Index(a.ctx); err != nil {
		a.errorHandler.HandleError(err, "Indexing failed")
	}
	if err := a.searchSvc.Refresh(a.ctx); err != nil {
		a.errorHandler.HandleError(err, "Refresh failed")
		return
	}
	a.QueueUpdateDraw(func() {
		a.reloadSearchTable()
	})
}

// reloadSearchTable redraws the results table from the current snapshot.
// Must run on the UI goroutine.
func (a *App) reloadSearchTable() {
	table, ok := a.views["searchTable"].(*tview.Table)
	if !ok {
		return
	}
	table.Clear()

	for col, title := range []string{"Date", "From", "Subject", "Tags"} {
		cell := tview.NewTableCell(title).
			SetTextColor(a.theme.Table.HeaderFgColor.Color()).
			SetBackgroundColor(a.theme.Table.HeaderBgColor.Color()).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false)
		if col == 2 {
			cell.SetExpansion(1)
		}
		table.SetCell(0, col, cell)
	}

	unread := a.theme.Mail.UnreadColor.Color()
	read := a.theme.Mail.ReadColor.Color()
	for i := 0; i < a.searchSvc.Count(); i++ {
		c, err := a.searchSvc.CellAt(i)
		if err != nil {
			continue
		}
		color := read
		if c.Unread {
			color = unread
		}
		table.SetCell(i+1, 0, tview.NewTableCell(render.FitWidth(c.Date, 12)).SetTextColor(color))
		table.SetCell(i+1, 1, tview.NewTableCell(render.FitWidth(c.From, 25)).SetTextColor(color))
		table.SetCell(i+1, 2, tview.NewTableCell(c.Subject).SetTextColor(color).SetExpansion(1))
		table.SetCell(i+1, 3, tview.NewTableCell(c.Tags).SetTextColor(a.theme.Mail.TagColor.Color()))
	}

	if sel := a.searchSvc.Selected(); sel >= 0 {
		table.Select(sel+1, 0)
	}
}

// openThreadAt loads the thread behind a table row and switches pages.
func (a *App) openThreadAt(index int) {
	row, err := a.searchSvc.Row(index)
	if err != nil {
		return
	}
	threadID := row.ThreadID
	go func() {
		if err := a.threadSvc.Load(a.ctx, threadID); err != nil {
			if errors.Is(err, notmuch.ErrMalformedThread) {
				a.errorHandler.ShowMessage("Thread data is malformed, not displaying it", LogLevelWarning)
			} else {
				a.errorHandler.HandleError(err, "Cannot open thread")
			}
			return
		}
		a.QueueUpdateDraw(func() {
			a.reloadThreadList()
			a.Pages.SwitchToPage(pageThread)
			a.showSelectedMessage()
		})
	}()
}

// tagSelectedThread applies a tag expression to the selected thread.
func (a *App) tagSelectedThread(exprs ...string) {
	row, err := a.searchSvc.Row(a.searchSvc.Selected())
	if err != nil {
		return
	}
	if err := a.tagSvc.Apply(a.ctx, notmuch.ScopeThread, row.ThreadID, exprs...); err != nil {
		a.errorHandler.HandleError(err, "Tagging failed")
	}
}
