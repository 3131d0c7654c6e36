package tui

import (
	"fmt"
	"strings"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// initHelpView builds the key binding overview page.
func (a *App) initHelpView() {
	text := tview.NewTextView().SetDynamicColors(true)
	text.SetBackgroundColor(a.theme.Body.BgColor.Color())
	text.SetBorder(true).SetTitle(" Help ")
	text.SetBorderColor(a.theme.Frame.Border.FgColor.Color())
	text.SetText(a.helpText())
	text.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		a.Pages.SwitchToPage(pageSearch)
		return nil
	})

	a.views["help"] = text
	a.Pages.AddPage(pageHelp, text, true, false)
}

func (a *App) showHelp() {
	a.Pages.SwitchToPage(pageHelp)
}

func (a *App) helpText() string {
	k := a.keys
	sections := []struct {
		title string
		rows  [][2]string
	}{
		{"Search", [][2]string{
			{k.Search, "focus the query input"},
			{"Enter", "open the selected thread"},
			{k.Refresh, "index new mail and refresh"},
			{"@name", "run a saved search (@name=query saves one)"},
			{k.Archive, "archive thread"},
			{k.Delete, "delete thread"},
		}},
		{"Thread", [][2]string{
			{k.NextMessage + "/" + k.PrevMessage, "next / previous message"},
			{k.ToggleHTML, "toggle html rendering"},
			{k.ToggleRead, "toggle read state"},
			{k.Reply + "/" + k.ReplyAll, "reply / reply all"},
			{k.Forward, "forward"},
			{k.Attachments, "extract attachments"},
			{"Esc", "back to search"},
		}},
		{"Compose", [][2]string{
			{k.Compose, "new message (from search)"},
			{k.Edit, "edit draft in external editor"},
			{k.Send, "send draft"},
		}},
		{"General", [][2]string{
			{k.Help, "this help"},
			{k.Quit, "quit"},
		}},
	}

	var b strings.Builder
	for _, s := range sections {
		fmt.Fprintf(&b, "\n[%s::b]%s[-:-:-]\n", a.theme.Mail.HeaderColor, s.title)
		for _, row := range s.rows {
			fmt.Fprintf(&b, "  [%s]%-6s[-] %s\n", a.theme.Mail.TagColor, row[0], row[1])
		}
	}
	return b.String()
}
