package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatadmin/internal/tui/ui"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// Start implements Component.
func (hv *HelpView) Start() { hv.ScrollToBeginning() }

// Stop implements Component.
func (hv *HelpView) Stop() {}

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

var helpSections = []struct {
	title string
	keys  [][2]string
}{
	{"Global", [][2]string{
		{":", "Command mode"},
		{"?", "Help"},
		{"Esc", "Close overlay / cancel"},
		{"Ctrl-C", "Quit immediately"},
	}},
	{"Users", [][2]string{
		{"/", "Filter by name, email, phone or status"},
		{"r", "Reset filter"},
		{"e", "Edit status of the selected user"},
		{"t / Space", "Toggle staged status"},
		{"Enter", "Save staged status"},
		{"Esc", "Cancel edit"},
		{"n / p", "Next / previous page"},
		{"x", "Export shown users to xlsx"},
		{"c", "Contact card with QR code"},
	}},
	{"Chats", [][2]string{
		{"a", "Add chat"},
		{"e", "Rename selected chat"},
		{"Enter", "Save name"},
		{"Esc", "Cancel rename"},
		{"d", "Delete selected chat"},
		{"m", "Members panel"},
	}},
	{"Commands", [][2]string{
		{":dashboard / :d", "Dashboard"},
		{":users / :u", "Users"},
		{":chats / :c", "Chats"},
		{":logout", "Sign out"},
		{":help / :h", "Show this help"},
		{":quit / :q", "Quit"},
	}},
}

func (hv *HelpView) render() {
	kc := ui.ColorName(hv.theme.MenuKeyColor)

	var sb strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&sb, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, k := range s.keys {
			fmt.Fprintf(&sb, "  [%s]%-18s[-:-:-] %s\n", kc, tview.Escape(k[0]), k[1])
		}
	}
	_, _ = fmt.Fprint(hv, sb.String())
}
