package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatadmin/internal/console"
	"github.com/matheus3301/chatadmin/internal/tui/ui"
)

// DashboardView shows collection totals.
type DashboardView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewDashboard creates the dashboard view.
func NewDashboard(theme *ui.Theme) *DashboardView {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Dashboard ")
	tv.SetTitleColor(theme.TitleColor)
	tv.SetBorderPadding(1, 1, 2, 2)

	return &DashboardView{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements Component.
func (dv *DashboardView) Name() string { return "Dashboard" }

// Start implements Component.
func (dv *DashboardView) Start() {
	dv.Clear()
	_, _ = fmt.Fprint(dv, "[::d]Loading...[-:-:-]")
}

// Stop implements Component.
func (dv *DashboardView) Stop() {}

// Hints implements Component.
func (dv *DashboardView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "u", Description: "Users"},
		{Key: "c", Description: "Chats"},
		{Key: "R", Description: "Refresh"},
	}
}

// Update renders stats. ok is false while nothing is loaded.
func (dv *DashboardView) Update(stats console.Stats, ok bool) {
	dv.Clear()
	if !ok {
		_, _ = fmt.Fprint(dv, "[::d]No data[-:-:-]")
		return
	}

	label := ui.ColorName(dv.theme.FgColor)
	value := ui.ColorName(dv.theme.CounterColor)
	leader := ui.ColorName(dv.theme.LeaderColor)
	users := stats.Users - stats.TourLeaders

	_, _ = fmt.Fprintf(dv,
		"[%s::b]Users[-:-:-]          [%s]%d[-]\n"+
			"  [%s]regular[-]      [%s]%d[-]\n"+
			"  [%s]tour leaders[-] [%s]%d[-]\n\n"+
			"[%s::b]Chats[-:-:-]          [%s]%d[-]\n"+
			"  [%s]memberships[-]  [%s]%d[-]\n",
		label, value, stats.Users,
		label, value, users,
		label, leader, stats.TourLeaders,
		label, value, stats.Chats,
		label, value, stats.Memberships,
	)
}
