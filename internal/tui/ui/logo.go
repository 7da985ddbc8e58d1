package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Logo is the header badge: the product mark over the active profile.
type Logo struct {
	*tview.TextView
	theme   *Theme
	profile string
}

// NewLogo creates the header badge for profile.
func NewLogo(theme *Theme, profile string) *Logo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(1, 0, 1, 0)

	l := &Logo{
		TextView: tv,
		theme:    theme,
		profile:  profile,
	}
	l.render()
	return l
}

func (l *Logo) render() {
	mark := colorName(l.theme.TitleColor)
	_, _ = fmt.Fprintf(l, "[%[1]s::b] ╔═╗╦ ╦╔═╗╔╦╗[-:-:-]\n"+
		"[%[1]s::b] ║  ╠═╣╠═╣ ║ [-:-:-]\n"+
		"[%[1]s::b] ╚═╝╩ ╩╩ ╩ ╩ [-:-:-]\n", mark)
	_, _ = fmt.Fprintf(l, "[%s]admin@%s[-:-:-]", colorName(l.theme.FgColor), tview.Escape(l.profile))
}
