package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// Crumbs is the bar under the pages: the profile, then one crumb per page
// on the stack.
type Crumbs struct {
	*tview.TextView
	theme   *Theme
	profile string
	trail   []string
}

// NewCrumbs creates a breadcrumb bar rooted at profile.
func NewCrumbs(theme *Theme, profile string) *Crumbs {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &Crumbs{
		TextView: tv,
		theme:    theme,
		profile:  profile,
	}
}

// Update renders the trail for stack. Adjacent repeats collapse into one
// crumb and an empty stack clears the bar.
func (c *Crumbs) Update(stack []string) {
	c.trail = c.trail[:0]
	if len(stack) > 0 {
		c.trail = append(c.trail, c.profile)
	}
	for _, name := range stack {
		if n := len(c.trail); n > 1 && c.trail[n-1] == name {
			continue
		}
		c.trail = append(c.trail, name)
	}
	c.render()
}

// Trail returns the crumbs currently shown.
func (c *Crumbs) Trail() []string {
	return append([]string(nil), c.trail...)
}

func (c *Crumbs) render() {
	c.Clear()
	active := fmt.Sprintf("[%s:%s:b]", colorName(c.theme.CrumbActiveFg), colorName(c.theme.CrumbActiveBg))
	inactive := fmt.Sprintf("[%s:%s:]", colorName(c.theme.CrumbInactiveFg), colorName(c.theme.CrumbInactiveBg))

	var b strings.Builder
	for i, name := range c.trail {
		if i > 0 {
			b.WriteString(" > ")
		}
		style := inactive
		if i == len(c.trail)-1 {
			style = active
		}
		fmt.Fprintf(&b, "%s %s [-:-:-]", style, tview.Escape(name))
	}
	_, _ = fmt.Fprint(c, b.String())
}
