package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatadmin/internal/console"
	"github.com/matheus3301/chatadmin/internal/console/filter"
	"github.com/matheus3301/chatadmin/internal/entity"
	"github.com/matheus3301/chatadmin/internal/tui/ui"
)

// UsersPage is one page of the users table.
type UsersPage struct {
	Rows []console.UserRow
	// Staged holds the unsaved status of rows being edited.
	Staged map[string]entity.Status
	Page   int
	Pages  int
	Shown  int
	Total  int
	Filter filter.UserFilter
}

// UsersView is the users table.
type UsersView struct {
	*tview.Table
	theme *ui.Theme
	rows  []console.UserRow
}

// NewUsers creates the users table.
func NewUsers(theme *ui.Theme) *UsersView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Users ")
	table.SetTitleColor(theme.TitleColor)

	return &UsersView{
		Table: table,
		theme: theme,
	}
}

// Name implements Component.
func (uv *UsersView) Name() string { return "Users" }

// Start implements Component.
func (uv *UsersView) Start() {
	uv.Update(UsersPage{})
	uv.SetTitle(" Users (loading) ")
}

// Stop implements Component.
func (uv *UsersView) Stop() {}

// Hints implements Component.
func (uv *UsersView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "/", Description: "Filter"},
		{Key: "r", Description: "Reset filter"},
		{Key: "e", Description: "Edit status"},
		{Key: "t", Description: "Toggle status"},
		{Key: "Enter", Description: "Save"},
		{Key: "Esc", Description: "Cancel edit"},
		{Key: "n/p", Description: "Next/prev page"},
		{Key: "x", Description: "Export xlsx"},
		{Key: "c", Description: "Contact card"},
	}
}

// Update renders page, keeping the cursor on the same user when it is
// still shown.
func (uv *UsersView) Update(page UsersPage) {
	selected, _ := uv.SelectedUser()
	uv.rows = page.Rows
	uv.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" NO", 0},
		{" NAME", 2},
		{" EMAIL", 2},
		{" PHONE NUMBER", 1},
		{" STATUS", 0},
	}
	for col, h := range headers {
		cell := tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(uv.theme.TableHeaderFg).
			SetBackgroundColor(uv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp)
		uv.SetCell(0, col, cell)
	}

	cursor := 1
	for i, row := range page.Rows {
		r := i + 1
		u := row.User
		fg := uv.theme.FgColor
		status := string(u.EffectiveStatus())
		if staged, ok := page.Staged[u.ID]; ok {
			fg = uv.theme.EditColor
			status = "* " + string(staged)
		} else if u.EffectiveStatus() == entity.StatusTL {
			fg = uv.theme.LeaderColor
		}
		uv.SetCell(r, 0, tview.NewTableCell(" "+strconv.Itoa(row.No)).SetTextColor(fg).SetAlign(tview.AlignRight))
		uv.SetCell(r, 1, tview.NewTableCell(cellText(u.DisplayName)).SetExpansion(2).SetTextColor(fg))
		uv.SetCell(r, 2, tview.NewTableCell(cellText(u.Email)).SetExpansion(2).SetTextColor(fg))
		uv.SetCell(r, 3, tview.NewTableCell(cellText(u.PhoneNumber)).SetExpansion(1).SetTextColor(fg))
		uv.SetCell(r, 4, tview.NewTableCell(cellText(status)).SetTextColor(fg))
		if u.ID == selected.ID {
			cursor = r
		}
	}
	if len(page.Rows) > 0 {
		uv.Select(cursor, 0)
	}

	pages := page.Pages
	if pages < 1 {
		pages = 1
	}
	title := fmt.Sprintf(" Users (%d) page %d/%d ", page.Total, page.Page+1, pages)
	if !page.Filter.IsZero() {
		title = fmt.Sprintf(" Users (%d/%d) page %d/%d filter: %s ",
			page.Shown, page.Total, page.Page+1, pages, tview.Escape(describeFilter(page.Filter)))
	}
	uv.SetTitle(title)
}

// SelectedUser returns the user under the cursor.
func (uv *UsersView) SelectedUser() (entity.User, bool) {
	row, _ := uv.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(uv.rows) {
		return entity.User{}, false
	}
	return uv.rows[idx].User, true
}

func describeFilter(f filter.UserFilter) string {
	var parts []string
	for _, p := range []struct{ name, value string }{
		{"name", f.DisplayName},
		{"email", f.Email},
		{"phone", f.PhoneNumber},
		{"status", f.Status},
	} {
		if v := strings.TrimSpace(p.value); v != "" {
			parts = append(parts, p.name+"="+v)
		}
	}
	return strings.Join(parts, " ")
}
