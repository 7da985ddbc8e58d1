package views

import (
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatadmin/internal/entity"
	"github.com/matheus3301/chatadmin/internal/tui/ui"
)

// ChatsView is the chats table.
type ChatsView struct {
	*tview.Table
	theme *ui.Theme
	chats []entity.Chat
}

// NewChats creates the chats table.
func NewChats(theme *ui.Theme) *ChatsView {
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
	table.SetTitle(" Chats ")
	table.SetTitleColor(theme.TitleColor)

	return &ChatsView{
		Table: table,
		theme: theme,
	}
}

// Name implements Component.
func (cv *ChatsView) Name() string { return "Chats" }

// Start implements Component.
func (cv *ChatsView) Start() {
	cv.Update(nil, nil)
	cv.SetTitle(" Chats (loading) ")
}

// Stop implements Component.
func (cv *ChatsView) Stop() {}

// Hints implements Component.
func (cv *ChatsView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "a", Description: "Add chat"},
		{Key: "e", Description: "Rename"},
		{Key: "Enter", Description: "Save name"},
		{Key: "Esc", Description: "Cancel rename"},
		{Key: "d", Description: "Delete"},
		{Key: "m", Description: "Members"},
	}
}

// Update renders chats. staged holds unsaved names by chat id.
func (cv *ChatsView) Update(chats []entity.Chat, staged map[string]string) {
	selected, _ := cv.SelectedChat()
	cv.chats = chats
	cv.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" NO", 0},
		{" NAME", 3},
		{" TYPE", 1},
		{" MEMBERS", 0},
	}
	for col, h := range headers {
		cell := tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cv.theme.TableHeaderFg).
			SetBackgroundColor(cv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp)
		cv.SetCell(0, col, cell)
	}

	cursor := 1
	for i, chat := range chats {
		r := i + 1
		fg := cv.theme.FgColor
		name := chat.Name
		if s, ok := staged[chat.ID]; ok {
			fg = cv.theme.EditColor
			name = s + "_"
		}
		cv.SetCell(r, 0, tview.NewTableCell(" "+strconv.Itoa(r)).SetTextColor(fg).SetAlign(tview.AlignRight))
		cv.SetCell(r, 1, tview.NewTableCell(cellText(name)).SetExpansion(3).SetTextColor(fg))
		cv.SetCell(r, 2, tview.NewTableCell(cellText(chat.Type)).SetExpansion(1).SetTextColor(fg))
		cv.SetCell(r, 3, tview.NewTableCell(strconv.Itoa(len(chat.Members))+" ").SetTextColor(fg).SetAlign(tview.AlignRight))
		if chat.ID == selected.ID {
			cursor = r
		}
	}
	if len(chats) > 0 {
		cv.Select(cursor, 0)
	}
	cv.SetTitle(fmt.Sprintf(" Chats (%d) ", len(chats)))
}

// SelectedChat returns the chat under the cursor.
func (cv *ChatsView) SelectedChat() (entity.Chat, bool) {
	row, _ := cv.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(cv.chats) {
		return entity.Chat{}, false
	}
	return cv.chats[idx], true
}
