package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatadmin/internal/console/membership"
	"github.com/matheus3301/chatadmin/internal/entity"
	"github.com/matheus3301/chatadmin/internal/tui/ui"
)

const memberLabel = "User"

// MemberPanel lists a chat's members and picks a user to add.
type MemberPanel struct {
	*tview.Flex
	theme     *ui.Theme
	members   *tview.TextView
	form      *tview.Form
	users     *tview.DropDown
	names     []string
	updating  bool
	onSelect  func(displayName string)
	onConfirm func()
	onClose   func()
}

// NewMemberPanel creates the membership panel.
func NewMemberPanel(theme *ui.Theme) *MemberPanel {
	members := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	members.SetBorder(true)
	members.SetBorderColor(theme.BorderColor)
	members.SetBackgroundColor(theme.BgColor)
	members.SetTextColor(theme.FgColor)
	members.SetTitleColor(theme.TitleColor)

	form := tview.NewForm()
	form.SetBorder(true)
	form.SetBorderColor(theme.PromptBorderColor)
	form.SetBackgroundColor(theme.BgColor)
	form.SetTitle(" Add member ")
	form.SetTitleColor(theme.TitleColor)
	form.SetLabelColor(theme.MenuKeyColor)
	form.SetFieldBackgroundColor(theme.BgColor)
	form.SetFieldTextColor(theme.FgColor)
	form.SetButtonBackgroundColor(theme.TableCursorBg)
	form.SetButtonTextColor(theme.TableCursorFg)

	mp := &MemberPanel{
		theme:   theme,
		members: members,
		form:    form,
	}
	form.AddDropDown(memberLabel, nil, -1, mp.selected).
		AddButton("Add", func() {
			if mp.onConfirm != nil {
				mp.onConfirm()
			}
		}).
		AddButton("Close", mp.close)
	form.SetCancelFunc(mp.close)
	mp.users = form.GetFormItemByLabel(memberLabel).(*tview.DropDown)

	mp.Flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(members, 0, 1, false).
		AddItem(form, 7, 0, true)
	return mp
}

// Name implements Component.
func (mp *MemberPanel) Name() string { return "Members" }

// Start implements Component.
func (mp *MemberPanel) Start() { mp.form.SetFocus(0) }

// Stop implements Component.
func (mp *MemberPanel) Stop() {}

// Hints implements Component.
func (mp *MemberPanel) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Pick user"},
		{Key: "Tab", Description: "Next"},
		{Key: "Esc", Description: "Close"},
	}
}

// SetOnSelect sets the callback run when a user is picked.
func (mp *MemberPanel) SetOnSelect(fn func(displayName string)) {
	mp.onSelect = fn
}

// SetOnConfirm sets the callback run by the Add button.
func (mp *MemberPanel) SetOnConfirm(fn func()) {
	mp.onConfirm = fn
}

// SetOnClose sets the callback run when the panel is dismissed.
func (mp *MemberPanel) SetOnClose(fn func()) {
	mp.onClose = fn
}

// Update renders chat's members and the candidate users. selected is the
// picked display name, or empty.
func (mp *MemberPanel) Update(chat entity.Chat, users []entity.User, selected string, mode membership.Mode) {
	mp.members.Clear()
	mp.members.SetTitle(fmt.Sprintf(" %s (%d members, %s) ", tview.Escape(chat.Name), len(chat.Members), mode))
	if len(chat.Members) == 0 {
		_, _ = fmt.Fprint(mp.members, " [::d]No members[-:-:-]")
	}
	leader := ui.ColorName(mp.theme.LeaderColor)
	for _, m := range chat.Members {
		line := fmt.Sprintf("%s  %s  %s", m.DisplayName, m.Email, m.PhoneNumber)
		if m.Status == entity.StatusTL {
			_, _ = fmt.Fprintf(mp.members, "[%s]%s [TL[][-]\n", leader, cellText(line))
			continue
		}
		_, _ = fmt.Fprintln(mp.members, cellText(line))
	}

	mp.updating = true
	defer func() { mp.updating = false }()
	mp.names = mp.names[:0]
	options := make([]string, 0, len(users))
	current := -1
	for _, u := range users {
		if u.DisplayName == selected && current < 0 {
			current = len(mp.names)
		}
		mp.names = append(mp.names, u.DisplayName)
		options = append(options, tview.Escape(sanitizeForTerminal(u.DisplayName)))
	}
	mp.users.SetOptions(options, mp.selected)
	mp.users.SetCurrentOption(current)
}

func (mp *MemberPanel) selected(_ string, index int) {
	if mp.updating || index < 0 || index >= len(mp.names) || mp.onSelect == nil {
		return
	}
	mp.onSelect(mp.names[index])
}

func (mp *MemberPanel) close() {
	if mp.onClose != nil {
		mp.onClose()
	}
}
