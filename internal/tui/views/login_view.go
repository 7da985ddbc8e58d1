package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatadmin/internal/tui/ui"
)

const (
	emailLabel    = "Email"
	passwordLabel = "Password"
)

// LoginView is the operator sign-in form.
type LoginView struct {
	*tview.Flex
	theme    *ui.Theme
	form     *tview.Form
	message  *tview.TextView
	onSubmit func(email, password string)
}

// NewLogin creates the sign-in form.
func NewLogin(theme *ui.Theme) *LoginView {
	form := tview.NewForm()
	form.SetBorder(true)
	form.SetBorderColor(theme.BorderColor)
	form.SetBackgroundColor(theme.BgColor)
	form.SetTitle(" Sign in ")
	form.SetTitleColor(theme.TitleColor)
	form.SetLabelColor(theme.MenuKeyColor)
	form.SetFieldBackgroundColor(theme.BgColor)
	form.SetFieldTextColor(theme.FgColor)
	form.SetButtonBackgroundColor(theme.TableCursorBg)
	form.SetButtonTextColor(theme.TableCursorFg)

	message := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	message.SetBackgroundColor(theme.BgColor)

	lv := &LoginView{
		theme:   theme,
		form:    form,
		message: message,
	}
	form.AddInputField(emailLabel, "", 40, nil, nil).
		AddPasswordField(passwordLabel, "", 40, '*', nil).
		AddButton("Sign in", lv.submit)

	// Center a fixed-size form.
	column := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(form, 9, 0, true).
		AddItem(message, 2, 0, false).
		AddItem(nil, 0, 1, false)
	lv.Flex = tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(column, 60, 0, true).
		AddItem(nil, 0, 1, false)
	lv.Flex.SetBackgroundColor(theme.BgColor)
	return lv
}

// Name implements Component.
func (lv *LoginView) Name() string { return "Login" }

// Start implements Component.
func (lv *LoginView) Start() {
	lv.field(passwordLabel).SetText("")
	lv.form.SetFocus(0)
}

// Stop implements Component.
func (lv *LoginView) Stop() {
	lv.field(passwordLabel).SetText("")
	lv.message.Clear()
}

// Hints implements Component.
func (lv *LoginView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Sign in"},
		{Key: "Ctrl-C", Description: "Quit"},
	}
}

// SetOnSubmit sets the callback run with the entered credentials.
func (lv *LoginView) SetOnSubmit(fn func(email, password string)) {
	lv.onSubmit = fn
}

// ShowMessage shows an informational line under the form.
func (lv *LoginView) ShowMessage(msg string) {
	lv.show(lv.theme.FlashInfoColor, msg)
}

// ShowError shows a failed attempt under the form.
func (lv *LoginView) ShowError(msg string) {
	lv.show(lv.theme.FlashErrColor, msg)
}

func (lv *LoginView) show(color tcell.Color, msg string) {
	lv.message.Clear()
	_, _ = fmt.Fprintf(lv.message, "[%s]%s[-]", ui.ColorName(color), tview.Escape(msg))
}

func (lv *LoginView) submit() {
	if lv.onSubmit == nil {
		return
	}
	email := lv.field(emailLabel).GetText()
	password := lv.field(passwordLabel).GetText()
	lv.onSubmit(email, password)
}

func (lv *LoginView) field(label string) *tview.InputField {
	return lv.form.GetFormItemByLabel(label).(*tview.InputField)
}
