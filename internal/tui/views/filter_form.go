package views

import (
	"github.com/rivo/tview"

	"github.com/matheus3301/chatadmin/internal/console/filter"
	"github.com/matheus3301/chatadmin/internal/entity"
	"github.com/matheus3301/chatadmin/internal/tui/ui"
)

const (
	filterName   = "Name"
	filterEmail  = "Email"
	filterPhone  = "Phone Number"
	filterStatus = "Status"
)

// FilterForm edits the users filter. The first status option is "any".
type FilterForm struct {
	*tview.Form
	theme    *ui.Theme
	statuses []string
	onApply  func(filter.UserFilter)
	onCancel func()
}

// NewFilterForm creates the filter form.
func NewFilterForm(theme *ui.Theme) *FilterForm {
	form := tview.NewForm()
	form.SetBorder(true)
	form.SetBorderColor(theme.PromptBorderColor)
	form.SetBackgroundColor(theme.BgColor)
	form.SetTitle(" Filter users ")
	form.SetTitleColor(theme.TitleColor)
	form.SetLabelColor(theme.MenuKeyColor)
	form.SetFieldBackgroundColor(theme.BgColor)
	form.SetFieldTextColor(theme.FgColor)
	form.SetButtonBackgroundColor(theme.TableCursorBg)
	form.SetButtonTextColor(theme.TableCursorFg)

	ff := &FilterForm{
		Form:     form,
		theme:    theme,
		statuses: []string{"(any)"},
	}
	for _, st := range entity.Statuses {
		ff.statuses = append(ff.statuses, string(st))
	}

	form.AddInputField(filterName, "", 32, nil, nil).
		AddInputField(filterEmail, "", 32, nil, nil).
		AddInputField(filterPhone, "", 32, nil, nil).
		AddDropDown(filterStatus, ff.statuses, 0, nil).
		AddButton("Apply", ff.apply).
		AddButton("Clear", func() {
			ff.SetFilter(filter.UserFilter{})
			ff.apply()
		}).
		AddButton("Cancel", ff.cancel)
	form.SetCancelFunc(ff.cancel)
	return ff
}

// Name implements Component.
func (ff *FilterForm) Name() string { return "Filter" }

// Start implements Component.
func (ff *FilterForm) Start() { ff.SetFocus(0) }

// Stop implements Component.
func (ff *FilterForm) Stop() {}

// Hints implements Component.
func (ff *FilterForm) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Press button"},
		{Key: "Esc", Description: "Cancel"},
	}
}

// SetOnApply sets the callback run with the entered filter.
func (ff *FilterForm) SetOnApply(fn func(filter.UserFilter)) {
	ff.onApply = fn
}

// SetOnCancel sets the callback run when the form is dismissed.
func (ff *FilterForm) SetOnCancel(fn func()) {
	ff.onCancel = fn
}

// SetFilter fills the form from f.
func (ff *FilterForm) SetFilter(f filter.UserFilter) {
	ff.input(filterName).SetText(f.DisplayName)
	ff.input(filterEmail).SetText(f.Email)
	ff.input(filterPhone).SetText(f.PhoneNumber)
	option := 0
	if st, err := entity.ParseStatus(f.Status); err == nil {
		for i, s := range ff.statuses {
			if s == string(st) {
				option = i
			}
		}
	}
	ff.dropDown().SetCurrentOption(option)
}

// Filter returns the entered filter.
func (ff *FilterForm) Filter() filter.UserFilter {
	f := filter.UserFilter{
		DisplayName: ff.input(filterName).GetText(),
		Email:       ff.input(filterEmail).GetText(),
		PhoneNumber: ff.input(filterPhone).GetText(),
	}
	if i, text := ff.dropDown().GetCurrentOption(); i > 0 {
		f.Status = text
	}
	return f
}

func (ff *FilterForm) apply() {
	if ff.onApply != nil {
		ff.onApply(ff.Filter())
	}
}

func (ff *FilterForm) cancel() {
	if ff.onCancel != nil {
		ff.onCancel()
	}
}

func (ff *FilterForm) input(label string) *tview.InputField {
	return ff.GetFormItemByLabel(label).(*tview.InputField)
}

func (ff *FilterForm) dropDown() *tview.DropDown {
	return ff.GetFormItemByLabel(filterStatus).(*tview.DropDown)
}
