package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/matheus3301/chatadmin/internal/entity"
	"github.com/matheus3301/chatadmin/internal/tui/ui"
)

// ContactCard shows a user's details with a vCard QR code that a phone
// can scan to save the contact.
type ContactCard struct {
	*tview.TextView
	theme *ui.Theme
}

// NewContactCard creates the contact card view.
func NewContactCard(theme *ui.Theme) *ContactCard {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitleColor(theme.TitleColor)

	return &ContactCard{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements Component.
func (cc *ContactCard) Name() string { return "Contact" }

// Start implements Component.
func (cc *ContactCard) Start() { cc.ScrollToBeginning() }

// Stop implements Component.
func (cc *ContactCard) Stop() {}

// Hints implements Component.
func (cc *ContactCard) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

// Show renders u.
func (cc *ContactCard) Show(u entity.User) {
	cc.Clear()
	cc.SetTitle(" " + tview.Escape(sanitizeForTerminal(u.DisplayName)) + " ")
	_, _ = fmt.Fprintf(cc, "\n%s\n%s\n%s  [::b]%s[-:-:-]\n\n%s",
		cellText(u.Email),
		cellText(u.PhoneNumber),
		cellText("Status:"), u.EffectiveStatus(),
		renderQR(vCard(u)),
	)
}

// vCard encodes u as a vCard 3.0 contact.
func vCard(u entity.User) string {
	var sb strings.Builder
	line := func(k, v string) {
		if v == "" {
			return
		}
		sb.WriteString(k)
		sb.WriteByte(':')
		sb.WriteString(vCardEscape(v))
		sb.WriteString("\r\n")
	}
	sb.WriteString("BEGIN:VCARD\r\nVERSION:3.0\r\n")
	line("FN", u.DisplayName)
	line("EMAIL", u.Email)
	line("TEL", u.PhoneNumber)
	line("NOTE", "Status: "+string(u.EffectiveStatus()))
	sb.WriteString("END:VCARD\r\n")
	return sb.String()
}

var vCardReplacer = strings.NewReplacer(`\`, `\\`, ",", `\,`, ";", `\;`, "\n", `\n`, "\r", "")

func vCardEscape(s string) string {
	return vCardReplacer.Replace(s)
}

// renderQR converts a string to a compact ASCII QR code using Unicode
// half-block characters.
func renderQR(content string) string {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "  (QR generation failed: " + tview.Escape(err.Error()) + ")"
	}

	bitmap := qr.Bitmap()
	rows := len(bitmap)
	cols := 0
	if rows > 0 {
		cols = len(bitmap[0])
	}

	var sb strings.Builder
	for y := 0; y < rows; y += 2 {
		for x := 0; x < cols; x++ {
			top := bitmap[y][x]
			bot := false
			if y+1 < rows {
				bot = bitmap[y+1][x]
			}
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top && !bot:
				sb.WriteRune('▀')
			case !top && bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
