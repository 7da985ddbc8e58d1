package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"
)

// FlashLevel represents the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// flashTTL is how long each level stays on the bar.
var flashTTL = [...]time.Duration{
	FlashInfo: 5 * time.Second,
	FlashWarn: 8 * time.Second,
	FlashErr:  10 * time.Second,
}

func (l FlashLevel) String() string {
	switch l {
	case FlashWarn:
		return "warn"
	case FlashErr:
		return "error"
	}
	return "info"
}

// FlashMessage is a flash notification with a level and expiry.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

// FlashModel holds the current notification. Every change, including the
// message expiring, is sent on Watch; an empty Text means the bar is clear.
type FlashModel struct {
	mu      sync.Mutex
	current FlashMessage
	seq     uint64
	watchCh chan FlashMessage
}

// NewFlashModel creates a new flash model.
func NewFlashModel() *FlashModel {
	return &FlashModel{
		watchCh: make(chan FlashMessage, 8),
	}
}

// Info sets an info-level flash message.
func (f *FlashModel) Info(msg string) { f.Notify(FlashInfo, msg) }

// Warn sets a warn-level flash message.
func (f *FlashModel) Warn(msg string) { f.Notify(FlashWarn, msg) }

// Err sets an error-level flash message.
func (f *FlashModel) Err(err error) { f.Notify(FlashErr, err.Error()) }

// Notify replaces the current message.
func (f *FlashModel) Notify(level FlashLevel, msg string) {
	f.set(level, msg, flashTTL[level])
}

// Clear drops the current message.
func (f *FlashModel) Clear() {
	f.set(FlashInfo, "", 0)
}

func (f *FlashModel) set(level FlashLevel, msg string, ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.current = FlashMessage{Text: msg, Level: level, Expires: time.Now().Add(ttl)}
	f.send(f.current)
	if msg != "" && ttl > 0 {
		seq := f.seq
		time.AfterFunc(ttl, func() { f.expire(seq) })
	}
}

func (f *FlashModel) expire(seq uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seq != seq {
		return
	}
	f.current = FlashMessage{}
	f.send(f.current)
}

// send drops the oldest pending message when the watcher lags. Callers
// hold mu.
func (f *FlashModel) send(m FlashMessage) {
	select {
	case f.watchCh <- m:
		return
	default:
	}
	select {
	case <-f.watchCh:
	default:
	}
	select {
	case f.watchCh <- m:
	default:
	}
}

// GetMessage returns the current flash message, or nil if there is none.
func (f *FlashModel) GetMessage() *FlashMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current.Text == "" || time.Now().After(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// Watch returns a channel that receives flash messages.
func (f *FlashModel) Watch() <-chan FlashMessage {
	return f.watchCh
}

// FlashBar is the UI component that displays flash notifications.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates a new flash notification bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &FlashBar{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders msg, or clears the bar for nil or an empty message.
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.Clear()
	if msg == nil || msg.Text == "" {
		return
	}

	color := fb.theme.FlashInfoColor
	prefix := ""
	switch msg.Level {
	case FlashWarn:
		color, prefix = fb.theme.FlashWarnColor, "! "
	case FlashErr:
		color, prefix = fb.theme.FlashErrColor, "✗ "
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s%s[-]", colorName(color), prefix, tview.Escape(msg.Text))
}
