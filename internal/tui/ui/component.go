package ui

// MenuHint describes a keyboard shortcut for display in the menu bar.
type MenuHint struct {
	Key         string
	Description string
}

// Component is the lifecycle interface for all TUI views. Start runs when
// the view becomes the front page and Stop when it leaves.
type Component interface {
	Name() string
	Start()
	Stop()
	Hints() []MenuHint
}
