package tui

import (
	"strings"

	"github.com/matheus3301/chatadmin/internal/console"
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), ":"))
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// Action is what a command asks the app to do.
type Action int

const (
	ActionUnknown Action = iota
	ActionNavigate
	ActionLogout
	ActionHelp
	ActionQuit
)

// Resolve maps a command to an action. Navigation commands also return the
// requested path, which the router still resolves against the auth state.
func (c Command) Resolve() (Action, string) {
	switch c.Name {
	case "users", "u":
		return ActionNavigate, console.RouteUsers
	case "chats", "chat", "c":
		return ActionNavigate, console.RouteChats
	case "dashboard", "dash", "d":
		return ActionNavigate, console.RouteDashboard
	case "login":
		return ActionNavigate, console.RouteLogin
	case "logout":
		return ActionLogout, ""
	case "help", "h":
		return ActionHelp, ""
	case "quit", "q":
		return ActionQuit, ""
	}
	return ActionUnknown, ""
}
