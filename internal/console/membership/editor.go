// Package membership adds users to a chat's member list.
package membership

import (
	"context"
	"fmt"
	"sync"

	"github.com/matheus3301/chatadmin/internal/config"
	"github.com/matheus3301/chatadmin/internal/console/listsync"
	"github.com/matheus3301/chatadmin/internal/docstore"
	"github.com/matheus3301/chatadmin/internal/entity"
)

const membersField = "members"

// Mode selects how a member is written.
type Mode string

const (
	// Append adds the member in one atomic store step.
	Append Mode = config.MemberWriteAppend
	// Overwrite writes the locally known array plus the new member, which
	// loses concurrent additions from other sessions.
	Overwrite Mode = config.MemberWriteOverwrite
)

// ParseMode maps a config value to a Mode. Empty means Append.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", Append:
		return Append, nil
	case Overwrite:
		return Overwrite, nil
	}
	return "", fmt.Errorf("unknown member write mode %q", s)
}

// Editor is the membership panel. One chat at a time is the target.
type Editor struct {
	store docstore.Store
	mode  Mode

	mu       sync.Mutex
	target   string
	selected string
}

// NewEditor creates an editor writing through store.
func NewEditor(store docstore.Store, mode Mode) *Editor {
	if mode == "" {
		mode = Append
	}
	return &Editor{store: store, mode: mode}
}

// Mode returns the write mode.
func (e *Editor) Mode() Mode { return e.mode }

// SelectTarget opens the panel for chatID, closing any other chat's panel.
// The user selection is cleared when the target changes.
func (e *Editor) SelectTarget(chatID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.target != chatID {
		e.selected = ""
	}
	e.target = chatID
}

// Target returns the chat whose panel is open, or "".
func (e *Editor) Target() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target
}

// Close closes the panel.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.target = ""
	e.selected = ""
}

// SelectUser picks the candidate by display name. "" clears the choice.
func (e *Editor) SelectUser(displayName string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = displayName
}

// Selected returns the chosen display name.
func (e *Editor) Selected() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// Confirm adds the selected user to the target chat. The user is the first
// one in users whose display name matches. Nothing happens when no user is
// selected, or when the chat or user is not in the local lists. On success
// the selection is cleared and the panel stays open.
func (e *Editor) Confirm(ctx context.Context, chats *listsync.List[entity.Chat], users []entity.User) (bool, error) {
	e.mu.Lock()
	target, selected := e.target, e.selected
	e.mu.Unlock()
	if target == "" || selected == "" {
		return false, nil
	}

	chat, ok := chats.Get(target)
	if !ok {
		return false, nil
	}
	user, ok := findByName(users, selected)
	if !ok {
		return false, nil
	}
	member := entity.Snapshot(user)

	_, err := chats.Replace(ctx, chat.ID, func(ctx context.Context) (entity.Chat, error) {
		return e.write(ctx, chat, member)
	})
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	if e.target == target && e.selected == selected {
		e.selected = ""
	}
	e.mu.Unlock()
	return true, nil
}

func (e *Editor) write(ctx context.Context, chat entity.Chat, member entity.Member) (entity.Chat, error) {
	switch e.mode {
	case Overwrite:
		members := append(append([]entity.Member(nil), chat.Members...), member)
		err := e.store.Update(ctx, entity.ChatsCollection, chat.ID, map[string]any{
			membersField: entity.MemberValues(members),
		})
		if err != nil {
			return entity.Chat{}, err
		}
		chat.Members = members
	default:
		values, err := e.store.Append(ctx, entity.ChatsCollection, chat.ID, membersField, member.Value())
		if err != nil {
			return entity.Chat{}, err
		}
		// The store's array includes members other sessions added.
		chat.Members = entity.MembersFromValues(values)
	}
	return chat, nil
}

func findByName(users []entity.User, name string) (entity.User, bool) {
	for _, u := range users {
		if u.DisplayName == name {
			return u, true
		}
	}
	return entity.User{}, false
}
