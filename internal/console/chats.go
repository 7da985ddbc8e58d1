package console

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/matheus3301/chatadmin/internal/console/edit"
	"github.com/matheus3301/chatadmin/internal/console/listsync"
	"github.com/matheus3301/chatadmin/internal/console/membership"
	"github.com/matheus3301/chatadmin/internal/docstore"
	"github.com/matheus3301/chatadmin/internal/entity"
)

// ChatsScreen is the chats table with create, rename, delete and the
// membership panel.
type ChatsScreen struct {
	store  docstore.Store
	logger *zap.Logger

	chats   *listsync.List[entity.Chat]
	users   *listsync.List[entity.User]
	renames *edit.Tracker[string]
	members *membership.Editor
}

// NewChatsScreen creates the screen.
func NewChatsScreen(store docstore.Store, logger *zap.Logger, mode membership.Mode, exclusive bool) *ChatsScreen {
	return &ChatsScreen{
		store:   store,
		logger:  logger,
		chats:   listsync.New(func(c entity.Chat) string { return c.ID }),
		users:   listsync.New(func(u entity.User) string { return u.ID }),
		renames: edit.NewTracker[string](exclusive),
		members: membership.NewEditor(store, mode),
	}
}

// Activate fetches the chats and the users offered by the member dropdown.
func (s *ChatsScreen) Activate(ctx context.Context) error {
	err := s.chats.Load(ctx, func(ctx context.Context) ([]entity.Chat, error) {
		docs, err := s.store.List(ctx, entity.ChatsCollection, docstore.Query{})
		if err != nil {
			return nil, err
		}
		chats := make([]entity.Chat, 0, len(docs))
		for _, d := range docs {
			chats = append(chats, entity.ChatFromDoc(d))
		}
		return chats, nil
	})
	if err != nil && !errors.Is(err, listsync.ErrStale) {
		return remoteFailure(s.logger, "list", entity.ChatsCollection, "", err)
	}

	err = s.users.Load(ctx, func(ctx context.Context) ([]entity.User, error) {
		docs, err := s.store.List(ctx, entity.UsersCollection, docstore.Query{})
		if err != nil {
			return nil, err
		}
		users := make([]entity.User, 0, len(docs))
		for _, d := range docs {
			users = append(users, entity.UserFromDoc(d))
		}
		return users, nil
	})
	if err != nil && !errors.Is(err, listsync.ErrStale) {
		return remoteFailure(s.logger, "list", entity.UsersCollection, "", err)
	}
	return nil
}

// Deactivate forgets both lists, every rename and the membership panel.
func (s *ChatsScreen) Deactivate() {
	s.chats.Invalidate()
	s.users.Invalidate()
	s.renames.Reset()
	s.members.Close()
}

// Chats returns the loaded chats.
func (s *ChatsScreen) Chats() []entity.Chat {
	return s.chats.Items()
}

// Chat returns one loaded chat.
func (s *ChatsScreen) Chat(id string) (entity.Chat, bool) {
	return s.chats.Get(id)
}

// Users returns the member dropdown candidates.
func (s *ChatsScreen) Users() []entity.User {
	return s.users.Items()
}

// Create adds a group chat with no members.
func (s *ChatsScreen) Create(ctx context.Context, name string) (entity.Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return entity.Chat{}, &ValidationError{Field: "name", Message: "chat name is required"}
	}
	return s.chats.Insert(ctx, func(ctx context.Context) (entity.Chat, error) {
		chat := entity.Chat{Name: name, Type: entity.DefaultChatType, Members: []entity.Member{}}
		id, err := s.store.Insert(ctx, entity.ChatsCollection, chat.Fields())
		if err != nil {
			return entity.Chat{}, remoteFailure(s.logger, "insert", entity.ChatsCollection, "", err)
		}
		chat.ID = id
		return chat, nil
	})
}

// RenameState returns the rename state of a row.
func (s *ChatsScreen) RenameState(id string) edit.State {
	return s.renames.State(id)
}

// StagedName returns the staged name of a row being renamed.
func (s *ChatsScreen) StagedName(id string) (string, bool) {
	return s.renames.Staged(id)
}

// BeginRename starts renaming chat id, staging its current name. Renames
// dropped by this call are returned.
func (s *ChatsScreen) BeginRename(id string) []edit.Abandoned[string] {
	c, ok := s.chats.Get(id)
	if !ok {
		return nil
	}
	return s.renames.Begin(id, c.Name)
}

// StageName changes the staged name of a row being renamed.
func (s *ChatsScreen) StageName(id, name string) bool {
	return s.renames.Stage(id, name)
}

// CancelRename abandons the rename of id.
func (s *ChatsScreen) CancelRename(id string) {
	s.renames.Cancel(id)
}

// SaveRename writes the staged name of id. A blank name is rejected and the
// row stays in edit.
func (s *ChatsScreen) SaveRename(ctx context.Context, id string) error {
	c, ok := s.chats.Get(id)
	if !ok {
		s.renames.Cancel(id)
		return nil
	}
	err := s.renames.Commit(ctx, id, validateName, func(ctx context.Context, name string) error {
		name = strings.TrimSpace(name)
		_, err := s.chats.Replace(ctx, id, func(ctx context.Context) (entity.Chat, error) {
			if err := s.store.Update(ctx, entity.ChatsCollection, id, map[string]any{"name": name}); err != nil {
				return entity.Chat{}, remoteFailure(s.logger, "update", entity.ChatsCollection, id, err)
			}
			c.Name = name
			return c, nil
		})
		return err
	})
	if errors.Is(err, edit.ErrNotEditing) {
		return nil
	}
	return err
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: "chat name is required"}
	}
	return nil
}

// Delete removes chat id. A chat not in the list is ignored.
func (s *ChatsScreen) Delete(ctx context.Context, id string) error {
	if _, ok := s.chats.Get(id); !ok {
		return nil
	}
	err := s.chats.Remove(ctx, id, func(ctx context.Context) error {
		if err := s.store.Delete(ctx, entity.ChatsCollection, id); err != nil {
			return remoteFailure(s.logger, "delete", entity.ChatsCollection, id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.renames.Cancel(id)
	if s.members.Target() == id {
		s.members.Close()
	}
	return nil
}

// OpenMembers opens the membership panel for chat id.
func (s *ChatsScreen) OpenMembers(id string) {
	s.members.SelectTarget(id)
}

// CloseMembers closes the membership panel.
func (s *ChatsScreen) CloseMembers() {
	s.members.Close()
}

// MembersTarget returns the chat whose panel is open, or "".
func (s *ChatsScreen) MembersTarget() string {
	return s.members.Target()
}

// SelectMember picks the dropdown entry by display name.
func (s *ChatsScreen) SelectMember(displayName string) {
	s.members.SelectUser(displayName)
}

// SelectedMember returns the dropdown selection.
func (s *ChatsScreen) SelectedMember() string {
	return s.members.Selected()
}

// MemberMode returns how members are written.
func (s *ChatsScreen) MemberMode() membership.Mode {
	return s.members.Mode()
}

// ConfirmMember adds the selected user to the open chat and reports
// whether anything was written.
func (s *ChatsScreen) ConfirmMember(ctx context.Context) (bool, error) {
	target := s.members.Target()
	added, err := s.members.Confirm(ctx, s.chats, s.users.Items())
	if err != nil {
		return false, remoteFailure(s.logger, "append", entity.ChatsCollection, target, err)
	}
	return added, nil
}
