package console

import (
	"context"
	"errors"
	"testing"

	"github.com/matheus3301/chatadmin/internal/console/edit"
	"github.com/matheus3301/chatadmin/internal/console/membership"
	"github.com/matheus3301/chatadmin/internal/docstore"
	"github.com/matheus3301/chatadmin/internal/entity"
)

func newChatsScreen(t *testing.T, store docstore.Store) *ChatsScreen {
	t.Helper()
	s := NewChatsScreen(store, nopLogger(), membership.Append, true)
	if err := s.Activate(context.Background()); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	return s
}

func TestChatsScreenCreateRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	s := newChatsScreen(t, store)

	chat, err := s.Create(ctx, "Trip A")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if chat.Type != entity.DefaultChatType {
		t.Errorf("type = %q, want %q", chat.Type, entity.DefaultChatType)
	}

	reloaded := newChatsScreen(t, store)
	var found []entity.Chat
	for _, c := range reloaded.Chats() {
		if c.Name == "Trip A" {
			found = append(found, c)
		}
	}
	if len(found) != 1 {
		t.Fatalf("chats named Trip A = %d, want 1", len(found))
	}
	if found[0].ID != chat.ID || len(found[0].Members) != 0 || found[0].Type != "group" {
		t.Errorf("reloaded = %+v", found[0])
	}
}

func TestChatsScreenCreateValidation(t *testing.T) {
	store := newFlakyStore(testStore(t))
	s := newChatsScreen(t, store)
	store.fail("insert")

	for _, name := range []string{"", "   "} {
		_, err := s.Create(context.Background(), name)
		if !IsValidation(err) {
			t.Errorf("Create(%q) err = %v, want validation error", name, err)
		}
	}

	_, err := s.Create(context.Background(), "Trip B")
	if !isRemote(err) {
		t.Errorf("Create err = %v, want remote error", err)
	}
	if len(s.Chats()) != 0 {
		t.Error("failed create changed the list")
	}
}

func TestChatsScreenRename(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	s := newChatsScreen(t, store)
	a, _ := s.Create(ctx, "Trip A")
	b, _ := s.Create(ctx, "Trip B")

	s.BeginRename(a.ID)
	s.StageName(a.ID, "  ")
	if err := s.SaveRename(ctx, a.ID); !IsValidation(err) {
		t.Fatalf("blank rename err = %v, want validation error", err)
	}
	if s.RenameState(a.ID) != edit.Editing {
		t.Error("row left edit after rejected rename")
	}

	s.StageName(a.ID, "Trip A2")
	if err := s.SaveRename(ctx, a.ID); err != nil {
		t.Fatalf("SaveRename: %v", err)
	}
	if c, _ := s.Chat(a.ID); c.Name != "Trip A2" {
		t.Errorf("local name = %q", c.Name)
	}
	doc, err := store.Get(ctx, entity.ChatsCollection, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Data["name"] != "Trip A2" {
		t.Errorf("remote name = %v", doc.Data["name"])
	}

	s.BeginRename(b.ID)
	s.StageName(b.ID, "lost")
	if dropped := s.BeginRename(a.ID); len(dropped) != 1 || dropped[0].Staged != "lost" {
		t.Errorf("dropped = %+v", dropped)
	}
	if c, _ := s.Chat(b.ID); c.Name != "Trip B" {
		t.Errorf("abandoned rename changed name to %q", c.Name)
	}
}

func TestChatsScreenDelete(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	s := newChatsScreen(t, store)
	a, _ := s.Create(ctx, "Trip A")
	s.OpenMembers(a.ID)

	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := s.Chat(a.ID); ok {
		t.Error("chat still listed")
	}
	if s.MembersTarget() != "" {
		t.Error("membership panel left open on a deleted chat")
	}
	if _, err := store.Get(ctx, entity.ChatsCollection, a.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Get after delete err = %v, want not found", err)
	}
	if len(newChatsScreen(t, store).Chats()) != 0 {
		t.Error("reload returned the deleted chat")
	}

	if err := s.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete(missing) = %v, want nil", err)
	}
}

func TestChatsScreenDeleteFailure(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore(testStore(t))
	s := newChatsScreen(t, store)
	a, _ := s.Create(ctx, "Trip A")
	store.fail("delete")

	if err := s.Delete(ctx, a.ID); !isRemote(err) {
		t.Fatalf("Delete err = %v, want remote error", err)
	}
	if _, ok := s.Chat(a.ID); !ok {
		t.Error("failed delete removed the chat locally")
	}
}

func TestChatsScreenAddMember(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	seedUser(t, store, entity.User{DisplayName: "Alice", Email: "alice@example.com", Status: entity.StatusTL})
	chatID, err := store.Insert(ctx, entity.ChatsCollection, entity.Chat{Name: "Trip A", Type: "group"}.Fields())
	if err != nil {
		t.Fatal(err)
	}
	s := newChatsScreen(t, store)

	s.OpenMembers(chatID)
	if added, err := s.ConfirmMember(ctx); err != nil || added {
		t.Fatalf("confirm with no selection = %v, %v", added, err)
	}

	s.SelectMember("Alice")
	added, err := s.ConfirmMember(ctx)
	if err != nil || !added {
		t.Fatalf("ConfirmMember = %v, %v", added, err)
	}
	if s.SelectedMember() != "" || s.MembersTarget() != chatID {
		t.Errorf("after add: selected %q, target %q", s.SelectedMember(), s.MembersTarget())
	}

	reloaded := newChatsScreen(t, store)
	c, _ := reloaded.Chat(chatID)
	if len(c.Members) != 1 || c.Members[0].DisplayName != "Alice" {
		t.Errorf("members = %+v", c.Members)
	}

	s.SelectMember("Nobody")
	if added, err := s.ConfirmMember(ctx); err != nil || added {
		t.Errorf("unknown user = %v, %v, want no-op", added, err)
	}
}

func TestChatsScreenAddMemberFailure(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore(testStore(t))
	seedUser(t, store, entity.User{DisplayName: "Alice"})
	s := newChatsScreen(t, store)
	a, _ := s.Create(ctx, "Trip A")
	store.fail("append")

	s.OpenMembers(a.ID)
	s.SelectMember("Alice")
	added, err := s.ConfirmMember(ctx)
	if added || !isRemote(err) {
		t.Fatalf("ConfirmMember = %v, %v, want remote error", added, err)
	}
	if c, _ := s.Chat(a.ID); len(c.Members) != 0 {
		t.Error("failed add changed the local chat")
	}
	if s.SelectedMember() != "Alice" {
		t.Error("failed add cleared the selection")
	}
}

func TestChatsScreenSingleMembersTarget(t *testing.T) {
	ctx := context.Background()
	s := newChatsScreen(t, testStore(t))
	a, _ := s.Create(ctx, "Trip A")
	b, _ := s.Create(ctx, "Trip B")

	s.OpenMembers(a.ID)
	s.SelectMember("Alice")
	s.BeginRename(b.ID)
	s.OpenMembers(b.ID)
	if s.MembersTarget() != b.ID || s.SelectedMember() != "" {
		t.Errorf("target %q selected %q", s.MembersTarget(), s.SelectedMember())
	}
	if s.RenameState(b.ID) != edit.Editing {
		t.Error("opening members ended the rename")
	}
	s.Deactivate()
	if s.MembersTarget() != "" || len(s.Chats()) != 0 {
		t.Error("Deactivate kept state")
	}
}
