package console

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/matheus3301/chatadmin/internal/console/edit"
	"github.com/matheus3301/chatadmin/internal/console/filter"
	"github.com/matheus3301/chatadmin/internal/entity"
)

func TestUsersScreenOrdersByDisplayName(t *testing.T) {
	store := testStore(t)
	for _, name := range []string{"Carol", "alice", "Bob"} {
		seedUser(t, store, entity.User{DisplayName: name})
	}
	s := NewUsersScreen(store, nopLogger(), 10, true)
	if err := s.Activate(context.Background()); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	var got []string
	for _, u := range s.All() {
		got = append(got, u.DisplayName)
	}
	// Strings compare bytewise, so upper case sorts first.
	want := []string{"Bob", "Carol", "alice"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestUsersScreenStatusEdit(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	alice := seedUser(t, store, entity.User{DisplayName: "Alice", Status: entity.StatusUser})
	bob := seedUser(t, store, entity.User{DisplayName: "Bob", Status: entity.StatusUser})

	s := NewUsersScreen(store, nopLogger(), 10, true)
	if err := s.Activate(ctx); err != nil {
		t.Fatal(err)
	}

	t.Run("save", func(t *testing.T) {
		s.BeginEdit(alice)
		if !s.StageStatus(alice, entity.StatusTL) {
			t.Fatal("StageStatus returned false")
		}
		if err := s.SaveEdit(ctx, alice); err != nil {
			t.Fatalf("SaveEdit: %v", err)
		}
		if st := s.EditState(alice); st != edit.Viewing {
			t.Errorf("state = %v, want viewing", st)
		}
		if got := storedUser(t, store, alice).Status; got != entity.StatusTL {
			t.Errorf("remote status = %q, want TL", got)
		}
		if u, _ := s.list.Get(alice); u.Status != entity.StatusTL {
			t.Errorf("local status = %q, want TL", u.Status)
		}
	})

	t.Run("abandoned by another row", func(t *testing.T) {
		s.BeginEdit(bob)
		s.StageStatus(bob, entity.StatusTL)
		dropped := s.BeginEdit(alice)
		if len(dropped) != 1 || dropped[0].ID != bob || dropped[0].Staged != entity.StatusTL {
			t.Fatalf("dropped = %+v", dropped)
		}
		s.CancelEdit(alice)
		if got := storedUser(t, store, bob).Status; got != entity.StatusUser {
			t.Errorf("remote status = %q, want User", got)
		}
		if u, _ := s.list.Get(bob); u.Status != entity.StatusUser {
			t.Errorf("local status = %q, want User", u.Status)
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		s.BeginEdit(bob)
		s.StageStatus(bob, entity.Status("Admin"))
		err := s.SaveEdit(ctx, bob)
		if !IsValidation(err) {
			t.Fatalf("err = %v, want validation error", err)
		}
		if st := s.EditState(bob); st != edit.Editing {
			t.Errorf("state = %v, want editing", st)
		}
		s.CancelEdit(bob)
	})

	t.Run("save without edit", func(t *testing.T) {
		if err := s.SaveEdit(ctx, bob); err != nil {
			t.Errorf("SaveEdit: %v", err)
		}
	})
}

func TestUsersScreenRemoteFailure(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore(testStore(t))
	id := seedUser(t, store, entity.User{DisplayName: "Alice"})

	s := NewUsersScreen(store, nopLogger(), 10, true)
	if err := s.Activate(ctx); err != nil {
		t.Fatal(err)
	}
	store.fail("update")

	s.BeginEdit(id)
	s.StageStatus(id, entity.StatusTL)
	err := s.SaveEdit(ctx, id)
	if !isRemote(err) || !errors.Is(err, errBackend) {
		t.Fatalf("err = %v, want remote error", err)
	}
	if u, _ := s.list.Get(id); u.Status != "" {
		t.Errorf("local status = %q, want unchanged", u.Status)
	}
	if s.EditState(id) != edit.Editing {
		t.Error("row left edit after failed save")
	}

	store.fail("list")
	if err := s.Activate(ctx); !isRemote(err) {
		t.Errorf("Activate err = %v, want remote error", err)
	}
	if len(s.All()) != 1 {
		t.Error("failed reload changed the list")
	}
}

func TestUsersScreenFilter(t *testing.T) {
	store := testStore(t)
	seedUser(t, store, entity.User{DisplayName: "Alice", Email: "alice@example.com", Status: entity.StatusTL})
	seedUser(t, store, entity.User{DisplayName: "Bob", Email: "bob@example.com"})
	seedUser(t, store, entity.User{DisplayName: "Carol", Email: "carol@corp.io", Status: entity.StatusTL})

	s := NewUsersScreen(store, nopLogger(), 10, true)
	if err := s.Activate(context.Background()); err != nil {
		t.Fatal(err)
	}

	f := filter.UserFilter{Email: "EXAMPLE", Status: "tl"}
	s.SetFilter(f)
	once := s.Visible()
	if len(once) != 1 || once[0].DisplayName != "Alice" {
		t.Fatalf("visible = %+v", once)
	}
	s.SetFilter(f)
	if twice := s.Visible(); fmt.Sprint(twice) != fmt.Sprint(once) {
		t.Errorf("second apply = %+v, want %+v", twice, once)
	}
	if len(s.All()) != 3 {
		t.Errorf("filter changed the full list")
	}

	s.ClearFilter()
	if len(s.Visible()) != 3 {
		t.Errorf("visible after clear = %d, want 3", len(s.Visible()))
	}
}

func TestUsersScreenPages(t *testing.T) {
	store := testStore(t)
	for i := range 7 {
		seedUser(t, store, entity.User{DisplayName: fmt.Sprintf("user%02d", i)})
	}
	s := NewUsersScreen(store, nopLogger(), 3, true)
	if err := s.Activate(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := s.Pages(); got != 3 {
		t.Fatalf("Pages = %d, want 3", got)
	}
	if s.PrevPage() {
		t.Error("PrevPage moved before the first page")
	}
	s.NextPage()
	s.NextPage()
	if s.NextPage() {
		t.Error("NextPage moved past the last page")
	}
	rows := s.Page()
	if len(rows) != 1 || rows[0].No != 7 || rows[0].User.DisplayName != "user06" {
		t.Errorf("last page = %+v", rows)
	}

	s.PrevPage()
	rows = s.Page()
	if len(rows) != 3 || rows[0].No != 4 {
		t.Errorf("middle page = %+v", rows)
	}

	s.SetFilter(filter.UserFilter{DisplayName: "user0"})
	if s.PageIndex() != 0 {
		t.Error("SetFilter kept the page")
	}
}

func TestUsersScreenDeactivate(t *testing.T) {
	store := testStore(t)
	id := seedUser(t, store, entity.User{DisplayName: "Alice"})
	s := NewUsersScreen(store, nopLogger(), 10, true)
	if err := s.Activate(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.BeginEdit(id)
	s.Deactivate()

	if len(s.All()) != 0 {
		t.Error("list kept after Deactivate")
	}
	if s.EditState(id) != edit.Viewing {
		t.Error("edit kept after Deactivate")
	}
	if s.Pages() != 1 {
		t.Errorf("Pages = %d, want 1", s.Pages())
	}
}
