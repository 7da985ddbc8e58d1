package console

import (
	"context"
	"testing"

	"github.com/matheus3301/chatadmin/internal/entity"
)

func TestDashboardStats(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	alice := entity.User{DisplayName: "Alice", Status: entity.StatusTL}
	bob := entity.User{DisplayName: "Bob"}
	alice.ID = seedUser(t, store, alice)
	bob.ID = seedUser(t, store, bob)
	seedUser(t, store, entity.User{DisplayName: "Carol", Status: entity.StatusUser})

	chat := entity.Chat{Name: "Trip A", Type: "group", Members: []entity.Member{entity.Snapshot(alice), entity.Snapshot(bob)}}
	if _, err := store.Insert(ctx, entity.ChatsCollection, chat.Fields()); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Insert(ctx, entity.ChatsCollection, entity.Chat{Name: "Trip B", Type: "group"}.Fields()); err != nil {
		t.Fatal(err)
	}

	d := NewDashboardScreen(store, nopLogger())
	if _, ok := d.Stats(); ok {
		t.Error("Stats before Activate")
	}
	if err := d.Activate(ctx); err != nil {
		t.Fatal(err)
	}
	got, ok := d.Stats()
	want := Stats{Users: 3, TourLeaders: 1, Chats: 2, Memberships: 2}
	if !ok || got != want {
		t.Errorf("Stats = %+v, want %+v", got, want)
	}

	d.Deactivate()
	if _, ok := d.Stats(); ok {
		t.Error("Stats kept after Deactivate")
	}
}

func TestDashboardRemoteFailure(t *testing.T) {
	store := newFlakyStore(testStore(t))
	store.fail("list")
	d := NewDashboardScreen(store, nopLogger())
	if err := d.Activate(context.Background()); !isRemote(err) {
		t.Errorf("Activate err = %v, want remote error", err)
	}
}
