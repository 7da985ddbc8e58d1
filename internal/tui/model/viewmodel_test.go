package model

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatadmin/internal/bus"
	"github.com/matheus3301/chatadmin/internal/config"
	"github.com/matheus3301/chatadmin/internal/console"
	"github.com/matheus3301/chatadmin/internal/docstore"
	"github.com/matheus3301/chatadmin/internal/entity"
	"github.com/matheus3301/chatadmin/internal/identity"
	"github.com/matheus3301/chatadmin/internal/rpc"
	"github.com/matheus3301/chatadmin/internal/status"
)

type nullAuth struct{}

func (nullAuth) SignIn(context.Context, string, string) (string, *identity.Principal, error) {
	return "", nil, identity.ErrInvalidCredentials
}

func (nullAuth) SignOut(context.Context) error { return nil }

func (nullAuth) Watch(context.Context) (<-chan *identity.Principal, error) {
	ch := make(chan *identity.Principal, 1)
	ch <- nil
	close(ch)
	return ch, nil
}

func (nullAuth) SetToken(string) {}

type noTokens struct{}

func (noTokens) Load() (string, error) { return "", nil }
func (noTokens) Save(string) error { return nil }
func (noTokens) Clear() error { return nil }

type fixedStatus struct{ info rpc.StatusInfo }

func (f fixedStatus) Status(context.Context) (*rpc.StatusInfo, error) { return &f.info, nil }

func newTestModel(t *testing.T, cfg config.Console) (*ViewModel, docstore.Store) {
	t.Helper()
	store, err := docstore.OpenSQLite(filepath.Join(t.TempDir(), "chatadmin.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	vm, err := New("test", cfg, Deps{
		Store:   store,
		Auth:    nullAuth{},
		Tokens:  noTokens{},
		Daemon:  fixedStatus{rpc.StatusInfo{Profile: "test", Uptime: time.Minute}},
		Machine: status.NewMachine(bus.New()),
		Logger:  zap.NewNop(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return vm, store
}

func TestActivateSwitchesScreens(t *testing.T) {
	ctx := context.Background()
	vm, store := newTestModel(t, config.Default().Console)
	if _, err := store.Insert(ctx, entity.UsersCollection, entity.User{DisplayName: "Alice"}.Fields()); err != nil {
		t.Fatal(err)
	}

	if err := vm.Activate(ctx, console.RouteUsers); err != nil {
		t.Fatal(err)
	}
	if len(vm.Users.All()) != 1 {
		t.Fatalf("users = %d, want 1", len(vm.Users.All()))
	}

	if err := vm.Activate(ctx, console.RouteChats); err != nil {
		t.Fatal(err)
	}
	if vm.Active() != console.RouteChats {
		t.Errorf("active = %q", vm.Active())
	}
	if len(vm.Users.All()) != 0 {
		t.Error("users screen kept its list after switching away")
	}
	if len(vm.Chats.Users()) != 1 {
		t.Error("chats screen did not load member candidates")
	}

	vm.Deactivate()
	if vm.Active() != "" || len(vm.Chats.Users()) != 0 {
		t.Error("Deactivate kept the chats screen")
	}
}

func TestNewRejectsUnknownMode(t *testing.T) {
	cfg := config.Default().Console
	cfg.MemberWriteMode = "merge"
	_, err := New("test", cfg, Deps{Machine: status.NewMachine(nil), Logger: zap.NewNop()})
	if err == nil {
		t.Error("New accepted an unknown member write mode")
	}
}

func TestLoadStatus(t *testing.T) {
	vm, _ := newTestModel(t, config.Default().Console)
	if vm.Status() != nil {
		t.Fatal("status before load")
	}
	if err := vm.LoadStatus(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := vm.Status(); got == nil || got.Profile != "test" || got.Uptime != time.Minute {
		t.Errorf("status = %+v", got)
	}
}
