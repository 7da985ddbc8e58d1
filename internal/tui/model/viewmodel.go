// Package model holds the console screens and daemon status behind the
// terminal views.
package model

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/matheus3301/chatadmin/internal/config"
	"github.com/matheus3301/chatadmin/internal/console"
	"github.com/matheus3301/chatadmin/internal/console/membership"
	"github.com/matheus3301/chatadmin/internal/docstore"
	"github.com/matheus3301/chatadmin/internal/rpc"
	"github.com/matheus3301/chatadmin/internal/status"
)

// StatusSource reports daemon status.
type StatusSource interface {
	Status(ctx context.Context) (*rpc.StatusInfo, error)
}

// Deps are the remote collaborators of a ViewModel.
type Deps struct {
	Store   docstore.Store
	Auth    console.Authenticator
	Tokens  console.TokenStore
	Daemon  StatusSource
	Machine *status.Machine
	Logger  *zap.Logger
}

// ViewModel owns the session and one screen per route. At most one screen
// is active; switching deactivates the previous one so its pending calls
// cannot land.
type ViewModel struct {
	Profile   string
	Session   *console.Session
	Dashboard *console.DashboardScreen
	Users     *console.UsersScreen
	Chats     *console.ChatsScreen

	daemon StatusSource
	logger *zap.Logger

	mu     sync.RWMutex
	active string
	status *rpc.StatusInfo
}

// New builds the view model for profile.
func New(profileName string, cfg config.Console, deps Deps) (*ViewModel, error) {
	mode, err := membership.ParseMode(cfg.MemberWriteMode)
	if err != nil {
		return nil, err
	}
	return &ViewModel{
		Profile:   profileName,
		Session:   console.NewSession(deps.Auth, deps.Tokens, deps.Machine, deps.Logger),
		Dashboard: console.NewDashboardScreen(deps.Store, deps.Logger),
		Users:     console.NewUsersScreen(deps.Store, deps.Logger, cfg.PageSize, cfg.ExclusiveEdit),
		Chats:     console.NewChatsScreen(deps.Store, deps.Logger, mode, cfg.ExclusiveEdit),
		daemon:    deps.Daemon,
		logger:    deps.Logger,
	}, nil
}

// Active returns the route of the active screen.
func (vm *ViewModel) Active() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.active
}

// Activate makes route the active screen and loads it. Routes without a
// screen, such as login, only deactivate the previous one.
func (vm *ViewModel) Activate(ctx context.Context, route string) error {
	vm.mu.Lock()
	prev := vm.active
	vm.active = route
	vm.mu.Unlock()

	if prev != route {
		vm.deactivate(prev)
	}
	switch route {
	case console.RouteDashboard:
		return vm.Dashboard.Activate(ctx)
	case console.RouteUsers:
		return vm.Users.Activate(ctx)
	case console.RouteChats:
		return vm.Chats.Activate(ctx)
	}
	return nil
}

// Deactivate drops the active screen.
func (vm *ViewModel) Deactivate() {
	vm.mu.Lock()
	prev := vm.active
	vm.active = ""
	vm.mu.Unlock()
	vm.deactivate(prev)
}

func (vm *ViewModel) deactivate(route string) {
	switch route {
	case console.RouteDashboard:
		vm.Dashboard.Deactivate()
	case console.RouteUsers:
		vm.Users.Deactivate()
	case console.RouteChats:
		vm.Chats.Deactivate()
	}
}

// LoadStatus fetches daemon status.
func (vm *ViewModel) LoadStatus(ctx context.Context) error {
	info, err := vm.daemon.Status(ctx)
	if err != nil {
		return fmt.Errorf("daemon status: %w", err)
	}
	vm.mu.Lock()
	vm.status = info
	vm.mu.Unlock()
	return nil
}

// Status returns the last fetched daemon status, or nil.
func (vm *ViewModel) Status() *rpc.StatusInfo {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.status
}
