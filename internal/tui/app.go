package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/matheus3301/chatadmin/internal/console"
	"github.com/matheus3301/chatadmin/internal/identity"
	"github.com/matheus3301/chatadmin/internal/status"
	"github.com/matheus3301/chatadmin/internal/tui/keys"
	"github.com/matheus3301/chatadmin/internal/tui/model"
	"github.com/matheus3301/chatadmin/internal/tui/ui"
	"github.com/matheus3301/chatadmin/internal/tui/views"
)

// Page names. Screen pages are named after their route.
const (
	pageLogin     = "login"
	pageDashboard = "dashboard"
	pageUsers     = "users"
	pageChats     = "chats"
	pageFilter    = "filter"
	pageMembers   = "members"
	pageCard      = "contact"
	pageHelp      = "help"
	pageModal     = "modal"
)

const refreshInterval = 5 * time.Second

// formPages receive every key except Ctrl-C.
var formPages = map[string]bool{
	pageLogin:   true,
	pageFilter:  true,
	pageMembers: true,
	pageModal:   true,
}

// promptTarget is what the prompt is collecting.
type promptTarget int

const (
	promptCommand promptTarget = iota
	promptNewChat
	promptRename
)

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	vm       *model.ViewModel
	logger   *zap.Logger
	registry *keys.Registry

	root     *tview.Flex
	pages    *ui.Pages
	prompt   *ui.Prompt
	flash    *ui.FlashModel
	flashBar *ui.FlashBar
	crumbs   *ui.Crumbs
	menu     *ui.Menu
	info     *ui.ProfileInfo
	modal    *tview.Modal

	login      *views.LoginView
	dashboard  *views.DashboardView
	users      *views.UsersView
	filterForm *views.FilterForm
	chats      *views.ChatsView
	members    *views.MemberPanel
	card       *views.ContactCard
	help       *views.HelpView

	// primitives maps page names to the primitive that takes focus.
	primitives map[string]tview.Primitive

	// Touched only on the UI goroutine.
	path         string
	promptFor    promptTarget
	promptID     string
	promptActive bool

	loadMu  sync.Mutex
	pending string
	loadCh  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// screen loads a route's data whenever its page is shown.
type screen struct {
	ui.Component
	onStart func()
}

func (s screen) Start() {
	s.Component.Start()
	s.onStart()
}

// NewApp creates the TUI application.
func NewApp(vm *model.ViewModel, logger *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:        tview.NewApplication(),
		theme:      theme,
		vm:         vm,
		logger:     logger,
		registry:   keys.NewRegistry(),
		pages:      ui.NewPages(),
		prompt:     ui.NewPrompt(theme),
		flash:      ui.NewFlashModel(),
		flashBar:   ui.NewFlashBar(theme),
		crumbs:     ui.NewCrumbs(theme, vm.Profile),
		menu:       ui.NewMenu(theme),
		info:       ui.NewProfileInfo(theme),
		modal:      tview.NewModal(),
		login:      views.NewLogin(theme),
		dashboard:  views.NewDashboard(theme),
		users:      views.NewUsers(theme),
		filterForm: views.NewFilterForm(theme),
		chats:      views.NewChats(theme),
		members:    views.NewMemberPanel(theme),
		card:       views.NewContactCard(theme),
		help:       views.NewHelpView(theme),
		path:       console.RouteLogin,
		loadCh:     make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
	}

	a.setupPages()
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupPages() {
	a.primitives = map[string]tview.Primitive{
		pageLogin:     a.login,
		pageDashboard: a.dashboard,
		pageUsers:     a.users,
		pageFilter:    a.filterForm,
		pageChats:     a.chats,
		pageMembers:   a.members,
		pageCard:      a.card,
		pageHelp:      a.help,
		pageModal:     a.modal,
	}
	a.pages.Add(pageLogin, a.login, screen{a.login, func() { a.load(console.RouteLogin) }})
	a.pages.Add(pageDashboard, a.dashboard, screen{a.dashboard, func() { a.load(console.RouteDashboard) }})
	a.pages.Add(pageUsers, a.users, screen{a.users, func() { a.load(console.RouteUsers) }})
	a.pages.Add(pageChats, a.chats, screen{a.chats, func() { a.load(console.RouteChats) }})
	a.pages.Add(pageFilter, a.filterForm, a.filterForm)
	a.pages.Add(pageMembers, a.members, a.members)
	a.pages.Add(pageCard, a.card, a.card)
	a.pages.Add(pageHelp, a.help, a.help)
	a.pages.Add(pageModal, a.modal, nil)

	a.pages.SetOnChange(func(stack []string) {
		names := make([]string, 0, len(stack))
		for _, name := range stack {
			if c := a.pages.Component(name); c != nil {
				names = append(names, c.Name())
			}
		}
		a.crumbs.Update(names)
		a.updateMenu()
		if p := a.primitives[a.pages.Current()]; p != nil && !a.promptActive {
			a.app.SetFocus(p)
		}
	})
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("command", &keys.Action{
		Key: tcell.KeyRune, Rune: ':', Label: ":",
		Description: "Command", Visible: true,
		Handler: func() { a.showPrompt(promptCommand, "", "", "") },
	})
	a.registry.AddGlobal("help", &keys.Action{
		Key: tcell.KeyRune, Rune: '?', Label: "?",
		Description: "Help", Visible: true,
		Handler: func() { a.pages.Push(pageHelp) },
	})
	a.registry.AddGlobal("quit", &keys.Action{
		Key: tcell.KeyRune, Rune: 'q', Label: "q",
		Description: "Quit", Visible: true,
		Handler: a.Stop,
	})

	back := func() { a.pages.Pop() }
	for _, page := range []string{pageHelp, pageCard} {
		a.registry.AddView(page, "back", &keys.Action{
			Key: tcell.KeyEscape, Label: "Esc", Description: "Back", Handler: back,
		})
	}

	a.registry.AddView(pageDashboard, "users", &keys.Action{
		Key: tcell.KeyRune, Rune: 'u', Label: "u", Description: "Users",
		Handler: func() { a.navigate(console.RouteUsers) },
	})
	a.registry.AddView(pageDashboard, "chats", &keys.Action{
		Key: tcell.KeyRune, Rune: 'c', Label: "c", Description: "Chats",
		Handler: func() { a.navigate(console.RouteChats) },
	})
	a.registry.AddView(pageDashboard, "refresh", &keys.Action{
		Key: tcell.KeyRune, Rune: 'R', Label: "R", Description: "Refresh",
		Handler: func() { a.load(console.RouteDashboard) },
	})

	a.bindUsers()
	a.bindChats()
}

func (a *App) setupCallbacks() {
	a.login.SetOnSubmit(a.signIn)

	a.prompt.SetOnSubmit(func(_ ui.PromptMode, text string) {
		target, id := a.promptFor, a.promptID
		a.hidePrompt()
		switch target {
		case promptCommand:
			a.runCommand(text)
		case promptNewChat:
			a.createChat(text)
		case promptRename:
			a.saveRename(id)
		}
	})
	a.prompt.SetOnChange(func(_ ui.PromptMode, text string) {
		if a.promptActive && a.promptFor == promptRename {
			a.vm.Chats.StageName(a.promptID, text)
			a.renderChats()
		}
	})
	a.prompt.SetOnCancel(func() {
		if a.promptFor == promptRename {
			a.vm.Chats.CancelRename(a.promptID)
			a.renderChats()
		}
		a.hidePrompt()
	})

	a.filterForm.SetOnApply(a.applyFilter)
	a.filterForm.SetOnCancel(func() { a.pages.Pop() })

	a.members.SetOnSelect(func(name string) { a.vm.Chats.SelectMember(name) })
	a.members.SetOnConfirm(a.confirmMember)
	a.members.SetOnClose(func() {
		a.vm.Chats.CloseMembers()
		a.pages.Pop()
	})

	// Session changes arrive on its goroutines, some holding session locks,
	// and QueueUpdateDraw waits for the UI loop.
	a.vm.Session.OnChange(func() {
		go a.app.QueueUpdateDraw(func() {
			a.syncRoute()
			a.refreshHeader()
		})
	})
}

func (a *App) setupLayout() {
	a.modal.SetBackgroundColor(a.theme.BgColor)

	header := tview.NewFlex().
		AddItem(a.info, 0, 1, false).
		AddItem(a.menu, 0, 3, false).
		AddItem(ui.NewLogo(a.theme, a.vm.Profile), 18, 0, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 5, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false)
	a.app.SetRoot(a.root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			a.Stop()
			return nil
		}
		if a.promptActive {
			return event
		}
		current := a.pages.Current()
		if formPages[current] {
			return event
		}
		if a.registry.HandleEvent(current, event) {
			return nil
		}
		return event
	})
}

// navigate shows path, or the screen the router sends it to.
func (a *App) navigate(path string) {
	a.path = path
	a.syncRoute()
}

// syncRoute shows the screen for the requested path and auth state.
func (a *App) syncRoute() {
	s := a.vm.Session
	if s.Loading() {
		a.pages.Reset(pageLogin)
		a.login.ShowMessage("Checking session...")
		return
	}
	target := s.Route(a.path)
	a.pages.Reset(strings.TrimPrefix(target, "/"))
	if target == console.RouteLogin && s.State() == status.Unavailable {
		a.login.ShowError("Daemon unavailable")
	}
}

// load activates route's screen. Loads run one at a time and only the
// latest requested route is loaded.
func (a *App) load(route string) {
	a.loadMu.Lock()
	a.pending = route
	a.loadMu.Unlock()
	select {
	case a.loadCh <- struct{}{}:
	default:
	}
}

func (a *App) loader() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.loadCh:
		}
		a.loadMu.Lock()
		route := a.pending
		a.loadMu.Unlock()

		err := a.vm.Activate(a.ctx, route)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.fail(err)
			}
			a.render(route)
		})
	}
}

func (a *App) render(route string) {
	switch route {
	case console.RouteDashboard:
		a.dashboard.Update(a.vm.Dashboard.Stats())
	case console.RouteUsers:
		a.renderUsers()
	case console.RouteChats:
		a.renderChats()
		a.renderMembers()
	}
}

func (a *App) signIn(email, password string) {
	a.login.ShowMessage("Signing in...")
	a.path = console.RouteLogin
	go func() {
		err := a.vm.Session.SignIn(a.ctx, email, password)
		if err == nil {
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.login.ShowError(signInMessage(err))
		})
	}()
}

func signInMessage(err error) string {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, identity.ErrDisabled):
		return "This operator is disabled"
	}
	return "Sign in failed: " + err.Error()
}

func (a *App) logout() {
	a.path = console.RouteLogin
	go func() {
		if err := a.vm.Session.SignOut(a.ctx); err != nil {
			a.app.QueueUpdateDraw(func() { a.fail(err) })
		}
	}()
}

func (a *App) runCommand(text string) {
	cmd := ParseCommand(text)
	action, path := cmd.Resolve()
	switch action {
	case ActionNavigate:
		a.navigate(path)
	case ActionLogout:
		a.logout()
	case ActionHelp:
		a.pages.Push(pageHelp)
	case ActionQuit:
		a.Stop()
	default:
		a.flash.Warn("Unknown command: " + cmd.Name)
	}
}

func (a *App) showPrompt(target promptTarget, id, title, initial string) {
	a.promptFor = target
	a.promptID = id
	a.promptActive = true
	mode := ui.PromptText
	if target == promptCommand {
		mode = ui.PromptCommand
	}
	a.prompt.Activate(mode, title, initial)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.promptActive = false
	a.root.ResizeItem(a.prompt, 0, 0)
	if p := a.primitives[a.pages.Current()]; p != nil {
		a.app.SetFocus(p)
	}
}

// fail shows a blocking dialog for rejected input and flashes anything else.
func (a *App) fail(err error) {
	var v *console.ValidationError
	if errors.As(err, &v) {
		a.showModal(v.Message, []string{"OK"}, nil)
		return
	}
	a.flash.Err(err)
}

// showModal shows a dialog. onDone runs with the pressed button after the
// dialog is closed.
func (a *App) showModal(text string, buttons []string, onDone func(label string)) {
	a.modal.ClearButtons().
		SetText(text).
		AddButtons(buttons).
		SetDoneFunc(func(_ int, label string) {
			if a.pages.Current() == pageModal {
				a.pages.Pop()
			}
			if onDone != nil {
				onDone(label)
			}
		})
	a.pages.Push(pageModal)
	a.app.SetFocus(a.modal)
}

func (a *App) updateMenu() {
	var hints []ui.MenuHint
	current := a.pages.Current()
	if c := a.pages.Component(current); c != nil {
		hints = append(hints, c.Hints()...)
	}
	if !formPages[current] {
		for _, act := range a.registry.Hints("") {
			hints = append(hints, ui.MenuHint{Key: act.Label, Description: act.Description})
		}
	}
	a.menu.Update(hints)
}

func (a *App) refreshHeader() {
	data := &ui.ProfileData{
		Profile: a.vm.Profile,
		State:   a.vm.Session.State().Label(),
	}
	if p := a.vm.Session.Principal(); p != nil {
		data.Operator = p.Email
	}
	if st := a.vm.Status(); st != nil {
		data.Driver = st.Driver
		data.Users = st.Users
		data.Chats = st.Chats
		data.Uptime = st.Uptime
	}
	a.info.Update(data)
}

// Run starts the TUI application.
func (a *App) Run() error {
	a.pages.Reset(pageLogin)
	a.login.ShowMessage("Connecting...")
	a.refreshHeader()

	go a.loader()
	go a.watchFlash()
	go func() {
		a.initSession()
		a.startRefreshLoop()
	}()

	return a.app.Run()
}

func (a *App) initSession() {
	if err := a.vm.Session.Init(a.ctx); err != nil {
		a.logger.Error("init session", zap.Error(err))
		a.app.QueueUpdateDraw(func() {
			a.syncRoute()
			a.flash.Err(err)
		})
	}
}

func (a *App) watchFlash() {
	for {
		select {
		case msg := <-a.flash.Watch():
			a.app.QueueUpdateDraw(func() { a.flashBar.Update(&msg) })
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) startRefreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		if err := a.vm.LoadStatus(a.ctx); err != nil {
			a.logger.Debug("status refresh", zap.Error(err))
		}
		a.app.QueueUpdateDraw(a.refreshHeader)
		select {
		case <-ticker.C:
		case <-a.ctx.Done():
			return
		}
		// Reconnect once the daemon is back.
		if a.vm.Session.State() == status.Unavailable {
			a.initSession()
		}
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.vm.Session.Close()
	a.vm.Deactivate()
	a.app.Stop()
}
