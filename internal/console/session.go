package console

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/matheus3301/chatadmin/internal/identity"
	"github.com/matheus3301/chatadmin/internal/profile"
	"github.com/matheus3301/chatadmin/internal/status"
)

// Authenticator is the identity provider as seen by the console.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (string, *identity.Principal, error)
	SignOut(ctx context.Context) error
	// Watch yields the principal for the current token, or nil, right
	// away and then nil when the session ends.
	Watch(ctx context.Context) (<-chan *identity.Principal, error)
	SetToken(token string)
}

// TokenStore keeps the session token between console runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// ProfileTokens stores the token in the named profile's directory.
type ProfileTokens string

func (p ProfileTokens) Load() (string, error) { return profile.LoadToken(string(p)) }
func (p ProfileTokens) Save(token string) error { return profile.SaveToken(string(p), token) }
func (p ProfileTokens) Clear() error { return profile.ClearToken(string(p)) }

// Session is the console's application state: who is signed in and whether
// the first auth answer is still pending. Init subscribes to the identity
// provider and Close unsubscribes.
type Session struct {
	auth    Authenticator
	tokens  TokenStore
	machine *status.Machine
	logger  *zap.Logger

	mu        sync.Mutex
	principal *identity.Principal
	loading   bool
	onChange  func()
	cancel    context.CancelFunc
	// gen is bumped whenever the watch is replaced so an old watch
	// cannot touch the session. applyMu is held while a watch result is
	// checked and applied.
	gen     uint64
	applyMu sync.Mutex
}

// NewSession creates a session in the Booting state.
func NewSession(auth Authenticator, tokens TokenStore, machine *status.Machine, logger *zap.Logger) *Session {
	return &Session{auth: auth, tokens: tokens, machine: machine, logger: logger}
}

// OnChange registers fn to run after every change of principal, loading
// flag or state. fn runs on the goroutine that made the change.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Init restores a saved token and starts watching auth state. The session
// stays loading until the first answer arrives.
func (s *Session) Init(ctx context.Context) error {
	if s.machine.Current() == status.Unavailable {
		s.moveTo(status.Booting)
	}
	s.setLoading(true)

	token, err := s.tokens.Load()
	if err != nil {
		s.logger.Warn("load saved token", zap.Error(err))
	}
	if token != "" {
		s.auth.SetToken(token)
	}
	if err := s.watch(ctx); err != nil {
		s.moveTo(status.Unavailable)
		s.setLoading(false)
		return fmt.Errorf("watch auth state: %w", err)
	}
	return nil
}

// Close stops watching auth state.
func (s *Session) Close() {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Principal returns the signed-in operator, or nil.
func (s *Session) Principal() *identity.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.principal
}

// Loading reports whether the first auth answer is pending.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// State returns the auth state.
func (s *Session) State() status.State {
	return s.machine.Current()
}

// SignedIn reports whether an operator is signed in.
func (s *Session) SignedIn() bool {
	return s.Principal() != nil
}

// Route resolves path for the current auth state.
func (s *Session) Route(path string) string {
	return Route(path, s.SignedIn())
}

// SignIn authenticates the operator. It does nothing when already signed in.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	if s.SignedIn() {
		return nil
	}
	s.moveTo(status.SigningIn)
	token, p, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		s.moveTo(status.SignedOut)
		return err
	}
	if err := s.tokens.Save(token); err != nil {
		s.logger.Warn("save token", zap.Error(err))
	}
	s.setPrincipal(p)
	s.moveTo(status.SignedIn)
	s.logger.Info("signed in", zap.String("uid", p.UID), zap.String("email", p.Email))
	if err := s.watch(ctx); err != nil {
		s.logger.Warn("watch auth state", zap.Error(err))
	}
	return nil
}

// SignOut ends the session. The local state is cleared even when the
// provider call fails, and that error is returned.
func (s *Session) SignOut(ctx context.Context) error {
	s.Close()
	err := s.auth.SignOut(ctx)
	if err != nil {
		s.logger.Error("sign out", zap.Error(err))
		s.auth.SetToken("")
	}
	s.endSession()
	return err
}

func (s *Session) watch(ctx context.Context) error {
	s.applyMu.Lock()
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
	}
	wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.mu.Unlock()
	s.applyMu.Unlock()

	ch, err := s.auth.Watch(wctx)
	if err != nil {
		cancel()
		return err
	}
	go func() {
		for p := range ch {
			if !s.apply(gen, p) {
				return
			}
		}
	}()
	return nil
}

func (s *Session) apply(gen uint64, p *identity.Principal) bool {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	if !s.current(gen) {
		return false
	}
	if p == nil {
		s.endSession()
	} else {
		s.setPrincipal(p)
		s.moveTo(status.SignedIn)
	}
	s.setLoading(false)
	return true
}

func (s *Session) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

func (s *Session) endSession() {
	if err := s.tokens.Clear(); err != nil {
		s.logger.Warn("clear token", zap.Error(err))
	}
	s.setPrincipal(nil)
	s.moveTo(status.SignedOut)
}

func (s *Session) setPrincipal(p *identity.Principal) {
	s.mu.Lock()
	s.principal = p
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	changed := s.loading != v
	s.loading = v
	fn := s.onChange
	s.mu.Unlock()
	if changed && fn != nil {
		fn()
	}
}

func (s *Session) moveTo(st status.State) {
	if err := s.machine.Transition(st); err != nil {
		s.logger.Warn("auth state", zap.Error(err))
	}
}
