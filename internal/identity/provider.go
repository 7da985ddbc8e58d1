// Package identity authenticates console operators and issues the session
// tokens the daemon checks on every RPC.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/matheus3301/chatadmin/internal/bus"
	"github.com/matheus3301/chatadmin/internal/docstore"
)

// Collections owned by the provider.
const (
	OperatorsCollection   = "operators"
	RevocationsCollection = "revocations"
)

const minPasswordLen = 8

// Owns reports whether collection is one the provider keeps its own
// records in.
func Owns(collection string) bool {
	return collection == OperatorsCollection || collection == RevocationsCollection
}

var (
	ErrInvalidCredentials = errors.New("identity: invalid email or password")
	ErrInvalidToken       = errors.New("identity: invalid or expired token")
	ErrDisabled           = errors.New("identity: operator is disabled")
	ErrOperatorExists     = errors.New("identity: operator already exists")
	ErrInvalidEmail       = errors.New("identity: email must contain @")
	ErrWeakPassword       = fmt.Errorf("identity: password must be at least %d characters", minPasswordLen)
)

// Principal is the signed-in operator.
type Principal struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Options configures a Provider.
type Options struct {
	Secret []byte
	TTL    time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	// Now defaults to time.Now.
	Now func() time.Time
}

// Provider signs operators in and out.
type Provider struct {
	store  docstore.Store
	bus    *bus.Bus
	logger *zap.Logger
	opts   Options

	// mu serializes AddOperator so duplicate emails cannot race in.
	mu sync.Mutex

	revokedMu sync.RWMutex
	revoked   map[string]time.Time
}

// NewProvider builds a provider and loads unexpired revocations from store.
func NewProvider(ctx context.Context, store docstore.Store, b *bus.Bus, logger *zap.Logger, opts Options) (*Provider, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("identity: empty signing secret")
	}
	if opts.TTL <= 0 {
		opts.TTL = 12 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	p := &Provider{
		store:   store,
		bus:     b,
		logger:  logger,
		opts:    opts,
		revoked: make(map[string]time.Time),
	}
	if err := p.loadRevocations(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) loadRevocations(ctx context.Context) error {
	docs, err := p.store.List(ctx, RevocationsCollection, docstore.Query{})
	if err != nil {
		return fmt.Errorf("load revocations: %w", err)
	}
	now := p.opts.Now()
	for _, d := range docs {
		jti, _ := d.Data["jti"].(string)
		exp, _ := d.Data["exp"].(float64)
		expiry := time.Unix(int64(exp), 0)
		if !expiry.After(now) {
			// Expired tokens fail verification anyway.
			_ = p.store.Delete(ctx, RevocationsCollection, d.ID)
			continue
		}
		p.revoked[jti] = expiry
	}
	return nil
}

// SignIn checks the credentials and returns a signed session token.
func (p *Provider) SignIn(ctx context.Context, email, password string) (string, *Principal, error) {
	doc, err := p.findOperator(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if doc == nil {
		return "", nil, ErrInvalidCredentials
	}
	hash, _ := doc.Data["passwordHash"].(string)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	if disabled, _ := doc.Data["disabled"].(bool); disabled {
		return "", nil, ErrDisabled
	}

	principal := principalOf(doc)
	token, err := p.issue(principal)
	if err != nil {
		return "", nil, err
	}
	if p.bus != nil {
		p.bus.Emit(bus.KindSignedIn, bus.SignedIn{UID: principal.UID, Email: principal.Email})
	}
	return token, principal, nil
}

func (p *Provider) issue(principal *Principal) (string, error) {
	now := p.opts.Now()
	c := claims{
		Email: principal.Email,
		Name:  principal.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.opts.TTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(p.opts.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (p *Provider) parse(token string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return p.opts.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.opts.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" || c.ID == "" {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

// Verify checks signature, expiry and revocation.
func (p *Provider) Verify(token string) (*Principal, error) {
	c, err := p.parse(token)
	if err != nil {
		return nil, err
	}
	p.revokedMu.RLock()
	_, revoked := p.revoked[c.ID]
	p.revokedMu.RUnlock()
	if revoked {
		return nil, ErrInvalidToken
	}
	return &Principal{UID: c.Subject, Email: c.Email, DisplayName: c.Name}, nil
}

// SignOut revokes token. Signing out an invalid token is a no-op.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	c, err := p.parse(token)
	if err != nil {
		return nil
	}
	p.revokedMu.Lock()
	_, already := p.revoked[c.ID]
	p.revoked[c.ID] = c.ExpiresAt.Time
	p.revokedMu.Unlock()
	if already {
		return nil
	}

	if _, err := p.store.Insert(ctx, RevocationsCollection, map[string]any{
		"jti": c.ID,
		"exp": c.ExpiresAt.Unix(),
	}); err != nil {
		// Still revoked in memory until the daemon restarts.
		p.logger.Warn("persist revocation failed", zap.String("jti", c.ID), zap.Error(err))
	}
	if p.bus != nil {
		p.bus.Emit(bus.KindSignedOut, bus.SignedOut{UID: c.Subject, JTI: c.ID, Email: c.Email})
	}
	return nil
}

// Watch emits the principal for token right away (nil when the token is not
// valid), then a single nil once the token is revoked or expires, then closes.
// Cancelling ctx closes the channel without the trailing nil.
func (p *Provider) Watch(ctx context.Context, token string) (<-chan *Principal, error) {
	out := make(chan *Principal, 2)
	// Subscribe before verifying so a concurrent SignOut is not missed.
	events, unsub := p.subscribe()
	principal, err := p.Verify(token)
	if err != nil {
		unsub()
		out <- nil
		close(out)
		return out, nil
	}
	c, err := p.parse(token)
	if err != nil {
		unsub()
		return nil, err
	}
	out <- principal

	go func() {
		defer close(out)
		defer unsub()
		expiry := time.NewTimer(c.ExpiresAt.Sub(p.opts.Now()))
		defer expiry.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-expiry.C:
				out <- nil
				return
			case evt := <-events:
				if so, ok := evt.Payload.(bus.SignedOut); ok && so.JTI == c.ID {
					out <- nil
					return
				}
			}
		}
	}()
	return out, nil
}

func (p *Provider) subscribe() (<-chan bus.Event, func()) {
	if p.bus == nil {
		return nil, func() {}
	}
	return p.bus.Subscribe(bus.KindSignedOut, 16)
}

// AddOperator registers a new operator account.
func (p *Provider) AddOperator(ctx context.Context, email, password, displayName string) (*Principal, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = email
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	existing, err := p.findOperator(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrOperatorExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	id, err := p.store.Insert(ctx, OperatorsCollection, map[string]any{
		"email":        email,
		"displayName":  displayName,
		"passwordHash": string(hash),
		"disabled":     false,
	})
	if err != nil {
		return nil, fmt.Errorf("insert operator: %w", err)
	}
	p.logger.Info("operator added", zap.String("uid", id), zap.String("email", email))
	return &Principal{UID: id, Email: email, DisplayName: displayName}, nil
}

// SetDisabled enables or disables an operator by email.
func (p *Provider) SetDisabled(ctx context.Context, email string, disabled bool) error {
	doc, err := p.findOperator(ctx, email)
	if err != nil {
		return err
	}
	if doc == nil {
		return docstore.ErrNotFound
	}
	return p.store.Update(ctx, OperatorsCollection, doc.ID, map[string]any{"disabled": disabled})
}

// OperatorCount returns how many operators exist.
func (p *Provider) OperatorCount(ctx context.Context) (int, error) {
	return p.store.Count(ctx, OperatorsCollection)
}

func (p *Provider) findOperator(ctx context.Context, email string) (*docstore.Document, error) {
	docs, err := p.store.List(ctx, OperatorsCollection, docstore.Query{})
	if err != nil {
		return nil, fmt.Errorf("list operators: %w", err)
	}
	email = strings.TrimSpace(email)
	for i := range docs {
		if e, _ := docs[i].Data["email"].(string); strings.EqualFold(e, email) {
			return &docs[i], nil
		}
	}
	return nil, nil
}

func principalOf(doc *docstore.Document) *Principal {
	email, _ := doc.Data["email"].(string)
	name, _ := doc.Data["displayName"].(string)
	return &Principal{UID: doc.ID, Email: email, DisplayName: name}
}
