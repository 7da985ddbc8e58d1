package rpc

import (
	"context"
	"strings"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/matheus3301/chatadmin/internal/identity"
)

const authorizationKey = "authorization"

// openMethods are served without a valid token. AddOperator enforces its
// own bootstrap rule; SignOut and WatchAuthState report invalid tokens in
// their own way.
var openMethods = map[string]bool{
	MethodSignIn:         true,
	MethodSignOut:        true,
	MethodStatus:         true,
	MethodAddOperator:    true,
	MethodWatchAuthState: true,
}

// Verifier checks bearer tokens.
type Verifier interface {
	Verify(token string) (*identity.Principal, error)
}

type principalKey struct{}
type tokenKey struct{}

// PrincipalFrom returns the operator the interceptor authenticated, if any.
func PrincipalFrom(ctx context.Context) *identity.Principal {
	p, _ := ctx.Value(principalKey{}).(*identity.Principal)
	return p
}

func tokenFrom(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get(authorizationKey)
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(vals[0], "Bearer "))
}

// authenticate attaches the token and, when it verifies, the principal.
func authenticate(ctx context.Context, v Verifier, method string) (context.Context, error) {
	tok := bearerToken(ctx)
	ctx = context.WithValue(ctx, tokenKey{}, tok)
	if tok != "" {
		if p, err := v.Verify(tok); err == nil {
			return context.WithValue(ctx, principalKey{}, p), nil
		}
	}
	if openMethods[method] {
		return ctx, nil
	}
	return nil, status.Error(codes.Unauthenticated, identity.ErrInvalidToken.Error())
}

// UnaryAuth rejects unary calls without a valid token, except openMethods.
func UnaryAuth(v Verifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, err := authenticate(ctx, v, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamAuth is the streaming counterpart of UnaryAuth.
func StreamAuth(v Verifier) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := authenticate(ss.Context(), v, info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &authStream{ServerStream: ss, ctx: ctx})
	}
}

type authStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authStream) Context() context.Context { return s.ctx }

// tokenCreds sends the current token with every call.
type tokenCreds struct {
	mu    sync.RWMutex
	token string
}

func (c *tokenCreds) set(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *tokenCreds) get() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *tokenCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	tok := c.get()
	if tok == "" {
		return nil, nil
	}
	return map[string]string{authorizationKey: "Bearer " + tok}, nil
}

// RequireTransportSecurity is false: the socket is 0600 and local.
func (c *tokenCreds) RequireTransportSecurity() bool { return false }
