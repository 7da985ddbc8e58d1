package rpc

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/matheus3301/chatadmin/internal/bus"
	"github.com/matheus3301/chatadmin/internal/docstore"
	"github.com/matheus3301/chatadmin/internal/entity"
	"github.com/matheus3301/chatadmin/internal/identity"
)

// DocumentsService serves chatadmin.v1.Documents from a store.
type DocumentsService struct {
	store  docstore.Store
	bus    *bus.Bus
	logger *zap.Logger
}

// NewDocumentsService creates a documents service.
func NewDocumentsService(store docstore.Store, b *bus.Bus, logger *zap.Logger) *DocumentsService {
	return &DocumentsService{store: store, bus: b, logger: logger}
}

func (s *DocumentsService) changed(collection, id, op string) {
	if s.bus != nil {
		s.bus.Emit(bus.KindDocChanged, bus.DocChanged{Collection: collection, ID: id, Op: op})
	}
}

// guard keeps operator and revocation records behind the identity service.
func guard(collection string) error {
	if identity.Owns(collection) {
		return fmt.Errorf("%w: %s", ErrReservedCollection, collection)
	}
	return nil
}

func (s *DocumentsService) List(ctx context.Context, req *listRequest) (*listResponse, error) {
	if err := guard(req.Collection); err != nil {
		return nil, err
	}
	docs, err := s.store.List(ctx, req.Collection, docstore.Query{OrderBy: req.OrderBy, Descending: req.Descending})
	if err != nil {
		return nil, err
	}
	resp := &listResponse{Documents: make([]documentMsg, 0, len(docs))}
	for _, d := range docs {
		resp.Documents = append(resp.Documents, documentMsg{ID: d.ID, Data: d.Data})
	}
	return resp, nil
}

func (s *DocumentsService) Get(ctx context.Context, req *keyRequest) (*documentMsg, error) {
	if err := guard(req.Collection); err != nil {
		return nil, err
	}
	doc, err := s.store.Get(ctx, req.Collection, req.ID)
	if err != nil {
		return nil, err
	}
	return &documentMsg{ID: doc.ID, Data: doc.Data}, nil
}

func (s *DocumentsService) Insert(ctx context.Context, req *insertRequest) (*insertResponse, error) {
	if err := guard(req.Collection); err != nil {
		return nil, err
	}
	id, err := s.store.Insert(ctx, req.Collection, req.Data)
	if err != nil {
		return nil, err
	}
	s.changed(req.Collection, id, "insert")
	return &insertResponse{ID: id}, nil
}

func (s *DocumentsService) Update(ctx context.Context, req *updateRequest) error {
	if err := guard(req.Collection); err != nil {
		return err
	}
	if err := s.store.Update(ctx, req.Collection, req.ID, req.Fields); err != nil {
		return err
	}
	s.changed(req.Collection, req.ID, "update")
	return nil
}

func (s *DocumentsService) Delete(ctx context.Context, req *keyRequest) error {
	if err := guard(req.Collection); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, req.Collection, req.ID); err != nil {
		return err
	}
	s.changed(req.Collection, req.ID, "delete")
	return nil
}

func (s *DocumentsService) Append(ctx context.Context, req *appendRequest) (*appendResponse, error) {
	if err := guard(req.Collection); err != nil {
		return nil, err
	}
	out, err := s.store.Append(ctx, req.Collection, req.ID, req.Field, req.Values...)
	if err != nil {
		return nil, err
	}
	s.changed(req.Collection, req.ID, "append")
	return &appendResponse{Values: out}, nil
}

func (s *DocumentsService) Count(ctx context.Context, req *countRequest) (*countResponse, error) {
	if err := guard(req.Collection); err != nil {
		return nil, err
	}
	n, err := s.store.Count(ctx, req.Collection)
	if err != nil {
		return nil, err
	}
	return &countResponse{Count: n}, nil
}

// Authority is the identity provider surface the daemon serves.
type Authority interface {
	Verifier
	SignIn(ctx context.Context, email, password string) (string, *identity.Principal, error)
	SignOut(ctx context.Context, token string) error
	Watch(ctx context.Context, token string) (<-chan *identity.Principal, error)
	AddOperator(ctx context.Context, email, password, displayName string) (*identity.Principal, error)
	OperatorCount(ctx context.Context) (int, error)
}

// IdentityService serves chatadmin.v1.Identity.
type IdentityService struct {
	auth   Authority
	logger *zap.Logger
}

// NewIdentityService creates an identity service.
func NewIdentityService(auth Authority, logger *zap.Logger) *IdentityService {
	return &IdentityService{auth: auth, logger: logger}
}

func (s *IdentityService) SignIn(ctx context.Context, req *signInRequest) (*signInResponse, error) {
	token, p, err := s.auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		s.logger.Info("sign in rejected", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}
	s.logger.Info("operator signed in", zap.String("uid", p.UID))
	return &signInResponse{Token: token, Principal: p}, nil
}

func (s *IdentityService) SignOut(ctx context.Context) error {
	return s.auth.SignOut(ctx, tokenFrom(ctx))
}

func (s *IdentityService) Whoami(ctx context.Context) (*principalMsg, error) {
	return &principalMsg{Principal: PrincipalFrom(ctx)}, nil
}

// AddOperator needs a signed-in caller once the first operator exists.
func (s *IdentityService) AddOperator(ctx context.Context, req *addOperatorRequest) (*principalMsg, error) {
	if PrincipalFrom(ctx) == nil {
		n, err := s.auth.OperatorCount(ctx)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, status.Error(codes.Unauthenticated, "sign in to add operators")
		}
	}
	p, err := s.auth.AddOperator(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		return nil, err
	}
	return &principalMsg{Principal: p}, nil
}

func (s *IdentityService) WatchAuthState(stream grpc.ServerStream) error {
	if err := stream.RecvMsg(new(emptypb.Empty)); err != nil {
		return err
	}
	ctx := stream.Context()
	ch, err := s.auth.Watch(ctx, tokenFrom(ctx))
	if err != nil {
		return toStatus(err)
	}
	for p := range ch {
		msg, err := toStruct(principalMsg{Principal: p})
		if err != nil {
			return status.Error(codes.Internal, err.Error())
		}
		if err := stream.SendMsg(msg); err != nil {
			return err
		}
	}
	return nil
}

// DaemonService serves chatadmin.v1.Daemon.
type DaemonService struct {
	profile   string
	driver    string
	startedAt time.Time
	store     docstore.Store
	auth      Authority
}

// NewDaemonService creates a daemon status service.
func NewDaemonService(profile, driver string, store docstore.Store, auth Authority) *DaemonService {
	return &DaemonService{
		profile:   profile,
		driver:    driver,
		startedAt: time.Now(),
		store:     store,
		auth:      auth,
	}
}

// Status counts are best effort; a failing collection reports zero.
func (s *DaemonService) Status(ctx context.Context) (*StatusInfo, error) {
	info := &StatusInfo{
		Profile: s.profile,
		Driver:  s.driver,
		PID:     os.Getpid(),
		Uptime:  time.Since(s.startedAt),
	}
	if n, err := s.auth.OperatorCount(ctx); err == nil {
		info.Operators = n
	}
	if n, err := s.store.Count(ctx, entity.UsersCollection); err == nil {
		info.Users = n
	}
	if n, err := s.store.Count(ctx, entity.ChatsCollection); err == nil {
		info.Chats = n
	}
	return info, nil
}
