package rpc

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/matheus3301/chatadmin/internal/docstore"
	"github.com/matheus3301/chatadmin/internal/identity"
)

// Client wraps the gRPC connection to a daemon.
type Client struct {
	conn  *grpc.ClientConn
	creds *tokenCreds

	Documents *Documents
	Identity  *Identity
	Daemon    *Daemon
}

// Dial connects to the daemon's Unix domain socket. The connection is lazy;
// the first call fails if no daemon is listening.
func Dial(socketPath string) (*Client, error) {
	creds := &tokenCreds{}
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	c := &Client{conn: conn, creds: creds}
	c.Documents = &Documents{conn: conn}
	c.Identity = &Identity{conn: conn, creds: creds}
	c.Daemon = &Daemon{conn: conn}
	return c, nil
}

// SetToken sets the bearer token sent with every call.
func (c *Client) SetToken(token string) { c.creds.set(token) }

// Token returns the current bearer token.
func (c *Client) Token() string { return c.creds.get() }

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func invoke(ctx context.Context, conn *grpc.ClientConn, method string, req, resp any) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, method, in, out); err != nil {
		return fromStatus(err)
	}
	return fromStruct(out, resp)
}

func invokeVoid(ctx context.Context, conn *grpc.ClientConn, method string, req any) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	if err := conn.Invoke(ctx, method, in, new(emptypb.Empty)); err != nil {
		return fromStatus(err)
	}
	return nil
}

// Documents is a docstore.Store whose backend is the daemon.
type Documents struct {
	conn *grpc.ClientConn
}

var _ docstore.Store = (*Documents)(nil)

func (d *Documents) List(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	var resp listResponse
	req := listRequest{Collection: collection, OrderBy: q.OrderBy, Descending: q.Descending}
	if err := invoke(ctx, d.conn, MethodList, req, &resp); err != nil {
		return nil, err
	}
	docs := make([]docstore.Document, 0, len(resp.Documents))
	for _, m := range resp.Documents {
		docs = append(docs, docstore.Document{ID: m.ID, Data: orEmpty(m.Data)})
	}
	return docs, nil
}

func (d *Documents) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	var resp documentMsg
	if err := invoke(ctx, d.conn, MethodGet, keyRequest{Collection: collection, ID: id}, &resp); err != nil {
		return nil, err
	}
	return &docstore.Document{ID: resp.ID, Data: orEmpty(resp.Data)}, nil
}

func (d *Documents) Insert(ctx context.Context, collection string, data map[string]any) (string, error) {
	var resp insertResponse
	if err := invoke(ctx, d.conn, MethodInsert, insertRequest{Collection: collection, Data: data}, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (d *Documents) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return invokeVoid(ctx, d.conn, MethodUpdate, updateRequest{Collection: collection, ID: id, Fields: fields})
}

func (d *Documents) Delete(ctx context.Context, collection, id string) error {
	return invokeVoid(ctx, d.conn, MethodDelete, keyRequest{Collection: collection, ID: id})
}

func (d *Documents) Append(ctx context.Context, collection, id, field string, values ...any) ([]any, error) {
	var resp appendResponse
	req := appendRequest{Collection: collection, ID: id, Field: field, Values: values}
	if err := invoke(ctx, d.conn, MethodAppend, req, &resp); err != nil {
		return nil, err
	}
	if resp.Values == nil {
		resp.Values = []any{}
	}
	return resp.Values, nil
}

func (d *Documents) Count(ctx context.Context, collection string) (int, error) {
	var resp countResponse
	if err := invoke(ctx, d.conn, MethodCount, countRequest{Collection: collection}, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Close is a no-op; the owning Client closes the connection.
func (d *Documents) Close() error { return nil }

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// Identity calls chatadmin.v1.Identity.
type Identity struct {
	conn  *grpc.ClientConn
	creds *tokenCreds
}

// SignIn authenticates and, on success, sends the new token with later calls.
func (i *Identity) SignIn(ctx context.Context, email, password string) (string, *identity.Principal, error) {
	var resp signInResponse
	if err := invoke(ctx, i.conn, MethodSignIn, signInRequest{Email: email, Password: password}, &resp); err != nil {
		return "", nil, err
	}
	i.creds.set(resp.Token)
	return resp.Token, resp.Principal, nil
}

// SetToken sends token with later calls, e.g. one restored from disk.
func (i *Identity) SetToken(token string) { i.creds.set(token) }

// SignOut revokes the current token and stops sending it.
func (i *Identity) SignOut(ctx context.Context) error {
	err := invokeVoid(ctx, i.conn, MethodSignOut, empty{})
	if err == nil {
		i.creds.set("")
	}
	return err
}

// Whoami returns the principal for the current token, nil when signed out.
func (i *Identity) Whoami(ctx context.Context) (*identity.Principal, error) {
	var resp principalMsg
	if err := invoke(ctx, i.conn, MethodWhoami, empty{}, &resp); err != nil {
		return nil, err
	}
	return resp.Principal, nil
}

// AddOperator registers an operator.
func (i *Identity) AddOperator(ctx context.Context, email, password, displayName string) (*identity.Principal, error) {
	var resp principalMsg
	req := addOperatorRequest{Email: email, Password: password, DisplayName: displayName}
	if err := invoke(ctx, i.conn, MethodAddOperator, req, &resp); err != nil {
		return nil, err
	}
	return resp.Principal, nil
}

// Watch streams auth state for the current token: the principal or nil
// right away, then nil when the session ends. The channel closes when the
// stream ends or ctx is cancelled.
func (i *Identity) Watch(ctx context.Context) (<-chan *identity.Principal, error) {
	stream, err := i.conn.NewStream(ctx, &watchAuthStateDesc, MethodWatchAuthState)
	if err != nil {
		return nil, fromStatus(err)
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, fromStatus(err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fromStatus(err)
	}

	out := make(chan *identity.Principal, 1)
	go func() {
		defer close(out)
		for {
			msg := new(structpb.Struct)
			if err := stream.RecvMsg(msg); err != nil {
				if err != io.EOF && ctx.Err() == nil {
					// Daemon went away: report signed out.
					select {
					case out <- nil:
					case <-ctx.Done():
					}
				}
				return
			}
			var pm principalMsg
			if err := fromStruct(msg, &pm); err != nil {
				return
			}
			select {
			case out <- pm.Principal:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Daemon calls chatadmin.v1.Daemon.
type Daemon struct {
	conn *grpc.ClientConn
}

// Status returns the daemon's status.
func (d *Daemon) Status(ctx context.Context) (*StatusInfo, error) {
	var info StatusInfo
	if err := invoke(ctx, d.conn, MethodStatus, empty{}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
