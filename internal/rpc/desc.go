package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	documentsServiceName = "chatadmin.v1.Documents"
	identityServiceName  = "chatadmin.v1.Identity"
	daemonServiceName    = "chatadmin.v1.Daemon"
)

// Full method names.
const (
	MethodList   = "/" + documentsServiceName + "/List"
	MethodGet    = "/" + documentsServiceName + "/Get"
	MethodInsert = "/" + documentsServiceName + "/Insert"
	MethodUpdate = "/" + documentsServiceName + "/Update"
	MethodDelete = "/" + documentsServiceName + "/Delete"
	MethodAppend = "/" + documentsServiceName + "/Append"
	MethodCount  = "/" + documentsServiceName + "/Count"

	MethodSignIn         = "/" + identityServiceName + "/SignIn"
	MethodSignOut        = "/" + identityServiceName + "/SignOut"
	MethodWhoami         = "/" + identityServiceName + "/Whoami"
	MethodAddOperator    = "/" + identityServiceName + "/AddOperator"
	MethodWatchAuthState = "/" + identityServiceName + "/WatchAuthState"

	MethodStatus = "/" + daemonServiceName + "/Status"
)

// unary builds a method handler that decodes a Struct into Req, calls fn
// and encodes the result. A nil result is sent as google.protobuf.Empty.
func unary[S, Req any](name, fullMethod string, fn func(srv S, ctx context.Context, req *Req) (any, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				r := new(Req)
				if err := fromStruct(req.(*structpb.Struct), r); err != nil {
					return nil, status.Error(codes.InvalidArgument, err.Error())
				}
				resp, err := fn(srv.(S), ctx, r)
				if err != nil {
					return nil, toStatus(err)
				}
				if resp == nil {
					return &emptypb.Empty{}, nil
				}
				out, err := toStruct(resp)
				if err != nil {
					return nil, status.Error(codes.Internal, err.Error())
				}
				return out, nil
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// documentsServer is the server API for chatadmin.v1.Documents.
type documentsServer interface {
	List(ctx context.Context, req *listRequest) (*listResponse, error)
	Get(ctx context.Context, req *keyRequest) (*documentMsg, error)
	Insert(ctx context.Context, req *insertRequest) (*insertResponse, error)
	Update(ctx context.Context, req *updateRequest) error
	Delete(ctx context.Context, req *keyRequest) error
	Append(ctx context.Context, req *appendRequest) (*appendResponse, error)
	Count(ctx context.Context, req *countRequest) (*countResponse, error)
}

// identityServer is the server API for chatadmin.v1.Identity.
type identityServer interface {
	SignIn(ctx context.Context, req *signInRequest) (*signInResponse, error)
	SignOut(ctx context.Context) error
	Whoami(ctx context.Context) (*principalMsg, error)
	AddOperator(ctx context.Context, req *addOperatorRequest) (*principalMsg, error)
	WatchAuthState(stream grpc.ServerStream) error
}

// daemonServer is the server API for chatadmin.v1.Daemon.
type daemonServer interface {
	Status(ctx context.Context) (*StatusInfo, error)
}

type empty struct{}

var documentsDesc = grpc.ServiceDesc{
	ServiceName: documentsServiceName,
	HandlerType: (*documentsServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("List", MethodList, func(s documentsServer, ctx context.Context, r *listRequest) (any, error) {
			return s.List(ctx, r)
		}),
		unary("Get", MethodGet, func(s documentsServer, ctx context.Context, r *keyRequest) (any, error) {
			return s.Get(ctx, r)
		}),
		unary("Insert", MethodInsert, func(s documentsServer, ctx context.Context, r *insertRequest) (any, error) {
			return s.Insert(ctx, r)
		}),
		unary("Update", MethodUpdate, func(s documentsServer, ctx context.Context, r *updateRequest) (any, error) {
			return nil, s.Update(ctx, r)
		}),
		unary("Delete", MethodDelete, func(s documentsServer, ctx context.Context, r *keyRequest) (any, error) {
			return nil, s.Delete(ctx, r)
		}),
		unary("Append", MethodAppend, func(s documentsServer, ctx context.Context, r *appendRequest) (any, error) {
			return s.Append(ctx, r)
		}),
		unary("Count", MethodCount, func(s documentsServer, ctx context.Context, r *countRequest) (any, error) {
			return s.Count(ctx, r)
		}),
	},
	Metadata: "chatadmin/v1/documents",
}

var watchAuthStateDesc = grpc.StreamDesc{
	StreamName:    "WatchAuthState",
	ServerStreams: true,
	Handler: func(srv any, stream grpc.ServerStream) error {
		return srv.(identityServer).WatchAuthState(stream)
	},
}

var identityDesc = grpc.ServiceDesc{
	ServiceName: identityServiceName,
	HandlerType: (*identityServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("SignIn", MethodSignIn, func(s identityServer, ctx context.Context, r *signInRequest) (any, error) {
			return s.SignIn(ctx, r)
		}),
		unary("SignOut", MethodSignOut, func(s identityServer, ctx context.Context, _ *empty) (any, error) {
			return nil, s.SignOut(ctx)
		}),
		unary("Whoami", MethodWhoami, func(s identityServer, ctx context.Context, _ *empty) (any, error) {
			return s.Whoami(ctx)
		}),
		unary("AddOperator", MethodAddOperator, func(s identityServer, ctx context.Context, r *addOperatorRequest) (any, error) {
			return s.AddOperator(ctx, r)
		}),
	},
	Streams:  []grpc.StreamDesc{watchAuthStateDesc},
	Metadata: "chatadmin/v1/identity",
}

var daemonDesc = grpc.ServiceDesc{
	ServiceName: daemonServiceName,
	HandlerType: (*daemonServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Status", MethodStatus, func(s daemonServer, ctx context.Context, _ *empty) (any, error) {
			return s.Status(ctx)
		}),
	},
	Metadata: "chatadmin/v1/daemon",
}

// Register adds the three services to srv.
func Register(srv *grpc.Server, docs documentsServer, ident identityServer, daemon daemonServer) {
	srv.RegisterService(&documentsDesc, docs)
	srv.RegisterService(&identityDesc, ident)
	srv.RegisterService(&daemonDesc, daemon)
}
