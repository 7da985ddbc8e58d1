package rpc

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/matheus3301/chatadmin/internal/docstore"
	"github.com/matheus3301/chatadmin/internal/identity"
)

// ErrReservedCollection rejects document access to the identity
// provider's collections.
var ErrReservedCollection = errors.New("rpc: collection is reserved")

// sentinels lists the errors that survive the round trip, with the code
// each travels as.
var sentinels = []struct {
	err  error
	code codes.Code
}{
	{docstore.ErrNotFound, codes.NotFound},
	{docstore.ErrInvalidCollection, codes.InvalidArgument},
	{docstore.ErrInvalidID, codes.InvalidArgument},
	{docstore.ErrNotArray, codes.InvalidArgument},
	{identity.ErrInvalidEmail, codes.InvalidArgument},
	{identity.ErrWeakPassword, codes.InvalidArgument},
	{identity.ErrInvalidCredentials, codes.Unauthenticated},
	{identity.ErrInvalidToken, codes.Unauthenticated},
	{identity.ErrDisabled, codes.PermissionDenied},
	{identity.ErrOperatorExists, codes.AlreadyExists},
	{ErrReservedCollection, codes.PermissionDenied},
}

// toStatus converts a service error into a gRPC status error.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return status.Error(s.code, err.Error())
		}
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// fromStatus turns a status error back into the sentinel it came from, so
// callers can keep using errors.Is across the socket.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	msg := st.Message()
	for _, s := range sentinels {
		if st.Code() == s.code && strings.HasPrefix(msg, s.err.Error()) {
			return &remoteError{sentinel: s.err, st: st}
		}
	}
	return err
}

// remoteError matches its sentinel with errors.Is and keeps the gRPC
// status for status.Code.
type remoteError struct {
	sentinel error
	st       *status.Status
}

func (e *remoteError) Error() string { return e.st.Message() }
func (e *remoteError) Unwrap() error { return e.sentinel }
func (e *remoteError) GRPCStatus() *status.Status { return e.st }
