// Package console holds the screen state of the admin console, independent
// of the terminal UI that renders it.
package console

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ValidationError rejects operator input before any remote call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// RemoteError is a failed store call. The local lists are unchanged.
type RemoteError struct {
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// remoteFailure logs a failed store call and wraps it.
func remoteFailure(logger *zap.Logger, op, collection, id string, err error) error {
	logger.Error("remote call failed",
		zap.String("op", op),
		zap.String("collection", collection),
		zap.String("id", id),
		zap.Error(err),
	)
	return &RemoteError{Op: op, Collection: collection, ID: id, Err: err}
}
