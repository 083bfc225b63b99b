// Package errors defines the coded errors shared by the CLI, the HTTP API
// and the MCP tools.
//
// Every error that crosses a boundary carries a [Code]: INVALID_* for bad
// input, *NOT_FOUND for missing maps and nodes, STORAGE_ERROR for backend
// failures. Engine errors from package tree are classified with [FromTree]:
//
//	if err := ed.SetVisibility(ctx, key, true, depth); err != nil {
//	    return errors.FromTree(err) // INVALID_DEPTH, NODE_NOT_FOUND, ...
//	}
package errors

import (
	"errors"
	"fmt"

	"github.com/matzehuels/mindmap/pkg/tree"
)

// Code is a machine-readable error class.
type Code string

const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidTree   Code = "INVALID_TREE"
	ErrCodeInvalidDepth  Code = "INVALID_DEPTH"
	ErrCodeInvalidName   Code = "INVALID_NAME"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidURL    Code = "INVALID_URL"

	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeMapNotFound  Code = "MAP_NOT_FOUND"
	ErrCodeNodeNotFound Code = "NODE_NOT_FOUND"

	ErrCodeStorage     Code = "STORAGE_ERROR"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of a coded error without its code and
// cause, or err.Error() for other errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// FromTree classifies an engine error. Integrity violations become
// INVALID_TREE, unknown keys NODE_NOT_FOUND, bad depths INVALID_DEPTH and
// other usage errors INVALID_INPUT. Errors that already carry a code, and
// errors the tree package did not produce, are returned unchanged.
func FromTree(err error) error {
	if err == nil || GetCode(err) != "" {
		return err
	}
	var (
		unknown *tree.UnknownNodeError
		depth   *tree.InvalidDepthError
	)
	switch {
	case errors.As(err, &unknown):
		return Wrap(ErrCodeNodeNotFound, err, "node %d does not exist", unknown.Key)
	case errors.As(err, &depth):
		return Wrap(ErrCodeInvalidDepth, err, "depth must be a non-negative integer")
	case errors.Is(err, tree.ErrIntegrity):
		return Wrap(ErrCodeInvalidTree, err, "mind map structure is invalid")
	case errors.Is(err, tree.ErrUsage):
		return Wrap(ErrCodeInvalidInput, err, "invalid operation")
	}
	return err
}
