package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Error kinds. Every operation fails with exactly one of these; facades
// translate them to client-visible statuses with errors.Is.
var (
	ErrTraversal  = errors.New("path escapes volume root")
	ErrNotFound   = errors.New("no such file or directory")
	ErrExists     = errors.New("already exists")
	ErrNotDir     = errors.New("not a directory")
	ErrIsDir      = errors.New("is a directory")
	ErrEncoding   = errors.New("invalid encoding")
	ErrPermission = errors.New("permission denied")
	ErrIO         = errors.New("i/o error")
)

// Error records a failed operation against a client-relative path.
type Error struct {
	Op   string // "read", "write", "delete", ...
	Path string // path as the client supplied it
	Kind error  // one of the sentinel kinds above
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Kind)
}

// Is matches against the error kind so callers can use errors.Is with the
// package sentinels regardless of the wrapped cause.
func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

func opError(op, path string, kind error, err error) *Error {
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

// wrapOS maps an operating-system error onto one of the engine's kinds.
func wrapOS(op, path string, err error) error {
	if err == nil {
		return nil
	}
	kind := ErrIO
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = ErrNotFound
	case errors.Is(err, fs.ErrExist):
		kind = ErrExists
	case errors.Is(err, fs.ErrPermission):
		kind = ErrPermission
	case errors.Is(err, syscall.ENOTDIR):
		kind = ErrNotDir
	case errors.Is(err, syscall.EISDIR):
		kind = ErrIsDir
	}
	return opError(op, path, kind, err)
}
