package scheduler

import (
	"errors"
	"fmt"

	"github.com/evcore/evcore/tlsslot"
)

// Sentinel errors, matched via errors.Is against *Error.Code.
var (
	ErrNotFound  = errors.New("scheduler: not found")
	ErrNotValid  = errors.New("scheduler: schedule is not valid")
	ErrLimit     = errors.New("scheduler: max_descriptors exceeded")
	ErrInvalid   = errors.New("scheduler: invalid argument")
	ErrExists    = errors.New("scheduler: already exists")
	ErrUnsupport = errors.New("scheduler: unsupported platform operation")
)

// Error is the structured error type every fallible scheduler operation
// returns, modeled on go-ublk's *Error{Op,Code,Errno,Msg,Inner}: an
// operation name, an ErrCode category, and an optional wrapped cause.
type Error struct {
	Op    string
	Code  tlsslot.ErrCode
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("scheduler: %s: %s (%s)", e.Op, e.Msg, e.Code)
	}
	return fmt.Sprintf("scheduler: %s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Inner }

// Is matches against the package sentinel errors by ErrCode category, the
// same way go-ublk's *Error.Is matches UblkErrorCode.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == tlsslot.NotFound
	case ErrNotValid:
		return e.Code == tlsslot.NotValid
	case ErrLimit:
		return e.Code == tlsslot.Limit
	case ErrInvalid:
		return e.Code == tlsslot.InvalidArgument
	case ErrExists:
		return e.Code == tlsslot.AlreadyExists
	}
	return false
}

func fail(op string, code tlsslot.ErrCode, msg string) *Error {
	tlsslot.SetError(code, msg)
	return &Error{Op: op, Code: code, Msg: msg}
}

func failWrap(op string, code tlsslot.ErrCode, inner error) *Error {
	tlsslot.SetError(code, inner.Error())
	return &Error{Op: op, Code: code, Msg: inner.Error(), Inner: inner}
}
