package fincache

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/unkn0wn-root/fincache/credential"
)

// ErrorKind is the failure taxonomy every backend error is folded into.
type ErrorKind uint8

const (
	// KindTransient covers network failures, timeouts and 5xx. Safe to retry.
	KindTransient ErrorKind = iota
	// KindValidation is a rejected input (4xx other than 401/403, or a local check).
	KindValidation
	// KindAuthInvalid means the session is gone (401/403 or no token).
	KindAuthInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthInvalid:
		return "auth_invalid"
	default:
		return "transient"
	}
}

// Sentinels for errors.Is against *Error.
var (
	ErrTransient   = errors.New("fincache: transient failure")
	ErrValidation  = errors.New("fincache: validation failed")
	ErrAuthInvalid = errors.New("fincache: session invalid")
)

// Operations reported in Error.Op.
const (
	OpFetch   = "fetch"
	OpRefresh = "refresh" // follow-up refetch after a successful write
	OpCreate  = "create"
	OpUpdate  = "update"
	OpRemove  = "remove"
	OpFilter  = "filter"
	OpLogin   = "login"
	OpProfile = "profile"
)

// StatusError is implemented by transport errors that carry an HTTP status
// and the server's optional message.
type StatusError interface {
	error
	StatusCode() int
	ServerMessage() string
}

// Error is returned by every Client operation that fails.
type Error struct {
	Op      string
	Key     Key // empty for operations not tied to a resource
	Kind    ErrorKind
	Status  int    // HTTP status, 0 when none
	Message string // human-readable reason, from the server when it sent one
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("fincache: ")
	b.WriteString(e.Op)
	if e.Key != "" {
		b.WriteByte(' ')
		b.WriteString(string(e.Key))
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if msg := e.UserMessage(); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	return b.String()
}

// UserMessage is the text to show to a person.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransient:
		return e.Kind == KindTransient
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrAuthInvalid:
		return e.Kind == KindAuthInvalid
	}
	return false
}

// Classify folds an arbitrary error into the taxonomy. Unknown errors are
// transient.
func Classify(err error) ErrorKind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, credential.ErrNoToken) {
		return KindAuthInvalid
	}
	var se StatusError
	if errors.As(err, &se) {
		return classifyStatus(se.StatusCode())
	}
	// network errors, timeouts, cancellation and anything unrecognized
	return KindTransient
}

func classifyStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthInvalid
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindTransient
	}
}

// wrapErr returns err as an *Error tagged with op and key. An *Error already
// in the chain keeps its kind and message.
func wrapErr(op string, key Key, err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		if fe.Op == op && fe.Key == key {
			return fe
		}
		return &Error{Op: op, Key: key, Kind: fe.Kind, Status: fe.Status, Message: fe.Message, Err: err}
	}
	e := &Error{Op: op, Key: key, Kind: Classify(err), Err: err}
	var se StatusError
	if errors.As(err, &se) {
		e.Status = se.StatusCode()
		e.Message = se.ServerMessage()
	}
	return e
}

func validationErr(op string, key Key, format string, args ...any) *Error {
	return &Error{Op: op, Key: key, Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}
