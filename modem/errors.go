package modem

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by Client.Fetch.
type ErrorKind int

const (
	// KindUnknown covers anything not otherwise classified.
	KindUnknown ErrorKind = iota

	// KindHTTPConnection is a transport or connect failure.
	KindHTTPConnection

	// KindAccess is an authentication failure or a vendor error document.
	KindAccess

	// KindDataParsing is a required field that is missing or unparsable.
	KindDataParsing
)

func (k ErrorKind) String() string {
	switch k {
	case KindHTTPConnection:
		return "http_connection"
	case KindAccess:
		return "access"
	case KindDataParsing:
		return "data_parsing"
	default:
		return "unknown"
	}
}

// Label returns the short human readable text shown to users.
func (k ErrorKind) Label() string {
	switch k {
	case KindHTTPConnection:
		return "HTTP Error"
	case KindAccess:
		return "Access Error"
	case KindDataParsing:
		return "Data Parsing Error"
	default:
		return "Unknown error"
	}
}

// Error is returned by clients. Use errors.Is with the Err* sentinels or KindOf.
type Error struct {
	Kind ErrorKind

	// Op is the request or step that failed
	Op string

	Err error
}

func (e *Error) Error() string {
	msg := "modem: " + e.Kind.Label()
	if e.Op != "" {
		msg += " (" + e.Op + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// Sentinels for errors.Is.
var (
	ErrHTTPConnection = &Error{Kind: KindHTTPConnection}
	ErrAccess         = &Error{Kind: KindAccess}
	ErrDataParsing    = &Error{Kind: KindDataParsing}
	ErrUnknown        = &Error{Kind: KindUnknown}
)

// KindOf returns the kind of err, KindUnknown when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func errorf(kind ErrorKind, op string, format string, args ...any) *Error {
	return newError(kind, op, fmt.Errorf(format, args...))
}
