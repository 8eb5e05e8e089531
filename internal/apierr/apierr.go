// Package apierr defines the closed set of error kinds that may cross the HTTP
// boundary, together with the rules that turn an error record into the
// user-facing message and status code.
//
// Conventions:
//   - Message is user-facing and, when set, is always shown verbatim.
//   - Cause is internal. It is logged server-side and never rendered, with one
//     exception: a ValidationError without a Message shows its Cause, since a
//     validator's report is the message the client needs.
//   - The package is pure: no I/O, no logging, no framework types.
package apierr

import (
	"errors"
	"net/http"
)

// Kind classifies an Error. The set is closed.
type Kind int

const (
	InternalError Kind = iota
	DbError
	ValidationError
	NotFoundError
	ParseError
	Rejected
)

// Fixed public messages used when a record carries no Message.
const (
	MsgNotFound   = "The requested item was not found"
	MsgUnexpected = "An unexpected error has occurred"
)

var kindNames = map[Kind]string{
	DbError:         "DbError",
	ValidationError: "ValidationError",
	NotFoundError:   "NotFoundError",
	ParseError:      "ParseError",
	Rejected:        "Rejected",
	InternalError:   "InternalError",
}

// statusByKind is total over Kind.
var statusByKind = map[Kind]int{
	ValidationError: http.StatusBadRequest,
	NotFoundError:   http.StatusNotFound,
	Rejected:        http.StatusNotAcceptable,
	DbError:         http.StatusInternalServerError,
	ParseError:      http.StatusInternalServerError,
	InternalError:   http.StatusInternalServerError,
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "InternalError"
}

// StatusCode returns the HTTP status for kind. Unknown values are treated as
// InternalError.
func StatusCode(k Kind) int {
	if st, ok := statusByKind[k]; ok {
		return st
	}
	return http.StatusInternalServerError
}

// Error is an error record: a kind, an optional user-facing message and an
// optional internal cause.
type Error struct {
	Kind    Kind
	Message string // empty means unset
	Cause   error  // nil means unset
}

// Response is the JSON body written for every error.
type Response struct {
	Error string `json:"error"`
}

// New builds a record of the given kind with a user-facing message.
func New(message string, kind Kind) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation builds a ValidationError with a user-facing message.
func Validation(message string) *Error {
	return New(message, ValidationError)
}

// PublicMessage resolves the text shown to clients. First match wins:
//  1. Message, if set
//  2. MsgNotFound for NotFoundError
//  3. Cause for ValidationError, if set
//  4. MsgUnexpected
func (e *Error) PublicMessage() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Kind == NotFoundError:
		return MsgNotFound
	case e.Kind == ValidationError && e.Cause != nil:
		return e.Cause.Error()
	default:
		return MsgUnexpected
	}
}

// StatusCode returns the HTTP status for the record's kind.
func (e *Error) StatusCode() int { return StatusCode(e.Kind) }

// Response returns the body for the record. It never includes the cause
// beyond what PublicMessage allows.
func (e *Error) Response() Response {
	return Response{Error: e.PublicMessage()}
}

// Error renders the record for logs. The output may contain the cause and
// must not be sent to clients.
func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// As returns the first *Error in err's chain. Anything else is classified as
// InternalError with err as the cause. A nil err yields nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Kind: InternalError, Cause: err}
}
