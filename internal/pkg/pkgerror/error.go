package pkgerror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when a record id is unknown to the cache.
	ErrNotFound = errors.New("resource not found")

	// ErrStaleData is wrapped when a refresh failed and the previous snapshot is
	// still being served.
	ErrStaleData = errors.New("data may be stale")
)

// Type is the broad origin of an error.
type Type int

const (
	TypeServer     Type = iota // this process or the compression service failed
	TypeBusiness               // a rule was not met, or the service refused
	TypeValidation             // caller input was wrong; nothing was sent
)

func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code selects the HTTP status at the edge and the failure message of a job.
type Code int

const (
	CodeInternal      Code = iota
	CodeInvalidFormat      // body could not be parsed
	CodeInvalidInput       // body parsed, values rejected
	CodeNotFound
	CodeConflict    // a job or download is already running
	CodeTimeout     // compression service did not answer in time
	CodeUnavailable // compression service unreachable
	CodeUpstream    // compression service answered with an error
)

func (c Code) String() string {
	switch c {
	case CodeInvalidFormat:
		return "ERROR_CODE_INVALID_FORMAT"
	case CodeInvalidInput:
		return "ERROR_CODE_INVALID_INPUT"
	case CodeNotFound:
		return "ERROR_CODE_NOT_FOUND"
	case CodeConflict:
		return "ERROR_CODE_CONFLICT"
	case CodeTimeout:
		return "ERROR_CODE_TIMEOUT"
	case CodeUnavailable:
		return "ERROR_CODE_UNAVAILABLE"
	case CodeUpstream:
		return "ERROR_CODE_UPSTREAM"
	default:
		return "ERROR_CODE_INTERNAL"
	}
}

// Error wraps a cause with a message that is safe to show a user.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	if e.msg != "" {
		return e.msg
	}

	switch e.errType {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Logical business not meet with requirement"
	case TypeServer:
		return "Internal error"
	default:
		return "Unknown error"
	}
}

// String is the verbose form used in debug logs.
func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string   { return e.msg }
func (e *Error) Type() Type    { return e.errType }
func (e *Error) Code() Code    { return e.code }
func (e *Error) Unwrap() error { return e.err }

func (e *Error) StatusCode() int {
	switch e.code {
	case CodeInvalidFormat:
		return http.StatusBadRequest
	case CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func new(err error, msg string, et Type, code Code) error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

func NewServer(err error) error {
	return new(err, "Internal server error", TypeServer, CodeInternal)
}

func NewBusiness(msg string, code Code) error {
	return new(nil, msg, TypeBusiness, code)
}

// NewInvalidInput keeps err as the text shown to the caller.
func NewInvalidInput(err error) error {
	return new(err, "validation error", TypeValidation, CodeInvalidInput)
}

func NewInvalidFormat() error {
	return new(nil, "invalid request body", TypeValidation, CodeInvalidFormat)
}

// NewTransport classifies a failed round trip to the compression service.
// Deadline errors become CodeTimeout, everything else CodeUnavailable.
func NewTransport(err error) error {
	var te interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &te) && te.Timeout()) {
		return new(err, "Compression service timed out", TypeServer, CodeTimeout)
	}
	return new(err, "Compression service is unreachable", TypeServer, CodeUnavailable)
}

// NewService carries the message the compression service put in its error
// payload, verbatim.
func NewService(msg string) error {
	return new(nil, msg, TypeBusiness, CodeUpstream)
}
