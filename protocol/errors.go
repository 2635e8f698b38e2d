package protocol

import "fmt"

// Kind is the error taxonomy from spec.md §7. A reply that fails is
// surfaced to the caller only as (success, message) on the wire — Kind is
// not a wire field; its name reaches the caller only as the prefix that
// Error renders into the message text.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindInsufficientFunds
	KindAlreadyOwned
	KindTransport
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFoundError"
	case KindInsufficientFunds:
		return "InsufficientFundsError"
	case KindAlreadyOwned:
		return "AlreadyOwnedError"
	case KindTransport:
		return "TransportError"
	case KindState:
		return "StateError"
	default:
		return "UnknownError"
	}
}

// Error is the internal representation of a failed operation. Handlers
// reply with success=false and use its Error() text ("<Kind>: <message>")
// as the reply's message; they do not inspect Kind.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return NewError(KindValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return NewError(KindNotFound, format, args...)
}

func InsufficientFunds(format string, args ...any) *Error {
	return NewError(KindInsufficientFunds, format, args...)
}

func AlreadyOwned(format string, args ...any) *Error {
	return NewError(KindAlreadyOwned, format, args...)
}

func Transport(format string, args ...any) *Error {
	return NewError(KindTransport, format, args...)
}

func State(format string, args ...any) *Error {
	return NewError(KindState, format, args...)
}
