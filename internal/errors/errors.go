package errors

import (
	stderrors "errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type ErrorType string

const (
	ErrTypeNotFound     ErrorType = "NOT_FOUND"
	ErrTypeInvalidInput ErrorType = "INVALID_INPUT"
	ErrTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrTypeConflict     ErrorType = "CONFLICT"
	ErrTypeInternal     ErrorType = "INTERNAL"
	ErrTypeUnavailable  ErrorType = "UNAVAILABLE"
	ErrTypeRateLimit    ErrorType = "RATE_LIMIT"

	// Job board outcomes.
	ErrTypeDuplicate ErrorType = "DUPLICATE_APPLICATION"
	ErrTypeChallenge ErrorType = "CHALLENGE_REQUIRED"
	ErrTypeUpstream  ErrorType = "UPSTREAM"

	// Search pipeline outcomes.
	ErrTypeQueryExpansion ErrorType = "QUERY_EXPANSION_FAILED"
	ErrTypeFetch          ErrorType = "FETCH_FAILED"
)

// DomainError is the error value every collaborator returns. Ref carries a
// display reference when the type has one (the challenge URL).
type DomainError struct {
	Type    ErrorType
	Message string
	Ref     string
	Err     error
	Stack   []byte
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

func New(errType ErrorType, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func NotFound(message string, err error) *DomainError {
	return New(ErrTypeNotFound, message, err)
}

func InvalidInput(message string, err error) *DomainError {
	return New(ErrTypeInvalidInput, message, err)
}

func Unauthorized(message string, err error) *DomainError {
	return New(ErrTypeUnauthorized, message, err)
}

func Conflict(message string, err error) *DomainError {
	return New(ErrTypeConflict, message, err)
}

func Internal(message string, err error) *DomainError {
	return New(ErrTypeInternal, message, err)
}

func Unavailable(message string, err error) *DomainError {
	return New(ErrTypeUnavailable, message, err)
}

func RateLimit(message string, err error) *DomainError {
	return New(ErrTypeRateLimit, message, err)
}

func Duplicate(message string) *DomainError {
	return New(ErrTypeDuplicate, message, nil)
}

func Challenge(message, ref string) *DomainError {
	e := New(ErrTypeChallenge, message, nil)
	e.Ref = ref
	return e
}

func Upstream(message string, err error) *DomainError {
	return New(ErrTypeUpstream, message, err)
}

func QueryExpansion(message string, err error) *DomainError {
	return New(ErrTypeQueryExpansion, message, err)
}

func Fetch(message string, err error) *DomainError {
	return New(ErrTypeFetch, message, err)
}

// As returns the first DomainError in err's chain.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// TypeOf returns the DomainError type in err's chain, or "" for foreign errors.
func TypeOf(err error) ErrorType {
	if de, ok := As(err); ok {
		return de.Type
	}
	return ""
}

// RefOf returns the display reference carried by err, if any.
func RefOf(err error) string {
	if de, ok := As(err); ok {
		return de.Ref
	}
	return ""
}

func IsType(err error, t ErrorType) bool {
	return TypeOf(err) == t
}
