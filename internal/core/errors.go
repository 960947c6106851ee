package core

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a domain error for transport mapping.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindState
	KindStorage
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindState:
		return "state"
	case KindStorage:
		return "storage"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Stable error codes surfaced to callers.
const (
	CodeInvalid         = "INVALID"
	CodeNotFound        = "NOT_FOUND"
	CodeNotPending      = "NOT_PENDING"
	CodeKeyTypeMismatch = "KEY_TYPE_MISMATCH"
	CodeDuplicateSlug   = "DUPLICATE_SLUG"
	CodeStorage         = "STORAGE"
	CodeBusy            = "BUSY"
)

// Error is the error type returned by Service operations.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Subject identifies what failed: a slug, key name or suggestion id.
	Subject string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrInvalid         = &Error{Kind: KindValidation, Code: CodeInvalid}
	ErrNotFound        = &Error{Kind: KindNotFound, Code: CodeNotFound}
	ErrNotPending      = &Error{Kind: KindState, Code: CodeNotPending}
	ErrKeyTypeMismatch = &Error{Kind: KindConflict, Code: CodeKeyTypeMismatch}
	ErrDuplicateSlug   = &Error{Kind: KindConflict, Code: CodeDuplicateSlug}
	ErrStorage         = &Error{Kind: KindStorage, Code: CodeStorage}
	ErrBusy            = &Error{Kind: KindUnavailable, Code: CodeBusy}
)

// KindOf returns the Kind of err, or KindStorage for errors that did not
// originate in this package. A cancelled or expired context is
// KindUnavailable wherever it surfaces, including inside storage errors.
func KindOf(err error) Kind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindUnavailable
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

func invalidf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Code: CodeInvalid, Message: fmt.Sprintf(format, args...)}
}

func notFound(what, subject string) error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %q not found", what, subject),
		Subject: subject,
	}
}

func notPending(id string, status SuggestionStatus) error {
	return &Error{
		Kind:    KindState,
		Code:    CodeNotPending,
		Message: fmt.Sprintf("suggestion %s is %s, not pending", id, status),
		Subject: id,
	}
}

func keyTypeMismatch(keyName string, expected, got ValueType) error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodeKeyTypeMismatch,
		Message: fmt.Sprintf("%s:%s:expected %s, got %s", CodeKeyTypeMismatch, keyName, expected, got),
		Subject: keyName,
	}
}

func duplicateSlug(slug string) error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodeDuplicateSlug,
		Message: fmt.Sprintf("project slug %q already exists", slug),
		Subject: slug,
	}
}

// storageErr wraps a driver failure. Errors already classified by this
// package pass through unchanged.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindStorage, Code: CodeStorage, Message: op, Err: err}
}
