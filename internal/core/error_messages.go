package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Domain errors ([*Error]) are mapped by their code first:
//
//	I18N001 - KEY_TYPE_MISMATCH: The value shape does not match the key type
//	I18N002 - NOT_PENDING: The suggestion was already reviewed
//	I18N003 - DUPLICATE_SLUG: A project with this slug already exists
//	I18N004 - BUSY: Every import slot is taken
//	NF001   - NOT_FOUND: The project, key, language or suggestion is unknown
//	VAL001  - INVALID: The request failed validation (message is passed through)
//
// Any other error falls back to case-insensitive pattern matching:
//
//	DB001 - Duplicate key         Patterns: "duplicate key", "unique constraint"
//	DB003 - Foreign key           Patterns: "foreign key"
//	DB004 - Connection refused    Patterns: "connection refused"
//	DB005 - Connection reset      Patterns: "connection reset"
//	DB006 - Timeout               Patterns: "timeout"
//	DB007 - Busy                  Patterns: "deadlock", "database is locked"
//	REQ001 - Request cancelled    Patterns: "context canceled"
//	REQ002 - Request timeout      Patterns: "context deadline exceeded"
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// When a user reports ERR000, check application logs for the original error.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// codeMessages maps domain error codes to user messages.
var codeMessages = map[string]UserMessage{
	CodeKeyTypeMismatch: {
		Message: "The value does not match the key's declared type",
		Action:  "Send a list for list keys and a single string for string keys",
		Code:    "I18N001",
	},
	CodeNotPending: {
		Message: "This suggestion has already been reviewed",
		Action:  "Refresh the moderation queue",
		Code:    "I18N002",
	},
	CodeDuplicateSlug: {
		Message: "A project with this slug already exists",
		Action:  "Choose a different slug",
		Code:    "I18N003",
	},
	CodeNotFound: {
		Message: "The requested resource was not found",
		Action:  "Check the project slug, key, language or suggestion id",
		Code:    "NF001",
	},
	CodeBusy: {
		Message: "Too many imports are running",
		Action:  "Wait a few seconds and retry the import",
		Code:    "I18N004",
	},
	CodeInvalid: {
		Message: "The request contains invalid data",
		Action:  "Correct the request and try again",
		Code:    "VAL001",
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so more specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this value already exists",
			Action:  "Review the request for duplicate entries",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "A record with this value already exists",
			Action:  "Review the request for duplicate entries",
			Code:    "DB001",
		},
	},
	{
		pattern: "foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Create the project or language first",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller import or try again later",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller import or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
// Domain errors map by code; validation and key type messages are passed
// through because they name the offending field. Other errors are matched
// against known patterns, falling back to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var e *Error
	if errors.As(err, &e) {
		if msg, ok := codeMessages[e.Code]; ok {
			if (e.Code == CodeInvalid || e.Code == CodeKeyTypeMismatch) && e.Message != "" {
				msg.Message = e.Message
			}
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
