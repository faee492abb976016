// Package apperr classifies failures that reach a caller.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies a caller-facing failure class
type Kind string

const (
	BadInput         Kind = "bad_input"
	ToolUnavailable  Kind = "tool_unavailable"
	ExtractionFailed Kind = "extraction_failed"
	DownloadFailed   Kind = "download_failed"
	Timeout          Kind = "timeout"
	StreamFailed     Kind = "stream_failed"
	Internal         Kind = "internal"
)

// MaxDiagnosticLen bounds every diagnostic string handed to a caller
const MaxDiagnosticLen = 500

// Error is a classified failure with a bounded diagnostic message
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: Truncate(fmt.Sprintf(format, args...))}
}

// Wrap classifies an existing error, keeping it in the chain
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: Truncate(message), Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or Internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Diagnostic returns the bounded message to show a caller
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return Truncate(err.Error())
}

// Truncate cuts s to MaxDiagnosticLen bytes without splitting a UTF-8 rune
func Truncate(s string) string {
	if len(s) <= MaxDiagnosticLen {
		return s
	}
	cut := MaxDiagnosticLen
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
