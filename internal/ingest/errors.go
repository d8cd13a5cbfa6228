package ingest

import (
	"errors"
	"fmt"
)

// MinAPILevel is the lowest platform API level that supports staged writes.
const MinAPILevel = 29

// ErrorKind classifies why a save failed.
type ErrorKind int

const (
	// Internal covers failures outside the staged write, including panics.
	Internal ErrorKind = iota
	UnsupportedPlatformVersion
	SourceNotFound
	UnsupportedMediaKind
	EntryCreationFailed
	StreamOpenFailed
	CopyFailed
	FinalizeFailed
	CallbackDeliveryFailed
)

// String returns the snake_case name used as a metric label.
func (k ErrorKind) String() string {
	switch k {
	case Internal:
		return "internal"
	case UnsupportedPlatformVersion:
		return "unsupported_platform_version"
	case SourceNotFound:
		return "source_not_found"
	case UnsupportedMediaKind:
		return "unsupported_media_kind"
	case EntryCreationFailed:
		return "entry_creation_failed"
	case StreamOpenFailed:
		return "stream_open_failed"
	case CopyFailed:
		return "copy_failed"
	case FinalizeFailed:
		return "finalize_failed"
	case CallbackDeliveryFailed:
		return "callback_delivery_failed"
	default:
		return fmt.Sprintf("error_kind(%d)", int(k))
	}
}

func (k ErrorKind) description() string {
	switch k {
	case UnsupportedPlatformVersion:
		return "Unsupported platform version"
	case SourceNotFound:
		return "File not found"
	case UnsupportedMediaKind:
		return "Unsupported file type"
	case EntryCreationFailed:
		return "Failed to create gallery entry"
	case StreamOpenFailed:
		return "Failed to open stream"
	case CopyFailed:
		return "Copy failed"
	case FinalizeFailed:
		return "Failed to finalize entry"
	case CallbackDeliveryFailed:
		return "Callback delivery failed"
	default:
		return "Save failed"
	}
}

// Error is a classified save failure.
type Error struct {
	Kind ErrorKind
	// Op names the step that failed, e.g. "open destination".
	Op string
	// Detail is the subject shown to users, such as a rejected extension.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.description()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Detail != "" {
		msg += " " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind of err, or Internal if err is not an *Error.
func KindOf(err error) ErrorKind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return Internal
}

// Message returns the text reported to the caller for err.
func Message(err error) string {
	var ie *Error
	if !errors.As(err, &ie) {
		return Internal.description() + ": " + err.Error()
	}

	switch ie.Kind {
	case UnsupportedPlatformVersion:
		return fmt.Sprintf("API %d+ Required", MinAPILevel)
	case SourceNotFound:
		return SourceNotFound.description()
	case UnsupportedMediaKind:
		return UnsupportedMediaKind.description() + ": " + ie.Detail
	}

	cause := ie.Detail
	if ie.Err != nil {
		cause = ie.Err.Error()
	}
	if cause == "" {
		return ie.Kind.description()
	}
	return ie.Kind.description() + ": " + cause
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
