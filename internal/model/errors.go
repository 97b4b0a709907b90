package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures by how the pipeline reacts to them
type ErrorKind string

const (
	// KindUnparsedLine: a line was skipped, the document continues
	KindUnparsedLine ErrorKind = "UNPARSED_LINE"

	// KindUnresolvedRange: record kept with status unknown
	KindUnresolvedRange ErrorKind = "UNRESOLVED_RANGE"

	// KindMaskRestore: the translator dropped a protected token
	KindMaskRestore ErrorKind = "MASK_RESTORE_FAILURE"

	// KindTranslationUnavailable: fall back to English-only output
	KindTranslationUnavailable ErrorKind = "TRANSLATION_UNAVAILABLE"

	// KindSpeechUnavailable: fall back to text-only delivery
	KindSpeechUnavailable ErrorKind = "SPEECH_UNAVAILABLE"

	// KindDeliveryFailed: the messaging collaborator reported failure
	KindDeliveryFailed ErrorKind = "DELIVERY_FAILED"

	// KindNoRecords: zero records recovered, the document needs human review
	KindNoRecords ErrorKind = "NO_RECORDS"

	// KindInternal covers everything else
	KindInternal ErrorKind = "INTERNAL"
)

// Error is a classified pipeline error
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error

	// Spans lists the protected spans a mask restore failure lost
	Spans []string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap implements the unwrap interface
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrSpeechUnavailable) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrUnparsedLine           = &Error{Kind: KindUnparsedLine}
	ErrUnresolvedRange        = &Error{Kind: KindUnresolvedRange}
	ErrMaskRestore            = &Error{Kind: KindMaskRestore}
	ErrTranslationUnavailable = &Error{Kind: KindTranslationUnavailable}
	ErrSpeechUnavailable      = &Error{Kind: KindSpeechUnavailable}
	ErrDeliveryFailed         = &Error{Kind: KindDeliveryFailed}
	ErrNoRecords              = &Error{Kind: KindNoRecords}
)

// NewUnresolvedRangeError creates an unresolved range error
func NewUnresolvedRangeError(name, raw string) *Error {
	return &Error{
		Kind:    KindUnresolvedRange,
		Message: fmt.Sprintf("no usable reference range for %q (printed %q)", name, raw),
	}
}

// NewMaskRestoreError creates a mask restore error listing the lost spans
func NewMaskRestoreError(missing []string) *Error {
	return &Error{
		Kind:    KindMaskRestore,
		Message: fmt.Sprintf("translation dropped %d protected span(s): %q", len(missing), missing),
		Spans:   missing,
	}
}

// NewTranslationUnavailableError creates a translation collaborator error
func NewTranslationUnavailableError(backend string, err error) *Error {
	return &Error{
		Kind:    KindTranslationUnavailable,
		Message: "translation backend " + backend + " failed",
		Err:     err,
	}
}

// NewSpeechUnavailableError creates a speech collaborator error
func NewSpeechUnavailableError(provider string, err error) *Error {
	return &Error{
		Kind:    KindSpeechUnavailable,
		Message: "speech provider " + provider + " failed",
		Err:     err,
	}
}

// NewDeliveryFailedError creates a messaging error
func NewDeliveryFailedError(message string, err error) *Error {
	return &Error{
		Kind:    KindDeliveryFailed,
		Message: message,
		Err:     err,
	}
}

// NewNoRecordsError creates the document-level failure for an empty parse
func NewNoRecordsError(source string, unparsed int) *Error {
	return &Error{
		Kind:    KindNoRecords,
		Message: fmt.Sprintf("no lab test records recovered from %s (%d unparsed lines), needs human review", source, unparsed),
	}
}

// KindOf returns the kind of a classified error, or KindInternal
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// SpansOf returns the spans lost by a mask restore failure
func SpansOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Spans
	}
	return nil
}
