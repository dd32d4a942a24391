// Package ferrors defines the structured error type shared by the
// dispatcher and its actions. It is kept separate from the root package so
// that internal/actions can construct and inspect errors without importing
// the root package (which itself depends on internal/actions), and from
// internal/ifaces because errors are a concern of the implementation, not
// of the collaborator contracts.
package ferrors

import (
	"errors"
	"fmt"
)

// Kind categorizes a dispatcher error into one of the kinds the
// specification defines. Callers use errors.As to recover an *Error and
// switch on Kind rather than matching message strings.
type Kind string

const (
	// KindArity means the action was called with the wrong argc.
	KindArity Kind = "arity"
	// KindDomain means a numeric argument or flag string was out of range.
	KindDomain Kind = "domain"
	// KindContextMismatch means the action was invoked in the wrong context
	// kind (File-only action used as Global, or vice versa).
	KindContextMismatch Kind = "context-mismatch"
	// KindReference means a named manifest section was missing.
	KindReference Kind = "reference"
	// KindIntegrity means a written length or hash disagreed with the
	// resource's declared data_size or blake2b-256.
	KindIntegrity Kind = "integrity"
	// KindIO means an underlying read, write, flush, or spawn failed.
	KindIO Kind = "io"
	// KindPolicy means an unsafe action was attempted without AllowUnsafe.
	KindPolicy Kind = "policy"
	// KindCorruptState means a U-Boot environment failed to parse. Only
	// uboot_recover absorbs this locally; every other caller treats it like
	// any other error.
	KindCorruptState Kind = "corrupt-state"
)

// IntegritySymptom distinguishes the two ways write-with-hash can fail
// integrity checking.
type IntegritySymptom string

const (
	SymptomLength IntegritySymptom = "length"
	SymptomDigest IntegritySymptom = "digest"
)

// Error is a structured dispatcher error carrying enough context to let a
// caller report which action and resource failed without parsing Msg.
type Error struct {
	Kind     Kind
	Action   string // action name, e.g. "raw_write" (empty if not action-scoped)
	Resource string // resource title, set on KindIntegrity
	Symptom  IntegritySymptom
	Msg      string
	Inner    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	if e.Action != "" {
		parts = append(parts, fmt.Sprintf("action=%s", e.Action))
	}
	if e.Resource != "" {
		parts = append(parts, fmt.Sprintf("resource=%s", e.Resource))
	}
	if e.Symptom != "" {
		parts = append(parts, fmt.Sprintf("symptom=%s", e.Symptom))
	}

	msg := e.Msg
	if msg == "" && e.Inner != nil {
		msg = e.Inner.Error()
	}

	if len(parts) > 0 {
		return fmt.Sprintf("fwact: %s (%s) [%s]", msg, parts[0], e.Kind)
	}
	return fmt.Sprintf("fwact: %s [%s]", msg, e.Kind)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is provides errors.Is support, comparing by Kind.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Kind == te.Kind
	}
	return false
}

// New creates a structured error not tied to a specific action.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// NewAction creates a structured error scoped to the named action.
func NewAction(action string, kind Kind, msg string) *Error {
	return &Error{Action: action, Kind: kind, Msg: msg}
}

// NewActionf creates a structured error scoped to the named action with a
// printf-formatted message.
func NewActionf(action string, kind Kind, format string, args ...any) *Error {
	return &Error{Action: action, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NewIntegrity creates the error write-with-hash raises when the written
// length or digest disagrees with the resource's declaration.
func NewIntegrity(action, resource string, symptom IntegritySymptom, msg string) *Error {
	return &Error{Action: action, Kind: KindIntegrity, Resource: resource, Symptom: symptom, Msg: msg}
}

// NewIntegrityf is NewIntegrity with a printf-formatted message.
func NewIntegrityf(action, resource string, symptom IntegritySymptom, format string, args ...any) *Error {
	return &Error{Action: action, Kind: KindIntegrity, Resource: resource, Symptom: symptom, Msg: fmt.Sprintf(format, args...)}
}

// WrapIO wraps an underlying I/O failure with action context.
func WrapIO(action string, err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return &Error{Action: action, Kind: fe.Kind, Resource: fe.Resource, Symptom: fe.Symptom, Msg: fe.Msg, Inner: fe.Inner}
	}
	return &Error{Action: action, Kind: KindIO, Msg: err.Error(), Inner: err}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}
