// Package enginerr defines the error taxonomy shared across the engine
// core. Fallible operations in this module return either nil or an *Error
// whose Kind identifies what went wrong, so callers can branch on behavior
// instead of parsing strings. The exceptions are the ErrExitRequested
// sentinel and errors a plugin service returns from Call, which
// serviceregistry.Registry.Call passes through unchanged.
package enginerr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure. Kinds are not Go types: a single
// *Error struct carries whichever Kind applies, plus the fields relevant
// to it.
type Kind int

const (
	// KindOther is the fallback kind for failures that don't fit any of
	// the named categories below.
	KindOther Kind = iota
	KindNotFound
	KindAlreadyExists
	KindInvalidInput
	KindImporterMissing
	KindImporterFailed
	KindIoFailed
	KindStageFailed
	KindPluginLoadFailed
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindAlreadyExists:
		return "AlreadyExists"
	case KindInvalidInput:
		return "InvalidInput"
	case KindImporterMissing:
		return "ImporterMissing"
	case KindImporterFailed:
		return "ImporterFailed"
	case KindIoFailed:
		return "IoFailed"
	case KindStageFailed:
		return "StageFailed"
	case KindPluginLoadFailed:
		return "PluginLoadFailed"
	default:
		return "Other"
	}
}

// ModuleStage identifies the lifecycle stage a StageFailed error occurred
// in. Mirrors the stage tags modules pass through each frame.
type ModuleStage int

const (
	StageInit ModuleStage = iota
	StageStart
	StageUpdate
	StageFixedUpdate
	StageRender
	StageShutdown
	StageExternalEvent
)

func (s ModuleStage) String() string {
	switch s {
	case StageInit:
		return "Init"
	case StageStart:
		return "Start"
	case StageUpdate:
		return "Update"
	case StageFixedUpdate:
		return "FixedUpdate"
	case StageRender:
		return "Render"
	case StageShutdown:
		return "Shutdown"
	case StageExternalEvent:
		return "ExternalEvent"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by every package in this
// module. Structured fields are optional and populated only when the
// Kind makes them meaningful.
type Error struct {
	Kind    Kind
	Message string

	// Structured fields, populated depending on Kind.
	Path  string
	ID    string
	Stage ModuleStage
	Inner error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStageFailed:
		return fmt.Sprintf("%s failed at stage %s: %v", e.Kind, e.Stage, e.Inner)
	case KindPluginLoadFailed:
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Message)
	default:
		if e.ID != "" {
			return fmt.Sprintf("%s: %s (id=%s)", e.Kind, e.Message, e.ID)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Inner }

// Is reports whether target is an *Error with the same Kind, so callers
// can write errors.Is(err, enginerr.New(enginerr.KindNotFound, "")) style
// checks, though the Kind-specific helpers below are preferred.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// ErrExitRequested is the sentinel signaling cooperative shutdown. It is
// compared with errors.Is, never type-asserted, matching the original's
// unit-variant ExitRequested.
var ErrExitRequested = errors.New("enginerr: exit requested")

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func NotFound(id, message string) *Error {
	return &Error{Kind: KindNotFound, ID: id, Message: message}
}

func AlreadyExists(id, message string) *Error {
	return &Error{Kind: KindAlreadyExists, ID: id, Message: message}
}

func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

func ImporterMissing(extension string) *Error {
	return &Error{Kind: KindImporterMissing, Message: fmt.Sprintf("no importer registered for extension %q", extension)}
}

func ImporterFailed(message string) *Error {
	return &Error{Kind: KindImporterFailed, Message: message}
}

func IoFailed(message string) *Error {
	return &Error{Kind: KindIoFailed, Message: message}
}

func StageFailed(stage ModuleStage, inner error) *Error {
	return &Error{Kind: KindStageFailed, Stage: stage, Inner: inner, Message: inner.Error()}
}

func PluginLoadFailed(path, message string) *Error {
	return &Error{Kind: KindPluginLoadFailed, Path: path, Message: message}
}

// IsKind reports whether err is an *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
