package dsl

import (
	"errors"
	"fmt"
)

// Broken wraps an error to mark it as an internal/unexpected fault
// rather than an expected, named DSL-level failure. The executor
// treats Broken and non-Broken errors identically for control flow
// (spec.md §7: both abort the run) but the traceback dump labels a
// Broken error distinctly.
type Broken struct {
	err error
}

func (b *Broken) Error() string {
	return b.err.Error()
}

func (b *Broken) Unwrap() error {
	return b.err
}

// NewBroken wraps err as a Broken error. Wrapping an already-Broken
// error returns it unchanged.
func NewBroken(err error) error {
	if err == nil {
		return nil
	}
	if b, is := IsBroken(err); is {
		return b
	}
	return &Broken{err: err}
}

// Brokenf is fmt.Errorf for Broken errors.
func Brokenf(format string, args ...interface{}) error {
	return &Broken{err: fmt.Errorf(format, args...)}
}

// IsBroken reports whether err (or something it wraps) is Broken.
func IsBroken(err error) (*Broken, bool) {
	var b *Broken
	if errors.As(err, &b) {
		return b, true
	}
	return nil, false
}

// The sentinel kinds from spec.md §7. Each is wrapped with context via
// the constructor functions below and can be matched with errors.Is.
var (
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrInvalidStatement   = errors.New("invalid statement")
	ErrUnknownStep        = errors.New("unknown step")
	ErrScenarioLoadFailed = errors.New("scenario load failure")
	ErrNotFound           = errors.New("not found")
	ErrSchemaNotFound     = errors.New("schema not found")
	ErrSchemaFailed       = errors.New("schema failed")
	ErrIdentity           = errors.New("identity error")
	ErrType               = errors.New("type error")
	ErrCodec              = errors.New("codec error")
)

type wrapped struct {
	kind error
	msg  string
}

func (w *wrapped) Error() string  { return w.msg }
func (w *wrapped) Unwrap() error  { return w.kind }
func (w *wrapped) Is(t error) bool {
	return t == w.kind
}

// InvalidTransition reports an illegal phase transition (spec.md §4.1).
func InvalidTransition(from, attempted string) error {
	return &wrapped{
		kind: ErrInvalidTransition,
		msg:  fmt.Sprintf("invalid transition from %s to %s", from, attempted),
	}
}

// InvalidStatement reports a line that could not be classified at all.
func InvalidStatement(text string) error {
	return &wrapped{
		kind: ErrInvalidStatement,
		msg:  fmt.Sprintf("invalid statement: %q", text),
	}
}

// UnknownStep reports a line that parsed but matched no registered
// pattern in the current phase.
func UnknownStep(text string) error {
	return &wrapped{
		kind: ErrUnknownStep,
		msg:  fmt.Sprintf("unknown step: %q", text),
	}
}

// ScenarioLoadFailure reports a failed plugin load.
func ScenarioLoadFailure(name string, cause error) error {
	return &wrapped{
		kind: ErrScenarioLoadFailed,
		msg:  fmt.Sprintf("failed to load scenario %q: %v", name, cause),
	}
}

// NotFound reports a pick/pickin lookup miss.
func NotFound(key string) error {
	return &wrapped{
		kind: ErrNotFound,
		msg:  fmt.Sprintf("not found: %q", key),
	}
}

// SchemaNotFound reports a validate() call naming an unregistered schema.
func SchemaNotFound(name string) error {
	return &wrapped{
		kind: ErrSchemaNotFound,
		msg:  fmt.Sprintf("schema not found: %q", name),
	}
}

// SchemaFailed reports a validate() call whose schema rejected the value.
func SchemaFailed(name string, cause error) error {
	return &wrapped{
		kind: ErrSchemaFailed,
		msg:  fmt.Sprintf("schema %q failed: %v", name, cause),
	}
}

// IdentityError reports an Iam/ackmy identity misuse.
func IdentityError(msg string) error {
	return &wrapped{
		kind: ErrIdentity,
		msg:  "identity error: " + msg,
	}
}

// TypeError reports a built-in receiving an argument of the wrong shape.
func TypeError(msg string) error {
	return &wrapped{
		kind: ErrType,
		msg:  "type error: " + msg,
	}
}

// CodecError reports a JSON boundary decode/encode failure.
func CodecError(msg string, cause error) error {
	m := "codec error: " + msg
	if cause != nil {
		m = fmt.Sprintf("%s: %v", m, cause)
	}
	return &wrapped{
		kind: ErrCodec,
		msg:  m,
	}
}
