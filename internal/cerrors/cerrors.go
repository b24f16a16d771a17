// Package cerrors defines the typed error taxonomy the capture engine
// returns across package boundaries, so callers can branch on Kind with
// errors.Is instead of matching strings.
package cerrors

import "fmt"

// Kind identifies the category of failure a capture operation produced.
type Kind string

const (
	KindNoCompositor        Kind = "no-compositor"
	KindMissingProtocol     Kind = "missing-protocol"
	KindUnknownOutput       Kind = "unknown-output"
	KindNoOutputs           Kind = "no-outputs"
	KindNoOutputsInRegion   Kind = "no-outputs-in-region"
	KindAllocationFailed    Kind = "allocation-failed"
	KindFormatUnsupported   Kind = "format-unsupported"
	KindProtocolViolation   Kind = "protocol-violation"
	KindTimeout             Kind = "timeout"
	KindCaptureFailed       Kind = "capture-failed"
	KindInvalidRegion       Kind = "invalid-region"
	KindInternalInvariant   Kind = "internal-invariant-violation"
)

// Error is the concrete error type the engine returns for the failure
// kinds above. Output and Detail are both optional.
type Error struct {
	Kind   Kind
	Output string
	Detail error
}

func New(kind Kind, output string, detail error) *Error {
	return &Error{Kind: kind, Output: output, Detail: detail}
}

func (e *Error) Error() string {
	switch {
	case e.Output != "" && e.Detail != nil:
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Output, e.Detail)
	case e.Output != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Output)
	case e.Detail != nil:
		return fmt.Sprintf("%s (%v)", e.Kind, e.Detail)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Detail
}

// Is makes errors.Is match any *Error target of the same Kind,
// ignoring Output and Detail, so errors.Is(err, cerrors.New(kind, "", nil))
// and errors.Is(err, cerrors.Sentinel(kind)) both work. Kind itself is
// not an error and cannot be passed to errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel returns a zero-detail error of the given kind, suitable for
// use as an errors.Is target: errors.Is(err, cerrors.Sentinel(cerrors.KindTimeout)).
func Sentinel(kind Kind) *Error {
	return &Error{Kind: kind}
}
