// Package errs is the closed error-kind taxonomy shared by every package in
// this module. It replaces the bare string-literal exceptions of the source
// system (spec.md §9) with sentinel errors that callers can match on with
// errors.Is, while still carrying a wrapped, human-readable cause via %w.
package errs

import "errors"

// Kind identifies which of the fixed error categories a failure belongs to.
type Kind int

const (
	// ConfigInvalid: a required config key is missing or has the wrong
	// type. Fatal at Manager construction.
	ConfigInvalid Kind = iota
	// UdfLoadFailed: the loader could not find the library/module or
	// resolve its entry symbol. Fatal at construction.
	UdfLoadFailed
	// UdfInitFailed: the entry factory returned an error or a nil object.
	// Fatal at construction.
	UdfInitFailed
	// FrameInvariantViolation: an operation was attempted on a serialized
	// frame, with an out-of-range index, or with an invalid encode level.
	FrameInvariantViolation
	// EncodeFailed: the codec failed or produced no bytes in frame.Encode.
	// Frame.Serialize does not encode planes, so it never returns this kind.
	EncodeFailed
	// DecodeFailed: the codec could not decode a blob during
	// Frame construction from a wire envelope.
	DecodeFailed
	// UdfProcessError: a UDF returned Error or its process call itself
	// failed. The frame carrying it is destroyed; the pipeline continues.
	UdfProcessError
)

func (k Kind) String() string {
	switch k {
	case ConfigInvalid:
		return "ConfigInvalid"
	case UdfLoadFailed:
		return "UdfLoadFailed"
	case UdfInitFailed:
		return "UdfInitFailed"
	case FrameInvariantViolation:
		return "FrameInvariantViolation"
	case EncodeFailed:
		return "EncodeFailed"
	case DecodeFailed:
		return "DecodeFailed"
	case UdfProcessError:
		return "UdfProcessError"
	default:
		return "Unknown"
	}
}

// Error pairs a Kind with a wrapped cause. Match on the kind with Is, or on
// the underlying cause with errors.Unwrap.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Msg + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind, so callers can
// write errors.Is(err, errs.New(errs.FrameInvariantViolation, "", nil)) or,
// more conventionally, errors.Is(err, errs.Sentinel(errs.FrameInvariantViolation)).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error of the given kind wrapping cause (which may be nil).
func New(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Sentinel returns a bare marker error for a Kind, suitable for errors.Is
// comparisons against values produced by New.
func Sentinel(kind Kind) error {
	return &Error{Kind: kind, Msg: "sentinel"}
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return errors.Is(err, Sentinel(kind))
}
