package udf

import (
	"context"

	"github.com/orion-udf/core/frame"
)

// Result is a UDF's verdict on a single frame, returned by Handle.Process.
type Result int

const (
	// Ok means the frame passed through unmodified.
	Ok Result = iota
	// FrameModified means the UDF mutated the frame in place (its metadata,
	// a plane's bytes, or both); the chain continues with the mutated
	// frame.
	FrameModified
	// DropFrame means the chain should stop processing this frame and
	// release it without forwarding it to the output queue.
	DropFrame
	// Error means the UDF itself failed; the caller wraps the cause in an
	// errs.UdfProcessError and applies the chain's error policy.
	Error
)

func (r Result) String() string {
	switch r {
	case Ok:
		return "ok"
	case FrameModified:
		return "frame_modified"
	case DropFrame:
		return "drop_frame"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Config is the decoded, pass-through configuration handed to a UDF at
// Initialize time. Its shape is UDF-specific; the loader and Manager treat
// it as an opaque bag of keys.
type Config map[string]interface{}

// Handle is the contract every UDF — native or foreign — implements. A
// Handle is constructed once by the loader, Initialized once, Processed
// many times by worker goroutines, and Destroyed once when the chain is
// torn down. With more than one worker the Manager may call Process on the
// same Handle from several goroutines at once; the foreign handle
// serializes its own calls, a native plugin's Handle receives them as is.
type Handle interface {
	// Name identifies the UDF for logging and stats.
	Name() string

	// Initialize prepares the UDF to process frames. It is called exactly
	// once, before any call to Process.
	Initialize(ctx context.Context, cfg Config) error

	// Process inspects or mutates fr and returns the chain's next action.
	// A non-nil error is only returned alongside Error; other results
	// always return a nil error.
	Process(ctx context.Context, fr *frame.Frame) (Result, error)

	// Destroy releases any resources the UDF is holding (subprocess
	// handles, cached state). It is called exactly once, after the last
	// call to Process.
	Destroy(ctx context.Context) error
}
