package systree

import (
	"fmt"
	"time"
)

// Kind categorizes a wrapper failure so callers can branch without
// string matching.
type Kind int

const (
	// KindInputNotFound - the input path does not exist. Checked before
	// anything else, so it always wins over a missing binary.
	KindInputNotFound Kind = iota
	// KindBinaryNotFound - the syster binary is missing from PATH or
	// could not be started.
	KindBinaryNotFound
	// KindDependencyFetch - downloading or extracting the standard
	// library failed; the cache is left untouched.
	KindDependencyFetch
	// KindProcessExecution - the engine exited non-zero. Carries the
	// exit code and captured diagnostic text.
	KindProcessExecution
	// KindOutputParse - the engine exited zero but its stdout matched no
	// known shape. Carries the raw output verbatim.
	KindOutputParse
	// KindTimeout - the engine ran past the configured deadline and was
	// killed. Distinct from a non-zero exit.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindInputNotFound:
		return "INPUT_NOT_FOUND"
	case KindBinaryNotFound:
		return "BINARY_NOT_FOUND"
	case KindDependencyFetch:
		return "DEPENDENCY_FETCH"
	case KindProcessExecution:
		return "PROCESS_EXECUTION"
	case KindOutputParse:
		return "OUTPUT_PARSE"
	case KindTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Error is the structured error returned by every operation.
type Error struct {
	Kind     Kind
	Message  string
	Cause    error
	ExitCode int    // set for KindProcessExecution
	Stderr   string // captured stderr, when any
	Raw      string // raw stdout for KindOutputParse
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind, so errors.Is(err, &systree.Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the Kind of err when err is a wrapper *Error.
func KindOf(err error) (Kind, bool) {
	if e, ok := err.(*Error); ok {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is a wrapper error of the given kind.
func IsKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

func newError(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

func wrapError(err error, k Kind, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...), Cause: err}
}

// inputNotFound reports a missing input path.
func inputNotFound(path string) *Error {
	return newError(KindInputNotFound, "input path does not exist: %s", path)
}

// binaryNotFound reports a missing or unstartable engine binary.
func binaryNotFound(err error, format string, args ...interface{}) *Error {
	return wrapError(err, KindBinaryNotFound, format, args...)
}

// fetchFailed reports a standard-library provisioning failure.
func fetchFailed(err error) *Error {
	return wrapError(err, KindDependencyFetch, "standard library unavailable")
}

// execFailed reports a non-zero engine exit.
func execFailed(exitCode int, diagnostic, stderr string) *Error {
	e := newError(KindProcessExecution,
		"syster exited with code %d: %s", exitCode, diagnostic)
	e.ExitCode = exitCode
	e.Stderr = stderr
	return e
}

// timedOut reports an expired deadline.
func timedOut(timeout time.Duration) *Error {
	return newError(KindTimeout, "syster did not finish within %s", timeout)
}

// parseFailed reports unrecognized engine output, keeping it verbatim.
func parseFailed(stdout, stderr string) *Error {
	e := newError(KindOutputParse, "could not parse syster output: %s", stdout)
	e.Raw = stdout
	e.Stderr = stderr
	return e
}
