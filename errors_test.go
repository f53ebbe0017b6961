package systree

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MessageAndCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := wrapError(cause, KindBinaryNotFound, "cannot start %s", "syster")

	assert.Equal(t, "cannot start syster: permission denied", err.Error())
	assert.Same(t, cause, errors.Unwrap(err))

	bare := newError(KindTimeout, "deadline hit")
	assert.Equal(t, "deadline hit", bare.Error())
	assert.Nil(t, errors.Unwrap(bare))
}

func TestError_IsMatchesOnKind(t *testing.T) {
	err := execFailed(2, "parse error", "Error: Parse error at line 1")

	assert.True(t, errors.Is(err, &Error{Kind: KindProcessExecution}))
	assert.False(t, errors.Is(err, &Error{Kind: KindTimeout}))

	// Matching survives wrapping.
	wrapped := fmt.Errorf("analyze: %w", err)
	assert.True(t, errors.Is(wrapped, &Error{Kind: KindProcessExecution}))
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(inputNotFound("/missing"))
	require.True(t, ok)
	assert.Equal(t, KindInputNotFound, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)

	_, ok = KindOf(nil)
	assert.False(t, ok)
}

func TestExecFailed_CarriesExitDetails(t *testing.T) {
	err := execFailed(3, "bad syntax", "stderr body")
	assert.Equal(t, 3, err.ExitCode)
	assert.Equal(t, "stderr body", err.Stderr)
	assert.Contains(t, err.Error(), "code 3")
	assert.Contains(t, err.Error(), "bad syntax")
}

func TestParseFailed_KeepsRawOutput(t *testing.T) {
	err := parseFailed("Some unexpected output", "warning text")
	assert.Equal(t, "Some unexpected output", err.Raw)
	assert.Equal(t, "warning text", err.Stderr)
	assert.Equal(t, KindOutputParse, err.Kind)
}

func TestTimedOut_NamesTheDeadline(t *testing.T) {
	err := timedOut(90 * time.Second)
	assert.Equal(t, KindTimeout, err.Kind)
	assert.Contains(t, err.Error(), "1m30s")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "INPUT_NOT_FOUND", KindInputNotFound.String())
	assert.Equal(t, "BINARY_NOT_FOUND", KindBinaryNotFound.String())
	assert.Equal(t, "DEPENDENCY_FETCH", KindDependencyFetch.String())
	assert.Equal(t, "PROCESS_EXECUTION", KindProcessExecution.String())
	assert.Equal(t, "OUTPUT_PARSE", KindOutputParse.String())
	assert.Equal(t, "TIMEOUT", KindTimeout.String())
	assert.Equal(t, "UNKNOWN", Kind(99).String())
}
