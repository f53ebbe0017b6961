package systree

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// transport selects how captured stdout is handed back: decoded text for
// JSON/summary/source payloads, raw bytes for archive payloads.
type transport int

const (
	transportText transport = iota
	transportBinary
)

// runResult holds the fully captured output of one engine run.
type runResult struct {
	stdout []byte
	stderr []byte
}

// FindBinary locates the syster executable on PATH.
func FindBinary() (string, error) {
	path, err := exec.LookPath(BinaryName)
	if err != nil {
		return "", binaryNotFound(err,
			"syster CLI not found on PATH; install with: cargo install syster-cli")
	}
	return path, nil
}

// locateBinary resolves the engine executable, honoring an explicit override.
func (c *Client) locateBinary() (string, error) {
	if c.opts.Binary != "" {
		if _, err := os.Stat(c.opts.Binary); err != nil {
			return "", binaryNotFound(err, "configured syster binary missing: %s", c.opts.Binary)
		}
		return c.opts.Binary, nil
	}
	return FindBinary()
}

// run executes one engine invocation. Order of checks is load-bearing:
// the input path is validated before the binary is located, and the binary
// before any standard-library provisioning, so a missing input is always
// reported first and no download happens for a doomed run.
func (c *Client) run(ctx context.Context, input string, opFlags []string, mode transport) (*runResult, error) {
	if _, err := os.Stat(input); err != nil {
		return nil, inputNotFound(input)
	}

	binary, err := c.locateBinary()
	if err != nil {
		return nil, err
	}

	args, err := c.globalFlags(ctx)
	if err != nil {
		return nil, err
	}
	args = append(args, opFlags...)

	absInput, err := filepath.Abs(input)
	if err != nil {
		absInput = input
	}
	args = append(args, absInput)

	runCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	c.log.WithFields(logrus.Fields{
		"binary": binary,
		"args":   strings.Join(args, " "),
	}).Debug("Invoking syster")

	cmd := exec.CommandContext(runCtx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// An orphaned child of a killed engine can hold the output pipes open;
	// stop waiting on them shortly after the kill.
	cmd.WaitDelay = time.Second

	err = cmd.Run()
	out := &runResult{stdout: stdout.Bytes(), stderr: stderr.Bytes()}

	if err != nil {
		// The deadline firing surfaces as a killed process; report it as a
		// timeout rather than an engine failure.
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, timedOut(c.opts.Timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			diag := diagnosticText(out, mode)
			return nil, execFailed(exitErr.ExitCode(), diag, decodePermissive(out.stderr))
		}
		// The process never started: binary vanished after lookup,
		// permission denied, and the like.
		return nil, binaryNotFound(err, "failed to execute syster CLI")
	}

	return out, nil
}

// globalFlags assembles the flags shared by every operation: verbosity plus
// exactly one of --no-stdlib or --stdlib-path. When the caller specified
// neither, the resolver supplies a directory that is then passed explicitly.
func (c *Client) globalFlags(ctx context.Context) ([]string, error) {
	var args []string
	if c.opts.Verbose {
		args = append(args, "--verbose")
	}

	switch {
	case c.opts.NoStdlib:
		args = append(args, "--no-stdlib")
	case c.opts.StdlibPath != "":
		args = append(args, "--stdlib-path", c.opts.StdlibPath)
	default:
		dir, err := c.stdlib.Resolve(ctx)
		if err != nil {
			return nil, fetchFailed(err)
		}
		args = append(args, "--stdlib-path", dir)
	}
	return args, nil
}

// diagnosticText extracts the text to embed in a ProcessExecution error:
// stderr first, stdout when stderr is empty. Binary payloads are decoded
// permissively here only; the success path never decodes them.
func diagnosticText(out *runResult, mode transport) string {
	text := strings.TrimSpace(decodePermissive(out.stderr))
	if text == "" {
		if mode == transportBinary {
			text = strings.TrimSpace(decodePermissive(out.stdout))
		} else {
			text = strings.TrimSpace(string(out.stdout))
		}
	}
	return text
}

// decodePermissive converts bytes to a string, replacing invalid UTF-8
// sequences so archive bytes never corrupt an error message.
func decodePermissive(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
