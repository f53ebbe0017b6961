// Package systree is a Go client for the syster CLI, the SysML v2 / KerML
// analysis engine. It runs the engine as a child process, provisions the
// versioned SysML standard library the engine can load, and normalizes the
// engine's output (summary lines, JSON, raw XML/ZIP bytes) into a small set
// of stable result types.
package systree

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/systree/systree-go/internal/stdlib"
)

// BinaryName is the engine executable searched for on PATH.
const BinaryName = "syster"

// DefaultTimeout bounds a single engine invocation.
const DefaultTimeout = 60 * time.Second

// Options configures a Client. The zero value is usable: binary from PATH,
// standard library resolved through the default search order, 60s timeout.
type Options struct {
	// Binary overrides PATH lookup with an explicit engine executable.
	Binary string

	// Verbose passes --verbose to every invocation.
	Verbose bool

	// NoStdlib passes --no-stdlib and skips the resolver entirely.
	// Mutually exclusive with StdlibPath.
	NoStdlib bool

	// StdlibPath passes an explicit --stdlib-path and skips the resolver.
	StdlibPath string

	// Timeout bounds each engine run. Zero means DefaultTimeout.
	Timeout time.Duration

	// Stdlib customizes standard-library resolution. Nil means the
	// default search order with the pinned-release fetcher.
	Stdlib *stdlib.Locator

	// Logger receives debug/info logging. Nil discards.
	Logger *logrus.Logger
}

// Client drives the syster engine. Safe for concurrent use: each call is one
// independent child process and the only shared state is the on-disk
// standard-library cache, which the resolver guards.
type Client struct {
	opts   Options
	stdlib *stdlib.Locator
	log    *logrus.Logger
}

// NewClient builds a client from opts.
func NewClient(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	loc := opts.Stdlib
	if loc == nil {
		loc = stdlib.NewLocator(log)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Client{opts: opts, stdlib: loc, log: log}
}

// Analyze parses and type-checks a SysML v2 / KerML file or directory and
// returns the engine's counts and diagnostics.
func (c *Client) Analyze(ctx context.Context, path string) (*AnalysisResult, error) {
	out, err := c.run(ctx, path, []string{"--json"}, transportText)
	if err != nil {
		return nil, err
	}
	return parseAnalysis(out.stdout, out.stderr, false)
}

// Symbols extracts the named elements of a SysML v2 / KerML file or
// directory, one FileSymbols per source file in engine emission order.
func (c *Client) Symbols(ctx context.Context, path string) ([]FileSymbols, error) {
	out, err := c.run(ctx, path, []string{"--export-ast"}, transportText)
	if err != nil {
		return nil, err
	}
	return normalizeSymbols(out.stdout, out.stderr)
}

// ExportXMI exports the model to XMI and returns the XML text.
func (c *Client) ExportXMI(ctx context.Context, path string) (string, error) {
	out, err := c.run(ctx, path, []string{"--export", "xmi"}, transportText)
	if err != nil {
		return "", err
	}
	return string(out.stdout), nil
}

// ExportJSONLD exports the model to JSON-LD. The payload is returned raw
// after validation; its top level may be a list of elements or an object
// with an @graph key.
func (c *Client) ExportJSONLD(ctx context.Context, path string) (json.RawMessage, error) {
	out, err := c.run(ctx, path, []string{"--export", "json-ld"}, transportText)
	if err != nil {
		return nil, err
	}
	if !json.Valid(out.stdout) {
		return nil, parseFailed(string(out.stdout), string(out.stderr))
	}
	return json.RawMessage(out.stdout), nil
}

// ExportKPAR exports the model as a KPAR archive (a ZIP holding XMI plus
// metadata) and returns the archive bytes untouched.
func (c *Client) ExportKPAR(ctx context.Context, path string) ([]byte, error) {
	out, err := c.run(ctx, path, []string{"--export", "kpar"}, transportBinary)
	if err != nil {
		return nil, err
	}
	return out.stdout, nil
}

// ImportModel imports an interchange artifact (XMI, JSON-LD or KPAR) into
// the engine and validates it, returning the engine's counts.
func (c *Client) ImportModel(ctx context.Context, path string) (*AnalysisResult, error) {
	out, err := c.run(ctx, path, []string{"--import", "--json"}, transportText)
	if err != nil {
		return nil, err
	}
	return parseAnalysis(out.stdout, out.stderr, true)
}

// ImportSymbols imports an interchange artifact and extracts its symbols.
func (c *Client) ImportSymbols(ctx context.Context, path string) ([]FileSymbols, error) {
	out, err := c.run(ctx, path, []string{"--import", "--export-ast"}, transportText)
	if err != nil {
		return nil, err
	}
	return normalizeSymbols(out.stdout, out.stderr)
}

// Decompile turns an interchange artifact back into SysML v2 source text.
func (c *Client) Decompile(ctx context.Context, path string) (string, error) {
	out, err := c.run(ctx, path, []string{"--decompile"}, transportText)
	if err != nil {
		return "", err
	}
	return string(out.stdout), nil
}

// RoundtripFormat is an interchange format accepted by Roundtrip.
type RoundtripFormat string

const (
	FormatXMI    RoundtripFormat = "xmi"
	FormatKPAR   RoundtripFormat = "kpar"
	FormatJSONLD RoundtripFormat = "jsonld"
)

// Roundtrip imports an interchange artifact into the engine's workspace and
// immediately re-exports it in the given format, preserving element
// identifiers. The payload is returned as raw bytes.
func (c *Client) Roundtrip(ctx context.Context, path string, format RoundtripFormat) ([]byte, error) {
	switch format {
	case FormatXMI, FormatKPAR, FormatJSONLD:
	default:
		return nil, fmt.Errorf("unsupported roundtrip format: %q", format)
	}
	out, err := c.run(ctx, path, []string{"--import-workspace", "--export", string(format)}, transportBinary)
	if err != nil {
		return nil, err
	}
	return out.stdout, nil
}

// StdlibDir resolves the standard-library directory the client would pass to
// the engine, provisioning it if necessary. Returns "" when the client is
// configured with NoStdlib.
func (c *Client) StdlibDir(ctx context.Context) (string, error) {
	if c.opts.NoStdlib {
		return "", nil
	}
	if c.opts.StdlibPath != "" {
		return c.opts.StdlibPath, nil
	}
	dir, err := c.stdlib.Resolve(ctx)
	if err != nil {
		return "", fetchFailed(err)
	}
	return dir, nil
}
