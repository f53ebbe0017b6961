// Package stdlib resolves and provisions the versioned SysML standard
// library that the syster engine loads before analyzing user input.
package stdlib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

const (
	// LibraryDirName is the directory name the engine expects.
	LibraryDirName = "sysml.library"

	// EnvVar points at a user-managed standard library directory.
	EnvVar = "SYSTREE_STDLIB_PATH"

	// DefaultVersion is the pinned SysML-v2-Release tag the fetcher pulls.
	DefaultVersion = "2024-12"
)

// Locator finds a standard-library directory using a fixed precedence of
// sources, falling back to a one-shot download into the per-user cache.
// Every search input is an explicit field so tests can substitute arbitrary
// layouts without touching the real environment or home directory.
type Locator struct {
	// Override short-circuits the search when non-empty.
	Override string

	// EnvName is the environment variable consulted after Override.
	EnvName string

	// CacheDir is the per-user cache target, also where the fetcher lands.
	CacheDir string

	// WorkDir is searched for a sysml.library subdirectory.
	WorkDir string

	// ExecDir is searched for a sysml.library sibling of the wrapper's own
	// executable (development layout).
	ExecDir string

	// Fetcher performs the download fallback. Nil disables downloading.
	Fetcher *Fetcher

	log *logrus.Logger
}

// NewLocator returns a locator with the default search order and the pinned
// release fetcher.
func NewLocator(log *logrus.Logger) *Locator {
	if log == nil {
		log = logrus.New()
	}
	cacheDir, err := DefaultCacheDir()
	if err != nil {
		log.WithError(err).Debug("No user cache directory available")
	}
	execDir := ""
	if exe, err := os.Executable(); err == nil {
		execDir = filepath.Dir(exe)
	}
	return &Locator{
		EnvName:  EnvVar,
		CacheDir: cacheDir,
		WorkDir:  ".",
		ExecDir:  execDir,
		Fetcher:  NewFetcher(DefaultVersion, log),
		log:      log,
	}
}

// DefaultCacheDir returns the per-user cache directory for the pinned
// library version, e.g. ~/.cache/systree/sysml.library-2024-12 on Linux.
func DefaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("user cache dir: %w", err)
	}
	return filepath.Join(base, "systree", LibraryDirName+"-"+DefaultVersion), nil
}

// Resolve returns a directory containing the standard library, downloading
// it into the cache when no other source matches. First match wins.
func (l *Locator) Resolve(ctx context.Context) (string, error) {
	if l.Override != "" {
		if _, err := os.Stat(l.Override); err != nil {
			return "", fmt.Errorf("stdlib override path missing: %w", err)
		}
		return l.Override, nil
	}

	if l.EnvName != "" {
		if fromEnv := os.Getenv(l.EnvName); fromEnv != "" {
			if _, err := os.Stat(fromEnv); err == nil {
				l.logSource("environment", fromEnv)
				return fromEnv, nil
			}
			l.logger().WithField("path", fromEnv).Warnf("%s points at a missing directory, ignoring", l.EnvName)
		}
	}

	if l.CacheDir != "" && dirNonEmpty(l.CacheDir) {
		l.logSource("cache", l.CacheDir)
		return l.CacheDir, nil
	}

	if l.WorkDir != "" {
		local := filepath.Join(l.WorkDir, LibraryDirName)
		if dirNonEmpty(local) {
			l.logSource("workdir", local)
			return local, nil
		}
	}

	if l.ExecDir != "" {
		sibling := filepath.Join(l.ExecDir, LibraryDirName)
		if dirNonEmpty(sibling) {
			l.logSource("executable sibling", sibling)
			return sibling, nil
		}
	}

	if l.Fetcher == nil || l.CacheDir == "" {
		return "", fmt.Errorf("standard library not found (set %s or use --stdlib-path)", EnvVar)
	}

	l.logger().WithField("dir", l.CacheDir).Info("Standard library not found locally, downloading")
	if err := l.Fetcher.Fetch(ctx, l.CacheDir); err != nil {
		return "", err
	}
	return l.CacheDir, nil
}

// Clean removes the per-user cache directory. The next Resolve re-downloads.
func (l *Locator) Clean() error {
	if l.CacheDir == "" {
		return nil
	}
	return os.RemoveAll(l.CacheDir)
}

func (l *Locator) logSource(source, path string) {
	l.logger().WithFields(logrus.Fields{"source": source, "path": path}).Debug("Resolved standard library")
}

func (l *Locator) logger() *logrus.Logger {
	if l.log == nil {
		l.log = logrus.New()
	}
	return l.log
}

// dirNonEmpty reports whether path is a directory with at least one entry.
// A present-but-empty directory does not count: a crashed extraction must
// never be mistaken for a populated cache.
func dirNonEmpty(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}
