package stdlib

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// populatedDir creates a directory holding one library file, so it passes
// the non-empty check.
func populatedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Base.kerml"), []byte("package Base;\n"), 0o644))
	return dir
}

func TestLocator_OverrideWins(t *testing.T) {
	override := populatedDir(t)
	env := populatedDir(t)
	t.Setenv("SYSTREE_TEST_STDLIB", env)

	loc := &Locator{
		Override: override,
		EnvName:  "SYSTREE_TEST_STDLIB",
		CacheDir: populatedDir(t),
		log:      testLogger(),
	}
	dir, err := loc.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, override, dir)
}

func TestLocator_OverrideMissingIsAnError(t *testing.T) {
	loc := &Locator{
		Override: filepath.Join(t.TempDir(), "gone"),
		CacheDir: populatedDir(t),
		log:      testLogger(),
	}
	_, err := loc.Resolve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "override path missing")
}

func TestLocator_EnvBeatsCache(t *testing.T) {
	env := populatedDir(t)
	t.Setenv("SYSTREE_TEST_STDLIB", env)

	loc := &Locator{
		EnvName:  "SYSTREE_TEST_STDLIB",
		CacheDir: populatedDir(t),
		log:      testLogger(),
	}
	dir, err := loc.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, env, dir)
}

func TestLocator_MissingEnvDirIsSkipped(t *testing.T) {
	t.Setenv("SYSTREE_TEST_STDLIB", filepath.Join(t.TempDir(), "gone"))
	cache := populatedDir(t)

	loc := &Locator{
		EnvName:  "SYSTREE_TEST_STDLIB",
		CacheDir: cache,
		log:      testLogger(),
	}
	dir, err := loc.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cache, dir)
}

func TestLocator_EmptyCacheIsSkipped(t *testing.T) {
	work := t.TempDir()
	local := filepath.Join(work, LibraryDirName)
	require.NoError(t, os.MkdirAll(local, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(local, "Base.kerml"), []byte("x"), 0o644))

	loc := &Locator{
		CacheDir: t.TempDir(), // exists but empty
		WorkDir:  work,
		log:      testLogger(),
	}
	dir, err := loc.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, local, dir)
}

func TestLocator_ExecSiblingFallback(t *testing.T) {
	execDir := t.TempDir()
	sibling := filepath.Join(execDir, LibraryDirName)
	require.NoError(t, os.MkdirAll(sibling, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sibling, "Base.kerml"), []byte("x"), 0o644))

	loc := &Locator{
		WorkDir: t.TempDir(),
		ExecDir: execDir,
		log:     testLogger(),
	}
	dir, err := loc.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sibling, dir)
}

func TestLocator_NoSourceAndNoFetcher(t *testing.T) {
	loc := &Locator{
		WorkDir: t.TempDir(),
		log:     testLogger(),
	}
	_, err := loc.Resolve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvVar)
}

func TestLocator_Clean(t *testing.T) {
	cache := populatedDir(t)
	loc := &Locator{CacheDir: cache, log: testLogger()}

	require.NoError(t, loc.Clean())
	_, err := os.Stat(cache)
	assert.True(t, os.IsNotExist(err))

	// Cleaning an already-clean cache is not an error.
	require.NoError(t, loc.Clean())
	require.NoError(t, (&Locator{}).Clean())
}

func TestDefaultCacheDir(t *testing.T) {
	dir, err := DefaultCacheDir()
	require.NoError(t, err)
	assert.Contains(t, dir, "systree")
	assert.Contains(t, dir, LibraryDirName+"-"+DefaultVersion)
}

func TestDirNonEmpty(t *testing.T) {
	assert.False(t, dirNonEmpty(filepath.Join(t.TempDir(), "gone")))
	assert.False(t, dirNonEmpty(t.TempDir()))
	assert.True(t, dirNonEmpty(populatedDir(t)))
}
