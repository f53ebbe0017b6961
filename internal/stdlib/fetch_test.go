package stdlib

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildReleaseZip assembles an archive shaped like the real release: the
// library subtree nested under a tag-dependent top-level directory, next to
// unrelated files that must not be extracted.
func buildReleaseZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func defaultReleaseZip(t *testing.T) []byte {
	return buildReleaseZip(t, map[string]string{
		"SysML-v2-Release-2024-12/README.md":                                 "release notes",
		"SysML-v2-Release-2024-12/sysml.library/Kernel Library/Base.kerml":   "package Base;\n",
		"SysML-v2-Release-2024-12/sysml.library/Systems Library/Parts.sysml": "package Parts;\n",
	})
}

// releaseServer serves the archive and counts hits.
func releaseServer(t *testing.T, archive []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(archive)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestFetcher(url string) *Fetcher {
	return &Fetcher{
		URL:     url,
		Version: DefaultVersion,
		Timeout: 10 * time.Second,
		log:     testLogger(),
	}
}

func TestFetch_ExtractsLibrarySubtree(t *testing.T) {
	srv, _ := releaseServer(t, defaultReleaseZip(t))
	target := filepath.Join(t.TempDir(), "sysml.library-2024-12")

	f := newTestFetcher(srv.URL)
	require.NoError(t, f.Fetch(context.Background(), target))

	data, err := os.ReadFile(filepath.Join(target, "Kernel Library", "Base.kerml"))
	require.NoError(t, err)
	assert.Equal(t, "package Base;\n", string(data))

	_, err = os.Stat(filepath.Join(target, "Systems Library", "Parts.sysml"))
	require.NoError(t, err)

	// Files outside the library subtree stay out.
	_, err = os.Stat(filepath.Join(target, "README.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestFetch_WritesManifest(t *testing.T) {
	srv, _ := releaseServer(t, defaultReleaseZip(t))
	target := filepath.Join(t.TempDir(), "lib")

	f := newTestFetcher(srv.URL)
	require.NoError(t, f.Fetch(context.Background(), target))

	version, source, fetchedAt, err := ReadManifest(target)
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, version)
	assert.Equal(t, srv.URL, source)
	assert.WithinDuration(t, time.Now(), fetchedAt, time.Minute)
}

func TestFetch_IdempotentAcrossResolves(t *testing.T) {
	srv, hits := releaseServer(t, defaultReleaseZip(t))
	cache := filepath.Join(t.TempDir(), "lib")

	loc := &Locator{
		CacheDir: cache,
		WorkDir:  t.TempDir(),
		Fetcher:  newTestFetcher(srv.URL),
		log:      testLogger(),
	}

	first, err := loc.Resolve(context.Background())
	require.NoError(t, err)
	second, err := loc.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, cache, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetch_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	target := filepath.Join(t.TempDir(), "lib")
	err := newTestFetcher(srv.URL).Fetch(context.Background(), target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetch_ArchiveWithoutLibrary(t *testing.T) {
	archive := buildReleaseZip(t, map[string]string{
		"SysML-v2-Release-2024-12/README.md": "no library here",
	})
	srv, _ := releaseServer(t, archive)

	parent := t.TempDir()
	target := filepath.Join(parent, "lib")
	err := newTestFetcher(srv.URL).Fetch(context.Background(), target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no "+LibraryDirName+" entries")

	// Failure leaves neither a target nor a stray staging directory.
	entries, readErr := os.ReadDir(parent)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestFetch_CorruptArchive(t *testing.T) {
	srv, _ := releaseServer(t, []byte("this is not a zip"))

	err := newTestFetcher(srv.URL).Fetch(context.Background(), filepath.Join(t.TempDir(), "lib"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode release archive")
}

func TestFetch_RejectsPathEscape(t *testing.T) {
	archive := buildReleaseZip(t, map[string]string{
		"SysML-v2-Release-2024-12/sysml.library/../../evil.txt": "escape",
	})
	srv, _ := releaseServer(t, archive)

	err := newTestFetcher(srv.URL).Fetch(context.Background(), filepath.Join(t.TempDir(), "lib"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes extraction dir")
}

func TestFetch_ConcurrentResolversSeeCompleteCache(t *testing.T) {
	srv, _ := releaseServer(t, defaultReleaseZip(t))
	cache := filepath.Join(t.TempDir(), "lib")

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			loc := &Locator{
				CacheDir: cache,
				WorkDir:  os.TempDir(),
				Fetcher:  newTestFetcher(srv.URL),
				log:      testLogger(),
			}
			dir, err := loc.Resolve(context.Background())
			if err == nil && !dirNonEmpty(dir) {
				err = assert.AnError
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	_, err := os.Stat(filepath.Join(cache, "Kernel Library", "Base.kerml"))
	require.NoError(t, err)
}

func TestReadManifest_Missing(t *testing.T) {
	_, _, _, err := ReadManifest(t.TempDir())
	require.Error(t, err)
}
