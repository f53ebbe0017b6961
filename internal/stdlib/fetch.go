package stdlib

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultDownloadTimeout bounds the whole fetch, network and extraction.
const DefaultDownloadTimeout = 2 * time.Minute

// releaseURLTemplate is the fixed public location of the versioned archive.
const releaseURLTemplate = "https://github.com/Systems-Modeling/SysML-v2-Release/archive/refs/tags/%s.zip"

// Fetcher downloads the pinned SysML-v2-Release archive and extracts its
// sysml.library subtree into a cache directory. One best-effort attempt,
// no retries.
type Fetcher struct {
	// URL of the release archive.
	URL string

	// Version recorded in the cache manifest.
	Version string

	// Timeout for the whole fetch. Zero means DefaultDownloadTimeout.
	Timeout time.Duration

	// HTTPClient to use. Nil means a fresh client with Timeout applied.
	HTTPClient *http.Client

	log *logrus.Logger
}

// manifest is written into the cache so a populated directory records where
// it came from.
type manifest struct {
	Version   string    `yaml:"version"`
	Source    string    `yaml:"source"`
	FetchedAt time.Time `yaml:"fetched_at"`
}

// manifestName is the manifest file inside the cached library directory.
const manifestName = "manifest.yaml"

// NewFetcher returns a fetcher for the given release version.
func NewFetcher(version string, log *logrus.Logger) *Fetcher {
	if log == nil {
		log = logrus.New()
	}
	return &Fetcher{
		URL:     fmt.Sprintf(releaseURLTemplate, version),
		Version: version,
		Timeout: DefaultDownloadTimeout,
		log:     log,
	}
}

// Fetch populates targetDir with the sysml.library subtree of the release
// archive. Extraction goes into a staging directory that is promoted with a
// single rename, so a concurrent resolver either sees no cache or a complete
// one, never a partial tree. Any failure removes the staging tree and leaves
// targetDir untouched. Fetch is idempotent: a non-empty targetDir is kept
// as-is with no network traffic.
func (f *Fetcher) Fetch(ctx context.Context, targetDir string) error {
	if dirNonEmpty(targetDir) {
		return nil
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	archive, err := f.download(ctx)
	if err != nil {
		return err
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return fmt.Errorf("decode release archive: %w", err)
	}

	parent := filepath.Dir(targetDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create cache parent: %w", err)
	}
	staging := filepath.Join(parent, ".staging-"+uuid.NewString())
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}

	if err := f.extractLibrary(zr, staging); err != nil {
		os.RemoveAll(staging)
		return err
	}
	if err := f.writeManifest(staging); err != nil {
		os.RemoveAll(staging)
		return err
	}

	if err := os.Rename(staging, targetDir); err != nil {
		os.RemoveAll(staging)
		// A concurrent fetch won the rename; its complete tree serves.
		if dirNonEmpty(targetDir) {
			return nil
		}
		return fmt.Errorf("promote staging dir: %w", err)
	}

	f.log.WithFields(logrus.Fields{
		"version": f.Version,
		"dir":     targetDir,
	}).Info("Standard library cached")
	return nil
}

func (f *Fetcher) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	client := f.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	f.log.WithField("url", f.URL).Debug("Downloading standard library archive")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", f.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: unexpected status %s", f.URL, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read archive body: %w", err)
	}
	return data, nil
}

// extractLibrary writes every archive entry under the sysml.library subtree
// into dst, preserving relative paths. The release zip nests the subtree
// under a top-level directory whose name varies with the tag, so entries are
// matched by the sysml.library path segment rather than a fixed prefix.
func (f *Fetcher) extractLibrary(zr *zip.Reader, dst string) error {
	marker := LibraryDirName + "/"
	extracted := 0

	for _, entry := range zr.File {
		name := filepath.ToSlash(entry.Name)
		idx := strings.Index(name, marker)
		if idx < 0 {
			continue
		}
		rel := name[idx+len(marker):]
		if rel == "" || entry.FileInfo().IsDir() {
			continue
		}
		// Reject entries that would escape dst.
		if strings.Contains(rel, "..") {
			return fmt.Errorf("archive entry escapes extraction dir: %s", entry.Name)
		}

		out := filepath.Join(dst, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(out), err)
		}
		if err := writeZipEntry(entry, out); err != nil {
			return err
		}
		extracted++
	}

	if extracted == 0 {
		return fmt.Errorf("archive contains no %s entries", LibraryDirName)
	}
	return nil
}

func writeZipEntry(entry *zip.File, out string) error {
	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", entry.Name, err)
	}
	defer rc.Close()

	dst, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, rc); err != nil {
		return fmt.Errorf("extract %s: %w", entry.Name, err)
	}
	return nil
}

func (f *Fetcher) writeManifest(dir string) error {
	data, err := yaml.Marshal(manifest{
		Version:   f.Version,
		Source:    f.URL,
		FetchedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestName), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest of a populated cache directory, when one
// exists.
func ReadManifest(dir string) (version, source string, fetchedAt time.Time, err error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return "", "", time.Time{}, err
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m.Version, m.Source, m.FetchedAt, nil
}
