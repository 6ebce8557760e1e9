// Package archive bundles the artifacts of a diagnostic session, plus any
// application-produced dump files, into one compressed tarball. Creation is
// all-or-nothing: source files are deleted only after the archive has been
// atomically published; any failure leaves every input untouched.
package archive

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Builder produces session archives.
type Builder struct {
	log *zap.SugaredLogger
}

// NewBuilder creates a Builder. logger may be nil.
func NewBuilder(logger *zap.SugaredLogger) *Builder {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Builder{log: logger}
}

// Collect resolves the input set for an archive: every file in dir whose name
// starts with fileBase (excluding prior archives), plus dump files discovered
// through the dump-tracking artifact. Dump directories are deduplicated and
// globbed for each pattern; directories or files that have vanished are
// skipped.
func (b *Builder) Collect(dir, fileBase, dumpsArtifact string, patterns []string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, fileBase+".*"))
	if err != nil {
		return nil, fmt.Errorf("glob artifacts: %w", err)
	}
	var files []string
	for _, m := range matches {
		if strings.HasSuffix(m, ".tar.gz") {
			continue
		}
		files = append(files, m)
	}

	for _, d := range lo.Uniq(DumpDirs(dumpsArtifact)) {
		for _, pat := range patterns {
			dumps, err := filepath.Glob(filepath.Join(d, pat))
			if err != nil {
				continue
			}
			files = append(files, dumps...)
		}
	}
	return lo.Uniq(files), nil
}

// DumpDirs reads the dump-tracking artifact back and returns every recorded
// dump-output directory, in record order. A missing artifact yields nil.
func DumpDirs(dumpsArtifact string) []string {
	f, err := os.Open(dumpsArtifact)
	if err != nil {
		return nil
	}
	defer f.Close()

	var dirs []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		for _, field := range strings.Fields(sc.Text()) {
			if d, ok := strings.CutPrefix(field, "dumpdir="); ok && d != "" {
				dirs = append(dirs, d)
			}
		}
	}
	return dirs
}

// Build writes all files into a gzip-compressed tarball at dest and, only on
// confirmed success, deletes the originals. The archive appears under its
// final name atomically; a failed build leaves neither a partial archive nor
// any missing source file. Returns the absolute path of the archive.
func (b *Builder) Build(dest string, files []string) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("no files to archive")
	}

	pending, err := renameio.NewPendingFile(dest, renameio.WithPermissions(0o644))
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer pending.Cleanup()

	gzw := gzip.NewWriter(pending)
	tw := tar.NewWriter(gzw)

	var bundled []string
	for _, path := range files {
		ok, err := addFile(tw, path)
		if err != nil {
			return "", fmt.Errorf("archive %s: %w", path, err)
		}
		if ok {
			bundled = append(bundled, path)
		}
	}
	if len(bundled) == 0 {
		return "", fmt.Errorf("no files to archive")
	}

	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("publish archive: %w", err)
	}

	abs, err := filepath.Abs(dest)
	if err != nil {
		abs = dest
	}

	// The archive exists under its final name; now the originals can go.
	for _, path := range bundled {
		if err := os.Remove(path); err != nil {
			b.log.Debugw("remove bundled file", "path", path, "error", err)
		}
	}
	b.log.Debugw("archive created", "path", abs, "files", len(bundled))
	return abs, nil
}

// addFile appends one file to the tar stream. A file that vanished since
// collection is skipped (ok=false), not an error.
func addFile(tw *tar.Writer, path string) (ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false, err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return false, err
	}
	hdr.Name = filepath.Base(path)
	if err := tw.WriteHeader(hdr); err != nil {
		return false, err
	}
	if _, err := io.Copy(tw, f); err != nil {
		return false, err
	}
	return true, nil
}
