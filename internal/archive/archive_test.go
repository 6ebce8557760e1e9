package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func listArchive(t *testing.T, path string) map[string]int64 {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gzr)

	out := make(map[string]int64)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		out[hdr.Name] = hdr.Size
	}
	return out
}

func TestBuildBundlesAndRemovesSources(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "hostdiag.web01.meminfo.out"), "MemTotal: 1\n")
	b := writeFile(t, filepath.Join(dir, "hostdiag.web01.ps.out"), "PID TTY\n")

	dest := filepath.Join(dir, "hostdiag.web01.20260301.120000.tar.gz")
	path, err := NewBuilder(nil).Build(dest, []string{a, b})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))

	names := listArchive(t, path)
	assert.Len(t, names, 2)
	assert.Positive(t, names["hostdiag.web01.meminfo.out"])
	assert.Positive(t, names["hostdiag.web01.ps.out"])

	// Only on confirmed success are the originals deleted.
	assert.NoFileExists(t, a)
	assert.NoFileExists(t, b)
}

func TestBuildFailureLeavesSourcesIntact(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "hostdiag.web01.meminfo.out"), "MemTotal: 1\n")

	// Destination directory does not exist, so the archive cannot even be
	// staged; every input must survive.
	dest := filepath.Join(dir, "no-such-subdir", "out.tar.gz")
	_, err := NewBuilder(nil).Build(dest, []string{a})
	require.Error(t, err)

	assert.FileExists(t, a)
	assert.NoFileExists(t, dest)
}

func TestBuildSkipsVanishedFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "hostdiag.web01.df.out"), "Filesystem\n")
	gone := filepath.Join(dir, "javacore.20260301.txt")

	dest := filepath.Join(dir, "out.tar.gz")
	path, err := NewBuilder(nil).Build(dest, []string{a, gone})
	require.NoError(t, err)

	names := listArchive(t, path)
	assert.Len(t, names, 1)
}

func TestBuildNothingToArchive(t *testing.T) {
	dir := t.TempDir()
	_, err := NewBuilder(nil).Build(filepath.Join(dir, "out.tar.gz"), nil)
	assert.Error(t, err)

	_, err = NewBuilder(nil).Build(filepath.Join(dir, "out.tar.gz"), []string{filepath.Join(dir, "gone")})
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "out.tar.gz"))
}

func TestDumpDirs(t *testing.T) {
	dir := t.TempDir()
	tracking := writeFile(t, filepath.Join(dir, "hostdiag.web01.dumps.out"),
		"2026-03-01T12:00:00Z pid=300 threads=80 dumpdir=/srv/app\n"+
			"2026-03-01T12:30:00Z pid=300 threads=82 dumpdir=/srv/app\n"+
			"2026-03-01T12:30:00Z pid=310 threads=12 dumpdir=/srv/other\n")

	dirs := DumpDirs(tracking)
	assert.Equal(t, []string{"/srv/app", "/srv/app", "/srv/other"}, dirs)

	assert.Nil(t, DumpDirs(filepath.Join(dir, "missing.out")))
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	dumpDir := t.TempDir()

	meminfo := writeFile(t, filepath.Join(dir, "hostdiag.web01.meminfo.out"), "x")
	pcap := writeFile(t, filepath.Join(dir, "hostdiag.web01.hostdiag-x1.pcap"), "x")
	writeFile(t, filepath.Join(dir, "hostdiag.web01.20260101.000000.tar.gz"), "old archive")
	writeFile(t, filepath.Join(dir, "unrelated.txt"), "x")
	dump := writeFile(t, filepath.Join(dumpDir, "javacore.20260301.123456.txt"), "dump")
	writeFile(t, filepath.Join(dumpDir, "app.log"), "not a dump")

	tracking := writeFile(t, filepath.Join(dir, "hostdiag.web01.dumps.out"),
		"2026-03-01T12:00:00Z pid=300 threads=80 dumpdir="+dumpDir+"\n"+
			"2026-03-01T12:30:00Z pid=300 threads=80 dumpdir="+dumpDir+"\n")

	files, err := NewBuilder(nil).Collect(dir, "hostdiag.web01", tracking, []string{"javacore*", "heapdump*"})
	require.NoError(t, err)

	assert.Contains(t, files, meminfo)
	assert.Contains(t, files, pcap)
	assert.Contains(t, files, tracking)
	assert.Contains(t, files, dump)
	for _, f := range files {
		assert.NotContains(t, f, ".tar.gz")
		assert.NotContains(t, f, "unrelated")
		assert.NotContains(t, f, "app.log")
	}
}
