package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMarkerUnique(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m1 := NewMarker(now)
	m2 := NewMarker(now)
	assert.True(t, strings.HasPrefix(m1, "hostdiag-20260301T120000-"))
	assert.NotEqual(t, m1, m2)
}

func TestArtifactNaming(t *testing.T) {
	s := New("/tmp/diag", "hostdiag", "web01", 1800, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	assert.Equal(t, "hostdiag.web01", s.FileBase())
	assert.Equal(t, "/tmp/diag/hostdiag.web01.meminfo.out", s.Artifact(KindMeminfo))
	assert.Equal(t, "/tmp/diag/hostdiag.web01.maps.42.out", s.Artifact(KindMaps(42)))
}

func TestCapturePathCarriesMarker(t *testing.T) {
	s := New("/tmp/diag", "hostdiag", "web01", 1800, time.Now())
	require.Contains(t, s.CapturePath(), s.Marker)
	assert.True(t, strings.HasSuffix(s.CapturePath(), ".pcap"))
}

func TestArchivePathTimestamped(t *testing.T) {
	s := New("/tmp/diag", "hostdiag", "web01", 1800, time.Now())
	ts := time.Date(2026, 3, 1, 12, 34, 56, 0, time.UTC)
	assert.Equal(t, "/tmp/diag/hostdiag.web01.20260301.123456.tar.gz", s.ArchivePath(ts))
	assert.Equal(t, s.ArchivePath(ts), ArchivePath("/tmp/diag", "hostdiag", "web01", ts))
}

func TestRecord(t *testing.T) {
	s := New(".", "hostdiag", "web01", 60, time.Now())
	s.Record(RoleCapture, 101, 101)
	s.Record(RoleSampler, 102, 102)

	require.Len(t, s.Processes, 2)
	assert.Equal(t, RoleCapture, s.Processes[0].Role)
	assert.EqualValues(t, 102, s.Processes[1].PID)
}
