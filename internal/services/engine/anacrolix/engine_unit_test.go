package anacrolix

import (
	"testing"
	"time"

	"github.com/anacrolix/torrent"

	"torrentcore/internal/domain"
)

func TestMapPiecePriority(t *testing.T) {
	tests := []struct {
		in   int
		want torrent.PiecePriority
	}{
		{-1, torrent.PiecePriorityNone},
		{0, torrent.PiecePriorityNone},
		{1, torrent.PiecePriorityNormal},
		{4, torrent.PiecePriorityNormal},
		{5, torrent.PiecePriorityReadahead},
		{6, torrent.PiecePriorityReadahead},
		{7, torrent.PiecePriorityNow},
		{9, torrent.PiecePriorityNow},
	}
	for _, tc := range tests {
		if got := mapPiecePriority(tc.in); got != tc.want {
			t.Errorf("mapPiecePriority(%d) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestBuildMagnet(t *testing.T) {
	got := buildMagnet("deadbeef", "my file.iso")
	want := "magnet:?xt=urn:btih:deadbeef&dn=my+file.iso"
	if got != want {
		t.Errorf("buildMagnet = %q, want %q", got, want)
	}

	if got := buildMagnet("deadbeef", ""); got != "magnet:?xt=urn:btih:deadbeef" {
		t.Errorf("nameless magnet = %q", got)
	}
}

func TestDeriveRawState(t *testing.T) {
	if got := deriveRawState(true, true); got != domain.RawChecking {
		t.Errorf("checking wins: got %v", got)
	}
	if got := deriveRawState(false, true); got != domain.RawSeeding {
		t.Errorf("finished: got %v", got)
	}
	if got := deriveRawState(false, false); got != domain.RawDownloading {
		t.Errorf("default: got %v", got)
	}
}

func TestSampleSpeed(t *testing.T) {
	h := &Handle{}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	down, up := h.sampleSpeed(1000, 500, base)
	if down != 0 || up != 0 {
		t.Fatalf("first sample = (%d, %d), want zeros", down, up)
	}

	down, up = h.sampleSpeed(3000, 1500, base.Add(2*time.Second))
	if down != 1000 {
		t.Errorf("download rate = %d, want 1000", down)
	}
	if up != 500 {
		t.Errorf("upload rate = %d, want 500", up)
	}

	// Counters can reset after a client restart; rates clamp to zero.
	down, up = h.sampleSpeed(0, 0, base.Add(4*time.Second))
	if down != 0 || up != 0 {
		t.Errorf("reset counters = (%d, %d), want zeros", down, up)
	}
}
