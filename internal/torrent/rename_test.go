package torrent

import (
	"errors"
	"math/rand"
	"testing"

	"torrentcore/internal/domain"
)

func withFolderFiles(h *fakeHandle, paths ...string) {
	files := make([]domain.FileInfo, len(paths))
	prios := make([]int, len(paths))
	for i, p := range paths {
		files[i] = domain.FileInfo{Index: i, Path: p, Size: 100, Offset: int64(i) * 100}
		prios[i] = 1
	}
	h.info = domain.TorrentInfo{
		Name:        "test",
		PieceLength: 100,
		NumPieces:   len(paths),
		TotalSize:   int64(len(paths)) * 100,
		Files:       files,
	}
	h.hasInfo = true
	h.snapshot.HasMetadata = true
	h.filePrios = prios
}

func TestRenameFolderEmptyNameRejected(t *testing.T) {
	h := newFakeHandle("aa")
	withFolderFiles(h, "old/a.txt")
	tor, _, _ := newTestTorrent(t, h)

	if err := tor.RenameFolder("old", "   "); !errors.Is(err, domain.ErrEmptyFolderName) {
		t.Fatalf("got %v, want %v", err, domain.ErrEmptyFolderName)
	}
}

func TestRenameFolderSingleEvent(t *testing.T) {
	h := newFakeHandle("aa")
	withFolderFiles(h, "old/a.txt", "old/sub/b.txt", "old/c.txt", "other/d.txt")
	tor, _, bus := newTestTorrent(t, h)

	if err := tor.RenameFolder("old", "new"); err != nil {
		t.Fatalf("RenameFolder: %v", err)
	}

	// One engine rename per file under the folder, none for the outsider.
	if len(h.renamed) != 3 {
		t.Fatalf("issued %d renames, want 3", len(h.renamed))
	}
	for _, rc := range h.renamed {
		if rc.path[:4] != "new/" {
			t.Errorf("rename target %q should live under new/", rc.path)
		}
	}
	if tor.PendingRenames() != 1 {
		t.Fatalf("pending groups = %d, want 1", tor.PendingRenames())
	}

	// Completions arrive in arbitrary order; only the last one finishes
	// the folder rename.
	order := rand.Perm(3)
	for n, i := range order {
		tor.HandleFileRenamed(i, h.renamed[i].path, nil)
		if n < 2 && len(bus.renames) != 0 {
			t.Fatalf("folder event fired after %d of 3 completions", n+1)
		}
	}

	if len(bus.renames) != 1 {
		t.Fatalf("folder events = %d, want exactly 1", len(bus.renames))
	}
	if bus.renames[0] != [2]string{"old/", "new/"} {
		t.Errorf("folder event = %v, want [old/ new/]", bus.renames[0])
	}
	if tor.PendingRenames() != 0 {
		t.Errorf("pending groups = %d, want 0", tor.PendingRenames())
	}
	if h.resumeDataReq != 1 {
		t.Errorf("resume data requests = %d, want 1", h.resumeDataReq)
	}
}

func TestRenameFolderNoMatches(t *testing.T) {
	h := newFakeHandle("aa")
	withFolderFiles(h, "keep/a.txt")
	tor, _, bus := newTestTorrent(t, h)

	if err := tor.RenameFolder("missing", "new"); err != nil {
		t.Fatalf("RenameFolder: %v", err)
	}
	if len(h.renamed) != 0 {
		t.Errorf("issued %d renames, want 0", len(h.renamed))
	}
	if tor.PendingRenames() != 0 {
		t.Errorf("pending groups = %d, want 0", tor.PendingRenames())
	}
	if len(bus.renames) != 0 {
		t.Errorf("folder events = %d, want 0", len(bus.renames))
	}
}

func TestRenameFolderFailedFileStillDrains(t *testing.T) {
	h := newFakeHandle("aa")
	withFolderFiles(h, "old/a.txt", "old/b.txt")
	tor, _, bus := newTestTorrent(t, h)

	if err := tor.RenameFolder("old", "new"); err != nil {
		t.Fatalf("RenameFolder: %v", err)
	}

	tor.HandleFileRenamed(0, "new/a.txt", nil)
	tor.HandleFileRenamed(1, "", errors.New("permission denied"))

	if len(bus.renames) != 1 {
		t.Fatalf("folder events = %d, failures must still drain the group", len(bus.renames))
	}
}

func TestRenameFilesSanitizesPaths(t *testing.T) {
	h := newFakeHandle("aa")
	withFolderFiles(h, "old/a.txt")
	tor, _, _ := newTestTorrent(t, h)

	tor.RenameFiles([]FileRename{{Index: 0, NewPath: " dir //  sub \\ file.txt "}})
	if len(h.renamed) != 1 {
		t.Fatalf("issued %d renames, want 1", len(h.renamed))
	}
	if h.renamed[0].path != "dir/sub/file.txt" {
		t.Errorf("sanitized path = %q, want dir/sub/file.txt", h.renamed[0].path)
	}
}

func TestSanitizeFilepath(t *testing.T) {
	tests := []struct {
		in     string
		folder bool
		want   string
	}{
		{"a/b/c", false, "a/b/c"},
		{"a//b", false, "a/b"},
		{"a\\b", false, "a/b"},
		{" a / b ", false, "a/b"},
		{"a/b", true, "a/b/"},
		{"", true, ""},
		{"///", false, ""},
	}
	for _, tc := range tests {
		if got := sanitizeFilepath(tc.in, tc.folder); got != tc.want {
			t.Errorf("sanitizeFilepath(%q, %v) = %q, want %q", tc.in, tc.folder, got, tc.want)
		}
	}
}
