package torrent

import (
	"errors"
	"testing"

	"torrentcore/internal/domain"
	"torrentcore/internal/domain/ports"
)

func newTestTorrent(t *testing.T, h *fakeHandle) (*Torrent, *fakeEngine, *fakeBus) {
	t.Helper()
	e := newFakeEngine()
	bus := &fakeBus{}
	tor := New(Config{
		Handle:   h,
		Engine:   e,
		Events:   bus,
		Options:  domain.DefaultOptions(),
		StateDir: t.TempDir(),
	})
	return tor, e, bus
}

func withMetadata(h *fakeHandle, numFiles int, fileSize, pieceLen int64) {
	files := make([]domain.FileInfo, numFiles)
	prios := make([]int, numFiles)
	var offset int64
	for i := range files {
		files[i] = domain.FileInfo{Index: i, Path: "data/file" + string(rune('a'+i)), Size: fileSize, Offset: offset}
		prios[i] = 1
		offset += fileSize
	}
	total := fileSize * int64(numFiles)
	numPieces := int((total + pieceLen - 1) / pieceLen)
	piecePrios := make([]int, numPieces)
	for i := range piecePrios {
		piecePrios[i] = 1
	}
	h.info = domain.TorrentInfo{
		Name:        "test",
		PieceLength: pieceLen,
		NumPieces:   numPieces,
		TotalSize:   total,
		Files:       files,
	}
	h.hasInfo = true
	h.snapshot.HasMetadata = true
	h.filePrios = prios
	h.piecePrios = piecePrios
}

func TestSetOptionsSpeedScaling(t *testing.T) {
	h := newFakeHandle("aa")
	tor, _, _ := newTestTorrent(t, h)

	if err := tor.SetOptions("", map[string]any{
		"max_upload_speed":   100.0,
		"max_download_speed": -1.0,
	}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}

	if h.upLimit != 100*1024 {
		t.Errorf("upload limit = %d, want %d", h.upLimit, 100*1024)
	}
	if h.downLimit != -1 {
		t.Errorf("download limit = %d, want -1", h.downLimit)
	}

	opts := tor.Options()
	if opts.MaxUploadSpeed != 100.0 {
		t.Errorf("stored upload speed = %v, want 100.0 (unscaled)", opts.MaxUploadSpeed)
	}
	if opts.MaxDownloadSpeed != -1.0 {
		t.Errorf("stored download speed = %v, want -1.0", opts.MaxDownloadSpeed)
	}
}

func TestSetOptionsPriorityRange(t *testing.T) {
	h := newFakeHandle("aa")
	tor, _, _ := newTestTorrent(t, h)

	if err := tor.SetOptions("", map[string]any{"priority": 300}); !errors.Is(err, domain.ErrPriorityRange) {
		t.Fatalf("priority 300: got %v, want %v", err, domain.ErrPriorityRange)
	}
	if err := tor.SetOptions("", map[string]any{"priority": -1}); !errors.Is(err, domain.ErrPriorityRange) {
		t.Fatalf("priority -1: got %v, want %v", err, domain.ErrPriorityRange)
	}

	if err := tor.SetOptions("", map[string]any{"priority": 128}); err != nil {
		t.Fatalf("priority 128: %v", err)
	}
	if got := tor.Options().Priority; got != 128 {
		t.Errorf("stored priority = %d, want 128", got)
	}
	if h.priority != 128 {
		t.Errorf("engine priority = %d, want 128", h.priority)
	}
}

func TestSetOptionsBatchedPrioritizeSkipsDispatch(t *testing.T) {
	h := newFakeHandle("aa")
	withMetadata(h, 1, 1000, 100)
	tor, _, _ := newTestTorrent(t, h)

	err := tor.SetOptions("", map[string]any{
		"prioritize_first_last_pieces": true,
		"file_priorities":              []int{5},
	})
	if err != nil {
		t.Fatalf("SetOptions: %v", err)
	}

	opts := tor.Options()
	if !opts.PrioritizeFirstLast {
		t.Error("prioritize flag should be stored")
	}
	if len(opts.FilePriorities) != 1 || opts.FilePriorities[0] != 5 {
		t.Errorf("file priorities = %v, want [5]", opts.FilePriorities)
	}
	// The boost ran through set_file_priorities: first and last pieces of
	// the single file are at maximum.
	if h.piecePrios[0] != boostedPriority {
		t.Errorf("first piece priority = %d, want %d", h.piecePrios[0], boostedPriority)
	}
	if last := h.piecePrios[len(h.piecePrios)-1]; last != boostedPriority {
		t.Errorf("last piece priority = %d, want %d", last, boostedPriority)
	}
}

func TestSetOptionsFilePrioritiesLengthMismatch(t *testing.T) {
	h := newFakeHandle("aa")
	withMetadata(h, 2, 1000, 100)
	tor, _, _ := newTestTorrent(t, h)

	err := tor.SetOptions("", map[string]any{"file_priorities": []int{1, 2, 3}})
	if !errors.Is(err, domain.ErrFilePrioritiesLength) {
		t.Fatalf("got %v, want %v", err, domain.ErrFilePrioritiesLength)
	}
}

func TestSetOptionsFilePrioritiesResetsFinished(t *testing.T) {
	h := newFakeHandle("aa")
	withMetadata(h, 2, 1000, 100)
	h.filePrios = []int{0, 1}
	tor, _, _ := newTestTorrent(t, h)
	tor.mu.Lock()
	tor.options.FilePriorities = []int{0, 1}
	tor.isFinished = true
	tor.mu.Unlock()

	if err := tor.SetOptions("", map[string]any{"file_priorities": []int{1, 1}}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}

	tor.mu.Lock()
	finished := tor.isFinished
	tor.mu.Unlock()
	if finished {
		t.Error("wanting a previously skipped file should clear the finished flag")
	}
}

func TestSetOptionsSuperSeedingOnlyWhileSeeding(t *testing.T) {
	h := newFakeHandle("aa")
	tor, _, _ := newTestTorrent(t, h)

	if err := tor.SetOptions("", map[string]any{"super_seeding": true}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	if tor.Options().SuperSeeding {
		t.Error("super seeding should stay off while not seeding")
	}

	h.snapshot.IsSeeding = true
	tor.RefreshStatus()
	if err := tor.SetOptions("", map[string]any{"super_seeding": true}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	if !tor.Options().SuperSeeding {
		t.Error("super seeding should turn on while seeding")
	}
	if !h.superSeeding {
		t.Error("super seeding should be pushed to the engine")
	}
}

func TestSetOptionsUnknownKeyIgnored(t *testing.T) {
	h := newFakeHandle("aa")
	tor, _, _ := newTestTorrent(t, h)

	before := tor.Options()
	if err := tor.SetOptions("", map[string]any{"no_such_option": 42}); err != nil {
		t.Fatalf("unknown key should be ignored, got %v", err)
	}
	after := tor.Options()
	if before.MaxConnections != after.MaxConnections || before.StopRatio != after.StopRatio {
		t.Error("unknown key must not disturb stored options")
	}
}

func TestSetOptionsOwnerRequiresAdmin(t *testing.T) {
	h := newFakeHandle("aa")
	e := newFakeEngine()
	auth := &fakeAuth{
		valid:  map[string]bool{"s1": true, "s2": true},
		levels: map[string]ports.AuthLevel{"s1": ports.AuthLevelNormal, "s2": ports.AuthLevelAdmin},
	}
	tor := New(Config{Handle: h, Engine: e, Auth: auth, Options: domain.DefaultOptions(), StateDir: t.TempDir()})

	if err := tor.SetOptions("s1", map[string]any{"owner": "mallory"}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	if got := tor.Options().Owner; got != "" {
		t.Errorf("owner = %q, non-admin session must not change it", got)
	}

	if err := tor.SetOptions("s2", map[string]any{"owner": "alice"}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	if got := tor.Options().Owner; got != "alice" {
		t.Errorf("owner = %q, want alice", got)
	}
}

func TestSetOptionsCoercesJSONNumbers(t *testing.T) {
	h := newFakeHandle("aa")
	withMetadata(h, 2, 1000, 100)
	tor, _, _ := newTestTorrent(t, h)

	err := tor.SetOptions("", map[string]any{
		"max_connections": float64(80), // decoded JSON number
		"file_priorities": []any{float64(3), float64(4)},
	})
	if err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	if got := tor.Options().MaxConnections; got != 80 {
		t.Errorf("max connections = %d, want 80", got)
	}
	if got := h.filePrios; len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Errorf("file priorities = %v, want [3 4]", got)
	}
}
