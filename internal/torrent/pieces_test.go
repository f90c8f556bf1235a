package torrent

import (
	"testing"

	"torrentcore/internal/domain"
)

func TestPrioritizeFirstLastBoostsEdges(t *testing.T) {
	h := newFakeHandle("aa")
	// One 10000-byte file over 10 pieces of 1000 bytes; 2% = 200 bytes,
	// covered by the first and last piece.
	withMetadata(h, 1, 10000, 1000)
	tor, _, _ := newTestTorrent(t, h)

	if err := tor.SetOptions("", map[string]any{"prioritize_first_last_pieces": true}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}

	if h.piecePrios[0] != boostedPriority {
		t.Errorf("first piece = %d, want %d", h.piecePrios[0], boostedPriority)
	}
	if h.piecePrios[9] != boostedPriority {
		t.Errorf("last piece = %d, want %d", h.piecePrios[9], boostedPriority)
	}
	for i := 1; i < 9; i++ {
		if h.piecePrios[i] != 1 {
			t.Errorf("middle piece %d = %d, want untouched 1", i, h.piecePrios[i])
		}
	}
}

func TestPrioritizeFirstLastSkipsDoNotDownload(t *testing.T) {
	h := newFakeHandle("aa")
	withMetadata(h, 1, 10000, 1000)
	h.piecePrios[0] = 0
	h.piecePrios[9] = 0
	tor, _, _ := newTestTorrent(t, h)

	if err := tor.SetOptions("", map[string]any{"prioritize_first_last_pieces": true}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}

	if h.piecePrios[0] != 0 {
		t.Errorf("do-not-download first piece = %d, must stay 0", h.piecePrios[0])
	}
	if h.piecePrios[9] != 0 {
		t.Errorf("do-not-download last piece = %d, must stay 0", h.piecePrios[9])
	}
}

func TestPrioritizeFirstLastTinyFile(t *testing.T) {
	h := newFakeHandle("aa")
	// File smaller than one piece: both 2% ranges land in piece 0.
	withMetadata(h, 1, 500, 1000)
	tor, _, _ := newTestTorrent(t, h)

	if err := tor.SetOptions("", map[string]any{"prioritize_first_last_pieces": true}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	if h.piecePrios[0] != boostedPriority {
		t.Errorf("single piece = %d, want %d", h.piecePrios[0], boostedPriority)
	}
}

func TestPrioritizeFirstLastCompactNoop(t *testing.T) {
	h := newFakeHandle("aa")
	withMetadata(h, 1, 10000, 1000)
	tor, _, _ := newTestTorrent(t, h)

	err := tor.SetOptions("", map[string]any{
		"compact_allocation":           true,
		"prioritize_first_last_pieces": true,
	})
	if err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	for i, p := range h.piecePrios {
		if p != 1 {
			t.Errorf("piece %d = %d, compact allocation must leave priorities alone", i, p)
		}
	}
}

func TestDisablePrioritizeReappliesFileVector(t *testing.T) {
	h := newFakeHandle("aa")
	withMetadata(h, 1, 10000, 1000)
	tor, _, _ := newTestTorrent(t, h)

	if err := tor.SetOptions("", map[string]any{"prioritize_first_last_pieces": true}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	if h.piecePrios[0] != boostedPriority {
		t.Fatal("boost did not apply")
	}

	if err := tor.SetOptions("", map[string]any{"prioritize_first_last_pieces": false}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	if got := h.filePrios; len(got) != 1 || got[0] != 1 {
		t.Errorf("file priorities = %v, want plain [1] reapplied", got)
	}
}

func TestPiecesViewWithoutMetadata(t *testing.T) {
	h := newFakeHandle("aa")
	tor, _, _ := newTestTorrent(t, h)

	status, err := tor.GetStatus("s1", []string{"pieces"}, false, false, false)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	pieces, ok := status["pieces"].([]domain.PieceState)
	if !ok {
		t.Fatalf("pieces field has type %T", status["pieces"])
	}
	if len(pieces) != 0 {
		t.Errorf("pieces without metadata = %v, want empty", pieces)
	}
}

func TestPiecesViewClassification(t *testing.T) {
	h := newFakeHandle("aa")
	withMetadata(h, 1, 4000, 1000)
	h.snapshot.Pieces = []bool{true, false, false, false}
	h.avail = []int{5, 2, 0, 0}
	h.peers = []domain.Peer{{DownloadingPiece: 3}}
	tor, _, _ := newTestTorrent(t, h)
	tor.RefreshStatus()

	status, err := tor.GetStatus("s1", []string{"pieces"}, false, false, false)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	pieces := status["pieces"].([]domain.PieceState)
	want := []domain.PieceState{domain.PieceComplete, domain.PieceAvailable, domain.PieceMissing, domain.PieceDownloading}
	for i := range want {
		if pieces[i] != want[i] {
			t.Errorf("piece %d = %d, want %d", i, pieces[i], want[i])
		}
	}
}
