package domain

import "testing"

func TestClassifyPieces(t *testing.T) {
	completed := []bool{true, false, false, true, false}
	availability := []int{3, 0, 2, 1, 0}
	peers := []Peer{
		{DownloadingPiece: 2},
		{DownloadingPiece: 3}, // in flight wins over complete
		{DownloadingPiece: 4, Connecting: true},
		{DownloadingPiece: 1, Handshake: true},
	}

	got := ClassifyPieces(completed, availability, peers)
	want := []PieceState{PieceComplete, PieceMissing, PieceDownloading, PieceDownloading, PieceMissing}
	if len(got) != len(want) {
		t.Fatalf("got %d states, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("piece %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestClassifyPiecesAvailability(t *testing.T) {
	got := ClassifyPieces([]bool{false, false}, []int{1, 0}, nil)
	if got[0] != PieceAvailable {
		t.Errorf("piece 0 = %d, want %d", got[0], PieceAvailable)
	}
	if got[1] != PieceMissing {
		t.Errorf("piece 1 = %d, want %d", got[1], PieceMissing)
	}
}

func TestClassifyPiecesIgnoresOutOfRangePeer(t *testing.T) {
	got := ClassifyPieces([]bool{false}, nil, []Peer{{DownloadingPiece: -1}, {DownloadingPiece: 7}})
	if got[0] != PieceMissing {
		t.Fatalf("piece 0 = %d, want %d", got[0], PieceMissing)
	}
}
