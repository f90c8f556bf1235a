package domain

// PieceState classifies one piece for visualization.
type PieceState int

const (
	PieceMissing     PieceState = 0 // no known peer has it
	PieceAvailable   PieceState = 1 // some peer has it, not being fetched
	PieceDownloading PieceState = 2 // currently in flight from a peer
	PieceComplete    PieceState = 3
)

// ClassifyPieces maps every piece index to a PieceState. A piece reported as
// in flight by a fully-connected peer wins over completeness; peers still in
// the connecting or handshake phase are ignored.
func ClassifyPieces(completed []bool, availability []int, peers []Peer) []PieceState {
	inFlight := make(map[int]struct{})
	for _, p := range peers {
		if p.Connecting || p.Handshake {
			continue
		}
		if p.DownloadingPiece < 0 || p.DownloadingPiece >= len(completed) {
			continue
		}
		inFlight[p.DownloadingPiece] = struct{}{}
	}

	states := make([]PieceState, len(completed))
	for i := range completed {
		switch {
		case hasIndex(inFlight, i):
			states[i] = PieceDownloading
		case completed[i]:
			states[i] = PieceComplete
		case i < len(availability) && availability[i] > 0:
			states[i] = PieceAvailable
		default:
			states[i] = PieceMissing
		}
	}
	return states
}

func hasIndex(set map[int]struct{}, i int) bool {
	_, ok := set[i]
	return ok
}
