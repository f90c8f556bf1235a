package torrent

import (
	"torrentcore/internal/domain"
)

// boostedPriority is the engine's maximum per-piece download priority.
const boostedPriority = 7

// prioritizeFirstLastLocked raises the priority of the pieces covering the
// first and last 2% of every file's bytes to the maximum. Pieces marked
// do-not-download keep priority 0; all other pieces keep the priorities set
// by the per-file vector. Caller holds t.mu.
func (t *Torrent) prioritizeFirstLastLocked() {
	if t.info.PieceLength <= 0 {
		return
	}
	prios := t.handle.PiecePriorities()
	if len(prios) == 0 {
		return
	}

	for _, f := range t.info.Files {
		if f.Size <= 0 {
			continue
		}
		twoPercent := f.Size / 50
		if twoPercent < 1 {
			twoPercent = 1
		}
		// First 2% of the file's bytes, then the last 2%. Ranges are
		// end-exclusive and always cover at least one piece.
		boostPieces(prios, t.pieceAt(f.Offset), t.pieceAt(f.Offset+twoPercent-1)+1)
		boostPieces(prios, t.pieceAt(f.Offset+f.Size-twoPercent), t.pieceAt(f.Offset+f.Size-1)+1)
	}

	t.handle.SetPiecePriorities(prios)
}

// pieceAt maps a byte offset to its piece index, clamped to the valid range.
func (t *Torrent) pieceAt(offset int64) int {
	idx := int(offset / t.info.PieceLength)
	if idx < 0 {
		return 0
	}
	if idx >= t.info.NumPieces {
		return t.info.NumPieces - 1
	}
	return idx
}

// boostPieces raises prios[start:end) to the maximum priority, leaving
// do-not-download entries untouched.
func boostPieces(prios []int, start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(prios) {
		end = len(prios)
	}
	for i := start; i < end; i++ {
		if prios[i] == 0 {
			continue
		}
		prios[i] = boostedPriority
	}
}

// piecesLocked classifies every piece for UI consumption. Caller holds t.mu.
func (t *Torrent) piecesLocked() []domain.PieceState {
	if !t.hasMetadata {
		return []domain.PieceState{}
	}
	return domain.ClassifyPieces(t.status.Pieces, t.handle.PieceAvailability(), t.handle.Peers())
}
