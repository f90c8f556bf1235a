package anacrolix

import (
	"time"

	"torrentcore/internal/domain"
)

// Status builds a fresh snapshot from the client's current counters. It is a
// blocking round-trip in the ports.Handle sense: every value is read from the
// live torrent at call time.
func (h *Handle) Status() domain.Snapshot {
	t := h.torrent
	stats := t.Stats()
	now := time.Now().UTC()
	hasInfo := infoReady(t)

	h.mu.Lock()
	paused := h.paused
	autoManaged := h.autoManaged
	superSeed := h.superSeed
	priority := h.priority
	queuePos := h.queuePos
	filePrios := append([]int(nil), h.filePrios...)
	h.mu.Unlock()

	st := domain.Snapshot{
		Paused:        paused,
		AutoManaged:   autoManaged,
		HasMetadata:   hasInfo,
		SuperSeeding:  superSeed,
		Priority:      priority,
		QueuePosition: queuePos,
		AddedTime:     h.addedAt.Unix(),
		ActiveTime:    int64(now.Sub(h.addedAt).Seconds()),

		AllTimeDownload:      stats.BytesReadUsefulData.Int64(),
		AllTimeUpload:        stats.BytesWrittenData.Int64(),
		TotalPayloadDownload: stats.BytesReadUsefulData.Int64(),
		TotalPayloadUpload:   stats.BytesWrittenData.Int64(),

		NumPeers:          stats.ActivePeers,
		NumSeeds:          stats.ConnectedSeeders,
		NumComplete:       stats.ConnectedSeeders,
		NumIncomplete:     stats.ActivePeers - stats.ConnectedSeeders,
		DistributedCopies: float64(stats.ConnectedSeeders),
	}

	if mi := t.Metainfo(); mi.Announce != "" {
		st.CurrentTracker = mi.Announce
	}

	if !hasInfo {
		st.RawState = domain.RawDownloadingMetadata
		st.DownloadPayloadRate, st.UploadPayloadRate = h.sampleSpeed(st.AllTimeDownload, st.AllTimeUpload, now)
		return st
	}

	length := t.Length()
	done := t.BytesCompleted()
	st.TotalDone = done
	if length > 0 {
		st.Progress = float64(done) / float64(length)
	}

	wanted, wantedDone := h.wantedBytes(filePrios)
	st.TotalWanted = wanted
	st.TotalWantedDone = wantedDone

	n := t.NumPieces()
	pieces := make([]bool, n)
	checking := false
	for i := 0; i < n; i++ {
		ps := t.PieceState(i)
		pieces[i] = ps.Complete
		if ps.Checking {
			checking = true
		}
	}
	st.Pieces = pieces

	finished := wanted > 0 && wantedDone >= wanted
	st.IsFinished = finished
	st.IsSeeding = finished && !paused

	h.mu.Lock()
	if finished && h.completedAt.IsZero() {
		h.completedAt = now
	}
	if !h.completedAt.IsZero() {
		st.CompletedTime = h.completedAt.Unix()
		st.SeedingTime = int64(now.Sub(h.completedAt).Seconds())
	}
	h.mu.Unlock()

	st.RawState = deriveRawState(checking, finished)
	st.DownloadPayloadRate, st.UploadPayloadRate = h.sampleSpeed(st.AllTimeDownload, st.AllTimeUpload, now)
	return st
}

// deriveRawState maps the client's observable condition to a raw state.
// Metadata absence is handled by the caller.
func deriveRawState(checking, finished bool) domain.RawState {
	switch {
	case checking:
		return domain.RawChecking
	case finished:
		return domain.RawSeeding
	default:
		return domain.RawDownloading
	}
}

// wantedBytes sums the sizes and completed bytes of files not marked
// do-not-download.
func (h *Handle) wantedBytes(filePrios []int) (wanted, done int64) {
	files := h.torrent.Files()
	for i, f := range files {
		if i < len(filePrios) && filePrios[i] == 0 {
			continue
		}
		wanted += f.Length()
		done += f.BytesCompleted()
	}
	return wanted, done
}

type speedSample struct {
	at           time.Time
	bytesRead    int64
	bytesWritten int64
}

// sampleSpeed derives transfer rates from byte-counter deltas between
// consecutive snapshots.
func (h *Handle) sampleSpeed(bytesRead, bytesWritten int64, now time.Time) (down, up int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev := h.lastSample
	h.lastSample = speedSample{at: now, bytesRead: bytesRead, bytesWritten: bytesWritten}

	if prev.at.IsZero() {
		return 0, 0
	}
	dt := now.Sub(prev.at).Seconds()
	if dt <= 0 {
		return 0, 0
	}

	deltaRead := bytesRead - prev.bytesRead
	deltaWritten := bytesWritten - prev.bytesWritten
	if deltaRead < 0 {
		deltaRead = 0
	}
	if deltaWritten < 0 {
		deltaWritten = 0
	}
	return int64(float64(deltaRead) / dt), int64(float64(deltaWritten) / dt)
}
