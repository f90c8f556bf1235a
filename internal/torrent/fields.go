package torrent

import (
	"torrentcore/internal/domain"
)

// fieldValueLocked computes one status field from the cached snapshot, the
// options and the classifier result. Caller holds t.mu.
func (t *Torrent) fieldValueLocked(f domain.StatusField) any {
	st := t.status
	switch f {
	case domain.FieldActiveTime:
		return st.ActiveTime
	case domain.FieldAllTimeDownload:
		return st.AllTimeDownload
	case domain.FieldCompact:
		return t.options.CompactAllocation
	case domain.FieldComment:
		return t.info.Comment
	case domain.FieldCompletedTime:
		return st.CompletedTime
	case domain.FieldDistributedCopies:
		if st.DistributedCopies < 0 {
			return 0.0
		}
		return st.DistributedCopies
	case domain.FieldDownloadLocation:
		return t.options.DownloadLocation
	case domain.FieldDownloadPayloadRate:
		return st.DownloadPayloadRate
	case domain.FieldETA:
		return t.etaLocked()
	case domain.FieldFilePriorities:
		return append([]int(nil), t.options.FilePriorities...)
	case domain.FieldFileProgress:
		return t.fileProgressLocked()
	case domain.FieldFiles:
		return t.filesLocked()
	case domain.FieldHash:
		return string(t.id)
	case domain.FieldIsAutoManaged:
		return t.options.AutoManaged
	case domain.FieldIsFinished:
		return t.isFinished
	case domain.FieldIsSeed:
		return st.IsSeeding
	case domain.FieldLastSeenComplete:
		return st.LastSeenComplete
	case domain.FieldMaxConnections:
		return t.options.MaxConnections
	case domain.FieldMaxDownloadSpeed:
		return t.options.MaxDownloadSpeed
	case domain.FieldMaxUploadSlots:
		return t.options.MaxUploadSlots
	case domain.FieldMaxUploadSpeed:
		return t.options.MaxUploadSpeed
	case domain.FieldMessage:
		return t.statusMsg
	case domain.FieldMoveCompleted:
		return t.options.MoveCompleted
	case domain.FieldMoveCompletedPath:
		return t.options.MoveCompletedPath
	case domain.FieldName:
		return t.nameLocked()
	case domain.FieldNextAnnounce:
		return int64(st.NextAnnounce.Seconds())
	case domain.FieldNumFiles:
		return len(t.info.Files)
	case domain.FieldNumPeers:
		return st.NumPeers - st.NumSeeds
	case domain.FieldNumPieces:
		return t.info.NumPieces
	case domain.FieldNumSeeds:
		return st.NumSeeds
	case domain.FieldOwner:
		return t.options.Owner
	case domain.FieldPaused:
		return st.Paused
	case domain.FieldPeers:
		return t.peersLocked()
	case domain.FieldPieceLength:
		return t.info.PieceLength
	case domain.FieldPieces:
		return t.piecesLocked()
	case domain.FieldPrioritizeFirstLast:
		return t.options.PrioritizeFirstLast
	case domain.FieldPriority:
		return st.Priority
	case domain.FieldPrivate:
		return t.info.Private
	case domain.FieldProgress:
		return st.Progress * 100
	case domain.FieldQueue:
		return st.QueuePosition
	case domain.FieldRatio:
		return t.ratioLocked()
	case domain.FieldRemoveAtRatio:
		return t.options.RemoveAtRatio
	case domain.FieldSeedMode:
		return st.SeedMode
	case domain.FieldSeedRank:
		return st.SeedRank
	case domain.FieldSeedingTime:
		return st.SeedingTime
	case domain.FieldSeedsPeersRatio:
		if st.NumIncomplete == 0 {
			// -1 signifies infinity.
			return -1.0
		}
		return float64(st.NumComplete) / float64(st.NumIncomplete)
	case domain.FieldSequentialDownload:
		return t.options.SequentialDownload
	case domain.FieldShared:
		return t.options.Shared
	case domain.FieldState:
		return string(t.state)
	case domain.FieldStopAtRatio:
		return t.options.StopAtRatio
	case domain.FieldStopRatio:
		return t.options.StopRatio
	case domain.FieldSuperSeeding:
		return st.SuperSeeding
	case domain.FieldTimeAdded:
		return st.AddedTime
	case domain.FieldTimeSinceDownload:
		return st.TimeSinceDownload
	case domain.FieldTimeSinceUpload:
		return st.TimeSinceUpload
	case domain.FieldTotalDone:
		return st.TotalDone
	case domain.FieldTotalPayloadDownload:
		return st.TotalPayloadDownload
	case domain.FieldTotalPayloadUpload:
		return st.TotalPayloadUpload
	case domain.FieldTotalPeers:
		return st.NumIncomplete
	case domain.FieldTotalRemaining:
		return st.TotalWanted - st.TotalWantedDone
	case domain.FieldTotalSeeds:
		return st.NumComplete
	case domain.FieldTotalSize:
		return t.info.TotalSize
	case domain.FieldTotalUploaded:
		return st.AllTimeUpload
	case domain.FieldTotalWanted:
		return st.TotalWanted
	case domain.FieldTracker:
		return st.CurrentTracker
	case domain.FieldTrackerHost:
		return t.trackerHostLocked()
	case domain.FieldTrackerStatus:
		return t.trackerStatus
	case domain.FieldTrackers:
		return append([]domain.Tracker(nil), t.trackers...)
	case domain.FieldUploadPayloadRate:
		return st.UploadPayloadRate
	}
	return nil
}

// etaLocked estimates seconds until completion, or until the stop ratio is
// reached for a finished torrent with stop_at_ratio set. 0 when unknown.
func (t *Torrent) etaLocked() int64 {
	st := t.status
	if t.isFinished && t.options.StopAtRatio {
		if st.UploadPayloadRate == 0 {
			return 0
		}
		toUpload := float64(st.AllTimeDownload)*t.options.StopRatio - float64(st.AllTimeUpload)
		return int64(toUpload / float64(st.UploadPayloadRate))
	}
	left := st.TotalWanted - st.TotalWantedDone
	if left <= 0 || st.DownloadPayloadRate == 0 {
		return 0
	}
	return left / st.DownloadPayloadRate
}

func (t *Torrent) nameLocked() string {
	if t.options.Name != "" {
		return t.options.Name
	}
	if name := t.handle.Name(); name != "" {
		return name
	}
	return string(t.id)
}

func (t *Torrent) filesLocked() []domain.FileInfo {
	if !t.hasMetadata {
		return []domain.FileInfo{}
	}
	return append([]domain.FileInfo(nil), t.info.Files...)
}

// fileProgressLocked returns per-file completion fractions in [0,1].
func (t *Torrent) fileProgressLocked() []float64 {
	if !t.hasMetadata {
		return []float64{}
	}
	done := t.handle.FileProgress()
	out := make([]float64, len(t.info.Files))
	for i, f := range t.info.Files {
		if f.Size <= 0 || i >= len(done) {
			out[i] = 0.0
			continue
		}
		out[i] = float64(done[i]) / float64(f.Size)
	}
	return out
}

// peersLocked lists connected peers, skipping those still connecting or
// handshaking.
func (t *Torrent) peersLocked() []domain.Peer {
	peers := t.handle.Peers()
	out := make([]domain.Peer, 0, len(peers))
	for _, p := range peers {
		if p.Connecting || p.Handshake {
			continue
		}
		out = append(out, p)
	}
	return out
}
