package domain

import "fmt"

// StatusField identifies one field of a status query. The set is fixed; the
// per-field computation is a switch in the torrent package, not a
// runtime-built table of closures.
type StatusField string

const (
	FieldActiveTime           StatusField = "active_time"
	FieldAllTimeDownload      StatusField = "all_time_download"
	FieldCompact              StatusField = "compact"
	FieldComment              StatusField = "comment"
	FieldCompletedTime        StatusField = "completed_time"
	FieldDistributedCopies    StatusField = "distributed_copies"
	FieldDownloadLocation     StatusField = "download_location"
	FieldDownloadPayloadRate  StatusField = "download_payload_rate"
	FieldETA                  StatusField = "eta"
	FieldFilePriorities       StatusField = "file_priorities"
	FieldFileProgress         StatusField = "file_progress"
	FieldFiles                StatusField = "files"
	FieldHash                 StatusField = "hash"
	FieldIsAutoManaged        StatusField = "is_auto_managed"
	FieldIsFinished           StatusField = "is_finished"
	FieldIsSeed               StatusField = "is_seed"
	FieldLastSeenComplete     StatusField = "last_seen_complete"
	FieldMaxConnections       StatusField = "max_connections"
	FieldMaxDownloadSpeed     StatusField = "max_download_speed"
	FieldMaxUploadSlots       StatusField = "max_upload_slots"
	FieldMaxUploadSpeed       StatusField = "max_upload_speed"
	FieldMessage              StatusField = "message"
	FieldMoveCompleted        StatusField = "move_completed"
	FieldMoveCompletedPath    StatusField = "move_completed_path"
	FieldName                 StatusField = "name"
	FieldNextAnnounce         StatusField = "next_announce"
	FieldNumFiles             StatusField = "num_files"
	FieldNumPeers             StatusField = "num_peers"
	FieldNumPieces            StatusField = "num_pieces"
	FieldNumSeeds             StatusField = "num_seeds"
	FieldOwner                StatusField = "owner"
	FieldPaused               StatusField = "paused"
	FieldPeers                StatusField = "peers"
	FieldPieceLength          StatusField = "piece_length"
	FieldPieces               StatusField = "pieces"
	FieldPrioritizeFirstLast  StatusField = "prioritize_first_last"
	FieldPriority             StatusField = "priority"
	FieldPrivate              StatusField = "private"
	FieldProgress             StatusField = "progress"
	FieldQueue                StatusField = "queue"
	FieldRatio                StatusField = "ratio"
	FieldRemoveAtRatio        StatusField = "remove_at_ratio"
	FieldSeedMode             StatusField = "seed_mode"
	FieldSeedRank             StatusField = "seed_rank"
	FieldSeedingTime          StatusField = "seeding_time"
	FieldSeedsPeersRatio      StatusField = "seeds_peers_ratio"
	FieldSequentialDownload   StatusField = "sequential_download"
	FieldShared               StatusField = "shared"
	FieldState                StatusField = "state"
	FieldStopAtRatio          StatusField = "stop_at_ratio"
	FieldStopRatio            StatusField = "stop_ratio"
	FieldSuperSeeding         StatusField = "super_seeding"
	FieldTimeAdded            StatusField = "time_added"
	FieldTimeSinceDownload    StatusField = "time_since_download"
	FieldTimeSinceUpload      StatusField = "time_since_upload"
	FieldTotalDone            StatusField = "total_done"
	FieldTotalPayloadDownload StatusField = "total_payload_download"
	FieldTotalPayloadUpload   StatusField = "total_payload_upload"
	FieldTotalPeers           StatusField = "total_peers"
	FieldTotalRemaining       StatusField = "total_remaining"
	FieldTotalSeeds           StatusField = "total_seeds"
	FieldTotalSize            StatusField = "total_size"
	FieldTotalUploaded        StatusField = "total_uploaded"
	FieldTotalWanted          StatusField = "total_wanted"
	FieldTracker              StatusField = "tracker"
	FieldTrackerHost          StatusField = "tracker_host"
	FieldTrackerStatus        StatusField = "tracker_status"
	FieldTrackers             StatusField = "trackers"
	FieldUploadPayloadRate    StatusField = "upload_payload_rate"
)

var allStatusFields = []StatusField{
	FieldActiveTime, FieldAllTimeDownload, FieldCompact, FieldComment,
	FieldCompletedTime, FieldDistributedCopies, FieldDownloadLocation,
	FieldDownloadPayloadRate, FieldETA, FieldFilePriorities,
	FieldFileProgress, FieldFiles, FieldHash, FieldIsAutoManaged,
	FieldIsFinished, FieldIsSeed, FieldLastSeenComplete, FieldMaxConnections,
	FieldMaxDownloadSpeed, FieldMaxUploadSlots, FieldMaxUploadSpeed,
	FieldMessage, FieldMoveCompleted, FieldMoveCompletedPath, FieldName,
	FieldNextAnnounce, FieldNumFiles, FieldNumPeers, FieldNumPieces,
	FieldNumSeeds, FieldOwner, FieldPaused, FieldPeers, FieldPieceLength,
	FieldPieces, FieldPrioritizeFirstLast, FieldPriority, FieldPrivate,
	FieldProgress, FieldQueue, FieldRatio, FieldRemoveAtRatio, FieldSeedMode,
	FieldSeedRank, FieldSeedingTime, FieldSeedsPeersRatio,
	FieldSequentialDownload, FieldShared, FieldState, FieldStopAtRatio,
	FieldStopRatio, FieldSuperSeeding, FieldTimeAdded, FieldTimeSinceDownload,
	FieldTimeSinceUpload, FieldTotalDone, FieldTotalPayloadDownload,
	FieldTotalPayloadUpload, FieldTotalPeers, FieldTotalRemaining,
	FieldTotalSeeds, FieldTotalSize, FieldTotalUploaded, FieldTotalWanted,
	FieldTracker, FieldTrackerHost, FieldTrackerStatus, FieldTrackers,
	FieldUploadPayloadRate,
}

var statusFieldSet = func() map[StatusField]struct{} {
	m := make(map[StatusField]struct{}, len(allStatusFields))
	for _, f := range allStatusFields {
		m[f] = struct{}{}
	}
	return m
}()

// AllStatusFields returns every recognized field in a stable order.
func AllStatusFields() []StatusField {
	return append([]StatusField(nil), allStatusFields...)
}

// ParseStatusField resolves a wire key to a field, or ErrUnknownField.
func ParseStatusField(key string) (StatusField, error) {
	f := StatusField(key)
	if _, ok := statusFieldSet[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	return f, nil
}
