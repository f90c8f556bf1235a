package ports

import "torrentcore/internal/domain"

// EventBus receives lifecycle notifications produced by the torrent core.
type EventBus interface {
	StateChanged(id domain.TorrentID, state domain.State)
	FolderRenamed(id domain.TorrentID, oldFolder, newFolder string)
}
