package ports

import (
	"context"

	"torrentcore/internal/domain"
)

// Engine is the external torrent engine. It performs the wire protocol,
// piece scheduling and disk I/O; this module only directs and observes it.
type Engine interface {
	// Open adds a torrent to the engine and returns its handle. Opening an
	// already-known torrent returns the existing handle.
	Open(ctx context.Context, src domain.TorrentSource) (Handle, error)
	// Remove drops the torrent from the engine.
	Remove(ctx context.Context, id domain.TorrentID) error
	// Paused reports whether the whole engine session is paused.
	Paused() bool
	PauseSession()
	ResumeSession()
	// Alerts delivers asynchronous engine notifications. All alerts must be
	// dispatched onto one coordinating goroutine before touching torrent
	// entity state.
	Alerts() <-chan Alert
	Close() error
}

// Handle is the engine's reference to one torrent task. The torrent entity
// holds a reference, never a copy; the engine owns the underlying resource.
type Handle interface {
	ID() domain.TorrentID
	// Status performs a blocking round-trip to the engine and returns a
	// fresh snapshot. It must not be called from an alert handler.
	Status() domain.Snapshot
	Name() string
	// Info reports the torrent metadata and whether it has been received.
	Info() (domain.TorrentInfo, bool)
	Files() []domain.FileInfo
	// FileProgress returns bytes completed per file, index-aligned with
	// Files. Nil without metadata.
	FileProgress() []int64
	Peers() []domain.Peer
	// PieceAvailability reports, per piece, how many connected peers have it.
	PieceAvailability() []int
	PiecePriorities() []int
	SetPiecePriorities(prios []int)
	FilePriorities() []int
	SetFilePriorities(prios []int)
	Trackers() []domain.Tracker
	ReplaceTrackers(trackers []domain.Tracker)
	MagnetURI() string
	// Metainfo returns the bencoded metadata of the torrent, or an error
	// when metadata has not been received yet.
	Metainfo() ([]byte, error)

	SetMaxConnections(n int)
	SetMaxUploadSlots(n int)
	// SetUploadLimit and SetDownloadLimit take bytes/s; -1 means unlimited.
	SetUploadLimit(bytesPerSec int)
	SetDownloadLimit(bytesPerSec int)
	SetSequentialDownload(on bool)
	SetAutoManaged(on bool)
	SetSuperSeeding(on bool)
	SetPriority(p int)

	Pause() error
	Resume() error
	ForceRecheck() error
	ForceReannounce() error
	ScrapeTracker() error
	MoveStorage(dest string) error
	ConnectPeer(addr string) error
	// RenameFile starts an asynchronous rename; completion arrives as a
	// FileRenamedAlert regardless of outcome.
	RenameFile(index int, newPath string) error
	// SaveResumeData asks the engine to build resume data; the blob arrives
	// as a ResumeDataAlert.
	SaveResumeData() error
}

// Alert is an asynchronous engine notification.
type Alert interface {
	Torrent() domain.TorrentID
}

// FileRenamedAlert reports completion of one file rename, success or failure.
type FileRenamedAlert struct {
	ID      domain.TorrentID
	Index   int
	NewName string
	Err     error
}

func (a FileRenamedAlert) Torrent() domain.TorrentID { return a.ID }

// MetadataReceivedAlert fires when the engine has obtained torrent metadata.
type MetadataReceivedAlert struct {
	ID domain.TorrentID
}

func (a MetadataReceivedAlert) Torrent() domain.TorrentID { return a.ID }

// StateChangedAlert fires when the engine's raw state for a torrent changed.
type StateChangedAlert struct {
	ID domain.TorrentID
}

func (a StateChangedAlert) Torrent() domain.TorrentID { return a.ID }

// ResumeDataAlert carries the resume data requested via SaveResumeData.
type ResumeDataAlert struct {
	ID   domain.TorrentID
	Data []byte
	Err  error
}

func (a ResumeDataAlert) Torrent() domain.TorrentID { return a.ID }
