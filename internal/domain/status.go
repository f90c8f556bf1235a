package domain

import "time"

// Tracker is one announce entry of a torrent.
type Tracker struct {
	URL  string `json:"url"`
	Tier int    `json:"tier"`
}

// FileInfo describes one file of a torrent's metadata.
type FileInfo struct {
	Index  int    `json:"index"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Offset int64  `json:"offset"`
}

// Peer is one connected peer as reported by the engine. DownloadingPiece is
// the piece the peer is currently sending us, or -1 when none.
type Peer struct {
	Client           string  `json:"client"`
	Country          string  `json:"country"`
	IP               string  `json:"ip"`
	Progress         float64 `json:"progress"`
	Seed             bool    `json:"seed"`
	DownSpeed        int64   `json:"down_speed"`
	UpSpeed          int64   `json:"up_speed"`
	Connecting       bool    `json:"-"`
	Handshake        bool    `json:"-"`
	DownloadingPiece int     `json:"-"`
}

// TorrentInfo is the immutable metadata of a torrent, available once the
// engine has received it.
type TorrentInfo struct {
	Name        string
	Comment     string
	Private     bool
	PieceLength int64
	NumPieces   int
	TotalSize   int64
	Files       []FileInfo
}

// Snapshot is an immutable copy of the engine's per-torrent counters at one
// point in time. It is refreshed only on an explicit update call.
type Snapshot struct {
	RawState    RawState
	Paused      bool
	AutoManaged bool
	Error       string
	HasMetadata bool

	Progress             float64 // 0..1
	DownloadPayloadRate  int64   // bytes/s
	UploadPayloadRate    int64   // bytes/s
	AllTimeDownload      int64
	AllTimeUpload        int64
	TotalDone            int64
	TotalWanted          int64
	TotalWantedDone      int64
	TotalPayloadDownload int64
	TotalPayloadUpload   int64

	NumPeers          int // includes seeds
	NumSeeds          int
	NumComplete       int // swarm-wide seed count
	NumIncomplete     int // swarm-wide leecher count
	DistributedCopies float64

	ActiveTime        int64 // seconds
	SeedingTime       int64
	TimeSinceDownload int64
	TimeSinceUpload   int64
	AddedTime         int64 // unix seconds
	CompletedTime     int64
	LastSeenComplete  int64

	SeedRank       int
	CurrentTracker string
	NextAnnounce   time.Duration
	QueuePosition  int
	IsSeeding      bool
	IsFinished     bool
	SeedMode       bool
	SuperSeeding   bool
	Priority       int

	Pieces []bool // completion bitmap, nil without metadata
}
