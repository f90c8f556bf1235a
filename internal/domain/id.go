package domain

// TorrentID is the hex-encoded infohash of a torrent. It is derived from the
// torrent metadata when the torrent is added and never changes afterwards; it
// is the primary key for every lookup in this module.
type TorrentID string

// TorrentSource describes where a torrent was added from. Exactly one of the
// two fields is set: a magnet URI or a base64-encoded .torrent file.
type TorrentSource struct {
	Magnet  string `json:"magnet,omitempty"`
	Torrent string `json:"torrent,omitempty"`
}
