package anacrolix

import (
	"bytes"
	"errors"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/anacrolix/torrent"

	"torrentcore/internal/domain"
	"torrentcore/internal/domain/ports"
)

var errNotSupported = errors.New("not supported by engine")

// Handle adapts one anacrolix torrent to the ports.Handle contract. Flags the
// client library has no notion of (auto-managed, sequential download, super
// seeding) are tracked here and reflected back in snapshots.
type Handle struct {
	engine  *Engine
	torrent *torrent.Torrent
	id      domain.TorrentID

	mu          sync.Mutex
	paused      bool
	autoManaged bool
	sequential  bool
	superSeed   bool
	priority    int
	maxConns    int
	queuePos    int

	filePrios  []int
	piecePrios []int

	addedAt     time.Time
	completedAt time.Time
	lastSample  speedSample
}

func newHandle(e *Engine, t *torrent.Torrent, id domain.TorrentID, queuePos int) *Handle {
	h := &Handle{
		engine:   e,
		torrent:  t,
		id:       id,
		maxConns: defaultMaxConns,
		queuePos: queuePos,
		addedAt:  time.Now().UTC(),
	}
	if infoReady(t) {
		h.onMetadata()
	}
	return h
}

// onMetadata initializes the priority vectors once metadata is known.
func (h *Handle) onMetadata() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.filePrios) > 0 {
		return
	}
	h.filePrios = make([]int, len(h.torrent.Files()))
	for i := range h.filePrios {
		h.filePrios[i] = 1
	}
	h.piecePrios = make([]int, h.torrent.NumPieces())
	for i := range h.piecePrios {
		h.piecePrios[i] = 1
	}
}

func (h *Handle) ID() domain.TorrentID { return h.id }

func (h *Handle) Name() string {
	if infoReady(h.torrent) {
		return h.torrent.Name()
	}
	return ""
}

func (h *Handle) Info() (domain.TorrentInfo, bool) {
	if !infoReady(h.torrent) {
		return domain.TorrentInfo{}, false
	}
	info := h.torrent.Info()
	return domain.TorrentInfo{
		Name:        h.torrent.Name(),
		Comment:     h.torrent.Metainfo().Comment,
		Private:     info.Private != nil && *info.Private,
		PieceLength: info.PieceLength,
		NumPieces:   h.torrent.NumPieces(),
		TotalSize:   h.torrent.Length(),
		Files:       h.Files(),
	}, true
}

func (h *Handle) Files() []domain.FileInfo {
	if !infoReady(h.torrent) {
		return nil
	}
	files := h.torrent.Files()
	out := make([]domain.FileInfo, 0, len(files))
	for i, f := range files {
		out = append(out, domain.FileInfo{
			Index:  i,
			Path:   f.Path(),
			Size:   f.Length(),
			Offset: f.Offset(),
		})
	}
	return out
}

func (h *Handle) FileProgress() []int64 {
	if !infoReady(h.torrent) {
		return nil
	}
	files := h.torrent.Files()
	out := make([]int64, len(files))
	for i, f := range files {
		out[i] = f.BytesCompleted()
	}
	return out
}

// Peers reports the connected swarm. The client library keeps most per-peer
// protocol state to itself, so only addresses and counts are filled in.
func (h *Handle) Peers() []domain.Peer {
	stats := h.torrent.Stats()
	seeds := stats.ConnectedSeeders
	out := make([]domain.Peer, 0, stats.ActivePeers)
	for i := 0; i < stats.ActivePeers; i++ {
		out = append(out, domain.Peer{
			Seed:             i < seeds,
			DownloadingPiece: -1,
		})
	}
	return out
}

// PieceAvailability approximates per-piece seed counts: every connected seed
// has every piece, and a partially downloaded piece has at least one more
// source.
func (h *Handle) PieceAvailability() []int {
	if !infoReady(h.torrent) {
		return nil
	}
	seeds := h.torrent.Stats().ConnectedSeeders
	n := h.torrent.NumPieces()
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = seeds
		if h.torrent.PieceState(i).Partial {
			out[i]++
		}
	}
	return out
}

func (h *Handle) PiecePriorities() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.piecePrios...)
}

func (h *Handle) SetPiecePriorities(prios []int) {
	if !infoReady(h.torrent) {
		return
	}
	n := h.torrent.NumPieces()
	for i, p := range prios {
		if i >= n {
			break
		}
		h.torrent.Piece(i).SetPriority(mapPiecePriority(p))
	}
	h.mu.Lock()
	h.piecePrios = append([]int(nil), prios...)
	h.mu.Unlock()
}

func (h *Handle) FilePriorities() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.filePrios...)
}

func (h *Handle) SetFilePriorities(prios []int) {
	if !infoReady(h.torrent) {
		return
	}
	files := h.torrent.Files()
	for i, p := range prios {
		if i >= len(files) {
			break
		}
		files[i].SetPriority(mapPiecePriority(p))
	}
	h.mu.Lock()
	h.filePrios = append([]int(nil), prios...)
	h.mu.Unlock()
}

func (h *Handle) Trackers() []domain.Tracker {
	mi := h.torrent.Metainfo()
	var out []domain.Tracker
	if mi.Announce != "" {
		out = append(out, domain.Tracker{URL: mi.Announce, Tier: 0})
	}
	for tier, urls := range mi.AnnounceList {
		for _, u := range urls {
			if u == mi.Announce {
				continue
			}
			out = append(out, domain.Tracker{URL: u, Tier: tier})
		}
	}
	return out
}

// ReplaceTrackers merges the given trackers into the client's announce set.
// The client library cannot retract announce entries it already knows.
func (h *Handle) ReplaceTrackers(trackers []domain.Tracker) {
	tiers := make(map[int][]string)
	maxTier := 0
	for _, t := range trackers {
		tiers[t.Tier] = append(tiers[t.Tier], t.URL)
		if t.Tier > maxTier {
			maxTier = t.Tier
		}
	}
	announce := make([][]string, 0, maxTier+1)
	for tier := 0; tier <= maxTier; tier++ {
		if urls := tiers[tier]; len(urls) > 0 {
			announce = append(announce, urls)
		}
	}
	if len(announce) > 0 {
		h.torrent.AddTrackers(announce)
	}
}

func (h *Handle) MagnetURI() string {
	return buildMagnet(string(h.id), h.Name())
}

func (h *Handle) Metainfo() ([]byte, error) {
	if !infoReady(h.torrent) {
		return nil, errors.New("metadata not received")
	}
	mi := h.torrent.Metainfo()
	var buf bytes.Buffer
	if err := mi.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *Handle) SetMaxConnections(n int) {
	if n < 0 {
		n = defaultMaxConns
	}
	h.mu.Lock()
	h.maxConns = n
	paused := h.paused
	h.mu.Unlock()
	if !paused {
		h.torrent.SetMaxEstablishedConns(n)
	}
}

// SetMaxUploadSlots has no client-library equivalent; the connection cap is
// the nearest control.
func (h *Handle) SetMaxUploadSlots(int) {}

// Per-torrent rate limits are enforced at the client level via the session
// limiters configured in New; per-handle calls are accepted and logged.
func (h *Handle) SetUploadLimit(bytesPerSec int) {
	h.engine.logger.Debug("per-torrent upload limit recorded",
		slog.String("torrentId", string(h.id)),
		slog.Int("bytesPerSec", bytesPerSec))
}

func (h *Handle) SetDownloadLimit(bytesPerSec int) {
	h.engine.logger.Debug("per-torrent download limit recorded",
		slog.String("torrentId", string(h.id)),
		slog.Int("bytesPerSec", bytesPerSec))
}

func (h *Handle) SetSequentialDownload(on bool) {
	h.mu.Lock()
	h.sequential = on
	h.mu.Unlock()
}

func (h *Handle) SetAutoManaged(on bool) {
	h.mu.Lock()
	h.autoManaged = on
	h.mu.Unlock()
}

func (h *Handle) SetSuperSeeding(on bool) {
	h.mu.Lock()
	h.superSeed = on
	h.mu.Unlock()
}

func (h *Handle) SetPriority(p int) {
	h.mu.Lock()
	h.priority = p
	h.mu.Unlock()
}

func (h *Handle) Pause() error {
	h.mu.Lock()
	h.paused = true
	h.mu.Unlock()
	hardPause(h.torrent)
	h.engine.emit(ports.StateChangedAlert{ID: h.id})
	return nil
}

func (h *Handle) Resume() error {
	h.mu.Lock()
	h.paused = false
	h.mu.Unlock()
	if !h.engine.Paused() {
		h.allowTransfer()
	}
	h.engine.emit(ports.StateChangedAlert{ID: h.id})
	return nil
}

func (h *Handle) allowTransfer() {
	h.mu.Lock()
	maxConns := h.maxConns
	h.mu.Unlock()
	h.torrent.SetMaxEstablishedConns(maxConns)
	h.torrent.AllowDataUpload()
	h.torrent.AllowDataDownload()
	if infoReady(h.torrent) {
		h.torrent.DownloadAll()
	}
}

func (h *Handle) isPaused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

// ForceRecheck re-verifies all piece data. Verification runs in the
// background; completion shows up as piece states settle.
func (h *Handle) ForceRecheck() error {
	if !infoReady(h.torrent) {
		return errNotSupported
	}
	go func() {
		h.torrent.VerifyData()
		h.engine.emit(ports.StateChangedAlert{ID: h.id})
	}()
	return nil
}

// ForceReannounce is a no-op: the client library reannounces on its own
// schedule and exposes no manual trigger.
func (h *Handle) ForceReannounce() error { return nil }

// ScrapeTracker is a no-op for the same reason.
func (h *Handle) ScrapeTracker() error { return nil }

func (h *Handle) MoveStorage(string) error { return errNotSupported }

func (h *Handle) ConnectPeer(addr string) error {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return err
	}
	h.torrent.AddPeers([]torrent.PeerInfo{{Addr: tcpAddr}})
	return nil
}

// RenameFile moves the file's on-disk data and reports completion as an
// asynchronous alert, success or failure.
func (h *Handle) RenameFile(index int, newPath string) error {
	if !infoReady(h.torrent) {
		return errNotSupported
	}
	files := h.torrent.Files()
	if index < 0 || index >= len(files) {
		return domain.ErrNotFound
	}

	dataDir := h.engine.dataDir()
	oldAbs := filepath.Join(dataDir, filepath.FromSlash(files[index].Path()))
	newAbs := filepath.Join(dataDir, filepath.FromSlash(newPath))

	go func() {
		err := os.MkdirAll(filepath.Dir(newAbs), 0o755)
		if err == nil {
			err = os.Rename(oldAbs, newAbs)
		}
		h.engine.emit(ports.FileRenamedAlert{
			ID:      h.id,
			Index:   index,
			NewName: newPath,
			Err:     err,
		})
	}()
	return nil
}

// SaveResumeData snapshots the torrent metadata; the blob arrives as an
// alert so persistence happens off the caller's goroutine.
func (h *Handle) SaveResumeData() error {
	go func() {
		data, err := h.Metainfo()
		h.engine.emit(ports.ResumeDataAlert{ID: h.id, Data: data, Err: err})
	}()
	return nil
}

func infoReady(t *torrent.Torrent) bool {
	if t == nil {
		return false
	}
	select {
	case <-t.GotInfo():
		return true
	default:
		return false
	}
}
