package anacrolix

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/anacrolix/torrent"
	"github.com/anacrolix/torrent/metainfo"
	"golang.org/x/time/rate"

	"torrentcore/internal/domain"
	"torrentcore/internal/domain/ports"
)

// defaultMaxConns is the per-torrent connection cap used when the caller asks
// for unlimited.
const defaultMaxConns = 80

// addTimeout caps the time we wait for the anacrolix client to accept a
// torrent. AddMagnet can block on an internal client mutex when the client is
// busy resolving metadata for another torrent.
const addTimeout = 10 * time.Second

type Config struct {
	DataDir string
	// Session-wide caps in bytes/s; 0 or negative means unlimited.
	MaxUploadRate   int64
	MaxDownloadRate int64
	Logger          *slog.Logger
}

// Engine adapts the anacrolix torrent client to the ports.Engine contract.
type Engine struct {
	client  *torrent.Client
	logger  *slog.Logger
	baseDir string

	mu            sync.RWMutex
	handles       map[domain.TorrentID]*Handle
	sessionPaused bool
	nextQueuePos  int

	alerts chan ports.Alert
}

func New(cfg Config) (*Engine, error) {
	clientConfig := torrent.NewDefaultClientConfig()
	if cfg.DataDir != "" {
		clientConfig.DataDir = cfg.DataDir
	}
	if cfg.MaxUploadRate > 0 {
		clientConfig.UploadRateLimiter = rate.NewLimiter(rate.Limit(cfg.MaxUploadRate), int(cfg.MaxUploadRate))
	}
	if cfg.MaxDownloadRate > 0 {
		clientConfig.DownloadRateLimiter = rate.NewLimiter(rate.Limit(cfg.MaxDownloadRate), int(cfg.MaxDownloadRate))
	}

	client, err := torrent.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}
	e := NewWithClient(client, cfg.Logger)
	e.baseDir = clientConfig.DataDir
	return e, nil
}

// dataDir is the root under which the client stores torrent payloads.
func (e *Engine) dataDir() string { return e.baseDir }

func NewWithClient(client *torrent.Client, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		client:  client,
		logger:  logger,
		handles: make(map[domain.TorrentID]*Handle),
		alerts:  make(chan ports.Alert, 256),
	}
}

func (e *Engine) Open(ctx context.Context, src domain.TorrentSource) (ports.Handle, error) {
	if e.client == nil {
		return nil, errors.New("torrent client not configured")
	}

	// Run the add call with a timeout so we never block the caller
	// indefinitely while the client is busy.
	type addResult struct {
		t   *torrent.Torrent
		err error
	}
	ch := make(chan addResult, 1)
	go func() {
		t, err := e.addTorrent(src)
		ch <- addResult{t, err}
	}()

	var t *torrent.Torrent
	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		t = res.t
	case <-time.After(addTimeout):
		// The goroutine may still complete the add after we return; drop
		// the orphaned torrent when it does.
		go func() {
			if res := <-ch; res.t != nil {
				res.t.Drop()
			}
		}()
		return nil, errors.New("torrent client busy, try again later")
	case <-ctx.Done():
		go func() {
			if res := <-ch; res.t != nil {
				res.t.Drop()
			}
		}()
		return nil, ctx.Err()
	}

	id := domain.TorrentID(t.InfoHash().HexString())

	e.mu.Lock()
	if h, ok := e.handles[id]; ok {
		e.mu.Unlock()
		return h, nil
	}
	h := newHandle(e, t, id, e.nextQueuePos)
	e.nextQueuePos++
	e.handles[id] = h
	sessionPaused := e.sessionPaused
	e.mu.Unlock()

	if sessionPaused {
		hardPause(t)
	}

	go e.watchInfo(h)
	return h, nil
}

func (e *Engine) addTorrent(src domain.TorrentSource) (*torrent.Torrent, error) {
	if src.Magnet != "" {
		return e.client.AddMagnet(src.Magnet)
	}
	raw, err := base64.StdEncoding.DecodeString(src.Torrent)
	if err != nil {
		return nil, err
	}
	mi, err := metainfo.Load(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return e.client.AddTorrent(mi)
}

// watchInfo waits for the torrent's metadata, starts the download and emits
// the metadata alert.
func (e *Engine) watchInfo(h *Handle) {
	select {
	case <-h.torrent.GotInfo():
	case <-h.torrent.Closed():
		return
	}

	h.onMetadata()
	if !h.isPaused() && !e.Paused() {
		h.torrent.DownloadAll()
	}
	e.emit(ports.MetadataReceivedAlert{ID: h.id})
}

func (e *Engine) Remove(_ context.Context, id domain.TorrentID) error {
	e.mu.Lock()
	h, ok := e.handles[id]
	delete(e.handles, id)
	e.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	h.torrent.Drop()
	return nil
}

func (e *Engine) Paused() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sessionPaused
}

// PauseSession halts data transfer for every torrent without touching their
// individual paused flags.
func (e *Engine) PauseSession() {
	e.mu.Lock()
	e.sessionPaused = true
	handles := e.handleListLocked()
	e.mu.Unlock()

	for _, h := range handles {
		hardPause(h.torrent)
	}
}

// ResumeSession re-enables data transfer for torrents that are not
// individually paused.
func (e *Engine) ResumeSession() {
	e.mu.Lock()
	e.sessionPaused = false
	handles := e.handleListLocked()
	e.mu.Unlock()

	for _, h := range handles {
		if !h.isPaused() {
			h.allowTransfer()
		}
	}
}

func (e *Engine) Alerts() <-chan ports.Alert { return e.alerts }

func (e *Engine) Close() error {
	if e.client == nil {
		return nil
	}
	errList := e.client.Close()
	if len(errList) > 0 {
		return errList[0]
	}
	return nil
}

func (e *Engine) handleListLocked() []*Handle {
	out := make([]*Handle, 0, len(e.handles))
	for _, h := range e.handles {
		out = append(out, h)
	}
	return out
}

// emit delivers an alert without ever blocking the engine; a full channel
// drops the alert and logs it.
func (e *Engine) emit(a ports.Alert) {
	select {
	case e.alerts <- a:
	default:
		e.logger.Warn("alert channel full, dropping alert",
			slog.String("torrentId", string(a.Torrent())))
	}
}

// hardPause stops all network activity for a torrent by disallowing data
// transfer and disconnecting every peer.
func hardPause(t *torrent.Torrent) {
	t.DisallowDataDownload()
	t.DisallowDataUpload()
	t.SetMaxEstablishedConns(0)
}
