package torrent

import (
	"context"
	"errors"
	"sync"

	"torrentcore/internal/domain"
	"torrentcore/internal/domain/ports"
)

// fakeHandle is a scriptable engine handle for exercising the torrent entity
// without a real engine.
type fakeHandle struct {
	id       domain.TorrentID
	snapshot domain.Snapshot
	info     domain.TorrentInfo
	hasInfo  bool
	name     string
	trackers []domain.Tracker

	piecePrios []int
	filePrios  []int
	fileDone   []int64
	peers      []domain.Peer
	avail      []int
	magnet     string
	metainfo   []byte

	maxConns     int
	maxSlots     int
	upLimit      int
	downLimit    int
	sequential   bool
	autoManaged  bool
	superSeeding bool
	priority     int

	pauseErr   error
	resumeErr  error
	recheckErr error
	renameErr  error

	paused        bool
	recheckCalls  int
	renamed       []renameCall
	resumeDataReq int
	reannounces   int
	scrapes       int
	connected     []string
	movedTo       string
}

type renameCall struct {
	index int
	path  string
}

func newFakeHandle(id string) *fakeHandle {
	return &fakeHandle{id: domain.TorrentID(id)}
}

func (h *fakeHandle) ID() domain.TorrentID                { return h.id }
func (h *fakeHandle) Status() domain.Snapshot             { return h.snapshot }
func (h *fakeHandle) Name() string                        { return h.name }
func (h *fakeHandle) Info() (domain.TorrentInfo, bool)    { return h.info, h.hasInfo }
func (h *fakeHandle) Files() []domain.FileInfo            { return h.info.Files }
func (h *fakeHandle) FileProgress() []int64               { return h.fileDone }
func (h *fakeHandle) Peers() []domain.Peer                { return h.peers }
func (h *fakeHandle) PieceAvailability() []int            { return h.avail }
func (h *fakeHandle) PiecePriorities() []int              { return append([]int(nil), h.piecePrios...) }
func (h *fakeHandle) SetPiecePriorities(prios []int)      { h.piecePrios = append([]int(nil), prios...) }
func (h *fakeHandle) FilePriorities() []int               { return append([]int(nil), h.filePrios...) }
func (h *fakeHandle) SetFilePriorities(prios []int)       { h.filePrios = append([]int(nil), prios...) }
func (h *fakeHandle) Trackers() []domain.Tracker          { return h.trackers }
func (h *fakeHandle) ReplaceTrackers(ts []domain.Tracker) { h.trackers = ts }
func (h *fakeHandle) MagnetURI() string                   { return h.magnet }
func (h *fakeHandle) SetMaxConnections(n int)             { h.maxConns = n }
func (h *fakeHandle) SetMaxUploadSlots(n int)             { h.maxSlots = n }
func (h *fakeHandle) SetUploadLimit(bps int)              { h.upLimit = bps }
func (h *fakeHandle) SetDownloadLimit(bps int)            { h.downLimit = bps }
func (h *fakeHandle) SetSequentialDownload(on bool)       { h.sequential = on }
func (h *fakeHandle) SetSuperSeeding(on bool)             { h.superSeeding = on }

func (h *fakeHandle) SetAutoManaged(on bool) {
	h.autoManaged = on
	h.snapshot.AutoManaged = on
}
func (h *fakeHandle) SetPriority(p int) { h.priority = p }

func (h *fakeHandle) Metainfo() ([]byte, error) {
	if h.metainfo == nil {
		return nil, errors.New("no metadata")
	}
	return h.metainfo, nil
}

func (h *fakeHandle) Pause() error {
	if h.pauseErr != nil {
		return h.pauseErr
	}
	h.paused = true
	h.snapshot.Paused = true
	return nil
}

func (h *fakeHandle) Resume() error {
	if h.resumeErr != nil {
		return h.resumeErr
	}
	h.paused = false
	h.snapshot.Paused = false
	return nil
}

func (h *fakeHandle) ForceRecheck() error {
	if h.recheckErr != nil {
		return h.recheckErr
	}
	h.recheckCalls++
	return nil
}

func (h *fakeHandle) ForceReannounce() error { h.reannounces++; return nil }
func (h *fakeHandle) ScrapeTracker() error   { h.scrapes++; return nil }
func (h *fakeHandle) MoveStorage(dest string) error {
	h.movedTo = dest
	return nil
}
func (h *fakeHandle) ConnectPeer(addr string) error {
	h.connected = append(h.connected, addr)
	return nil
}

func (h *fakeHandle) RenameFile(index int, newPath string) error {
	if h.renameErr != nil {
		return h.renameErr
	}
	h.renamed = append(h.renamed, renameCall{index: index, path: newPath})
	return nil
}

func (h *fakeHandle) SaveResumeData() error {
	h.resumeDataReq++
	return nil
}

// fakeEngine is a minimal engine whose handles are injected by tests.
type fakeEngine struct {
	mu            sync.Mutex
	handles       map[domain.TorrentID]*fakeHandle
	sessionPaused bool
	alerts        chan ports.Alert
	removed       []domain.TorrentID
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		handles: make(map[domain.TorrentID]*fakeHandle),
		alerts:  make(chan ports.Alert, 16),
	}
}

func (e *fakeEngine) Open(_ context.Context, src domain.TorrentSource) (ports.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := domain.TorrentID(src.Magnet)
	if id == "" {
		id = domain.TorrentID(src.Torrent)
	}
	if h, ok := e.handles[id]; ok {
		return h, nil
	}
	h := newFakeHandle(string(id))
	e.handles[id] = h
	return h, nil
}

func (e *fakeEngine) Remove(_ context.Context, id domain.TorrentID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.handles, id)
	e.removed = append(e.removed, id)
	return nil
}

func (e *fakeEngine) Paused() bool               { return e.sessionPaused }
func (e *fakeEngine) PauseSession()              { e.sessionPaused = true }
func (e *fakeEngine) ResumeSession()             { e.sessionPaused = false }
func (e *fakeEngine) Alerts() <-chan ports.Alert { return e.alerts }
func (e *fakeEngine) Close() error               { return nil }

// fakeAuth validates a fixed set of sessions.
type fakeAuth struct {
	valid  map[string]bool
	levels map[string]ports.AuthLevel
}

func (a *fakeAuth) IsValid(sessionID string) bool { return a.valid[sessionID] }
func (a *fakeAuth) Level(sessionID string) ports.AuthLevel {
	return a.levels[sessionID]
}

// fakeBus records published events.
type fakeBus struct {
	mu           sync.Mutex
	stateChanges []domain.State
	renames      [][2]string
}

func (b *fakeBus) StateChanged(_ domain.TorrentID, state domain.State) {
	b.mu.Lock()
	b.stateChanges = append(b.stateChanges, state)
	b.mu.Unlock()
}

func (b *fakeBus) FolderRenamed(_ domain.TorrentID, oldName, newName string) {
	b.mu.Lock()
	b.renames = append(b.renames, [2]string{oldName, newName})
	b.mu.Unlock()
}

// fakeStore keeps resume data and options in memory.
type fakeStore struct {
	mu      sync.Mutex
	data    map[domain.TorrentID][]byte
	options map[domain.TorrentID]domain.Options
	deleted []domain.TorrentID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data:    make(map[domain.TorrentID][]byte),
		options: make(map[domain.TorrentID]domain.Options),
	}
}

func (s *fakeStore) Save(_ context.Context, id domain.TorrentID, data []byte) error {
	s.mu.Lock()
	s.data[id] = append([]byte(nil), data...)
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) SaveOptions(_ context.Context, id domain.TorrentID, opts domain.Options) error {
	s.mu.Lock()
	s.options[id] = opts.Clone()
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) Load(_ context.Context, id domain.TorrentID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (s *fakeStore) LoadOptions(_ context.Context, id domain.TorrentID) (domain.Options, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	opts, ok := s.options[id]
	if !ok {
		return domain.Options{}, domain.ErrNotFound
	}
	return opts.Clone(), nil
}

func (s *fakeStore) Delete(_ context.Context, id domain.TorrentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		if _, ok := s.options[id]; !ok {
			return domain.ErrNotFound
		}
	}
	delete(s.data, id)
	delete(s.options, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeStore) List(_ context.Context) ([]domain.TorrentID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]domain.TorrentID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
