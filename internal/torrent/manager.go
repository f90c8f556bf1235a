package torrent

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"torrentcore/internal/domain"
	"torrentcore/internal/domain/ports"
	"torrentcore/internal/metrics"
)

var ErrInvalidSource = errors.New("invalid torrent source")

// Manager owns the set of torrent entities and the coordinating goroutine
// that dispatches engine alerts onto them. All alert handling happens on one
// goroutine; entity methods take the entity lock, so API calls may run
// concurrently with dispatch.
type Manager struct {
	engine   ports.Engine
	store    ports.ResumeDataStore
	auth     ports.SessionAuth
	events   ports.EventBus
	logger   *slog.Logger
	stateDir string
	defaults domain.Options

	mu       sync.RWMutex
	torrents map[domain.TorrentID]*Torrent
}

// ManagerConfig wires a Manager to its collaborators.
type ManagerConfig struct {
	Engine   ports.Engine
	Store    ports.ResumeDataStore
	Auth     ports.SessionAuth
	Events   ports.EventBus
	Logger   *slog.Logger
	StateDir string
	Defaults domain.Options
}

func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		engine:   cfg.Engine,
		store:    cfg.Store,
		auth:     cfg.Auth,
		events:   cfg.Events,
		logger:   logger,
		stateDir: cfg.StateDir,
		defaults: cfg.Defaults,
		torrents: make(map[domain.TorrentID]*Torrent),
	}
}

// Add opens a torrent in the engine and builds its entity. Adding an
// already-known torrent returns the existing entity. Option overrides are
// applied on top of the manager defaults before the first engine push.
func (m *Manager) Add(ctx context.Context, src domain.TorrentSource, overrides map[string]any) (*Torrent, error) {
	if err := validateSource(src); err != nil {
		return nil, err
	}

	handle, err := m.engine.Open(ctx, src)
	if err != nil {
		return nil, err
	}
	id := handle.ID()

	m.mu.Lock()
	if existing, ok := m.torrents[id]; ok {
		m.mu.Unlock()
		return existing, nil
	}

	t := New(Config{
		Handle:   handle,
		Engine:   m.engine,
		Auth:     m.auth,
		Events:   m.events,
		Logger:   m.logger,
		StateDir: m.stateDir,
		Options:  m.defaults,
	})
	m.torrents[id] = t
	m.mu.Unlock()

	if len(overrides) > 0 {
		if err := t.SetOptions("", overrides); err != nil {
			m.logger.Warn("initial options rejected",
				slog.String("torrentId", string(id)),
				slog.String("error", err.Error()))
		}
	}
	if t.Options().AddPaused {
		t.Pause()
	}
	if m.store != nil {
		if err := m.store.SaveOptions(ctx, id, t.Options()); err != nil {
			m.logger.Warn("unable to persist torrent options",
				slog.String("torrentId", string(id)),
				slog.String("error", err.Error()))
		}
	}

	m.logger.Info("torrent added",
		slog.String("torrentId", string(id)),
		slog.String("state", string(t.State())))
	return t, nil
}

// RestoreAll re-adds every torrent the store knows about, using the
// persisted resume data as the torrent source and the persisted options
// instead of the manager defaults. Failures are logged per torrent.
func (m *Manager) RestoreAll(ctx context.Context) {
	if m.store == nil {
		return
	}
	ids, err := m.store.List(ctx)
	if err != nil {
		m.logger.Warn("unable to list persisted torrents", slog.String("error", err.Error()))
		return
	}
	if len(ids) == 0 {
		return
	}
	m.logger.Info("restoring torrents", slog.Int("count", len(ids)))

	for _, id := range ids {
		data, err := m.store.Load(ctx, id)
		if err != nil || len(data) == 0 {
			m.logger.Warn("restore skipped, no resume data", slog.String("torrentId", string(id)))
			continue
		}
		opts, err := m.store.LoadOptions(ctx, id)
		if err != nil {
			opts = m.defaults
		}
		src := domain.TorrentSource{Torrent: base64.StdEncoding.EncodeToString(data)}

		handle, err := m.engine.Open(ctx, src)
		if err != nil {
			m.logger.Warn("restore failed",
				slog.String("torrentId", string(id)),
				slog.String("error", err.Error()))
			continue
		}

		m.mu.Lock()
		if _, ok := m.torrents[handle.ID()]; ok {
			m.mu.Unlock()
			continue
		}
		t := New(Config{
			Handle:   handle,
			Engine:   m.engine,
			Auth:     m.auth,
			Events:   m.events,
			Logger:   m.logger,
			StateDir: m.stateDir,
			Options:  opts,
		})
		m.torrents[handle.ID()] = t
		m.mu.Unlock()

		if t.Options().AddPaused {
			t.Pause()
		}
		m.logger.Info("torrent restored", slog.String("torrentId", string(handle.ID())))
	}
}

// Get looks up a torrent entity by id.
func (m *Manager) Get(id domain.TorrentID) (*Torrent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.torrents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

// List returns all torrent entities ordered by id.
func (m *Manager) List() []*Torrent {
	m.mu.RLock()
	out := make([]*Torrent, 0, len(m.torrents))
	for _, t := range m.torrents {
		out = append(out, t)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Remove drops the torrent from the engine and forgets its entity, metadata
// file and persisted resume data.
func (m *Manager) Remove(ctx context.Context, id domain.TorrentID) error {
	m.mu.Lock()
	t, ok := m.torrents[id]
	delete(m.torrents, id)
	m.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}

	t.DeleteTorrentFile()
	if m.store != nil {
		if err := m.store.Delete(ctx, id); err != nil {
			m.logger.Warn("unable to delete resume data",
				slog.String("torrentId", string(id)),
				slog.String("error", err.Error()))
		}
	}
	if err := m.engine.Remove(ctx, id); err != nil {
		return err
	}
	m.logger.Info("torrent removed", slog.String("torrentId", string(id)))
	return nil
}

// Run dispatches engine alerts until ctx is cancelled or the alert channel
// closes. It is the single coordinating goroutine for all entity mutation
// driven by the engine.
func (m *Manager) Run(ctx context.Context) {
	alerts := m.engine.Alerts()
	for {
		select {
		case <-ctx.Done():
			return
		case alert, ok := <-alerts:
			if !ok {
				return
			}
			m.dispatch(ctx, alert)
		}
	}
}

func (m *Manager) dispatch(ctx context.Context, alert ports.Alert) {
	t, err := m.Get(alert.Torrent())
	if err != nil {
		return
	}

	switch a := alert.(type) {
	case ports.FileRenamedAlert:
		t.HandleFileRenamed(a.Index, a.NewName, a.Err)
	case ports.MetadataReceivedAlert:
		t.OnMetadataReceived()
	case ports.StateChangedAlert:
		t.UpdateState()
	case ports.ResumeDataAlert:
		m.persistResumeData(ctx, a)
	}
}

func (m *Manager) persistResumeData(ctx context.Context, a ports.ResumeDataAlert) {
	if a.Err != nil {
		m.logger.Debug("resume data unavailable",
			slog.String("torrentId", string(a.ID)),
			slog.String("error", a.Err.Error()))
		return
	}
	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, a.ID, a.Data); err != nil {
		m.logger.Warn("unable to persist resume data",
			slog.String("torrentId", string(a.ID)),
			slog.String("error", err.Error()))
		return
	}
	metrics.ResumeDataWritesTotal.Inc()
}

// PauseSession pauses the whole engine session and re-derives every state.
func (m *Manager) PauseSession() {
	m.engine.PauseSession()
	for _, t := range m.List() {
		t.UpdateState()
	}
}

// ResumeSession resumes the whole engine session and re-derives every state.
func (m *Manager) ResumeSession() {
	m.engine.ResumeSession()
	for _, t := range m.List() {
		t.UpdateState()
	}
}

func validateSource(src domain.TorrentSource) error {
	hasMagnet := strings.TrimSpace(src.Magnet) != ""
	hasTorrent := strings.TrimSpace(src.Torrent) != ""
	if hasMagnet == hasTorrent {
		return ErrInvalidSource
	}
	return nil
}
