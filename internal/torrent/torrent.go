package torrent

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"torrentcore/internal/domain"
	"torrentcore/internal/domain/ports"
)

// Torrent is the mutable lifecycle state of one torrent task layered above
// the external engine. All mutation happens under one lock; asynchronous
// engine alerts are dispatched here by the Manager's coordinating goroutine.
type Torrent struct {
	id     domain.TorrentID
	handle ports.Handle
	engine ports.Engine
	auth   ports.SessionAuth
	events ports.EventBus
	logger *slog.Logger

	// stateDir is where the torrent's metadata file lives on disk.
	stateDir string

	mu          sync.Mutex
	options     domain.Options
	status      domain.Snapshot
	info        domain.TorrentInfo
	hasMetadata bool
	state       domain.State
	statusMsg   string

	trackers      []domain.Tracker
	trackerHost   string
	trackerStatus string

	isFinished            bool
	forcingRecheck        bool
	forcingRecheckStarted bool
	forcingRecheckPaused  bool

	// prevStatus holds the last full status returned per consumer session,
	// used to answer differential status queries.
	prevStatus map[string]map[string]any

	// renames holds in-flight folder rename groups keyed by a generated id.
	renames      map[uint64]*renameGroup
	nextRenameID uint64
}

// Config wires a new Torrent to its collaborators.
type Config struct {
	Handle   ports.Handle
	Engine   ports.Engine
	Auth     ports.SessionAuth
	Events   ports.EventBus
	Logger   *slog.Logger
	StateDir string
	Options  domain.Options
}

// New builds the torrent entity around an engine handle, pushes the initial
// options to the engine and derives the initial lifecycle state.
func New(cfg Config) *Torrent {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	t := &Torrent{
		id:         cfg.Handle.ID(),
		handle:     cfg.Handle,
		engine:     cfg.Engine,
		auth:       cfg.Auth,
		events:     cfg.Events,
		logger:     logger,
		stateDir:   cfg.StateDir,
		options:    cfg.Options.Clone(),
		statusMsg:  domain.StatusOK,
		prevStatus: make(map[string]map[string]any),
		renames:    make(map[uint64]*renameGroup),
	}

	t.status = t.handle.Status()
	t.hasMetadata = t.status.HasMetadata
	if info, ok := t.handle.Info(); ok {
		t.info = info
	}
	t.trackers = t.handle.Trackers()
	if t.hasMetadata && len(t.options.FilePriorities) == 0 {
		t.options.FilePriorities = t.handle.FilePriorities()
	}
	if t.status.IsFinished {
		t.isFinished = true
	}

	t.mu.Lock()
	t.pushOptionsLocked()
	t.updateStateLocked()
	t.mu.Unlock()

	return t
}

// ID returns the torrent's infohash.
func (t *Torrent) ID() domain.TorrentID { return t.id }

// State returns the current lifecycle state.
func (t *Torrent) State() domain.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Options returns a copy of the current options.
func (t *Torrent) Options() domain.Options {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.options.Clone()
}

// SetState forces a lifecycle state. Invalid states are logged and ignored;
// this is the only way to set the state outside of classification.
func (t *Torrent) SetState(s domain.State) {
	if !s.Valid() {
		t.logger.Debug("ignoring invalid state",
			slog.String("torrentId", string(t.id)),
			slog.String("state", string(s)))
		return
	}
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// SetStatusMessage replaces the status message.
func (t *Torrent) SetStatusMessage(msg string) {
	t.mu.Lock()
	t.statusMsg = msg
	t.mu.Unlock()
}

// UpdateStatus replaces the cached engine snapshot. The cache is never
// refreshed implicitly.
func (t *Torrent) UpdateStatus(st domain.Snapshot) {
	t.mu.Lock()
	t.ingestSnapshotLocked(st)
	t.mu.Unlock()
}

// RefreshStatus fetches a fresh snapshot from the engine and caches it.
func (t *Torrent) RefreshStatus() domain.Snapshot {
	st := t.handle.Status()
	t.mu.Lock()
	t.ingestSnapshotLocked(st)
	t.mu.Unlock()
	return st
}

func (t *Torrent) ingestSnapshotLocked(st domain.Snapshot) {
	t.status = st
	if st.HasMetadata && !t.hasMetadata {
		t.hasMetadata = true
		if info, ok := t.handle.Info(); ok {
			t.info = info
		}
	}
	if st.IsFinished {
		t.isFinished = true
	}
}

// UpdateState re-derives the lifecycle state from a fresh engine snapshot.
// It returns the resulting state and whether it changed; a change is also
// published on the event bus.
func (t *Torrent) UpdateState() (domain.State, bool) {
	t.mu.Lock()
	state, changed := t.updateStateLocked()
	t.mu.Unlock()
	return state, changed
}

func (t *Torrent) updateStateLocked() (domain.State, bool) {
	st := t.handle.Status()
	if t.forcingRecheck {
		st = t.settleRecheckLocked(st)
	}
	sessionPaused := false
	if t.engine != nil {
		sessionPaused = t.engine.Paused()
	}
	c := domain.Classify(domain.ClassifierInput{
		RawState:      st.RawState,
		Paused:        st.Paused,
		AutoManaged:   st.AutoManaged,
		SessionPaused: sessionPaused,
		EngineError:   st.Error,
		StatusMessage: t.statusMsg,
	})
	if c.Message != "" {
		t.statusMsg = c.Message
	}
	if c.DisableAutoManaged {
		t.handle.SetAutoManaged(false)
	}
	prev := t.state
	t.state = c.State
	changed := c.State != prev
	if changed && t.events != nil {
		t.events.StateChanged(t.id, c.State)
	}
	return c.State, changed
}

// Pause pauses the torrent. Auto-management is turned off first so the
// engine's queueing does not unpause it. Returns false on engine failure.
func (t *Torrent) Pause() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.handle.SetAutoManaged(false)
	if t.status.Paused {
		// Already paused by engine queueing; with auto-management now off
		// the state re-derives to Paused. No engine alert will fire, so
		// the state change is published from here.
		t.updateStateLocked()
		return true
	}
	if err := t.handle.Pause(); err != nil {
		t.logger.Debug("unable to pause torrent",
			slog.String("torrentId", string(t.id)),
			slog.String("error", err.Error()))
		return false
	}
	return true
}

// Resume resumes the torrent. A queue-managed pause cannot be resumed here,
// and a finished torrent past its stop ratio stays stopped.
func (t *Torrent) Resume() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.Paused && t.status.AutoManaged {
		t.logger.Debug("torrent is queue-managed, cannot resume",
			slog.String("torrentId", string(t.id)))
		return false
	}

	// Clear a stale error message before resuming.
	t.statusMsg = domain.StatusOK

	if t.status.IsFinished && t.options.StopAtRatio && t.ratioLocked() >= t.options.StopRatio {
		return false
	}

	if t.options.AutoManaged {
		t.handle.SetAutoManaged(true)
	}
	if err := t.handle.Resume(); err != nil {
		t.logger.Debug("unable to resume torrent",
			slog.String("torrentId", string(t.id)),
			slog.String("error", err.Error()))
		return false
	}
	return true
}

// settleRecheckLocked tracks a forced recheck through the checking family.
// Once the engine leaves it again the flags are consumed and a torrent that
// was paused before the recheck is paused again.
func (t *Torrent) settleRecheckLocked(st domain.Snapshot) domain.Snapshot {
	if st.RawState.CheckingLike() {
		t.forcingRecheckStarted = true
		return st
	}
	if !t.forcingRecheckStarted {
		// Recheck issued but the engine has not entered checking yet.
		return st
	}
	t.forcingRecheck = false
	t.forcingRecheckStarted = false
	repause := t.forcingRecheckPaused
	t.forcingRecheckPaused = false
	if !repause {
		return st
	}
	if err := t.handle.Pause(); err != nil {
		t.logger.Debug("unable to re-pause after recheck",
			slog.String("torrentId", string(t.id)),
			slog.String("error", err.Error()))
		return st
	}
	return t.handle.Status()
}

// ForceRecheck asks the engine to re-verify all pieces. The prior paused
// flag is remembered so the torrent can be re-paused once checking is done.
func (t *Torrent) ForceRecheck() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	paused := t.status.Paused
	if err := t.handle.ForceRecheck(); err != nil {
		t.logger.Debug("unable to force recheck",
			slog.String("torrentId", string(t.id)),
			slog.String("error", err.Error()))
		return false
	}
	if err := t.handle.Resume(); err != nil {
		t.logger.Debug("unable to resume for recheck",
			slog.String("torrentId", string(t.id)),
			slog.String("error", err.Error()))
		return false
	}
	t.forcingRecheck = true
	t.forcingRecheckStarted = false
	t.forcingRecheckPaused = paused
	return true
}

// ForceReannounce forces a tracker reannounce.
func (t *Torrent) ForceReannounce() bool {
	if err := t.handle.ForceReannounce(); err != nil {
		t.logger.Debug("unable to force reannounce",
			slog.String("torrentId", string(t.id)),
			slog.String("error", err.Error()))
		return false
	}
	return true
}

// ScrapeTracker scrapes the current tracker.
func (t *Torrent) ScrapeTracker() bool {
	if err := t.handle.ScrapeTracker(); err != nil {
		t.logger.Debug("unable to scrape tracker",
			slog.String("torrentId", string(t.id)),
			slog.String("error", err.Error()))
		return false
	}
	return true
}

// ConnectPeer adds a peer manually.
func (t *Torrent) ConnectPeer(addr string) bool {
	if err := t.handle.ConnectPeer(addr); err != nil {
		t.logger.Debug("unable to connect to peer",
			slog.String("torrentId", string(t.id)),
			slog.String("addr", addr),
			slog.String("error", err.Error()))
		return false
	}
	return true
}

// MoveStorage relocates the torrent's data, creating the destination
// directory when missing.
func (t *Torrent) MoveStorage(dest string) bool {
	if _, err := os.Stat(dest); err != nil {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			t.logger.Error("cannot create storage destination",
				slog.String("torrentId", string(t.id)),
				slog.String("dest", dest),
				slog.String("error", err.Error()))
			return false
		}
	}
	if err := t.handle.MoveStorage(dest); err != nil {
		t.logger.Error("engine move storage failed",
			slog.String("torrentId", string(t.id)),
			slog.String("error", err.Error()))
		return false
	}
	return true
}

// SetTrackers replaces the tracker list. A nil list re-reads the trackers
// from the engine; a non-empty replacement forces a reannounce. Both reset
// the cached tracker host.
func (t *Torrent) SetTrackers(trackers []domain.Tracker) {
	t.mu.Lock()
	if trackers == nil {
		t.trackers = t.handle.Trackers()
		t.trackerHost = ""
		t.mu.Unlock()
		return
	}
	t.handle.ReplaceTrackers(trackers)
	t.trackers = trackers
	t.trackerHost = ""
	reannounce := len(trackers) > 0
	t.mu.Unlock()

	if reannounce {
		t.ForceReannounce()
	}
}

// SetTrackerStatus records the latest tracker message, prefixed with the
// tracker host.
func (t *Torrent) SetTrackerStatus(status string) {
	host := t.TrackerHost()
	t.mu.Lock()
	t.trackerStatus = host + ": " + status
	t.mu.Unlock()
}

// TrackerHost returns the short hostname of the current (or first) tracker.
// The value is cached until the tracker list changes.
func (t *Torrent) TrackerHost() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trackerHostLocked()
}

func (t *Torrent) trackerHostLocked() string {
	if t.trackerHost != "" {
		return t.trackerHost
	}
	tracker := t.status.CurrentTracker
	if tracker == "" && len(t.trackers) > 0 {
		tracker = t.trackers[0].URL
	}
	if tracker == "" {
		return ""
	}
	host := domain.TrackerHost(tracker)
	t.trackerHost = host
	return host
}

// OnMetadataReceived handles the engine's metadata alert: remembers the
// metadata, applies first/last piece prioritization if enabled and writes
// the torrent's metadata file.
func (t *Torrent) OnMetadataReceived() {
	t.mu.Lock()
	t.hasMetadata = true
	if info, ok := t.handle.Info(); ok {
		t.info = info
	}
	if t.options.PrioritizeFirstLast {
		t.setPrioritizeFirstLast(true)
	}
	t.mu.Unlock()

	t.WriteTorrentFile()
}

// WriteTorrentFile writes <state-dir>/<id>.torrent from the engine metadata.
func (t *Torrent) WriteTorrentFile() {
	path := t.torrentFilePath()
	data, err := t.handle.Metainfo()
	if err != nil {
		t.logger.Warn("unable to save torrent file",
			slog.String("torrentId", string(t.id)),
			slog.String("error", err.Error()))
		return
	}

	// Resync stored file priorities with the engine before persisting.
	t.mu.Lock()
	t.options.FilePriorities = t.handle.FilePriorities()
	t.mu.Unlock()

	t.logger.Debug("writing torrent file", slog.String("path", path))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.logger.Warn("unable to save torrent file",
			slog.String("torrentId", string(t.id)),
			slog.String("error", err.Error()))
	}
}

// DeleteTorrentFile removes the torrent's metadata file from the state dir.
func (t *Torrent) DeleteTorrentFile() {
	path := t.torrentFilePath()
	t.logger.Debug("deleting torrent file", slog.String("path", path))
	if err := os.Remove(path); err != nil {
		t.logger.Warn("unable to delete torrent file",
			slog.String("torrentId", string(t.id)),
			slog.String("error", err.Error()))
	}
}

func (t *Torrent) torrentFilePath() string {
	return filepath.Join(t.stateDir, string(t.id)+".torrent")
}

// RequestSaveResumeData asks the engine to build resume data; the blob comes
// back as an alert and is persisted by the Manager.
func (t *Torrent) RequestSaveResumeData() {
	if err := t.handle.SaveResumeData(); err != nil {
		t.logger.Debug("unable to request resume data",
			slog.String("torrentId", string(t.id)),
			slog.String("error", err.Error()))
	}
}

// MagnetURI returns a magnet link for this torrent.
func (t *Torrent) MagnetURI() string {
	return t.handle.MagnetURI()
}

func (t *Torrent) ratioLocked() float64 {
	if t.status.TotalDone > 0 {
		return float64(t.status.AllTimeUpload) / float64(t.status.TotalDone)
	}
	// -1 signifies an infinite ratio.
	return -1.0
}
