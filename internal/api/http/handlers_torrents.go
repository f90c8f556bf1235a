package apihttp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"torrentcore/internal/domain"
	"torrentcore/internal/metrics"
	"torrentcore/internal/torrent"
)

func (s *Server) handleTorrents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleAddTorrent(w, r)
	case http.MethodGet:
		s.handleListTorrents(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type addTorrentJSON struct {
	Magnet  string         `json:"magnet,omitempty"`
	Torrent string         `json:"torrent,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

func (s *Server) handleAddTorrent(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}

	switch mediaType {
	case "application/json":
		s.handleAddTorrentJSON(w, r)
	case "multipart/form-data":
		s.handleAddTorrentMultipart(w, r)
	default:
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "unsupported content type")
	}
}

func (s *Server) handleAddTorrentJSON(w http.ResponseWriter, r *http.Request) {
	var body addTorrentJSON
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}

	src := domain.TorrentSource{
		Magnet:  strings.TrimSpace(body.Magnet),
		Torrent: strings.TrimSpace(body.Torrent),
	}
	s.addTorrent(w, r, src, body.Options)
}

func (s *Server) handleAddTorrentMultipart(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 5 << 20 // plenty for .torrent files
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("torrent")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing torrent file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxMemory))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to read torrent file")
		return
	}

	var overrides map[string]any
	if raw := strings.TrimSpace(r.FormValue("options")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid options")
			return
		}
	}

	src := domain.TorrentSource{Torrent: base64.StdEncoding.EncodeToString(data)}
	s.addTorrent(w, r, src, overrides)
}

func (s *Server) addTorrent(w http.ResponseWriter, r *http.Request, src domain.TorrentSource, overrides map[string]any) {
	// Cap the handler execution time so we never block indefinitely.
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	tor, err := s.torrents.Add(ctx, src, overrides)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, torrentSummary{
		ID:    tor.ID(),
		State: tor.State(),
	})
}

type torrentSummary struct {
	ID    domain.TorrentID `json:"id"`
	State domain.State     `json:"state"`
}

type torrentList struct {
	Items []torrentSummary `json:"items"`
	Count int              `json:"count"`
}

func (s *Server) handleListTorrents(w http.ResponseWriter, r *http.Request) {
	torrents := s.torrents.List()
	items := make([]torrentSummary, 0, len(torrents))
	for _, tor := range torrents {
		items = append(items, torrentSummary{ID: tor.ID(), State: tor.State()})
	}
	writeJSON(w, http.StatusOK, torrentList{Items: items, Count: len(items)})
}

func (s *Server) handleTorrentByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/torrents/")
	id, action := rest, ""
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		id, action = rest[:idx], rest[idx+1:]
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "torrent id is required")
		return
	}

	tor, err := s.torrents.Get(domain.TorrentID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, torrentSummary{ID: tor.ID(), State: tor.State()})
		case http.MethodDelete:
			if err := s.torrents.Remove(r.Context(), tor.ID()); err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case "status":
		s.handleStatus(w, r, tor)
	case "options":
		s.handleOptions(w, r, tor)
	case "trackers":
		s.handleTrackers(w, r, tor)
	case "magnet":
		requireMethod(w, r, http.MethodGet, func() {
			writeJSON(w, http.StatusOK, map[string]string{"uri": tor.MagnetURI()})
		})
	case "pause":
		requireMethod(w, r, http.MethodPost, func() {
			writeApplied(w, tor.Pause())
		})
	case "resume":
		requireMethod(w, r, http.MethodPost, func() {
			writeApplied(w, tor.Resume())
		})
	case "recheck":
		requireMethod(w, r, http.MethodPost, func() {
			writeApplied(w, tor.ForceRecheck())
		})
	case "reannounce":
		requireMethod(w, r, http.MethodPost, func() {
			writeApplied(w, tor.ForceReannounce())
		})
	case "scrape":
		requireMethod(w, r, http.MethodPost, func() {
			writeApplied(w, tor.ScrapeTracker())
		})
	case "resume-data":
		requireMethod(w, r, http.MethodPost, func() {
			tor.RequestSaveResumeData()
			w.WriteHeader(http.StatusAccepted)
		})
	case "move":
		s.handleMoveStorage(w, r, tor)
	case "connect-peer":
		s.handleConnectPeer(w, r, tor)
	case "rename-folder":
		s.handleRenameFolder(w, r, tor)
	case "rename-files":
		s.handleRenameFiles(w, r, tor)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown action")
	}
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string, fn func()) {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	fn()
}

func writeApplied(w http.ResponseWriter, applied bool) {
	writeJSON(w, http.StatusOK, map[string]bool{"applied": applied})
}

// handleStatus answers a status query. The session id header scopes the
// baseline used for differential queries.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, tor *torrent.Torrent) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sessionID := strings.TrimSpace(r.Header.Get("X-Session-Id"))
	if sessionID != "" && s.sessions != nil && !s.sessions.IsValid(sessionID) {
		writeError(w, http.StatusUnauthorized, "invalid_session", "session is not valid")
		return
	}

	q := r.URL.Query()
	diff, err := parseBoolQuery(q.Get("diff"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid diff")
		return
	}
	update, err := parseBoolQuery(q.Get("update"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid update")
		return
	}
	allKeys, err := parseBoolQuery(q.Get("all"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid all")
		return
	}
	keys := parseCommaSeparated(q.Get("keys"))
	if len(keys) == 0 && !allKeys {
		writeError(w, http.StatusBadRequest, "invalid_request", "keys or all=true is required")
		return
	}

	mode := "full"
	if diff {
		mode = "diff"
	}
	metrics.StatusRequestsTotal.WithLabelValues(mode).Inc()

	status, err := tor.GetStatus(sessionID, keys, diff, update, allKeys)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request, tor *torrent.Torrent) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, optionsMap(tor.Options()))
	case http.MethodPatch:
		var updates map[string]any
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
			return
		}
		sessionID := strings.TrimSpace(r.Header.Get("X-Session-Id"))
		if err := tor.SetOptions(sessionID, updates); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, optionsMap(tor.Options()))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTrackers(w http.ResponseWriter, r *http.Request, tor *torrent.Torrent) {
	switch r.Method {
	case http.MethodGet:
		status, err := tor.GetStatus("", []string{string(domain.FieldTrackers), string(domain.FieldTrackerHost), string(domain.FieldTrackerStatus)}, false, false, false)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	case http.MethodPut:
		var trackers []domain.Tracker
		if err := json.NewDecoder(r.Body).Decode(&trackers); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
			return
		}
		tor.SetTrackers(trackers)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleMoveStorage(w http.ResponseWriter, r *http.Request, tor *torrent.Torrent) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Dest string `json:"dest"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Dest) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "dest is required")
		return
	}
	writeApplied(w, tor.MoveStorage(body.Dest))
}

func (s *Server) handleConnectPeer(w http.ResponseWriter, r *http.Request, tor *torrent.Torrent) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Addr string `json:"addr"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Addr) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "addr is required")
		return
	}
	writeApplied(w, tor.ConnectPeer(body.Addr))
}

func (s *Server) handleRenameFolder(w http.ResponseWriter, r *http.Request, tor *torrent.Torrent) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Folder    string `json:"folder"`
		NewFolder string `json:"new_folder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	if err := tor.RenameFolder(body.Folder, body.NewFolder); err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.FolderRenamesTotal.Inc()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleRenameFiles(w http.ResponseWriter, r *http.Request, tor *torrent.Torrent) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Renames []torrent.FileRename `json:"renames"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Renames) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "renames are required")
		return
	}
	tor.RenameFiles(body.Renames)
	w.WriteHeader(http.StatusAccepted)
}
