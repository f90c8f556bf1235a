package apihttp

import (
	"encoding/json"
	"net/http"
	"strings"

	"torrentcore/internal/domain/ports"
)

type createSessionJSON struct {
	Level string `json:"level"`
}

type sessionResponse struct {
	ID    string `json:"id"`
	Level string `json:"level"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "sessions not configured")
		return
	}

	var body createSessionJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	level, ok := parseAuthLevel(body.Level)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid level")
		return
	}

	id, err := s.sessions.Create(level)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{ID: id, Level: body.Level})
}

func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "sessions not configured")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/sessions/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session id is required")
		return
	}
	s.sessions.Revoke(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionPause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.torrents.PauseSession()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.torrents.ResumeSession()
	w.WriteHeader(http.StatusNoContent)
}

func parseAuthLevel(level string) (ports.AuthLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "normal":
		return ports.AuthLevelNormal, true
	case "admin":
		return ports.AuthLevelAdmin, true
	default:
		return ports.AuthLevelNone, false
	}
}
