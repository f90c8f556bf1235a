package apihttp

import (
	"context"
	"log/slog"
	"net/http"

	"torrentcore/internal/domain"
	"torrentcore/internal/domain/ports"
	"torrentcore/internal/torrent"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TorrentService is the torrent manager surface the HTTP layer drives.
type TorrentService interface {
	Add(ctx context.Context, src domain.TorrentSource, overrides map[string]any) (*torrent.Torrent, error)
	Get(id domain.TorrentID) (*torrent.Torrent, error)
	List() []*torrent.Torrent
	Remove(ctx context.Context, id domain.TorrentID) error
	PauseSession()
	ResumeSession()
}

// SessionController manages RPC consumer sessions and answers the auth
// questions the torrent core asks about them.
type SessionController interface {
	ports.SessionAuth
	Create(level ports.AuthLevel) (string, error)
	Revoke(sessionID string)
}

type Server struct {
	torrents TorrentService
	sessions SessionController
	hub      *Hub
	logger   *slog.Logger
	handler  http.Handler
}

type ServerOption func(*Server)

func WithSessions(ctrl SessionController) ServerOption {
	return func(s *Server) {
		s.sessions = ctrl
	}
}

// WithHub attaches the WebSocket hub events are broadcast through. The hub
// is constructed separately because the torrent manager needs it before the
// server exists.
func WithHub(hub *Hub) ServerOption {
	return func(s *Server) {
		s.hub = hub
	}
}

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func NewServer(torrents TorrentService, opts ...ServerOption) *Server {
	s := &Server{torrents: torrents}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/torrents", s.handleTorrents)
	mux.HandleFunc("/torrents/", s.handleTorrentByID)
	mux.HandleFunc("/sessions", s.handleSessions)
	mux.HandleFunc("/sessions/", s.handleSessionByID)
	mux.HandleFunc("/session/pause", s.handleSessionPause)
	mux.HandleFunc("/session/resume", s.handleSessionResume)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", s.handleWS)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "torrent-core",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/metrics"
		}),
	)
	s.handler = recoveryMiddleware(s.logger, rateLimitMiddleware(100, 200, metricsMiddleware(corsMiddleware(traced))))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket not available", http.StatusServiceUnavailable)
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	client := &wsClient{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	s.hub.register <- client
	go client.writePump()
	go client.readPump()
}

// Close disconnects all WebSocket clients.
func (s *Server) Close() {
	if s.hub != nil {
		s.hub.Close()
	}
}
