package torrent

import (
	"context"
	"log/slog"
	"time"

	"torrentcore/internal/metrics"
)

// Sync periodically refreshes every torrent's snapshot, re-derives lifecycle
// states and prunes stale per-session status baselines.
type Sync struct {
	Manager  *Manager
	Logger   *slog.Logger
	Interval time.Duration
}

func (s Sync) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sync()
		}
	}
}

func (s Sync) sync() {
	torrents := s.Manager.List()

	var totalDown, totalUp int64
	var peers int
	for _, t := range torrents {
		st := t.RefreshStatus()
		state, changed := t.UpdateState()
		t.PruneSessions()

		totalDown += st.DownloadPayloadRate
		totalUp += st.UploadPayloadRate
		peers += st.NumPeers

		if changed {
			if s.Logger != nil {
				s.Logger.Debug("torrent state changed",
					slog.String("torrentId", string(t.ID())),
					slog.String("state", string(state)))
			}
			metrics.StateTransitionsTotal.WithLabelValues(string(state)).Inc()
		}
	}

	metrics.ActiveTorrents.Set(float64(len(torrents)))
	metrics.DownloadSpeedBytes.Set(float64(totalDown))
	metrics.UploadSpeedBytes.Set(float64(totalUp))
	metrics.PeersConnected.Set(float64(peers))
}
