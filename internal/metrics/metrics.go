package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "torrentcore",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "torrentcore",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method", "path"})

	ActiveTorrents = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "torrentcore",
		Name:      "active_torrents",
		Help:      "Number of torrents currently managed.",
	})

	DownloadSpeedBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "torrentcore",
		Name:      "download_speed_bytes",
		Help:      "Current aggregate download speed in bytes per second.",
	})

	UploadSpeedBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "torrentcore",
		Name:      "upload_speed_bytes",
		Help:      "Current aggregate upload speed in bytes per second.",
	})

	StateTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "torrentcore",
		Name:      "state_transitions_total",
		Help:      "Total lifecycle state transitions by resulting state.",
	}, []string{"state"})

	StatusRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "torrentcore",
		Name:      "status_requests_total",
		Help:      "Total status queries by mode (full or diff).",
	}, []string{"mode"})

	FolderRenamesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "torrentcore",
		Name:      "folder_renames_total",
		Help:      "Total completed folder renames.",
	})

	ResumeDataWritesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "torrentcore",
		Name:      "resume_data_writes_total",
		Help:      "Total resume-data blobs persisted.",
	})

	PeersConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "torrentcore",
		Name:      "peers_connected",
		Help:      "Total number of peers connected across all torrents.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ActiveTorrents,
		DownloadSpeedBytes,
		UploadSpeedBytes,
		StateTransitionsTotal,
		StatusRequestsTotal,
		FolderRenamesTotal,
		ResumeDataWritesTotal,
		PeersConnected,
	)
}
