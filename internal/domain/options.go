package domain

// Option keys accepted in an options update. Unknown keys in an update are
// ignored; every key below is present in the defaults for the lifetime of
// the torrent.
const (
	OptMaxConnections      = "max_connections"
	OptMaxUploadSlots      = "max_upload_slots"
	OptMaxUploadSpeed      = "max_upload_speed"
	OptMaxDownloadSpeed    = "max_download_speed"
	OptPrioritizeFirstLast = "prioritize_first_last_pieces"
	OptSequentialDownload  = "sequential_download"
	OptCompactAllocation   = "compact_allocation"
	OptDownloadLocation    = "download_location"
	OptAutoManaged         = "auto_managed"
	OptStopAtRatio         = "stop_at_ratio"
	OptStopRatio           = "stop_ratio"
	OptRemoveAtRatio       = "remove_at_ratio"
	OptMoveCompleted       = "move_completed"
	OptMoveCompletedPath   = "move_completed_path"
	OptAddPaused           = "add_paused"
	OptShared              = "shared"
	OptSuperSeeding        = "super_seeding"
	OptPriority            = "priority"
	OptFilePriorities      = "file_priorities"
	OptMappedFiles         = "mapped_files"
	OptName                = "name"
	OptOwner               = "owner"
)

// Options holds the user-configurable behavior of one torrent. Speed limits
// are in KiB/s with -1 meaning unlimited; they are scaled to bytes/s only
// when pushed to the engine.
type Options struct {
	MaxConnections      int
	MaxUploadSlots      int
	MaxUploadSpeed      float64
	MaxDownloadSpeed    float64
	PrioritizeFirstLast bool
	SequentialDownload  bool
	CompactAllocation   bool
	DownloadLocation    string
	AutoManaged         bool
	StopAtRatio         bool
	StopRatio           float64
	RemoveAtRatio       bool
	MoveCompleted       bool
	MoveCompletedPath   string
	AddPaused           bool
	Shared              bool
	SuperSeeding        bool
	Priority            int
	FilePriorities      []int
	MappedFiles         map[int]string
	Name                string
	Owner               string
}

// DefaultOptions returns the global per-torrent defaults.
func DefaultOptions() Options {
	return Options{
		MaxConnections:   -1,
		MaxUploadSlots:   -1,
		MaxUploadSpeed:   -1,
		MaxDownloadSpeed: -1,
		AutoManaged:      true,
		StopRatio:        2.0,
		MappedFiles:      map[int]string{},
	}
}

// Clone returns a deep copy so callers can hand options around without
// sharing the slice and map fields.
func (o Options) Clone() Options {
	out := o
	if o.FilePriorities != nil {
		out.FilePriorities = append([]int(nil), o.FilePriorities...)
	}
	if o.MappedFiles != nil {
		out.MappedFiles = make(map[int]string, len(o.MappedFiles))
		for k, v := range o.MappedFiles {
			out.MappedFiles[k] = v
		}
	}
	return out
}
