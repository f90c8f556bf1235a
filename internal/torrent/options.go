package torrent

import (
	"fmt"
	"log/slog"

	"torrentcore/internal/domain"
	"torrentcore/internal/domain/ports"
)

// maxTorrentPriority is the upper bound of the per-torrent bandwidth weight.
const maxTorrentPriority = 255

// optionApplyOrder fixes the order option setters run in so batched updates
// behave deterministically. file_priorities runs after the prioritize flag.
var optionApplyOrder = []string{
	domain.OptMaxConnections,
	domain.OptMaxUploadSlots,
	domain.OptMaxUploadSpeed,
	domain.OptMaxDownloadSpeed,
	domain.OptSequentialDownload,
	domain.OptCompactAllocation,
	domain.OptDownloadLocation,
	domain.OptAutoManaged,
	domain.OptStopAtRatio,
	domain.OptStopRatio,
	domain.OptRemoveAtRatio,
	domain.OptMoveCompleted,
	domain.OptMoveCompletedPath,
	domain.OptAddPaused,
	domain.OptShared,
	domain.OptSuperSeeding,
	domain.OptPriority,
	domain.OptPrioritizeFirstLast,
	domain.OptFilePriorities,
	domain.OptMappedFiles,
	domain.OptName,
	domain.OptOwner,
}

// SetOptions applies a named-key options update. Keys with a setter are
// dispatched to it; recognized keys without engine effect are stored as-is;
// unknown keys are ignored. The caller's map is never mutated.
//
// When file_priorities and prioritize_first_last_pieces arrive in the same
// batch, the prioritize flag is stored without dispatch and re-derived
// inside the file-priorities setter.
func (t *Torrent) SetOptions(sessionID string, updates map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	skipPrioritize := false
	if _, ok := updates[domain.OptFilePriorities]; ok {
		if v, present := updates[domain.OptPrioritizeFirstLast]; present {
			if b, ok := asBool(v); ok {
				t.options.PrioritizeFirstLast = b
			}
			skipPrioritize = true
		}
	}

	for _, key := range optionApplyOrder {
		v, ok := updates[key]
		if !ok {
			continue
		}
		if key == domain.OptPrioritizeFirstLast && skipPrioritize {
			continue
		}
		if err := t.applyOptionLocked(sessionID, key, v); err != nil {
			return err
		}
	}
	return nil
}

func (t *Torrent) applyOptionLocked(sessionID, key string, v any) error {
	switch key {
	case domain.OptMaxConnections:
		if n, ok := asInt(v); ok {
			t.setMaxConnections(n)
		}
	case domain.OptMaxUploadSlots:
		if n, ok := asInt(v); ok {
			t.setMaxUploadSlots(n)
		}
	case domain.OptMaxUploadSpeed:
		if f, ok := asFloat(v); ok {
			t.setMaxUploadSpeed(f)
		}
	case domain.OptMaxDownloadSpeed:
		if f, ok := asFloat(v); ok {
			t.setMaxDownloadSpeed(f)
		}
	case domain.OptSequentialDownload:
		if b, ok := asBool(v); ok {
			t.setSequentialDownload(b)
		}
	case domain.OptCompactAllocation:
		if b, ok := asBool(v); ok {
			t.options.CompactAllocation = b
		}
	case domain.OptDownloadLocation:
		if s, ok := v.(string); ok {
			t.options.DownloadLocation = s
		}
	case domain.OptAutoManaged:
		if b, ok := asBool(v); ok {
			t.setAutoManaged(b)
		}
	case domain.OptStopAtRatio:
		if b, ok := asBool(v); ok {
			t.options.StopAtRatio = b
		}
	case domain.OptStopRatio:
		if f, ok := asFloat(v); ok {
			t.options.StopRatio = f
		}
	case domain.OptRemoveAtRatio:
		if b, ok := asBool(v); ok {
			t.options.RemoveAtRatio = b
		}
	case domain.OptMoveCompleted:
		if b, ok := asBool(v); ok {
			t.options.MoveCompleted = b
		}
	case domain.OptMoveCompletedPath:
		if s, ok := v.(string); ok {
			t.options.MoveCompletedPath = s
		}
	case domain.OptAddPaused:
		if b, ok := asBool(v); ok {
			t.options.AddPaused = b
		}
	case domain.OptShared:
		if b, ok := asBool(v); ok {
			t.options.Shared = b
		}
	case domain.OptSuperSeeding:
		if b, ok := asBool(v); ok {
			t.setSuperSeeding(b)
		}
	case domain.OptPriority:
		if n, ok := asInt(v); ok {
			return t.setPriority(n)
		}
	case domain.OptPrioritizeFirstLast:
		if b, ok := asBool(v); ok {
			t.setPrioritizeFirstLast(b)
		}
	case domain.OptFilePriorities:
		if prios, ok := asIntSlice(v); ok {
			return t.setFilePriorities(prios)
		}
	case domain.OptMappedFiles:
		if m, ok := v.(map[int]string); ok {
			t.options.MappedFiles = m
		}
	case domain.OptName:
		if s, ok := v.(string); ok {
			t.options.Name = s
		}
	case domain.OptOwner:
		if s, ok := v.(string); ok {
			t.setOwner(sessionID, s)
		}
	}
	return nil
}

// pushOptionsLocked pushes all engine-affecting options to the handle. Used
// once at construction; later changes go through SetOptions.
func (t *Torrent) pushOptionsLocked() {
	t.handle.SetMaxConnections(t.options.MaxConnections)
	t.handle.SetMaxUploadSlots(t.options.MaxUploadSlots)
	t.handle.SetUploadLimit(engineRate(t.options.MaxUploadSpeed))
	t.handle.SetDownloadLimit(engineRate(t.options.MaxDownloadSpeed))
	t.handle.SetSequentialDownload(t.options.SequentialDownload)
	if !(t.status.Paused && !t.status.AutoManaged) {
		t.handle.SetAutoManaged(t.options.AutoManaged)
	}
}

func (t *Torrent) setMaxConnections(n int) {
	t.options.MaxConnections = n
	t.handle.SetMaxConnections(n)
}

func (t *Torrent) setMaxUploadSlots(n int) {
	t.options.MaxUploadSlots = n
	t.handle.SetMaxUploadSlots(n)
}

func (t *Torrent) setMaxUploadSpeed(kibps float64) {
	t.options.MaxUploadSpeed = kibps
	t.handle.SetUploadLimit(engineRate(kibps))
}

func (t *Torrent) setMaxDownloadSpeed(kibps float64) {
	t.options.MaxDownloadSpeed = kibps
	t.handle.SetDownloadLimit(engineRate(kibps))
}

// engineRate converts a KiB/s limit to the engine's bytes/s form.
// Negative means unlimited and passes through as -1.
func engineRate(kibps float64) int {
	if kibps < 0 {
		return -1
	}
	return int(kibps * 1024)
}

func (t *Torrent) setSequentialDownload(on bool) {
	t.options.SequentialDownload = on
	t.handle.SetSequentialDownload(on)
}

func (t *Torrent) setAutoManaged(on bool) {
	t.options.AutoManaged = on
	// While paused and not auto-managed the flag stays suppressed so the
	// engine's queueing cannot silently resume the torrent.
	if !(t.status.Paused && !t.status.AutoManaged) {
		t.handle.SetAutoManaged(on)
		t.updateStateLocked()
	}
}

func (t *Torrent) setSuperSeeding(on bool) {
	// Super seeding only makes sense while seeding.
	if on && t.status.IsSeeding {
		t.options.SuperSeeding = true
		t.handle.SetSuperSeeding(true)
		return
	}
	t.options.SuperSeeding = false
}

func (t *Torrent) setPriority(p int) error {
	if p < 0 || p > maxTorrentPriority {
		return fmt.Errorf("%w: %d", domain.ErrPriorityRange, p)
	}
	t.options.Priority = p
	t.handle.SetPriority(p)
	return nil
}

func (t *Torrent) setOwner(sessionID, owner string) {
	if t.auth == nil || t.auth.Level(sessionID) != ports.AuthLevelAdmin {
		return
	}
	t.options.Owner = owner
}

func (t *Torrent) setPrioritizeFirstLast(on bool) {
	t.options.PrioritizeFirstLast = on
	if !on {
		// Turning the flag off reapplies the plain per-file priority
		// vector with no boosting.
		_ = t.setFilePriorities(t.options.FilePriorities)
		return
	}
	if !t.hasMetadata {
		return
	}
	if t.options.CompactAllocation {
		t.logger.Debug("first/last prioritization skipped with compact allocation",
			slog.String("torrentId", string(t.id)))
		return
	}
	t.prioritizeFirstLastLocked()
}

func (t *Torrent) setFilePriorities(prios []int) error {
	if !t.hasMetadata {
		return nil
	}
	if t.options.CompactAllocation {
		t.logger.Debug("file priorities skipped with compact allocation",
			slog.String("torrentId", string(t.id)))
		t.options.FilePriorities = t.handle.FilePriorities()
		return nil
	}
	if len(prios) != len(t.info.Files) {
		return fmt.Errorf("%w: got %d, torrent has %d files",
			domain.ErrFilePrioritiesLength, len(prios), len(t.info.Files))
	}

	t.handle.SetFilePriorities(prios)

	// A file previously marked do-not-download that is now wanted again
	// makes the torrent unfinished.
	for i, old := range t.options.FilePriorities {
		if old == 0 && i < len(prios) && prios[i] > 0 {
			t.isFinished = false
			t.updateStateLocked()
			break
		}
	}

	// Store what the engine actually holds, in case values were clamped.
	t.options.FilePriorities = t.handle.FilePriorities()

	if t.options.PrioritizeFirstLast {
		t.setPrioritizeFirstLast(true)
	}
	return nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asIntSlice(v any) ([]int, bool) {
	switch s := v.(type) {
	case []int:
		return s, true
	case []any:
		out := make([]int, 0, len(s))
		for _, e := range s {
			n, ok := asInt(e)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	}
	return nil, false
}
