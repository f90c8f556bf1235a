package torrent

import (
	"reflect"

	"torrentcore/internal/domain"
)

// GetStatus answers a status query for one consumer session.
//
// With update true the engine snapshot is re-fetched first; the cache is
// never refreshed otherwise. With allKeys true the requested keys are
// replaced by the full field set. Unknown keys fail the whole query.
//
// With diff true the result is scoped to sessionID: the first call returns
// the full set and stores it as the baseline; later calls return only the
// fields whose value changed since the session's previous call, and advance
// the baseline. A key absent from a diff means "unchanged".
func (t *Torrent) GetStatus(sessionID string, keys []string, diff, update, allKeys bool) (map[string]any, error) {
	if update {
		st := t.handle.Status()
		t.mu.Lock()
		t.ingestSnapshotLocked(st)
		t.mu.Unlock()
	}

	var fields []domain.StatusField
	if allKeys {
		fields = domain.AllStatusFields()
	} else {
		fields = make([]domain.StatusField, 0, len(keys))
		for _, k := range keys {
			f, err := domain.ParseStatusField(k)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	full := make(map[string]any, len(fields))
	for _, f := range fields {
		full[string(f)] = t.fieldValueLocked(f)
	}

	if !diff {
		return full, nil
	}

	prev, ok := t.prevStatus[sessionID]
	t.prevStatus[sessionID] = full
	if !ok {
		return full, nil
	}

	changed := make(map[string]any)
	for k, v := range full {
		pv, seen := prev[k]
		if !seen || !reflect.DeepEqual(pv, v) {
			changed[k] = v
		}
	}
	return changed, nil
}

// PruneSessions drops differential baselines of sessions that are no longer
// valid. Runs independently of GetStatus.
func (t *Torrent) PruneSessions() {
	if t.auth == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for sid := range t.prevStatus {
		if !t.auth.IsValid(sid) {
			delete(t.prevStatus, sid)
		}
	}
}

// SessionBaselines reports how many per-session diff baselines are held.
func (t *Torrent) SessionBaselines() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.prevStatus)
}
