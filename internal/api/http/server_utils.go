package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"torrentcore/internal/domain"
	"torrentcore/internal/torrent"
)

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "torrent not found")
	case errors.Is(err, torrent.ErrInvalidSource):
		writeError(w, http.StatusBadRequest, "invalid_request", "exactly one torrent source is required")
	case errors.Is(err, domain.ErrUnknownField):
		writeError(w, http.StatusBadRequest, "unknown_field", err.Error())
	case errors.Is(err, domain.ErrPriorityRange):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrFilePrioritiesLength):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrEmptyFolderName):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorPayload{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseBoolQuery(value string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, nil
	}
	switch strings.ToLower(value) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, errors.New("invalid bool")
	}
}

func parseCommaSeparated(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// optionsMap renders options under their wire keys, the same keys an options
// update accepts.
func optionsMap(o domain.Options) map[string]any {
	mapped := make(map[string]string, len(o.MappedFiles))
	for idx, path := range o.MappedFiles {
		mapped[strconv.Itoa(idx)] = path
	}
	return map[string]any{
		domain.OptMaxConnections:      o.MaxConnections,
		domain.OptMaxUploadSlots:      o.MaxUploadSlots,
		domain.OptMaxUploadSpeed:      o.MaxUploadSpeed,
		domain.OptMaxDownloadSpeed:    o.MaxDownloadSpeed,
		domain.OptPrioritizeFirstLast: o.PrioritizeFirstLast,
		domain.OptSequentialDownload:  o.SequentialDownload,
		domain.OptCompactAllocation:   o.CompactAllocation,
		domain.OptDownloadLocation:    o.DownloadLocation,
		domain.OptAutoManaged:         o.AutoManaged,
		domain.OptStopAtRatio:         o.StopAtRatio,
		domain.OptStopRatio:           o.StopRatio,
		domain.OptRemoveAtRatio:       o.RemoveAtRatio,
		domain.OptMoveCompleted:       o.MoveCompleted,
		domain.OptMoveCompletedPath:   o.MoveCompletedPath,
		domain.OptAddPaused:           o.AddPaused,
		domain.OptShared:              o.Shared,
		domain.OptSuperSeeding:        o.SuperSeeding,
		domain.OptPriority:            o.Priority,
		domain.OptFilePriorities:      o.FilePriorities,
		domain.OptMappedFiles:         mapped,
		domain.OptName:                o.Name,
		domain.OptOwner:               o.Owner,
	}
}
