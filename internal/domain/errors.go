package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrUnknownField is returned when a status query names a field that is
	// not in the registry. No default is substituted.
	ErrUnknownField = errors.New("unknown status field")

	// ErrPriorityRange rejects torrent priorities outside [0,255].
	ErrPriorityRange = errors.New("torrent priority out of range [0,255]")

	// ErrFilePrioritiesLength rejects a file-priority vector whose length
	// does not match the torrent's file count.
	ErrFilePrioritiesLength = errors.New("file priorities length mismatch")

	// ErrEmptyFolderName rejects a folder rename with an empty target.
	ErrEmptyFolderName = errors.New("invalid empty folder name")
)
